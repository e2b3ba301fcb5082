package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that hit no registered route, so probing
// scanners cannot grow the label set.
const unmatchedRoute = "unmatched"

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agri",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of webhook and read API requests",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agri",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Webhook and read API requests by route and response status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "agri",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served",
		},
	)
)

func init() {
	Registry.MustRegister(HTTPRequestDuration, HTTPRequestsTotal, HTTPInFlight)
}

// GinMiddleware records request metrics for every route except health checks and
// the scrape endpoint.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if unobserved(c.Request.URL.Path) {
			c.Next()
			return
		}

		HTTPInFlight.Inc()
		start := time.Now()

		c.Next()

		HTTPInFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestDuration.WithLabelValues(route, c.Request.Method, status).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
	}
}

func unobserved(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/health/")
}
