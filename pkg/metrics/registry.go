package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every agri_* series plus runtime collectors. The default
// Prometheus registry is left untouched so tests can build isolated engines.
var Registry = prometheus.NewRegistry()

// Info is a constant 1 labelled with the service name and dispatch mode.
var Info = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "agri",
		Name:      "service_info",
		Help:      "Webhook service identity; value is always 1",
	},
	[]string{"service", "dispatch_mode", "go_version"},
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Info,
	)
}

// SetInfo records the running service identity.
func SetInfo(service, dispatchMode string) {
	Info.Reset()
	Info.WithLabelValues(service, dispatchMode, runtime.Version()).Set(1)
}

// Handler serves Registry in the Prometheus exposition format. Collection
// errors are served as 500 rather than a partial scrape.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		Registry:      Registry,
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
