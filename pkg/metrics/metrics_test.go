package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func serve(engine *gin.Engine, method, path string) {
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(GinMiddleware())
	engine.GET("/orders/:order_id", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.POST("/webhooks/razorpay", func(c *gin.Context) {
		assert.Equal(t, float64(1), testutil.ToFloat64(HTTPInFlight))
		c.Status(http.StatusBadRequest)
	})
	engine.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("should label by route template", func(t *testing.T) {
		counter := HTTPRequestsTotal.WithLabelValues("/orders/:order_id", "GET", "200")
		before := testutil.ToFloat64(counter)

		serve(engine, http.MethodGet, "/orders/abc")
		serve(engine, http.MethodGet, "/orders/def")

		assert.Equal(t, before+2, testutil.ToFloat64(counter))
	})

	t.Run("should track in-flight webhook requests", func(t *testing.T) {
		counter := HTTPRequestsTotal.WithLabelValues("/webhooks/razorpay", "POST", "400")
		before := testutil.ToFloat64(counter)

		serve(engine, http.MethodPost, "/webhooks/razorpay")

		assert.Equal(t, before+1, testutil.ToFloat64(counter))
		assert.Zero(t, testutil.ToFloat64(HTTPInFlight))
	})

	t.Run("should collapse unknown paths", func(t *testing.T) {
		counter := HTTPRequestsTotal.WithLabelValues(unmatchedRoute, "GET", "404")
		before := testutil.ToFloat64(counter)

		serve(engine, http.MethodGet, "/wp-admin")

		assert.Equal(t, before+1, testutil.ToFloat64(counter))
	})

	t.Run("should skip health and metrics endpoints", func(t *testing.T) {
		serve(engine, http.MethodGet, "/health/live")

		assert.Zero(t, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/health/live", "GET", "200")))
	})
}

func TestHandler(t *testing.T) {
	SetInfo("agri-webhook", "kafka")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `agri_service_info{dispatch_mode="kafka",go_version=`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
