package logger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AgriConnect/pkg/correlation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(Options{Level: "debug", Output: &buf}))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestCorrelationMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CorrelationMiddleware())
	var seen string
	engine.POST("/webhooks/razorpay", func(c *gin.Context) {
		seen = correlation.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("should use the provider event id when no correlation header is sent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", nil)
		req.Header.Set(correlation.ProviderEventHeader, "evt_1")
		rec := httptest.NewRecorder()

		engine.ServeHTTP(rec, req)

		assert.Equal(t, "evt_1", seen)
		assert.Equal(t, "evt_1", rec.Header().Get(correlation.HeaderName))
	})

	t.Run("should prefer the caller correlation header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", nil)
		req.Header.Set(correlation.HeaderName, "corr-9")
		req.Header.Set(correlation.ProviderEventHeader, "evt_1")
		rec := httptest.NewRecorder()

		engine.ServeHTTP(rec, req)

		assert.Equal(t, "corr-9", seen)
	})
}

func TestGinRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(GinRequestLogger())
	engine.POST("/webhooks/razorpay", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
	})
	engine.POST("/orders/:order_id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	})

	t.Run("should never log webhook bodies", func(t *testing.T) {
		buf := captureDefault(t)
		body := `{"payload":{"payment":{"entity":{"notes":{"buyer_id":"b1"}}}}}`

		engine.ServeHTTP(httptest.NewRecorder(),
			httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", strings.NewReader(body)))

		rec := decodeLine(t, buf)
		assert.Equal(t, "WARN", rec["level"])
		assert.Equal(t, "/webhooks/razorpay", rec["route"])
		assert.Equal(t, float64(len(body)), rec["body_bytes"])
		assert.NotContains(t, rec, "request_body")
		assert.Equal(t, map[string]any{"error": "invalid signature"}, rec["response_body"])
	})

	t.Run("should log request body for failed read requests", func(t *testing.T) {
		buf := captureDefault(t)

		engine.ServeHTTP(httptest.NewRecorder(),
			httptest.NewRequest(http.MethodPost, "/orders/o1", strings.NewReader(`{"q":1}`)))

		rec := decodeLine(t, buf)
		assert.Equal(t, "/orders/:order_id", rec["route"])
		assert.Equal(t, map[string]any{"q": float64(1)}, rec["request_body"])
		assert.NotContains(t, rec, "body_bytes")
	})
}
