package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"AgriConnect/pkg/correlation"

	"github.com/gin-gonic/gin"
)

// maxLoggedBody caps bodies attached to failed read API requests.
const maxLoggedBody = 8 * 1024

// webhookPrefix marks routes whose bodies hold buyer notes and cart data.
// Their bodies are never logged, only their size.
const webhookPrefix = "/webhooks/"

type capturingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		w.body.Write(b[:min(len(b), room)])
	}
	return w.ResponseWriter.Write(b)
}

// CorrelationMiddleware stores the delivery's correlation id in the request
// context and echoes it on the response.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		corrID := correlation.FromRequest(c.Request.Header)
		c.Request = c.Request.WithContext(correlation.WithID(c.Request.Context(), corrID))
		c.Header(correlation.HeaderName, corrID)
		c.Next()
	}
}

// GinRequestLogger logs one line per request. 4xx and 5xx responses are
// logged at warn with the response body, and with the request body for
// everything except webhook routes.
func GinRequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		webhook := strings.HasPrefix(c.Request.URL.Path, webhookPrefix)

		var requestBody []byte
		if !webhook && c.Request.Body != nil {
			requestBody, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxLoggedBody+1))
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(requestBody), c.Request.Body))
		}

		writer := &capturingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if c.Request.URL.RawQuery != "" {
			attrs = append(attrs, "query", c.Request.URL.RawQuery)
		}
		if webhook {
			attrs = append(attrs, "body_bytes", c.Request.ContentLength)
		}

		level := slog.LevelInfo
		if status >= 400 {
			level = slog.LevelWarn
			if !webhook {
				attrs = append(attrs, bodyAttr("request_body", requestBody))
			}
			attrs = append(attrs, bodyAttr("response_body", writer.body.Bytes()))
		}

		slog.Log(c.Request.Context(), level, "HTTP Request", attrs...)
	}
}

func bodyAttr(key string, b []byte) slog.Attr {
	b = bytes.TrimSpace(b)
	if len(b) > maxLoggedBody {
		b = b[:maxLoggedBody]
	}
	switch {
	case len(b) == 0:
		return slog.Any(key, nil)
	case json.Valid(b):
		return slog.Any(key, json.RawMessage(b))
	default:
		return slog.String(key, string(b))
	}
}
