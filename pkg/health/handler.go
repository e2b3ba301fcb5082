package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// LivenessResponse reports that the process is serving requests.
type LivenessResponse struct {
	Service       string `json:"service"`
	Status        Status `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// LivenessHandler answers 200 while the process can serve HTTP. It checks
// no dependency, so a database outage never restarts the webhook receiver.
func LivenessHandler(service string, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, LivenessResponse{
			Service:       service,
			Status:        StatusUp,
			UptimeSeconds: int64(time.Since(startedAt).Seconds()),
		})
	}
}

// ReadinessHandler answers 503 while any registered dependency is down. Each
// failing check is logged so the cause is visible without scraping the body.
func ReadinessHandler(registry *Registry, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		response := registry.CheckAll(ctx)
		if response.Status == StatusUp {
			c.JSON(http.StatusOK, response)
			return
		}

		for _, check := range response.Checks {
			if check.Status == StatusDown {
				slog.WarnContext(ctx, "Readiness check failed",
					"check", check.Name,
					"message", check.Message,
					"duration_ms", check.DurationMS)
			}
		}
		c.JSON(http.StatusServiceUnavailable, response)
	}
}
