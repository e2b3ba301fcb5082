package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"AgriConnect/internal/queue"
	"AgriConnect/internal/webhook"
	"AgriConnect/pkg/metrics"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	verifier   webhook.Verifier
	dispatcher *webhook.Dispatcher
}

func NewWebhookHandler(verifier webhook.Verifier, dispatcher *webhook.Dispatcher) WebhookHandler {
	return WebhookHandler{verifier: verifier, dispatcher: dispatcher}
}

// Razorpay acknowledges a verified delivery as soon as it is queued.
// Reconciliation outcomes never change the response.
func (h *WebhookHandler) Razorpay(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		metrics.WebhooksReceived.WithLabelValues("unreadable").Inc()
		slog.ErrorContext(ctx, "Failed to read webhook body", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "failure", "message": "Failed to read request body"})
		return
	}

	if err := h.verifier.Check(body, c.GetHeader(webhook.SignatureHeader)); err != nil {
		if errors.Is(err, webhook.ErrSecretMissing) {
			metrics.WebhooksReceived.WithLabelValues("secret_missing").Inc()
			slog.ErrorContext(ctx, "Webhook secret is not configured")
			c.JSON(http.StatusInternalServerError, gin.H{"status": "failure", "message": "Webhook secret not configured"})
			return
		}
		metrics.WebhooksReceived.WithLabelValues("invalid_signature").Inc()
		slog.WarnContext(ctx, "Webhook signature mismatch")
		c.JSON(http.StatusBadRequest, gin.H{"status": "failure", "message": "Invalid signature"})
		return
	}

	if err := h.dispatcher.Dispatch(ctx, body); err != nil {
		switch {
		case errors.Is(err, queue.ErrClosed):
			metrics.WebhooksReceived.WithLabelValues("unavailable").Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "failure", "message": "Shutting down"})
		case errors.Is(err, webhook.ErrMalformedBody):
			metrics.WebhooksReceived.WithLabelValues("malformed").Inc()
			slog.ErrorContext(ctx, "Verified webhook body is not JSON", slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "failure", "message": "Failed to parse request body"})
		default:
			metrics.WebhooksReceived.WithLabelValues("dispatch_failed").Inc()
			slog.ErrorContext(ctx, "Failed to dispatch webhook", slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "failure", "message": "Failed to queue webhook"})
		}
		return
	}

	metrics.WebhooksReceived.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
