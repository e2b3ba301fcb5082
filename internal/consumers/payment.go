// Package consumers turns transport messages into reconciliation calls.
package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"AgriConnect/internal/domain/order"
	"AgriConnect/internal/domain/payment"
	"AgriConnect/internal/messaging"
	"AgriConnect/pkg/logger"
	"AgriConnect/pkg/metrics"
)

//go:generate mockgen -source=payment.go -destination=mock_reconciler_test.go -package=consumers

type Reconciler interface {
	Reconcile(ctx context.Context, ev payment.Event) (order.Outcome, error)
}

// PaymentMessageController handles verified payment webhook messages from
// the in-process queue or Kafka.
type PaymentMessageController struct {
	reconciler Reconciler
}

func NewPaymentMessageController(r Reconciler) *PaymentMessageController {
	return &PaymentMessageController{reconciler: r}
}

// HandleMessage processes a single payment webhook message. The returned
// error is for the transport to park or log; it is never retried here.
func (c *PaymentMessageController) HandleMessage(ctx context.Context, key, value []byte) error {
	// The HTTP request that produced this message may already be gone.
	ctx = context.WithoutCancel(ctx)

	env, err := messaging.DecodeEnvelope(value)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode payment envelope",
			"provider_order_id", string(key),
			slog.Any("error", err))
		return err
	}
	ctx = logger.With(ctx,
		"provider_order_id", env.Key,
		"event_id", env.EventID,
		"event_type", env.EventType)

	ev, err := payment.ParseEvent(env.Payload, env.ReceivedAt)
	if err != nil {
		metrics.ReconciliationsTotal.WithLabelValues(eventLabel(payment.EventType(env.EventType)), string(order.OutcomeRejected)).Inc()
		slog.ErrorContext(ctx, "Failed to parse payment event", slog.Any("error", err))
		return fmt.Errorf("parse payment event %s: %w", env.EventID, err)
	}

	start := time.Now()
	outcome, err := c.reconciler.Reconcile(ctx, ev)
	label := eventLabel(ev.Type)
	metrics.ReconciliationDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	metrics.ReconciliationsTotal.WithLabelValues(label, string(outcome.Kind)).Inc()

	if err != nil {
		return fmt.Errorf("reconcile %s: %w", env.EventID, err)
	}

	slog.InfoContext(ctx, "Payment message processed",
		"provider_payment_id", ev.ProviderPaymentID,
		"outcome", outcome.Kind,
		"queued_for", time.Since(env.ReceivedAt).Round(time.Millisecond))
	return nil
}

// eventLabel bounds metric cardinality to the recognized event types.
func eventLabel(t payment.EventType) string {
	if t.Class() == payment.ClassIgnored {
		return "other"
	}
	return string(t)
}
