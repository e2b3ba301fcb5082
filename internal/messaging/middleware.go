package messaging

import (
	"context"
	"time"

	"AgriConnect/pkg/metrics"
)

const dlqPublishTimeout = 5 * time.Second

// DLQPublisher can publish failed messages to a dead letter queue.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, key, value []byte, err error) error
}

// WithDLQ parks failed messages on the dead letter queue and reports success,
// so the consumer commits the offset. Messages are never retried here: the
// provider redelivers and reconciliation is idempotent.
func WithDLQ(handler MessageHandler, dlq DLQPublisher) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		err := handler(ctx, key, value)
		if err == nil {
			return nil
		}

		// Main ctx may already be cancelled during shutdown.
		dlqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dlqPublishTimeout)
		defer cancel()
		// Errors are logged by the publisher.
		_ = dlq.PublishToDLQ(dlqCtx, key, value, err)
		return nil
	}
}

// WithMetrics records processing duration and result per topic and group.
func WithMetrics(topic, group string, handler MessageHandler) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		start := time.Now()
		err := handler(ctx, key, value)

		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.KafkaProcessingDuration.WithLabelValues(topic, group, status).Observe(time.Since(start).Seconds())
		metrics.KafkaMessagesProcessed.WithLabelValues(topic, group, status).Inc()
		return err
	}
}
