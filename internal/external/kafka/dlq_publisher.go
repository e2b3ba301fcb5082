package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"AgriConnect/pkg/correlation"
	"AgriConnect/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// Headers on a parked payment message.
const (
	headerReconcileError = "reconcile_error"
	headerParkedAt       = "parked_at"
	headerSourceTopic    = "source_topic"
)

// DLQPublisher parks payment messages whose reconciliation failed, keyed by
// provider order id so an operator can replay them in order.
type DLQPublisher struct {
	writer      *kafka.Writer
	sourceTopic string
}

func NewDLQPublisher(brokers []string, sourceTopic, dlqTopic string) *DLQPublisher {
	return &DLQPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		sourceTopic: sourceTopic,
	}
}

func (p *DLQPublisher) PublishToDLQ(ctx context.Context, key, value []byte, err error) error {
	msg := p.parkedMessage(ctx, key, value, err, time.Now())

	if writeErr := p.writer.WriteMessages(ctx, msg); writeErr != nil {
		slog.ErrorContext(ctx, "Failed to park payment message",
			"dlq_topic", p.writer.Topic,
			"provider_order_id", string(key),
			slog.Any("error", writeErr),
			slog.Any("reconcile_error", err))
		return fmt.Errorf("park payment message %s: %w", key, writeErr)
	}

	metrics.KafkaDLQPublished.WithLabelValues(p.writer.Topic).Inc()
	slog.WarnContext(ctx, "Payment message parked",
		"dlq_topic", p.writer.Topic,
		"provider_order_id", string(key),
		slog.Any("reconcile_error", err))
	return nil
}

func (p *DLQPublisher) Close() error {
	return p.writer.Close()
}

func (p *DLQPublisher) parkedMessage(ctx context.Context, key, value []byte, err error, parkedAt time.Time) kafka.Message {
	headers := []kafka.Header{
		{Key: headerReconcileError, Value: []byte(err.Error())},
		{Key: headerParkedAt, Value: []byte(parkedAt.UTC().Format(time.RFC3339))},
		{Key: headerSourceTopic, Value: []byte(p.sourceTopic)},
	}
	if corrID := correlation.FromContext(ctx); corrID != "" {
		headers = append(headers, kafka.Header{Key: correlation.KafkaHeaderName, Value: []byte(corrID)})
	}
	return kafka.Message{Key: key, Value: value, Headers: headers}
}
