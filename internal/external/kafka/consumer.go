package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"AgriConnect/internal/messaging"
	"AgriConnect/pkg/correlation"
	"AgriConnect/pkg/logger"
	"AgriConnect/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const (
	commitTimeout = 5 * time.Second
	// maxMessageBytes covers the 1 MB webhook body limit plus envelope fields.
	maxMessageBytes = 2 << 20
)

// Consumer feeds verified payment webhooks from the payments topic to a
// reconciliation handler. Offsets are committed one message at a time after
// the handler returns.
type Consumer struct {
	reader *kafka.Reader
	topic  string
	group  string
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(readerConfig(brokers, topic, groupID)),
		topic:  topic,
		group:  groupID,
	}
}

func readerConfig(brokers []string, topic, groupID string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:          brokers,
		Topic:            topic,
		GroupID:          groupID,
		MinBytes:         1,
		MaxBytes:         maxMessageBytes,
		CommitInterval:   0,
		StartOffset:      kafka.FirstOffset,
		MaxWait:          500 * time.Millisecond,
		RebalanceTimeout: 5 * time.Second,
	}
}

// Start blocks until ctx is cancelled or the reader fails.
func (c *Consumer) Start(ctx context.Context, handler messaging.MessageHandler) error {
	slog.Info("Payment consumer started", "topic", c.topic, "group_id", c.group)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				slog.Info("Payment consumer stopped", "topic", c.topic)
				return nil
			}
			return fmt.Errorf("fetch payment message from %s: %w", c.topic, err)
		}

		c.process(messageContext(ctx, msg), msg, handler)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message, handler messaging.MessageHandler) {
	slog.DebugContext(ctx, "Payment message received")

	if err := handler(ctx, msg.Key, msg.Value); err != nil {
		slog.ErrorContext(ctx, "Payment message failed, offset not committed", slog.Any("error", err))
		return
	}

	// Shutdown may have cancelled ctx after the handler finished.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		// A redelivered message after restart is absorbed by the payment ledger.
		metrics.KafkaCommitFailures.WithLabelValues(c.topic, c.group).Inc()
		slog.ErrorContext(ctx, "Failed to commit payment message", slog.Any("error", err))
		return
	}

	slog.DebugContext(ctx, "Payment message committed")
}

func (c *Consumer) Close() error {
	slog.Info("Closing payment consumer", "topic", c.topic, "group_id", c.group)
	return c.reader.Close()
}

// messageContext carries the message's correlation id and tags every log
// line of its reconciliation with the provider order and offset.
func messageContext(ctx context.Context, msg kafka.Message) context.Context {
	ctx = extractCorrelationID(ctx, msg.Headers)
	return logger.With(ctx,
		"provider_order_id", string(msg.Key),
		"partition", msg.Partition,
		"offset", msg.Offset)
}

// extractCorrelationID returns ctx carrying the message's correlation ID,
// or a fresh one when the header is absent.
func extractCorrelationID(ctx context.Context, headers []kafka.Header) context.Context {
	for _, h := range headers {
		if h.Key == correlation.KafkaHeaderName && len(h.Value) > 0 {
			return correlation.WithID(ctx, string(h.Value))
		}
	}
	return correlation.WithID(ctx, correlation.NewID())
}
