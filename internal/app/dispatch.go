package app

import (
	"context"
	"log/slog"

	"AgriConnect/config"
	"AgriConnect/internal/consumers"
	"AgriConnect/internal/external/kafka"
	"AgriConnect/internal/messaging"
	"AgriConnect/internal/queue"
	"AgriConnect/pkg/health"
)

// dispatch is the transport between the webhook endpoint and reconciliation.
type dispatch struct {
	publisher messaging.Publisher
	runner    *messaging.Runner
	// drain keeps workers running after intake closes until the backlog is empty.
	drain   bool
	backlog func() int
	closers []func() error
}

func newDispatch(cfg config.Config, controller *consumers.PaymentMessageController, registry *health.Registry) *dispatch {
	if cfg.DispatchMode == config.DispatchKafka {
		return newKafkaDispatch(cfg, controller, registry)
	}

	q := queue.New(cfg.QueueHighWatermark)
	return &dispatch{
		publisher: q,
		runner:    messaging.NewRunner(q.Workers(cfg.QueueWorkers), controller.HandleMessage),
		drain:     true,
		backlog:   q.Len,
	}
}

func newKafkaDispatch(cfg config.Config, controller *consumers.PaymentMessageController, registry *health.Registry) *dispatch {
	registry.Add(health.NewKafkaChecker(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic))

	dlq := kafka.NewDLQPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic, cfg.KafkaPaymentsDLQTopic)
	handler := messaging.WithDLQ(
		messaging.WithMetrics(cfg.KafkaPaymentsTopic, cfg.KafkaPaymentsConsumerGroup, controller.HandleMessage),
		dlq,
	)
	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic, cfg.KafkaPaymentsConsumerGroup)

	return &dispatch{
		publisher: kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic),
		runner:    messaging.NewRunner([]messaging.Worker{consumer}, handler),
		backlog:   func() int { return 0 },
		closers:   []func() error{dlq.Close},
	}
}

func (d *dispatch) start(ctx context.Context, mode string) <-chan error {
	done := make(chan error, 1)
	go func() {
		slog.Info("Starting reconciliation workers", "dispatch_mode", mode)
		done <- d.runner.Start(ctx)
	}()
	return done
}

func (d *dispatch) close() {
	for _, c := range d.closers {
		if err := c(); err != nil {
			slog.Error("Failed to close dispatch resource", slog.Any("error", err))
		}
	}
}
