//go:build integration
// +build integration

package testinfra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

// paymentPartitions spreads provider orders over more than one partition so
// key-based ordering is actually exercised.
const paymentPartitions = 3

// KafkaContainer is a single broker with a fresh payments topic, its dead
// letter topic and a consumer group name, unique per run.
type KafkaContainer struct {
	Container     *kafka.KafkaContainer
	Brokers       []string
	PaymentsTopic string
	DLQTopic      string
	PaymentsGroup string
}

func NewKafka(ctx context.Context) (*KafkaContainer, error) {
	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("agri-test"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start kafka container: %w", err)
	}

	brokers, err := container.Brokers(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get brokers: %w", err)
	}

	run := uuid.NewString()[:8]
	kc := &KafkaContainer{
		Container:     container,
		Brokers:       brokers,
		PaymentsTopic: "payments.webhooks." + run,
		DLQTopic:      "payments.webhooks.dlq." + run,
		PaymentsGroup: "payments-reconcilers-" + run,
	}

	if err := createTopics(ctx, brokers[0], kc.PaymentsTopic, kc.DLQTopic); err != nil {
		kc.Cleanup(ctx)
		return nil, err
	}
	return kc, nil
}

// createTopics retries while the broker accepts connections but cannot yet
// serve admin requests.
func createTopics(ctx context.Context, broker string, topics ...string) error {
	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     paymentPartitions,
			ReplicationFactor: 1,
		})
	}

	var lastErr error
	for attempt := 0; attempt < 20; attempt++ {
		if lastErr = createOnController(ctx, broker, configs); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
	return fmt.Errorf("create topics %v: %w", topics, lastErr)
}

func createOnController(ctx context.Context, broker string, configs []kafkago.TopicConfig) error {
	conn, err := kafkago.DialContext(ctx, "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}
	cc, err := kafkago.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cc.Close()

	err = cc.CreateTopics(configs...)
	if errors.Is(err, kafkago.TopicAlreadyExists) {
		return nil
	}
	return err
}

func (c *KafkaContainer) Cleanup(ctx context.Context) {
	if c.Container != nil {
		_ = c.Container.Terminate(ctx)
	}
}
