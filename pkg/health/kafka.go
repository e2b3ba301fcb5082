package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
)

var errNoBrokers = errors.New("no brokers configured")

// KafkaChecker is up when a broker answers and every required topic exists.
// Without the payments topic no verified webhook can be published.
type KafkaChecker struct {
	brokers []string
	topics  []string
}

func NewKafkaChecker(brokers []string, topics ...string) *KafkaChecker {
	return &KafkaChecker{brokers: brokers, topics: topics}
}

func (c *KafkaChecker) Name() string {
	return "kafka"
}

func (c *KafkaChecker) Check(ctx context.Context) Result {
	lastErr := errNoBrokers
	for _, broker := range c.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		err = c.checkTopics(conn)
		_ = conn.Close()
		if err != nil {
			return down(err)
		}
		return up()
	}
	return down(fmt.Errorf("brokers unreachable: %w", lastErr))
}

func (c *KafkaChecker) checkTopics(conn *kafka.Conn) error {
	if len(c.topics) == 0 {
		return nil
	}

	partitions, err := conn.ReadPartitions(c.topics...)
	if err != nil {
		return fmt.Errorf("read partitions: %w", err)
	}

	found := make(map[string]bool, len(c.topics))
	for _, p := range partitions {
		found[p.Topic] = true
	}
	for _, topic := range c.topics {
		if !found[topic] {
			return fmt.Errorf("topic %s has no partitions", topic)
		}
	}
	return nil
}
