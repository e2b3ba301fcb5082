package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DispatchInProcess = "inprocess"
	DispatchKafka     = "kafka"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	PgURL     string `env:"PG_URL,required,notEmpty"`
	PgPoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Not required at boot: without it every webhook is answered with 500.
	WebhookSecret string `env:"RAZORPAY_WEBHOOK_SECRET"`
	AmountPolicy  string `env:"AMOUNT_POLICY" envDefault:"coerce"`

	// Dispatch mode: "inprocess" (bounded worker pool) or "kafka"
	DispatchMode       string `env:"DISPATCH_MODE" envDefault:"inprocess"`
	QueueWorkers       int    `env:"QUEUE_WORKERS" envDefault:"4"`
	QueueHighWatermark int    `env:"QUEUE_HIGH_WATERMARK" envDefault:"1000"`

	KafkaBrokers               []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaPaymentsTopic         string   `env:"KAFKA_PAYMENTS_TOPIC" envDefault:"webhooks.payments"`
	KafkaPaymentsConsumerGroup string   `env:"KAFKA_PAYMENTS_CONSUMER_GROUP" envDefault:"agri-reconcile"`
	KafkaPaymentsDLQTopic      string   `env:"KAFKA_PAYMENTS_DLQ_TOPIC" envDefault:"webhooks.payments.dlq"`

	RedisURL        string        `env:"REDIS_URL"`
	AppliedCacheTTL time.Duration `env:"APPLIED_CACHE_TTL" envDefault:"72h"`

	OpensearchUrls                  []string `env:"OPENSEARCH_URLS" envSeparator:","`
	OpensearchIndexReconciliations string   `env:"OPENSEARCH_INDEX_RECONCILIATIONS" envDefault:"reconciliations"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c Config) Validate() error {
	switch c.DispatchMode {
	case DispatchInProcess:
		if c.QueueWorkers < 1 {
			return fmt.Errorf("QUEUE_WORKERS must be positive, got %d", c.QueueWorkers)
		}
	case DispatchKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when DISPATCH_MODE=%s", DispatchKafka)
		}
	default:
		return fmt.Errorf("unknown DISPATCH_MODE %q", c.DispatchMode)
	}
	return nil
}
