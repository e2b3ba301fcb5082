package metrics

import "github.com/prometheus/client_golang/prometheus"

// Payment transport series. topic is the payments topic or its DLQ.
var (
	KafkaProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agri",
			Subsystem: "payments_kafka",
			Name:      "handle_seconds",
			Help:      "Time from fetching a payment message to its handler returning",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"topic", "consumer_group", "status"},
	)

	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agri",
			Subsystem: "payments_kafka",
			Name:      "messages_total",
			Help:      "Payment messages handled, by handler status",
		},
		[]string{"topic", "consumer_group", "status"},
	)

	KafkaCommitFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agri",
			Subsystem: "payments_kafka",
			Name:      "commit_failures_total",
			Help:      "Offset commits that failed after a payment message was handled",
		},
		[]string{"topic", "consumer_group"},
	)

	KafkaDLQPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agri",
			Subsystem: "payments_kafka",
			Name:      "parked_total",
			Help:      "Payment messages parked on the dead letter topic",
		},
		[]string{"topic"},
	)
)

func init() {
	Registry.MustRegister(KafkaProcessingDuration, KafkaMessagesProcessed, KafkaCommitFailures, KafkaDLQPublished)
}
