package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WebhooksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agri",
			Subsystem: "webhook",
			Name:      "received_total",
			Help:      "Inbound payment webhooks by verification result",
		},
		[]string{"result"},
	)

	ReconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agri",
			Subsystem: "reconcile",
			Name:      "events_total",
			Help:      "Reconciled payment events by event type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	ReconciliationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agri",
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Time spent reconciling a single payment event",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"event_type"},
	)

	QueueBacklog = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "agri",
			Subsystem: "queue",
			Name:      "backlog",
			Help:      "Verified webhook payloads waiting for a reconciliation worker",
		},
	)
)

func init() {
	Registry.MustRegister(WebhooksReceived, ReconciliationsTotal, ReconciliationDuration, QueueBacklog)
}
