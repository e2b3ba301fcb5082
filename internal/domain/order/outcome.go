package order

import (
	"time"

	"AgriConnect/internal/domain/payment"
)

type OutcomeKind string

const (
	OutcomeApplied         OutcomeKind = "applied"
	OutcomeDuplicate       OutcomeKind = "duplicate"
	OutcomeFailureRecorded OutcomeKind = "failure_recorded"
	OutcomeRejected        OutcomeKind = "rejected"
	OutcomeIgnored         OutcomeKind = "ignored"
	OutcomeError           OutcomeKind = "error"
)

// Outcome is the result of reconciling one delivery.
type Outcome struct {
	Kind              OutcomeKind        `json:"outcome"`
	EventType         payment.EventType  `json:"event_type"`
	ProviderOrderID   string             `json:"provider_order_id"`
	ProviderPaymentID string             `json:"provider_payment_id"`
	BuyerID           string             `json:"buyer_id,omitempty"`
	OrderIDs          []string           `json:"order_ids,omitempty"`
	Coercions         []payment.Coercion `json:"coercions,omitempty"`
	Reason            string             `json:"reason,omitempty"`
	CorrelationID     string             `json:"correlation_id,omitempty"`
	ReceivedAt        time.Time          `json:"received_at"`
	CompletedAt       time.Time          `json:"completed_at"`
}

func (o Outcome) Duration() time.Duration {
	if o.ReceivedAt.IsZero() || o.CompletedAt.Before(o.ReceivedAt) {
		return 0
	}
	return o.CompletedAt.Sub(o.ReceivedAt)
}
