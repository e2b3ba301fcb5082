// Package payment models the payment provider's webhook events and the cart
// snapshot that the checkout flow stores in the provider order's notes.
package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	EventAuthorized EventType = "payment.authorized"
	EventCaptured   EventType = "payment.captured"
	EventFailed     EventType = "payment.failed"
)

// Class is the reconciliation path an event type is routed to.
type Class string

const (
	ClassSuccess Class = "success"
	ClassFailure Class = "failure"
	ClassIgnored Class = "ignored"
)

func (t EventType) Class() Class {
	switch t {
	case EventAuthorized, EventCaptured:
		return ClassSuccess
	case EventFailed:
		return ClassFailure
	default:
		return ClassIgnored
	}
}

// Notes is the opaque key-value bag attached at provider order creation.
type Notes struct {
	Type     string `json:"type,omitempty"`
	BuyerID  string `json:"buyerId,omitempty"`
	CartData string `json:"cartData,omitempty"`
	TutorID  string `json:"tutorId,omitempty"`
}

// UnmarshalJSON accepts the provider's shapes for notes: an object, an empty
// array when no notes were set, or null. Non-string values keep their raw JSON text.
func (n *Notes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || trimmed[0] == '[' {
		*n = Notes{}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("notes: %w", err)
	}

	*n = Notes{
		Type:     noteString(raw["type"]),
		BuyerID:  noteString(raw["buyerId"]),
		CartData: noteString(raw["cartData"]),
		TutorID:  noteString(raw["tutorId"]),
	}
	return nil
}

func noteString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

// Event is a verified webhook delivery reduced to the fields reconciliation needs.
// It is built once per delivery and never persisted as-is.
type Event struct {
	Type              EventType `json:"event"`
	ProviderOrderID   string    `json:"provider_order_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	PaymentMethod     string    `json:"payment_method"`
	Notes             Notes     `json:"notes"`
	ReceivedAt        time.Time `json:"received_at"`
}

// DedupKey is the natural key a delivery is deduplicated on.
func (e Event) DedupKey() string {
	return e.ProviderOrderID + ":" + e.ProviderPaymentID
}

type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Method  string `json:"method"`
				Notes   Notes  `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseEvent decodes a raw webhook body. It must only be called on bytes whose
// signature has already been verified.
func ParseEvent(raw []byte, receivedAt time.Time) (Event, error) {
	var body webhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if body.Event == "" {
		return Event{}, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}

	entity := body.Payload.Payment.Entity
	return Event{
		Type:              EventType(body.Event),
		ProviderOrderID:   entity.OrderID,
		ProviderPaymentID: entity.ID,
		PaymentMethod:     entity.Method,
		Notes:             entity.Notes,
		ReceivedAt:        receivedAt,
	}, nil
}

// Validate checks the identifiers every recognized event must carry.
func (e Event) Validate() error {
	if e.ProviderOrderID == "" || e.ProviderPaymentID == "" {
		return fmt.Errorf("%w: order_id=%q payment_id=%q", ErrMissingIdentifiers, e.ProviderOrderID, e.ProviderPaymentID)
	}
	return nil
}

var methodLabels = map[string]string{
	"netbanking": "Net Banking",
	"card":       "Card",
	"wallet":     "Wallet",
	"upi":        "UPI",
}

// MethodLabel maps the provider's method code to the label shown on orders.
// Unknown codes pass through unchanged.
func MethodLabel(method string) string {
	if label, ok := methodLabels[strings.ToLower(method)]; ok {
		return label
	}
	return method
}
