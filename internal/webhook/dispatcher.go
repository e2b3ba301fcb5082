package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"AgriConnect/internal/domain/payment"
	"AgriConnect/internal/messaging"
)

var ErrMalformedBody = errors.New("webhook body is not valid JSON")

// route is the part of a delivery needed before acknowledging it.
type route struct {
	Event   string
	OrderID string
}

// readRoute only fails on bodies that are not JSON. Fields of an unexpected
// shape read as empty, leaving rejection to the reconciliation worker.
func readRoute(body []byte) (route, error) {
	if !json.Valid(body) {
		return route{}, ErrMalformedBody
	}
	return route{
		Event:   scalar(field(body, "event")),
		OrderID: scalar(field(body, "payload", "payment", "entity", "order_id")),
	}, nil
}

// field walks nested objects by key and returns nil when any step is missing
// or not an object.
func field(raw json.RawMessage, path ...string) json.RawMessage {
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil
		}
		raw = obj[key]
	}
	return raw
}

// scalar renders a JSON string or number as text. Anything else is empty.
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Dispatcher classifies verified deliveries and publishes recognized ones.
// It never waits for reconciliation.
type Dispatcher struct {
	publisher messaging.Publisher
}

func NewDispatcher(publisher messaging.Publisher) *Dispatcher {
	return &Dispatcher{publisher: publisher}
}

// Dispatch must only be called with a verified body. Unrecognized event types
// are dropped with a log line and a nil error.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) error {
	r, err := readRoute(body)
	if err != nil {
		return err
	}

	eventType := payment.EventType(r.Event)
	if eventType.Class() == payment.ClassIgnored {
		slog.InfoContext(ctx, "Ignoring webhook event", "event_type", r.Event)
		return nil
	}

	envelope, err := messaging.NewEnvelope(r.OrderID, r.Event, body)
	if err != nil {
		return fmt.Errorf("create envelope: %w", err)
	}
	if err := d.publisher.Publish(ctx, envelope); err != nil {
		return fmt.Errorf("publish %s: %w", r.Event, err)
	}

	slog.DebugContext(ctx, "Webhook event dispatched",
		"event_type", r.Event,
		"event_id", envelope.EventID,
		"provider_order_id", envelope.Key)
	return nil
}
