// Package messaging carries verified webhook payloads from the HTTP edge to
// reconciliation workers, over either the in-process queue or Kafka.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidPayload = errors.New("envelope payload is not valid JSON")

// Envelope is one verified webhook delivery waiting for reconciliation.
// Key is the provider order id; Kafka partitions by it, so redeliveries of
// one order are consumed in order.
type Envelope struct {
	EventID    string          `json:"event_id"`
	Key        string          `json:"provider_order_id"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// NewEnvelope copies body, which must be the verified webhook JSON.
func NewEnvelope(providerOrderID, eventType string, body []byte) (Envelope, error) {
	if !json.Valid(body) {
		return Envelope{}, ErrInvalidPayload
	}
	return Envelope{
		EventID:    uuid.NewString(),
		Key:        providerOrderID,
		EventType:  eventType,
		Payload:    bytes.Clone(body),
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// DecodeEnvelope reads a transport message value back into an Envelope.
func DecodeEnvelope(value []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Payload) == 0 {
		return Envelope{}, fmt.Errorf("decode envelope %s: %w", env.EventID, ErrInvalidPayload)
	}
	return env, nil
}

// Publisher hands an envelope to a transport. Publish returns once the
// transport has accepted the envelope, never after reconciliation.
type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
	Close() error
}

// MessageHandler reconciles one transport message. key is the provider order id.
type MessageHandler func(ctx context.Context, key, value []byte) error

// Worker feeds messages from one transport to a handler until ctx ends.
type Worker interface {
	Start(ctx context.Context, handler MessageHandler) error
	Close() error
}
