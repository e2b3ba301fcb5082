// Package correlation follows one webhook delivery from the HTTP edge through
// the work queue or Kafka into background reconciliation.
package correlation

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// HeaderName is echoed on every HTTP response.
	HeaderName = "X-Correlation-ID"
	// ProviderEventHeader carries the payment provider's id for one delivery.
	// Redeliveries of the same event reuse it, so their logs line up.
	ProviderEventHeader = "X-Razorpay-Event-Id"
	// KafkaHeaderName is the message header on the payments and DLQ topics.
	KafkaHeaderName = "correlation_id"
)

type contextKey struct{}

// FromContext returns the correlation id, or "" when none is set.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromRequest picks the caller's correlation id, then the provider event id,
// and generates one when neither header is present.
func FromRequest(h http.Header) string {
	if id := h.Get(HeaderName); id != "" {
		return id
	}
	if id := h.Get(ProviderEventHeader); id != "" {
		return id
	}
	return NewID()
}

func NewID() string {
	return uuid.NewString()
}
