package webhook

import (
	"context"
	"encoding/json"
	"testing"

	"AgriConnect/internal/messaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	envelopes []messaging.Envelope
	err       error
}

func (p *recordingPublisher) Publish(ctx context.Context, env messaging.Envelope) error {
	if p.err != nil {
		return p.err
	}
	p.envelopes = append(p.envelopes, env)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("should publish recognized events keyed by provider order", func(t *testing.T) {
		for _, eventType := range []string{"payment.captured", "payment.authorized", "payment.failed"} {
			pub := &recordingPublisher{}
			body := []byte(`{"event":"` + eventType + `","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","notes":[]}}}}`)

			err := NewDispatcher(pub).Dispatch(ctx, body)

			require.NoError(t, err)
			require.Len(t, pub.envelopes, 1)
			assert.Equal(t, "order_1", pub.envelopes[0].Key)
			assert.Equal(t, eventType, pub.envelopes[0].EventType)
			assert.JSONEq(t, string(body), string(pub.envelopes[0].Payload))
		}
	})

	t.Run("should ignore other event types", func(t *testing.T) {
		pub := &recordingPublisher{}

		err := NewDispatcher(pub).Dispatch(ctx, []byte(`{"event":"order.paid","payload":{}}`))

		require.NoError(t, err)
		assert.Empty(t, pub.envelopes)
	})

	t.Run("should not inspect notes before acknowledging", func(t *testing.T) {
		pub := &recordingPublisher{}
		body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","notes":"garbage"}}}}`)

		err := NewDispatcher(pub).Dispatch(ctx, body)

		require.NoError(t, err)
		assert.Len(t, pub.envelopes, 1)
	})

	t.Run("should accept a numeric order id", func(t *testing.T) {
		pub := &recordingPublisher{}
		body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":12345}}}}`)

		err := NewDispatcher(pub).Dispatch(ctx, body)

		require.NoError(t, err)
		require.Len(t, pub.envelopes, 1)
		assert.Equal(t, "12345", pub.envelopes[0].Key)
	})

	t.Run("should queue oddly shaped payloads for the worker to reject", func(t *testing.T) {
		pub := &recordingPublisher{}
		body := []byte(`{"event":"payment.captured","payload":{"payment":"not-an-object"}}`)

		err := NewDispatcher(pub).Dispatch(ctx, body)

		require.NoError(t, err)
		require.Len(t, pub.envelopes, 1)
		assert.Empty(t, pub.envelopes[0].Key)
	})

	t.Run("should drop a non-string event type", func(t *testing.T) {
		for _, body := range []string{`{"event":42}`, `{"event":{"name":"payment.captured"}}`, `[1,2]`, `"payment.captured"`} {
			pub := &recordingPublisher{}

			err := NewDispatcher(pub).Dispatch(ctx, []byte(body))

			require.NoError(t, err, body)
			assert.Empty(t, pub.envelopes, body)
		}
	})

	t.Run("should reject invalid JSON", func(t *testing.T) {
		pub := &recordingPublisher{}

		err := NewDispatcher(pub).Dispatch(ctx, []byte(`{"event":`))

		assert.ErrorIs(t, err, ErrMalformedBody)
		assert.Empty(t, pub.envelopes)
	})

	t.Run("should surface publish errors", func(t *testing.T) {
		pub := &recordingPublisher{err: assert.AnError}

		err := NewDispatcher(pub).Dispatch(ctx, []byte(`{"event":"payment.failed"}`))

		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestEnvelopePayloadKeepsBody(t *testing.T) {
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`)
	pub := &recordingPublisher{}
	require.NoError(t, NewDispatcher(pub).Dispatch(context.Background(), body))

	encoded, err := json.Marshal(pub.envelopes[0])
	require.NoError(t, err)

	var decoded messaging.Envelope
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.JSONEq(t, string(body), string(decoded.Payload))
}
