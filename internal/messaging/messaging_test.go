package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"AgriConnect/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	t.Run("should copy the verified body", func(t *testing.T) {
		body := []byte(`{"event":"payment.captured"}`)

		env, err := NewEnvelope("order_1", "payment.captured", body)
		body[2] = 'X'

		require.NoError(t, err)
		assert.NotEmpty(t, env.EventID)
		assert.Equal(t, "order_1", env.Key)
		assert.Equal(t, "payment.captured", env.EventType)
		assert.JSONEq(t, `{"event":"payment.captured"}`, string(env.Payload))
		assert.False(t, env.ReceivedAt.IsZero())
	})

	t.Run("should refuse a body that is not JSON", func(t *testing.T) {
		_, err := NewEnvelope("order_1", "payment.captured", []byte("{"))

		assert.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestDecodeEnvelope(t *testing.T) {
	t.Run("should round trip through the transport encoding", func(t *testing.T) {
		env, err := NewEnvelope("order_1", "payment.failed", []byte(`{"event":"payment.failed"}`))
		require.NoError(t, err)
		value, err := json.Marshal(env)
		require.NoError(t, err)

		decoded, err := DecodeEnvelope(value)

		require.NoError(t, err)
		assert.Equal(t, env.EventID, decoded.EventID)
		assert.Equal(t, "order_1", decoded.Key)
		assert.True(t, env.ReceivedAt.Equal(decoded.ReceivedAt))
	})

	t.Run("should fail without a payload", func(t *testing.T) {
		_, err := DecodeEnvelope([]byte(`{"event_id":"e1","provider_order_id":"order_1"}`))

		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("should fail on garbage", func(t *testing.T) {
		_, err := DecodeEnvelope([]byte("nope"))

		assert.Error(t, err)
	})
}

type fakeDLQ struct {
	mu    sync.Mutex
	calls []error
}

func (f *fakeDLQ) PublishToDLQ(ctx context.Context, key, value []byte, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, err)
	return nil
}

func TestWithDLQ(t *testing.T) {
	t.Run("should pass through success", func(t *testing.T) {
		dlq := &fakeDLQ{}
		handler := WithDLQ(func(ctx context.Context, key, value []byte) error { return nil }, dlq)

		err := handler(context.Background(), []byte("k"), []byte("v"))

		require.NoError(t, err)
		assert.Empty(t, dlq.calls)
	})

	t.Run("should park failures once and swallow the error", func(t *testing.T) {
		dlq := &fakeDLQ{}
		calls := 0
		handler := WithDLQ(func(ctx context.Context, key, value []byte) error {
			calls++
			return assert.AnError
		}, dlq)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := handler(ctx, []byte("k"), []byte("v"))

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		require.Len(t, dlq.calls, 1)
		assert.ErrorIs(t, dlq.calls[0], assert.AnError)
	})
}

func TestWithMetrics(t *testing.T) {
	handler := WithMetrics("payments-test", "group-test", func(ctx context.Context, key, value []byte) error {
		if string(value) == "bad" {
			return errors.New("boom")
		}
		return nil
	})

	_ = handler(context.Background(), nil, []byte("ok"))
	err := handler(context.Background(), nil, []byte("bad"))

	assert.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.KafkaMessagesProcessed.WithLabelValues("payments-test", "group-test", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.KafkaMessagesProcessed.WithLabelValues("payments-test", "group-test", "error")))
}

type stubWorker struct {
	start  func(ctx context.Context, handler MessageHandler) error
	closed atomic.Bool
}

func (w *stubWorker) Start(ctx context.Context, handler MessageHandler) error {
	return w.start(ctx, handler)
}

func (w *stubWorker) Close() error {
	w.closed.Store(true)
	return nil
}

func TestRunner(t *testing.T) {
	t.Run("should run every worker and close them", func(t *testing.T) {
		var handled atomic.Int32
		handler := func(ctx context.Context, key, value []byte) error {
			handled.Add(1)
			return nil
		}
		workers := []*stubWorker{
			{start: func(ctx context.Context, h MessageHandler) error { return h(ctx, nil, nil) }},
			{start: func(ctx context.Context, h MessageHandler) error { return h(ctx, nil, nil) }},
		}

		err := NewRunner([]Worker{workers[0], workers[1]}, handler).Start(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int32(2), handled.Load())
		assert.True(t, workers[0].closed.Load())
		assert.True(t, workers[1].closed.Load())
	})

	t.Run("should recover worker panic", func(t *testing.T) {
		w := &stubWorker{start: func(ctx context.Context, h MessageHandler) error { panic("boom") }}

		err := NewRunner([]Worker{w}, nil).Start(context.Background())

		assert.NoError(t, err)
		assert.True(t, w.closed.Load())
	})

	t.Run("should return first worker error", func(t *testing.T) {
		w := &stubWorker{start: func(ctx context.Context, h MessageHandler) error { return assert.AnError }}

		err := NewRunner([]Worker{w}, nil).Start(context.Background())

		assert.ErrorIs(t, err, assert.AnError)
	})
}
