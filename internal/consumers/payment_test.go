package consumers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"AgriConnect/internal/domain/order"
	"AgriConnect/internal/domain/payment"
	"AgriConnect/internal/messaging"
	"AgriConnect/pkg/logger"
	"AgriConnect/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const capturedBody = `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","method":"upi","notes":{"buyerId":"buyer-1","cartData":"[]"}}}}}`

func paymentController(t *testing.T) (*PaymentMessageController, *MockReconciler) {
	t.Helper()
	ctrl := gomock.NewController(t)
	reconciler := NewMockReconciler(ctrl)
	return NewPaymentMessageController(reconciler), reconciler
}

func envelopeBytes(t *testing.T, body string) []byte {
	t.Helper()
	env, err := messaging.NewEnvelope("order_1", "payment.captured", []byte(body))
	require.NoError(t, err)
	value, err := json.Marshal(env)
	require.NoError(t, err)
	return value
}

func TestPaymentMessageController_HandleMessage(t *testing.T) {
	t.Run("should reconcile the decoded event", func(t *testing.T) {
		controller, reconciler := paymentController(t)
		before := testutil.ToFloat64(metrics.ReconciliationsTotal.WithLabelValues("payment.captured", "applied"))

		reconciler.EXPECT().
			Reconcile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, ev payment.Event) (order.Outcome, error) {
				assert.Equal(t, payment.EventCaptured, ev.Type)
				assert.Equal(t, "order_1", ev.ProviderOrderID)
				assert.Equal(t, "pay_1", ev.ProviderPaymentID)
				assert.Equal(t, "buyer-1", ev.Notes.BuyerID)
				assert.False(t, ev.ReceivedAt.IsZero())
				return order.Outcome{Kind: order.OutcomeApplied}, nil
			})

		err := controller.HandleMessage(context.Background(), []byte("order_1"), envelopeBytes(t, capturedBody))

		require.NoError(t, err)
		after := testutil.ToFloat64(metrics.ReconciliationsTotal.WithLabelValues("payment.captured", "applied"))
		assert.Equal(t, before+1, after)
	})

	t.Run("should detach reconciliation from the caller's cancellation", func(t *testing.T) {
		controller, reconciler := paymentController(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		reconciler.EXPECT().
			Reconcile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, ev payment.Event) (order.Outcome, error) {
				assert.NoError(t, ctx.Err())
				return order.Outcome{Kind: order.OutcomeDuplicate}, nil
			})

		err := controller.HandleMessage(ctx, nil, envelopeBytes(t, capturedBody))

		require.NoError(t, err)
	})

	t.Run("should tag reconciliation logs with the delivery", func(t *testing.T) {
		controller, reconciler := paymentController(t)
		var buf bytes.Buffer
		log := logger.New(logger.Options{Output: &buf})

		reconciler.EXPECT().
			Reconcile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, ev payment.Event) (order.Outcome, error) {
				log.InfoContext(ctx, "Payment reconciled")
				return order.Outcome{Kind: order.OutcomeApplied}, nil
			})

		err := controller.HandleMessage(context.Background(), []byte("order_1"), envelopeBytes(t, capturedBody))

		require.NoError(t, err)
		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "order_1", rec["provider_order_id"])
		assert.Equal(t, "payment.captured", rec["event_type"])
		assert.NotEmpty(t, rec["event_id"])
	})

	t.Run("should return reconciliation errors for the transport", func(t *testing.T) {
		controller, reconciler := paymentController(t)

		reconciler.EXPECT().
			Reconcile(gomock.Any(), gomock.Any()).
			Return(order.Outcome{Kind: order.OutcomeRejected}, order.ErrInsufficientStock)

		err := controller.HandleMessage(context.Background(), nil, envelopeBytes(t, capturedBody))

		assert.ErrorIs(t, err, order.ErrInsufficientStock)
	})

	t.Run("should not reconcile an undecodable envelope", func(t *testing.T) {
		controller, _ := paymentController(t)

		err := controller.HandleMessage(context.Background(), nil, []byte("not json"))

		assert.Error(t, err)
	})

	t.Run("should not reconcile an unparsable payload", func(t *testing.T) {
		controller, _ := paymentController(t)
		env := messaging.Envelope{EventID: "evt-1", EventType: "payment.captured", Payload: json.RawMessage(`{"payload":{}}`), ReceivedAt: time.Now()}
		value, err := json.Marshal(env)
		require.NoError(t, err)

		err = controller.HandleMessage(context.Background(), nil, value)

		assert.True(t, errors.Is(err, payment.ErrMalformedEvent))
	})
}

func TestEventLabel(t *testing.T) {
	assert.Equal(t, "payment.failed", eventLabel(payment.EventFailed))
	assert.Equal(t, "other", eventLabel("refund.processed"))
}
