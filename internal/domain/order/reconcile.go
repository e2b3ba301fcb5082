package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"AgriConnect/internal/domain/payment"
	"AgriConnect/pkg/correlation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ReconcileService applies verified payment events to orders and stock.
// Every success event is applied at most once per (provider order, provider payment) key.
type ReconcileService struct {
	repo   OrderRepo
	policy payment.AmountPolicy
	cache  AppliedCache
	hooks  []PostCommitHook
	sink   OutcomeSink
	now    func() time.Time
	newID  func() uuid.UUID
	tracer trace.Tracer
}

type ReconcileOption func(*ReconcileService)

func WithAmountPolicy(policy payment.AmountPolicy) ReconcileOption {
	return func(s *ReconcileService) {
		s.policy = policy
	}
}

func WithAppliedCache(cache AppliedCache) ReconcileOption {
	return func(s *ReconcileService) {
		s.cache = cache
	}
}

func WithPostCommitHook(hook PostCommitHook) ReconcileOption {
	return func(s *ReconcileService) {
		s.hooks = append(s.hooks, hook)
	}
}

func WithOutcomeSink(sink OutcomeSink) ReconcileOption {
	return func(s *ReconcileService) {
		s.sink = sink
	}
}

func WithClock(now func() time.Time) ReconcileOption {
	return func(s *ReconcileService) {
		s.now = now
	}
}

func WithIDGenerator(newID func() uuid.UUID) ReconcileOption {
	return func(s *ReconcileService) {
		s.newID = newID
	}
}

func NewReconcileService(repo OrderRepo, opts ...ReconcileOption) *ReconcileService {
	s := &ReconcileService{
		repo:   repo,
		policy: payment.AmountCoerce,
		now:    time.Now,
		newID:  uuid.New,
		tracer: otel.Tracer("agri-reconcile"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reconcile routes ev by its type. Applied, duplicate, ignored and recorded
// failure outcomes return a nil error. Rejected events return the data
// integrity or stock error that caused them; nothing is written for them.
func (s *ReconcileService) Reconcile(ctx context.Context, ev payment.Event) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "Reconcile", trace.WithAttributes(
		attribute.String("payment.event_type", string(ev.Type)),
		attribute.String("payment.provider_order_id", ev.ProviderOrderID),
		attribute.String("payment.provider_payment_id", ev.ProviderPaymentID),
	))
	defer span.End()

	outcome, err := s.reconcile(ctx, ev)

	outcome.EventType = ev.Type
	outcome.ProviderOrderID = ev.ProviderOrderID
	outcome.ProviderPaymentID = ev.ProviderPaymentID
	outcome.BuyerID = ev.Notes.BuyerID
	outcome.CorrelationID = correlation.FromContext(ctx)
	outcome.ReceivedAt = ev.ReceivedAt
	outcome.CompletedAt = s.now()
	if err != nil && outcome.Reason == "" {
		outcome.Reason = err.Error()
	}

	span.SetAttributes(attribute.String("reconcile.outcome", string(outcome.Kind)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(outcome.Kind))
	}

	if outcome.Kind == OutcomeApplied {
		s.runHooks(ctx, outcome)
	}
	if s.sink != nil {
		if sinkErr := s.sink.RecordOutcome(ctx, outcome); sinkErr != nil {
			slog.WarnContext(ctx, "Failed to record reconciliation outcome",
				"provider_payment_id", ev.ProviderPaymentID,
				slog.Any("error", sinkErr))
		}
	}

	return outcome, err
}

func (s *ReconcileService) reconcile(ctx context.Context, ev payment.Event) (Outcome, error) {
	class := ev.Type.Class()
	if class == payment.ClassIgnored {
		slog.InfoContext(ctx, "Ignoring payment event",
			"event_type", ev.Type,
			"provider_payment_id", ev.ProviderPaymentID)
		return Outcome{Kind: OutcomeIgnored}, nil
	}

	if err := ev.Validate(); err != nil {
		return s.reject(ctx, ev, err)
	}

	if class == payment.ClassFailure {
		return s.recordFailure(ctx, ev)
	}
	return s.applySuccess(ctx, ev)
}

func (s *ReconcileService) applySuccess(ctx context.Context, ev payment.Event) (Outcome, error) {
	if ev.Notes.BuyerID == "" {
		return s.reject(ctx, ev, payment.ErrMissingBuyer)
	}

	cart, err := payment.ParseCart(ev.Notes.CartData, s.policy)
	if err != nil {
		return s.reject(ctx, ev, err)
	}
	for _, c := range cart.Coercions {
		slog.WarnContext(ctx, "Cart amount coerced to integer",
			"provider_payment_id", ev.ProviderPaymentID,
			"product_id", c.ProductID,
			"raw_amount", c.Raw,
			"amount", c.Value)
	}

	key := ev.DedupKey()
	if s.isCachedApplied(ctx, key) {
		slog.InfoContext(ctx, "Duplicate payment event skipped",
			"provider_order_id", ev.ProviderOrderID,
			"provider_payment_id", ev.ProviderPaymentID,
			"source", "cache")
		return Outcome{Kind: OutcomeDuplicate, Coercions: cart.Coercions}, nil
	}

	now := s.now()
	method := payment.MethodLabel(ev.PaymentMethod)
	var orders []Order

	err = s.repo.InTransaction(ctx, func(tx TxOrderRepo) error {
		orders = orders[:0]

		err := tx.ClaimPayment(ctx, PaymentRecord{
			ProviderOrderID:   ev.ProviderOrderID,
			ProviderPaymentID: ev.ProviderPaymentID,
			EventType:         string(ev.Type),
			Status:            PaymentCompleted,
			BuyerID:           ev.Notes.BuyerID,
			PaymentMethod:     method,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		if err != nil {
			return err
		}

		for _, item := range cart.Items {
			o := Order{
				ID:                s.newID(),
				ProductID:         item.ProductID,
				BuyerID:           ev.Notes.BuyerID,
				Quantity:          item.Quantity,
				TotalAmount:       item.TotalAmount,
				PaymentStatus:     PaymentCompleted,
				ProviderOrderID:   ev.ProviderOrderID,
				ProviderPaymentID: ev.ProviderPaymentID,
				PaymentMethod:     method,
				CreatedAt:         now,
			}
			if err := tx.CreateOrder(ctx, o); err != nil {
				return fmt.Errorf("create order for product %s: %w", item.ProductID, err)
			}
			if _, err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("decrement stock for product %s: %w", item.ProductID, err)
			}
			orders = append(orders, o)
		}
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyApplied):
		slog.InfoContext(ctx, "Duplicate payment event skipped",
			"provider_order_id", ev.ProviderOrderID,
			"provider_payment_id", ev.ProviderPaymentID,
			"source", "ledger")
		s.markCachedApplied(ctx, key)
		return Outcome{Kind: OutcomeDuplicate, Coercions: cart.Coercions}, nil
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrOutOfRange):
		outcome, rejectErr := s.reject(ctx, ev, err)
		outcome.Coercions = cart.Coercions
		return outcome, rejectErr
	default:
		slog.ErrorContext(ctx, "Payment reconciliation failed",
			"provider_order_id", ev.ProviderOrderID,
			"provider_payment_id", ev.ProviderPaymentID,
			slog.Any("error", err))
		return Outcome{Kind: OutcomeError, Coercions: cart.Coercions}, fmt.Errorf("apply payment %s: %w", ev.ProviderPaymentID, err)
	}

	s.markCachedApplied(ctx, key)

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID.String())
	}
	slog.InfoContext(ctx, "Payment reconciled",
		"provider_order_id", ev.ProviderOrderID,
		"provider_payment_id", ev.ProviderPaymentID,
		"buyer_id", ev.Notes.BuyerID,
		"orders", len(orders))

	return Outcome{Kind: OutcomeApplied, OrderIDs: ids, Coercions: cart.Coercions}, nil
}

func (s *ReconcileService) recordFailure(ctx context.Context, ev payment.Event) (Outcome, error) {
	slog.WarnContext(ctx, "Payment failed",
		"provider_order_id", ev.ProviderOrderID,
		"provider_payment_id", ev.ProviderPaymentID)

	now := s.now()
	recorded, err := s.repo.RecordFailedPayment(ctx, PaymentRecord{
		ProviderOrderID:   ev.ProviderOrderID,
		ProviderPaymentID: ev.ProviderPaymentID,
		EventType:         string(ev.Type),
		Status:            PaymentFailed,
		BuyerID:           ev.Notes.BuyerID,
		PaymentMethod:     payment.MethodLabel(ev.PaymentMethod),
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record failed payment",
			"provider_payment_id", ev.ProviderPaymentID,
			slog.Any("error", err))
		return Outcome{Kind: OutcomeError}, fmt.Errorf("record failed payment %s: %w", ev.ProviderPaymentID, err)
	}
	if !recorded {
		return Outcome{Kind: OutcomeDuplicate}, nil
	}
	return Outcome{Kind: OutcomeFailureRecorded}, nil
}

func (s *ReconcileService) reject(ctx context.Context, ev payment.Event, err error) (Outcome, error) {
	slog.ErrorContext(ctx, "Payment event rejected",
		"event_type", ev.Type,
		"provider_order_id", ev.ProviderOrderID,
		"provider_payment_id", ev.ProviderPaymentID,
		"buyer_id", ev.Notes.BuyerID,
		slog.Any("error", err))
	return Outcome{Kind: OutcomeRejected, Reason: err.Error()}, err
}

func (s *ReconcileService) isCachedApplied(ctx context.Context, key string) bool {
	if s.cache == nil {
		return false
	}
	applied, err := s.cache.IsApplied(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Applied cache lookup failed", "key", key, slog.Any("error", err))
		return false
	}
	return applied
}

func (s *ReconcileService) markCachedApplied(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkApplied(ctx, key); err != nil {
		slog.WarnContext(ctx, "Applied cache update failed", "key", key, slog.Any("error", err))
	}
}

func (s *ReconcileService) runHooks(ctx context.Context, outcome Outcome) {
	for _, hook := range s.hooks {
		if err := hook.AfterApplied(ctx, outcome); err != nil {
			slog.ErrorContext(ctx, "Post-commit hook failed",
				"provider_payment_id", outcome.ProviderPaymentID,
				"buyer_id", outcome.BuyerID,
				slog.Any("error", err))
		}
	}
}
