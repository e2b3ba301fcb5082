package order_repo

import (
	"context"
	"errors"
	"fmt"

	"AgriConnect/internal/domain/order"
	"AgriConnect/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

type pgxDB interface {
	postgres.Executor
	postgres.TxBeginner
}

// PgOrderRepo is the main repository
type PgOrderRepo struct {
	beginner postgres.TxBeginner
	repo
}

func NewPgOrderRepo(pg *postgres.Postgres) order.OrderRepo {
	return newPgOrderRepo(pg.Pool, pg.Builder)
}

func newPgOrderRepo(db pgxDB, builder squirrel.StatementBuilderType) *PgOrderRepo {
	return &PgOrderRepo{
		beginner: db,
		repo:     repo{db: db, builder: builder},
	}
}

func (r *PgOrderRepo) InTransaction(ctx context.Context, fn func(repo order.TxOrderRepo) error) error {
	return postgres.InTransaction(ctx, r.beginner, func(tx postgres.Executor) error {
		txRepo := &repo{db: tx, builder: r.builder}
		return fn(txRepo)
	})
}

type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

var paymentColumns = []string{
	"provider_order_id",
	"provider_payment_id",
	"event_type",
	"payment_status",
	"buyer_id",
	"payment_method",
	"created_at",
	"updated_at",
}

// ClaimPayment upserts the ledger row for a successful payment. A concurrent
// claim for the same key blocks on the primary key until the first one ends.
func (r *repo) ClaimPayment(ctx context.Context, record order.PaymentRecord) error {
	query, args, err := r.builder.Insert("payment_events").
		Columns(paymentColumns...).
		Values(paymentValues(record)...).
		Suffix(`ON CONFLICT (provider_order_id, provider_payment_id) DO UPDATE SET ` +
			`event_type = EXCLUDED.event_type, payment_status = EXCLUDED.payment_status, ` +
			`buyer_id = EXCLUDED.buyer_id, payment_method = EXCLUDED.payment_method, updated_at = EXCLUDED.updated_at ` +
			`WHERE payment_events.payment_status <> 'completed' RETURNING provider_payment_id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build claim payment query: %w", err)
	}

	var claimed string
	err = r.db.QueryRow(ctx, query, args...).Scan(&claimed)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.ErrAlreadyApplied
	}
	if err != nil {
		return fmt.Errorf("claim payment: %w", err)
	}
	return nil
}

func (r *repo) RecordFailedPayment(ctx context.Context, record order.PaymentRecord) (bool, error) {
	query, args, err := r.builder.Insert("payment_events").
		Columns(paymentColumns...).
		Values(paymentValues(record)...).
		Suffix("ON CONFLICT (provider_order_id, provider_payment_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build record failed payment query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("record failed payment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repo) GetPayment(ctx context.Context, providerOrderID, providerPaymentID string) (order.PaymentRecord, error) {
	query, args, err := r.builder.Select(paymentColumns...).
		From("payment_events").
		Where(squirrel.Eq{"provider_order_id": providerOrderID, "provider_payment_id": providerPaymentID}).
		ToSql()
	if err != nil {
		return order.PaymentRecord{}, fmt.Errorf("build get payment query: %w", err)
	}

	record, err := parsePaymentRow(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return order.PaymentRecord{}, order.ErrNotFound
	}
	if err != nil {
		return order.PaymentRecord{}, fmt.Errorf("get payment: %w", err)
	}
	return record, nil
}

func (r *repo) CreateOrder(ctx context.Context, o order.Order) error {
	query, args, err := r.builder.Insert("orders").
		Columns(orderColumns...).
		Values(o.ID, o.ProductID, o.BuyerID, o.Quantity, o.TotalAmount, o.PaymentStatus,
			o.ProviderOrderID, o.ProviderPaymentID, o.PaymentMethod, o.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert order query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	switch {
	case err == nil:
		return nil
	case postgres.IsPgErrorUniqueViolation(err):
		return order.ErrAlreadyExists
	case postgres.IsPgErrorForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", order.ErrProductNotFound, o.ProductID)
	case postgres.IsPgErrorNumericOutOfRange(err):
		return fmt.Errorf("%w: product %s quantity %d amount %d", order.ErrOutOfRange, o.ProductID, o.Quantity, o.TotalAmount)
	default:
		return fmt.Errorf("create order: %w", err)
	}
}

// DecrementStock takes the product row lock, so concurrent decrements of one
// product serialize and never drive quantity below zero.
func (r *repo) DecrementStock(ctx context.Context, productID string, quantity int) (int, error) {
	query, args, err := r.builder.Update("products").
		Set("quantity", squirrel.Expr("quantity - ?", quantity)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.GtOrEq{"quantity": quantity}).
		Suffix("RETURNING quantity").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build decrement stock query: %w", err)
	}

	var remaining int
	err = r.db.QueryRow(ctx, query, args...).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if postgres.IsPgErrorCheckViolation(err) {
			return 0, fmt.Errorf("%w: product %s", order.ErrInsufficientStock, productID)
		}
		if postgres.IsPgErrorNumericOutOfRange(err) {
			return 0, fmt.Errorf("%w: product %s quantity %d", order.ErrOutOfRange, productID, quantity)
		}
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	available, err := r.stockOf(ctx, productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", order.ErrProductNotFound, productID)
	}
	if err != nil {
		return 0, fmt.Errorf("load stock: %w", err)
	}
	return 0, fmt.Errorf("%w: product %s has %d, requested %d", order.ErrInsufficientStock, productID, available, quantity)
}

func (r *repo) stockOf(ctx context.Context, productID string) (int, error) {
	query, args, err := r.builder.Select("quantity").
		From("products").
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var quantity int
	err = r.db.QueryRow(ctx, query, args...).Scan(&quantity)
	return quantity, err
}

func (r *repo) GetOrders(ctx context.Context, query *order.OrdersQuery) ([]order.Order, error) {
	sql, args, err := r.buildOrdersQuery(query)
	if err != nil {
		return nil, fmt.Errorf("build orders query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	return parseOrderRows(rows)
}

func (r *repo) buildOrdersQuery(q *order.OrdersQuery) (string, []any, error) {
	query := r.builder.Select(orderColumns...).
		From("orders")

	if len(q.IDs) > 0 {
		query = query.Where(squirrel.Eq{"id": q.IDs})
	}
	if len(q.BuyerIDs) > 0 {
		query = query.Where(squirrel.Eq{"buyer_id": q.BuyerIDs})
	}
	if len(q.ProviderOrderIDs) > 0 {
		query = query.Where(squirrel.Eq{"provider_order_id": q.ProviderOrderIDs})
	}
	if len(q.ProviderPaymentIDs) > 0 {
		query = query.Where(squirrel.Eq{"provider_payment_id": q.ProviderPaymentIDs})
	}
	if len(q.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"payment_status": q.Statuses})
	}

	query = query.OrderBy("created_at DESC", "id")

	if q.Pagination != nil {
		query = query.Limit(uint64(q.Pagination.Limit)).Offset(uint64(q.Pagination.Offset))
	}

	return query.ToSql()
}

func paymentValues(record order.PaymentRecord) []any {
	return []any{
		record.ProviderOrderID,
		record.ProviderPaymentID,
		record.EventType,
		record.Status,
		record.BuyerID,
		record.PaymentMethod,
		record.CreatedAt,
		record.UpdatedAt,
	}
}
