package order

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

var AvailablePaymentStatuses = []PaymentStatus{PaymentPending, PaymentCompleted, PaymentFailed}

func NewPaymentStatus(raw string) (PaymentStatus, error) {
	if slices.Contains(AvailablePaymentStatuses, PaymentStatus(raw)) {
		return PaymentStatus(raw), nil
	}
	return "", errors.New("invalid payment status")
}

// Order is one purchased cart line. Orders only exist for payments the
// provider reported as successful.
type Order struct {
	ID                uuid.UUID     `json:"id"`
	ProductID         string        `json:"product_id"`
	BuyerID           string        `json:"buyer_id"`
	Quantity          int           `json:"quantity"`
	TotalAmount       int64         `json:"total_amount"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	ProviderOrderID   string        `json:"provider_order_id"`
	ProviderPaymentID string        `json:"provider_payment_id"`
	PaymentMethod     string        `json:"payment_method"`
	CreatedAt         time.Time     `json:"created_at"`
}

// PaymentRecord is the ledger row keyed by (ProviderOrderID, ProviderPaymentID).
// A completed record means the event's orders and stock decrements are applied.
type PaymentRecord struct {
	ProviderOrderID   string        `json:"provider_order_id"`
	ProviderPaymentID string        `json:"provider_payment_id"`
	EventType         string        `json:"event_type"`
	Status            PaymentStatus `json:"payment_status"`
	BuyerID           string        `json:"buyer_id,omitempty"`
	PaymentMethod     string        `json:"payment_method,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

type Pagination struct {
	Limit  int
	Offset int
}

type OrdersQuery struct {
	IDs                []string
	BuyerIDs           []string
	ProviderOrderIDs   []string
	ProviderPaymentIDs []string
	Statuses           []PaymentStatus
	Pagination         *Pagination
}

func (o *OrdersQuery) Validate() error {
	if o.Pagination != nil {
		if o.Pagination.Limit < 1 || o.Pagination.Limit > MaxPageLimit {
			return fmt.Errorf("limit must be between 1 and %d", MaxPageLimit)
		}
		if o.Pagination.Offset < 0 {
			return fmt.Errorf("offset must not be negative")
		}
	}
	for _, id := range o.IDs {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("invalid order id: %s", id)
		}
	}
	return nil
}

type OrdersQueryBuilder struct {
	query *OrdersQuery
}

func NewOrdersQueryBuilder() *OrdersQueryBuilder {
	return &OrdersQueryBuilder{
		query: &OrdersQuery{},
	}
}

func (b *OrdersQueryBuilder) Build() (*OrdersQuery, error) {
	if err := b.query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}
	return b.query, nil
}

func (b *OrdersQueryBuilder) WithIDs(ids ...string) *OrdersQueryBuilder {
	b.query.IDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithBuyerIDs(buyerIDs ...string) *OrdersQueryBuilder {
	b.query.BuyerIDs = buyerIDs
	return b
}

func (b *OrdersQueryBuilder) WithProviderOrderIDs(ids ...string) *OrdersQueryBuilder {
	b.query.ProviderOrderIDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithProviderPaymentIDs(ids ...string) *OrdersQueryBuilder {
	b.query.ProviderPaymentIDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithStatuses(statuses ...PaymentStatus) *OrdersQueryBuilder {
	b.query.Statuses = statuses
	return b
}

func (b *OrdersQueryBuilder) WithPagination(pagination Pagination) *OrdersQueryBuilder {
	b.query.Pagination = &pagination
	return b
}
