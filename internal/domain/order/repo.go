package order

import "context"

//go:generate mockgen -source repo.go -destination mock_repo.go -package order

type OrderRepo interface {
	TxOrderRepo
	InTransaction(ctx context.Context, fn func(repo TxOrderRepo) error) error
}

type TxOrderRepo interface {
	// ClaimPayment records the first successful delivery for the record's dedup key.
	// Returns ErrAlreadyApplied if a completed record already exists.
	ClaimPayment(ctx context.Context, record PaymentRecord) error
	// RecordFailedPayment stores a failed attempt unless the key is already known.
	// Reports whether a row was written.
	RecordFailedPayment(ctx context.Context, record PaymentRecord) (bool, error)
	GetPayment(ctx context.Context, providerOrderID, providerPaymentID string) (PaymentRecord, error)

	// CreateOrder returns ErrAlreadyExists on a duplicate order tuple.
	CreateOrder(ctx context.Context, o Order) error
	GetOrders(ctx context.Context, filter *OrdersQuery) ([]Order, error)

	// DecrementStock returns the remaining quantity, ErrProductNotFound or ErrInsufficientStock.
	DecrementStock(ctx context.Context, productID string, quantity int) (int, error)
}
