package order

import "errors"

var (
	// ErrNotFound is returned when an order or payment record is not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyApplied is returned when the payment's dedup key already has a completed record
	ErrAlreadyApplied = errors.New("payment already applied")

	// ErrAlreadyExists is returned when an order for (provider_order_id, product_id, buyer_id) already exists
	ErrAlreadyExists = errors.New("order already exists")

	// ErrProductNotFound is returned when a cart line references an unknown product
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a decrement would take stock below zero
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOutOfRange is returned when a cart line value does not fit its column
	ErrOutOfRange = errors.New("value out of range")

	// ErrInvalidQuery is returned when order query validation fails
	ErrInvalidQuery = errors.New("invalid orders query")
)
