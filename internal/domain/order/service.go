package order

import (
	"context"
	"fmt"
)

// OrderService serves read queries over reconciled orders and the payment ledger.
type OrderService struct {
	orderRepo OrderRepo
}

func NewOrderService(orderRepo OrderRepo) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

func (s *OrderService) GetOrderByID(ctx context.Context, id string) (Order, error) {
	query, err := NewOrdersQueryBuilder().
		WithIDs(id).
		Build()
	if err != nil {
		return Order{}, err
	}

	orders, err := s.orderRepo.GetOrders(ctx, query)
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}
	return orders[0], nil
}

func (s *OrderService) GetOrders(ctx context.Context, query OrdersQuery) ([]Order, error) {
	if query.Pagination == nil {
		query.Pagination = &Pagination{Limit: DefaultPageLimit}
	}
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}

	orders, err := s.orderRepo.GetOrders(ctx, &query)
	if err != nil {
		return nil, fmt.Errorf("filter orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetPayment(ctx context.Context, providerOrderID, providerPaymentID string) (PaymentRecord, error) {
	record, err := s.orderRepo.GetPayment(ctx, providerOrderID, providerPaymentID)
	if err != nil {
		return PaymentRecord{}, fmt.Errorf("get payment: %w", err)
	}
	return record, nil
}
