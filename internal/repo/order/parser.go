package order_repo

import (
	"fmt"

	"AgriConnect/internal/domain/order"

	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{
	"id",
	"product_id",
	"buyer_id",
	"quantity",
	"total_amount",
	"payment_status",
	"provider_order_id",
	"provider_payment_id",
	"payment_method",
	"created_at",
}

func parseOrderRows(rows pgx.Rows) ([]order.Order, error) {
	var orders []order.Order
	for rows.Next() {
		var o order.Order
		var rawStatus string
		err := rows.Scan(&o.ID, &o.ProductID, &o.BuyerID, &o.Quantity, &o.TotalAmount, &rawStatus,
			&o.ProviderOrderID, &o.ProviderPaymentID, &o.PaymentMethod, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		status, err := order.NewPaymentStatus(rawStatus)
		if err != nil {
			return nil, fmt.Errorf("invalid payment status in database: %w", err)
		}
		o.PaymentStatus = status

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

func parsePaymentRow(row pgx.Row) (order.PaymentRecord, error) {
	var record order.PaymentRecord
	var rawStatus string
	err := row.Scan(&record.ProviderOrderID, &record.ProviderPaymentID, &record.EventType, &rawStatus,
		&record.BuyerID, &record.PaymentMethod, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return order.PaymentRecord{}, err
	}

	status, err := order.NewPaymentStatus(rawStatus)
	if err != nil {
		return order.PaymentRecord{}, fmt.Errorf("invalid payment status in database: %w", err)
	}
	record.Status = status
	return record, nil
}
