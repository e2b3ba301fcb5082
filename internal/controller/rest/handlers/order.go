package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"AgriConnect/internal/domain/order"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service *order.OrderService
}

func NewOrderHandler(s *order.OrderService) OrderHandler {
	return OrderHandler{service: s}
}

func (h *OrderHandler) Get(c *gin.Context) {
	orderID := c.Param("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing order_id"})
		return
	}

	res, err := h.service.GetOrderByID(c, orderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		case errors.Is(err, order.ErrInvalidQuery):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *OrderHandler) Filter(c *gin.Context) {
	query, err := h.createFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.GetOrders(c, *query)
	if err != nil {
		if errors.Is(err, order.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

// FilterParams are comma-separated lists except for paging.
type FilterParams struct {
	BuyerIDs           string `form:"buyer_id"`
	ProviderOrderIDs   string `form:"provider_order_id"`
	ProviderPaymentIDs string `form:"provider_payment_id"`
	Statuses           string `form:"payment_status"`
	Limit              int    `form:"limit" binding:"omitempty,min=0"`
	Offset             int    `form:"offset" binding:"omitempty,min=0"`
}

func (h *OrderHandler) createFilter(c *gin.Context) (*order.OrdersQuery, error) {
	var params FilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	var statuses []order.PaymentStatus
	for _, raw := range splitList(params.Statuses) {
		s, err := order.NewPaymentStatus(raw)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}

	if params.Limit == 0 {
		params.Limit = order.DefaultPageLimit
	}

	query, err := order.NewOrdersQueryBuilder().
		WithBuyerIDs(splitList(params.BuyerIDs)...).
		WithProviderOrderIDs(splitList(params.ProviderOrderIDs)...).
		WithProviderPaymentIDs(splitList(params.ProviderPaymentIDs)...).
		WithStatuses(statuses...).
		WithPagination(order.Pagination{Limit: params.Limit, Offset: params.Offset}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("invalid filter params: %w", err)
	}

	return query, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
