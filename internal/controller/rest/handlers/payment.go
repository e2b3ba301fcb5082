package handlers

import (
	"context"
	"errors"
	"net/http"

	"AgriConnect/internal/domain/order"

	"github.com/gin-gonic/gin"
)

// OutcomeReader returns the audit trail recorded for one payment.
type OutcomeReader interface {
	GetOutcomes(ctx context.Context, providerOrderID, providerPaymentID string) ([]order.Outcome, error)
}

type PaymentHandler struct {
	service  *order.OrderService
	outcomes OutcomeReader
}

// NewPaymentHandler accepts a nil outcomes reader when no audit index is configured.
func NewPaymentHandler(s *order.OrderService, outcomes OutcomeReader) PaymentHandler {
	return PaymentHandler{service: s, outcomes: outcomes}
}

func (h *PaymentHandler) Get(c *gin.Context) {
	providerOrderID, providerPaymentID := c.Param("provider_order_id"), c.Param("provider_payment_id")

	res, err := h.service.GetPayment(c, providerOrderID, providerPaymentID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *PaymentHandler) Outcomes(c *gin.Context) {
	if h.outcomes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Outcome audit is not configured"})
		return
	}

	res, err := h.outcomes.GetOutcomes(c, c.Param("provider_order_id"), c.Param("provider_payment_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if res == nil {
		res = []order.Outcome{}
	}

	c.JSON(http.StatusOK, res)
}
