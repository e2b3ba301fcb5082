package rest

import (
	"AgriConnect/internal/controller/rest/handlers"

	"github.com/gin-gonic/gin"
)

type Router struct {
	webhook handlers.WebhookHandler
	order   handlers.OrderHandler
	payment handlers.PaymentHandler
}

func (r *Router) SetUp(engine *gin.Engine) {
	engine.POST("/webhooks/razorpay", r.webhook.Razorpay)

	engine.GET("/orders", r.order.Filter)
	engine.GET("/orders/:order_id", r.order.Get)

	engine.GET("/payments/:provider_order_id/:provider_payment_id", r.payment.Get)
	engine.GET("/payments/:provider_order_id/:provider_payment_id/outcomes", r.payment.Outcomes)
}

func NewRouter(webhook handlers.WebhookHandler, order handlers.OrderHandler, payment handlers.PaymentHandler) *Router {
	return &Router{
		webhook: webhook,
		order:   order,
		payment: payment,
	}
}
