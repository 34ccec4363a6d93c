package api

import (
	"net/http"

	"fulfillment/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentHandler exposes the mock payment gateway
type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createIntentRequest struct {
	OrderID     int64  `json:"order_id" binding:"required"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type mockSucceedRequest struct {
	OrderID     int64  `json:"order_id" binding:"required"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func (h *PaymentHandler) SetupRoutes(r gin.IRouter) {
	payments := r.Group("/v1/payments")
	{
		payments.POST("/create-intent", h.createIntent)
		payments.POST("/mock-succeed", h.mockSucceed)
	}
}

func (h *PaymentHandler) createIntent(c *gin.Context) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	intent, err := h.payments.CreateIntent(c.Request.Context(), req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

func (h *PaymentHandler) mockSucceed(c *gin.Context) {
	var req mockSucceedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.payments.MockSucceed(c.Request.Context(), req.OrderID, req.AmountCents, req.Currency); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
