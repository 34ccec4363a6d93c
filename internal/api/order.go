package api

import (
	"net/http"

	"fulfillment/internal/apperr"
	"fulfillment/internal/auth"
	"fulfillment/internal/models"
	"fulfillment/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderHandler contains the order HTTP handlers
type OrderHandler struct {
	orderService *service.OrderService
	verifier     *auth.Verifier
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, verifier *auth.Verifier) *OrderHandler {
	return &OrderHandler{orderService: orderService, verifier: verifier}
}

func (h *OrderHandler) SetupRoutes(r gin.IRouter) {
	orders := r.Group("/v1/orders", RequireIdentity(h.verifier))
	{
		orders.POST("/checkout", h.checkout)
		orders.GET("/:id", h.getOrder)
	}
}

// checkout turns the caller's cart into an order
func (h *OrderHandler) checkout(c *gin.Context) {
	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.orderService.Checkout(c.Request.Context(), identityFrom(c).Email, addr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// getOrder returns an order owned by the caller; admins may read any order
func (h *OrderHandler) getOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	details, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	id := identityFrom(c)
	if details.Order.UserEmail != id.Email && !id.IsAdmin() {
		respondError(c, apperr.Newf(apperr.CodeNotFound, "order not found: %d", orderID))
		return
	}
	c.JSON(http.StatusOK, details)
}
