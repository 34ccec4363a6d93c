package api

import (
	"net/http"
	"strconv"

	"fulfillment/internal/apperr"
	"fulfillment/internal/auth"
	"fulfillment/internal/models"
	"fulfillment/internal/service"

	"github.com/gin-gonic/gin"
)

// ShippingHandler serves shipments
type ShippingHandler struct {
	shipping    *service.ShippingService
	verifier    *auth.Verifier
	internalKey string
}

func NewShippingHandler(shipping *service.ShippingService, verifier *auth.Verifier, internalKey string) *ShippingHandler {
	return &ShippingHandler{shipping: shipping, verifier: verifier, internalKey: internalKey}
}

func (h *ShippingHandler) SetupRoutes(r gin.IRouter) {
	shipments := r.Group("/v1/shipments")
	{
		shipments.GET("", h.list)
		shipments.GET("/:id", h.get)

		guarded := shipments.Group("", RequireAdminOrInternal(h.verifier, h.internalKey))
		guarded.POST("", h.create)
		guarded.POST("/:id/dispatch", h.dispatch)
	}
}

func (h *ShippingHandler) create(c *gin.Context) {
	var req models.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	sh, err := h.shipping.CreateShipment(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sh)
}

func (h *ShippingHandler) get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sh, err := h.shipping.GetShipment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}

func (h *ShippingHandler) list(c *gin.Context) {
	var orderID int64
	if raw := c.Query("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, apperr.New(apperr.CodeInvalidArgument, "invalid order_id"))
			return
		}
		orderID = id
	}
	shipments, err := h.shipping.ListShipments(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipments)
}

func (h *ShippingHandler) dispatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sh, err := h.shipping.Dispatch(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}
