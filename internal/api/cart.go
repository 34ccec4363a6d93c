package api

import (
	"net/http"

	"fulfillment/internal/auth"
	"fulfillment/internal/service"

	"github.com/gin-gonic/gin"
)

// CartHandler serves the caller's cart
type CartHandler struct {
	carts    *service.CartService
	verifier *auth.Verifier
}

func NewCartHandler(carts *service.CartService, verifier *auth.Verifier) *CartHandler {
	return &CartHandler{carts: carts, verifier: verifier}
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Qty       int   `json:"qty" binding:"required"`
}

type updateItemRequest struct {
	Qty *int `json:"qty" binding:"required"`
}

func (h *CartHandler) SetupRoutes(r gin.IRouter) {
	cart := r.Group("/v1/cart", RequireIdentity(h.verifier))
	{
		cart.GET("", h.getCart)
		cart.POST("/items", h.addItem)
		cart.PATCH("/items/:product_id", h.updateItem)
		cart.DELETE("/items/:product_id", h.removeItem)
		cart.POST("/clear", h.clear)
	}
}

func (h *CartHandler) getCart(c *gin.Context) {
	view, err := h.carts.GetCart(c.Request.Context(), identityFrom(c).Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	view, err := h.carts.AddItem(c.Request.Context(), identityFrom(c).Email, req.ProductID, req.Qty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) updateItem(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	view, err := h.carts.UpdateItem(c.Request.Context(), identityFrom(c).Email, productID, *req.Qty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) removeItem(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}
	view, err := h.carts.RemoveItem(c.Request.Context(), identityFrom(c).Email, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) clear(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), identityFrom(c).Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
