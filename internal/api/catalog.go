package api

import (
	"net/http"

	"fulfillment/internal/auth"
	"fulfillment/internal/models"
	"fulfillment/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves products and the inventory ledger
type CatalogHandler struct {
	inventory   *service.InventoryService
	verifier    *auth.Verifier
	internalKey string
}

func NewCatalogHandler(inventory *service.InventoryService, verifier *auth.Verifier, internalKey string) *CatalogHandler {
	return &CatalogHandler{inventory: inventory, verifier: verifier, internalKey: internalKey}
}

type inventoryRequest struct {
	Reference string            `json:"reference"`
	Items     []models.LineItem `json:"items" binding:"required"`
}

func (h *CatalogHandler) SetupRoutes(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.GET("/products/:id", h.getProduct)

	inv := v1.Group("/inventory", RequireAdminOrInternal(h.verifier, h.internalKey))
	{
		inv.GET("/:product_id", h.getInventory)
		inv.POST("/reserve", h.reserve)
		inv.POST("/commit", h.commit)
		inv.POST("/release", h.release)
		inv.POST("/restock", h.restock)
	}
}

func (h *CatalogHandler) getProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.inventory.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) getInventory(c *gin.Context) {
	id, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}
	rec, err := h.inventory.GetInventory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product_id": rec.ProductID,
		"in_stock":   rec.InStock,
		"reserved":   rec.Reserved,
		"available":  rec.Available(),
	})
}

func (h *CatalogHandler) reserve(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.inventory.Reserve(c.Request.Context(), req.Items); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reserved"})
}

func (h *CatalogHandler) commit(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.inventory.Commit(c.Request.Context(), req.Reference, req.Items); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "committed"})
}

func (h *CatalogHandler) release(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.inventory.Release(c.Request.Context(), req.Items); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "released"})
}

func (h *CatalogHandler) restock(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.inventory.Restock(c.Request.Context(), req.Items); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "restocked"})
}
