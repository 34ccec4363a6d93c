package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fulfillment/internal/models"
)

// CatalogClient talks to the catalog's product and inventory endpoints
type CatalogClient struct {
	c *httpClient
}

// NewCatalogClient creates a catalog client authenticating with internalKey
func NewCatalogClient(baseURL, internalKey string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{c: newHTTPClient("catalog", baseURL, internalKey, timeout)}
}

type inventoryRequest struct {
	Reference string            `json:"reference,omitempty"`
	Items     []models.LineItem `json:"items"`
}

func (cc *CatalogClient) Reserve(ctx context.Context, items []models.LineItem) error {
	return cc.c.do(ctx, http.MethodPost, "/v1/inventory/reserve", inventoryRequest{Items: items}, nil)
}

func (cc *CatalogClient) Commit(ctx context.Context, reference string, items []models.LineItem) error {
	return cc.c.do(ctx, http.MethodPost, "/v1/inventory/commit", inventoryRequest{Reference: reference, Items: items}, nil)
}

func (cc *CatalogClient) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := cc.c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/products/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
