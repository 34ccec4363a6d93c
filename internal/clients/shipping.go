package clients

import (
	"context"
	"net/http"
	"time"

	"fulfillment/internal/models"
)

// ShippingClient creates shipment drafts on the shipping service
type ShippingClient struct {
	c *httpClient
}

// NewShippingClient creates a shipping client authenticating with internalKey
func NewShippingClient(baseURL, internalKey string, timeout time.Duration) *ShippingClient {
	return &ShippingClient{c: newHTTPClient("shipping", baseURL, internalKey, timeout)}
}

func (sc *ShippingClient) CreateShipment(ctx context.Context, req models.CreateShipmentRequest) (*models.Shipment, error) {
	var sh models.Shipment
	if err := sc.c.do(ctx, http.MethodPost, "/v1/shipments", req, &sh); err != nil {
		return nil, err
	}
	return &sh, nil
}
