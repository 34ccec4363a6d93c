package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/apperr"
	"fulfillment/internal/auth"
	"fulfillment/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCatalogClientSendsKeyAndItems(t *testing.T) {
	var got inventoryRequest
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get(auth.InternalKeyHeader)
		assert.Equal(t, "/v1/inventory/commit", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}))
	defer srv.Close()

	cc := NewCatalogClient(srv.URL, "devkey", time.Second)
	err := cc.Commit(context.Background(), "order-3", []models.LineItem{{ProductID: 1, Qty: 2}})
	require.NoError(t, err)

	assert.Equal(t, "devkey", key)
	assert.Equal(t, "order-3", got.Reference)
	assert.Equal(t, []models.LineItem{{ProductID: 1, Qty: 2}}, got.Items)
}

func TestCatalogClientMapsRemoteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/inventory/reserve":
			writeJSON(w, http.StatusConflict, errorBody{Error: "insufficient stock for product_id 1", Code: "INSUFFICIENT_STOCK"})
		case "/v1/products/9":
			writeJSON(w, http.StatusNotFound, errorBody{Error: "product not found: 9", Code: "NOT_FOUND"})
		default:
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "boom", Code: "INTERNAL"})
		}
	}))
	defer srv.Close()

	cc := NewCatalogClient(srv.URL, "", time.Second)
	ctx := context.Background()

	err := cc.Reserve(ctx, []models.LineItem{{ProductID: 1, Qty: 1}})
	assert.Equal(t, apperr.CodeInsufficientStock, apperr.CodeOf(err))
	assert.Equal(t, "insufficient stock for product_id 1", apperr.MessageOf(err))

	_, err = cc.GetProduct(ctx, 9)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	err = cc.Commit(ctx, "", []models.LineItem{{ProductID: 1, Qty: 1}})
	assert.Equal(t, apperr.CodeUpstreamUnavailable, apperr.CodeOf(err))
	assert.True(t, apperr.IsCode(err, apperr.CodeInternal))
}

func TestUnreachableServiceIsUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cc := NewCatalogClient(url, "", 200*time.Millisecond)
	err := cc.Reserve(context.Background(), []models.LineItem{{ProductID: 1, Qty: 1}})
	assert.Equal(t, apperr.CodeUpstreamUnavailable, apperr.CodeOf(err))
}

func TestBreakerOpensOnUnavailabilityOnly(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/v1/products/1" {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "missing", Code: "NOT_FOUND"})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "down", Code: "UPSTREAM_UNAVAILABLE"})
	}))
	defer srv.Close()

	cc := NewCatalogClient(srv.URL, "", time.Second)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := cc.GetProduct(ctx, 1)
		require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	}
	assert.Equal(t, int32(10), calls.Load())

	failing := NewCatalogClient(srv.URL, "", time.Second)
	for i := 0; i < 5; i++ {
		_ = failing.Reserve(ctx, []models.LineItem{{ProductID: 2, Qty: 1}})
	}
	before := calls.Load()
	err := failing.Reserve(ctx, []models.LineItem{{ProductID: 2, Qty: 1}})
	assert.Equal(t, apperr.CodeUpstreamUnavailable, apperr.CodeOf(err))
	assert.ErrorContains(t, err, "circuit open")
	assert.Equal(t, before, calls.Load())
}

func TestShippingClientCreatesShipment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateShipmentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(w, http.StatusCreated, models.Shipment{
			ID:      5,
			OrderID: req.OrderID,
			City:    req.City,
			Country: req.Country,
			Status:  models.ShipmentPendingPayment,
		})
	}))
	defer srv.Close()

	sc := NewShippingClient(srv.URL, "devkey", time.Second)
	sh, err := sc.CreateShipment(context.Background(), models.CreateShipmentRequest{
		OrderID:   12,
		UserEmail: "ada@example.com",
		Address:   models.Address{Line1: "1 Way", City: "London", Country: "GB", Postcode: "N1"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), sh.ID)
	assert.Equal(t, int64(12), sh.OrderID)
	assert.Equal(t, "London", sh.City)
	assert.Equal(t, models.ShipmentPendingPayment, sh.Status)
}
