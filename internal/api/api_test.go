package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"fulfillment/internal/auth"
	"fulfillment/internal/memstore"
	"fulfillment/internal/models"
	"fulfillment/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const internalKey = "devkey"

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	verifier *auth.Verifier
	inv      *memstore.Inventory
	mail     *memstore.Mailbox
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	inv := memstore.NewInventory()
	inv.AddProduct(models.Product{ID: 1, Title: "Keyboard", PriceCents: 9999, Currency: "USD"}, 5)
	inv.AddProduct(models.Product{ID: 2, Title: "Mouse", PriceCents: 2000, Currency: "USD"}, 10)

	outbox := memstore.NewOutbox()
	kv := memstore.NewKV()
	mail := &memstore.Mailbox{}

	inventory := service.NewInventoryService(inv)
	carts := service.NewCartService(kv, inventory)
	shipping := service.NewShippingService(memstore.NewShipments(outbox), "DemoCarrier")
	orders := service.NewOrderService(memstore.NewOrders(outbox), kv, kv, inventory, shipping, "USD", time.Minute)
	payments := service.NewPaymentService(&memstore.Publisher{})
	notifications := service.NewNotificationService(mail, kv, kv, time.Hour, time.Hour)

	verifier := auth.NewVerifier("test-secret")
	router := NewRouter(map[string]ReadyCheck{"redis": func(context.Context) error { return kv.Err }},
		NewCatalogHandler(inventory, verifier, internalKey),
		NewCartHandler(carts, verifier),
		NewOrderHandler(orders, verifier),
		NewShippingHandler(shipping, verifier, internalKey),
		NewPaymentHandler(payments),
		NewNotificationHandler(notifications, verifier, internalKey),
	)

	return &testServer{t: t, router: router, verifier: verifier, inv: inv, mail: mail}
}

func (s *testServer) token(email, role string) string {
	tok, err := s.verifier.Issue(email, role, time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

var internal = map[string]string{auth.InternalKeyHeader: internalKey}

var address = map[string]string{
	"address_line1": "1 Analytical Way",
	"city":          "London",
	"country":       "gb",
	"postcode":      "N1 9GU",
}

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, _ = s.do(http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCheckoutOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ada := bearer(s.token("ada@example.com", "customer"))

	status, _ := s.do(http.MethodPost, "/v1/cart/items", map[string]int{"product_id": 1, "qty": 2}, ada)
	require.Equal(t, http.StatusOK, status)
	status, cart := s.do(http.MethodPost, "/v1/cart/items", map[string]int{"product_id": 2, "qty": 3}, ada)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(25998), cart["total_cents"])

	status, resp := s.do(http.MethodPost, "/v1/orders/checkout", address, ada)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "CREATED", resp["status"])
	assert.Equal(t, float64(25998), resp["total_cents"])
	assert.Equal(t, "USD", resp["currency"])

	orderPath := "/v1/orders/" + jsonNumber(resp["order_id"])
	status, _ = s.do(http.MethodGet, orderPath, nil, ada)
	assert.Equal(t, http.StatusOK, status)

	status, body := s.do(http.MethodGet, orderPath, nil, bearer(s.token("grace@example.com", "customer")))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])

	status, _ = s.do(http.MethodGet, orderPath, nil, bearer(s.token("ops@example.com", auth.RoleAdmin)))
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(http.MethodPost, "/v1/orders/checkout", address, ada)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "EMPTY_CART", body["code"])
}

func TestCheckoutRejectsBadAddress(t *testing.T) {
	s := newTestServer(t)
	ada := bearer(s.token("ada@example.com", "customer"))

	status, body := s.do(http.MethodPost, "/v1/orders/checkout", map[string]string{"city": "London", "country": "GBR"}, ada)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])
}

func TestIdentityIsRequired(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodGet, "/v1/cart", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", body["code"])

	status, _ = s.do(http.MethodGet, "/v1/cart", nil, bearer("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestInventoryGuard(t *testing.T) {
	s := newTestServer(t)
	items := map[string]interface{}{"items": []map[string]int{{"product_id": 1, "qty": 2}}}

	status, _ := s.do(http.MethodPost, "/v1/inventory/reserve", items, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := s.do(http.MethodPost, "/v1/inventory/reserve", items, bearer(s.token("ada@example.com", "customer")))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, _ = s.do(http.MethodPost, "/v1/inventory/reserve", items, map[string]string{auth.InternalKeyHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(http.MethodPost, "/v1/inventory/reserve", items, internal)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "reserved", body["status"])

	status, _ = s.do(http.MethodPost, "/v1/inventory/restock", items, bearer(s.token("ops@example.com", auth.RoleAdmin)))
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(http.MethodGet, "/v1/inventory/1", nil, internal)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(7), body["in_stock"])
	assert.Equal(t, float64(2), body["reserved"])
	assert.Equal(t, float64(5), body["available"])
}

func TestInventoryErrorsOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodPost, "/v1/inventory/reserve",
		map[string]interface{}{"items": []map[string]int{{"product_id": 1, "qty": 50}}}, internal)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])

	status, body = s.do(http.MethodPost, "/v1/inventory/commit",
		map[string]interface{}{"reference": "order-1", "items": []map[string]int{{"product_id": 99, "qty": 1}}}, internal)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])

	status, body = s.do(http.MethodGet, "/v1/products/1", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Keyboard", body["title"])

	status, _ = s.do(http.MethodGet, "/v1/products/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestShipmentEndpoints(t *testing.T) {
	s := newTestServer(t)
	req := map[string]interface{}{
		"order_id":      12,
		"user_email":    "ada@example.com",
		"address_line1": "1 Analytical Way",
		"city":          "London",
		"country":       "gb",
		"postcode":      "N1 9GU",
	}

	status, _ := s.do(http.MethodPost, "/v1/shipments", req, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, sh := s.do(http.MethodPost, "/v1/shipments", req, internal)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "PENDING_PAYMENT", sh["status"])
	assert.Equal(t, "GB", sh["country"])

	id := jsonNumber(sh["id"])
	status, body := s.do(http.MethodPost, "/v1/shipments/"+id+"/dispatch", nil, internal)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body["code"])

	status, body = s.do(http.MethodGet, "/v1/shipments/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(12), body["order_id"])

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/shipments?order_id=12", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Shipment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	status, _ = s.do(http.MethodGet, "/v1/shipments?order_id=x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPaymentEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodPost, "/v1/payments/create-intent", map[string]interface{}{"order_id": 31, "currency": "USD"}, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pay_31", body["payment_id"])
	assert.Equal(t, "secret_31", body["client_secret"])

	status, body = s.do(http.MethodPost, "/v1/payments/mock-succeed",
		map[string]interface{}{"order_id": 31, "amount_cents": 25998, "currency": "USD"}, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestTestEmailEndpoint(t *testing.T) {
	s := newTestServer(t)
	msg := map[string]string{"to": "ops@example.com", "subject": "hello", "body": "hi"}

	status, _ := s.do(http.MethodPost, "/v1/notifications/test-email", msg, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := s.do(http.MethodPost, "/v1/notifications/test-email", msg, internal)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["sent"])
	require.Len(t, s.mail.Sent(), 1)

	status, _ = s.do(http.MethodPost, "/v1/notifications/test-email", map[string]string{"to": "nope", "subject": "x"}, internal)
	assert.Equal(t, http.StatusBadRequest, status)

	s.mail.Err = errors.New("relay refused")
	status, body = s.do(http.MethodPost, "/v1/notifications/test-email", msg, internal)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", body["code"])
}

func jsonNumber(v interface{}) string {
	f, _ := v.(float64)
	return strconv.FormatInt(int64(f), 10)
}
