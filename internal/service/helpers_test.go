package service

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/memstore"
	"fulfillment/internal/models"

	"github.com/stretchr/testify/require"
)

const testEmail = "ada@example.com"

var testAddress = models.Address{
	Line1:    "1 Analytical Way",
	City:     "London",
	Country:  "gb",
	Postcode: "N1 9GU",
}

// fixture wires the services over in-memory backends the way the binaries wire them
// over Postgres, Redis and HTTP.
type fixture struct {
	inv       *memstore.Inventory
	outbox    *memstore.Outbox
	orders    *memstore.Orders
	shipments *memstore.Shipments
	kv        *memstore.KV

	inventory *InventoryService
	carts     *CartService
	shipping  *ShippingService
	checkout  *OrderService
	saga      *SagaOrchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		inv:    memstore.NewInventory(),
		outbox: memstore.NewOutbox(),
		kv:     memstore.NewKV(),
	}
	f.orders = memstore.NewOrders(f.outbox)
	f.shipments = memstore.NewShipments(f.outbox)

	f.inv.AddProduct(models.Product{ID: 1, Title: "Keyboard", PriceCents: 9999, Currency: "USD"}, 5)
	f.inv.AddProduct(models.Product{ID: 2, Title: "Mouse", PriceCents: 2000, Currency: "USD"}, 10)

	f.inventory = NewInventoryService(f.inv)
	f.carts = NewCartService(f.kv, f.inventory)
	f.shipping = NewShippingService(f.shipments, "DemoCarrier")
	f.checkout = NewOrderService(f.orders, f.kv, f.kv, f.inventory, f.shipping, "USD", 30*time.Second)
	f.saga = NewSagaOrchestrator(f.orders, f.inventory)
	return f
}

// fillCart puts two keyboards and three mice in the test customer's cart.
func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddItem(ctx, testEmail, 1, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, testEmail, 2, 3)
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, productID int64) *models.InventoryRecord {
	t.Helper()
	rec, err := f.inv.GetInventory(context.Background(), productID)
	require.NoError(t, err)
	return rec
}

func (f *fixture) outboxOf(aggregateType string) []models.OutboxEvent {
	var out []models.OutboxEvent
	for _, ev := range f.outbox.Events() {
		if ev.AggregateType == aggregateType {
			out = append(out, ev)
		}
	}
	return out
}
