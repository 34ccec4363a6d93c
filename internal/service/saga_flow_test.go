package service

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/broker"
	"fulfillment/internal/memstore"
	"fulfillment/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bus relays outbox rows and direct publishes to every subscribed handler, in order.
type bus struct {
	t        *testing.T
	outbox   *memstore.Outbox
	pub      *memstore.Publisher
	handlers []*broker.EventHandler
	next     int
}

func (b *bus) drain(ctx context.Context) {
	b.t.Helper()
	for {
		for _, aggregate := range []string{models.AggregateOrder, models.AggregateShipment} {
			_, err := b.outbox.RelayOutbox(ctx, aggregate, 50, b.pub.PublishOutbox)
			require.NoError(b.t, err)
		}

		events := b.pub.Events()
		if b.next == len(events) {
			return
		}
		for ; b.next < len(events); b.next++ {
			for _, h := range b.handlers {
				_, err := h.Dispatch(ctx, events[b.next])
				require.NoError(b.t, err)
			}
		}
	}
}

func TestOrderToDispatchFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mail := &memstore.Mailbox{}
	notifications := NewNotificationService(mail, f.kv, f.kv, time.Hour, time.Hour)
	pub := &memstore.Publisher{}
	payments := NewPaymentService(pub)

	orderEvents := broker.NewEventHandler()
	orderEvents.OnPaymentSucceeded(f.saga.HandlePaymentSucceeded)

	shippingEvents := broker.NewEventHandler()
	shippingEvents.OnOrderCreated(f.shipping.HandleOrderCreated)
	shippingEvents.OnPaymentSucceeded(f.shipping.HandlePaymentSucceeded)

	notifyEvents := broker.NewEventHandler()
	notifyEvents.OnOrderCreated(notifications.HandleOrderCreated)
	notifyEvents.OnPaymentSucceeded(notifications.HandlePaymentSucceeded)
	notifyEvents.OnShippingReady(notifications.HandleShippingReady)
	notifyEvents.OnShippingDispatched(notifications.HandleShippingDispatched)

	b := &bus{t: t, outbox: f.outbox, pub: pub, handlers: []*broker.EventHandler{orderEvents, shippingEvents, notifyEvents}}

	f.fillCart(t)
	resp, err := f.checkout.Checkout(ctx, testEmail, testAddress)
	require.NoError(t, err)
	b.drain(ctx)

	require.NoError(t, payments.MockSucceed(ctx, resp.OrderID, resp.TotalCents, resp.Currency))
	b.drain(ctx)

	order, err := f.orders.GetOrderByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, 3, f.stock(t, 1).InStock)
	assert.Equal(t, 7, f.stock(t, 2).InStock)

	sh, err := f.shipments.GetShipmentByOrderID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.ShipmentReadyToShip, sh.Status)

	_, err = f.shipping.Dispatch(ctx, sh.ID)
	require.NoError(t, err)
	b.drain(ctx)

	var subjects []string
	for _, m := range mail.Sent() {
		assert.Equal(t, testEmail, m.To)
		subjects = append(subjects, m.Subject)
	}
	assert.Equal(t, []string{"Order received", "Payment received", "Order ready to ship", "Order dispatched"}, subjects)

	// Replaying the whole stream is harmless.
	b.next = 0
	b.drain(ctx)
	assert.Len(t, mail.Sent(), 4)
	assert.Equal(t, 3, f.stock(t, 1).InStock)

	sh, err = f.shipments.GetShipmentByOrderID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.ShipmentDispatched, sh.Status)
}
