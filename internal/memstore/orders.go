package memstore

import (
	"context"
	"sync"
	"time"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"
)

// Orders is an in-memory order repository writing creation events to an Outbox.
type Orders struct {
	mu         sync.Mutex
	outbox     *Outbox
	nextID     int64
	nextItemID int64
	orders     map[int64]*models.Order
	items      map[int64][]models.OrderItem

	// FailCreate makes CreateOrder fail when set.
	FailCreate error
}

func NewOrders(outbox *Outbox) *Orders {
	return &Orders{
		outbox: outbox,
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.OrderItem),
	}
}

func (r *Orders) CreateOrder(
	_ context.Context,
	order *models.Order,
	items []models.OrderItem,
	newEvent func(*models.Order) models.DomainEvent,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailCreate != nil {
		return r.FailCreate
	}

	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range items {
		r.nextItemID++
		items[i].ID = r.nextItemID
		items[i].OrderID = order.ID
	}

	if newEvent != nil {
		if err := r.outbox.add(models.AggregateOrder, order.ID, newEvent(order)); err != nil {
			return err
		}
	}

	cp := *order
	r.orders[order.ID] = &cp
	r.items[order.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (r *Orders) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "order not found: %d", id)
	}
	cp := *o
	return &cp, nil
}

func (r *Orders) GetOrderItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.OrderItem(nil), r.items[orderID]...), nil
}

func (r *Orders) MarkOrderPaid(_ context.Context, orderID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != models.OrderStatusCreated {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	o.UpdatedAt = time.Now()
	return true, nil
}

// Count returns the number of stored orders.
func (r *Orders) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}
