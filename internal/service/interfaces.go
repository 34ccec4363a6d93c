package service

import (
	"context"
	"time"

	"fulfillment/internal/models"
)

// InventoryStore is the durable inventory ledger.
type InventoryStore interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetInventory(ctx context.Context, productID int64) (*models.InventoryRecord, error)
	Reserve(ctx context.Context, items []models.LineItem) error
	Commit(ctx context.Context, reference string, items []models.LineItem) (bool, error)
	Release(ctx context.Context, items []models.LineItem) error
	Restock(ctx context.Context, items []models.LineItem) error
}

// OrderRepository persists orders together with their creation event.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem, newEvent func(*models.Order) models.DomainEvent) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	MarkOrderPaid(ctx context.Context, orderID int64) (bool, error)
}

// ShipmentRepository persists shipments and their transition events.
type ShipmentRepository interface {
	CreateShipment(ctx context.Context, sh *models.Shipment) (bool, error)
	GetShipment(ctx context.Context, id int64) (*models.Shipment, error)
	GetShipmentByOrderID(ctx context.Context, orderID int64) (*models.Shipment, error)
	ListShipments(ctx context.Context, orderID int64) ([]models.Shipment, error)
	TransitionShipment(ctx context.Context, id int64, upd models.ShipmentUpdate, newEvent func(*models.Shipment) models.DomainEvent) (*models.Shipment, error)
}

// CartStore holds cart snapshots keyed by customer email.
type CartStore interface {
	GetCart(ctx context.Context, email string) ([]models.CartLine, error)
	GetLine(ctx context.Context, email string, productID int64) (*models.CartLine, error)
	PutLine(ctx context.Context, email string, line models.CartLine) error
	DeleteLine(ctx context.Context, email string, productID int64) error
	ClearCart(ctx context.Context, email string) error
}

// Locker provides expiring mutual exclusion.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// InventoryAPI is the subset of the ledger used by the order service.
type InventoryAPI interface {
	Reserve(ctx context.Context, items []models.LineItem) error
	Commit(ctx context.Context, reference string, items []models.LineItem) error
}

// ProductCatalog looks up product snapshots.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

// ShipmentAPI creates shipment drafts.
type ShipmentAPI interface {
	CreateShipment(ctx context.Context, req models.CreateShipmentRequest) (*models.Shipment, error)
}

// EventPublisher writes events straight to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.DomainEvent) error
}

// EmailSender delivers one plain-text email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailDirectory remembers which customer placed an order.
type EmailDirectory interface {
	RememberEmail(ctx context.Context, orderID int64, email string, ttl time.Duration) error
	LookupEmail(ctx context.Context, orderID int64) (string, error)
}

// Deduplicator remembers keys of work already done.
type Deduplicator interface {
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, ttl time.Duration) error
}
