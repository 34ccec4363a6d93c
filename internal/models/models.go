package models

import (
	"time"
)

// Product is the read-only view of a catalog product.
type Product struct {
	ID         int64  `db:"id" json:"id"`
	Title      string `db:"title" json:"title"`
	PriceCents int64  `db:"price_cents" json:"price_cents"`
	Currency   string `db:"currency" json:"currency"`
}

// InventoryRecord holds the stock counters of one product.
type InventoryRecord struct {
	ProductID int64     `db:"product_id" json:"product_id"`
	InStock   int       `db:"in_stock" json:"in_stock"`
	Reserved  int       `db:"reserved" json:"reserved"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Available returns the quantity that can still be reserved.
func (r *InventoryRecord) Available() int {
	return r.InStock - r.Reserved
}

// CanReserve reports whether qty fits into the available quantity.
func (r *InventoryRecord) CanReserve(qty int) bool {
	return r.InStock-r.Reserved >= qty
}

// ApplyCommit removes qty from stock and from the reservation, flooring both at zero.
func (r *InventoryRecord) ApplyCommit(qty int) {
	r.InStock = max(r.InStock-qty, 0)
	r.Reserved = max(r.Reserved-qty, 0)
}

// ApplyRelease gives qty of the reservation back, flooring at zero.
func (r *InventoryRecord) ApplyRelease(qty int) {
	r.Reserved = max(r.Reserved-qty, 0)
}

// ApplyRestock adds qty to stock. Negative quantities are ignored.
func (r *InventoryRecord) ApplyRestock(qty int) {
	r.InStock += max(qty, 0)
}

// LineItem is a product and quantity pair passed to ledger operations.
type LineItem struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

// CartLine is a product snapshot held in a customer's cart.
type CartLine struct {
	ProductID      int64  `json:"product_id"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Title          string `json:"title"`
}

// Order statuses
const (
	OrderStatusCreated = "CREATED"
	OrderStatusPaid    = "PAID"
)

// Order represents a customer order
type Order struct {
	ID         int64     `db:"id" json:"id"`
	UserEmail  string    `db:"user_email" json:"user_email"`
	Status     string    `db:"status" json:"status"`
	TotalCents int64     `db:"total_cents" json:"total_cents"`
	Currency   string    `db:"currency" json:"currency"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem represents an item in an order
type OrderItem struct {
	ID             int64  `db:"id" json:"id"`
	OrderID        int64  `db:"order_id" json:"order_id"`
	ProductID      int64  `db:"product_id" json:"product_id"`
	Qty            int    `db:"qty" json:"qty"`
	UnitPriceCents int64  `db:"unit_price_cents" json:"unit_price_cents"`
	TitleSnapshot  string `db:"title_snapshot" json:"title_snapshot"`
}

// LineItems converts order items into ledger line items.
func LineItems(items []OrderItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, LineItem{ProductID: it.ProductID, Qty: it.Qty})
	}
	return out
}

// Address is a shipping destination.
type Address struct {
	Line1    string `json:"address_line1" binding:"required"`
	Line2    string `json:"address_line2,omitempty"`
	City     string `json:"city" binding:"required"`
	Country  string `json:"country" binding:"required,len=2"`
	Postcode string `json:"postcode" binding:"required"`
}

// OutboxEvent is a domain event waiting to be relayed to the bus.
type OutboxEvent struct {
	ID            int64      `db:"id"`
	AggregateType string     `db:"aggregate_type"`
	AggregateID   int64      `db:"aggregate_id"`
	EventType     EventType  `db:"event_type"`
	PartitionKey  string     `db:"partition_key"`
	Payload       []byte     `db:"payload"`
	Attempts      int        `db:"attempts"`
	LastError     *string    `db:"last_error"`
	CreatedAt     time.Time  `db:"created_at"`
	PublishedAt   *time.Time `db:"published_at"`
}

// Outbox aggregate types
const (
	AggregateOrder    = "order"
	AggregateShipment = "shipment"
)
