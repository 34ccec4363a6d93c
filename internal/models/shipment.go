package models

import (
	"strings"
	"time"
)

// ShipmentStatus is the lifecycle state of a shipment.
type ShipmentStatus string

const (
	ShipmentPendingPayment ShipmentStatus = "PENDING_PAYMENT"
	ShipmentReadyToShip    ShipmentStatus = "READY_TO_SHIP"
	ShipmentDispatched     ShipmentStatus = "DISPATCHED"
	ShipmentDelivered      ShipmentStatus = "DELIVERED"
	ShipmentCancelled      ShipmentStatus = "CANCELLED"
)

var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentPendingPayment: {ShipmentReadyToShip, ShipmentCancelled},
	ShipmentReadyToShip:    {ShipmentDispatched, ShipmentCancelled},
	ShipmentDispatched:     {ShipmentDelivered},
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, allowed := range shipmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s ShipmentStatus) IsTerminal() bool {
	return len(shipmentTransitions[s]) == 0
}

// Shipment is the delivery record of one order.
type Shipment struct {
	ID             int64          `db:"id" json:"id"`
	OrderID        int64          `db:"order_id" json:"order_id"`
	UserEmail      string         `db:"user_email" json:"user_email"`
	AddressLine1   string         `db:"address_line1" json:"address_line1"`
	AddressLine2   string         `db:"address_line2" json:"address_line2,omitempty"`
	City           string         `db:"city" json:"city"`
	Country        string         `db:"country" json:"country"`
	Postcode       string         `db:"postcode" json:"postcode"`
	Carrier        string         `db:"carrier" json:"carrier,omitempty"`
	TrackingNumber string         `db:"tracking_number" json:"tracking_number,omitempty"`
	Status         ShipmentStatus `db:"status" json:"status"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// CreateShipmentRequest asks Shipping for a shipment draft.
type CreateShipmentRequest struct {
	OrderID   int64  `json:"order_id" binding:"required"`
	UserEmail string `json:"user_email" binding:"required,email"`
	Address
}

// NewShipment builds a PENDING_PAYMENT shipment from a create request.
func NewShipment(req CreateShipmentRequest) *Shipment {
	return &Shipment{
		OrderID:      req.OrderID,
		UserEmail:    req.UserEmail,
		AddressLine1: req.Line1,
		AddressLine2: req.Line2,
		City:         req.City,
		Country:      strings.ToUpper(req.Country),
		Postcode:     req.Postcode,
		Status:       ShipmentPendingPayment,
	}
}

// ShipmentUpdate describes one guarded status change.
type ShipmentUpdate struct {
	From           ShipmentStatus
	To             ShipmentStatus
	Carrier        string
	TrackingNumber string
}
