package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// EventType is the wire discriminator of a domain event.
type EventType string

// Event types
const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypePaymentSucceeded   EventType = "payment.succeeded"
	EventTypeShippingReady      EventType = "shipping.ready"
	EventTypeShippingDispatched EventType = "shipping.dispatched"
)

// ErrUnknownEventType is returned by DecodeEvent for an unrecognised discriminator.
var ErrUnknownEventType = errors.New("unknown event type")

// DomainEvent is one of OrderCreated, PaymentSucceeded, ShippingReady or ShippingDispatched.
type DomainEvent interface {
	Envelope() BaseEvent
	domainEvent()
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID    string    `json:"event_id"`
	Type       EventType `json:"type"`
	OrderID    int64     `json:"order_id"`
	UserEmail  string    `json:"user_email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Envelope returns the common fields.
func (b BaseEvent) Envelope() BaseEvent { return b }

// PartitionKey is the bus key that keeps events of one order in sequence.
func (b BaseEvent) PartitionKey() string {
	return strconv.FormatInt(b.OrderID, 10)
}

func newBase(t EventType, orderID int64, email string) BaseEvent {
	return BaseEvent{
		EventID:    uuid.New().String(),
		Type:       t,
		OrderID:    orderID,
		UserEmail:  email,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderCreated is published once an order is persisted.
type OrderCreated struct {
	BaseEvent
	AmountCents     int64      `json:"amount_cents"`
	Currency        string     `json:"currency"`
	Items           []LineItem `json:"items"`
	ShippingAddress *Address   `json:"shipping_address,omitempty"`
}

// PaymentSucceeded is published by the payment gateway stand-in.
type PaymentSucceeded struct {
	BaseEvent
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// ShippingReady is published when a paid shipment can be dispatched.
type ShippingReady struct {
	BaseEvent
	ShipmentID int64 `json:"shipment_id"`
}

// ShippingDispatched is published when a shipment leaves with a carrier.
type ShippingDispatched struct {
	BaseEvent
	ShipmentID     int64  `json:"shipment_id"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

func (*OrderCreated) domainEvent()       {}
func (*PaymentSucceeded) domainEvent()   {}
func (*ShippingReady) domainEvent()      {}
func (*ShippingDispatched) domainEvent() {}

func NewOrderCreated(order *Order, items []OrderItem, addr *Address) *OrderCreated {
	return &OrderCreated{
		BaseEvent:       newBase(EventTypeOrderCreated, order.ID, order.UserEmail),
		AmountCents:     order.TotalCents,
		Currency:        order.Currency,
		Items:           LineItems(items),
		ShippingAddress: addr,
	}
}

func NewPaymentSucceeded(orderID, amountCents int64, currency string) *PaymentSucceeded {
	return &PaymentSucceeded{
		BaseEvent:   newBase(EventTypePaymentSucceeded, orderID, ""),
		AmountCents: amountCents,
		Currency:    currency,
	}
}

func NewShippingReady(s *Shipment) *ShippingReady {
	return &ShippingReady{
		BaseEvent:  newBase(EventTypeShippingReady, s.OrderID, s.UserEmail),
		ShipmentID: s.ID,
	}
}

func NewShippingDispatched(s *Shipment) *ShippingDispatched {
	return &ShippingDispatched{
		BaseEvent:      newBase(EventTypeShippingDispatched, s.OrderID, s.UserEmail),
		ShipmentID:     s.ID,
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
	}
}

// DecodeEvent parses a bus payload into its concrete event type.
func DecodeEvent(data []byte) (DomainEvent, error) {
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	var ev DomainEvent
	switch head.Type {
	case EventTypeOrderCreated:
		ev = &OrderCreated{}
	case EventTypePaymentSucceeded:
		ev = &PaymentSucceeded{}
	case EventTypeShippingReady:
		ev = &ShippingReady{}
	case EventTypeShippingDispatched:
		ev = &ShippingDispatched{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, head.Type)
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", head.Type, err)
	}
	if ev.Envelope().OrderID == 0 {
		return nil, fmt.Errorf("%s event without order_id", head.Type)
	}
	return ev, nil
}
