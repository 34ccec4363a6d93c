package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"
)

// Shipments is an in-memory shipment repository with one shipment per order.
type Shipments struct {
	mu      sync.Mutex
	outbox  *Outbox
	nextID  int64
	byID    map[int64]*models.Shipment
	byOrder map[int64]int64
}

func NewShipments(outbox *Outbox) *Shipments {
	return &Shipments{
		outbox:  outbox,
		byID:    make(map[int64]*models.Shipment),
		byOrder: make(map[int64]int64),
	}
}

func (r *Shipments) CreateShipment(_ context.Context, sh *models.Shipment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byOrder[sh.OrderID]; ok {
		*sh = *r.byID[id]
		return false, nil
	}

	r.nextID++
	sh.ID = r.nextID
	sh.CreatedAt = time.Now()
	sh.UpdatedAt = sh.CreatedAt
	cp := *sh
	r.byID[sh.ID] = &cp
	r.byOrder[sh.OrderID] = sh.ID
	return true, nil
}

func (r *Shipments) GetShipment(_ context.Context, id int64) (*models.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.byID[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "shipment not found: %d", id)
	}
	cp := *sh
	return &cp, nil
}

func (r *Shipments) GetShipmentByOrderID(_ context.Context, orderID int64) (*models.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "shipment not found for order: %d", orderID)
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *Shipments) ListShipments(_ context.Context, orderID int64) ([]models.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Shipment{}
	for _, sh := range r.byID {
		if orderID > 0 && sh.OrderID != orderID {
			continue
		}
		out = append(out, *sh)
	}
	sort.Slice(out, func(i, j int) bool {
		if orderID > 0 {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > 100 {
		out = out[:100]
	}
	return out, nil
}

func (r *Shipments) TransitionShipment(
	_ context.Context,
	id int64,
	upd models.ShipmentUpdate,
	newEvent func(*models.Shipment) models.DomainEvent,
) (*models.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "shipment not found: %d", id)
	}
	if stored.Status != upd.From || !stored.Status.CanTransitionTo(upd.To) {
		return nil, apperr.Newf(apperr.CodeConflict, "shipment %d is %s, cannot move to %s", id, stored.Status, upd.To)
	}

	next := *stored
	if upd.Carrier != "" {
		next.Carrier = upd.Carrier
	}
	if upd.TrackingNumber != "" {
		next.TrackingNumber = upd.TrackingNumber
	}
	next.Status = upd.To
	next.UpdatedAt = time.Now()

	if newEvent != nil {
		if err := r.outbox.add(models.AggregateShipment, next.ID, newEvent(&next)); err != nil {
			return nil, err
		}
	}
	*stored = next
	return &next, nil
}
