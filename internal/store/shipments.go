package store

import (
	"context"
	"database/sql"
	"fmt"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"

	"github.com/jmoiron/sqlx"
)

const shipmentColumns = `id, order_id, user_email, address_line1, address_line2, city, country, postcode,
	carrier, tracking_number, status, created_at, updated_at`

// CreateShipment inserts s unless the order already has a shipment, in which case s is
// overwritten with the existing record and created is false.
func (s *Store) CreateShipment(ctx context.Context, sh *models.Shipment) (bool, error) {
	query := `
		INSERT INTO shipments (order_id, user_email, address_line1, address_line2, city, country, postcode, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id) DO NOTHING
		RETURNING ` + shipmentColumns

	err := s.db.GetContext(ctx, sh, query,
		sh.OrderID, sh.UserEmail, sh.AddressLine1, sh.AddressLine2, sh.City, sh.Country, sh.Postcode, sh.Status)
	if err == nil {
		return true, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to insert shipment: %w", err)
	}

	existing, err := s.GetShipmentByOrderID(ctx, sh.OrderID)
	if err != nil {
		return false, err
	}
	*sh = *existing
	return false, nil
}

// GetShipment retrieves a shipment by ID
func (s *Store) GetShipment(ctx context.Context, id int64) (*models.Shipment, error) {
	var sh models.Shipment
	err := s.db.GetContext(ctx, &sh, "SELECT "+shipmentColumns+" FROM shipments WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.CodeNotFound, "shipment not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// GetShipmentByOrderID retrieves the shipment of an order
func (s *Store) GetShipmentByOrderID(ctx context.Context, orderID int64) (*models.Shipment, error) {
	var sh models.Shipment
	err := s.db.GetContext(ctx, &sh, "SELECT "+shipmentColumns+" FROM shipments WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.CodeNotFound, "shipment not found for order: %d", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// ListShipments lists shipments, optionally restricted to one order
func (s *Store) ListShipments(ctx context.Context, orderID int64) ([]models.Shipment, error) {
	shipments := []models.Shipment{}
	var err error
	if orderID > 0 {
		err = s.db.SelectContext(ctx, &shipments,
			"SELECT "+shipmentColumns+" FROM shipments WHERE order_id = $1 ORDER BY id", orderID)
	} else {
		err = s.db.SelectContext(ctx, &shipments,
			"SELECT "+shipmentColumns+" FROM shipments ORDER BY id DESC LIMIT 100")
	}
	return shipments, err
}

// TransitionShipment applies upd under a row lock and records the event built by newEvent
// in the same transaction. It fails with CONFLICT when the shipment is not in upd.From.
func (s *Store) TransitionShipment(
	ctx context.Context,
	id int64,
	upd models.ShipmentUpdate,
	newEvent func(*models.Shipment) models.DomainEvent,
) (*models.Shipment, error) {
	var sh models.Shipment
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &sh, "SELECT "+shipmentColumns+" FROM shipments WHERE id = $1 FOR UPDATE", id)
		if err == sql.ErrNoRows {
			return apperr.Newf(apperr.CodeNotFound, "shipment not found: %d", id)
		}
		if err != nil {
			return fmt.Errorf("failed to lock shipment: %w", err)
		}

		if sh.Status != upd.From || !sh.Status.CanTransitionTo(upd.To) {
			return apperr.Newf(apperr.CodeConflict, "shipment %d is %s, cannot move to %s", id, sh.Status, upd.To)
		}

		if upd.Carrier != "" {
			sh.Carrier = upd.Carrier
		}
		if upd.TrackingNumber != "" {
			sh.TrackingNumber = upd.TrackingNumber
		}
		sh.Status = upd.To

		if err := tx.GetContext(ctx, &sh.UpdatedAt, `
			UPDATE shipments SET status = $1, carrier = $2, tracking_number = $3, updated_at = NOW()
			WHERE id = $4
			RETURNING updated_at`,
			sh.Status, sh.Carrier, sh.TrackingNumber, sh.ID); err != nil {
			return fmt.Errorf("failed to update shipment: %w", err)
		}

		if newEvent == nil {
			return nil
		}
		return insertOutbox(ctx, tx, models.AggregateShipment, sh.ID, newEvent(&sh))
	})
	if err != nil {
		return nil, err
	}
	return &sh, nil
}
