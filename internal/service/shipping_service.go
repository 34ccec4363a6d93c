package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"
	"fulfillment/internal/util"

	"go.uber.org/zap"
)

// ShippingService drives the shipment state machine
type ShippingService struct {
	shipments   ShipmentRepository
	carrier     string
	newTracking func() (string, error)
	logger      *zap.Logger
}

// NewShippingService creates a new shipping service that dispatches with carrier
func NewShippingService(shipments ShipmentRepository, carrier string) *ShippingService {
	return &ShippingService{
		shipments:   shipments,
		carrier:     carrier,
		newTracking: NewTrackingNumber,
		logger:      util.GetLogger(),
	}
}

// NewTrackingNumber returns 12 random uppercase hex characters.
func NewTrackingNumber() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate tracking number: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// CreateShipment creates the PENDING_PAYMENT draft of an order. An order that already
// has a shipment gets the existing one back.
func (s *ShippingService) CreateShipment(ctx context.Context, req models.CreateShipmentRequest) (*models.Shipment, error) {
	ctx, span := util.StartSpan(ctx, "ShippingService.CreateShipment")
	defer span.End()

	if err := validateShipmentRequest(req); err != nil {
		return nil, err
	}

	sh := models.NewShipment(req)
	created, err := s.shipments.CreateShipment(ctx, sh)
	if err != nil {
		return nil, err
	}

	if created {
		util.ShipmentTransitionsTotal.WithLabelValues(string(models.ShipmentPendingPayment)).Inc()
		s.logger.Info("Shipment created", zap.Int64("shipment_id", sh.ID), zap.Int64("order_id", sh.OrderID))
	} else {
		s.logger.Info("Shipment already exists for order", zap.Int64("shipment_id", sh.ID), zap.Int64("order_id", sh.OrderID))
	}
	return sh, nil
}

// GetShipment returns a shipment by ID
func (s *ShippingService) GetShipment(ctx context.Context, id int64) (*models.Shipment, error) {
	return s.shipments.GetShipment(ctx, id)
}

// ListShipments returns the shipments of an order, or recent shipments when orderID is 0
func (s *ShippingService) ListShipments(ctx context.Context, orderID int64) ([]models.Shipment, error) {
	return s.shipments.ListShipments(ctx, orderID)
}

// Dispatch hands a READY_TO_SHIP shipment to the carrier with a fresh tracking number
func (s *ShippingService) Dispatch(ctx context.Context, id int64) (*models.Shipment, error) {
	ctx, span := util.StartSpan(ctx, "ShippingService.Dispatch")
	defer span.End()

	tracking, err := s.newTracking()
	if err != nil {
		return nil, err
	}

	sh, err := s.shipments.TransitionShipment(ctx, id, models.ShipmentUpdate{
		From:           models.ShipmentReadyToShip,
		To:             models.ShipmentDispatched,
		Carrier:        s.carrier,
		TrackingNumber: tracking,
	}, func(sh *models.Shipment) models.DomainEvent {
		return models.NewShippingDispatched(sh)
	})
	if err != nil {
		return nil, err
	}

	util.ShipmentTransitionsTotal.WithLabelValues(string(models.ShipmentDispatched)).Inc()
	s.logger.Info("Shipment dispatched",
		zap.Int64("shipment_id", sh.ID),
		zap.Int64("order_id", sh.OrderID),
		zap.String("tracking_number", sh.TrackingNumber))
	return sh, nil
}

// HandlePaymentSucceeded moves the order's shipment from PENDING_PAYMENT to READY_TO_SHIP.
// Shipments in any other state are left untouched.
func (s *ShippingService) HandlePaymentSucceeded(ctx context.Context, event *models.PaymentSucceeded) error {
	ctx, span := util.StartSpan(ctx, "ShippingService.HandlePaymentSucceeded")
	defer span.End()

	logger := s.logger.With(util.TraceFields(ctx)...).With(zap.Int64("order_id", event.OrderID))

	sh, err := s.shipments.GetShipmentByOrderID(ctx, event.OrderID)
	if apperr.IsCode(err, apperr.CodeNotFound) {
		logger.Warn("Payment for order without shipment, dropping event")
		return nil
	}
	if err != nil {
		return err
	}

	if sh.Status != models.ShipmentPendingPayment {
		logger.Info("Shipment not awaiting payment, ignoring", zap.String("status", string(sh.Status)))
		return nil
	}

	sh, err = s.shipments.TransitionShipment(ctx, sh.ID, models.ShipmentUpdate{
		From: models.ShipmentPendingPayment,
		To:   models.ShipmentReadyToShip,
	}, func(sh *models.Shipment) models.DomainEvent {
		return models.NewShippingReady(sh)
	})
	if apperr.IsCode(err, apperr.CodeConflict) {
		logger.Info("Shipment moved concurrently, ignoring")
		return nil
	}
	if err != nil {
		return err
	}

	util.ShipmentTransitionsTotal.WithLabelValues(string(models.ShipmentReadyToShip)).Inc()
	logger.Info("Shipment ready to ship", zap.Int64("shipment_id", sh.ID))
	return nil
}

// HandleOrderCreated makes sure an order announced with an address has a shipment draft.
func (s *ShippingService) HandleOrderCreated(ctx context.Context, event *models.OrderCreated) error {
	if event.ShippingAddress == nil || event.UserEmail == "" {
		return nil
	}

	_, err := s.CreateShipment(ctx, models.CreateShipmentRequest{
		OrderID:   event.OrderID,
		UserEmail: event.UserEmail,
		Address:   *event.ShippingAddress,
	})
	if apperr.IsCode(err, apperr.CodeInvalidArgument) {
		s.logger.Warn("Order announced with unusable address", zap.Int64("order_id", event.OrderID), zap.Error(err))
		return nil
	}
	return err
}

func validateShipmentRequest(req models.CreateShipmentRequest) error {
	switch {
	case req.OrderID <= 0:
		return apperr.New(apperr.CodeInvalidArgument, "order_id is required")
	case strings.TrimSpace(req.UserEmail) == "":
		return apperr.New(apperr.CodeInvalidArgument, "user_email is required")
	case strings.TrimSpace(req.Line1) == "", strings.TrimSpace(req.City) == "", strings.TrimSpace(req.Postcode) == "":
		return apperr.New(apperr.CodeInvalidArgument, "address_line1, city and postcode are required")
	case len(req.Country) != 2:
		return apperr.New(apperr.CodeInvalidArgument, "country must be an ISO 3166-1 alpha-2 code")
	}
	return nil
}
