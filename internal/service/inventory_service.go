package service

import (
	"context"
	"time"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"
	"fulfillment/internal/util"

	"go.uber.org/zap"
)

// InventoryService exposes the catalog's inventory ledger
type InventoryService struct {
	store  InventoryStore
	logger *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store InventoryStore) *InventoryService {
	return &InventoryService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// GetProduct returns the product snapshot used by carts
func (s *InventoryService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.GetProductByID(ctx, id)
}

// GetInventory returns the counters of one product
func (s *InventoryService) GetInventory(ctx context.Context, productID int64) (*models.InventoryRecord, error) {
	return s.store.GetInventory(ctx, productID)
}

// Reserve reserves every item or none of them
func (s *InventoryService) Reserve(ctx context.Context, items []models.LineItem) error {
	ctx, span := util.StartSpan(ctx, "InventoryService.Reserve")
	defer span.End()

	if err := validateItems(items, true); err != nil {
		return err
	}

	start := time.Now()
	err := s.store.Reserve(ctx, items)
	util.InventoryReserveLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		reason := "error"
		switch {
		case apperr.IsCode(err, apperr.CodeInsufficientStock):
			reason = "insufficient_stock"
		case apperr.IsCode(err, apperr.CodeNotFound):
			reason = "not_found"
		}
		util.InventoryReservationsFailed.WithLabelValues(reason).Inc()
		s.logger.Warn("Reservation rejected", zap.String("reason", reason), zap.Error(err))
		return err
	}

	s.logger.Info("Inventory reserved", zap.Int("lines", len(items)))
	return nil
}

// Commit takes reserved items out of stock. A repeated non-empty reference is a no-op.
func (s *InventoryService) Commit(ctx context.Context, reference string, items []models.LineItem) error {
	ctx, span := util.StartSpan(ctx, "InventoryService.Commit")
	defer span.End()

	if err := validateItems(items, true); err != nil {
		return err
	}

	applied, err := s.store.Commit(ctx, reference, items)
	if err != nil {
		util.InventoryCommitsTotal.WithLabelValues("error").Inc()
		return err
	}
	if !applied {
		util.InventoryCommitsTotal.WithLabelValues("duplicate").Inc()
		s.logger.Info("Commit already applied", zap.String("reference", reference))
		return nil
	}

	util.InventoryCommitsTotal.WithLabelValues("applied").Inc()
	s.logger.Info("Inventory committed", zap.String("reference", reference), zap.Int("lines", len(items)))
	return nil
}

// Release hands reserved quantities back
func (s *InventoryService) Release(ctx context.Context, items []models.LineItem) error {
	if err := validateItems(items, true); err != nil {
		return err
	}
	if err := s.store.Release(ctx, items); err != nil {
		return err
	}
	s.logger.Info("Inventory released", zap.Int("lines", len(items)))
	return nil
}

// Restock adds stock; non-positive quantities add nothing but still create the record
func (s *InventoryService) Restock(ctx context.Context, items []models.LineItem) error {
	if err := validateItems(items, false); err != nil {
		return err
	}
	if err := s.store.Restock(ctx, items); err != nil {
		return err
	}
	s.logger.Info("Inventory restocked", zap.Int("lines", len(items)))
	return nil
}

func validateItems(items []models.LineItem, positiveQty bool) error {
	if len(items) == 0 {
		return apperr.New(apperr.CodeInvalidArgument, "items must not be empty")
	}
	for _, it := range items {
		if it.ProductID <= 0 {
			return apperr.Newf(apperr.CodeInvalidArgument, "invalid product_id %d", it.ProductID)
		}
		if positiveQty && it.Qty < 1 {
			return apperr.Newf(apperr.CodeInvalidArgument, "qty for product_id %d must be at least 1", it.ProductID)
		}
	}
	return nil
}
