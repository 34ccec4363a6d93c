package service

import (
	"context"
	"fmt"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"
	"fulfillment/internal/util"

	"go.uber.org/zap"
)

// SagaOrchestrator completes orders once payment arrives
type SagaOrchestrator struct {
	orders    OrderRepository
	inventory InventoryAPI
	logger    *zap.Logger
}

// NewSagaOrchestrator creates a new saga orchestrator
func NewSagaOrchestrator(orders OrderRepository, inventory InventoryAPI) *SagaOrchestrator {
	return &SagaOrchestrator{
		orders:    orders,
		inventory: inventory,
		logger:    util.GetLogger(),
	}
}

// CommitReference is the ledger reference used when committing an order's stock.
func CommitReference(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

// HandlePaymentSucceeded commits the order's stock and marks it PAID. Unknown orders are
// dropped and orders past CREATED are left alone, so redelivery is a no-op.
func (so *SagaOrchestrator) HandlePaymentSucceeded(ctx context.Context, event *models.PaymentSucceeded) error {
	ctx, span := util.StartSpan(ctx, "SagaOrchestrator.HandlePaymentSucceeded")
	defer span.End()

	logger := so.logger.With(util.TraceFields(ctx)...).With(
		zap.Int64("order_id", event.OrderID),
		zap.String("event_id", event.EventID))

	order, err := so.orders.GetOrderByID(ctx, event.OrderID)
	if apperr.IsCode(err, apperr.CodeNotFound) {
		logger.Warn("Payment for unknown order, dropping event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}

	if order.Status != models.OrderStatusCreated {
		logger.Info("Order already past CREATED, ignoring payment", zap.String("status", order.Status))
		return nil
	}

	items, err := so.orders.GetOrderItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}

	if err := so.inventory.Commit(ctx, CommitReference(order.ID), models.LineItems(items)); err != nil {
		return fmt.Errorf("failed to commit inventory: %w", err)
	}

	paid, err := so.orders.MarkOrderPaid(ctx, order.ID)
	if err != nil {
		return err
	}
	if !paid {
		logger.Info("Order changed status concurrently, nothing to do")
		return nil
	}

	util.OrdersPaidTotal.Inc()
	logger.Info("Order paid")
	return nil
}
