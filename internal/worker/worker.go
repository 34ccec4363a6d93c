package worker

import (
	"context"

	"fulfillment/internal/broker"
	"fulfillment/internal/service"
	"fulfillment/internal/util"

	"go.uber.org/zap"
)

// eventSource is the consuming side of the bus
type eventSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// EventWorker feeds bus messages to the callbacks of one service
type EventWorker struct {
	name         string
	consumer     eventSource
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

func newEventWorker(name string, consumer eventSource, eventHandler *broker.EventHandler) *EventWorker {
	return &EventWorker{
		name:         name,
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// NewOrderWorker completes orders on payment.succeeded
func NewOrderWorker(consumer eventSource, saga *service.SagaOrchestrator) *EventWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnPaymentSucceeded(saga.HandlePaymentSucceeded)
	return newEventWorker("order", consumer, eventHandler)
}

// NewShippingWorker keeps shipments in step with orders and payments
func NewShippingWorker(consumer eventSource, shipping *service.ShippingService) *EventWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCreated(shipping.HandleOrderCreated)
	eventHandler.OnPaymentSucceeded(shipping.HandlePaymentSucceeded)
	return newEventWorker("shipping", consumer, eventHandler)
}

// NewNotificationWorker emails customers on every saga event
func NewNotificationWorker(consumer eventSource, notifications *service.NotificationService) *EventWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCreated(notifications.HandleOrderCreated)
	eventHandler.OnPaymentSucceeded(notifications.HandlePaymentSucceeded)
	eventHandler.OnShippingReady(notifications.HandleShippingReady)
	eventHandler.OnShippingDispatched(notifications.HandleShippingDispatched)
	return newEventWorker("notifications", consumer, eventHandler)
}

// Start consumes until ctx is cancelled
func (w *EventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting event worker", zap.String("worker", w.name))
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the consumer
func (w *EventWorker) Stop() error {
	w.logger.Info("Stopping event worker", zap.String("worker", w.name))
	return w.consumer.Close()
}
