package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"fulfillment/internal/models"
	"fulfillment/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Topics names the topic of each producing service.
type Topics struct {
	Order    string
	Payment  string
	Shipping string
}

// For returns the topic an event type is published on
func (t Topics) For(eventType models.EventType) (string, error) {
	switch eventType {
	case models.EventTypeOrderCreated:
		return t.Order, nil
	case models.EventTypePaymentSucceeded:
		return t.Payment, nil
	case models.EventTypeShippingReady, models.EventTypeShippingDispatched:
		return t.Shipping, nil
	}
	return "", fmt.Errorf("no topic for event type %q", eventType)
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
	topics   Topics
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer, topics Topics) *EventPublisher {
	return &EventPublisher{producer: producer, topics: topics}
}

// Publish writes ev keyed by its order ID
func (ep *EventPublisher) Publish(ctx context.Context, ev models.DomainEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	env := ev.Envelope()
	return ep.publish(ctx, env.Type, env.PartitionKey(), payload)
}

// PublishOutbox relays a stored outbox row
func (ep *EventPublisher) PublishOutbox(ctx context.Context, ev models.OutboxEvent) error {
	return ep.publish(ctx, ev.EventType, ev.PartitionKey, ev.Payload)
}

func (ep *EventPublisher) publish(ctx context.Context, eventType models.EventType, key string, payload []byte) error {
	topic, err := ep.topics.For(eventType)
	if err != nil {
		return err
	}
	if err := ep.producer.Publish(ctx, topic, key, payload); err != nil {
		return err
	}

	util.EventsPublishedTotal.WithLabelValues(string(eventType)).Inc()
	util.GetLogger().Debug("Published event",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.String("type", string(eventType)))
	return nil
}

// EventHandler routes decoded events to the callbacks registered for their type
type EventHandler struct {
	onOrderCreated       func(context.Context, *models.OrderCreated) error
	onPaymentSucceeded   func(context.Context, *models.PaymentSucceeded) error
	onShippingReady      func(context.Context, *models.ShippingReady) error
	onShippingDispatched func(context.Context, *models.ShippingDispatched) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

func (eh *EventHandler) OnOrderCreated(handler func(context.Context, *models.OrderCreated) error) {
	eh.onOrderCreated = handler
}

func (eh *EventHandler) OnPaymentSucceeded(handler func(context.Context, *models.PaymentSucceeded) error) {
	eh.onPaymentSucceeded = handler
}

func (eh *EventHandler) OnShippingReady(handler func(context.Context, *models.ShippingReady) error) {
	eh.onShippingReady = handler
}

func (eh *EventHandler) OnShippingDispatched(handler func(context.Context, *models.ShippingDispatched) error) {
	eh.onShippingDispatched = handler
}

// HandleMessage decodes a bus message and dispatches it
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	ev, err := models.DecodeEvent(msg.Value)
	if err != nil {
		util.EventsConsumedTotal.WithLabelValues("unknown", "undecodable").Inc()
		return fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	ctx, span := util.StartSpan(ctx, "EventHandler."+string(ev.Envelope().Type))
	defer span.End()

	handled, err := eh.Dispatch(ctx, ev)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
		span.RecordError(err)
	case !handled:
		outcome = "ignored"
	}
	util.EventsConsumedTotal.WithLabelValues(string(ev.Envelope().Type), outcome).Inc()
	return err
}

// Dispatch calls the callback registered for the concrete type of ev. handled is false
// when no callback is registered for it.
func (eh *EventHandler) Dispatch(ctx context.Context, ev models.DomainEvent) (handled bool, err error) {
	switch e := ev.(type) {
	case *models.OrderCreated:
		if eh.onOrderCreated != nil {
			return true, eh.onOrderCreated(ctx, e)
		}
	case *models.PaymentSucceeded:
		if eh.onPaymentSucceeded != nil {
			return true, eh.onPaymentSucceeded(ctx, e)
		}
	case *models.ShippingReady:
		if eh.onShippingReady != nil {
			return true, eh.onShippingReady(ctx, e)
		}
	case *models.ShippingDispatched:
		if eh.onShippingDispatched != nil {
			return true, eh.onShippingDispatched(ctx, e)
		}
	default:
		return false, fmt.Errorf("%w: unsupported event %T", ErrUndecodable, ev)
	}
	return false, nil
}
