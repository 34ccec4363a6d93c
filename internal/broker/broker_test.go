package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

var testTopics = Topics{Order: "order.events", Payment: "payment.events", Shipping: "shipping.events"}

func TestPublishRoutesByEventType(t *testing.T) {
	w := &recordingWriter{}
	ep := NewEventPublisher(&Producer{writer: w}, testTopics)
	ctx := context.Background()

	require.NoError(t, ep.Publish(ctx, models.NewPaymentSucceeded(7, 25998, "USD")))
	require.NoError(t, ep.Publish(ctx, models.NewShippingReady(&models.Shipment{ID: 3, OrderID: 7})))
	require.NoError(t, ep.PublishOutbox(ctx, models.OutboxEvent{
		EventType:    models.EventTypeOrderCreated,
		PartitionKey: "7",
		Payload:      []byte(`{"type":"order.created","order_id":7}`),
	}))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "payment.events", w.msgs[0].Topic)
	assert.Equal(t, "shipping.events", w.msgs[1].Topic)
	assert.Equal(t, "order.events", w.msgs[2].Topic)
	for _, m := range w.msgs {
		assert.Equal(t, "7", string(m.Key))
	}
}

func TestPublishSurfacesWriterErrors(t *testing.T) {
	ep := NewEventPublisher(&Producer{writer: &recordingWriter{err: errors.New("broker down")}}, testTopics)
	err := ep.Publish(context.Background(), models.NewPaymentSucceeded(1, 1, "USD"))
	assert.ErrorContains(t, err, "broker down")

	_, err = testTopics.For("order.exploded")
	assert.Error(t, err)
}

func TestHandleMessageDispatchesTypedCallbacks(t *testing.T) {
	eh := NewEventHandler()
	var gotPayment *models.PaymentSucceeded
	var gotDispatch *models.ShippingDispatched
	eh.OnPaymentSucceeded(func(_ context.Context, e *models.PaymentSucceeded) error {
		gotPayment = e
		return nil
	})
	eh.OnShippingDispatched(func(_ context.Context, e *models.ShippingDispatched) error {
		gotDispatch = e
		return nil
	})
	ctx := context.Background()

	require.NoError(t, eh.HandleMessage(ctx, kafka.Message{
		Value: []byte(`{"type":"payment.succeeded","order_id":5,"amount_cents":100,"currency":"USD"}`),
	}))
	require.NotNil(t, gotPayment)
	assert.Equal(t, int64(5), gotPayment.OrderID)

	require.NoError(t, eh.HandleMessage(ctx, kafka.Message{
		Value: []byte(`{"type":"shipping.dispatched","order_id":5,"tracking_number":"ABCDEF123456"}`),
	}))
	require.NotNil(t, gotDispatch)
	assert.Equal(t, "ABCDEF123456", gotDispatch.TrackingNumber)

	// no callback registered: ignored
	require.NoError(t, eh.HandleMessage(ctx, kafka.Message{
		Value: []byte(`{"type":"shipping.ready","order_id":5}`),
	}))

	err := eh.HandleMessage(ctx, kafka.Message{Value: []byte(`{"type":"nope","order_id":5}`)})
	assert.True(t, errors.Is(err, ErrUndecodable))
}

func TestHandleWithRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := handleWithRetry(ctx, func(context.Context, kafka.Message) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, kafka.Message{}, 3, time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = handleWithRetry(ctx, func(context.Context, kafka.Message) error {
		calls++
		return errors.New("still failing")
	}, kafka.Message{}, 2, time.Millisecond)
	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = handleWithRetry(ctx, func(context.Context, kafka.Message) error {
		calls++
		return ErrUndecodable
	}, kafka.Message{}, 5, time.Millisecond)
	assert.True(t, errors.Is(err, ErrUndecodable))
	assert.Equal(t, 1, calls)
}
