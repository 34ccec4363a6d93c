package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fulfillment/internal/models"
)

const maxAttempts = 10

// Outbox collects events written alongside aggregate changes.
type Outbox struct {
	mu     sync.Mutex
	nextID int64
	events []models.OutboxEvent
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) add(aggregateType string, aggregateID int64, ev models.DomainEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", ev.Envelope().Type, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	o.events = append(o.events, models.OutboxEvent{
		ID:            o.nextID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     ev.Envelope().Type,
		PartitionKey:  ev.Envelope().PartitionKey(),
		Payload:       payload,
		CreatedAt:     time.Now(),
	})
	return nil
}

// Events returns a copy of every stored row.
func (o *Outbox) Events() []models.OutboxEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.OutboxEvent(nil), o.events...)
}

// RelayOutbox publishes unpublished rows of aggregateType in insertion order. Like the
// Postgres relay, a pass only considers the oldest unpublished row of each partition key.
func (o *Outbox) RelayOutbox(
	ctx context.Context,
	aggregateType string,
	limit int,
	publish func(context.Context, models.OutboxEvent) error,
) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	published := 0
	seen := 0
	waiting := make(map[string]bool)
	for i := range o.events {
		ev := &o.events[i]
		if ev.AggregateType != aggregateType || ev.PublishedAt != nil {
			continue
		}
		if waiting[ev.PartitionKey] {
			continue
		}
		waiting[ev.PartitionKey] = true
		if ev.Attempts >= maxAttempts {
			continue
		}
		if seen == limit {
			break
		}
		seen++

		if err := publish(ctx, *ev); err != nil {
			msg := err.Error()
			ev.Attempts++
			ev.LastError = &msg
			continue
		}
		now := time.Now()
		ev.PublishedAt = &now
		ev.LastError = nil
		published++
	}
	return published, nil
}
