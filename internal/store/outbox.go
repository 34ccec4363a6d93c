package store

import (
	"context"
	"encoding/json"
	"fmt"

	"fulfillment/internal/models"

	"github.com/jmoiron/sqlx"
)

// MaxOutboxAttempts bounds relay retries of a single row. A row that reaches it stays
// unpublished and holds back the later rows of its partition key until it is repaired.
const MaxOutboxAttempts = 10

func insertOutbox(ctx context.Context, tx *sqlx.Tx, aggregateType string, aggregateID int64, ev models.DomainEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", ev.Envelope().Type, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, event_type, partition_key, payload)
		VALUES ($1, $2, $3, $4, $5)`,
		aggregateType, aggregateID, ev.Envelope().Type, ev.Envelope().PartitionKey(), payload)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// RelayOutbox locks up to limit pending rows of aggregateType, hands each to publish and
// records the outcome. Only the oldest unpublished row of each partition key is eligible,
// so a key's events reach the bus in the order they were written even when one of them
// keeps failing. Rows locked by another relay are skipped.
func (s *Store) RelayOutbox(
	ctx context.Context,
	aggregateType string,
	limit int,
	publish func(context.Context, models.OutboxEvent) error,
) (published int, err error) {
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		var events []models.OutboxEvent
		if err := tx.SelectContext(ctx, &events, `
			SELECT o.id, o.aggregate_type, o.aggregate_id, o.event_type, o.partition_key, o.payload,
			       o.attempts, o.last_error, o.created_at, o.published_at
			FROM outbox o
			WHERE o.aggregate_type = $1 AND o.published_at IS NULL AND o.attempts < $2
			  AND NOT EXISTS (
			      SELECT 1 FROM outbox p
			      WHERE p.aggregate_type = o.aggregate_type
			        AND p.partition_key = o.partition_key
			        AND p.published_at IS NULL
			        AND p.id < o.id)
			ORDER BY o.id
			LIMIT $3
			FOR UPDATE OF o SKIP LOCKED`,
			aggregateType, MaxOutboxAttempts, limit); err != nil {
			return fmt.Errorf("failed to fetch outbox events: %w", err)
		}

		for _, ev := range events {
			if pubErr := publish(ctx, ev); pubErr != nil {
				if _, err := tx.ExecContext(ctx,
					"UPDATE outbox SET attempts = attempts + 1, last_error = $1 WHERE id = $2",
					pubErr.Error(), ev.ID); err != nil {
					return fmt.Errorf("failed to mark outbox event %d failed: %w", ev.ID, err)
				}
				continue
			}

			if _, err := tx.ExecContext(ctx,
				"UPDATE outbox SET published_at = NOW(), last_error = NULL WHERE id = $1", ev.ID); err != nil {
				return fmt.Errorf("failed to mark outbox event %d published: %w", ev.ID, err)
			}
			published++
		}
		return nil
	})
	return published, err
}
