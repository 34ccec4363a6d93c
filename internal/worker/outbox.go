package worker

import (
	"context"
	"time"

	"fulfillment/internal/models"
	"fulfillment/internal/util"

	"go.uber.org/zap"
)

// OutboxRelay hands pending outbox rows to publish
type OutboxRelay interface {
	RelayOutbox(ctx context.Context, aggregateType string, limit int, publish func(context.Context, models.OutboxEvent) error) (int, error)
}

// OutboxPublisher writes a stored event to the bus
type OutboxPublisher interface {
	PublishOutbox(ctx context.Context, ev models.OutboxEvent) error
}

// OutboxWorker periodically relays the outbox rows of one aggregate type
type OutboxWorker struct {
	relay         OutboxRelay
	publisher     OutboxPublisher
	aggregateType string
	interval      time.Duration
	batch         int
	logger        *zap.Logger
}

func NewOutboxWorker(relay OutboxRelay, publisher OutboxPublisher, aggregateType string, interval time.Duration, batch int) *OutboxWorker {
	return &OutboxWorker{
		relay:         relay,
		publisher:     publisher,
		aggregateType: aggregateType,
		interval:      interval,
		batch:         batch,
		logger:        util.GetLogger(),
	}
}

// Start relays every interval until ctx is cancelled
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting outbox relay",
		zap.String("aggregate_type", w.aggregateType),
		zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Outbox relay stopped", zap.String("aggregate_type", w.aggregateType))
			return ctx.Err()
		case <-ticker.C:
			w.RelayOnce(ctx)
		}
	}
}

// RelayOnce relays batches until one comes back short, returning the rows handled
func (w *OutboxWorker) RelayOnce(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := w.relay.RelayOutbox(ctx, w.aggregateType, w.batch, w.publish)
		if err != nil {
			w.logger.Error("Outbox relay failed", zap.String("aggregate_type", w.aggregateType), zap.Error(err))
			return total
		}
		total += n
		if n < w.batch {
			return total
		}
	}
	return total
}

func (w *OutboxWorker) publish(ctx context.Context, ev models.OutboxEvent) error {
	ctx, span := util.StartSpan(ctx, "OutboxWorker.publish")
	defer span.End()

	if err := w.publisher.PublishOutbox(ctx, ev); err != nil {
		util.OutboxPublishFailedTotal.Inc()
		fields := append(util.TraceFields(ctx),
			zap.Int64("outbox_id", ev.ID),
			zap.String("type", string(ev.EventType)),
			zap.Int("attempts", ev.Attempts+1),
			zap.Error(err))
		w.logger.Warn("Outbox publish failed", fields...)
		return err
	}
	return nil
}
