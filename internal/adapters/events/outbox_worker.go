package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
)

// OutboxWorker relays outbox records to the publisher. A failed record keeps
// its place and is retried on the next tick.
type OutboxWorker struct {
	logger    *slog.Logger
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	interval  time.Duration
	batchSize int
	nowFn     func() time.Time
}

func NewOutboxWorker(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, interval time.Duration, batchSize int) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxWorker{
		logger: logger, outbox: outbox, publisher: publisher, interval: interval, batchSize: batchSize,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.ProcessOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessOnce publishes one batch and returns how many records went out.
func (w *OutboxWorker) ProcessOnce(ctx context.Context) (int, error) {
	records, err := w.outbox.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	published, failed := 0, 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		now := w.nowFn()
		if err := w.publisher.Publish(ctx, rec.EventType, rec.Payload, rec.PartitionKey); err != nil {
			failed++
			w.logger.WarnContext(ctx, "outbox publish failed; retry scheduled",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "publish_event",
				"outcome", "failure",
				"outbox_id", rec.OutboxID,
				"event_type", rec.EventType,
				"retry_count", rec.RetryCount+1,
				"error", err,
			)
			if markErr := w.outbox.MarkFailed(ctx, rec.OutboxID, err.Error(), now); markErr != nil {
				return published, markErr
			}
			continue
		}
		if err := w.outbox.MarkPublished(ctx, rec.OutboxID, now); err != nil {
			return published, err
		}
		published++
	}
	if len(records) > 0 {
		w.logger.InfoContext(ctx, "outbox batch processed",
			"module", "events.outbox_worker",
			"layer", "adapter",
			"operation", "process_once",
			"outcome", "success",
			"batch_size", len(records),
			"published_count", published,
			"failed_count", failed,
		)
	}
	return published, nil
}
