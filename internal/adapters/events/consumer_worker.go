package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
)

type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// EventHandler applies one platform event. partitionKey is the broker message
// key the event was published under. The application service implements it.
type EventHandler interface {
	HandleDomainEvent(ctx context.Context, eventType, partitionKey string, payload []byte) error
}

type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	handler  EventHandler
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, handler EventHandler, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, handler: handler, interval: interval,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.ProcessOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
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

// ProcessOnce drains one poll. Handler failures are logged and skipped so a
// poison message never blocks the partition.
func (w *ConsumerWorker) ProcessOnce(ctx context.Context) (int, error) {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return 0, err
	}
	handled := 0
	for _, msg := range msgs {
		if err := w.handler.HandleDomainEvent(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			level := slog.LevelWarn
			if !errors.Is(err, domain.ErrInvalidInput) {
				level = slog.LevelError
			}
			w.logger.Log(ctx, level, "event handling failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "handle_event",
				"outcome", "failure",
				"topic", msg.Topic,
				"partition_key", msg.Key,
				"error", err,
			)
			continue
		}
		handled++
	}
	return handled, nil
}
