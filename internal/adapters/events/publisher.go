package events

import (
	"context"
	"log/slog"
)

type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	p.logger.InfoContext(ctx, "event published",
		"module", "events.publisher",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"event_type", eventType,
		"partition_key", partitionKey,
		"payload_bytes", len(payload),
	)
	return nil
}

// DispatchPublisher hands published events straight to an in-process handler.
// It replaces the broker round trip when the worker runs without Kafka.
type DispatchPublisher struct {
	logger  *slog.Logger
	handler EventHandler
	topics  map[string]struct{}
}

func NewDispatchPublisher(logger *slog.Logger, handler EventHandler, topics []string) *DispatchPublisher {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	return &DispatchPublisher{logger: logger, handler: handler, topics: set}
}

func (p *DispatchPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	if _, ok := p.topics[eventType]; !ok {
		p.logger.DebugContext(ctx, "event not dispatched",
			"module", "events.dispatch_publisher",
			"layer", "adapter",
			"operation", "publish",
			"outcome", "skipped",
			"event_type", eventType,
			"partition_key", partitionKey,
		)
		return nil
	}
	return p.handler.HandleDomainEvent(ctx, eventType, partitionKey, payload)
}
