package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/contracts"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
)

const (
	idempotencyStatusCompleted = "completed"
	campaignCachePrefix        = "campaigns:"
)

func hashPayload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// runIdempotent executes fn once per (actor, operation, key). A replay with
// the same payload returns the stored response; a different payload is an
// idempotency conflict.
func runIdempotent[T any](ctx context.Context, s *Service, actor Actor, operation string, request any, fn func() (T, error)) (T, error) {
	var zero T
	rawKey := strings.TrimSpace(actor.IdempotencyKey)
	if s.idempotency == nil || rawKey == "" {
		return fn()
	}
	key := actor.UserID.String() + ":" + operation + ":" + rawKey
	requestHash := hashPayload(request)
	now := s.nowFn()

	existing, err := s.idempotency.Get(ctx, key, now)
	if err != nil {
		return zero, err
	}
	if existing != nil {
		if existing.RequestHash != requestHash {
			return zero, domain.ErrIdempotencyConflict
		}
		if existing.Status != idempotencyStatusCompleted {
			return zero, fmt.Errorf("%w: request with this idempotency key is still in progress", domain.ErrConflict)
		}
		var cached T
		if err := json.Unmarshal(existing.ResponseBody, &cached); err != nil {
			return zero, err
		}
		return cached, nil
	}
	if err := s.idempotency.Reserve(ctx, key, requestHash, now.Add(s.cfg.IdempotencyTTL)); err != nil {
		return zero, fmt.Errorf("%w: %v", domain.ErrIdempotencyConflict, err)
	}

	out, err := fn()
	if err != nil {
		if releaseErr := s.idempotency.Release(ctx, key); releaseErr != nil {
			slog.Default().WarnContext(ctx, "idempotency release failed",
				"module", "application",
				"layer", "service",
				"operation", operation,
				"outcome", "failure",
				"error", releaseErr,
			)
		}
		return zero, err
	}
	body, err := json.Marshal(out)
	if err != nil {
		return zero, err
	}
	if err := s.idempotency.Complete(ctx, key, 200, body, s.nowFn()); err != nil {
		return zero, err
	}
	return out, nil
}

func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKeyPath, partitionKey string, data any) error {
	if s.outbox == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	occurredAt := s.nowFn()
	eventID := uuid.New()
	envelope := contracts.EventEnvelope{
		EventID:          eventID.String(),
		EventType:        eventType,
		EventClass:       domain.EventClassDomain,
		OccurredAt:       occurredAt,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		SourceService:    s.cfg.ServiceName,
		SchemaVersion:    "1.0",
		Data:             raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:          eventID,
		EventType:        eventType,
		PartitionKey:     partitionKey,
		PartitionKeyPath: partitionKeyPath,
		Payload:          payload,
		OccurredAt:       occurredAt,
		SchemaVersion:    "1.0",
	})
}

// emit enqueues an event and only logs a failure: the state change it
// describes has already been persisted.
func (s *Service) emit(ctx context.Context, eventType, partitionKeyPath, partitionKey string, data any) {
	if err := s.enqueueEvent(ctx, eventType, partitionKeyPath, partitionKey, data); err != nil {
		slog.Default().ErrorContext(ctx, "outbox enqueue failed",
			"module", "application",
			"layer", "service",
			"operation", "enqueue_event",
			"outcome", "failure",
			"event_type", eventType,
			"error", err,
		)
	}
}

func (s *Service) recordLog(ctx context.Context, level domain.LogLevel, category domain.LogCategory, message string, userID *uuid.UUID, meta map[string]string) {
	if s.systemLogs == nil {
		return
	}
	row := domain.SystemLog{
		LogID:     uuid.New(),
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    userID,
		Metadata:  meta,
		CreatedAt: s.nowFn(),
	}
	if err := s.systemLogs.Create(ctx, row); err != nil {
		slog.Default().WarnContext(ctx, "system log write failed",
			"module", "application",
			"layer", "service",
			"operation", "record_log",
			"outcome", "failure",
			"error", err,
		)
	}
}

func (s *Service) invalidateCampaignCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.DeletePrefix(ctx, campaignCachePrefix)
}

func requireRole(actor Actor, roles ...domain.Role) error {
	if actor.UserID == uuid.Nil && actor.Role != domain.RoleAdmin {
		return domain.ErrUnauthorized
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: requires role %v", domain.ErrForbidden, roles)
}

func requireAdmin(actor Actor) error {
	return requireRole(actor, domain.RoleAdmin)
}

// parseDate accepts YYYY-MM-DD or RFC3339.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", domain.ErrInvalidInput, raw)
	}
	t = t.UTC()
	return &t, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
