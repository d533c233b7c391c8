package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
)

type IdempotencyRepository struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	if now.After(rec.ExpiresAt) {
		delete(r.records, key)
		return nil, nil
	}
	clone := rec
	clone.ResponseBody = slices.Clone(rec.ResponseBody)
	return &clone, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[key]; ok && time.Now().UTC().Before(existing.ExpiresAt) {
		return domain.ErrConflict
	}
	r.records[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, Status: "pending", ExpiresAt: expiresAt}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = "completed"
	rec.ResponseCode = responseCode
	rec.ResponseBody = slices.Clone(responseBody)
	if at.After(rec.ExpiresAt) {
		rec.ExpiresAt = at.Add(7 * 24 * time.Hour)
	}
	r.records[key] = rec
	return nil
}

func (r *IdempotencyRepository) Release(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[key]; ok && rec.Status != "completed" {
		delete(r.records, key)
	}
	return nil
}

type dedupRecord struct {
	EventType string
	ExpiresAt time.Time
}

type EventDedupRepository struct {
	mu      sync.Mutex
	records map[string]dedupRecord
}

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[eventID]
	if !ok {
		return false, nil
	}
	if now.After(rec.ExpiresAt) {
		delete(r.records, eventID)
		return false, nil
	}
	return true, nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, eventType string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[eventID] = dedupRecord{EventType: eventType, ExpiresAt: expiresAt}
	return nil
}

type OutboxRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]ports.OutboxRecord
	order   []uuid.UUID
}

func (r *OutboxRepository) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[event.EventID]; ok {
		return domain.ErrConflict
	}
	r.records[event.EventID] = ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      slices.Clone(event.Payload),
		FirstSeenAt:  event.OccurredAt,
	}
	r.order = append(r.order, event.EventID)
	return nil
}

func (r *OutboxRepository) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]ports.OutboxRecord, 0, limit)
	for _, id := range r.order {
		row := r.records[id]
		if row.PublishedAt != nil {
			continue
		}
		out = append(out, row)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.records[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	row.PublishedAt = &at
	r.records[outboxID] = row
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.records[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	row.RetryCount++
	row.LastError = &errMsg
	row.LastErrorAt = &at
	r.records[outboxID] = row
	return nil
}

// Pending counts records the relay has not published yet.
func (r *OutboxRepository) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.records {
		if row.PublishedAt == nil {
			n++
		}
	}
	return n
}
