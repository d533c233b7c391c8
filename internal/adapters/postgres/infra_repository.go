package postgres

import (
	"context"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, event ports.OutboxEvent) error {
	rec := outboxModel{
		OutboxID:         event.EventID,
		EventType:        event.EventType,
		PartitionKey:     event.PartitionKey,
		PartitionKeyPath: event.PartitionKeyPath,
		Payload:          string(event.Payload),
		SchemaVersion:    event.SchemaVersion,
		TraceID:          event.TraceID,
		CreatedAt:        event.OccurredAt,
		FirstSeenAt:      event.OccurredAt,
	}
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *outboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).Where("published_at IS NULL").Order("created_at ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toOutboxRecord(row))
	}
	return out, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&outboxModel{}).Where("outbox_id = ?", outboxID).Update("published_at", at).Error
}

func (r *outboxRepository) MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&outboxModel{}).Where("outbox_id = ?", outboxID).Updates(map[string]any{
		"retry_count":   gorm.Expr("retry_count + 1"),
		"last_error":    errMsg,
		"last_error_at": at,
	}).Error
}

type eventDedupRepository struct {
	db *gorm.DB
}

func (r *eventDedupRepository) IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&eventDedupModel{}).
		Where("event_id = ? AND expires_at > ?", eventID, now).
		Count(&count).Error
	return count > 0, err
}

func (r *eventDedupRepository) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	rec := eventDedupModel{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	return r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Assign(map[string]any{
			"event_type":   eventType,
			"processed_at": rec.ProcessedAt,
			"expires_at":   expiresAt,
		}).
		FirstOrCreate(&rec).Error
}

type idempotencyRepository struct {
	db *gorm.DB
}

func (r *idempotencyRepository) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	var rec idempotencyModel
	if err := r.db.WithContext(ctx).Where("idempotency_key = ? AND expires_at > ?", key, now).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	out := &ports.IdempotencyRecord{
		Key: rec.IdempotencyKey, RequestHash: rec.RequestHash, Status: rec.Status,
		ResponseCode: rec.ResponseCode, ExpiresAt: rec.ExpiresAt,
	}
	if rec.ResponseBody != nil {
		out.ResponseBody = []byte(*rec.ResponseBody)
	}
	return out, nil
}

// Reserve claims key. An expired row left behind by an earlier request is
// replaced in the same statement.
func (r *idempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Exec(`
INSERT INTO idempotency_keys (idempotency_key, request_hash, status, response_code, expires_at, created_at, updated_at)
VALUES (?, ?, 'pending', 0, ?, ?, ?)
ON CONFLICT (idempotency_key) DO UPDATE
SET request_hash = EXCLUDED.request_hash, status = 'pending', response_code = 0, response_body = NULL,
    expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at
WHERE idempotency_keys.expires_at <= ?`, key, requestHash, expiresAt, now, now, now)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	payload := string(responseBody)
	res := r.db.WithContext(ctx).Model(&idempotencyModel{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{
			"status":        "completed",
			"response_code": responseCode,
			"response_body": payload,
			"expires_at":    gorm.Expr("GREATEST(expires_at, ?)", at.Add(7*24*time.Hour)),
			"updated_at":    at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *idempotencyRepository) Release(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("idempotency_key = ? AND status <> ?", key, "completed").
		Delete(&idempotencyModel{}).Error
}

var (
	_ ports.OutboxRepository      = (*outboxRepository)(nil)
	_ ports.EventDedupRepository  = (*eventDedupRepository)(nil)
	_ ports.IdempotencyRepository = (*idempotencyRepository)(nil)
)
