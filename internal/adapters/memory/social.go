package memory

import (
	"context"
	"maps"
	"math"
	"sync"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
)

type ReviewRepository struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]domain.Review
	bySession map[uuid.UUID]uuid.UUID
	order     []uuid.UUID
}

// Create allows one review per session.
func (r *ReviewRepository) Create(_ context.Context, review domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySession[review.SessionID]; ok {
		return domain.ErrConflict
	}
	r.records[review.ReviewID] = review
	r.bySession[review.SessionID] = review.ReviewID
	r.order = append(r.order, review.ReviewID)
	return nil
}

func (r *ReviewRepository) list(match func(domain.Review) bool, limit, offset int) ([]domain.Review, int) {
	out := make([]domain.Review, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		row := r.records[r.order[i]]
		if match(row) {
			out = append(out, row)
		}
	}
	return paginate(out, limit, offset), len(out)
}

func (r *ReviewRepository) ListByProduct(_ context.Context, productID uuid.UUID, limit, offset int) ([]domain.Review, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, total := r.list(func(row domain.Review) bool { return row.ProductID == productID }, limit, offset)
	return items, total, nil
}

func (r *ReviewRepository) ListByCampaign(_ context.Context, campaignID uuid.UUID, limit, offset int) ([]domain.Review, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, total := r.list(func(row domain.Review) bool { return row.CampaignID == campaignID }, limit, offset)
	return items, total, nil
}

func (r *ReviewRepository) ProductSummary(_ context.Context, productID uuid.UUID) (domain.RatingSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum, n := 0, 0
	for _, row := range r.records {
		if row.ProductID == productID {
			sum += row.Rating
			n++
		}
	}
	if n == 0 {
		return domain.RatingSummary{}, nil
	}
	avg := math.Round(float64(sum)/float64(n)*100) / 100
	return domain.RatingSummary{AverageRating: avg, ReviewCount: n}, nil
}

type NotificationRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.Notification
	order   []uuid.UUID
}

func (r *NotificationRepository) CreateMany(_ context.Context, rows []domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		if _, ok := r.records[row.NotificationID]; ok {
			return domain.ErrConflict
		}
	}
	for _, row := range rows {
		row.Data = maps.Clone(row.Data)
		r.records[row.NotificationID] = row
		r.order = append(r.order, row.NotificationID)
	}
	return nil
}

func (r *NotificationRepository) List(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]domain.Notification, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Notification, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		row := r.records[r.order[i]]
		if row.UserID != userID || (unreadOnly && row.ReadAt != nil) {
			continue
		}
		out = append(out, row)
	}
	return paginate(out, limit, offset), len(out), nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, userID, notificationID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.records[notificationID]
	if !ok || row.UserID != userID {
		return domain.ErrNotFound
	}
	if row.ReadAt == nil {
		row.ReadAt = &at
		r.records[notificationID] = row
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(_ context.Context, userID uuid.UUID, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, row := range r.records {
		if row.UserID != userID || row.ReadAt != nil {
			continue
		}
		readAt := at
		row.ReadAt = &readAt
		r.records[id] = row
		n++
	}
	return n, nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, row := range r.records {
		if row.UserID == userID && row.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

type SystemLogRepository struct {
	mu   sync.RWMutex
	rows []domain.SystemLog
}

func (r *SystemLogRepository) Create(_ context.Context, row domain.SystemLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row.Metadata = maps.Clone(row.Metadata)
	r.rows = append(r.rows, row)
	return nil
}

func (r *SystemLogRepository) List(_ context.Context, filter ports.SystemLogFilter) ([]domain.SystemLog, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SystemLog, 0)
	for i := len(r.rows) - 1; i >= 0; i-- {
		row := r.rows[i]
		if filter.Level != "" && row.Level != filter.Level {
			continue
		}
		if filter.Category != "" && row.Category != filter.Category {
			continue
		}
		if filter.UserID != nil && (row.UserID == nil || *row.UserID != *filter.UserID) {
			continue
		}
		if filter.From != nil && row.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && row.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, row)
	}
	return paginate(out, filter.Limit, filter.Offset), len(out), nil
}

func (r *SystemLogRepository) PurgeBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	var removed int64
	for _, row := range r.rows {
		if row.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return removed, nil
}
