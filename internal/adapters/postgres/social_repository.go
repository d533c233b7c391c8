package postgres

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reviewRepository struct {
	db *gorm.DB
}

func (r *reviewRepository) Create(ctx context.Context, review domain.Review) error {
	rec := reviewModel{
		ReviewID:   review.ReviewID,
		SessionID:  review.SessionID,
		CampaignID: review.CampaignID,
		ProductID:  review.ProductID,
		TesterID:   review.TesterID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
	}
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *reviewRepository) list(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]domain.Review, int, error) {
	q := r.db.WithContext(ctx).Model(&reviewModel{}).Where(column+" = ?", id)
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []reviewModel
	if err := q.Order("created_at DESC").Limit(normalizeLimit(limit)).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainReview(row))
	}
	return out, int(total), nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]domain.Review, int, error) {
	return r.list(ctx, "product_id", productID, limit, offset)
}

func (r *reviewRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]domain.Review, int, error) {
	return r.list(ctx, "campaign_id", campaignID, limit, offset)
}

func (r *reviewRepository) ProductSummary(ctx context.Context, productID uuid.UUID) (domain.RatingSummary, error) {
	var avg sql.NullFloat64
	var n int64
	row := r.db.WithContext(ctx).Model(&reviewModel{}).
		Select("AVG(rating)::float8, COUNT(*)").
		Where("product_id = ?", productID).Row()
	if err := row.Scan(&avg, &n); err != nil {
		return domain.RatingSummary{}, err
	}
	if n == 0 {
		return domain.RatingSummary{}, nil
	}
	return domain.RatingSummary{AverageRating: math.Round(avg.Float64*100) / 100, ReviewCount: int(n)}, nil
}

type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) CreateMany(ctx context.Context, rows []domain.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	recs := make([]notificationModel, 0, len(rows))
	for _, n := range rows {
		recs = append(recs, notificationModel{
			NotificationID: n.NotificationID,
			UserID:         n.UserID,
			Type:           string(n.Type),
			Title:          n.Title,
			Body:           n.Body,
			Data:           jsonText(n.Data, "{}"),
			ReadAt:         n.ReadAt,
			CreatedAt:      n.CreatedAt,
		})
	}
	return translate(r.db.WithContext(ctx).CreateInBatches(recs, 500).Error)
}

func (r *notificationRepository) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]domain.Notification, int, error) {
	q := r.db.WithContext(ctx).Model(&notificationModel{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []notificationModel
	if err := q.Order("created_at DESC").Limit(normalizeLimit(limit)).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainNotification(row))
	}
	return out, int(total), nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) error {
	var rec notificationModel
	if err := r.db.WithContext(ctx).Where("notification_id = ? AND user_id = ?", notificationID, userID).Take(&rec).Error; err != nil {
		return translate(err)
	}
	if rec.ReadAt != nil {
		return nil
	}
	return r.db.WithContext(ctx).Model(&notificationModel{}).
		Where("notification_id = ? AND read_at IS NULL", notificationID).
		Update("read_at", at).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	res := r.db.WithContext(ctx).Model(&notificationModel{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	return int(res.RowsAffected), res.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&notificationModel{}).Where("user_id = ? AND read_at IS NULL", userID).Count(&n).Error
	return int(n), err
}

type systemLogRepository struct {
	db *gorm.DB
}

func (r *systemLogRepository) Create(ctx context.Context, row domain.SystemLog) error {
	rec := systemLogModel{
		LogID:     row.LogID,
		Level:     string(row.Level),
		Category:  string(row.Category),
		Message:   row.Message,
		UserID:    row.UserID,
		Metadata:  jsonText(row.Metadata, "{}"),
		CreatedAt: row.CreatedAt,
	}
	if rec.LogID == uuid.Nil {
		rec.LogID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *systemLogRepository) List(ctx context.Context, filter ports.SystemLogFilter) ([]domain.SystemLog, int, error) {
	q := r.db.WithContext(ctx).Model(&systemLogModel{})
	if filter.Level != "" {
		q = q.Where("level = ?", string(filter.Level))
	}
	if filter.Category != "" {
		q = q.Where("category = ?", string(filter.Category))
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []systemLogModel
	if err := q.Order("created_at DESC").Limit(normalizeLimit(filter.Limit)).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.SystemLog, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSystemLog(row))
	}
	return out, int(total), nil
}

func (r *systemLogRepository) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", before).Delete(&systemLogModel{})
	return res.RowsAffected, res.Error
}

var (
	_ ports.ReviewRepository       = (*reviewRepository)(nil)
	_ ports.NotificationRepository = (*notificationRepository)(nil)
	_ ports.SystemLogRepository    = (*systemLogRepository)(nil)
)
