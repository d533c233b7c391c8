package postgres

import (
	"context"
	"errors"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var openDisputeStatuses = []string{string(domain.DisputeStatusOpen), string(domain.DisputeStatusInReview)}

type disputeRepository struct {
	db *gorm.DB
}

func (r *disputeRepository) Create(ctx context.Context, dispute domain.Dispute) error {
	rec := toDisputeModel(dispute)
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *disputeRepository) Update(ctx context.Context, dispute domain.Dispute, expected domain.DisputeStatus) error {
	rec := toDisputeModel(dispute)
	return updateIfStatus(ctx, r.db, &rec, &disputeModel{}, "dispute_id", rec.DisputeID, string(expected), "dispute_id", "session_id", "created_at")
}

func (r *disputeRepository) GetByID(ctx context.Context, disputeID uuid.UUID) (domain.Dispute, error) {
	var rec disputeModel
	if err := r.db.WithContext(ctx).Where("dispute_id = ?", disputeID).Take(&rec).Error; err != nil {
		return domain.Dispute{}, translate(err)
	}
	return toDomainDispute(rec), nil
}

func (r *disputeRepository) GetOpenBySession(ctx context.Context, sessionID uuid.UUID) (domain.Dispute, error) {
	var rec disputeModel
	err := r.db.WithContext(ctx).Where("session_id = ? AND status IN ?", sessionID, openDisputeStatuses).Take(&rec).Error
	if err != nil {
		return domain.Dispute{}, translate(err)
	}
	return toDomainDispute(rec), nil
}

func (r *disputeRepository) List(ctx context.Context, filter ports.DisputeFilter) ([]domain.Dispute, int, error) {
	q := r.db.WithContext(ctx).Model(&disputeModel{})
	if filter.UserID != nil {
		q = q.Where("(tester_id = ? OR seller_id = ?)", *filter.UserID, *filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []disputeModel
	if err := q.Order("created_at DESC").Limit(normalizeLimit(filter.Limit)).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Dispute, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainDispute(row))
	}
	return out, int(total), nil
}

func (r *disputeRepository) CountOpen(ctx context.Context) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&disputeModel{}).Where("status IN ?", openDisputeStatuses).Count(&n).Error
	return int(n), err
}

func (r *disputeRepository) CreateMessage(ctx context.Context, msg domain.DisputeMessage) error {
	rec := disputeMessageModel{
		MessageID:      msg.MessageID,
		DisputeID:      msg.DisputeID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		AttachmentURLs: jsonText(msg.AttachmentURLs, "[]"),
		CreatedAt:      msg.CreatedAt,
	}
	err := r.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return domain.ErrNotFound
	}
	return translate(err)
}

func (r *disputeRepository) ListMessages(ctx context.Context, disputeID uuid.UUID) ([]domain.DisputeMessage, error) {
	var rows []disputeMessageModel
	if err := r.db.WithContext(ctx).Where("dispute_id = ?", disputeID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DisputeMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.DisputeMessage{
			MessageID:      row.MessageID,
			DisputeID:      row.DisputeID,
			SenderID:       row.SenderID,
			Body:           row.Body,
			AttachmentURLs: fromJSON[[]string](row.AttachmentURLs),
			CreatedAt:      row.CreatedAt,
		})
	}
	return out, nil
}

func (r *disputeRepository) AppendHistory(ctx context.Context, row domain.DisputeStateHistory) error {
	rec := disputeHistoryModel{
		HistoryID:  row.HistoryID,
		DisputeID:  row.DisputeID,
		FromStatus: string(row.FromStatus),
		ToStatus:   string(row.ToStatus),
		ChangedBy:  row.ChangedBy,
		Reason:     row.Reason,
		ChangedAt:  row.ChangedAt,
	}
	if rec.HistoryID == uuid.Nil {
		rec.HistoryID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *disputeRepository) ListHistory(ctx context.Context, disputeID uuid.UUID) ([]domain.DisputeStateHistory, error) {
	var rows []disputeHistoryModel
	if err := r.db.WithContext(ctx).Where("dispute_id = ?", disputeID).Order("changed_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DisputeStateHistory, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.DisputeStateHistory{
			HistoryID:  row.HistoryID,
			DisputeID:  row.DisputeID,
			FromStatus: domain.DisputeStatus(row.FromStatus),
			ToStatus:   domain.DisputeStatus(row.ToStatus),
			ChangedBy:  row.ChangedBy,
			Reason:     row.Reason,
			ChangedAt:  row.ChangedAt,
		})
	}
	return out, nil
}

var _ ports.DisputeRepository = (*disputeRepository)(nil)
