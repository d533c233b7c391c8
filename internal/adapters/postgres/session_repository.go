package postgres

import (
	"context"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var openSessionStatuses = []string{
	string(domain.SessionStatusPending),
	string(domain.SessionStatusAccepted),
	string(domain.SessionStatusInProgress),
	string(domain.SessionStatusSubmitted),
	string(domain.SessionStatusDisputed),
}

type sessionRepository struct {
	db *gorm.DB
}

// Create relies on ux_sessions_open_per_tester to reject a second open
// session for the same tester and campaign.
func (r *sessionRepository) Create(ctx context.Context, session domain.Session) error {
	rec := toSessionModel(session)
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *sessionRepository) Update(ctx context.Context, session domain.Session, expected domain.SessionStatus) error {
	rec := toSessionModel(session)
	return updateIfStatus(ctx, r.db, &rec, &sessionModel{}, "session_id", rec.SessionID, string(expected), "session_id", "campaign_id", "tester_id", "seller_id", "applied_at")
}

func (r *sessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error) {
	var rec sessionModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&rec).Error; err != nil {
		return domain.Session{}, translate(err)
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) FindOpen(ctx context.Context, campaignID, testerID uuid.UUID) (domain.Session, error) {
	var rec sessionModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND tester_id = ? AND status IN ?", campaignID, testerID, openSessionStatuses).
		Take(&rec).Error
	if err != nil {
		return domain.Session{}, translate(err)
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) List(ctx context.Context, filter ports.SessionFilter) ([]domain.Session, int, error) {
	q := r.db.WithContext(ctx).Model(&sessionModel{})
	if filter.TesterID != nil {
		q = q.Where("tester_id = ?", *filter.TesterID)
	}
	if filter.SellerID != nil {
		q = q.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.CampaignID != nil {
		q = q.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []sessionModel
	if err := q.Order("applied_at DESC").Limit(normalizeLimit(filter.Limit)).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSession(row))
	}
	return out, int(total), nil
}

func (r *sessionRepository) ListStalePending(ctx context.Context, appliedBefore time.Time, limit int) ([]domain.Session, error) {
	var rows []sessionModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND applied_at < ?", string(domain.SessionStatusPending), appliedBefore).
		Order("applied_at ASC").Limit(normalizeLimit(limit)).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSession(row))
	}
	return out, nil
}

func (r *sessionRepository) CountByCampaign(ctx context.Context, campaignID uuid.UUID, statuses ...domain.SessionStatus) (int, error) {
	q := r.db.WithContext(ctx).Model(&sessionModel{}).Where("campaign_id = ?", campaignID)
	if len(statuses) > 0 {
		raw := make([]string, 0, len(statuses))
		for _, s := range statuses {
			raw = append(raw, string(s))
		}
		q = q.Where("status IN ?", raw)
	}
	var n int64
	err := q.Count(&n).Error
	return int(n), err
}

func (r *sessionRepository) TesterStats(ctx context.Context, testerID uuid.UUID) (domain.TesterStats, error) {
	var row struct {
		Completed   int64
		RatingCount int64
		RatingSum   int64
	}
	err := r.db.WithContext(ctx).Model(&sessionModel{}).
		Select("count(*) AS completed, count(seller_rating) AS rating_count, coalesce(sum(seller_rating), 0) AS rating_sum").
		Where("tester_id = ? AND completed_at IS NOT NULL", testerID).
		Scan(&row).Error
	if err != nil {
		return domain.TesterStats{}, err
	}
	return domain.TesterStats{
		CompletedSessions: int(row.Completed),
		RatingCount:       int(row.RatingCount),
		RatingSum:         int(row.RatingSum),
	}, nil
}

func (r *sessionRepository) CountByStatus(ctx context.Context) (map[domain.SessionStatus]int, error) {
	var rows []groupCount
	if err := r.db.WithContext(ctx).Model(&sessionModel{}).Select("status AS key, count(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.SessionStatus]int, len(rows))
	for _, row := range rows {
		out[domain.SessionStatus(row.Key)] = int(row.N)
	}
	return out, nil
}

func (r *sessionRepository) AppendHistory(ctx context.Context, row domain.SessionStateHistory) error {
	rec := sessionHistoryModel{
		HistoryID:  row.HistoryID,
		SessionID:  row.SessionID,
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

func (r *sessionRepository) ListHistory(ctx context.Context, sessionID uuid.UUID) ([]domain.SessionStateHistory, error) {
	var rows []sessionHistoryModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("changed_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.SessionStateHistory, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.SessionStateHistory{
			HistoryID:  row.HistoryID,
			SessionID:  row.SessionID,
			FromStatus: domain.SessionStatus(row.FromStatus),
			ToStatus:   domain.SessionStatus(row.ToStatus),
			ChangedBy:  row.ChangedBy,
			Reason:     row.Reason,
			ChangedAt:  row.ChangedAt,
		})
	}
	return out, nil
}

type bonusTaskRepository struct {
	db *gorm.DB
}

func (r *bonusTaskRepository) Create(ctx context.Context, task domain.BonusTask) error {
	rec := toBonusTaskModel(task)
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *bonusTaskRepository) Update(ctx context.Context, task domain.BonusTask, expected domain.BonusTaskStatus) error {
	rec := toBonusTaskModel(task)
	return updateIfStatus(ctx, r.db, &rec, &bonusTaskModel{}, "task_id", rec.TaskID, string(expected), "task_id", "session_id", "created_at")
}

func (r *bonusTaskRepository) GetByID(ctx context.Context, taskID uuid.UUID) (domain.BonusTask, error) {
	var rec bonusTaskModel
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Take(&rec).Error; err != nil {
		return domain.BonusTask{}, translate(err)
	}
	return toDomainBonusTask(rec), nil
}

func (r *bonusTaskRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.BonusTask, error) {
	var rows []bonusTaskModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.BonusTask, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainBonusTask(row))
	}
	return out, nil
}

var (
	_ ports.SessionRepository   = (*sessionRepository)(nil)
	_ ports.BonusTaskRepository = (*bonusTaskRepository)(nil)
)
