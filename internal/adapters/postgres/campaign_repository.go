package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type campaignRepository struct {
	db *gorm.DB
}

func (r *campaignRepository) Create(ctx context.Context, campaign domain.Campaign) error {
	rec := toCampaignModel(campaign)
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

// Update rewrites the campaign. The slot counter is only taken from the
// caller while the stored row is still a draft; afterwards it belongs to
// ReserveSlot and ReleaseSlot.
func (r *campaignRepository) Update(ctx context.Context, campaign domain.Campaign, expected domain.CampaignStatus) error {
	rec := toCampaignModel(campaign)
	res := r.db.WithContext(ctx).Model(&campaignModel{}).
		Where("campaign_id = ? AND status = ?", rec.CampaignID, string(expected)).
		Updates(map[string]any{
			"category_id":              rec.CategoryID,
			"title":                    rec.Title,
			"description":              rec.Description,
			"start_date":               rec.StartDate,
			"end_date":                 rec.EndDate,
			"total_slots":              rec.TotalSlots,
			"available_slots":          gorm.Expr("CASE WHEN status = ? THEN ? ELSE available_slots END", string(domain.CampaignStatusDraft), rec.AvailableSlots),
			"auto_accept_applications": rec.AutoAcceptApplications,
			"status":                   rec.Status,
			"offers":                   rec.Offers,
			"procedure":                rec.Procedure,
			"criteria":                 rec.Criteria,
			"escrow_amount":            rec.EscrowAmount,
			"payment_intent_id":        rec.PaymentIntentID,
			"updated_at":               rec.UpdatedAt,
			"activated_at":             rec.ActivatedAt,
			"completed_at":             rec.CompletedAt,
			"cancelled_at":             rec.CancelledAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return staleOrMissing(ctx, r.db, &campaignModel{}, "campaign_id", rec.CampaignID, string(expected))
	}
	return nil
}

func (r *campaignRepository) GetByID(ctx context.Context, campaignID uuid.UUID) (domain.Campaign, error) {
	var rec campaignModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Take(&rec).Error; err != nil {
		return domain.Campaign{}, translate(err)
	}
	return toDomainCampaign(rec), nil
}

func (r *campaignRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (domain.Campaign, error) {
	if paymentIntentID == "" {
		return domain.Campaign{}, domain.ErrNotFound
	}
	var rec campaignModel
	if err := r.db.WithContext(ctx).Where("payment_intent_id = ?", paymentIntentID).Take(&rec).Error; err != nil {
		return domain.Campaign{}, translate(err)
	}
	return toDomainCampaign(rec), nil
}

func (r *campaignRepository) List(ctx context.Context, filter ports.CampaignFilter) ([]domain.Campaign, int, error) {
	q := r.db.WithContext(ctx).Model(&campaignModel{})
	if filter.SellerID != nil {
		q = q.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where("(lower(title) LIKE ? OR lower(description) LIKE ?)", like, like)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []campaignModel
	if err := q.Order("created_at DESC").Limit(normalizeLimit(filter.Limit)).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Campaign, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainCampaign(row))
	}
	return out, int(total), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ReserveSlot decrements the counter with a guarded UPDATE so concurrent
// applications can never oversell a campaign.
func (r *campaignRepository) ReserveSlot(ctx context.Context, campaignID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&campaignModel{}).
		Where("campaign_id = ? AND available_slots > 0", campaignID).
		Updates(map[string]any{
			"available_slots": gorm.Expr("available_slots - 1"),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, campaignID); err != nil {
		return err
	}
	return domain.ErrNoSlotsAvailable
}

func (r *campaignRepository) ReleaseSlot(ctx context.Context, campaignID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&campaignModel{}).
		Where("campaign_id = ?", campaignID).
		Updates(map[string]any{
			"available_slots": gorm.Expr("LEAST(available_slots + 1, total_slots)"),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *campaignRepository) ListEndedActive(ctx context.Context, now time.Time, limit int) ([]domain.Campaign, error) {
	var rows []campaignModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", string(domain.CampaignStatusActive), now).
		Order("end_date ASC").Limit(normalizeLimit(limit)).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Campaign, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainCampaign(row))
	}
	return out, nil
}

func (r *campaignRepository) CountByStatus(ctx context.Context) (map[domain.CampaignStatus]int, error) {
	var rows []groupCount
	if err := r.db.WithContext(ctx).Model(&campaignModel{}).Select("status AS key, count(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.CampaignStatus]int, len(rows))
	for _, row := range rows {
		out[domain.CampaignStatus(row.Key)] = int(row.N)
	}
	return out, nil
}

func (r *campaignRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&campaignModel{}).Where("category_id = ?", categoryID).Count(&n).Error
	return int(n), err
}

var _ ports.CampaignRepository = (*campaignRepository)(nil)
