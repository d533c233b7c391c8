package postgres

import (
	"context"
	"strings"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user domain.User) error {
	rec := toUserModel(user)
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *userRepository) take(ctx context.Context, query string, args ...any) (domain.User, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where(query, args...).Take(&rec).Error; err != nil {
		return domain.User{}, translate(err)
	}
	return toDomainUser(rec), nil
}

func (r *userRepository) GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	return r.take(ctx, "user_id = ?", userID)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.take(ctx, "lower(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) GetByStripeAccount(ctx context.Context, accountID string) (domain.User, error) {
	if accountID == "" {
		return domain.User{}, domain.ErrNotFound
	}
	return r.take(ctx, "stripe_account_id = ?", accountID)
}

func (r *userRepository) Update(ctx context.Context, user domain.User) error {
	rec := toUserModel(user)
	return updateAll(ctx, r.db, &rec, "user_id", "created_at")
}

func (r *userRepository) List(ctx context.Context, filter ports.UserFilter) ([]domain.User, int, error) {
	q := r.db.WithContext(ctx).Model(&userModel{})
	if filter.Role != "" {
		q = q.Where("role = ?", string(filter.Role))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []userModel
	if err := q.Order("created_at DESC").Limit(normalizeLimit(filter.Limit)).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainUser(row))
	}
	return out, int(total), nil
}

// ListEligibleTesters pushes every structured predicate into SQL. The
// custom rule, if any, is applied by the caller.
func (r *userRepository) ListEligibleTesters(ctx context.Context, filter domain.TesterFilter, limit, offset int) ([]domain.User, error) {
	q := r.db.WithContext(ctx).Model(&userModel{}).
		Where("role = ? AND status = ?", string(domain.RoleTester), string(domain.UserStatusActive))
	if filter.BornOnOrBefore != nil {
		q = q.Where("birth_date IS NOT NULL AND birth_date <= ?", *filter.BornOnOrBefore)
	}
	if filter.BornAfter != nil {
		q = q.Where("birth_date IS NOT NULL AND birth_date > ?", *filter.BornAfter)
	}
	if filter.MinRating != nil {
		q = q.Where("average_rating >= ?", *filter.MinRating)
	}
	if filter.MaxRating != nil {
		q = q.Where("average_rating <= ?", *filter.MaxRating)
	}
	if filter.MinCompletedSessions != nil {
		q = q.Where("completed_sessions >= ?", *filter.MinCompletedSessions)
	}
	if filter.Gender != "" {
		q = q.Where("gender = ?", string(filter.Gender))
	}
	if len(filter.Countries) > 0 {
		q = q.Where("upper(country) IN ?", filter.Countries)
	}
	if len(filter.AnyCategories) > 0 {
		ids := make([]string, 0, len(filter.AnyCategories))
		for _, id := range filter.AnyCategories {
			ids = append(ids, id.String())
		}
		q = q.Where("jsonb_exists_any(preferred_categories, string_to_array(?, ','))", strings.Join(ids, ","))
	}
	var rows []userModel
	err := q.Order("average_rating DESC, completed_sessions DESC, user_id ASC").
		Limit(normalizeLimit(limit)).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainUser(row))
	}
	return out, nil
}

func (r *userRepository) ListActiveIDs(ctx context.Context, role domain.Role) ([]uuid.UUID, error) {
	q := r.db.WithContext(ctx).Model(&userModel{}).Where("status = ?", string(domain.UserStatusActive))
	if role != "" {
		q = q.Where("role = ?", string(role))
	}
	var ids []uuid.UUID
	if err := q.Order("created_at ASC").Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userRepository) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	var rows []groupCount
	if err := r.db.WithContext(ctx).Model(&userModel{}).Select("role AS key, count(*) AS n").Group("role").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.Role]int, len(rows))
	for _, row := range rows {
		out[domain.Role(row.Key)] = int(row.N)
	}
	return out, nil
}

type groupCount struct {
	Key string `gorm:"column:key"`
	N   int64  `gorm:"column:n"`
}

// updateAll writes every column of model, including zero values, and
// reports domain.ErrNotFound when no row matched its primary key.
func updateAll(ctx context.Context, db *gorm.DB, model any, omit ...string) error {
	res := db.WithContext(ctx).Model(model).Select("*").Omit(omit...).Updates(model)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ports.UserRepository = (*userRepository)(nil)
