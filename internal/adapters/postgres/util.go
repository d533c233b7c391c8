package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"gorm.io/gorm"
)

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// translate maps gorm sentinels onto domain errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return domain.ErrNotFound
	case isUniqueViolation(err):
		return domain.ErrConflict
	default:
		return err
	}
}

// jsonText encodes v for a jsonb column. A nil slice becomes "[]" and a nil
// map becomes "{}" so the column never holds JSON null.
func jsonText[T any](v T, empty string) string {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return empty
	}
	return string(raw)
}

func fromJSON[T any](raw string) T {
	var out T
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

// updateIfStatus is updateAll guarded by the status the caller read. Zero
// affected rows means the row is gone or another writer moved its status.
func updateIfStatus(ctx context.Context, db *gorm.DB, model, table any, keyColumn string, key any, expected string, omit ...string) error {
	res := db.WithContext(ctx).Model(model).Where("status = ?", expected).Select("*").Omit(omit...).Updates(model)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return staleOrMissing(ctx, db, table, keyColumn, key, expected)
}

func staleOrMissing(ctx context.Context, db *gorm.DB, table any, keyColumn string, key any, expected string) error {
	var count int64
	if err := db.WithContext(ctx).Model(table).Where(keyColumn+" = ?", key).Count(&count).Error; err != nil {
		return translate(err)
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: status is no longer %s", domain.ErrConflict, expected)
}
