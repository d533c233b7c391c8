package postgres

import (
	"context"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type categoryRepository struct {
	db *gorm.DB
}

func (r *categoryRepository) Create(ctx context.Context, category domain.Category) error {
	rec := toCategoryModel(category)
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *categoryRepository) Update(ctx context.Context, category domain.Category) error {
	rec := toCategoryModel(category)
	return updateAll(ctx, r.db, &rec, "category_id", "created_at")
}

func (r *categoryRepository) Delete(ctx context.Context, categoryID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Delete(&categoryModel{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, categoryID uuid.UUID) (domain.Category, error) {
	var rec categoryModel
	if err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Take(&rec).Error; err != nil {
		return domain.Category{}, translate(err)
	}
	return toDomainCategory(rec), nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	q := r.db.WithContext(ctx).Model(&categoryModel{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []categoryModel
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainCategory(row))
	}
	return out, nil
}

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) error {
	rec := toProductModel(product)
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *productRepository) Update(ctx context.Context, product domain.Product) error {
	rec := toProductModel(product)
	return updateAll(ctx, r.db, &rec, "product_id", "seller_id", "created_at")
}

func (r *productRepository) GetByID(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	var rec productModel
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Take(&rec).Error; err != nil {
		return domain.Product{}, translate(err)
	}
	return toDomainProduct(rec), nil
}

func (r *productRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]domain.Product, int, error) {
	q := r.db.WithContext(ctx).Model(&productModel{}).Where("seller_id = ? AND is_active = ?", sellerID, true)
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []productModel
	if err := q.Order("created_at DESC").Limit(normalizeLimit(limit)).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainProduct(row))
	}
	return out, int(total), nil
}

func (r *productRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&productModel{}).Where("category_id = ?", categoryID).Count(&n).Error
	return int(n), err
}

var (
	_ ports.CategoryRepository = (*categoryRepository)(nil)
	_ ports.ProductRepository  = (*productRepository)(nil)
)
