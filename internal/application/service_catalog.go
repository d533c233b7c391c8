package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
)

func (s *Service) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	return s.categories.List(ctx, activeOnly)
}

func (s *Service) GetCategory(ctx context.Context, categoryID uuid.UUID) (domain.Category, error) {
	return s.categories.GetByID(ctx, categoryID)
}

func (s *Service) CreateCategory(ctx context.Context, actor Actor, input CategoryInput) (domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Category{}, err
	}
	name := strings.TrimSpace(input.Name)
	if err := domain.ValidateText("name", name, 2, 80); err != nil {
		return domain.Category{}, err
	}
	slug := domain.Slugify(name)
	if slug == "" {
		return domain.Category{}, fmt.Errorf("%w: name must contain letters or digits", domain.ErrInvalidInput)
	}
	now := s.nowFn()
	category := domain.Category{
		CategoryID:  uuid.New(),
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Icon:        strings.TrimSpace(input.Icon),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return domain.Category{}, err
	}
	s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryAdmin, "category created", uuidPtr(actor.UserID), map[string]string{"slug": slug})
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, actor Actor, categoryID uuid.UUID, input CategoryInput) (domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Category{}, err
	}
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return domain.Category{}, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		if err := domain.ValidateText("name", name, 2, 80); err != nil {
			return domain.Category{}, err
		}
		category.Name = name
		category.Slug = domain.Slugify(name)
	}
	if input.Description != "" {
		category.Description = strings.TrimSpace(input.Description)
	}
	if input.Icon != "" {
		category.Icon = strings.TrimSpace(input.Icon)
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	category.UpdatedAt = s.nowFn()
	if err := s.categories.Update(ctx, category); err != nil {
		return domain.Category{}, err
	}
	s.invalidateCampaignCache(ctx)
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, actor Actor, categoryID uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return err
	}
	products, err := s.products.CountByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	campaigns, err := s.campaigns.CountByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if products > 0 || campaigns > 0 {
		return fmt.Errorf("%w: category is in use, deactivate it instead", domain.ErrConflict)
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		return err
	}
	s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryAdmin, "category deleted", uuidPtr(actor.UserID), map[string]string{"category_id": categoryID.String()})
	return nil
}

// SeedCategories creates the given categories, skipping names whose slug already exists.
func (s *Service) SeedCategories(ctx context.Context, names []string) (int, error) {
	existing, err := s.categories.List(ctx, false)
	if err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		known[c.Slug] = struct{}{}
	}
	created := 0
	for _, name := range names {
		if _, ok := known[domain.Slugify(name)]; ok {
			continue
		}
		category, err := s.CreateCategory(ctx, SystemActor, CategoryInput{Name: name})
		if err != nil {
			return created, err
		}
		known[category.Slug] = struct{}{}
		created++
	}
	return created, nil
}

func validateProductInput(input ProductInput) error {
	if input.CategoryID == uuid.Nil {
		return fmt.Errorf("%w: category_id is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateText("name", input.Name, 2, 200); err != nil {
		return err
	}
	if err := domain.ValidateText("description", input.Description, 0, 5000); err != nil {
		return err
	}
	if err := domain.ValidateMoney("price", input.Price, false); err != nil {
		return err
	}
	if err := domain.ValidateMoney("shipping_cost", input.ShippingCost, true); err != nil {
		return err
	}
	return domain.ValidateURLs("image_urls", input.ImageURLs, domain.MaxProductImages)
}

func (s *Service) requireActiveCategory(ctx context.Context, categoryID uuid.UUID) error {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: unknown category", domain.ErrInvalidInput)
		}
		return err
	}
	if !category.IsActive {
		return fmt.Errorf("%w: category is inactive", domain.ErrInvalidInput)
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, actor Actor, input ProductInput) (domain.Product, error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return domain.Product{}, err
	}
	if err := validateProductInput(input); err != nil {
		return domain.Product{}, err
	}
	if err := s.requireActiveCategory(ctx, input.CategoryID); err != nil {
		return domain.Product{}, err
	}
	now := s.nowFn()
	product := domain.Product{
		ProductID:    uuid.New(),
		SellerID:     actor.UserID,
		CategoryID:   input.CategoryID,
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		Price:        input.Price.Round(2),
		ShippingCost: input.ShippingCost.Round(2),
		ImageURLs:    cleanStrings(input.ImageURLs),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) ownedProduct(ctx context.Context, actor Actor, productID uuid.UUID) (domain.Product, error) {
	if err := requireRole(actor, domain.RoleSeller, domain.RoleAdmin); err != nil {
		return domain.Product{}, err
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if product.SellerID != actor.UserID && !actor.IsAdmin() {
		return domain.Product{}, domain.ErrForbidden
	}
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, actor Actor, productID uuid.UUID, input ProductInput) (domain.Product, error) {
	product, err := s.ownedProduct(ctx, actor, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if err := validateProductInput(input); err != nil {
		return domain.Product{}, err
	}
	if input.CategoryID != product.CategoryID {
		if err := s.requireActiveCategory(ctx, input.CategoryID); err != nil {
			return domain.Product{}, err
		}
	}
	product.CategoryID = input.CategoryID
	product.Name = strings.TrimSpace(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.Price = input.Price.Round(2)
	product.ShippingCost = input.ShippingCost.Round(2)
	product.ImageURLs = cleanStrings(input.ImageURLs)
	product.UpdatedAt = s.nowFn()
	if err := s.products.Update(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// DeleteProduct deactivates the product. Existing campaigns keep referencing it.
func (s *Service) DeleteProduct(ctx context.Context, actor Actor, productID uuid.UUID) error {
	product, err := s.ownedProduct(ctx, actor, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return nil
	}
	product.IsActive = false
	product.UpdatedAt = s.nowFn()
	return s.products.Update(ctx, product)
}

func (s *Service) ListMyProducts(ctx context.Context, actor Actor, limit, offset int) (Page[domain.Product], error) {
	if err := requireRole(actor, domain.RoleSeller); err != nil {
		return Page[domain.Product]{}, err
	}
	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := s.products.ListBySeller(ctx, actor.UserID, limit, offset)
	if err != nil {
		return Page[domain.Product]{}, err
	}
	return Page[domain.Product]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) GetProduct(ctx context.Context, productID uuid.UUID) (ProductDetail, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return ProductDetail{}, err
	}
	detail := ProductDetail{Product: product}
	if s.reviews != nil {
		summary, err := s.reviews.ProductSummary(ctx, productID)
		if err != nil {
			return ProductDetail{}, err
		}
		detail.Rating = summary
	}
	return detail, nil
}
