package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
)

// Repositories is the in-process store used by tests and by STORAGE_DRIVER=memory.
type Repositories struct {
	Users         *UserRepository
	Categories    *CategoryRepository
	Products      *ProductRepository
	Campaigns     *CampaignRepository
	Sessions      *SessionRepository
	BonusTasks    *BonusTaskRepository
	Disputes      *DisputeRepository
	Wallets       *WalletRepository
	Withdrawals   *WithdrawalRepository
	Reviews       *ReviewRepository
	Notifications *NotificationRepository
	SystemLogs    *SystemLogRepository
	Outbox        *OutboxRepository
	EventDedup    *EventDedupRepository
	Idempotency   *IdempotencyRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Users:         &UserRepository{records: map[uuid.UUID]domain.User{}, byEmail: map[string]uuid.UUID{}},
		Categories:    &CategoryRepository{records: map[uuid.UUID]domain.Category{}},
		Products:      &ProductRepository{records: map[uuid.UUID]domain.Product{}},
		Campaigns:     &CampaignRepository{records: map[uuid.UUID]domain.Campaign{}},
		Sessions:      &SessionRepository{records: map[uuid.UUID]domain.Session{}, history: map[uuid.UUID][]domain.SessionStateHistory{}},
		BonusTasks:    &BonusTaskRepository{records: map[uuid.UUID]domain.BonusTask{}},
		Disputes:      &DisputeRepository{records: map[uuid.UUID]domain.Dispute{}, messages: map[uuid.UUID][]domain.DisputeMessage{}, history: map[uuid.UUID][]domain.DisputeStateHistory{}},
		Wallets:       &WalletRepository{records: map[uuid.UUID]domain.Wallet{}, refs: map[string]struct{}{}},
		Withdrawals:   &WithdrawalRepository{records: map[uuid.UUID]domain.Withdrawal{}},
		Reviews:       &ReviewRepository{records: map[uuid.UUID]domain.Review{}, bySession: map[uuid.UUID]uuid.UUID{}},
		Notifications: &NotificationRepository{records: map[uuid.UUID]domain.Notification{}},
		SystemLogs:    &SystemLogRepository{},
		Outbox:        &OutboxRepository{records: map[uuid.UUID]ports.OutboxRecord{}},
		EventDedup:    &EventDedupRepository{records: map[string]dedupRecord{}},
		Idempotency:   &IdempotencyRepository{records: map[string]ports.IdempotencyRecord{}},
	}
}

// paginate slices an already ordered result set.
func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return slices.Clone(rows[offset:end])
}

// staleStatus reports a status-guarded write that lost to another writer.
func staleStatus[S ~string](expected S) error {
	return fmt.Errorf("%w: status is no longer %s", domain.ErrConflict, expected)
}

type UserRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.User
	byEmail map[string]uuid.UUID
	order   []uuid.UUID
}

func cloneUser(u domain.User) domain.User {
	u.PreferredCategories = slices.Clone(u.PreferredCategories)
	if u.BirthDate != nil {
		b := *u.BirthDate
		u.BirthDate = &b
	}
	return u
}

func (r *UserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[user.UserID]; ok {
		return domain.ErrConflict
	}
	email := strings.ToLower(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return domain.ErrConflict
	}
	r.records[user.UserID] = cloneUser(user)
	r.byEmail[email] = user.UserID
	r.order = append(r.order, user.UserID)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return cloneUser(row), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return cloneUser(r.records[id]), nil
}

func (r *UserRepository) GetByStripeAccount(_ context.Context, accountID string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if accountID == "" {
		return domain.User{}, domain.ErrNotFound
	}
	for _, row := range r.records {
		if row.StripeAccountID == accountID {
			return cloneUser(row), nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *UserRepository) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[user.UserID]
	if !ok {
		return domain.ErrNotFound
	}
	email := strings.ToLower(user.Email)
	if owner, ok := r.byEmail[email]; ok && owner != user.UserID {
		return domain.ErrConflict
	}
	delete(r.byEmail, strings.ToLower(existing.Email))
	r.byEmail[email] = user.UserID
	r.records[user.UserID] = cloneUser(user)
	return nil
}

func (r *UserRepository) List(_ context.Context, filter ports.UserFilter) ([]domain.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		row := r.records[r.order[i]]
		if filter.Role != "" && row.Role != filter.Role {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		out = append(out, cloneUser(row))
	}
	return paginate(out, filter.Limit, filter.Offset), len(out), nil
}

func (r *UserRepository) ListEligibleTesters(_ context.Context, filter domain.TesterFilter, limit, offset int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0)
	for _, row := range r.records {
		if row.Role != domain.RoleTester || !row.IsActive() {
			continue
		}
		if !filter.Matches(row) {
			continue
		}
		out = append(out, cloneUser(row))
	}
	slices.SortFunc(out, func(a, b domain.User) int {
		if c := cmp.Compare(b.AverageRating, a.AverageRating); c != 0 {
			return c
		}
		if c := cmp.Compare(b.CompletedSessions, a.CompletedSessions); c != 0 {
			return c
		}
		return strings.Compare(a.UserID.String(), b.UserID.String())
	})
	return paginate(out, limit, offset), nil
}

func (r *UserRepository) ListActiveIDs(_ context.Context, role domain.Role) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uuid.UUID, 0)
	for _, id := range r.order {
		row := r.records[id]
		if !row.IsActive() || (role != "" && row.Role != role) {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (r *UserRepository) CountByRole(_ context.Context) (map[domain.Role]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[domain.Role]int{}
	for _, row := range r.records {
		out[row.Role]++
	}
	return out, nil
}

type CategoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.Category
}

func (r *CategoryRepository) slugTaken(slug string, except uuid.UUID) bool {
	for id, row := range r.records {
		if id != except && row.Slug == slug {
			return true
		}
	}
	return false
}

func (r *CategoryRepository) Create(_ context.Context, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[category.CategoryID]; ok || r.slugTaken(category.Slug, category.CategoryID) {
		return domain.ErrConflict
	}
	r.records[category.CategoryID] = category
	return nil
}

func (r *CategoryRepository) Update(_ context.Context, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[category.CategoryID]; !ok {
		return domain.ErrNotFound
	}
	if r.slugTaken(category.Slug, category.CategoryID) {
		return domain.ErrConflict
	}
	r.records[category.CategoryID] = category
	return nil
}

func (r *CategoryRepository) Delete(_ context.Context, categoryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[categoryID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.records, categoryID)
	return nil
}

func (r *CategoryRepository) GetByID(_ context.Context, categoryID uuid.UUID) (domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[categoryID]
	if !ok {
		return domain.Category{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *CategoryRepository) List(_ context.Context, activeOnly bool) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Category, 0, len(r.records))
	for _, row := range r.records {
		if activeOnly && !row.IsActive {
			continue
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b domain.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

type ProductRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.Product
	order   []uuid.UUID
}

func cloneProduct(p domain.Product) domain.Product {
	p.ImageURLs = slices.Clone(p.ImageURLs)
	return p
}

func (r *ProductRepository) Create(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[product.ProductID]; ok {
		return domain.ErrConflict
	}
	r.records[product.ProductID] = cloneProduct(product)
	r.order = append(r.order, product.ProductID)
	return nil
}

func (r *ProductRepository) Update(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[product.ProductID]; !ok {
		return domain.ErrNotFound
	}
	r.records[product.ProductID] = cloneProduct(product)
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[productID]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return cloneProduct(row), nil
}

// ListBySeller skips soft-deleted products.
func (r *ProductRepository) ListBySeller(_ context.Context, sellerID uuid.UUID, limit, offset int) ([]domain.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		row := r.records[r.order[i]]
		if row.SellerID != sellerID || !row.IsActive {
			continue
		}
		out = append(out, cloneProduct(row))
	}
	return paginate(out, limit, offset), len(out), nil
}

func (r *ProductRepository) CountByCategory(_ context.Context, categoryID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, row := range r.records {
		if row.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}
