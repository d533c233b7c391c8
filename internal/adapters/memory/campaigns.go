package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
)

type CampaignRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.Campaign
	order   []uuid.UUID
}

func cloneCampaign(c domain.Campaign) domain.Campaign {
	c.Offers = slices.Clone(c.Offers)
	steps := make([]domain.ProcedureStep, len(c.Procedure))
	for i, step := range c.Procedure {
		step.ChecklistItems = slices.Clone(step.ChecklistItems)
		steps[i] = step
	}
	c.Procedure = steps
	c.Criteria.RequiredLocations = slices.Clone(c.Criteria.RequiredLocations)
	c.Criteria.RequiredCategories = slices.Clone(c.Criteria.RequiredCategories)
	return c
}

func (r *CampaignRepository) Create(_ context.Context, campaign domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[campaign.CampaignID]; ok {
		return domain.ErrConflict
	}
	r.records[campaign.CampaignID] = cloneCampaign(campaign)
	r.order = append(r.order, campaign.CampaignID)
	return nil
}

// Update keeps the stored slot counter, which only ReserveSlot and
// ReleaseSlot move once the campaign left DRAFT.
func (r *CampaignRepository) Update(_ context.Context, campaign domain.Campaign, expected domain.CampaignStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[campaign.CampaignID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Status != expected {
		return staleStatus(expected)
	}
	if existing.Status != domain.CampaignStatusDraft {
		campaign.AvailableSlots = existing.AvailableSlots
	}
	r.records[campaign.CampaignID] = cloneCampaign(campaign)
	return nil
}

func (r *CampaignRepository) GetByID(_ context.Context, campaignID uuid.UUID) (domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[campaignID]
	if !ok {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return cloneCampaign(row), nil
}

func (r *CampaignRepository) GetByPaymentIntent(_ context.Context, paymentIntentID string) (domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if paymentIntentID == "" {
		return domain.Campaign{}, domain.ErrNotFound
	}
	for _, row := range r.records {
		if row.PaymentIntentID == paymentIntentID {
			return cloneCampaign(row), nil
		}
	}
	return domain.Campaign{}, domain.ErrNotFound
}

func (r *CampaignRepository) List(_ context.Context, filter ports.CampaignFilter) ([]domain.Campaign, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]domain.Campaign, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		row := r.records[r.order[i]]
		if filter.SellerID != nil && row.SellerID != *filter.SellerID {
			continue
		}
		if filter.CategoryID != nil && row.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(row.Title), search) && !strings.Contains(strings.ToLower(row.Description), search) {
			continue
		}
		out = append(out, cloneCampaign(row))
	}
	return paginate(out, filter.Limit, filter.Offset), len(out), nil
}

func (r *CampaignRepository) ReserveSlot(_ context.Context, campaignID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.records[campaignID]
	if !ok {
		return domain.ErrNotFound
	}
	if row.AvailableSlots <= 0 {
		return domain.ErrNoSlotsAvailable
	}
	row.AvailableSlots--
	r.records[campaignID] = row
	return nil
}

func (r *CampaignRepository) ReleaseSlot(_ context.Context, campaignID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.records[campaignID]
	if !ok {
		return domain.ErrNotFound
	}
	if row.AvailableSlots < row.TotalSlots {
		row.AvailableSlots++
		r.records[campaignID] = row
	}
	return nil
}

func (r *CampaignRepository) ListEndedActive(_ context.Context, now time.Time, limit int) ([]domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Campaign, 0)
	for _, id := range r.order {
		row := r.records[id]
		if row.Status != domain.CampaignStatusActive || !row.EndDate.Before(now) {
			continue
		}
		out = append(out, cloneCampaign(row))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *CampaignRepository) CountByStatus(_ context.Context) (map[domain.CampaignStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[domain.CampaignStatus]int{}
	for _, row := range r.records {
		out[row.Status]++
	}
	return out, nil
}

func (r *CampaignRepository) CountByCategory(_ context.Context, categoryID uuid.UUID) (int, error) {
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

type SessionRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.Session
	history map[uuid.UUID][]domain.SessionStateHistory
	order   []uuid.UUID
}

func cloneSession(s domain.Session) domain.Session {
	answers := make([]domain.StepAnswer, len(s.Answers))
	for i, a := range s.Answers {
		a.MediaURLs = slices.Clone(a.MediaURLs)
		a.CheckedItems = slices.Clone(a.CheckedItems)
		answers[i] = a
	}
	s.Answers = answers
	return s
}

func (r *SessionRepository) Create(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[session.SessionID]; ok {
		return domain.ErrConflict
	}
	for _, row := range r.records {
		if row.CampaignID == session.CampaignID && row.TesterID == session.TesterID && row.Status.IsOpen() {
			return domain.ErrConflict
		}
	}
	r.records[session.SessionID] = cloneSession(session)
	r.order = append(r.order, session.SessionID)
	return nil
}

func (r *SessionRepository) Update(_ context.Context, session domain.Session, expected domain.SessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[session.SessionID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Status != expected {
		return staleStatus(expected)
	}
	r.records[session.SessionID] = cloneSession(session)
	return nil
}

func (r *SessionRepository) GetByID(_ context.Context, sessionID uuid.UUID) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return cloneSession(row), nil
}

func (r *SessionRepository) FindOpen(_ context.Context, campaignID, testerID uuid.UUID) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.records {
		if row.CampaignID == campaignID && row.TesterID == testerID && row.Status.IsOpen() {
			return cloneSession(row), nil
		}
	}
	return domain.Session{}, domain.ErrNotFound
}

func (r *SessionRepository) List(_ context.Context, filter ports.SessionFilter) ([]domain.Session, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Session, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		row := r.records[r.order[i]]
		if filter.TesterID != nil && row.TesterID != *filter.TesterID {
			continue
		}
		if filter.SellerID != nil && row.SellerID != *filter.SellerID {
			continue
		}
		if filter.CampaignID != nil && row.CampaignID != *filter.CampaignID {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		out = append(out, cloneSession(row))
	}
	return paginate(out, filter.Limit, filter.Offset), len(out), nil
}

func (r *SessionRepository) ListStalePending(_ context.Context, appliedBefore time.Time, limit int) ([]domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Session, 0)
	for _, id := range r.order {
		row := r.records[id]
		if row.Status != domain.SessionStatusPending || !row.AppliedAt.Before(appliedBefore) {
			continue
		}
		out = append(out, cloneSession(row))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *SessionRepository) CountByCampaign(_ context.Context, campaignID uuid.UUID, statuses ...domain.SessionStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, row := range r.records {
		if row.CampaignID != campaignID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, row.Status) {
			continue
		}
		n++
	}
	return n, nil
}

func (r *SessionRepository) TesterStats(_ context.Context, testerID uuid.UUID) (domain.TesterStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats domain.TesterStats
	for _, row := range r.records {
		if row.TesterID != testerID || row.CompletedAt == nil {
			continue
		}
		stats.CompletedSessions++
		if row.SellerRating != nil {
			stats.RatingCount++
			stats.RatingSum += *row.SellerRating
		}
	}
	return stats, nil
}

func (r *SessionRepository) CountByStatus(_ context.Context) (map[domain.SessionStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[domain.SessionStatus]int{}
	for _, row := range r.records {
		out[row.Status]++
	}
	return out, nil
}

func (r *SessionRepository) AppendHistory(_ context.Context, row domain.SessionStateHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[row.SessionID] = append(r.history[row.SessionID], row)
	return nil
}

func (r *SessionRepository) ListHistory(_ context.Context, sessionID uuid.UUID) ([]domain.SessionStateHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.SessionStateHistory{}, r.history[sessionID]...), nil
}

type BonusTaskRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.BonusTask
	order   []uuid.UUID
}

func (r *BonusTaskRepository) Create(_ context.Context, task domain.BonusTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[task.TaskID]; ok {
		return domain.ErrConflict
	}
	task.SubmissionURLs = slices.Clone(task.SubmissionURLs)
	r.records[task.TaskID] = task
	r.order = append(r.order, task.TaskID)
	return nil
}

func (r *BonusTaskRepository) Update(_ context.Context, task domain.BonusTask, expected domain.BonusTaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[task.TaskID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Status != expected {
		return staleStatus(expected)
	}
	task.SubmissionURLs = slices.Clone(task.SubmissionURLs)
	r.records[task.TaskID] = task
	return nil
}

func (r *BonusTaskRepository) GetByID(_ context.Context, taskID uuid.UUID) (domain.BonusTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[taskID]
	if !ok {
		return domain.BonusTask{}, domain.ErrNotFound
	}
	row.SubmissionURLs = slices.Clone(row.SubmissionURLs)
	return row, nil
}

func (r *BonusTaskRepository) ListBySession(_ context.Context, sessionID uuid.UUID) ([]domain.BonusTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.BonusTask, 0)
	for _, id := range r.order {
		row := r.records[id]
		if row.SessionID != sessionID {
			continue
		}
		row.SubmissionURLs = slices.Clone(row.SubmissionURLs)
		out = append(out, row)
	}
	return out, nil
}
