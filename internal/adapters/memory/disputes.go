package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
)

type DisputeRepository struct {
	mu       sync.RWMutex
	records  map[uuid.UUID]domain.Dispute
	messages map[uuid.UUID][]domain.DisputeMessage
	history  map[uuid.UUID][]domain.DisputeStateHistory
	order    []uuid.UUID
}

func cloneDispute(d domain.Dispute) domain.Dispute {
	d.EvidenceURLs = slices.Clone(d.EvidenceURLs)
	return d
}

func (r *DisputeRepository) Create(_ context.Context, dispute domain.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[dispute.DisputeID]; ok {
		return domain.ErrConflict
	}
	for _, row := range r.records {
		if row.SessionID == dispute.SessionID && row.Status.IsOpen() {
			return domain.ErrConflict
		}
	}
	r.records[dispute.DisputeID] = cloneDispute(dispute)
	r.order = append(r.order, dispute.DisputeID)
	return nil
}

func (r *DisputeRepository) Update(_ context.Context, dispute domain.Dispute, expected domain.DisputeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[dispute.DisputeID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Status != expected {
		return staleStatus(expected)
	}
	r.records[dispute.DisputeID] = cloneDispute(dispute)
	return nil
}

func (r *DisputeRepository) GetByID(_ context.Context, disputeID uuid.UUID) (domain.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[disputeID]
	if !ok {
		return domain.Dispute{}, domain.ErrNotFound
	}
	return cloneDispute(row), nil
}

func (r *DisputeRepository) GetOpenBySession(_ context.Context, sessionID uuid.UUID) (domain.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.records {
		if row.SessionID == sessionID && row.Status.IsOpen() {
			return cloneDispute(row), nil
		}
	}
	return domain.Dispute{}, domain.ErrNotFound
}

func (r *DisputeRepository) List(_ context.Context, filter ports.DisputeFilter) ([]domain.Dispute, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Dispute, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		row := r.records[r.order[i]]
		if filter.UserID != nil && !row.IsParty(*filter.UserID) {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		out = append(out, cloneDispute(row))
	}
	return paginate(out, filter.Limit, filter.Offset), len(out), nil
}

func (r *DisputeRepository) CountOpen(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, row := range r.records {
		if row.Status.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (r *DisputeRepository) CreateMessage(_ context.Context, msg domain.DisputeMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[msg.DisputeID]; !ok {
		return domain.ErrNotFound
	}
	msg.AttachmentURLs = slices.Clone(msg.AttachmentURLs)
	r.messages[msg.DisputeID] = append(r.messages[msg.DisputeID], msg)
	return nil
}

func (r *DisputeRepository) ListMessages(_ context.Context, disputeID uuid.UUID) ([]domain.DisputeMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.DisputeMessage{}, r.messages[disputeID]...), nil
}

func (r *DisputeRepository) AppendHistory(_ context.Context, row domain.DisputeStateHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[row.DisputeID] = append(r.history[row.DisputeID], row)
	return nil
}

func (r *DisputeRepository) ListHistory(_ context.Context, disputeID uuid.UUID) ([]domain.DisputeStateHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.DisputeStateHistory{}, r.history[disputeID]...), nil
}
