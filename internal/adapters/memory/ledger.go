package memory

import (
	"context"
	"sync"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WalletRepository struct {
	mu           sync.RWMutex
	records      map[uuid.UUID]domain.Wallet
	transactions []domain.WalletTransaction
	refs         map[string]struct{}
}

func ledgerRef(reason domain.TransactionReason, referenceID uuid.UUID) string {
	return string(reason) + ":" + referenceID.String()
}

func (r *WalletRepository) Create(_ context.Context, wallet domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[wallet.UserID]; ok {
		return domain.ErrConflict
	}
	r.records[wallet.UserID] = wallet
	return nil
}

func (r *WalletRepository) GetByUserID(_ context.Context, userID uuid.UUID) (domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[userID]
	if !ok {
		return domain.Wallet{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *WalletRepository) Credit(_ context.Context, entry domain.LedgerEntry) (domain.WalletTransaction, error) {
	if err := entry.Validate(); err != nil {
		return domain.WalletTransaction{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apply(entry, domain.TransactionCredit)
}

func (r *WalletRepository) Debit(_ context.Context, entry domain.LedgerEntry) (domain.WalletTransaction, error) {
	if err := entry.Validate(); err != nil {
		return domain.WalletTransaction{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apply(entry, domain.TransactionDebit)
}

// apply must be called with the write lock held.
func (r *WalletRepository) apply(entry domain.LedgerEntry, kind domain.TransactionType) (domain.WalletTransaction, error) {
	wallet, ok := r.records[entry.UserID]
	if !ok {
		return domain.WalletTransaction{}, domain.ErrNotFound
	}
	ref := ledgerRef(entry.Reason, entry.ReferenceID)
	if _, dup := r.refs[ref]; dup {
		return domain.WalletTransaction{}, domain.ErrConflict
	}
	switch kind {
	case domain.TransactionCredit:
		wallet.Balance = wallet.Balance.Add(entry.Amount)
		if entry.Reason == domain.ReasonWithdrawalReversal {
			wallet.TotalWithdrawn = decimal.Max(decimal.Zero, wallet.TotalWithdrawn.Sub(entry.Amount))
		} else {
			wallet.TotalEarned = wallet.TotalEarned.Add(entry.Amount)
		}
	case domain.TransactionDebit:
		if wallet.Balance.LessThan(entry.Amount) {
			return domain.WalletTransaction{}, domain.ErrInsufficientFunds
		}
		wallet.Balance = wallet.Balance.Sub(entry.Amount)
		wallet.TotalWithdrawn = wallet.TotalWithdrawn.Add(entry.Amount)
	}
	wallet.UpdatedAt = entry.At
	tx := domain.WalletTransaction{
		TransactionID: uuid.New(),
		WalletID:      wallet.WalletID,
		UserID:        wallet.UserID,
		Type:          kind,
		Reason:        entry.Reason,
		Amount:        entry.Amount,
		BalanceAfter:  wallet.Balance,
		ReferenceType: entry.ReferenceType,
		ReferenceID:   entry.ReferenceID,
		Description:   entry.Description,
		CreatedAt:     entry.At,
	}
	r.records[wallet.UserID] = wallet
	r.transactions = append(r.transactions, tx)
	r.refs[ref] = struct{}{}
	return tx, nil
}

func (r *WalletRepository) ListTransactions(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.WalletTransaction, 0)
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if r.transactions[i].UserID == userID {
			out = append(out, r.transactions[i])
		}
	}
	return paginate(out, limit, offset), len(out), nil
}

func (r *WalletRepository) HasTransaction(_ context.Context, reason domain.TransactionReason, referenceID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.refs[ledgerRef(reason, referenceID)]
	return ok, nil
}

func (r *WalletRepository) TotalBalance(_ context.Context) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, row := range r.records {
		total = total.Add(row.Balance)
	}
	return total, nil
}

type WithdrawalRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.Withdrawal
	order   []uuid.UUID
}

func (r *WithdrawalRepository) Create(_ context.Context, withdrawal domain.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[withdrawal.WithdrawalID]; ok {
		return domain.ErrConflict
	}
	r.records[withdrawal.WithdrawalID] = withdrawal
	r.order = append(r.order, withdrawal.WithdrawalID)
	return nil
}

func (r *WithdrawalRepository) Update(_ context.Context, withdrawal domain.Withdrawal, expected domain.WithdrawalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[withdrawal.WithdrawalID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Status != expected {
		return staleStatus(expected)
	}
	r.records[withdrawal.WithdrawalID] = withdrawal
	return nil
}

func (r *WithdrawalRepository) GetByID(_ context.Context, withdrawalID uuid.UUID) (domain.Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[withdrawalID]
	if !ok {
		return domain.Withdrawal{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *WithdrawalRepository) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.Withdrawal, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Withdrawal, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		row := r.records[r.order[i]]
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return paginate(out, limit, offset), len(out), nil
}

// ListByStatus returns the oldest requests first.
func (r *WithdrawalRepository) ListByStatus(_ context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	return r.list(status, "", limit), nil
}

func (r *WithdrawalRepository) ListByStatusAndMethod(_ context.Context, status domain.WithdrawalStatus, method domain.WithdrawalMethod, limit int) ([]domain.Withdrawal, error) {
	return r.list(status, method, limit), nil
}

// list walks withdrawals oldest first. An empty method matches any.
func (r *WithdrawalRepository) list(status domain.WithdrawalStatus, method domain.WithdrawalMethod, limit int) []domain.Withdrawal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Withdrawal, 0)
	for _, id := range r.order {
		row := r.records[id]
		if row.Status != status || (method != "" && row.Method != method) {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (r *WithdrawalRepository) CountByStatus(_ context.Context, status domain.WithdrawalStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, row := range r.records {
		if row.Status == status {
			n++
		}
	}
	return n, nil
}
