package postgres

import (
	"context"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

func (r *walletRepository) Create(ctx context.Context, wallet domain.Wallet) error {
	rec := walletModel{
		WalletID:       wallet.WalletID,
		UserID:         wallet.UserID,
		Balance:        wallet.Balance,
		TotalEarned:    wallet.TotalEarned,
		TotalWithdrawn: wallet.TotalWithdrawn,
		Currency:       wallet.Currency,
		CreatedAt:      wallet.CreatedAt,
		UpdatedAt:      wallet.UpdatedAt,
	}
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Wallet, error) {
	var rec walletModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		return domain.Wallet{}, translate(err)
	}
	return toDomainWallet(rec), nil
}

func (r *walletRepository) Credit(ctx context.Context, entry domain.LedgerEntry) (domain.WalletTransaction, error) {
	return r.apply(ctx, entry, domain.TransactionCredit)
}

func (r *walletRepository) Debit(ctx context.Context, entry domain.LedgerEntry) (domain.WalletTransaction, error) {
	return r.apply(ctx, entry, domain.TransactionDebit)
}

// apply locks the wallet row, writes the ledger line and the new totals in
// one transaction. ux_wallet_transactions_ref turns a replayed entry into
// domain.ErrConflict.
func (r *walletRepository) apply(ctx context.Context, entry domain.LedgerEntry, kind domain.TransactionType) (domain.WalletTransaction, error) {
	if err := entry.Validate(); err != nil {
		return domain.WalletTransaction{}, err
	}
	var out domain.WalletTransaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet walletModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", entry.UserID).Take(&wallet).Error; err != nil {
			return translate(err)
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
				return domain.ErrInsufficientFunds
			}
			wallet.Balance = wallet.Balance.Sub(entry.Amount)
			wallet.TotalWithdrawn = wallet.TotalWithdrawn.Add(entry.Amount)
		}
		line := walletTransactionModel{
			TransactionID: uuid.New(),
			WalletID:      wallet.WalletID,
			UserID:        wallet.UserID,
			Type:          string(kind),
			Reason:        string(entry.Reason),
			Amount:        entry.Amount,
			BalanceAfter:  wallet.Balance,
			ReferenceType: entry.ReferenceType,
			ReferenceID:   entry.ReferenceID,
			Description:   entry.Description,
			CreatedAt:     entry.At,
		}
		if err := tx.Create(&line).Error; err != nil {
			return translate(err)
		}
		err := tx.Model(&walletModel{}).Where("wallet_id = ?", wallet.WalletID).Updates(map[string]any{
			"balance":         wallet.Balance,
			"total_earned":    wallet.TotalEarned,
			"total_withdrawn": wallet.TotalWithdrawn,
			"updated_at":      entry.At,
		}).Error
		if err != nil {
			return err
		}
		out = toDomainTransaction(line)
		return nil
	})
	if err != nil {
		return domain.WalletTransaction{}, err
	}
	return out, nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, int, error) {
	q := r.db.WithContext(ctx).Model(&walletTransactionModel{}).Where("user_id = ?", userID)
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []walletTransactionModel
	if err := q.Order("created_at DESC").Limit(normalizeLimit(limit)).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.WalletTransaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainTransaction(row))
	}
	return out, int(total), nil
}

func (r *walletRepository) HasTransaction(ctx context.Context, reason domain.TransactionReason, referenceID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&walletTransactionModel{}).
		Where("reason = ? AND reference_id = ?", string(reason), referenceID).
		Count(&n).Error
	return n > 0, err
}

func (r *walletRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&walletModel{}).Select("COALESCE(SUM(balance), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

type withdrawalRepository struct {
	db *gorm.DB
}

func (r *withdrawalRepository) Create(ctx context.Context, withdrawal domain.Withdrawal) error {
	rec := toWithdrawalModel(withdrawal)
	return translate(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *withdrawalRepository) Update(ctx context.Context, withdrawal domain.Withdrawal, expected domain.WithdrawalStatus) error {
	rec := toWithdrawalModel(withdrawal)
	return updateIfStatus(ctx, r.db, &rec, &withdrawalModel{}, "withdrawal_id", rec.WithdrawalID, string(expected), "withdrawal_id", "user_id", "created_at")
}

func (r *withdrawalRepository) GetByID(ctx context.Context, withdrawalID uuid.UUID) (domain.Withdrawal, error) {
	var rec withdrawalModel
	if err := r.db.WithContext(ctx).Where("withdrawal_id = ?", withdrawalID).Take(&rec).Error; err != nil {
		return domain.Withdrawal{}, translate(err)
	}
	return toDomainWithdrawal(rec), nil
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Withdrawal, int, error) {
	q := r.db.WithContext(ctx).Model(&withdrawalModel{}).Where("user_id = ?", userID)
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []withdrawalModel
	if err := q.Order("created_at DESC").Limit(normalizeLimit(limit)).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Withdrawal, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainWithdrawal(row))
	}
	return out, int(total), nil
}

func (r *withdrawalRepository) ListByStatus(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	return r.listByStatus(r.db.WithContext(ctx).Where("status = ?", string(status)), limit)
}

func (r *withdrawalRepository) ListByStatusAndMethod(ctx context.Context, status domain.WithdrawalStatus, method domain.WithdrawalMethod, limit int) ([]domain.Withdrawal, error) {
	return r.listByStatus(r.db.WithContext(ctx).Where("status = ? AND method = ?", string(status), string(method)), limit)
}

func (r *withdrawalRepository) listByStatus(q *gorm.DB, limit int) ([]domain.Withdrawal, error) {
	q = q.Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []withdrawalModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Withdrawal, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainWithdrawal(row))
	}
	return out, nil
}

func (r *withdrawalRepository) CountByStatus(ctx context.Context, status domain.WithdrawalStatus) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&withdrawalModel{}).Where("status = ?", string(status)).Count(&n).Error
	return int(n), err
}

var (
	_ ports.WalletRepository     = (*walletRepository)(nil)
	_ ports.WithdrawalRepository = (*withdrawalRepository)(nil)
)
