package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adelipop59/super-try-api-sub002/internal/contracts"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
)

func withdrawalPayload(w domain.Withdrawal) contracts.WithdrawalPayload {
	return contracts.WithdrawalPayload{
		WithdrawalID:  w.WithdrawalID.String(),
		UserID:        w.UserID.String(),
		Amount:        w.Amount.StringFixed(2),
		Currency:      w.Currency,
		Method:        string(w.Method),
		Status:        string(w.Status),
		FailureReason: w.FailureReason,
	}
}

func (s *Service) GetWallet(ctx context.Context, actor Actor) (domain.Wallet, error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return domain.Wallet{}, err
	}
	return s.wallets.GetByUserID(ctx, actor.UserID)
}

func (s *Service) ListTransactions(ctx context.Context, actor Actor, limit, offset int) (Page[domain.WalletTransaction], error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return Page[domain.WalletTransaction]{}, err
	}
	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := s.wallets.ListTransactions(ctx, actor.UserID, limit, offset)
	if err != nil {
		return Page[domain.WalletTransaction]{}, err
	}
	return Page[domain.WalletTransaction]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) RequestWithdrawal(ctx context.Context, actor Actor, input WithdrawalInput) (domain.Withdrawal, error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return domain.Withdrawal{}, err
	}
	method := domain.WithdrawalMethod(strings.ToUpper(strings.TrimSpace(input.Method)))
	provider := domain.GiftCardProvider(strings.ToUpper(strings.TrimSpace(input.GiftCardProvider)))
	switch method {
	case domain.WithdrawalBankTransfer:
		provider = ""
	case domain.WithdrawalGiftCard:
		if !domain.IsValidGiftCardProvider(provider) {
			return domain.Withdrawal{}, fmt.Errorf("%w: gift_card_provider must be AMAZON, FNAC or DECATHLON", domain.ErrInvalidInput)
		}
	default:
		return domain.Withdrawal{}, fmt.Errorf("%w: method must be BANK_TRANSFER or GIFT_CARD", domain.ErrInvalidInput)
	}
	if err := domain.ValidateMoney("amount", input.Amount, false); err != nil {
		return domain.Withdrawal{}, err
	}
	amount := input.Amount.Round(2)
	if amount.LessThan(domain.MinimumWithdrawal) {
		return domain.Withdrawal{}, fmt.Errorf("%w: minimum withdrawal is %s", domain.ErrInvalidInput, domain.MinimumWithdrawal.StringFixed(2))
	}
	return runIdempotent(ctx, s, actor, "request_withdrawal", input, func() (domain.Withdrawal, error) {
		if method == domain.WithdrawalBankTransfer {
			user, err := s.users.GetByID(ctx, actor.UserID)
			if err != nil {
				return domain.Withdrawal{}, err
			}
			if user.StripeAccountID == "" || !user.StripeOnboardingCompleted || !user.StripePayoutsEnabled {
				return domain.Withdrawal{}, fmt.Errorf("%w: complete Stripe onboarding before requesting a bank transfer", domain.ErrConflict)
			}
		}
		wallet, err := s.wallets.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return domain.Withdrawal{}, err
		}
		if wallet.Balance.LessThan(amount) {
			return domain.Withdrawal{}, domain.ErrInsufficientFunds
		}
		now := s.nowFn()
		withdrawal := domain.Withdrawal{
			WithdrawalID:     uuid.New(),
			UserID:           actor.UserID,
			Amount:           amount,
			Currency:         wallet.Currency,
			Method:           method,
			GiftCardProvider: provider,
			Status:           domain.WithdrawalPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if _, err := s.wallets.Debit(ctx, domain.LedgerEntry{
			UserID:        actor.UserID,
			Amount:        amount,
			Reason:        domain.ReasonWithdrawal,
			ReferenceType: "withdrawal",
			ReferenceID:   withdrawal.WithdrawalID,
			Description:   "withdrawal " + string(method),
			At:            now,
		}); err != nil {
			return domain.Withdrawal{}, err
		}
		if err := s.withdrawals.Create(ctx, withdrawal); err != nil {
			s.refundWithdrawal(ctx, withdrawal, "withdrawal could not be recorded")
			return domain.Withdrawal{}, err
		}
		s.emit(ctx, domain.EventWithdrawalRequested, "user_id", actor.UserID.String(), withdrawalPayload(withdrawal))
		s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryWallet, "withdrawal requested", uuidPtr(actor.UserID), map[string]string{
			"withdrawal_id": withdrawal.WithdrawalID.String(),
			"amount":        amount.StringFixed(2),
			"method":        string(method),
		})
		return withdrawal, nil
	})
}

func (s *Service) refundWithdrawal(ctx context.Context, withdrawal domain.Withdrawal, reason string) {
	if _, err := s.creditWallet(ctx, domain.LedgerEntry{
		UserID:        withdrawal.UserID,
		Amount:        withdrawal.Amount,
		Reason:        domain.ReasonWithdrawalReversal,
		ReferenceType: "withdrawal",
		ReferenceID:   withdrawal.WithdrawalID,
		Description:   reason,
	}); err != nil {
		s.recordLog(ctx, domain.LogLevelError, domain.LogCategoryWallet, "withdrawal refund failed", uuidPtr(withdrawal.UserID), map[string]string{
			"withdrawal_id": withdrawal.WithdrawalID.String(),
			"error":         err.Error(),
		})
	}
}

func (s *Service) ListMyWithdrawals(ctx context.Context, actor Actor, limit, offset int) (Page[domain.Withdrawal], error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return Page[domain.Withdrawal]{}, err
	}
	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := s.withdrawals.ListByUser(ctx, actor.UserID, limit, offset)
	if err != nil {
		return Page[domain.Withdrawal]{}, err
	}
	return Page[domain.Withdrawal]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) ListPendingWithdrawals(ctx context.Context, actor Actor, limit int) ([]domain.Withdrawal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	limit, _ = domain.NormalizePage(limit, 0)
	return s.withdrawals.ListByStatus(ctx, domain.WithdrawalPending, limit)
}

func (s *Service) CancelWithdrawal(ctx context.Context, actor Actor, withdrawalID uuid.UUID) (domain.Withdrawal, error) {
	if err := requireRole(actor, domain.RoleTester); err != nil {
		return domain.Withdrawal{}, err
	}
	withdrawal, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return domain.Withdrawal{}, err
	}
	if withdrawal.UserID != actor.UserID {
		return domain.Withdrawal{}, domain.ErrNotFound
	}
	if err := domain.ValidateWithdrawalTransition(withdrawal.Status, domain.WithdrawalCancelled); err != nil {
		return domain.Withdrawal{}, err
	}
	withdrawal.Status = domain.WithdrawalCancelled
	withdrawal.UpdatedAt = s.nowFn()
	if err := s.withdrawals.Update(ctx, withdrawal, domain.WithdrawalPending); err != nil {
		return domain.Withdrawal{}, err
	}
	s.refundWithdrawal(ctx, withdrawal, "withdrawal cancelled")
	return withdrawal, nil
}

// ProcessWithdrawal pays out a pending withdrawal. Bank transfers go through the
// connected Stripe account; gift cards need the code issued by the admin.
func (s *Service) ProcessWithdrawal(ctx context.Context, actor Actor, withdrawalID uuid.UUID, input ProcessWithdrawalInput) (domain.Withdrawal, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Withdrawal{}, err
	}
	return runIdempotent(ctx, s, actor, "process_withdrawal", struct {
		WithdrawalID uuid.UUID
		Input        ProcessWithdrawalInput
	}{withdrawalID, input}, func() (domain.Withdrawal, error) {
		withdrawal, err := s.withdrawals.GetByID(ctx, withdrawalID)
		if err != nil {
			return domain.Withdrawal{}, err
		}
		code := strings.TrimSpace(input.GiftCardCode)
		if withdrawal.Method == domain.WithdrawalGiftCard && code == "" {
			return domain.Withdrawal{}, fmt.Errorf("%w: gift_card_code is required", domain.ErrInvalidInput)
		}
		return s.processWithdrawal(ctx, withdrawal, actor, code)
	})
}

func (s *Service) processWithdrawal(ctx context.Context, withdrawal domain.Withdrawal, actor Actor, giftCardCode string) (domain.Withdrawal, error) {
	if err := domain.ValidateWithdrawalTransition(withdrawal.Status, domain.WithdrawalProcessing); err != nil {
		return domain.Withdrawal{}, err
	}
	now := s.nowFn()
	withdrawal.Status = domain.WithdrawalProcessing
	withdrawal.ProcessedBy = uuidPtr(actor.UserID)
	withdrawal.ProcessedAt = timePtr(now)
	withdrawal.UpdatedAt = now
	if err := s.withdrawals.Update(ctx, withdrawal, domain.WithdrawalPending); err != nil {
		return domain.Withdrawal{}, err
	}

	var payoutErr error
	switch withdrawal.Method {
	case domain.WithdrawalBankTransfer:
		withdrawal.StripeTransferID, payoutErr = s.transferToTester(ctx, withdrawal)
	case domain.WithdrawalGiftCard:
		withdrawal.GiftCardCode = giftCardCode
	}
	if payoutErr != nil {
		return s.failWithdrawal(ctx, withdrawal, payoutErr.Error())
	}

	withdrawal.Status = domain.WithdrawalCompleted
	withdrawal.CompletedAt = timePtr(s.nowFn())
	withdrawal.UpdatedAt = s.nowFn()
	if err := s.withdrawals.Update(ctx, withdrawal, domain.WithdrawalProcessing); err != nil {
		return domain.Withdrawal{}, err
	}
	s.emit(ctx, domain.EventWithdrawalCompleted, "user_id", withdrawal.UserID.String(), withdrawalPayload(withdrawal))
	s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategoryWallet, "withdrawal completed", uuidPtr(withdrawal.UserID), map[string]string{
		"withdrawal_id": withdrawal.WithdrawalID.String(),
		"amount":        withdrawal.Amount.StringFixed(2),
		"transfer_id":   withdrawal.StripeTransferID,
	})
	return withdrawal, nil
}

func (s *Service) transferToTester(ctx context.Context, withdrawal domain.Withdrawal) (string, error) {
	if s.payments == nil {
		return "", errors.New("payments are not configured")
	}
	user, err := s.users.GetByID(ctx, withdrawal.UserID)
	if err != nil {
		return "", err
	}
	if user.StripeAccountID == "" || !user.StripePayoutsEnabled {
		return "", errors.New("connected account cannot receive payouts")
	}
	return s.payments.CreateTransfer(ctx, user.StripeAccountID, withdrawal.Amount, withdrawal.Currency, withdrawal.WithdrawalID.String())
}

// RejectWithdrawal fails a withdrawal on admin decision and refunds the tester.
func (s *Service) RejectWithdrawal(ctx context.Context, actor Actor, withdrawalID uuid.UUID, input ReasonInput) (domain.Withdrawal, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Withdrawal{}, err
	}
	reason := strings.TrimSpace(input.Reason)
	if err := domain.ValidateText("reason", reason, 3, 1000); err != nil {
		return domain.Withdrawal{}, err
	}
	withdrawal, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return domain.Withdrawal{}, err
	}
	withdrawal.ProcessedBy = uuidPtr(actor.UserID)
	return s.failWithdrawal(ctx, withdrawal, reason)
}

func (s *Service) failWithdrawal(ctx context.Context, withdrawal domain.Withdrawal, reason string) (domain.Withdrawal, error) {
	from := withdrawal.Status
	if err := domain.ValidateWithdrawalTransition(from, domain.WithdrawalFailed); err != nil {
		return domain.Withdrawal{}, err
	}
	withdrawal.Status = domain.WithdrawalFailed
	withdrawal.FailureReason = reason
	withdrawal.UpdatedAt = s.nowFn()
	if err := s.withdrawals.Update(ctx, withdrawal, from); err != nil {
		return domain.Withdrawal{}, err
	}
	s.refundWithdrawal(ctx, withdrawal, "withdrawal failed: "+reason)
	s.emit(ctx, domain.EventWithdrawalFailed, "user_id", withdrawal.UserID.String(), withdrawalPayload(withdrawal))
	s.recordLog(ctx, domain.LogLevelWarn, domain.LogCategoryWallet, "withdrawal failed", uuidPtr(withdrawal.UserID), map[string]string{
		"withdrawal_id": withdrawal.WithdrawalID.String(),
		"reason":        reason,
	})
	return withdrawal, nil
}

// ProcessPendingWithdrawals pays out pending bank transfers in FIFO order. Gift
// cards are left for an admin and never fill the batch.
func (s *Service) ProcessPendingWithdrawals(ctx context.Context, limit int) (WithdrawalBatchReport, error) {
	if limit <= 0 {
		limit = s.cfg.SweepBatchSize
	}
	pending, err := s.withdrawals.ListByStatusAndMethod(ctx, domain.WithdrawalPending, domain.WithdrawalBankTransfer, limit)
	if err != nil {
		return WithdrawalBatchReport{}, err
	}
	report := WithdrawalBatchReport{}
	for _, withdrawal := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++
		out, err := s.processWithdrawal(ctx, withdrawal, SystemActor, "")
		if err != nil {
			return report, err
		}
		if out.Status == domain.WithdrawalCompleted {
			report.Completed++
		} else {
			report.Failed++
		}
	}
	return report, nil
}
