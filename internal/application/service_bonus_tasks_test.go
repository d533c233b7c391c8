package application_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errLedgerDown = errors.New("ledger unavailable")

// flakyWallets fails the next n credits carrying reason.
type flakyWallets struct {
	ports.WalletRepository
	reason   domain.TransactionReason
	failures atomic.Int32
}

func (w *flakyWallets) Credit(ctx context.Context, entry domain.LedgerEntry) (domain.WalletTransaction, error) {
	if entry.Reason == w.reason && w.failures.Add(-1) >= 0 {
		return domain.WalletTransaction{}, errLedgerDown
	}
	return w.WalletRepository.Credit(ctx, entry)
}

func withFlakyCredits(reason domain.TransactionReason, wallets **flakyWallets) fixtureOption {
	return withWallets(func(inner ports.WalletRepository) ports.WalletRepository {
		*wallets = &flakyWallets{WalletRepository: inner, reason: reason}
		return *wallets
	})
}

// requestedTask creates an unboxing photo task on a submitted session.
func (f *fixture) requestedTask(t *testing.T, seller, tester application.Actor) domain.BonusTask {
	t.Helper()
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())
	session := f.submittedSession(t, seller, tester, campaign, decimal.NewFromInt(20))
	task, err := f.service.CreateBonusTask(f.ctx, seller, session.SessionID, application.CreateBonusTaskInput{
		Type: "UNBOXING_PHOTO", Title: "Post three photos", Reward: decimal.NewFromInt(6),
	})
	if err != nil {
		t.Fatalf("create bonus task: %v", err)
	}
	return task
}

func TestValidateBonusTaskRetriesAfterFailedCredit(t *testing.T) {
	t.Parallel()

	var wallets *flakyWallets
	f := newFixture(t, withFlakyCredits(domain.ReasonBonusTask, &wallets))
	seller := f.seller(t)
	tester := f.tester(t)
	task := f.requestedTask(t, seller, tester)

	_, err := f.service.AcceptBonusTask(f.ctx, tester, task.TaskID)
	require.NoError(t, err)
	_, err = f.service.SubmitBonusTask(f.ctx, tester, task.TaskID, application.SubmitBonusTaskInput{SubmissionURLs: []string{"https://cdn.example.com/p.jpg"}})
	require.NoError(t, err)

	wallets.failures.Store(1)
	_, err = f.service.ValidateBonusTask(f.ctx, seller, task.TaskID)
	require.ErrorIs(t, err, errLedgerDown)

	stored, err := f.repos.BonusTasks.GetByID(f.ctx, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, domain.BonusTaskStatusSubmitted, stored.Status, "an unpaid task is not validated")
	mustEqualMoney(t, f.balance(t, tester), "0.00")

	validated, err := f.service.ValidateBonusTask(f.ctx, seller, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, domain.BonusTaskStatusValidated, validated.Status)
	mustEqualMoney(t, f.balance(t, tester), "6.00")

	_, err = f.service.ValidateBonusTask(f.ctx, seller, task.TaskID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	mustEqualMoney(t, f.balance(t, tester), "6.00")
}

func TestTipIsNotStoredWhenCreditFails(t *testing.T) {
	t.Parallel()

	var wallets *flakyWallets
	f := newFixture(t, withFlakyCredits(domain.ReasonTip, &wallets))
	seller := f.seller(t)
	tester := f.tester(t)
	spec := defaultCampaignSpec()
	spec.autoAccept = true
	campaign := f.activeCampaign(t, seller, spec)
	session, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)

	wallets.failures.Store(1)
	input := application.CreateBonusTaskInput{Type: "TIP", Title: "Thanks a lot", Reward: decimal.NewFromInt(4)}
	_, err = f.service.CreateBonusTask(f.ctx, seller, session.SessionID, input)
	require.ErrorIs(t, err, errLedgerDown)

	tasks, err := f.service.ListSessionBonusTasks(f.ctx, seller, session.SessionID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	tip, err := f.service.CreateBonusTask(f.ctx, seller, session.SessionID, input)
	require.NoError(t, err)
	assert.Equal(t, domain.BonusTaskStatusValidated, tip.Status)
	mustEqualMoney(t, f.balance(t, tester), "4.00")
}

func TestDeclineBonusTask(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	task := f.requestedTask(t, seller, tester)

	_, err := f.service.DeclineBonusTask(f.ctx, seller, task.TaskID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "only the tester declines")

	_, err = f.service.DeclineBonusTask(f.ctx, f.tester(t), task.TaskID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "another tester cannot decline")

	declined, err := f.service.DeclineBonusTask(f.ctx, tester, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, domain.BonusTaskStatusDeclined, declined.Status)

	_, err = f.service.AcceptBonusTask(f.ctx, tester, task.TaskID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = f.service.CancelBonusTask(f.ctx, seller, task.TaskID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	mustEqualMoney(t, f.balance(t, tester), "0.00")
}

func TestCancelBonusTaskOnlyBeforeSubmission(t *testing.T) {
	t.Parallel()

	submit := func(f *fixture, tester application.Actor, task domain.BonusTask) error {
		if _, err := f.service.AcceptBonusTask(f.ctx, tester, task.TaskID); err != nil {
			return err
		}
		_, err := f.service.SubmitBonusTask(f.ctx, tester, task.TaskID, application.SubmitBonusTaskInput{SubmissionURLs: []string{"https://cdn.example.com/p.jpg"}})
		return err
	}
	cases := []struct {
		name    string
		prepare func(f *fixture, tester application.Actor, task domain.BonusTask) error
		want    error
	}{
		{"requested", func(*fixture, application.Actor, domain.BonusTask) error { return nil }, nil},
		{"accepted", func(f *fixture, tester application.Actor, task domain.BonusTask) error {
			_, err := f.service.AcceptBonusTask(f.ctx, tester, task.TaskID)
			return err
		}, nil},
		{"submitted", submit, domain.ErrInvalidStateTransition},
		{"validated", func(f *fixture, tester application.Actor, task domain.BonusTask) error {
			if err := submit(f, tester, task); err != nil {
				return err
			}
			_, err := f.service.ValidateBonusTask(f.ctx, application.Actor{UserID: task.SellerID, Role: domain.RoleSeller}, task.TaskID)
			return err
		}, domain.ErrInvalidStateTransition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			seller := f.seller(t)
			tester := f.tester(t)
			task := f.requestedTask(t, seller, tester)
			require.NoError(t, tc.prepare(f, tester, task))

			_, err := f.service.CancelBonusTask(f.ctx, tester, task.TaskID)
			assert.ErrorIs(t, err, domain.ErrForbidden, "testers cannot cancel")

			cancelled, err := f.service.CancelBonusTask(f.ctx, seller, task.TaskID)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.BonusTaskStatusCancelled, cancelled.Status)
		})
	}
}
