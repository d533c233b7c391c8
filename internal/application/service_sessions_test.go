package application_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateComputesEscrowWithCommission(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())

	// (20 + 5 + 3) per slot, two slots, plus 10%.
	mustEqualMoney(t, campaign.EscrowAmount, "61.60")
	assert.Equal(t, 2, campaign.AvailableSlots)
	require.NotNil(t, campaign.ActivatedAt)

	_, err := f.service.SetOffers(f.ctx, seller, campaign.CampaignID, campaign.Offers)
	assert.ErrorIs(t, err, domain.ErrConflict, "offers are frozen once the campaign leaves DRAFT")
}

func TestActivateRequiresProcedureAndOffers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	now := f.clock.Now()
	campaign, err := f.service.CreateCampaign(f.ctx, seller, application.CampaignInput{
		CategoryID: f.category.CategoryID,
		Title:      "Empty campaign",
		StartDate:  now,
		EndDate:    now.Add(24 * time.Hour),
		TotalSlots: 1,
	})
	require.NoError(t, err)

	_, err = f.service.ActivateCampaign(f.ctx, seller, campaign.CampaignID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	other := f.seller(t)
	_, err = f.service.ActivateCampaign(f.ctx, other, campaign.CampaignID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestActivateWithPaymentsWaitsForWebhook(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withPayments())
	seller := f.seller(t)
	draft := f.draftCampaign(t, seller, defaultCampaignSpec())

	res, err := f.service.ActivateCampaign(f.ctx, seller, draft.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusPendingPayment, res.Campaign.Status)
	assert.NotEmpty(t, res.PaymentClientSecret)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","payment_intent":"` + res.Campaign.PaymentIntentID + `"}`)
	require.NoError(t, f.service.HandleStripeWebhook(f.ctx, payload, f.payments.Sign(payload)))
	// Replays are acknowledged without side effects.
	require.NoError(t, f.service.HandleStripeWebhook(f.ctx, payload, f.payments.Sign(payload)))

	campaign, err := f.service.GetCampaign(f.ctx, seller, draft.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusActive, campaign.Status)

	err = f.service.HandleStripeWebhook(f.ctx, payload, "bad-signature")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSessionLifecycleCreditsCappedReward(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	maxPrice := decimal.NewFromInt(15)
	spec := defaultCampaignSpec()
	spec.slots = 1
	spec.maxPrice = &maxPrice
	campaign := f.activeCampaign(t, seller, spec)
	// min(20, 15) + 5 + 3, plus 10%.
	mustEqualMoney(t, campaign.EscrowAmount, "25.30")

	session := f.submittedSession(t, seller, tester, campaign, decimal.NewFromInt(25))
	assert.Equal(t, domain.SessionStatusSubmitted, session.Status)

	rating := 5
	completed, err := f.service.CompleteSession(f.ctx, seller, session.SessionID, application.CompleteSessionInput{Rating: &rating, Comment: "Great test"})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, completed.Status)
	assert.True(t, completed.RewardCredited)
	mustEqualMoney(t, completed.RewardAmount, "23.00")
	mustEqualMoney(t, f.balance(t, tester), "23.00")

	detail, err := f.service.GetSession(f.ctx, tester, session.SessionID)
	require.NoError(t, err)
	statuses := make([]domain.SessionStatus, 0, len(detail.History))
	for _, h := range detail.History {
		statuses = append(statuses, h.ToStatus)
	}
	want := []domain.SessionStatus{
		domain.SessionStatusPending,
		domain.SessionStatusAccepted,
		domain.SessionStatusInProgress,
		domain.SessionStatusSubmitted,
		domain.SessionStatusCompleted,
	}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("session history mismatch (-want +got):\n%s", diff)
	}

	// The only slot is now completed, so the campaign closes itself.
	closed, err := f.service.GetCampaign(f.ctx, seller, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusCompleted, closed.Status)

	me, err := f.service.GetMe(f.ctx, tester)
	require.NoError(t, err)
	assert.Equal(t, 1, me.CompletedSessions)
	assert.InDelta(t, 5.0, me.AverageRating, 0.001)

	_, err = f.service.CompleteSession(f.ctx, seller, session.SessionID, application.CompleteSessionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestApplyGuards(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	spec := defaultCampaignSpec()
	spec.slots = 1
	spec.autoAccept = true
	campaign := f.activeCampaign(t, seller, spec)

	first := f.tester(t)
	session, err := f.service.ApplyToCampaign(f.ctx, first, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusAccepted, session.Status, "auto accept takes the slot immediately")

	_, err = f.service.ApplyToCampaign(f.ctx, first, campaign.CampaignID, application.ApplyInput{})
	assert.ErrorIs(t, err, domain.ErrNoSlotsAvailable)

	second := f.tester(t)
	_, err = f.service.ApplyToCampaign(f.ctx, second, campaign.CampaignID, application.ApplyInput{})
	assert.ErrorIs(t, err, domain.ErrNoSlotsAvailable)

	_, err = f.service.ApplyToCampaign(f.ctx, seller, campaign.CampaignID, application.ApplyInput{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Cancelling releases the slot for the next tester.
	_, err = f.service.CancelSession(f.ctx, first, session.SessionID, application.ReasonInput{})
	require.NoError(t, err)
	_, err = f.service.ApplyToCampaign(f.ctx, second, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)
}

func TestApplyTwiceIsConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())

	_, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)
	_, err = f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestApplyIsIdempotentPerKey(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())

	tester.IdempotencyKey = "apply-1"
	first, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{Message: "hello"})
	require.NoError(t, err)
	replay, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, replay.SessionID)

	_, err = f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{Message: "different"})
	assert.ErrorIs(t, err, domain.ErrIdempotencyConflict)
}

func TestSellerCannotCancelStartedSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())
	session := f.submittedSession(t, seller, tester, campaign, decimal.NewFromInt(20))

	_, err := f.service.CancelSession(f.ctx, seller, session.SessionID, application.ReasonInput{Reason: "changed my mind"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.CancelSession(f.ctx, tester, session.SessionID, application.ReasonInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "submitted sessions can only be completed or disputed")
}

func TestSubmitTestValidatesAnswers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	spec := defaultCampaignSpec()
	spec.autoAccept = true
	campaign := f.activeCampaign(t, seller, spec)

	session, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)
	_, err = f.service.SubmitTest(f.ctx, tester, session.SessionID, application.SubmitTestInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "purchase must be validated first")

	_, err = f.service.ValidatePurchase(f.ctx, tester, session.SessionID, application.ValidatePurchaseInput{
		OrderNumber: "A-1", ProofURL: "ftp://nope", ProductPrice: decimal.NewFromInt(20),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.ValidatePurchase(f.ctx, tester, session.SessionID, application.ValidatePurchaseInput{
		OrderNumber: "A-1", ProofURL: "https://cdn.example.com/a.png", ProductPrice: decimal.NewFromInt(20),
	})
	require.NoError(t, err)

	_, err = f.service.SubmitTest(f.ctx, tester, session.SessionID, application.SubmitTestInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "the required step is missing")
}

func TestRejectAndListSessions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())

	session, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)

	_, err = f.service.RejectSession(f.ctx, seller, session.SessionID, application.ReasonInput{Reason: "no"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "reason is too short")

	rejected, err := f.service.RejectSession(f.ctx, seller, session.SessionID, application.ReasonInput{Reason: "profile does not match"})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusRejected, rejected.Status)

	page, err := f.service.ListMySessions(f.ctx, tester, application.ListSessionsQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, session.SessionID, page.Items[0].SessionID)

	outsider := f.tester(t)
	_, err = f.service.GetSession(f.ctx, outsider, session.SessionID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A rejected application no longer blocks a new one.
	_, err = f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)
}

func TestCancelCampaignCancelsPendingApplications(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())

	session, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)

	cancelled, err := f.service.CancelCampaign(f.ctx, seller, campaign.CampaignID, application.ReasonInput{Reason: "out of stock"})
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusCancelled, cancelled.Status)

	detail, err := f.service.GetSession(f.ctx, tester, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCancelled, detail.Session.Status)
	assert.Equal(t, "out of stock", detail.Session.CancellationReason)
}

func TestCancelCampaignBlockedByRunningSessions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	spec := defaultCampaignSpec()
	spec.autoAccept = true
	campaign := f.activeCampaign(t, seller, spec)

	_, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)
	_, err = f.service.CancelCampaign(f.ctx, seller, campaign.CampaignID, application.ReasonInput{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSweepExpiresStalePendingSessionsAndEndsCampaigns(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())

	session, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)

	report, err := f.service.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.ExpiredSessions)

	f.clock.Advance(8 * 24 * time.Hour)
	report, err = f.service.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ExpiredSessions)

	detail, err := f.service.GetSession(f.ctx, tester, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCancelled, detail.Session.Status)

	f.clock.Advance(30 * 24 * time.Hour)
	report, err = f.service.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CompletedCampaigns)

	ended, err := f.service.GetCampaign(f.ctx, seller, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusCompleted, ended.Status)
}

// flakyUsers fails the next n profile writes.
type flakyUsers struct {
	ports.UserRepository
	failures atomic.Int32
}

func (u *flakyUsers) Update(ctx context.Context, user domain.User) error {
	if u.failures.Add(-1) >= 0 {
		return errors.New("users table locked")
	}
	return u.UserRepository.Update(ctx, user)
}

func TestCompletionStatsRecoverAfterFailedWrite(t *testing.T) {
	t.Parallel()

	var users *flakyUsers
	f := newFixture(t, withUsers(func(inner ports.UserRepository) ports.UserRepository {
		users = &flakyUsers{UserRepository: inner}
		return users
	}))
	seller := f.seller(t)
	tester := f.tester(t)
	spec := defaultCampaignSpec()
	spec.slots = 1
	first := f.submittedSession(t, seller, tester, f.activeCampaign(t, seller, spec), decimal.NewFromInt(20))
	second := f.submittedSession(t, seller, tester, f.activeCampaign(t, seller, spec), decimal.NewFromInt(20))

	four, five := 4, 5
	users.failures.Store(1)
	completed, err := f.service.CompleteSession(f.ctx, seller, first.SessionID, application.CompleteSessionInput{Rating: &four})
	require.NoError(t, err, "the completion is stored even when the stats write fails")
	assert.Equal(t, domain.SessionStatusCompleted, completed.Status)
	mustEqualMoney(t, f.balance(t, tester), "28.00")

	me, err := f.service.GetMe(f.ctx, tester)
	require.NoError(t, err)
	assert.Equal(t, 0, me.CompletedSessions)

	closed, err := f.service.GetCampaign(f.ctx, seller, first.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusCompleted, closed.Status)

	_, err = f.service.CompleteSession(f.ctx, seller, second.SessionID, application.CompleteSessionInput{Rating: &five})
	require.NoError(t, err)

	me, err = f.service.GetMe(f.ctx, tester)
	require.NoError(t, err)
	assert.Equal(t, 2, me.CompletedSessions, "the recount includes the earlier completion")
	assert.Equal(t, 2, me.RatingCount)
	assert.InDelta(t, 4.5, me.AverageRating, 0.001)
}
