package domain_test

import (
	"testing"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(money(want)) {
		t.Fatalf("amount = %s, want %s", got.StringFixed(2), want)
	}
}

func sampleCampaign() domain.Campaign {
	return domain.Campaign{
		TotalSlots: 2,
		StartDate:  referenceNow,
		EndDate:    referenceNow.Add(30 * 24 * time.Hour),
		Offers: []domain.CampaignOffer{{
			ProductID:          uuid.New(),
			Quantity:           1,
			ExpectedPrice:      money("20"),
			ShippingCost:       money("5"),
			ReimbursedPrice:    true,
			ReimbursedShipping: true,
			Bonus:              money("3"),
		}},
		Procedure: []domain.ProcedureStep{{StepID: uuid.New(), Title: "Unbox", Type: domain.StepTypeText, IsRequired: true}},
	}
}

func TestEscrowIncludesCommission(t *testing.T) {
	t.Parallel()

	c := sampleCampaign()
	assertMoney(t, "28", c.RewardPerSlot())
	assertMoney(t, "61.60", c.ComputeEscrow(money("10")))
	assertMoney(t, "56", c.ComputeEscrow(decimal.Zero))

	c.Offers = append(c.Offers, domain.CampaignOffer{ProductID: uuid.New(), Quantity: 2, ExpectedPrice: money("9.99"), Bonus: money("1")})
	assertMoney(t, "30", c.RewardPerSlot())
}

func TestComputeRewardCapsPurchase(t *testing.T) {
	t.Parallel()

	capped := sampleCampaign()
	maxPrice := money("15")
	capped.Offers[0].MaxReimbursedPrice = &maxPrice

	cases := []struct {
		name     string
		campaign domain.Campaign
		price    string
		shipping string
		want     string
	}{
		{"exact purchase", sampleCampaign(), "20", "5", "28"},
		{"cheaper purchase", sampleCampaign(), "15.50", "0", "18.50"},
		{"overpriced purchase", sampleCampaign(), "25", "10", "28"},
		{"negative amounts", sampleCampaign(), "-4", "-1", "3"},
		{"max reimbursed price", capped, "20", "5", "23"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertMoney(t, tc.want, tc.campaign.ComputeReward(money(tc.price), money(tc.shipping)))
		})
	}
	assertMoney(t, "23", capped.RewardPerSlot())
}

func TestNonReimbursedOfferOnlyPaysBonus(t *testing.T) {
	t.Parallel()

	c := sampleCampaign()
	c.Offers[0].ReimbursedPrice = false
	c.Offers[0].ReimbursedShipping = false
	assertMoney(t, "3", c.RewardPerSlot())
	assertMoney(t, "3", c.ComputeReward(money("20"), money("5")))
}

func TestValidateForActivation(t *testing.T) {
	t.Parallel()

	require.NoError(t, sampleCampaign().ValidateForActivation(referenceNow))

	cases := map[string]func(c *domain.Campaign){
		"no offers":    func(c *domain.Campaign) { c.Offers = nil },
		"no procedure": func(c *domain.Campaign) { c.Procedure = nil },
		"no slots":     func(c *domain.Campaign) { c.TotalSlots = 0 },
		"end before start": func(c *domain.Campaign) {
			c.EndDate = c.StartDate.Add(-time.Hour)
		},
		"ended": func(c *domain.Campaign) {
			c.StartDate = referenceNow.Add(-48 * time.Hour)
			c.EndDate = referenceNow.Add(-time.Hour)
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := sampleCampaign()
			mutate(&c)
			assert.ErrorIs(t, c.ValidateForActivation(referenceNow), domain.ErrInvalidInput)
		})
	}
}

func TestAcceptsApplications(t *testing.T) {
	t.Parallel()

	c := sampleCampaign()
	c.AvailableSlots = 1
	assert.False(t, c.AcceptsApplications(referenceNow), "draft")

	c.Status = domain.CampaignStatusActive
	assert.True(t, c.AcceptsApplications(referenceNow))
	assert.False(t, c.AcceptsApplications(c.EndDate.Add(time.Second)))

	c.AvailableSlots = 0
	assert.False(t, c.AcceptsApplications(referenceNow))
}

func TestStateMachines(t *testing.T) {
	t.Parallel()

	assert.NoError(t, domain.ValidateCampaignTransition(domain.CampaignStatusDraft, domain.CampaignStatusPendingPayment))
	assert.NoError(t, domain.ValidateCampaignTransition(domain.CampaignStatusActive, domain.CampaignStatusCompleted))
	assert.ErrorIs(t, domain.ValidateCampaignTransition(domain.CampaignStatusCompleted, domain.CampaignStatusActive), domain.ErrInvalidStateTransition)
	assert.ErrorIs(t, domain.ValidateCampaignTransition(domain.CampaignStatusActive, domain.CampaignStatusDraft), domain.ErrInvalidStateTransition)

	assert.NoError(t, domain.ValidateSessionTransition(domain.SessionStatusPending, domain.SessionStatusAccepted))
	assert.NoError(t, domain.ValidateSessionTransition(domain.SessionStatusCompleted, domain.SessionStatusDisputed))
	assert.ErrorIs(t, domain.ValidateSessionTransition(domain.SessionStatusPending, domain.SessionStatusCompleted), domain.ErrInvalidStateTransition)
	assert.ErrorIs(t, domain.ValidateSessionTransition(domain.SessionStatusRejected, domain.SessionStatusPending), domain.ErrInvalidStateTransition)

	assert.NoError(t, domain.ValidateDisputeTransition(domain.DisputeStatusOpen, domain.DisputeStatusClosed))
	assert.ErrorIs(t, domain.ValidateDisputeTransition(domain.DisputeStatusInReview, domain.DisputeStatusClosed), domain.ErrInvalidStateTransition)

	assert.NoError(t, domain.ValidateWithdrawalTransition(domain.WithdrawalProcessing, domain.WithdrawalFailed))
	assert.ErrorIs(t, domain.ValidateWithdrawalTransition(domain.WithdrawalProcessing, domain.WithdrawalCancelled), domain.ErrInvalidStateTransition)
}

func TestSessionStatusPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.SessionStatusDisputed.IsOpen())
	assert.False(t, domain.SessionStatusCompleted.IsOpen())
	assert.True(t, domain.SessionStatusCompleted.HoldsSlot())
	assert.False(t, domain.SessionStatusPending.HoldsSlot())
	assert.True(t, domain.SessionStatusInProgress.Disputable())
	assert.False(t, domain.SessionStatusAccepted.Disputable())
}
