package application_test

import (
	"testing"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminConfirmsCampaignPayment(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withPayments())
	seller := f.seller(t)
	draft := f.draftCampaign(t, seller, defaultCampaignSpec())

	_, err := f.service.ConfirmCampaignPayment(f.ctx, f.admin, draft.CampaignID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "a draft is not awaiting payment")

	res, err := f.service.ActivateCampaign(f.ctx, seller, draft.CampaignID)
	require.NoError(t, err)
	require.Equal(t, domain.CampaignStatusPendingPayment, res.Campaign.Status)

	_, err = f.service.ConfirmCampaignPayment(f.ctx, seller, draft.CampaignID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.service.ConfirmCampaignPayment(f.ctx, f.admin, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	confirmed, err := f.service.ConfirmCampaignPayment(f.ctx, f.admin, draft.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusActive, confirmed.Status)
	require.NotNil(t, confirmed.ActivatedAt)
	assert.Equal(t, confirmed.TotalSlots, confirmed.AvailableSlots)

	again, err := f.service.ConfirmCampaignPayment(f.ctx, f.admin, draft.CampaignID)
	require.NoError(t, err, "confirming twice is harmless")
	assert.Equal(t, domain.CampaignStatusActive, again.Status)

	// A late webhook for the same intent changes nothing.
	payload := []byte(`{"id":"evt_late","type":"payment_intent.succeeded","payment_intent":"` + res.Campaign.PaymentIntentID + `"}`)
	require.NoError(t, f.service.HandleStripeWebhook(f.ctx, payload, f.payments.Sign(payload)))

	got, err := f.service.GetCampaign(f.ctx, seller, draft.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusActive, got.Status)
	assert.Equal(t, confirmed.ActivatedAt.Unix(), got.ActivatedAt.Unix())
}
