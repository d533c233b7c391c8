package payments

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

func TestSandboxTransfersAreIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewSandboxGateway("whsec_test")
	account, err := g.CreateConnectedAccount(ctx, "tester@example.com", "FR")
	require.NoError(t, err)

	link, err := g.CreateOnboardingLink(ctx, account, "https://app.example.com/refresh", "https://app.example.com/done")
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/done?account="+account, link)

	first, err := g.CreateTransfer(ctx, account, decimal.NewFromInt(20), "EUR", "withdrawal-1")
	require.NoError(t, err)
	again, err := g.CreateTransfer(ctx, account, decimal.NewFromInt(20), "EUR", "withdrawal-1")
	require.NoError(t, err)
	assert.Equal(t, first, again, "same reference, same transfer")

	_, err = g.CreateTransfer(ctx, "acct_missing", decimal.NewFromInt(20), "EUR", "withdrawal-2")
	assert.Error(t, err)
	_, err = g.CreateTransfer(ctx, account, decimal.Zero, "EUR", "withdrawal-3")
	assert.Error(t, err)

	g.FailTransfers = true
	_, err = g.CreateTransfer(ctx, account, decimal.NewFromInt(20), "EUR", "withdrawal-4")
	assert.Error(t, err)
}

func TestSandboxWebhookSignature(t *testing.T) {
	t.Parallel()

	g := NewSandboxGateway("whsec_test")
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","payment_intent":"pi_1","metadata":{"campaign_id":"c1"}}`)

	event, err := g.ParseWebhook(payload, g.Sign(payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.EventID)
	require.NotNil(t, event.Intent)
	assert.Equal(t, "pi_1", event.Intent.IntentID)
	assert.Equal(t, "c1", event.Metadata["campaign_id"])

	_, err = g.ParseWebhook(payload, NewSandboxGateway("other").Sign(payload))
	assert.ErrorContains(t, err, "signature")

	account := []byte(`{"id":"evt_2","type":"account.updated","account":{"id":"acct_1","details_submitted":true,"payouts_enabled":false}}`)
	event, err = g.ParseWebhook(account, g.Sign(account))
	require.NoError(t, err)
	require.NotNil(t, event.Account)
	assert.True(t, event.Account.DetailsSubmitted)
	assert.False(t, event.Account.PayoutsEnabled)
}

func TestStripeWebhookVerification(t *testing.T) {
	t.Parallel()

	const secret = "whsec_integration"
	g, err := NewStripeGateway("sk_test_dummy", secret)
	require.NoError(t, err)

	payload := []byte(`{
		"id": "evt_3",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_9", "object": "payment_intent", "status": "succeeded", "metadata": {"campaign_id": "c9"}}}
	}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})

	event, err := g.ParseWebhook(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "payment_intent.succeeded", event.Type)
	require.NotNil(t, event.Intent)
	assert.Equal(t, "pi_9", event.Intent.IntentID)
	assert.Equal(t, "succeeded", event.Intent.Status)
	assert.Equal(t, "c9", event.Metadata["campaign_id"])

	_, err = g.ParseWebhook(signed.Payload, "t=1,v1=deadbeef")
	assert.Error(t, err)

	_, err = NewStripeGateway(" ", secret)
	assert.Error(t, err)
	unsigned, err := NewStripeGateway("sk_test_dummy", "")
	require.NoError(t, err)
	_, err = unsigned.ParseWebhook(signed.Payload, signed.Header)
	assert.ErrorContains(t, err, "not configured")
}
