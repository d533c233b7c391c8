package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway talks to Stripe Connect with a platform secret key.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("stripe secret key is required")
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}, nil
}

func (g *StripeGateway) CreateConnectedAccount(ctx context.Context, email, country string) (string, error) {
	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Email:   stripe.String(email),
		Country: stripe.String(strings.ToUpper(country)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx
	account, err := g.api.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("create connected account: %w", err)
	}
	return account.ID, nil
}

func (g *StripeGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx
	link, err := g.api.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("create account link: %w", err)
	}
	return link.URL, nil
}

func (g *StripeGateway) GetConnectedAccount(ctx context.Context, accountID string) (ports.ConnectedAccount, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx
	account, err := g.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return ports.ConnectedAccount{}, fmt.Errorf("get connected account: %w", err)
	}
	return connectedAccount(account), nil
}

func connectedAccount(a *stripe.Account) ports.ConnectedAccount {
	return ports.ConnectedAccount{
		AccountID:        a.ID,
		DetailsSubmitted: a.DetailsSubmitted,
		PayoutsEnabled:   a.PayoutsEnabled,
		ChargesEnabled:   a.ChargesEnabled,
	}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (ports.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(domain.ToMinorUnits(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if id := metadata["campaign_id"]; id != "" {
		params.SetIdempotencyKey("campaign-escrow-" + id)
	}
	params.Context = ctx
	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return ports.PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return ports.PaymentIntent{IntentID: intent.ID, ClientSecret: intent.ClientSecret, Status: string(intent.Status)}, nil
}

// CreateTransfer pays a connected account. The reference doubles as the
// Stripe idempotency key so a retried payout never transfers twice.
func (g *StripeGateway) CreateTransfer(ctx context.Context, accountID string, amount decimal.Decimal, currency, reference string) (string, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(domain.ToMinorUnits(amount)),
		Currency:      stripe.String(strings.ToLower(currency)),
		Destination:   stripe.String(accountID),
		TransferGroup: stripe.String(reference),
	}
	params.AddMetadata("withdrawal_id", reference)
	params.SetIdempotencyKey("withdrawal-" + reference)
	params.Context = ctx
	transfer, err := g.api.Transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("create transfer: %w", err)
	}
	return transfer.ID, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (ports.WebhookEvent, error) {
	if g.webhookSecret == "" {
		return ports.WebhookEvent{}, errors.New("webhook secret is not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return ports.WebhookEvent{}, fmt.Errorf("verify webhook: %w", err)
	}
	out := ports.WebhookEvent{EventID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}
	switch event.Type {
	case "account.updated":
		var account stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
			return ports.WebhookEvent{}, fmt.Errorf("decode account: %w", err)
		}
		mapped := connectedAccount(&account)
		out.Account = &mapped
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return ports.WebhookEvent{}, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Intent = &ports.PaymentIntent{IntentID: intent.ID, Status: string(intent.Status)}
		out.Metadata = intent.Metadata
	}
	return out, nil
}
