package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

type ConnectedAccount struct {
	AccountID        string
	DetailsSubmitted bool
	PayoutsEnabled   bool
	ChargesEnabled   bool
}

type PaymentIntent struct {
	IntentID     string
	ClientSecret string
	Status       string
}

type WebhookEvent struct {
	EventID  string
	Type     string
	Account  *ConnectedAccount
	Intent   *PaymentIntent
	Metadata map[string]string
}

// PaymentGateway covers the marketplace side of Stripe Connect: seller
// charges, tester onboarding and payouts.
type PaymentGateway interface {
	CreateConnectedAccount(ctx context.Context, email, country string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	GetConnectedAccount(ctx context.Context, accountID string) (ConnectedAccount, error)
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (PaymentIntent, error)
	CreateTransfer(ctx context.Context, accountID string, amount decimal.Decimal, currency, reference string) (string, error)
	ParseWebhook(payload []byte, signature string) (WebhookEvent, error)
}
