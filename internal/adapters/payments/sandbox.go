package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SandboxGateway is an in-process PaymentGateway for local runs and tests.
// Accounts are created fully onboarded and transfers always succeed unless
// FailTransfers is set.
type SandboxGateway struct {
	mu            sync.Mutex
	secret        string
	accounts      map[string]ports.ConnectedAccount
	intents       map[string]ports.PaymentIntent
	transfers     map[string]string
	FailTransfers bool
}

func NewSandboxGateway(webhookSecret string) *SandboxGateway {
	return &SandboxGateway{
		secret:    webhookSecret,
		accounts:  map[string]ports.ConnectedAccount{},
		intents:   map[string]ports.PaymentIntent{},
		transfers: map[string]string{},
	}
}

func (g *SandboxGateway) CreateConnectedAccount(_ context.Context, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := "acct_" + uuid.NewString()[:12]
	g.accounts[id] = ports.ConnectedAccount{AccountID: id, DetailsSubmitted: true, PayoutsEnabled: true, ChargesEnabled: true}
	return id, nil
}

func (g *SandboxGateway) CreateOnboardingLink(_ context.Context, accountID, _, returnURL string) (string, error) {
	return returnURL + "?account=" + accountID, nil
}

func (g *SandboxGateway) GetConnectedAccount(_ context.Context, accountID string) (ports.ConnectedAccount, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	account, ok := g.accounts[accountID]
	if !ok {
		return ports.ConnectedAccount{}, fmt.Errorf("no such account: %s", accountID)
	}
	return account, nil
}

// SetAccount overrides the onboarding flags of a sandbox account.
func (g *SandboxGateway) SetAccount(account ports.ConnectedAccount) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accounts[account.AccountID] = account
}

func (g *SandboxGateway) CreatePaymentIntent(_ context.Context, amount decimal.Decimal, _ string, _ map[string]string) (ports.PaymentIntent, error) {
	if !amount.IsPositive() {
		return ports.PaymentIntent{}, errors.New("amount must be positive")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := "pi_" + uuid.NewString()[:12]
	intent := ports.PaymentIntent{IntentID: id, ClientSecret: id + "_secret", Status: "requires_payment_method"}
	g.intents[id] = intent
	return intent, nil
}

func (g *SandboxGateway) CreateTransfer(_ context.Context, accountID string, amount decimal.Decimal, _, reference string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailTransfers {
		return "", errors.New("sandbox transfer declined")
	}
	if _, ok := g.accounts[accountID]; !ok {
		return "", fmt.Errorf("no such account: %s", accountID)
	}
	if !amount.IsPositive() {
		return "", errors.New("amount must be positive")
	}
	if id, ok := g.transfers[reference]; ok {
		return id, nil
	}
	id := "tr_" + uuid.NewString()[:12]
	g.transfers[reference] = id
	return id, nil
}

type sandboxEvent struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Account  *sandboxAccount   `json:"account,omitempty"`
	IntentID string            `json:"payment_intent,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type sandboxAccount struct {
	ID               string `json:"id"`
	DetailsSubmitted bool   `json:"details_submitted"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
}

// Sign returns the signature ParseWebhook expects for payload.
func (g *SandboxGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *SandboxGateway) ParseWebhook(payload []byte, signature string) (ports.WebhookEvent, error) {
	if !hmac.Equal([]byte(g.Sign(payload)), []byte(signature)) {
		return ports.WebhookEvent{}, errors.New("invalid webhook signature")
	}
	var raw sandboxEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ports.WebhookEvent{}, fmt.Errorf("decode webhook: %w", err)
	}
	out := ports.WebhookEvent{EventID: raw.ID, Type: raw.Type, Metadata: raw.Metadata}
	if raw.Account != nil {
		out.Account = &ports.ConnectedAccount{
			AccountID:        raw.Account.ID,
			DetailsSubmitted: raw.Account.DetailsSubmitted,
			PayoutsEnabled:   raw.Account.PayoutsEnabled,
		}
	}
	if raw.IntentID != "" {
		out.Intent = &ports.PaymentIntent{IntentID: raw.IntentID, Status: "succeeded"}
	}
	return out, nil
}
