package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/cache"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/memory"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/payments"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/rules"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/security"
	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const testPassword = "SecurePass123"

var (
	signerOnce sync.Once
	signer     *security.JWTSigner
	signerErr  error
)

// sharedSigner avoids generating an RSA key for every test.
func sharedSigner(t *testing.T) *security.JWTSigner {
	t.Helper()
	signerOnce.Do(func() {
		signer, signerErr = security.NewEphemeralJWTSigner("test-key")
	})
	if signerErr != nil {
		t.Fatalf("create signer: %v", signerErr)
	}
	return signer
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx      context.Context
	service  *application.Service
	repos    *memory.Repositories
	cache    *cache.MemoryCache
	payments *payments.SandboxGateway
	clock    *clock
	admin    application.Actor
	category domain.Category
}

// fixtureOption adjusts the service wiring before it is built. Wrapped
// repositories still share state with fixture.repos.
type fixtureOption func(*application.Dependencies)

func withPayments() fixtureOption {
	return func(deps *application.Dependencies) { deps.Config.PaymentsEnabled = true }
}

func withSessions(wrap func(ports.SessionRepository) ports.SessionRepository) fixtureOption {
	return func(deps *application.Dependencies) { deps.Sessions = wrap(deps.Sessions) }
}

func withUsers(wrap func(ports.UserRepository) ports.UserRepository) fixtureOption {
	return func(deps *application.Dependencies) { deps.Users = wrap(deps.Users) }
}

func withWallets(wrap func(ports.WalletRepository) ports.WalletRepository) fixtureOption {
	return func(deps *application.Dependencies) { deps.Wallets = wrap(deps.Wallets) }
}

func withScanLimits(batch, maxPages int) fixtureOption {
	return func(deps *application.Dependencies) {
		deps.Config.EligibilityScanBatch = batch
		deps.Config.EligibilityScanMaxPages = maxPages
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	evaluator, err := rules.NewCELEvaluator()
	if err != nil {
		t.Fatalf("create cel evaluator: %v", err)
	}
	cfg := application.Config{
		ServiceName:       "super-try-api-test",
		CommissionPercent: decimal.NewFromInt(10),
		Currency:          "EUR",
	}
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	repos := memory.NewRepositories()
	memCache := cache.NewMemoryCache()
	gateway := payments.NewSandboxGateway("whsec_test")
	deps := application.Dependencies{
		Config:        cfg,
		Users:         repos.Users,
		Categories:    repos.Categories,
		Products:      repos.Products,
		Campaigns:     repos.Campaigns,
		Sessions:      repos.Sessions,
		BonusTasks:    repos.BonusTasks,
		Disputes:      repos.Disputes,
		Wallets:       repos.Wallets,
		Withdrawals:   repos.Withdrawals,
		Reviews:       repos.Reviews,
		Notifications: repos.Notifications,
		SystemLogs:    repos.SystemLogs,
		Outbox:        repos.Outbox,
		EventDedup:    repos.EventDedup,
		Idempotency:   repos.Idempotency,
		Cache:         memCache,
		Tokens:        sharedSigner(t),
		Hasher:        security.NewBcryptHasher(4),
		Payments:      gateway,
		Rules:         evaluator,
		Clock:         clk.Now,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	svc := application.NewService(deps)
	f := &fixture{
		ctx:      context.Background(),
		service:  svc,
		repos:    repos,
		cache:    memCache,
		payments: gateway,
		clock:    clk,
	}
	adminUser, err := svc.CreateAdmin(f.ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	f.admin = application.Actor{UserID: adminUser.UserID, Role: domain.RoleAdmin}
	f.category, err = svc.CreateCategory(f.ctx, f.admin, application.CategoryInput{Name: "Electronics"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return f
}

func actorOf(user domain.User) application.Actor {
	return application.Actor{UserID: user.UserID, Role: user.Role}
}

func (f *fixture) register(t *testing.T, email, role string, mutate func(*application.RegisterInput)) application.Actor {
	t.Helper()
	input := application.RegisterInput{
		Email:     email,
		Password:  testPassword,
		Role:      role,
		FirstName: "Test",
		LastName:  "User",
	}
	if mutate != nil {
		mutate(&input)
	}
	out, err := f.service.Register(f.ctx, input)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return actorOf(out.User)
}

func (f *fixture) seller(t *testing.T) application.Actor {
	t.Helper()
	return f.register(t, "seller-"+uuid.NewString()[:8]+"@example.com", "SELLER", func(in *application.RegisterInput) {
		in.CompanyName = "Acme"
	})
}

func (f *fixture) tester(t *testing.T) application.Actor {
	t.Helper()
	return f.register(t, "tester-"+uuid.NewString()[:8]+"@example.com", "TESTER", func(in *application.RegisterInput) {
		in.BirthDate = "1995-06-15"
		in.Gender = "FEMALE"
		in.Country = "FR"
	})
}

type campaignSpec struct {
	slots      int
	autoAccept bool
	price      decimal.Decimal
	shipping   decimal.Decimal
	maxPrice   *decimal.Decimal
	bonus      decimal.Decimal
	criteria   *domain.CampaignCriteria
}

func defaultCampaignSpec() campaignSpec {
	return campaignSpec{
		slots:    2,
		price:    decimal.NewFromInt(20),
		shipping: decimal.NewFromInt(5),
		bonus:    decimal.NewFromInt(3),
	}
}

// draftCampaign builds a campaign with one product and a single text step.
func (f *fixture) draftCampaign(t *testing.T, seller application.Actor, spec campaignSpec) domain.Campaign {
	t.Helper()
	now := f.clock.Now()
	product, err := f.service.CreateProduct(f.ctx, seller, application.ProductInput{
		CategoryID:   f.category.CategoryID,
		Name:         "Wireless earbuds",
		Price:        spec.price,
		ShippingCost: spec.shipping,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	campaign, err := f.service.CreateCampaign(f.ctx, seller, application.CampaignInput{
		CategoryID:             f.category.CategoryID,
		Title:                  "Earbuds test",
		Description:            "Try the earbuds for a week.",
		StartDate:              now,
		EndDate:                now.Add(30 * 24 * time.Hour),
		TotalSlots:             spec.slots,
		AutoAcceptApplications: spec.autoAccept,
	})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	if _, err := f.service.SetOffers(f.ctx, seller, campaign.CampaignID, []domain.CampaignOffer{{
		ProductID:          product.ProductID,
		Quantity:           1,
		ExpectedPrice:      spec.price,
		ShippingCost:       spec.shipping,
		ReimbursedPrice:    true,
		ReimbursedShipping: true,
		MaxReimbursedPrice: spec.maxPrice,
		Bonus:              spec.bonus,
	}}); err != nil {
		t.Fatalf("set offers: %v", err)
	}
	if _, err := f.service.SetProcedure(f.ctx, seller, campaign.CampaignID, []application.ProcedureStepInput{{
		Title:      "Describe the sound",
		Type:       "TEXT",
		IsRequired: true,
	}}); err != nil {
		t.Fatalf("set procedure: %v", err)
	}
	if spec.criteria != nil {
		if _, err := f.service.SetCriteria(f.ctx, seller, campaign.CampaignID, *spec.criteria); err != nil {
			t.Fatalf("set criteria: %v", err)
		}
	}
	out, err := f.service.GetCampaign(f.ctx, seller, campaign.CampaignID)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	return out
}

func (f *fixture) activeCampaign(t *testing.T, seller application.Actor, spec campaignSpec) domain.Campaign {
	t.Helper()
	campaign := f.draftCampaign(t, seller, spec)
	res, err := f.service.ActivateCampaign(f.ctx, seller, campaign.CampaignID)
	if err != nil {
		t.Fatalf("activate campaign: %v", err)
	}
	if res.Campaign.Status != domain.CampaignStatusActive {
		t.Fatalf("campaign status = %s, want ACTIVE", res.Campaign.Status)
	}
	return res.Campaign
}

// submittedSession drives a session through apply, accept, purchase and submit.
func (f *fixture) submittedSession(t *testing.T, seller, tester application.Actor, campaign domain.Campaign, paid decimal.Decimal) domain.Session {
	t.Helper()
	session, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{Message: "I love earbuds"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if session.Status == domain.SessionStatusPending {
		if session, err = f.service.AcceptSession(f.ctx, seller, session.SessionID); err != nil {
			t.Fatalf("accept: %v", err)
		}
	}
	if session, err = f.service.ValidatePurchase(f.ctx, tester, session.SessionID, application.ValidatePurchaseInput{
		OrderNumber:  "ORDER-1",
		ProofURL:     "https://cdn.example.com/proof.png",
		ProductPrice: paid,
		ShippingCost: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("validate purchase: %v", err)
	}
	if session, err = f.service.SubmitTest(f.ctx, tester, session.SessionID, application.SubmitTestInput{
		Answers: []domain.StepAnswer{{StepID: campaign.Procedure[0].StepID, Text: "Crisp highs, decent bass."}},
	}); err != nil {
		t.Fatalf("submit test: %v", err)
	}
	return session
}

func (f *fixture) balance(t *testing.T, tester application.Actor) decimal.Decimal {
	t.Helper()
	wallet, err := f.service.GetWallet(f.ctx, tester)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return wallet.Balance
}

func mustEqualMoney(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("amount = %s, want %s", got.StringFixed(2), want)
	}
}
