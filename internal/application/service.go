package application

import (
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/shopspring/decimal"
)

type Service struct {
	cfg Config

	users         ports.UserRepository
	categories    ports.CategoryRepository
	products      ports.ProductRepository
	campaigns     ports.CampaignRepository
	sessions      ports.SessionRepository
	bonusTasks    ports.BonusTaskRepository
	disputes      ports.DisputeRepository
	wallets       ports.WalletRepository
	withdrawals   ports.WithdrawalRepository
	reviews       ports.ReviewRepository
	notifications ports.NotificationRepository
	systemLogs    ports.SystemLogRepository
	outbox        ports.OutboxRepository
	eventDedup    ports.EventDedupRepository
	idempotency   ports.IdempotencyRepository

	cache    ports.Cache
	tokens   ports.TokenSigner
	hasher   ports.PasswordHasher
	payments ports.PaymentGateway
	storage  ports.ObjectStorage
	rules    ports.RuleEvaluator

	nowFn func() time.Time
}

type Dependencies struct {
	Config Config

	Users         ports.UserRepository
	Categories    ports.CategoryRepository
	Products      ports.ProductRepository
	Campaigns     ports.CampaignRepository
	Sessions      ports.SessionRepository
	BonusTasks    ports.BonusTaskRepository
	Disputes      ports.DisputeRepository
	Wallets       ports.WalletRepository
	Withdrawals   ports.WithdrawalRepository
	Reviews       ports.ReviewRepository
	Notifications ports.NotificationRepository
	SystemLogs    ports.SystemLogRepository
	Outbox        ports.OutboxRepository
	EventDedup    ports.EventDedupRepository
	Idempotency   ports.IdempotencyRepository

	Cache    ports.Cache
	Tokens   ports.TokenSigner
	Hasher   ports.PasswordHasher
	Payments ports.PaymentGateway
	Storage  ports.ObjectStorage
	Rules    ports.RuleEvaluator

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "super-try-api"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.LoginMaxAttempts <= 0 {
		cfg.LoginMaxAttempts = 5
	}
	if cfg.LoginLockoutWindow <= 0 {
		cfg.LoginLockoutWindow = 15 * time.Minute
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.CampaignCacheTTL <= 0 {
		cfg.CampaignCacheTTL = time.Minute
	}
	if cfg.CommissionPercent.IsNegative() {
		cfg.CommissionPercent = decimal.Zero
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	if cfg.SessionPendingExpiry <= 0 {
		cfg.SessionPendingExpiry = 7 * 24 * time.Hour
	}
	if cfg.LogRetention <= 0 {
		cfg.LogRetention = 90 * 24 * time.Hour
	}
	if cfg.UploadURLTTL <= 0 {
		cfg.UploadURLTTL = 15 * time.Minute
	}
	if cfg.StripeDefaultCountry == "" {
		cfg.StripeDefaultCountry = "FR"
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = 100
	}
	if cfg.EligibilityScanBatch <= 0 {
		cfg.EligibilityScanBatch = 200
	}
	if cfg.EligibilityScanMaxPages <= 0 {
		cfg.EligibilityScanMaxPages = 50
	}

	nowFn := time.Now
	if deps.Clock != nil {
		nowFn = deps.Clock
	}

	return &Service{
		cfg:           cfg,
		users:         deps.Users,
		categories:    deps.Categories,
		products:      deps.Products,
		campaigns:     deps.Campaigns,
		sessions:      deps.Sessions,
		bonusTasks:    deps.BonusTasks,
		disputes:      deps.Disputes,
		wallets:       deps.Wallets,
		withdrawals:   deps.Withdrawals,
		reviews:       deps.Reviews,
		notifications: deps.Notifications,
		systemLogs:    deps.SystemLogs,
		outbox:        deps.Outbox,
		eventDedup:    deps.EventDedup,
		idempotency:   deps.Idempotency,
		cache:         deps.Cache,
		tokens:        deps.Tokens,
		hasher:        deps.Hasher,
		payments:      deps.Payments,
		storage:       deps.Storage,
		rules:         deps.Rules,
		nowFn:         func() time.Time { return nowFn().UTC() },
	}
}

func (s *Service) Config() Config {
	return s.cfg
}
