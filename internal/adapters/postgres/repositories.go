package postgres

import (
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
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
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         &userRepository{db: db},
		Categories:    &categoryRepository{db: db},
		Products:      &productRepository{db: db},
		Campaigns:     &campaignRepository{db: db},
		Sessions:      &sessionRepository{db: db},
		BonusTasks:    &bonusTaskRepository{db: db},
		Disputes:      &disputeRepository{db: db},
		Wallets:       &walletRepository{db: db},
		Withdrawals:   &withdrawalRepository{db: db},
		Reviews:       &reviewRepository{db: db},
		Notifications: &notificationRepository{db: db},
		SystemLogs:    &systemLogRepository{db: db},
		Outbox:        &outboxRepository{db: db},
		EventDedup:    &eventDedupRepository{db: db},
		Idempotency:   &idempotencyRepository{db: db},
	}
}
