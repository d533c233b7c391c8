package ports

import (
	"context"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserFilter struct {
	Role   domain.Role
	Status domain.UserStatus
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByStripeAccount(ctx context.Context, accountID string) (domain.User, error)
	Update(ctx context.Context, user domain.User) error
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
	// ListEligibleTesters returns active testers matching the structured
	// criteria predicates, ordered by rating then completed sessions.
	ListEligibleTesters(ctx context.Context, filter domain.TesterFilter, limit, offset int) ([]domain.User, error)
	ListActiveIDs(ctx context.Context, role domain.Role) ([]uuid.UUID, error)
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category domain.Category) error
	Update(ctx context.Context, category domain.Category) error
	Delete(ctx context.Context, categoryID uuid.UUID) error
	GetByID(ctx context.Context, categoryID uuid.UUID) (domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Category, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	GetByID(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]domain.Product, int, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
}

type CampaignFilter struct {
	SellerID   *uuid.UUID
	CategoryID *uuid.UUID
	Status     domain.CampaignStatus
	Search     string
	Limit      int
	Offset     int
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign domain.Campaign) error
	// Update writes the campaign only while its stored status is still expected.
	// A status moved by another writer yields domain.ErrConflict.
	Update(ctx context.Context, campaign domain.Campaign, expected domain.CampaignStatus) error
	GetByID(ctx context.Context, campaignID uuid.UUID) (domain.Campaign, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (domain.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]domain.Campaign, int, error)
	// ReserveSlot atomically takes one available slot or fails with
	// domain.ErrNoSlotsAvailable.
	ReserveSlot(ctx context.Context, campaignID uuid.UUID) error
	ReleaseSlot(ctx context.Context, campaignID uuid.UUID) error
	ListEndedActive(ctx context.Context, now time.Time, limit int) ([]domain.Campaign, error)
	CountByStatus(ctx context.Context) (map[domain.CampaignStatus]int, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
}

type SessionFilter struct {
	TesterID   *uuid.UUID
	SellerID   *uuid.UUID
	CampaignID *uuid.UUID
	Status     domain.SessionStatus
	Limit      int
	Offset     int
}

type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	Update(ctx context.Context, session domain.Session, expected domain.SessionStatus) error
	GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error)
	FindOpen(ctx context.Context, campaignID, testerID uuid.UUID) (domain.Session, error)
	List(ctx context.Context, filter SessionFilter) ([]domain.Session, int, error)
	ListStalePending(ctx context.Context, appliedBefore time.Time, limit int) ([]domain.Session, error)
	CountByCampaign(ctx context.Context, campaignID uuid.UUID, statuses ...domain.SessionStatus) (int, error)
	CountByStatus(ctx context.Context) (map[domain.SessionStatus]int, error)
	// TesterStats counts every session of the tester that reached completion,
	// including ones disputed afterwards, with the seller ratings they carry.
	TesterStats(ctx context.Context, testerID uuid.UUID) (domain.TesterStats, error)
	AppendHistory(ctx context.Context, row domain.SessionStateHistory) error
	ListHistory(ctx context.Context, sessionID uuid.UUID) ([]domain.SessionStateHistory, error)
}

type BonusTaskRepository interface {
	Create(ctx context.Context, task domain.BonusTask) error
	Update(ctx context.Context, task domain.BonusTask, expected domain.BonusTaskStatus) error
	GetByID(ctx context.Context, taskID uuid.UUID) (domain.BonusTask, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.BonusTask, error)
}

type DisputeFilter struct {
	UserID *uuid.UUID
	Status domain.DisputeStatus
	Limit  int
	Offset int
}

type DisputeRepository interface {
	Create(ctx context.Context, dispute domain.Dispute) error
	Update(ctx context.Context, dispute domain.Dispute, expected domain.DisputeStatus) error
	GetByID(ctx context.Context, disputeID uuid.UUID) (domain.Dispute, error)
	GetOpenBySession(ctx context.Context, sessionID uuid.UUID) (domain.Dispute, error)
	List(ctx context.Context, filter DisputeFilter) ([]domain.Dispute, int, error)
	CountOpen(ctx context.Context) (int, error)
	CreateMessage(ctx context.Context, msg domain.DisputeMessage) error
	ListMessages(ctx context.Context, disputeID uuid.UUID) ([]domain.DisputeMessage, error)
	AppendHistory(ctx context.Context, row domain.DisputeStateHistory) error
	ListHistory(ctx context.Context, disputeID uuid.UUID) ([]domain.DisputeStateHistory, error)
}

type WalletRepository interface {
	Create(ctx context.Context, wallet domain.Wallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Wallet, error)
	// Credit adds to the balance. A second entry with the same reason and
	// reference fails with domain.ErrConflict.
	Credit(ctx context.Context, entry domain.LedgerEntry) (domain.WalletTransaction, error)
	// Debit removes from the balance or fails with domain.ErrInsufficientFunds.
	Debit(ctx context.Context, entry domain.LedgerEntry) (domain.WalletTransaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, int, error)
	HasTransaction(ctx context.Context, reason domain.TransactionReason, referenceID uuid.UUID) (bool, error)
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}

type WithdrawalRepository interface {
	Create(ctx context.Context, withdrawal domain.Withdrawal) error
	Update(ctx context.Context, withdrawal domain.Withdrawal, expected domain.WithdrawalStatus) error
	GetByID(ctx context.Context, withdrawalID uuid.UUID) (domain.Withdrawal, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Withdrawal, int, error)
	ListByStatus(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error)
	ListByStatusAndMethod(ctx context.Context, status domain.WithdrawalStatus, method domain.WithdrawalMethod, limit int) ([]domain.Withdrawal, error)
	CountByStatus(ctx context.Context, status domain.WithdrawalStatus) (int, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review domain.Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]domain.Review, int, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]domain.Review, int, error)
	ProductSummary(ctx context.Context, productID uuid.UUID) (domain.RatingSummary, error)
}

type NotificationRepository interface {
	CreateMany(ctx context.Context, rows []domain.Notification) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

type SystemLogFilter struct {
	Level    domain.LogLevel
	Category domain.LogCategory
	UserID   *uuid.UUID
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type SystemLogRepository interface {
	Create(ctx context.Context, row domain.SystemLog) error
	List(ctx context.Context, filter SystemLogFilter) ([]domain.SystemLog, int, error)
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

type OutboxEvent struct {
	EventID          uuid.UUID
	EventType        string
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	OccurredAt       time.Time
	SchemaVersion    string
	TraceID          string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
	// Release drops a reservation whose request failed so the client can retry.
	Release(ctx context.Context, key string) error
}
