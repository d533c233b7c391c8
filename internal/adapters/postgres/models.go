package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type userModel struct {
	UserID                    uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey"`
	Email                     string     `gorm:"column:email"`
	PasswordHash              string     `gorm:"column:password_hash"`
	Role                      string     `gorm:"column:role"`
	Status                    string     `gorm:"column:status"`
	FirstName                 string     `gorm:"column:first_name"`
	LastName                  string     `gorm:"column:last_name"`
	BirthDate                 *time.Time `gorm:"column:birth_date"`
	Gender                    string     `gorm:"column:gender"`
	Country                   string     `gorm:"column:country"`
	City                      string     `gorm:"column:city"`
	CompanyName               string     `gorm:"column:company_name"`
	PreferredCategories       string     `gorm:"column:preferred_categories;type:jsonb"`
	AverageRating             float64    `gorm:"column:average_rating"`
	RatingCount               int        `gorm:"column:rating_count"`
	CompletedSessions         int        `gorm:"column:completed_sessions"`
	StripeAccountID           string     `gorm:"column:stripe_account_id"`
	StripeOnboardingCompleted bool       `gorm:"column:stripe_onboarding_completed"`
	StripePayoutsEnabled      bool       `gorm:"column:stripe_payouts_enabled"`
	CreatedAt                 time.Time  `gorm:"column:created_at"`
	UpdatedAt                 time.Time  `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type categoryModel struct {
	CategoryID  uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name"`
	Slug        string    `gorm:"column:slug"`
	Description string    `gorm:"column:description"`
	Icon        string    `gorm:"column:icon"`
	IsActive    bool      `gorm:"column:is_active"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (categoryModel) TableName() string { return "categories" }

type productModel struct {
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;primaryKey"`
	SellerID     uuid.UUID       `gorm:"column:seller_id"`
	CategoryID   uuid.UUID       `gorm:"column:category_id"`
	Name         string          `gorm:"column:name"`
	Description  string          `gorm:"column:description"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2)"`
	ImageURLs    string          `gorm:"column:image_urls;type:jsonb"`
	IsActive     bool            `gorm:"column:is_active"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (productModel) TableName() string { return "products" }

type campaignModel struct {
	CampaignID             uuid.UUID       `gorm:"column:campaign_id;type:uuid;primaryKey"`
	SellerID               uuid.UUID       `gorm:"column:seller_id"`
	CategoryID             uuid.UUID       `gorm:"column:category_id"`
	Title                  string          `gorm:"column:title"`
	Description            string          `gorm:"column:description"`
	StartDate              time.Time       `gorm:"column:start_date"`
	EndDate                time.Time       `gorm:"column:end_date"`
	TotalSlots             int             `gorm:"column:total_slots"`
	AvailableSlots         int             `gorm:"column:available_slots"`
	AutoAcceptApplications bool            `gorm:"column:auto_accept_applications"`
	Status                 string          `gorm:"column:status"`
	Offers                 string          `gorm:"column:offers;type:jsonb"`
	Procedure              string          `gorm:"column:procedure;type:jsonb"`
	Criteria               string          `gorm:"column:criteria;type:jsonb"`
	EscrowAmount           decimal.Decimal `gorm:"column:escrow_amount;type:numeric(12,2)"`
	PaymentIntentID        string          `gorm:"column:payment_intent_id"`
	CreatedAt              time.Time       `gorm:"column:created_at"`
	UpdatedAt              time.Time       `gorm:"column:updated_at"`
	ActivatedAt            *time.Time      `gorm:"column:activated_at"`
	CompletedAt            *time.Time      `gorm:"column:completed_at"`
	CancelledAt            *time.Time      `gorm:"column:cancelled_at"`
}

func (campaignModel) TableName() string { return "campaigns" }

type sessionModel struct {
	SessionID          uuid.UUID       `gorm:"column:session_id;type:uuid;primaryKey"`
	CampaignID         uuid.UUID       `gorm:"column:campaign_id"`
	TesterID           uuid.UUID       `gorm:"column:tester_id"`
	SellerID           uuid.UUID       `gorm:"column:seller_id"`
	Status             string          `gorm:"column:status"`
	ApplicationMessage string          `gorm:"column:application_message"`
	RejectionReason    string          `gorm:"column:rejection_reason"`
	CancellationReason string          `gorm:"column:cancellation_reason"`
	OrderNumber        string          `gorm:"column:order_number"`
	PurchaseProofURL   string          `gorm:"column:purchase_proof_url"`
	ProductPrice       decimal.Decimal `gorm:"column:product_price;type:numeric(12,2)"`
	ShippingCost       decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2)"`
	Answers            string          `gorm:"column:answers;type:jsonb"`
	SellerRating       *int            `gorm:"column:seller_rating"`
	SellerComment      string          `gorm:"column:seller_comment"`
	RewardAmount       decimal.Decimal `gorm:"column:reward_amount;type:numeric(12,2)"`
	RewardCredited     bool            `gorm:"column:reward_credited"`
	AppliedAt          time.Time       `gorm:"column:applied_at"`
	AcceptedAt         *time.Time      `gorm:"column:accepted_at"`
	RejectedAt         *time.Time      `gorm:"column:rejected_at"`
	PurchasedAt        *time.Time      `gorm:"column:purchased_at"`
	SubmittedAt        *time.Time      `gorm:"column:submitted_at"`
	CompletedAt        *time.Time      `gorm:"column:completed_at"`
	CancelledAt        *time.Time      `gorm:"column:cancelled_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string { return "sessions" }

type sessionHistoryModel struct {
	HistoryID  uuid.UUID `gorm:"column:history_id;type:uuid;primaryKey"`
	SessionID  uuid.UUID `gorm:"column:session_id"`
	FromStatus string    `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status"`
	ChangedBy  uuid.UUID `gorm:"column:changed_by"`
	Reason     string    `gorm:"column:reason"`
	ChangedAt  time.Time `gorm:"column:changed_at"`
}

func (sessionHistoryModel) TableName() string { return "session_state_history" }

type bonusTaskModel struct {
	TaskID          uuid.UUID       `gorm:"column:task_id;type:uuid;primaryKey"`
	SessionID       uuid.UUID       `gorm:"column:session_id"`
	CampaignID      uuid.UUID       `gorm:"column:campaign_id"`
	SellerID        uuid.UUID       `gorm:"column:seller_id"`
	TesterID        uuid.UUID       `gorm:"column:tester_id"`
	Type            string          `gorm:"column:type"`
	Title           string          `gorm:"column:title"`
	Description     string          `gorm:"column:description"`
	Reward          decimal.Decimal `gorm:"column:reward;type:numeric(12,2)"`
	Status          string          `gorm:"column:status"`
	SubmissionURLs  string          `gorm:"column:submission_urls;type:jsonb"`
	RejectionReason string          `gorm:"column:rejection_reason"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
	SubmittedAt     *time.Time      `gorm:"column:submitted_at"`
	ValidatedAt     *time.Time      `gorm:"column:validated_at"`
}

func (bonusTaskModel) TableName() string { return "bonus_tasks" }

type disputeModel struct {
	DisputeID             uuid.UUID       `gorm:"column:dispute_id;type:uuid;primaryKey"`
	SessionID             uuid.UUID       `gorm:"column:session_id"`
	CampaignID            uuid.UUID       `gorm:"column:campaign_id"`
	TesterID              uuid.UUID       `gorm:"column:tester_id"`
	SellerID              uuid.UUID       `gorm:"column:seller_id"`
	OpenedBy              uuid.UUID       `gorm:"column:opened_by"`
	Reason                string          `gorm:"column:reason"`
	Description           string          `gorm:"column:description"`
	EvidenceURLs          string          `gorm:"column:evidence_urls;type:jsonb"`
	Status                string          `gorm:"column:status"`
	Resolution            string          `gorm:"column:resolution"`
	RefundAmount          decimal.Decimal `gorm:"column:refund_amount;type:numeric(12,2)"`
	ResolutionNotes       string          `gorm:"column:resolution_notes"`
	ResolvedBy            *uuid.UUID      `gorm:"column:resolved_by"`
	AssignedAdminID       *uuid.UUID      `gorm:"column:assigned_admin_id"`
	PreviousSessionStatus string          `gorm:"column:previous_session_status"`
	CreatedAt             time.Time       `gorm:"column:created_at"`
	UpdatedAt             time.Time       `gorm:"column:updated_at"`
	ResolvedAt            *time.Time      `gorm:"column:resolved_at"`
}

func (disputeModel) TableName() string { return "disputes" }

type disputeMessageModel struct {
	MessageID      uuid.UUID `gorm:"column:message_id;type:uuid;primaryKey"`
	DisputeID      uuid.UUID `gorm:"column:dispute_id"`
	SenderID       uuid.UUID `gorm:"column:sender_id"`
	Body           string    `gorm:"column:body"`
	AttachmentURLs string    `gorm:"column:attachment_urls;type:jsonb"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (disputeMessageModel) TableName() string { return "dispute_messages" }

type disputeHistoryModel struct {
	HistoryID  uuid.UUID `gorm:"column:history_id;type:uuid;primaryKey"`
	DisputeID  uuid.UUID `gorm:"column:dispute_id"`
	FromStatus string    `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status"`
	ChangedBy  uuid.UUID `gorm:"column:changed_by"`
	Reason     string    `gorm:"column:reason"`
	ChangedAt  time.Time `gorm:"column:changed_at"`
}

func (disputeHistoryModel) TableName() string { return "dispute_state_history" }

type walletModel struct {
	WalletID       uuid.UUID       `gorm:"column:wallet_id;type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"column:user_id"`
	Balance        decimal.Decimal `gorm:"column:balance;type:numeric(12,2)"`
	TotalEarned    decimal.Decimal `gorm:"column:total_earned;type:numeric(12,2)"`
	TotalWithdrawn decimal.Decimal `gorm:"column:total_withdrawn;type:numeric(12,2)"`
	Currency       string          `gorm:"column:currency"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (walletModel) TableName() string { return "wallets" }

type walletTransactionModel struct {
	TransactionID uuid.UUID       `gorm:"column:transaction_id;type:uuid;primaryKey"`
	WalletID      uuid.UUID       `gorm:"column:wallet_id"`
	UserID        uuid.UUID       `gorm:"column:user_id"`
	Type          string          `gorm:"column:type"`
	Reason        string          `gorm:"column:reason"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	BalanceAfter  decimal.Decimal `gorm:"column:balance_after;type:numeric(12,2)"`
	ReferenceType string          `gorm:"column:reference_type"`
	ReferenceID   uuid.UUID       `gorm:"column:reference_id"`
	Description   string          `gorm:"column:description"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
}

func (walletTransactionModel) TableName() string { return "wallet_transactions" }

type withdrawalModel struct {
	WithdrawalID     uuid.UUID       `gorm:"column:withdrawal_id;type:uuid;primaryKey"`
	UserID           uuid.UUID       `gorm:"column:user_id"`
	Amount           decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Currency         string          `gorm:"column:currency"`
	Method           string          `gorm:"column:method"`
	GiftCardProvider string          `gorm:"column:gift_card_provider"`
	GiftCardCode     string          `gorm:"column:gift_card_code"`
	Status           string          `gorm:"column:status"`
	StripeTransferID string          `gorm:"column:stripe_transfer_id"`
	FailureReason    string          `gorm:"column:failure_reason"`
	ProcessedBy      *uuid.UUID      `gorm:"column:processed_by"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
	ProcessedAt      *time.Time      `gorm:"column:processed_at"`
	CompletedAt      *time.Time      `gorm:"column:completed_at"`
}

func (withdrawalModel) TableName() string { return "withdrawals" }

type reviewModel struct {
	ReviewID   uuid.UUID `gorm:"column:review_id;type:uuid;primaryKey"`
	SessionID  uuid.UUID `gorm:"column:session_id"`
	CampaignID uuid.UUID `gorm:"column:campaign_id"`
	ProductID  uuid.UUID `gorm:"column:product_id"`
	TesterID   uuid.UUID `gorm:"column:tester_id"`
	Rating     int       `gorm:"column:rating"`
	Comment    string    `gorm:"column:comment"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (reviewModel) TableName() string { return "reviews" }

type notificationModel struct {
	NotificationID uuid.UUID  `gorm:"column:notification_id;type:uuid;primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id"`
	Type           string     `gorm:"column:type"`
	Title          string     `gorm:"column:title"`
	Body           string     `gorm:"column:body"`
	Data           string     `gorm:"column:data;type:jsonb"`
	ReadAt         *time.Time `gorm:"column:read_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
}

func (notificationModel) TableName() string { return "notifications" }

type systemLogModel struct {
	LogID     uuid.UUID  `gorm:"column:log_id;type:uuid;primaryKey"`
	Level     string     `gorm:"column:level"`
	Category  string     `gorm:"column:category"`
	Message   string     `gorm:"column:message"`
	UserID    *uuid.UUID `gorm:"column:user_id"`
	Metadata  string     `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (systemLogModel) TableName() string { return "system_logs" }

type outboxModel struct {
	OutboxID         uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload;type:jsonb"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	TraceID          string     `gorm:"column:trace_id"`
	RetryCount       int        `gorm:"column:retry_count"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
	FirstSeenAt      time.Time  `gorm:"column:first_seen_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
}

func (outboxModel) TableName() string { return "outbox" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "event_dedup" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "idempotency_keys" }
