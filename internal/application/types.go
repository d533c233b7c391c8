package application

import (
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Config struct {
	ServiceName          string
	TokenTTL             time.Duration
	LoginMaxAttempts     int
	LoginLockoutWindow   time.Duration
	IdempotencyTTL       time.Duration
	EventDedupTTL        time.Duration
	CampaignCacheTTL     time.Duration
	CommissionPercent    decimal.Decimal
	PaymentsEnabled      bool
	Currency             string
	SessionPendingExpiry time.Duration
	LogRetention         time.Duration
	UploadURLTTL         time.Duration
	StripeRefreshURL     string
	StripeReturnURL      string
	StripeDefaultCountry string
	SweepBatchSize       int

	// EligibilityScanBatch and EligibilityScanMaxPages bound the tester scan
	// used when a campaign carries a custom rule.
	EligibilityScanBatch    int
	EligibilityScanMaxPages int
}

type Actor struct {
	UserID         uuid.UUID
	Role           domain.Role
	RequestID      string
	IdempotencyKey string
}

func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// SystemActor is used by the worker and the CLI.
var SystemActor = Actor{Role: domain.RoleAdmin, RequestID: "system"}

type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type RegisterInput struct {
	Email               string      `json:"email"`
	Password            string      `json:"password"`
	Role                string      `json:"role"`
	FirstName           string      `json:"first_name"`
	LastName            string      `json:"last_name"`
	BirthDate           string      `json:"birth_date,omitempty"`
	Gender              string      `json:"gender,omitempty"`
	Country             string      `json:"country,omitempty"`
	City                string      `json:"city,omitempty"`
	CompanyName         string      `json:"company_name,omitempty"`
	PreferredCategories []uuid.UUID `json:"preferred_categories,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        domain.User `json:"user"`
}

type UpdateProfileInput struct {
	FirstName           *string      `json:"first_name,omitempty"`
	LastName            *string      `json:"last_name,omitempty"`
	BirthDate           *string      `json:"birth_date,omitempty"`
	Gender              *string      `json:"gender,omitempty"`
	Country             *string      `json:"country,omitempty"`
	City                *string      `json:"city,omitempty"`
	CompanyName         *string      `json:"company_name,omitempty"`
	PreferredCategories *[]uuid.UUID `json:"preferred_categories,omitempty"`
}

type ListUsersQuery struct {
	Role   string
	Status string
	Limit  int
	Offset int
}

type SetUserStatusInput struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type ProductInput struct {
	CategoryID   uuid.UUID       `json:"category_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	ImageURLs    []string        `json:"image_urls"`
}

type ProductDetail struct {
	domain.Product
	Rating domain.RatingSummary `json:"rating"`
}

type CampaignInput struct {
	CategoryID             uuid.UUID `json:"category_id"`
	Title                  string    `json:"title"`
	Description            string    `json:"description"`
	StartDate              time.Time `json:"start_date"`
	EndDate                time.Time `json:"end_date"`
	TotalSlots             int       `json:"total_slots"`
	AutoAcceptApplications bool      `json:"auto_accept_applications"`
}

type ProcedureStepInput struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Type           string   `json:"type"`
	IsRequired     bool     `json:"is_required"`
	ChecklistItems []string `json:"checklist_items,omitempty"`
}

type ActivateCampaignResult struct {
	Campaign            domain.Campaign `json:"campaign"`
	AmountDue           decimal.Decimal `json:"amount_due"`
	PaymentClientSecret string          `json:"payment_client_secret,omitempty"`
}

type ListCampaignsQuery struct {
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Search     string     `json:"search,omitempty"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

type ApplyInput struct {
	Message string `json:"message"`
}

type ReasonInput struct {
	Reason string `json:"reason"`
}

type ValidatePurchaseInput struct {
	OrderNumber  string          `json:"order_number"`
	ProofURL     string          `json:"proof_url"`
	ProductPrice decimal.Decimal `json:"product_price"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
}

type SubmitTestInput struct {
	Answers []domain.StepAnswer `json:"answers"`
}

type CompleteSessionInput struct {
	Rating  *int   `json:"rating,omitempty"`
	Comment string `json:"comment,omitempty"`
}

type ListSessionsQuery struct {
	CampaignID *uuid.UUID
	Status     string
	Limit      int
	Offset     int
}

type SessionDetail struct {
	Session    domain.Session               `json:"session"`
	History    []domain.SessionStateHistory `json:"history"`
	BonusTasks []domain.BonusTask           `json:"bonus_tasks"`
}

type CreateBonusTaskInput struct {
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
}

type SubmitBonusTaskInput struct {
	SubmissionURLs []string `json:"submission_urls"`
}

type OpenDisputeInput struct {
	SessionID    uuid.UUID `json:"session_id"`
	Reason       string    `json:"reason"`
	Description  string    `json:"description"`
	EvidenceURLs []string  `json:"evidence_urls,omitempty"`
}

type DisputeMessageInput struct {
	Body           string   `json:"body"`
	AttachmentURLs []string `json:"attachment_urls,omitempty"`
}

type ResolveDisputeInput struct {
	Resolution   string          `json:"resolution"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Notes        string          `json:"notes"`
}

type ListDisputesQuery struct {
	Status string
	Limit  int
	Offset int
}

type WithdrawalInput struct {
	Amount           decimal.Decimal `json:"amount"`
	Method           string          `json:"method"`
	GiftCardProvider string          `json:"gift_card_provider,omitempty"`
}

type ProcessWithdrawalInput struct {
	GiftCardCode string `json:"gift_card_code,omitempty"`
}

type StripeOnboardingResult struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url"`
}

type StripeStatus struct {
	AccountID           string `json:"account_id"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
	PayoutsEnabled      bool   `json:"payouts_enabled"`
}

type ReviewInput struct {
	SessionID uuid.UUID `json:"session_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
}

type BroadcastInput struct {
	Role  string `json:"role,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type BroadcastResult struct {
	Recipients int `json:"recipients"`
}

type SystemLogQuery struct {
	Level    string
	Category string
	UserID   *uuid.UUID
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type PresignInput struct {
	Kind        string `json:"kind"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

type PlatformStats struct {
	UsersByRole        map[domain.Role]int           `json:"users_by_role"`
	CampaignsByStatus  map[domain.CampaignStatus]int `json:"campaigns_by_status"`
	SessionsByStatus   map[domain.SessionStatus]int  `json:"sessions_by_status"`
	OpenDisputes       int                           `json:"open_disputes"`
	PendingWithdrawals int                           `json:"pending_withdrawals"`
	WalletBalances     decimal.Decimal               `json:"wallet_balances"`
}

type SweepReport struct {
	ExpiredSessions    int   `json:"expired_sessions"`
	CompletedCampaigns int   `json:"completed_campaigns"`
	PurgedLogs         int64 `json:"purged_logs"`
}

type WithdrawalBatchReport struct {
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// EligibleTester is the public part of a tester profile shown to the seller.
type EligibleTester struct {
	TesterID          uuid.UUID     `json:"tester_id"`
	FirstName         string        `json:"first_name"`
	Gender            domain.Gender `json:"gender,omitempty"`
	Country           string        `json:"country,omitempty"`
	City              string        `json:"city,omitempty"`
	AverageRating     float64       `json:"average_rating"`
	CompletedSessions int           `json:"completed_sessions"`
}

type EligibleTestersPage struct {
	Items   []EligibleTester `json:"items"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	HasMore bool             `json:"has_more"`
}
