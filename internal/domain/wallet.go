package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "EUR"

var MinimumWithdrawal = decimal.NewFromInt(10)

type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
)

type TransactionReason string

const (
	ReasonSessionReward      TransactionReason = "SESSION_REWARD"
	ReasonBonusTask          TransactionReason = "BONUS_TASK"
	ReasonTip                TransactionReason = "TIP"
	ReasonDisputeRefund      TransactionReason = "DISPUTE_REFUND"
	ReasonWithdrawal         TransactionReason = "WITHDRAWAL"
	ReasonWithdrawalReversal TransactionReason = "WITHDRAWAL_REVERSAL"
)

type Wallet struct {
	WalletID       uuid.UUID       `json:"wallet_id"`
	UserID         uuid.UUID       `json:"user_id"`
	Balance        decimal.Decimal `json:"balance"`
	TotalEarned    decimal.Decimal `json:"total_earned"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type WalletTransaction struct {
	TransactionID uuid.UUID         `json:"transaction_id"`
	WalletID      uuid.UUID         `json:"wallet_id"`
	UserID        uuid.UUID         `json:"user_id"`
	Type          TransactionType   `json:"type"`
	Reason        TransactionReason `json:"reason"`
	Amount        decimal.Decimal   `json:"amount"`
	BalanceAfter  decimal.Decimal   `json:"balance_after"`
	ReferenceType string            `json:"reference_type"`
	ReferenceID   uuid.UUID         `json:"reference_id"`
	Description   string            `json:"description,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// LedgerEntry is one wallet movement. Entries are unique per reason and
// reference so that a retried credit is detected instead of applied twice.
type LedgerEntry struct {
	UserID        uuid.UUID
	Amount        decimal.Decimal
	Reason        TransactionReason
	ReferenceType string
	ReferenceID   uuid.UUID
	Description   string
	At            time.Time
}

func (e LedgerEntry) Validate() error {
	if e.UserID == uuid.Nil || e.ReferenceID == uuid.Nil {
		return fmt.Errorf("%w: ledger entry needs a user and a reference", ErrInvalidInput)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: ledger amount must be positive", ErrInvalidInput)
	}
	return nil
}

type WithdrawalMethod string

const (
	WithdrawalBankTransfer WithdrawalMethod = "BANK_TRANSFER"
	WithdrawalGiftCard     WithdrawalMethod = "GIFT_CARD"
)

type GiftCardProvider string

const (
	GiftCardAmazon    GiftCardProvider = "AMAZON"
	GiftCardFnac      GiftCardProvider = "FNAC"
	GiftCardDecathlon GiftCardProvider = "DECATHLON"
)

func IsValidGiftCardProvider(p GiftCardProvider) bool {
	switch p {
	case GiftCardAmazon, GiftCardFnac, GiftCardDecathlon:
		return true
	default:
		return false
	}
}

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "PENDING"
	WithdrawalProcessing WithdrawalStatus = "PROCESSING"
	WithdrawalCompleted  WithdrawalStatus = "COMPLETED"
	WithdrawalFailed     WithdrawalStatus = "FAILED"
	WithdrawalCancelled  WithdrawalStatus = "CANCELLED"
)

var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:    {WithdrawalProcessing, WithdrawalCancelled, WithdrawalFailed},
	WithdrawalProcessing: {WithdrawalCompleted, WithdrawalFailed},
}

func ValidateWithdrawalTransition(from, to WithdrawalStatus) error {
	if slices.Contains(withdrawalTransitions[from], to) {
		return nil
	}
	return fmt.Errorf("%w: withdrawal %s -> %s", ErrInvalidStateTransition, from, to)
}

type Withdrawal struct {
	WithdrawalID     uuid.UUID        `json:"withdrawal_id"`
	UserID           uuid.UUID        `json:"user_id"`
	Amount           decimal.Decimal  `json:"amount"`
	Currency         string           `json:"currency"`
	Method           WithdrawalMethod `json:"method"`
	GiftCardProvider GiftCardProvider `json:"gift_card_provider,omitempty"`
	GiftCardCode     string           `json:"gift_card_code,omitempty"`
	Status           WithdrawalStatus `json:"status"`
	StripeTransferID string           `json:"stripe_transfer_id,omitempty"`
	FailureReason    string           `json:"failure_reason,omitempty"`
	ProcessedBy      *uuid.UUID       `json:"processed_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

// ToMinorUnits converts an amount to integer cents.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
