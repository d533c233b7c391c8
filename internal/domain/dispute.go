package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DisputeReason string

const (
	DisputeReasonProductNotReceived DisputeReason = "PRODUCT_NOT_RECEIVED"
	DisputeReasonProductDefective   DisputeReason = "PRODUCT_DEFECTIVE"
	DisputeReasonTestNotCompliant   DisputeReason = "TEST_NOT_COMPLIANT"
	DisputeReasonPaymentIssue       DisputeReason = "PAYMENT_ISSUE"
	DisputeReasonOther              DisputeReason = "OTHER"
)

func IsValidDisputeReason(r DisputeReason) bool {
	switch r {
	case DisputeReasonProductNotReceived, DisputeReasonProductDefective, DisputeReasonTestNotCompliant, DisputeReasonPaymentIssue, DisputeReasonOther:
		return true
	default:
		return false
	}
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusInReview DisputeStatus = "IN_REVIEW"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
	DisputeStatusClosed   DisputeStatus = "CLOSED"
)

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:     {DisputeStatusInReview, DisputeStatusResolved, DisputeStatusClosed},
	DisputeStatusInReview: {DisputeStatusResolved},
	DisputeStatusResolved: {DisputeStatusClosed},
}

func ValidateDisputeTransition(from, to DisputeStatus) error {
	if slices.Contains(disputeTransitions[from], to) {
		return nil
	}
	return fmt.Errorf("%w: dispute %s -> %s", ErrInvalidStateTransition, from, to)
}

func (s DisputeStatus) IsOpen() bool {
	return s == DisputeStatusOpen || s == DisputeStatusInReview
}

type DisputeResolution string

const (
	ResolutionFavorTester   DisputeResolution = "FAVOR_TESTER"
	ResolutionFavorSeller   DisputeResolution = "FAVOR_SELLER"
	ResolutionPartialRefund DisputeResolution = "PARTIAL_REFUND"
	ResolutionNoAction      DisputeResolution = "NO_ACTION"
)

func IsValidResolution(r DisputeResolution) bool {
	switch r {
	case ResolutionFavorTester, ResolutionFavorSeller, ResolutionPartialRefund, ResolutionNoAction:
		return true
	default:
		return false
	}
}

type Dispute struct {
	DisputeID             uuid.UUID         `json:"dispute_id"`
	SessionID             uuid.UUID         `json:"session_id"`
	CampaignID            uuid.UUID         `json:"campaign_id"`
	TesterID              uuid.UUID         `json:"tester_id"`
	SellerID              uuid.UUID         `json:"seller_id"`
	OpenedBy              uuid.UUID         `json:"opened_by"`
	Reason                DisputeReason     `json:"reason"`
	Description           string            `json:"description"`
	EvidenceURLs          []string          `json:"evidence_urls,omitempty"`
	Status                DisputeStatus     `json:"status"`
	Resolution            DisputeResolution `json:"resolution,omitempty"`
	RefundAmount          decimal.Decimal   `json:"refund_amount"`
	ResolutionNotes       string            `json:"resolution_notes,omitempty"`
	ResolvedBy            *uuid.UUID        `json:"resolved_by,omitempty"`
	AssignedAdminID       *uuid.UUID        `json:"assigned_admin_id,omitempty"`
	PreviousSessionStatus SessionStatus     `json:"previous_session_status"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	ResolvedAt            *time.Time        `json:"resolved_at,omitempty"`
}

func (d Dispute) IsParty(userID uuid.UUID) bool {
	return d.TesterID == userID || d.SellerID == userID
}

type DisputeMessage struct {
	MessageID      uuid.UUID `json:"message_id"`
	DisputeID      uuid.UUID `json:"dispute_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Body           string    `json:"body"`
	AttachmentURLs []string  `json:"attachment_urls,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type DisputeStateHistory struct {
	HistoryID  uuid.UUID     `json:"history_id"`
	DisputeID  uuid.UUID     `json:"dispute_id"`
	FromStatus DisputeStatus `json:"from_status,omitempty"`
	ToStatus   DisputeStatus `json:"to_status"`
	ChangedBy  uuid.UUID     `json:"changed_by"`
	Reason     string        `json:"reason,omitempty"`
	ChangedAt  time.Time     `json:"changed_at"`
}

type DisputeDetail struct {
	Dispute      Dispute               `json:"dispute"`
	Messages     []DisputeMessage      `json:"messages"`
	StateHistory []DisputeStateHistory `json:"state_history"`
}

func ValidateDisputeDescription(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < 20 || n > 2000 {
		return fmt.Errorf("%w: description must be between 20 and 2000 characters", ErrInvalidInput)
	}
	return nil
}
