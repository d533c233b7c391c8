package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BonusTaskType string

const (
	BonusTaskUnboxingPhoto  BonusTaskType = "UNBOXING_PHOTO"
	BonusTaskUGCVideo       BonusTaskType = "UGC_VIDEO"
	BonusTaskExternalReview BonusTaskType = "EXTERNAL_REVIEW"
	BonusTaskTip            BonusTaskType = "TIP"
	BonusTaskCustom         BonusTaskType = "CUSTOM"
)

func IsValidBonusTaskType(t BonusTaskType) bool {
	switch t {
	case BonusTaskUnboxingPhoto, BonusTaskUGCVideo, BonusTaskExternalReview, BonusTaskTip, BonusTaskCustom:
		return true
	default:
		return false
	}
}

type BonusTaskStatus string

const (
	BonusTaskStatusRequested BonusTaskStatus = "REQUESTED"
	BonusTaskStatusAccepted  BonusTaskStatus = "ACCEPTED"
	BonusTaskStatusDeclined  BonusTaskStatus = "DECLINED"
	BonusTaskStatusSubmitted BonusTaskStatus = "SUBMITTED"
	BonusTaskStatusValidated BonusTaskStatus = "VALIDATED"
	BonusTaskStatusRejected  BonusTaskStatus = "REJECTED"
	BonusTaskStatusCancelled BonusTaskStatus = "CANCELLED"
)

var bonusTaskTransitions = map[BonusTaskStatus][]BonusTaskStatus{
	BonusTaskStatusRequested: {BonusTaskStatusAccepted, BonusTaskStatusDeclined, BonusTaskStatusCancelled, BonusTaskStatusValidated},
	BonusTaskStatusAccepted:  {BonusTaskStatusSubmitted, BonusTaskStatusCancelled},
	BonusTaskStatusSubmitted: {BonusTaskStatusValidated, BonusTaskStatusRejected},
	// A rejected submission can be sent again.
	BonusTaskStatusRejected: {BonusTaskStatusSubmitted},
}

func ValidateBonusTaskTransition(from, to BonusTaskStatus) error {
	if slices.Contains(bonusTaskTransitions[from], to) {
		return nil
	}
	return fmt.Errorf("%w: bonus task %s -> %s", ErrInvalidStateTransition, from, to)
}

type BonusTask struct {
	TaskID          uuid.UUID       `json:"task_id"`
	SessionID       uuid.UUID       `json:"session_id"`
	CampaignID      uuid.UUID       `json:"campaign_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	TesterID        uuid.UUID       `json:"tester_id"`
	Type            BonusTaskType   `json:"type"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Reward          decimal.Decimal `json:"reward"`
	Status          BonusTaskStatus `json:"status"`
	SubmissionURLs  []string        `json:"submission_urls,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	ValidatedAt     *time.Time      `json:"validated_at,omitempty"`
}

// BonusTaskAllowedOn lists the session statuses a seller may attach a bonus task to.
func BonusTaskAllowedOn(status SessionStatus) bool {
	switch status {
	case SessionStatusAccepted, SessionStatusInProgress, SessionStatusSubmitted, SessionStatusCompleted:
		return true
	default:
		return false
	}
}
