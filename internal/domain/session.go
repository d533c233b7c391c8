package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "PENDING"
	SessionStatusAccepted   SessionStatus = "ACCEPTED"
	SessionStatusRejected   SessionStatus = "REJECTED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusCancelled  SessionStatus = "CANCELLED"
	SessionStatusDisputed   SessionStatus = "DISPUTED"
)

var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusPending:    {SessionStatusAccepted, SessionStatusRejected, SessionStatusCancelled},
	SessionStatusAccepted:   {SessionStatusInProgress, SessionStatusCancelled},
	SessionStatusInProgress: {SessionStatusSubmitted, SessionStatusCancelled, SessionStatusDisputed},
	SessionStatusSubmitted:  {SessionStatusCompleted, SessionStatusDisputed},
	SessionStatusCompleted:  {SessionStatusDisputed},
	SessionStatusDisputed:   {SessionStatusCompleted, SessionStatusCancelled, SessionStatusInProgress, SessionStatusSubmitted},
}

func ValidateSessionTransition(from, to SessionStatus) error {
	if slices.Contains(sessionTransitions[from], to) {
		return nil
	}
	return fmt.Errorf("%w: session %s -> %s", ErrInvalidStateTransition, from, to)
}

// IsOpen reports whether the session still blocks a new application by the
// same tester on the same campaign.
func (s SessionStatus) IsOpen() bool {
	switch s {
	case SessionStatusPending, SessionStatusAccepted, SessionStatusInProgress, SessionStatusSubmitted, SessionStatusDisputed:
		return true
	default:
		return false
	}
}

// HoldsSlot reports whether a campaign slot is consumed by a session in this status.
func (s SessionStatus) HoldsSlot() bool {
	switch s {
	case SessionStatusAccepted, SessionStatusInProgress, SessionStatusSubmitted, SessionStatusCompleted, SessionStatusDisputed:
		return true
	default:
		return false
	}
}

func (s SessionStatus) Disputable() bool {
	switch s {
	case SessionStatusInProgress, SessionStatusSubmitted, SessionStatusCompleted:
		return true
	default:
		return false
	}
}

type StepAnswer struct {
	StepID       uuid.UUID `json:"step_id"`
	Text         string    `json:"text,omitempty"`
	MediaURLs    []string  `json:"media_urls,omitempty"`
	CheckedItems []string  `json:"checked_items,omitempty"`
	Rating       *int      `json:"rating,omitempty"`
}

type Session struct {
	SessionID          uuid.UUID       `json:"session_id"`
	CampaignID         uuid.UUID       `json:"campaign_id"`
	TesterID           uuid.UUID       `json:"tester_id"`
	SellerID           uuid.UUID       `json:"seller_id"`
	Status             SessionStatus   `json:"status"`
	ApplicationMessage string          `json:"application_message,omitempty"`
	RejectionReason    string          `json:"rejection_reason,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	OrderNumber        string          `json:"order_number,omitempty"`
	PurchaseProofURL   string          `json:"purchase_proof_url,omitempty"`
	ProductPrice       decimal.Decimal `json:"product_price"`
	ShippingCost       decimal.Decimal `json:"shipping_cost"`
	Answers            []StepAnswer    `json:"answers,omitempty"`
	SellerRating       *int            `json:"seller_rating,omitempty"`
	SellerComment      string          `json:"seller_comment,omitempty"`
	RewardAmount       decimal.Decimal `json:"reward_amount"`
	RewardCredited     bool            `json:"reward_credited"`
	AppliedAt          time.Time       `json:"applied_at"`
	AcceptedAt         *time.Time      `json:"accepted_at,omitempty"`
	RejectedAt         *time.Time      `json:"rejected_at,omitempty"`
	PurchasedAt        *time.Time      `json:"purchased_at,omitempty"`
	SubmittedAt        *time.Time      `json:"submitted_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (s Session) IsParticipant(userID uuid.UUID) bool {
	return s.TesterID == userID || s.SellerID == userID
}

type SessionStateHistory struct {
	HistoryID  uuid.UUID     `json:"history_id"`
	SessionID  uuid.UUID     `json:"session_id"`
	FromStatus SessionStatus `json:"from_status"`
	ToStatus   SessionStatus `json:"to_status"`
	ChangedBy  uuid.UUID     `json:"changed_by"`
	Reason     string        `json:"reason,omitempty"`
	ChangedAt  time.Time     `json:"changed_at"`
}

// ValidateAnswers checks a test submission against the campaign procedure:
// every required step answered, every answer shaped for its step type.
func ValidateAnswers(steps []ProcedureStep, answers []StepAnswer) error {
	byStep := make(map[uuid.UUID]StepAnswer, len(answers))
	for _, answer := range answers {
		if _, dup := byStep[answer.StepID]; dup {
			return fmt.Errorf("%w: step %s answered twice", ErrInvalidInput, answer.StepID)
		}
		byStep[answer.StepID] = answer
	}
	known := make(map[uuid.UUID]struct{}, len(steps))
	for _, step := range steps {
		known[step.StepID] = struct{}{}
		answer, ok := byStep[step.StepID]
		if !ok {
			if step.IsRequired {
				return fmt.Errorf("%w: step %q is required", ErrInvalidInput, step.Title)
			}
			continue
		}
		if err := validateAnswer(step, answer); err != nil {
			return err
		}
	}
	for stepID := range byStep {
		if _, ok := known[stepID]; !ok {
			return fmt.Errorf("%w: unknown step %s", ErrInvalidInput, stepID)
		}
	}
	return nil
}

func validateAnswer(step ProcedureStep, answer StepAnswer) error {
	switch step.Type {
	case StepTypeText:
		if strings.TrimSpace(answer.Text) == "" {
			return fmt.Errorf("%w: step %q needs a text answer", ErrInvalidInput, step.Title)
		}
	case StepTypePhoto, StepTypeVideo:
		if len(answer.MediaURLs) == 0 {
			return fmt.Errorf("%w: step %q needs at least one media file", ErrInvalidInput, step.Title)
		}
		for _, raw := range answer.MediaURLs {
			if !IsHTTPURL(raw) {
				return fmt.Errorf("%w: step %q has an invalid media url", ErrInvalidInput, step.Title)
			}
		}
	case StepTypeChecklist:
		for _, item := range answer.CheckedItems {
			if !slices.Contains(step.ChecklistItems, item) {
				return fmt.Errorf("%w: step %q has unknown checklist item %q", ErrInvalidInput, step.Title, item)
			}
		}
		if step.IsRequired && len(answer.CheckedItems) != len(step.ChecklistItems) {
			return fmt.Errorf("%w: step %q requires every checklist item", ErrInvalidInput, step.Title)
		}
	case StepTypeRating:
		if answer.Rating == nil || *answer.Rating < 1 || *answer.Rating > 5 {
			return fmt.Errorf("%w: step %q needs a rating between 1 and 5", ErrInvalidInput, step.Title)
		}
	}
	return nil
}
