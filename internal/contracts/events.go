package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type UserRegisteredPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type CampaignPayload struct {
	CampaignID string `json:"campaign_id"`
	SellerID   string `json:"seller_id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
}

type SessionPayload struct {
	SessionID     string `json:"session_id"`
	CampaignID    string `json:"campaign_id"`
	CampaignTitle string `json:"campaign_title,omitempty"`
	TesterID      string `json:"tester_id"`
	SellerID      string `json:"seller_id"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	RewardAmount  string `json:"reward_amount,omitempty"`
}

type BonusTaskPayload struct {
	TaskID    string `json:"task_id"`
	SessionID string `json:"session_id"`
	TesterID  string `json:"tester_id"`
	SellerID  string `json:"seller_id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Reward    string `json:"reward"`
	Status    string `json:"status"`
}

type DisputePayload struct {
	DisputeID    string `json:"dispute_id"`
	SessionID    string `json:"session_id"`
	TesterID     string `json:"tester_id"`
	SellerID     string `json:"seller_id"`
	OpenedBy     string `json:"opened_by"`
	Reason       string `json:"reason"`
	Status       string `json:"status"`
	Resolution   string `json:"resolution,omitempty"`
	RefundAmount string `json:"refund_amount,omitempty"`
}

type WithdrawalPayload struct {
	WithdrawalID  string `json:"withdrawal_id"`
	UserID        string `json:"user_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Method        string `json:"method"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

type ReviewPayload struct {
	ReviewID   string `json:"review_id"`
	SessionID  string `json:"session_id"`
	ProductID  string `json:"product_id"`
	TesterID   string `json:"tester_id"`
	Rating     int    `json:"rating"`
	CampaignID string `json:"campaign_id"`
}
