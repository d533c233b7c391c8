package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationSessionApplied     NotificationType = "SESSION_APPLIED"
	NotificationSessionAccepted    NotificationType = "SESSION_ACCEPTED"
	NotificationSessionRejected    NotificationType = "SESSION_REJECTED"
	NotificationSessionCompleted   NotificationType = "SESSION_COMPLETED"
	NotificationBonusTaskCreated   NotificationType = "BONUS_TASK_CREATED"
	NotificationDisputeOpened      NotificationType = "DISPUTE_OPENED"
	NotificationDisputeResolved    NotificationType = "DISPUTE_RESOLVED"
	NotificationWithdrawalComplete NotificationType = "WITHDRAWAL_COMPLETED"
	NotificationWithdrawalFailed   NotificationType = "WITHDRAWAL_FAILED"
	NotificationBroadcast          NotificationType = "BROADCAST"
)

type Notification struct {
	NotificationID uuid.UUID         `json:"notification_id"`
	UserID         uuid.UUID         `json:"user_id"`
	Type           NotificationType  `json:"type"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data,omitempty"`
	ReadAt         *time.Time        `json:"read_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}
