package domain

import (
	"time"

	"github.com/google/uuid"
)

type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

type LogCategory string

const (
	LogCategoryAuth     LogCategory = "AUTH"
	LogCategoryCampaign LogCategory = "CAMPAIGN"
	LogCategorySession  LogCategory = "SESSION"
	LogCategoryWallet   LogCategory = "WALLET"
	LogCategoryDispute  LogCategory = "DISPUTE"
	LogCategoryAdmin    LogCategory = "ADMIN"
	LogCategorySystem   LogCategory = "SYSTEM"
)

type SystemLog struct {
	LogID     uuid.UUID         `json:"log_id"`
	Level     LogLevel          `json:"level"`
	Category  LogCategory       `json:"category"`
	Message   string            `json:"message"`
	UserID    *uuid.UUID        `json:"user_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
