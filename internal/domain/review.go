package domain

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ReviewID   uuid.UUID `json:"review_id"`
	SessionID  uuid.UUID `json:"session_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	ProductID  uuid.UUID `json:"product_id"`
	TesterID   uuid.UUID `json:"tester_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}
