package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleTester Role = "TESTER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

func NormalizeRole(raw string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleTester:
		return RoleTester
	case RoleSeller:
		return RoleSeller
	case RoleAdmin:
		return RoleAdmin
	default:
		return ""
	}
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
	// GenderAll is only meaningful as a campaign requirement.
	GenderAll Gender = "ALL"
)

func NormalizeGender(raw string) Gender {
	switch Gender(strings.ToUpper(strings.TrimSpace(raw))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	case GenderOther:
		return GenderOther
	case GenderAll:
		return GenderAll
	default:
		return ""
	}
}

type User struct {
	UserID                    uuid.UUID   `json:"user_id"`
	Email                     string      `json:"email"`
	PasswordHash              string      `json:"-"`
	Role                      Role        `json:"role"`
	Status                    UserStatus  `json:"status"`
	FirstName                 string      `json:"first_name"`
	LastName                  string      `json:"last_name"`
	BirthDate                 *time.Time  `json:"birth_date,omitempty"`
	Gender                    Gender      `json:"gender,omitempty"`
	Country                   string      `json:"country,omitempty"`
	City                      string      `json:"city,omitempty"`
	CompanyName               string      `json:"company_name,omitempty"`
	PreferredCategories       []uuid.UUID `json:"preferred_categories"`
	AverageRating             float64     `json:"average_rating"`
	RatingCount               int         `json:"rating_count"`
	CompletedSessions         int         `json:"completed_sessions"`
	StripeAccountID           string      `json:"stripe_account_id,omitempty"`
	StripeOnboardingCompleted bool        `json:"stripe_onboarding_completed"`
	StripePayoutsEnabled      bool        `json:"stripe_payouts_enabled"`
	CreatedAt                 time.Time   `json:"created_at"`
	UpdatedAt                 time.Time   `json:"updated_at"`
}

func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}

// AgeAt returns the completed years of age at the given instant.
func (u User) AgeAt(now time.Time) (int, bool) {
	if u.BirthDate == nil {
		return 0, false
	}
	b := u.BirthDate.UTC()
	n := now.UTC()
	years := n.Year() - b.Year()
	if n.Month() < b.Month() || (n.Month() == b.Month() && n.Day() < b.Day()) {
		years--
	}
	return years, true
}

// TesterStats is what a tester's completed sessions add up to.
type TesterStats struct {
	CompletedSessions int
	RatingCount       int
	RatingSum         int
}

// WithStats replaces the tester counters with a fresh recount.
func (u User) WithStats(stats TesterStats) User {
	u.CompletedSessions = stats.CompletedSessions
	u.RatingCount = stats.RatingCount
	u.AverageRating = 0
	if stats.RatingCount > 0 {
		u.AverageRating = roundRating(float64(stats.RatingSum) / float64(stats.RatingCount))
	}
	return u
}

func roundRating(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
