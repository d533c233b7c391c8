package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinTesterAge = 16
	MaxTesterAge = 120
	MaxRating    = 5.0
)

// Eligibility reason codes, one per failed predicate.
const (
	ReasonAgeUnknown           = "age_unknown"
	ReasonAgeBelowMinimum      = "age_below_minimum"
	ReasonAgeAboveMaximum      = "age_above_maximum"
	ReasonRatingBelowMinimum   = "rating_below_minimum"
	ReasonRatingAboveMaximum   = "rating_above_maximum"
	ReasonNotEnoughSessions    = "not_enough_completed_sessions"
	ReasonGenderMismatch       = "gender_mismatch"
	ReasonLocationNotAllowed   = "location_not_allowed"
	ReasonCategoryMismatch     = "category_mismatch"
	ReasonCustomRuleFailed     = "custom_rule_failed"
	ReasonTesterInactive       = "tester_inactive"
	ReasonCampaignNotOpen      = "campaign_not_open"
	ReasonAlreadyParticipating = "already_participating"
)

// CampaignCriteria holds independent eligibility predicates. A nil bound or an
// empty list means the predicate is not applied.
type CampaignCriteria struct {
	MinAge               *int        `json:"min_age,omitempty"`
	MaxAge               *int        `json:"max_age,omitempty"`
	MinRating            *float64    `json:"min_rating,omitempty"`
	MaxRating            *float64    `json:"max_rating,omitempty"`
	MinCompletedSessions *int        `json:"min_completed_sessions,omitempty"`
	RequiredGender       Gender      `json:"required_gender,omitempty"`
	RequiredLocations    []string    `json:"required_locations,omitempty"`
	RequiredCategories   []uuid.UUID `json:"required_categories,omitempty"`
	CustomRule           string      `json:"custom_rule,omitempty"`
}

func (c CampaignCriteria) Normalize() CampaignCriteria {
	if c.RequiredGender == "" {
		c.RequiredGender = GenderAll
	}
	locations := make([]string, 0, len(c.RequiredLocations))
	for _, loc := range c.RequiredLocations {
		code := NormalizeCountry(loc)
		if code != "" && !slices.Contains(locations, code) {
			locations = append(locations, code)
		}
	}
	c.RequiredLocations = locations
	categories := make([]uuid.UUID, 0, len(c.RequiredCategories))
	for _, id := range c.RequiredCategories {
		if id != uuid.Nil && !slices.Contains(categories, id) {
			categories = append(categories, id)
		}
	}
	c.RequiredCategories = categories
	c.CustomRule = strings.TrimSpace(c.CustomRule)
	return c
}

func (c CampaignCriteria) Validate() error {
	if c.MinAge != nil && (*c.MinAge < MinTesterAge || *c.MinAge > MaxTesterAge) {
		return fmt.Errorf("%w: min_age must be between %d and %d", ErrInvalidInput, MinTesterAge, MaxTesterAge)
	}
	if c.MaxAge != nil && (*c.MaxAge < MinTesterAge || *c.MaxAge > MaxTesterAge) {
		return fmt.Errorf("%w: max_age must be between %d and %d", ErrInvalidInput, MinTesterAge, MaxTesterAge)
	}
	if c.MinAge != nil && c.MaxAge != nil && *c.MinAge > *c.MaxAge {
		return fmt.Errorf("%w: min_age exceeds max_age", ErrInvalidInput)
	}
	if c.MinRating != nil && (*c.MinRating < 0 || *c.MinRating > MaxRating) {
		return fmt.Errorf("%w: min_rating must be between 0 and 5", ErrInvalidInput)
	}
	if c.MaxRating != nil && (*c.MaxRating < 0 || *c.MaxRating > MaxRating) {
		return fmt.Errorf("%w: max_rating must be between 0 and 5", ErrInvalidInput)
	}
	if c.MinRating != nil && c.MaxRating != nil && *c.MinRating > *c.MaxRating {
		return fmt.Errorf("%w: min_rating exceeds max_rating", ErrInvalidInput)
	}
	if c.MinCompletedSessions != nil && *c.MinCompletedSessions < 0 {
		return fmt.Errorf("%w: min_completed_sessions must not be negative", ErrInvalidInput)
	}
	switch c.RequiredGender {
	case "", GenderAll, GenderMale, GenderFemale, GenderOther:
	default:
		return fmt.Errorf("%w: unknown required_gender %q", ErrInvalidInput, c.RequiredGender)
	}
	for _, loc := range c.RequiredLocations {
		if !IsCountryCode(loc) {
			return fmt.Errorf("%w: invalid location %q", ErrInvalidInput, loc)
		}
	}
	return nil
}

// TesterFilter is the structured part of the criteria resolved against a
// reference instant, so that storage can evaluate it.
type TesterFilter struct {
	BornOnOrBefore       *time.Time
	BornAfter            *time.Time
	MinRating            *float64
	MaxRating            *float64
	MinCompletedSessions *int
	Gender               Gender
	Countries            []string
	AnyCategories        []uuid.UUID
}

func (c CampaignCriteria) FilterAt(now time.Time) TesterFilter {
	f := TesterFilter{
		MinRating:            c.MinRating,
		MaxRating:            c.MaxRating,
		MinCompletedSessions: c.MinCompletedSessions,
		Countries:            c.RequiredLocations,
		AnyCategories:        c.RequiredCategories,
	}
	if c.RequiredGender != GenderAll {
		f.Gender = c.RequiredGender
	}
	if c.MinAge != nil {
		t := now.UTC().AddDate(-*c.MinAge, 0, 0)
		f.BornOnOrBefore = &t
	}
	if c.MaxAge != nil {
		t := now.UTC().AddDate(-(*c.MaxAge + 1), 0, 0)
		f.BornAfter = &t
	}
	return f
}

// Reasons lists every predicate the tester fails.
func (f TesterFilter) Reasons(u User) []string {
	reasons := make([]string, 0)
	if f.BornOnOrBefore != nil || f.BornAfter != nil {
		if u.BirthDate == nil {
			reasons = append(reasons, ReasonAgeUnknown)
		} else {
			if f.BornOnOrBefore != nil && u.BirthDate.After(*f.BornOnOrBefore) {
				reasons = append(reasons, ReasonAgeBelowMinimum)
			}
			if f.BornAfter != nil && !u.BirthDate.After(*f.BornAfter) {
				reasons = append(reasons, ReasonAgeAboveMaximum)
			}
		}
	}
	if f.MinRating != nil && u.AverageRating < *f.MinRating {
		reasons = append(reasons, ReasonRatingBelowMinimum)
	}
	if f.MaxRating != nil && u.AverageRating > *f.MaxRating {
		reasons = append(reasons, ReasonRatingAboveMaximum)
	}
	if f.MinCompletedSessions != nil && u.CompletedSessions < *f.MinCompletedSessions {
		reasons = append(reasons, ReasonNotEnoughSessions)
	}
	if f.Gender != "" && u.Gender != f.Gender {
		reasons = append(reasons, ReasonGenderMismatch)
	}
	if len(f.Countries) > 0 && !slices.Contains(f.Countries, NormalizeCountry(u.Country)) {
		reasons = append(reasons, ReasonLocationNotAllowed)
	}
	if len(f.AnyCategories) > 0 && !overlaps(f.AnyCategories, u.PreferredCategories) {
		reasons = append(reasons, ReasonCategoryMismatch)
	}
	return reasons
}

func (f TesterFilter) Matches(u User) bool {
	return len(f.Reasons(u)) == 0
}

type EligibilityResult struct {
	TesterID   uuid.UUID `json:"tester_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Eligible   bool      `json:"eligible"`
	Reasons    []string  `json:"reasons"`
}

func overlaps(a, b []uuid.UUID) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}
