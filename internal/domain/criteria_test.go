package domain_test

import (
	"testing"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referenceNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestAgeBoundsAgreeWithAgeAt(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	origin := time.Date(1920, time.January, 1, 0, 0, 0, 0, time.UTC)
	properties.Property("filter matches exactly the ages inside the bounds", prop.ForAll(
		func(days, minAge, span int) bool {
			maxAge := min(minAge+span, domain.MaxTesterAge)
			birth := origin.AddDate(0, 0, days)
			user := domain.User{BirthDate: &birth}
			filter := domain.CampaignCriteria{MinAge: &minAge, MaxAge: &maxAge}.FilterAt(referenceNow)

			age, _ := user.AgeAt(referenceNow)
			return filter.Matches(user) == (age >= minAge && age <= maxAge)
		},
		gen.IntRange(0, 365*100),
		gen.IntRange(domain.MinTesterAge, 70),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

func TestFilterReasons(t *testing.T) {
	t.Parallel()

	electronics := uuid.New()
	criteria := domain.CampaignCriteria{
		MinAge:               intPtr(18),
		MaxAge:               intPtr(40),
		MinRating:            floatPtr(3.5),
		MinCompletedSessions: intPtr(2),
		RequiredGender:       domain.GenderFemale,
		RequiredLocations:    []string{"fr", " be ", "FR"},
		RequiredCategories:   []uuid.UUID{electronics, uuid.Nil},
	}.Normalize()
	require.NoError(t, criteria.Validate())
	assert.Equal(t, []string{"FR", "BE"}, criteria.RequiredLocations)
	assert.Equal(t, []uuid.UUID{electronics}, criteria.RequiredCategories)
	filter := criteria.FilterAt(referenceNow)

	match := domain.User{
		BirthDate:           datePtr(1990, time.March, 3),
		AverageRating:       4.2,
		CompletedSessions:   3,
		Gender:              domain.GenderFemale,
		Country:             "be",
		PreferredCategories: []uuid.UUID{uuid.New(), electronics},
	}

	cases := []struct {
		name   string
		mutate func(u *domain.User)
		want   []string
	}{
		{"eligible", func(*domain.User) {}, []string{}},
		{"too young", func(u *domain.User) { u.BirthDate = datePtr(2010, time.January, 1) }, []string{domain.ReasonAgeBelowMinimum}},
		{"too old", func(u *domain.User) { u.BirthDate = datePtr(1970, time.January, 1) }, []string{domain.ReasonAgeAboveMaximum}},
		{"no birth date", func(u *domain.User) { u.BirthDate = nil }, []string{domain.ReasonAgeUnknown}},
		{"rating", func(u *domain.User) { u.AverageRating = 2 }, []string{domain.ReasonRatingBelowMinimum}},
		{"sessions", func(u *domain.User) { u.CompletedSessions = 1 }, []string{domain.ReasonNotEnoughSessions}},
		{"several", func(u *domain.User) {
			u.Gender = domain.GenderMale
			u.Country = "DE"
			u.PreferredCategories = nil
		}, []string{domain.ReasonGenderMismatch, domain.ReasonLocationNotAllowed, domain.ReasonCategoryMismatch}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := match
			tc.mutate(&user)
			if diff := cmp.Diff(tc.want, filter.Reasons(user)); diff != "" {
				t.Fatalf("reasons mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenderAllIsNotAFilter(t *testing.T) {
	t.Parallel()

	filter := domain.CampaignCriteria{}.Normalize().FilterAt(referenceNow)
	assert.Empty(t, filter.Gender)
	assert.True(t, filter.Matches(domain.User{Gender: domain.GenderOther}))
}

func TestCriteriaValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		criteria domain.CampaignCriteria
		ok       bool
	}{
		{"empty", domain.CampaignCriteria{}, true},
		{"age bounds", domain.CampaignCriteria{MinAge: intPtr(18), MaxAge: intPtr(18)}, true},
		{"min age below floor", domain.CampaignCriteria{MinAge: intPtr(15)}, false},
		{"max age above ceiling", domain.CampaignCriteria{MaxAge: intPtr(121)}, false},
		{"inverted ratings", domain.CampaignCriteria{MinRating: floatPtr(4), MaxRating: floatPtr(3)}, false},
		{"rating out of range", domain.CampaignCriteria{MinRating: floatPtr(5.5)}, false},
		{"negative sessions", domain.CampaignCriteria{MinCompletedSessions: intPtr(-1)}, false},
		{"unknown gender", domain.CampaignCriteria{RequiredGender: "ROBOT"}, false},
		{"bad country", domain.CampaignCriteria{RequiredLocations: []string{"FRA"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.criteria.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAgeAtAndRating(t *testing.T) {
	t.Parallel()

	user := domain.User{BirthDate: datePtr(2000, time.June, 16)}
	age, ok := user.AgeAt(referenceNow)
	require.True(t, ok)
	assert.Equal(t, 24, age, "birthday is tomorrow")

	_, ok = domain.User{}.AgeAt(referenceNow)
	assert.False(t, ok)

	rated := domain.User{}.WithStats(domain.TesterStats{CompletedSessions: 3, RatingCount: 2, RatingSum: 9})
	assert.Equal(t, 3, rated.CompletedSessions)
	assert.Equal(t, 2, rated.RatingCount)
	assert.InDelta(t, 4.5, rated.AverageRating, 0.001)
	rated = rated.WithStats(domain.TesterStats{CompletedSessions: 3, RatingCount: 3, RatingSum: 14})
	assert.InDelta(t, 4.67, rated.AverageRating, 0.001)
	rated = rated.WithStats(domain.TesterStats{CompletedSessions: 1})
	assert.Zero(t, rated.AverageRating)
}
