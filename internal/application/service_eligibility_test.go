package application_test

import (
	"testing"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestEligibilityReasons(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	spec := defaultCampaignSpec()
	spec.criteria = &domain.CampaignCriteria{
		MinAge:            intPtr(18),
		RequiredGender:    domain.GenderMale,
		RequiredLocations: []string{"fr"},
	}
	campaign := f.activeCampaign(t, seller, spec)
	assert.Equal(t, []string{"FR"}, campaign.Criteria.RequiredLocations)

	female := f.tester(t)
	unknownAge := f.register(t, "no-birth-"+uuid.NewString()[:8]+"@example.com", "TESTER", func(in *application.RegisterInput) {
		in.Gender = "MALE"
		in.Country = "FR"
	})
	match := f.register(t, "match-"+uuid.NewString()[:8]+"@example.com", "TESTER", func(in *application.RegisterInput) {
		in.FirstName = "Marc"
		in.Gender = "MALE"
		in.Country = "FR"
		in.BirthDate = "1990-01-01"
	})

	cases := []struct {
		name   string
		tester application.Actor
		want   []string
	}{
		{"gender", female, []string{domain.ReasonGenderMismatch}},
		{"unknown age", unknownAge, []string{domain.ReasonAgeUnknown}},
		{"eligible", match, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.service.CheckTesterEligibility(f.ctx, tc.tester, campaign.CampaignID, tc.tester.UserID)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, res.Reasons); diff != "" {
				t.Fatalf("reasons mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, len(tc.want) == 0, res.Eligible)
		})
	}

	_, err := f.service.CheckTesterEligibility(f.ctx, female, campaign.CampaignID, match.UserID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "testers can only check themselves")

	_, err = f.service.ApplyToCampaign(f.ctx, female, campaign.CampaignID, application.ApplyInput{})
	assert.ErrorIs(t, err, domain.ErrNotEligible)

	page, err := f.service.GetEligibleTesters(f.ctx, seller, campaign.CampaignID, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, match.UserID, page.Items[0].TesterID)
	assert.Equal(t, "Marc", page.Items[0].FirstName)
	assert.False(t, page.HasMore)
}

func TestEligibilityCustomRule(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	spec := defaultCampaignSpec()
	spec.criteria = &domain.CampaignCriteria{CustomRule: `tester.age > 30 && tester.country == "FR"`}
	campaign := f.activeCampaign(t, seller, spec)

	// Born 1995-06-15, so 30 on the fixture date.
	young := f.tester(t)
	older := f.register(t, "older-"+uuid.NewString()[:8]+"@example.com", "TESTER", func(in *application.RegisterInput) {
		in.Country = "FR"
		in.BirthDate = "1980-05-05"
	})
	undated := f.register(t, "undated-"+uuid.NewString()[:8]+"@example.com", "TESTER", func(in *application.RegisterInput) {
		in.Country = "FR"
	})

	res, err := f.service.CheckTesterEligibility(f.ctx, seller, campaign.CampaignID, young.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.ReasonCustomRuleFailed}, res.Reasons)

	res, err = f.service.CheckTesterEligibility(f.ctx, f.admin, campaign.CampaignID, undated.UserID)
	require.NoError(t, err)
	assert.False(t, res.Eligible, "unknown age is reported as -1")

	_, err = f.service.ApplyToCampaign(f.ctx, older, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)

	res, err = f.service.CheckTesterEligibility(f.ctx, older, campaign.CampaignID, older.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.ReasonAlreadyParticipating}, res.Reasons)

	page, err := f.service.GetEligibleTesters(f.ctx, seller, campaign.CampaignID, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, older.UserID, page.Items[0].TesterID)
}

func TestEligibilityScanCapReportsMore(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withScanLimits(2, 2))
	seller := f.seller(t)
	spec := defaultCampaignSpec()
	spec.criteria = &domain.CampaignCriteria{CustomRule: `tester.country == "FR"`}
	campaign := f.activeCampaign(t, seller, spec)
	for i := 0; i < 5; i++ {
		f.tester(t)
	}

	page, err := f.service.GetEligibleTesters(f.ctx, seller, campaign.CampaignID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 4, "two batches of two")
	assert.True(t, page.HasMore, "the scan stopped at its cap with testers left")

	wide := newFixture(t, withScanLimits(10, 2))
	seller = wide.seller(t)
	campaign = wide.activeCampaign(t, seller, spec)
	for i := 0; i < 5; i++ {
		wide.tester(t)
	}
	page, err = wide.service.GetEligibleTesters(wide.ctx, seller, campaign.CampaignID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.False(t, page.HasMore)
}

func TestSetCriteriaRejectsBadRules(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	draft := f.draftCampaign(t, seller, defaultCampaignSpec())

	cases := []struct {
		name     string
		criteria domain.CampaignCriteria
	}{
		{"unparsable rule", domain.CampaignCriteria{CustomRule: "tester.age >"}},
		{"unknown variable", domain.CampaignCriteria{CustomRule: "seller.age > 3"}},
		{"age too low", domain.CampaignCriteria{MinAge: intPtr(10)}},
		{"inverted ages", domain.CampaignCriteria{MinAge: intPtr(40), MaxAge: intPtr(30)}},
		{"bad location", domain.CampaignCriteria{RequiredLocations: []string{"France"}}},
		{"unknown category", domain.CampaignCriteria{RequiredCategories: []uuid.UUID{uuid.New()}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.SetCriteria(f.ctx, seller, draft.CampaignID, tc.criteria)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestDomainEventsBecomeNotifications(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())

	session, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)
	_, err = f.service.AcceptSession(f.ctx, seller, session.SessionID)
	require.NoError(t, err)

	records, err := f.repos.Outbox.FetchUnpublished(f.ctx, 100)
	require.NoError(t, err)
	types := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.EventType == domain.EventUserRegistered {
			continue
		}
		types = append(types, rec.EventType)
	}
	want := []string{domain.EventCampaignActivated, domain.EventSessionApplied, domain.EventSessionAccepted}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Fatalf("outbox events mismatch (-want +got):\n%s", diff)
	}

	// Delivering every record twice must not duplicate notifications.
	for i := 0; i < 2; i++ {
		for _, rec := range records {
			require.NoError(t, f.service.HandleDomainEvent(f.ctx, rec.EventType, rec.PartitionKey, rec.Payload))
		}
	}

	sellerInbox, err := f.service.ListNotifications(f.ctx, seller, false, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, sellerInbox.Total)
	assert.Equal(t, domain.NotificationSessionApplied, sellerInbox.Items[0].Type)

	unread, err := f.service.UnreadNotificationCount(f.ctx, tester)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	marked, err := f.service.MarkAllNotificationsRead(f.ctx, tester)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	unread, err = f.service.UnreadNotificationCount(f.ctx, tester)
	require.NoError(t, err)
	assert.Zero(t, unread)

	err = f.service.HandleDomainEvent(f.ctx, domain.EventSessionApplied, "", []byte(`{"event_type":"session.applied"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	for _, rec := range records {
		if rec.EventType != domain.EventSessionApplied {
			continue
		}
		err = f.service.HandleDomainEvent(f.ctx, rec.EventType, "other-key", rec.Payload)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "a message filed under another key is rejected")
		require.NoError(t, f.service.HandleDomainEvent(f.ctx, rec.EventType, "", rec.Payload), "keyless transports fall back to the envelope key")
	}
	sellerInbox, err = f.service.ListNotifications(f.ctx, seller, false, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sellerInbox.Total, "the envelope key still deduplicates")
}

func TestReviewsAfterCompletion(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())
	session := f.submittedSession(t, seller, tester, campaign, campaign.Offers[0].ExpectedPrice)

	_, err := f.service.CreateReview(f.ctx, tester, application.ReviewInput{SessionID: session.SessionID, Rating: 4})
	assert.ErrorIs(t, err, domain.ErrConflict, "session is not completed yet")

	_, err = f.service.CompleteSession(f.ctx, seller, session.SessionID, application.CompleteSessionInput{})
	require.NoError(t, err)

	_, err = f.service.CreateReview(f.ctx, tester, application.ReviewInput{SessionID: session.SessionID, Rating: 6})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	review, err := f.service.CreateReview(f.ctx, tester, application.ReviewInput{SessionID: session.SessionID, Rating: 4, Comment: "Solid"})
	require.NoError(t, err)
	assert.Equal(t, campaign.Offers[0].ProductID, review.ProductID)

	_, err = f.service.CreateReview(f.ctx, tester, application.ReviewInput{SessionID: session.SessionID, Rating: 5})
	assert.ErrorIs(t, err, domain.ErrConflict, "one review per session")

	product, err := f.service.GetProduct(f.ctx, review.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 1, product.Rating.ReviewCount)
	assert.InDelta(t, 4.0, product.Rating.AverageRating, 0.001)
}
