package application_test

import (
	"testing"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewListingsPaginate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())
	for i, rating := range []int{5, 3} {
		tester := f.tester(t)
		session := f.submittedSession(t, seller, tester, campaign, campaign.Offers[0].ExpectedPrice)
		_, err := f.service.CompleteSession(f.ctx, seller, session.SessionID, application.CompleteSessionInput{})
		require.NoError(t, err, "complete session %d", i)
		_, err = f.service.CreateReview(f.ctx, tester, application.ReviewInput{SessionID: session.SessionID, Rating: rating})
		require.NoError(t, err, "review %d", i)
	}

	listings := []struct {
		name string
		list func(limit, offset int) (application.Page[domain.Review], error)
	}{
		{"product", func(limit, offset int) (application.Page[domain.Review], error) {
			return f.service.ListProductReviews(f.ctx, campaign.Offers[0].ProductID, limit, offset)
		}},
		{"campaign", func(limit, offset int) (application.Page[domain.Review], error) {
			return f.service.ListCampaignReviews(f.ctx, campaign.CampaignID, limit, offset)
		}},
	}
	for _, tc := range listings {
		t.Run(tc.name, func(t *testing.T) {
			first, err := tc.list(1, 0)
			require.NoError(t, err)
			assert.Equal(t, 2, first.Total)
			assert.Equal(t, 1, first.Limit)
			require.Len(t, first.Items, 1)

			second, err := tc.list(1, 1)
			require.NoError(t, err)
			assert.Equal(t, 1, second.Offset)
			require.Len(t, second.Items, 1)
			assert.NotEqual(t, first.Items[0].ReviewID, second.Items[0].ReviewID)

			past, err := tc.list(1, 2)
			require.NoError(t, err)
			assert.Empty(t, past.Items)
			assert.Equal(t, 2, past.Total)

			all, err := tc.list(0, -3)
			require.NoError(t, err)
			assert.Equal(t, domain.DefaultPageLimit, all.Limit)
			assert.Zero(t, all.Offset)
			assert.Len(t, all.Items, 2)
		})
	}

	none, err := f.service.ListProductReviews(f.ctx, uuid.New(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none.Items)
	assert.Zero(t, none.Total)
}
