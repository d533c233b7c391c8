package application_test

import (
	"testing"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)

	_, err := f.service.CreateCategory(f.ctx, seller, application.CategoryInput{Name: "Garden"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.service.CreateCategory(f.ctx, f.admin, application.CategoryInput{Name: "electronics"})
	assert.ErrorIs(t, err, domain.ErrConflict, "slug already taken")

	garden, err := f.service.CreateCategory(f.ctx, f.admin, application.CategoryInput{Name: "Garden Tools"})
	require.NoError(t, err)
	assert.Equal(t, "garden-tools", garden.Slug)

	// Electronics is used by the product below.
	_, err = f.service.CreateProduct(f.ctx, seller, application.ProductInput{
		CategoryID: f.category.CategoryID, Name: "Speaker", Price: decimal.NewFromInt(30),
	})
	require.NoError(t, err)
	err = f.service.DeleteCategory(f.ctx, f.admin, f.category.CategoryID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	inactive := false
	_, err = f.service.UpdateCategory(f.ctx, f.admin, garden.CategoryID, application.CategoryInput{Name: "Garden Tools", IsActive: &inactive})
	require.NoError(t, err)
	_, err = f.service.CreateProduct(f.ctx, seller, application.ProductInput{
		CategoryID: garden.CategoryID, Name: "Rake", Price: decimal.NewFromInt(12),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "inactive category")

	active, err := f.service.ListCategories(f.ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, f.service.DeleteCategory(f.ctx, f.admin, garden.CategoryID))
	_, err = f.service.GetCategory(f.ctx, garden.CategoryID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductOwnership(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	owner := f.seller(t)
	other := f.seller(t)

	product, err := f.service.CreateProduct(f.ctx, owner, application.ProductInput{
		CategoryID: f.category.CategoryID, Name: "Blender", Price: decimal.RequireFromString("49.99"),
	})
	require.NoError(t, err)

	_, err = f.service.UpdateProduct(f.ctx, other, product.ProductID, application.ProductInput{
		CategoryID: f.category.CategoryID, Name: "Mine now", Price: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.service.DeleteProduct(f.ctx, owner, product.ProductID))
	detail, err := f.service.GetProduct(f.ctx, product.ProductID)
	require.NoError(t, err)
	assert.False(t, detail.IsActive)

	// Deactivated products cannot back a new campaign offer.
	draft := f.draftCampaign(t, owner, defaultCampaignSpec())
	_, err = f.service.SetOffers(f.ctx, owner, draft.CampaignID, []domain.CampaignOffer{{
		ProductID: product.ProductID, Quantity: 1, ExpectedPrice: decimal.NewFromInt(10),
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	page, err := f.service.ListMyProducts(f.ctx, owner, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total, "only the campaign product is still listed")
}

func TestListActiveCampaignsCacheIsInvalidated(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	f.activeCampaign(t, seller, defaultCampaignSpec())

	page, err := f.service.ListActiveCampaigns(f.ctx, application.ListCampaignsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	// A draft does not touch the cached listing.
	f.draftCampaign(t, seller, defaultCampaignSpec())
	page, err = f.service.ListActiveCampaigns(f.ctx, application.ListCampaignsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	f.activeCampaign(t, seller, defaultCampaignSpec())
	page, err = f.service.ListActiveCampaigns(f.ctx, application.ListCampaignsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	search, err := f.service.ListActiveCampaigns(f.ctx, application.ListCampaignsQuery{Search: "nothing like this"})
	require.NoError(t, err)
	assert.Zero(t, search.Total)
}

func TestDraftCampaignIsHiddenFromOthers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	draft := f.draftCampaign(t, seller, defaultCampaignSpec())

	_, err := f.service.GetCampaign(f.ctx, tester, draft.CampaignID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.service.GetCampaign(f.ctx, f.admin, draft.CampaignID)
	require.NoError(t, err)

	mine, err := f.service.ListMyCampaigns(f.ctx, seller, "draft", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Total)
}

func TestPlatformStatsAndBroadcast(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	f.activeCampaign(t, seller, defaultCampaignSpec())

	stats, err := f.service.GetPlatformStats(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UsersByRole[domain.RoleAdmin])
	assert.Equal(t, 1, stats.UsersByRole[domain.RoleSeller])
	assert.Equal(t, 1, stats.UsersByRole[domain.RoleTester])
	assert.Equal(t, 1, stats.CampaignsByStatus[domain.CampaignStatusActive])
	assert.True(t, stats.WalletBalances.IsZero())

	_, err = f.service.GetPlatformStats(f.ctx, seller)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	res, err := f.service.BroadcastNotification(f.ctx, f.admin, application.BroadcastInput{Role: "tester", Title: "Maintenance", Body: "Back in ten minutes."})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Recipients)

	res, err = f.service.BroadcastNotification(f.ctx, f.admin, application.BroadcastInput{Title: "Hello", Body: "Everyone gets this."})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Recipients)

	inbox, err := f.service.ListNotifications(f.ctx, tester, true, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, inbox.Total)

	_, err = f.service.BroadcastNotification(f.ctx, f.admin, application.BroadcastInput{Role: "robots", Title: "x", Body: "y"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSystemLogsRecordAndPurge(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	f.activeCampaign(t, seller, defaultCampaignSpec())

	logs, err := f.service.ListSystemLogs(f.ctx, f.admin, application.SystemLogQuery{Category: "campaign"})
	require.NoError(t, err)
	require.NotZero(t, logs.Total)
	assert.Equal(t, "campaign activated", logs.Items[0].Message)

	_, err = f.service.ListSystemLogs(f.ctx, seller, application.SystemLogQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.clock.Advance(91 * 24 * time.Hour)
	removed, err := f.service.PurgeSystemLogs(f.ctx, 0)
	require.NoError(t, err)
	assert.Positive(t, removed)
}

func TestPresignUploadWithoutStorage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tester := f.tester(t)

	_, err := f.service.PresignUpload(f.ctx, tester, application.PresignInput{Kind: "PRODUCT_IMAGE", FileName: "a.png", ContentType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.service.PresignUpload(f.ctx, tester, application.PresignInput{Kind: "PURCHASE_PROOF", FileName: "a.exe", ContentType: "application/x-msdownload"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.service.PresignUpload(f.ctx, tester, application.PresignInput{Kind: "PURCHASE_PROOF", FileName: "a.png", ContentType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrDependencyUnavailable)
}
