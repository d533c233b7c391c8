// Package storetest holds the behavior every repository backend must share.
// The memory store runs it in unit tests and Postgres runs it under the
// integration build tag.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Stores struct {
	Users       ports.UserRepository
	Categories  ports.CategoryRepository
	Campaigns   ports.CampaignRepository
	Wallets     ports.WalletRepository
	Withdrawals ports.WithdrawalRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
}

func Run(t *testing.T, stores Stores) {
	t.Run("ledger", func(t *testing.T) { testLedger(t, stores) })
	t.Run("slots", func(t *testing.T) { testSlots(t, stores) })
	t.Run("status guard", func(t *testing.T) { testStatusGuard(t, stores) })
	t.Run("withdrawal queue", func(t *testing.T) { testWithdrawalQueue(t, stores) })
	t.Run("eligible testers", func(t *testing.T) { testEligibleTesters(t, stores) })
	t.Run("outbox", func(t *testing.T) { testOutbox(t, stores) })
	t.Run("dedup", func(t *testing.T) { testDedup(t, stores) })
	t.Run("idempotency", func(t *testing.T) { testIdempotency(t, stores) })
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func createUser(t *testing.T, s Stores, role domain.Role, mutate func(u *domain.User)) domain.User {
	t.Helper()
	id := uuid.New()
	user := domain.User{
		UserID:              id,
		Email:               fmt.Sprintf("%s@example.com", id),
		PasswordHash:        "hash",
		Role:                role,
		Status:              domain.UserStatusActive,
		PreferredCategories: []uuid.UUID{},
		CreatedAt:           now(),
		UpdatedAt:           now(),
	}
	if mutate != nil {
		mutate(&user)
	}
	require.NoError(t, s.Users.Create(context.Background(), user))
	return user
}

func testLedger(t *testing.T, s Stores) {
	ctx := context.Background()
	user := createUser(t, s, domain.RoleTester, nil)
	require.NoError(t, s.Wallets.Create(ctx, domain.Wallet{
		WalletID: uuid.New(), UserID: user.UserID, Currency: domain.DefaultCurrency,
		Balance: decimal.Zero, TotalEarned: decimal.Zero, TotalWithdrawn: decimal.Zero,
		CreatedAt: now(), UpdatedAt: now(),
	}))

	sessionID := uuid.New()
	reward := domain.LedgerEntry{
		UserID: user.UserID, Amount: decimal.RequireFromString("28.00"), Reason: domain.ReasonSessionReward,
		ReferenceType: "session", ReferenceID: sessionID, At: now(),
	}
	tx, err := s.Wallets.Credit(ctx, reward)
	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(decimal.RequireFromString("28")))

	_, err = s.Wallets.Credit(ctx, reward)
	assert.ErrorIs(t, err, domain.ErrConflict, "the same reward cannot be credited twice")

	ok, err := s.Wallets.HasTransaction(ctx, domain.ReasonSessionReward, sessionID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Wallets.Debit(ctx, domain.LedgerEntry{
		UserID: user.UserID, Amount: decimal.NewFromInt(50), Reason: domain.ReasonWithdrawal,
		ReferenceType: "withdrawal", ReferenceID: uuid.New(), At: now(),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	withdrawalID := uuid.New()
	_, err = s.Wallets.Debit(ctx, domain.LedgerEntry{
		UserID: user.UserID, Amount: decimal.NewFromInt(20), Reason: domain.ReasonWithdrawal,
		ReferenceType: "withdrawal", ReferenceID: withdrawalID, At: now(),
	})
	require.NoError(t, err)
	_, err = s.Wallets.Credit(ctx, domain.LedgerEntry{
		UserID: user.UserID, Amount: decimal.NewFromInt(20), Reason: domain.ReasonWithdrawalReversal,
		ReferenceType: "withdrawal", ReferenceID: withdrawalID, At: now(),
	})
	require.NoError(t, err)

	wallet, err := s.Wallets.GetByUserID(ctx, user.UserID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(28)), "balance %s", wallet.Balance)
	assert.True(t, wallet.TotalEarned.Equal(decimal.NewFromInt(28)), "earned %s", wallet.TotalEarned)
	assert.True(t, wallet.TotalWithdrawn.IsZero(), "withdrawn %s", wallet.TotalWithdrawn)

	txs, total, err := s.Wallets.ListTransactions(ctx, user.UserID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, txs, 3)

	_, err = s.Wallets.GetByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testSlots(t *testing.T, s Stores) {
	ctx := context.Background()
	seller := createUser(t, s, domain.RoleSeller, nil)
	category := domain.Category{
		CategoryID: uuid.New(), Name: "Slots", Slug: "slots-" + uuid.NewString()[:8],
		IsActive: true, CreatedAt: now(), UpdatedAt: now(),
	}
	require.NoError(t, s.Categories.Create(ctx, category))

	campaign := domain.Campaign{
		CampaignID: uuid.New(), SellerID: seller.UserID, CategoryID: category.CategoryID,
		Title: "Two slots", StartDate: now(), EndDate: now().Add(24 * time.Hour),
		TotalSlots: 2, AvailableSlots: 2, Status: domain.CampaignStatusActive,
		Offers: []domain.CampaignOffer{}, Procedure: []domain.ProcedureStep{},
		EscrowAmount: decimal.Zero, CreatedAt: now(), UpdatedAt: now(),
	}
	require.NoError(t, s.Campaigns.Create(ctx, campaign))

	require.NoError(t, s.Campaigns.ReserveSlot(ctx, campaign.CampaignID))
	require.NoError(t, s.Campaigns.ReserveSlot(ctx, campaign.CampaignID))
	assert.ErrorIs(t, s.Campaigns.ReserveSlot(ctx, campaign.CampaignID), domain.ErrNoSlotsAvailable)
	assert.ErrorIs(t, s.Campaigns.ReserveSlot(ctx, uuid.New()), domain.ErrNotFound)

	require.NoError(t, s.Campaigns.ReleaseSlot(ctx, campaign.CampaignID))
	require.NoError(t, s.Campaigns.ReleaseSlot(ctx, campaign.CampaignID))
	require.NoError(t, s.Campaigns.ReleaseSlot(ctx, campaign.CampaignID))

	got, err := s.Campaigns.GetByID(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableSlots, "release never exceeds total slots")

	ended, err := s.Campaigns.ListEndedActive(ctx, now().Add(48*time.Hour), 100)
	require.NoError(t, err)
	found := false
	for _, c := range ended {
		found = found || c.CampaignID == campaign.CampaignID
	}
	assert.True(t, found, "an active campaign past its end date is listed")
}

func testStatusGuard(t *testing.T, s Stores) {
	ctx := context.Background()
	seller := createUser(t, s, domain.RoleSeller, nil)
	category := domain.Category{
		CategoryID: uuid.New(), Name: "Guard", Slug: "guard-" + uuid.NewString()[:8],
		IsActive: true, CreatedAt: now(), UpdatedAt: now(),
	}
	require.NoError(t, s.Categories.Create(ctx, category))
	campaign := domain.Campaign{
		CampaignID: uuid.New(), SellerID: seller.UserID, CategoryID: category.CategoryID,
		Title: "Guarded", StartDate: now(), EndDate: now().Add(24 * time.Hour),
		TotalSlots: 1, AvailableSlots: 1, Status: domain.CampaignStatusActive,
		Offers: []domain.CampaignOffer{}, Procedure: []domain.ProcedureStep{},
		EscrowAmount: decimal.Zero, CreatedAt: now(), UpdatedAt: now(),
	}
	require.NoError(t, s.Campaigns.Create(ctx, campaign))

	completed := campaign
	completed.Status = domain.CampaignStatusCompleted
	require.NoError(t, s.Campaigns.Update(ctx, completed, domain.CampaignStatusActive))

	cancelled := campaign
	cancelled.Status = domain.CampaignStatusCancelled
	err := s.Campaigns.Update(ctx, cancelled, domain.CampaignStatusActive)
	assert.ErrorIs(t, err, domain.ErrConflict, "the status moved since it was read")

	got, err := s.Campaigns.GetByID(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusCompleted, got.Status)

	cancelled.CampaignID = uuid.New()
	err = s.Campaigns.Update(ctx, cancelled, domain.CampaignStatusActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testWithdrawalQueue(t *testing.T, s Stores) {
	ctx := context.Background()
	user := createUser(t, s, domain.RoleTester, nil)
	newWithdrawal := func(method domain.WithdrawalMethod, at time.Time) domain.Withdrawal {
		w := domain.Withdrawal{
			WithdrawalID: uuid.New(), UserID: user.UserID, Amount: decimal.NewFromInt(10),
			Currency: domain.DefaultCurrency, Method: method, Status: domain.WithdrawalPending,
			CreatedAt: at, UpdatedAt: at,
		}
		if method == domain.WithdrawalGiftCard {
			w.GiftCardProvider = domain.GiftCardAmazon
		}
		require.NoError(t, s.Withdrawals.Create(ctx, w))
		return w
	}
	giftCard := newWithdrawal(domain.WithdrawalGiftCard, now())
	bank := newWithdrawal(domain.WithdrawalBankTransfer, now().Add(time.Second))

	rows, err := s.Withdrawals.ListByStatusAndMethod(ctx, domain.WithdrawalPending, domain.WithdrawalBankTransfer, 100)
	require.NoError(t, err)
	ids := map[uuid.UUID]bool{}
	for _, w := range rows {
		assert.Equal(t, domain.WithdrawalBankTransfer, w.Method)
		ids[w.WithdrawalID] = true
	}
	assert.True(t, ids[bank.WithdrawalID])
	assert.False(t, ids[giftCard.WithdrawalID], "gift cards are filtered out")

	processing := bank
	processing.Status = domain.WithdrawalProcessing
	require.NoError(t, s.Withdrawals.Update(ctx, processing, domain.WithdrawalPending))
	assert.ErrorIs(t, s.Withdrawals.Update(ctx, processing, domain.WithdrawalPending), domain.ErrConflict)
}

func testEligibleTesters(t *testing.T, s Stores) {
	ctx := context.Background()
	// A country no other subtest uses keeps this isolated on a shared database.
	country := "ZZ"
	born := time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)
	strong := createUser(t, s, domain.RoleTester, func(u *domain.User) {
		u.Country, u.Gender, u.BirthDate = country, domain.GenderFemale, &born
		u.AverageRating, u.CompletedSessions = 4.8, 12
	})
	weak := createUser(t, s, domain.RoleTester, func(u *domain.User) {
		u.Country, u.Gender, u.BirthDate = country, domain.GenderFemale, &born
		u.AverageRating, u.CompletedSessions = 3.1, 2
	})
	createUser(t, s, domain.RoleTester, func(u *domain.User) {
		u.Country, u.Gender, u.BirthDate = country, domain.GenderMale, &born
		u.AverageRating, u.CompletedSessions = 5, 40
	})
	createUser(t, s, domain.RoleTester, func(u *domain.User) {
		u.Country, u.Gender, u.Status = country, domain.GenderFemale, domain.UserStatusSuspended
	})
	createUser(t, s, domain.RoleSeller, func(u *domain.User) { u.Country, u.Gender = country, domain.GenderFemale })

	criteria := domain.CampaignCriteria{MinAge: intPtr(18), RequiredGender: domain.GenderFemale, RequiredLocations: []string{country}}.Normalize()
	users, err := s.Users.ListEligibleTesters(ctx, criteria.FilterAt(now()), 10, 0)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	assert.Equal(t, []uuid.UUID{strong.UserID, weak.UserID}, ids, "ranked by rating")

	criteria.MinCompletedSessions = intPtr(5)
	users, err = s.Users.ListEligibleTesters(ctx, criteria.FilterAt(now()), 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, strong.UserID, users[0].UserID)
}

func testOutbox(t *testing.T, s Stores) {
	ctx := context.Background()
	first := ports.OutboxEvent{EventID: uuid.New(), EventType: domain.EventSessionApplied, PartitionKey: "a", Payload: []byte(`{"n":1}`), OccurredAt: now()}
	second := ports.OutboxEvent{EventID: uuid.New(), EventType: domain.EventSessionAccepted, PartitionKey: "a", Payload: []byte(`{"n":2}`), OccurredAt: now().Add(time.Millisecond)}
	require.NoError(t, s.Outbox.Enqueue(ctx, first))
	require.NoError(t, s.Outbox.Enqueue(ctx, second))
	assert.ErrorIs(t, s.Outbox.Enqueue(ctx, first), domain.ErrConflict)

	require.NoError(t, s.Outbox.MarkFailed(ctx, first.EventID, "broker down", now()))
	require.NoError(t, s.Outbox.MarkPublished(ctx, second.EventID, now()))

	rows, err := s.Outbox.FetchUnpublished(ctx, 1000)
	require.NoError(t, err)
	var pending *ports.OutboxRecord
	for i := range rows {
		assert.NotEqual(t, second.EventID, rows[i].OutboxID, "published rows are not fetched again")
		if rows[i].OutboxID == first.EventID {
			pending = &rows[i]
		}
	}
	require.NotNil(t, pending)
	assert.Equal(t, 1, pending.RetryCount)
	require.NotNil(t, pending.LastError)
	assert.Equal(t, "broker down", *pending.LastError)
	assert.JSONEq(t, `{"n":1}`, string(pending.Payload))
}

func testDedup(t *testing.T, s Stores) {
	ctx := context.Background()
	eventID := uuid.NewString()
	dup, err := s.EventDedup.IsDuplicate(ctx, eventID, now())
	require.NoError(t, err)
	assert.False(t, dup)

	require.NoError(t, s.EventDedup.MarkProcessed(ctx, eventID, domain.EventReviewCreated, now().Add(time.Hour)))
	dup, err = s.EventDedup.IsDuplicate(ctx, eventID, now())
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = s.EventDedup.IsDuplicate(ctx, eventID, now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, dup, "expired markers do not block redelivery")
}

func testIdempotency(t *testing.T, s Stores) {
	ctx := context.Background()
	key := "apply:" + uuid.NewString()
	expires := now().Add(time.Hour)

	rec, err := s.Idempotency.Get(ctx, key, now())
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, s.Idempotency.Reserve(ctx, key, "hash-1", expires))
	assert.ErrorIs(t, s.Idempotency.Reserve(ctx, key, "hash-2", expires), domain.ErrConflict)

	require.NoError(t, s.Idempotency.Release(ctx, key))
	require.NoError(t, s.Idempotency.Reserve(ctx, key, "hash-1", expires))
	require.NoError(t, s.Idempotency.Complete(ctx, key, 201, []byte(`{"ok":true}`), now()))
	require.NoError(t, s.Idempotency.Release(ctx, key), "completed keys survive release")

	rec, err = s.Idempotency.Get(ctx, key, now())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "completed", rec.Status)
	assert.Equal(t, 201, rec.ResponseCode)
	assert.Equal(t, "hash-1", rec.RequestHash)
	assert.JSONEq(t, `{"ok":true}`, string(rec.ResponseBody))

	assert.ErrorIs(t, s.Idempotency.Complete(ctx, "missing-"+key, 200, nil, now()), domain.ErrNotFound)
}

func intPtr(v int) *int { return &v }
