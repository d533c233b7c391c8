package application_test

import (
	"errors"
	"testing"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesTesterWallet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	out, err := f.service.Register(f.ctx, application.RegisterInput{
		Email:     "  Alice@Example.com ",
		Password:  testPassword,
		Role:      "tester",
		FirstName: "Alice",
		BirthDate: "1990-01-31",
		Country:   "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", out.User.Email)
	assert.Equal(t, domain.RoleTester, out.User.Role)
	assert.Equal(t, "FR", out.User.Country)
	assert.NotEmpty(t, out.AccessToken)
	assert.Equal(t, "Bearer", out.TokenType)

	wallet, err := f.service.GetWallet(f.ctx, actorOf(out.User))
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())
	assert.Equal(t, "EUR", wallet.Currency)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.register(t, "taken@example.com", "SELLER", nil)

	cases := []struct {
		name  string
		input application.RegisterInput
		want  error
	}{
		{"admin role", application.RegisterInput{Email: "a@example.com", Password: testPassword, Role: "ADMIN"}, domain.ErrInvalidInput},
		{"weak password", application.RegisterInput{Email: "b@example.com", Password: "short", Role: "TESTER"}, domain.ErrInvalidInput},
		{"password without digit", application.RegisterInput{Email: "c@example.com", Password: "onlyletters", Role: "TESTER"}, domain.ErrInvalidInput},
		{"bad email", application.RegisterInput{Email: "not-an-email", Password: testPassword, Role: "TESTER"}, domain.ErrInvalidInput},
		{"bad gender", application.RegisterInput{Email: "d@example.com", Password: testPassword, Role: "TESTER", Gender: "ALL"}, domain.ErrInvalidInput},
		{"bad country", application.RegisterInput{Email: "e@example.com", Password: testPassword, Role: "TESTER", Country: "France"}, domain.ErrInvalidInput},
		{"duplicate email", application.RegisterInput{Email: "TAKEN@example.com", Password: testPassword, Role: "TESTER"}, domain.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Register(f.ctx, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.register(t, "locked@example.com", "TESTER", nil)

	for i := 0; i < 5; i++ {
		_, err := f.service.Login(f.ctx, application.LoginInput{Email: "locked@example.com", Password: "WrongPass999"})
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	}
	_, err := f.service.Login(f.ctx, application.LoginInput{Email: "locked@example.com", Password: testPassword})
	require.ErrorIs(t, err, domain.ErrAccountLocked)

	_, err = f.service.Login(f.ctx, application.LoginInput{Email: "unknown@example.com", Password: testPassword})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateTokenRejectsSuspendedUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	out, err := f.service.Register(f.ctx, application.RegisterInput{
		Email: "suspend-me@example.com", Password: testPassword, Role: "SELLER",
	})
	require.NoError(t, err)

	actor, err := f.service.ValidateToken(f.ctx, out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, out.User.UserID, actor.UserID)
	assert.Equal(t, domain.RoleSeller, actor.Role)

	_, err = f.service.SetUserStatus(f.ctx, f.admin, out.User.UserID, application.SetUserStatusInput{Status: "suspended", Reason: "fraud"})
	require.NoError(t, err)

	_, err = f.service.ValidateToken(f.ctx, out.AccessToken)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.service.Login(f.ctx, application.LoginInput{Email: "suspend-me@example.com", Password: testPassword})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.ValidateToken(f.ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSetUserStatusGuards(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)

	_, err := f.service.SetUserStatus(f.ctx, seller, f.admin.UserID, application.SetUserStatusInput{Status: "SUSPENDED"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.service.SetUserStatus(f.ctx, f.admin, f.admin.UserID, application.SetUserStatusInput{Status: "SUSPENDED"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.service.SetUserStatus(f.ctx, f.admin, seller.UserID, application.SetUserStatusInput{Status: "BANNED"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tester := f.tester(t)

	city := "Lyon"
	categories := []uuid.UUID{f.category.CategoryID}
	user, err := f.service.UpdateProfile(f.ctx, tester, application.UpdateProfileInput{
		City:                &city,
		PreferredCategories: &categories,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lyon", user.City)
	assert.Equal(t, categories, user.PreferredCategories)

	company := "Nope"
	_, err = f.service.UpdateProfile(f.ctx, tester, application.UpdateProfileInput{CompanyName: &company})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	unknown := []uuid.UUID{uuid.New()}
	_, err = f.service.UpdateProfile(f.ctx, tester, application.UpdateProfileInput{PreferredCategories: &unknown})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateAdminAndSeedCategories(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	created, err := f.service.SeedCategories(f.ctx, []string{"Electronics", "Home & Kitchen", "Books"})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = f.service.SeedCategories(f.ctx, []string{"Books"})
	require.NoError(t, err)
	assert.Zero(t, created)

	_, err = f.service.CreateAdmin(f.ctx, "admin@example.com", testPassword)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}
