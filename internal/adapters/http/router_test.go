package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/cache"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/memory"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/payments"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/rules"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/security"
	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router   http.Handler
	service  *application.Service
	signer   *security.JWTSigner
	category domain.Category
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	signer, err := security.NewEphemeralJWTSigner("http-test")
	require.NoError(t, err)
	evaluator, err := rules.NewCELEvaluator()
	require.NoError(t, err)
	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Config:        application.Config{CommissionPercent: decimal.NewFromInt(10)},
		Users:         repos.Users,
		Categories:    repos.Categories,
		Products:      repos.Products,
		Campaigns:     repos.Campaigns,
		Sessions:      repos.Sessions,
		BonusTasks:    repos.BonusTasks,
		Disputes:      repos.Disputes,
		Wallets:       repos.Wallets,
		Withdrawals:   repos.Withdrawals,
		Reviews:       repos.Reviews,
		Notifications: repos.Notifications,
		SystemLogs:    repos.SystemLogs,
		Outbox:        repos.Outbox,
		EventDedup:    repos.EventDedup,
		Idempotency:   repos.Idempotency,
		Cache:         cache.NewMemoryCache(),
		Tokens:        signer,
		Hasher:        security.NewBcryptHasher(4),
		Payments:      payments.NewSandboxGateway("whsec_test"),
		Rules:         evaluator,
	})
	admin, err := svc.CreateAdmin(context.Background(), "admin@example.com", "SecurePass123")
	require.NoError(t, err)
	category, err := svc.CreateCategory(context.Background(), application.Actor{UserID: admin.UserID, Role: domain.RoleAdmin}, application.CategoryInput{Name: "Kitchen"})
	require.NoError(t, err)
	if opts.JWKs == nil {
		opts.JWKs = signer.PublicJWKs
	}
	return &testServer{router: NewRouter(NewHandler(svc, opts)), service: svc, signer: signer, category: category}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestHealthAndJWKS(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db down") }})

	rec, env := srv.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec, env = srv.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "NOT_READY", env.Code)

	rec, _ = srv.do(t, http.MethodGet, "/.well-known/jwks.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var jwks struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jwks))
	require.Len(t, jwks.Keys, 1)
	assert.Equal(t, "http-test", jwks.Keys[0]["kid"])
}

func TestRegisterLoginAndProfile(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})
	register := map[string]any{
		"email": "seller@example.com", "password": "SecurePass123", "role": "SELLER",
		"first_name": "Sam", "last_name": "Seller", "company_name": "Acme",
	}
	rec, _ := srv.do(t, http.MethodPost, "/v1/auth/register", "", register)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := srv.do(t, http.MethodPost, "/v1/auth/register", "", register)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "error", env.Status)

	rec, env = srv.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "seller@example.com", "password": "wrong-pass1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	rec, env = srv.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "SELLER@example.com", "password": "SecurePass123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var auth application.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	require.NotEmpty(t, auth.AccessToken)

	rec, env = srv.do(t, http.MethodGet, "/v1/auth/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, domain.RoleSeller, me.Role)
	assert.Equal(t, "Acme", me.CompanyName)

	rec, env = srv.do(t, http.MethodPost, "/v1/products", auth.AccessToken, map[string]any{
		"category_id": srv.category.CategoryID, "name": "Blender", "price": "49.99",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &product))

	rec, _ = srv.do(t, http.MethodGet, "/v1/products/"+product.ProductID.String(), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "product pages are public")

	rec, env = srv.do(t, http.MethodGet, "/v1/admin/stats", auth.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Code)
}

func TestRequestValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})

	rec, env := srv.do(t, http.MethodGet, "/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	rec, _ = srv.do(t, http.MethodGet, "/v1/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = srv.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"a@b.c","password":"x","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	rec, _ = srv.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"a@b.c"}{"again":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = srv.do(t, http.MethodGet, "/v1/categories/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "category_id")

	rec, env = srv.do(t, http.MethodGet, "/v1/categories/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var categories []domain.Category
	require.NoError(t, json.Unmarshal(env.Data, &categories))
	assert.Len(t, categories, 1)

	rec, env = srv.do(t, http.MethodPost, "/v1/payments/stripe/webhook", "", `{"id":"evt_1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "unsigned webhooks are rejected")
	assert.Equal(t, "error", env.Status)
}

func TestRateLimiterPerClientIP(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{RateLimitRPS: 1, RateLimitBurst: 2})
	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("203.0.113.7").Code)
	assert.Equal(t, http.StatusOK, call("203.0.113.7").Code)
	limited := call("203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, call("198.51.100.2").Code, "other clients keep their own bucket")
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	h := requestIDMiddleware(recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestMapDomainError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: bad email", domain.ErrInvalidInput), http.StatusBadRequest, "VALIDATION_ERROR"},
		{domain.ErrAccountLocked, http.StatusTooManyRequests, "ACCOUNT_LOCKED"},
		{fmt.Errorf("apply: %w", domain.ErrNotEligible), http.StatusForbidden, "NOT_ELIGIBLE"},
		{domain.ErrNoSlotsAvailable, http.StatusConflict, "NO_SLOTS_AVAILABLE"},
		{fmt.Errorf("%w: session PENDING -> COMPLETED", domain.ErrInvalidStateTransition), http.StatusConflict, "INVALID_STATE_TRANSITION"},
		{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{domain.ErrIdempotencyConflict, http.StatusConflict, "IDEMPOTENCY_CONFLICT"},
		{domain.ErrDependencyUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		status, code, _ := mapDomainError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}
