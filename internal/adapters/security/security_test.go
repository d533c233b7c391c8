package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func claimsFor(ttl time.Duration) ports.AuthClaims {
	now := time.Now().UTC()
	return ports.AuthClaims{
		UserID:    uuid.New(),
		Email:     "tester@example.com",
		Role:      string(domain.RoleTester),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestJWTRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("")
	require.NoError(t, err)

	in := claimsFor(time.Hour)
	token, err := signer.Sign(in)
	require.NoError(t, err)

	out, err := signer.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.Role, out.Role)
	assert.Equal(t, "ephemeral-key-1", out.KeyID)
	assert.WithinDuration(t, in.ExpiresAt, out.ExpiresAt, time.Second)
}

func TestJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("k1")
	require.NoError(t, err)
	other, err := NewEphemeralJWTSigner("k1")
	require.NoError(t, err)

	expired, err := signer.Sign(claimsFor(-time.Hour))
	require.NoError(t, err)
	_, err = signer.ParseAndValidate(expired)
	assert.Error(t, err)

	foreign, err := other.Sign(claimsFor(time.Hour))
	require.NoError(t, err)
	_, err = signer.ParseAndValidate(foreign)
	assert.Error(t, err)

	_, err = signer.ParseAndValidate("not.a.jwt")
	assert.Error(t, err)
}

func TestNewJWTSignerFromPEM(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privPEM := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))

	signer, err := NewJWTSigner("prod-1", privPEM, pubPEM)
	require.NoError(t, err)
	token, err := signer.Sign(claimsFor(time.Minute))
	require.NoError(t, err)
	_, err = signer.ParseAndValidate(token)
	require.NoError(t, err)

	jwks := signer.PublicJWKs()
	require.Len(t, jwks, 1)
	assert.Equal(t, "prod-1", jwks[0]["kid"])
	n, err := base64.RawURLEncoding.DecodeString(jwks[0]["n"].(string))
	require.NoError(t, err)
	assert.Zero(t, new(big.Int).SetBytes(n).Cmp(key.PublicKey.N))

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherDER, err := x509.MarshalPKIXPublicKey(&otherKey.PublicKey)
	require.NoError(t, err)
	otherPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: otherDER}))
	_, err = NewJWTSigner("prod-1", privPEM, otherPEM)
	assert.ErrorContains(t, err, "does not match")

	_, err = NewJWTSigner("", privPEM, "")
	assert.Error(t, err)
	_, err = NewJWTSigner("prod-1", "garbage", "")
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3cretpass")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "s3cretpass"))
	assert.Error(t, h.Compare(hash, "wrongpass1"))

	_, err = h.Hash(strings.Repeat("a1", 37))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
