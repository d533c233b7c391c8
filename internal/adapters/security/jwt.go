package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "super-try-api"

// JWTSigner signs and verifies RS256 access tokens.
type JWTSigner struct {
	kid        string
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewJWTSigner(kid, privateKeyPEM, publicKeyPEM string) (*JWTSigner, error) {
	if kid == "" {
		return nil, errors.New("jwt key id (kid) is required")
	}
	if privateKeyPEM == "" {
		return nil, errors.New("jwt private key is required")
	}
	priv, err := parseRSAPrivate(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pub := &priv.PublicKey
	if publicKeyPEM != "" {
		if pub, err = parseRSAPublic(publicKeyPEM); err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		if pub.N.Cmp(priv.PublicKey.N) != 0 {
			return nil, errors.New("jwt public key does not match the private key")
		}
	}
	return &JWTSigner{kid: kid, privateKey: priv, publicKey: pub}, nil
}

// NewEphemeralJWTSigner creates an in-memory keypair for local runs. Tokens
// do not survive a restart.
func NewEphemeralJWTSigner(kid string) (*JWTSigner, error) {
	if kid == "" {
		kid = "ephemeral-key-1"
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return &JWTSigner{
		kid:        kid,
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
	}, nil
}

type accessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Sign(claims ports.AuthClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, accessClaims{
		UserID: claims.UserID.String(),
		Email:  claims.Email,
		Role:   claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   claims.UserID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	token.Header["kid"] = s.kid
	return token.SignedString(s.privateKey)
}

func (s *JWTSigner) ParseAndValidate(raw string) (ports.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return ports.AuthClaims{}, err
	}
	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return ports.AuthClaims{}, errors.New("invalid token claims")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("parse user_id: %w", err)
	}
	kid, _ := parsed.Header["kid"].(string)
	out := ports.AuthClaims{
		UserID:    userID,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
		KeyID:     kid,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}

// PublicJWKs publishes the verification key so other services can check tokens.
func (s *JWTSigner) PublicJWKs() []map[string]any {
	e := big.NewInt(int64(s.publicKey.E)).Bytes()
	n := s.publicKey.N.Bytes()
	return []map[string]any{
		{
			"kid": s.kid,
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(n),
			"e":   base64.RawURLEncoding.EncodeToString(e),
		},
	}
}

func parseRSAPrivate(raw string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid private PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

func parseRSAPublic(raw string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid public PEM")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return key, nil
}
