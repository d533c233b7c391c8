package ports

import (
	"time"

	"github.com/google/uuid"
)

type AuthClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	KeyID     string    `json:"kid"`
}

type TokenSigner interface {
	Sign(claims AuthClaims) (string, error)
	ParseAndValidate(token string) (AuthClaims, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
