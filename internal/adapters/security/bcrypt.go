package security

import (
	"fmt"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password exceeds %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
