// Package security provides the credential hasher and the bearer token issuer.
package security

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-service/internal/core/ports"
)

var _ ports.PasswordHasher = (*BcryptHasher)(nil)

// BcryptHasher implements ports.PasswordHasher with bcrypt. Every hash embeds
// its own random salt and cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, falling back to
// bcrypt.DefaultCost when cost is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
