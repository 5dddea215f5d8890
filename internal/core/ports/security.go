package ports

import "github.com/99minutos/auth-service/internal/core/domain"

// PasswordHasher hashes and verifies credentials with a salted adaptive hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns false for a mismatch or a malformed hash; it never fails.
	Verify(password, hash string) bool
}

// TokenIssuer signs and validates stateless bearer tokens.
type TokenIssuer interface {
	Issue(userID, email string) (domain.IssuedToken, error)
	// Validate returns domain.ErrInvalidToken for every kind of rejection.
	Validate(token string) (*domain.Identity, error)
}
