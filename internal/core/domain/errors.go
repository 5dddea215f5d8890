package domain

import (
	"errors"
	"strings"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidToken     = errors.New("invalid token")
)

// ErrConfiguration signals missing signing material. It is raised at startup
// and is never handled per request.
var ErrConfiguration = errors.New("token issuer is not configured")

var ErrCacheMiss = errors.New("cache miss")

// ValidationError carries one human-readable message per rejected field.
type ValidationError struct {
	Errors []string
}

func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}
