package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire format for dates of birth.
const DateLayout = "2006-01-02"

// User models a registered principal. Email is the login handle and is unique
// case-insensitively.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	DateOfBirth  time.Time `json:"dateOfBirth"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserInfo is the public profile of a user. It is the only view of a user
// that leaves the service.
type UserInfo struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	DateOfBirth string    `json:"dateOfBirth"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Info returns the public profile of u.
func (u *User) Info() *UserInfo {
	return &UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DateOfBirth: u.DateOfBirth.UTC().Format(DateLayout),
		CreatedAt:   u.CreatedAt,
	}
}

// NormalizeEmail returns the canonical form used for uniqueness and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
