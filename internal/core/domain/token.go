package domain

import "time"

// IssuedToken is a freshly signed bearer token.
type IssuedToken struct {
	Value     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity is what a validated token asserts about its bearer.
type Identity struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}
