package domain

import "time"

// AuthEventType classifies an entry in the authentication audit trail.
type AuthEventType string

const (
	EventRegistered     AuthEventType = "registered"
	EventLoginSucceeded AuthEventType = "login_succeeded"
	EventLoginFailed    AuthEventType = "login_failed"
	EventLogout         AuthEventType = "logout"
)

// AuthEvent is an audit record. It never carries a password or a token.
type AuthEvent struct {
	Type       AuthEventType
	UserID     string // empty when the email matched no account
	Email      string
	IP         string
	UserAgent  string
	OccurredAt time.Time
}
