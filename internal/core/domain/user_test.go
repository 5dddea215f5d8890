package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUser_InfoOmitsHash(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	u := &User{
		ID:           "u1",
		Email:        "Alice@Example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		FirstName:    "Alice",
		LastName:     "Liddell",
		DateOfBirth:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	info := u.Info()
	if info.ID != "u1" || info.Email != "Alice@Example.com" || info.DateOfBirth != "2000-01-01" || !info.CreatedAt.Equal(created) {
		t.Fatalf("unexpected info: %+v", info)
	}

	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "$2a$") {
		t.Fatalf("password hash serialized: %s", raw)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("email is required", "password is required")
	if err.Error() != "validation failed: email is required; password is required" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
