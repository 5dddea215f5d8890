package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// ClientInfo describes the caller of an operation for the audit trail.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// RegisterInput is the DTO passed from the transport layer to AuthService.Register.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Client      ClientInfo
}

// LoginInput is the DTO passed from the transport layer to AuthService.Login.
type LoginInput struct {
	Email    string
	Password string
	Client   ClientInfo
}

// LoginResult is returned on a successful login. The transport layer is
// responsible for handing Token to the session boundary.
type LoginResult struct {
	User  *domain.UserInfo
	Token domain.IssuedToken
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.UserInfo, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	// Authenticate fully validates token (signature, issuer, audience, expiry).
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
	WhoAmI(ctx context.Context, userID string) (*domain.UserInfo, error)
	// CheckSession only reports whether a token is present. It does not
	// validate it and must not be used for authorization decisions.
	CheckSession(token string) bool
	Logout(ctx context.Context, identity *domain.Identity, client ClientInfo)
}
