package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/session"
	"github.com/99minutos/auth-service/internal/core/domain"
)

const identityKey = "identity"

// Authenticator resolves the identity asserted by a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

// Auth requires a valid token, taken from the session cookie or, for
// non-browser clients, from an "Authorization: Bearer" header. A cookie that
// fails validation does not block a valid header. The resolved identity is
// stored in the echo context.
func Auth(auth Authenticator, cookies *session.Cookies) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := resolveIdentity(c, auth, cookies)
			if err != nil {
				return err
			}
			if identity == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// OptionalAuth resolves the identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(auth Authenticator, cookies *session.Cookies) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if identity, err := resolveIdentity(c, auth, cookies); err == nil && identity != nil {
				c.Set(identityKey, identity)
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Auth or OptionalAuth.
func IdentityFrom(c echo.Context) (*domain.Identity, bool) {
	identity, ok := c.Get(identityKey).(*domain.Identity)
	return identity, ok && identity != nil
}

// resolveIdentity tries the cookie first and the bearer header second. It
// returns a nil identity when neither carries a valid token, and an error
// only for a malformed Authorization header.
func resolveIdentity(c echo.Context, auth Authenticator, cookies *session.Cookies) (*domain.Identity, error) {
	ctx := c.Request().Context()

	if token, ok := cookies.Extract(c.Request()); ok {
		if identity, err := auth.Authenticate(ctx, token); err == nil {
			return identity, nil
		}
	}

	token, err := bearerToken(c)
	if err != nil || token == "" {
		return nil, err
	}
	identity, err := auth.Authenticate(ctx, token)
	if err != nil {
		return nil, nil
	}
	return identity, nil
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
