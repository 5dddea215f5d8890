package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const DefaultTokenTTL = 24 * time.Hour

var _ ports.TokenIssuer = (*JWTIssuer)(nil)

// TokenConfig is the immutable signing configuration of a JWTIssuer.
type TokenConfig struct {
	Key      string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer issues and validates HS256-signed JWTs.
type JWTIssuer struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// IssuerOption customises a JWTIssuer.
type IssuerOption func(*JWTIssuer)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *JWTIssuer) { i.now = now }
}

// NewJWTIssuer validates cfg and builds an issuer. A missing key, issuer or
// audience yields domain.ErrConfiguration.
func NewJWTIssuer(cfg TokenConfig, opts ...IssuerOption) (*JWTIssuer, error) {
	if err := checkConfig(cfg.Key, cfg.Issuer, cfg.Audience); err != nil {
		return nil, err
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}

	i := &JWTIssuer{
		key:      []byte(cfg.Key),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}

	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	return i, nil
}

func checkConfig(key, issuer, audience string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: signing key is empty", domain.ErrConfiguration)
	case issuer == "":
		return fmt.Errorf("%w: issuer is empty", domain.ErrConfiguration)
	case audience == "":
		return fmt.Errorf("%w: audience is empty", domain.ErrConfiguration)
	}
	return nil
}

// Issue signs a token for the given subject valid for the configured TTL.
func (i *JWTIssuer) Issue(userID, email string) (domain.IssuedToken, error) {
	if i == nil || i.parser == nil {
		return domain.IssuedToken{}, domain.ErrConfiguration
	}
	if err := checkConfig(string(i.key), i.issuer, i.audience); err != nil {
		return domain.IssuedToken{}, err
	}

	now := i.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(i.ttl)
	jti := uuid.NewString()

	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.IssuedToken{
		Value:     signed,
		ID:        jti,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate checks signature, issuer, audience and expiry. Expired, forged and
// malformed tokens are all reported as domain.ErrInvalidToken.
func (i *JWTIssuer) Validate(token string) (*domain.Identity, error) {
	if i == nil || i.parser == nil || token == "" {
		return nil, domain.ErrInvalidToken
	}

	claims := &tokenClaims{}
	parsed, err := i.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.key, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	identity := &domain.Identity{
		UserID:  claims.Subject,
		Email:   claims.Email,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
