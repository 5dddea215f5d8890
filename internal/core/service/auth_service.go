package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
	"github.com/99minutos/auth-service/internal/pkg/metrics"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

// AuthService implements registration, login and identity resolution on top
// of a credential store, a password hasher and a token issuer. It owns no
// storage of its own.
type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	cache  ports.ProfileCache
	audit  ports.AuditRecorder
	log    zerolog.Logger
	now    func() time.Time

	// dummyHash is verified against when an email is unknown so that both
	// login failure paths cost the same.
	dummyHash string
}

// Option configures optional collaborators of AuthService.
type Option func(*AuthService)

// WithProfileCache enables read-through caching of profiles in WhoAmI.
func WithProfileCache(c ports.ProfileCache) Option {
	return func(s *AuthService) { s.cache = c }
}

// WithAuditRecorder enables the authentication audit trail.
func WithAuditRecorder(r ports.AuditRecorder) Option {
	return func(s *AuthService) { s.audit = r }
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	log zerolog.Logger,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if hash, err := hasher.Hash("dummy-password-for-unknown-accounts"); err == nil {
		s.dummyHash = hash
	} else {
		log.Warn().Err(err).Msg("failed to prepare dummy password hash")
	}
	return s
}

// Register creates an account. It returns *domain.ValidationError for bad
// input and domain.ErrUserExists when the email is already registered.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.UserInfo, error) {
	email := domain.NormalizeEmail(in.Email)
	if err := validateRegistration(email, in); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		DateOfBirth:  in.DateOfBirth.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			// Lost a concurrent registration race on the unique index.
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, domain.ErrUserExists
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.record(ctx, domain.EventRegistered, created.ID, created.Email, in.Client)
	s.log.Info().Str("user_id", created.ID).Msg("user registered")

	return created.Info(), nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("login: lookup email: %w", err)
		}
		s.hasher.Verify(in.Password, s.dummyHash)
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		s.record(ctx, domain.EventLoginFailed, "", email, in.Client)
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		s.record(ctx, domain.EventLoginFailed, user.ID, user.Email, in.Client)
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.record(ctx, domain.EventLoginSucceeded, user.ID, user.Email, in.Client)

	return &ports.LoginResult{User: user.Info(), Token: token}, nil
}

// Authenticate resolves the identity asserted by token after full validation.
func (s *AuthService) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	identity, err := s.tokens.Validate(token)
	if err != nil {
		metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrNotAuthenticated
	}
	metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
	return identity, nil
}

// WhoAmI loads the profile of an authenticated user. The record may have
// disappeared since the token was issued, in which case
// domain.ErrUserNotFound is returned. With a profile cache configured, a
// removed record keeps being served until its cache entry expires
// (PROFILE_CACHE_TTL); removal must evict the entry.
func (s *AuthService) WhoAmI(ctx context.Context, userID string) (*domain.UserInfo, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	if s.cache != nil {
		info, err := s.cache.Get(ctx, userID)
		switch {
		case err == nil:
			metrics.ProfileCacheTotal.WithLabelValues("hit").Inc()
			return info, nil
		case errors.Is(err, domain.ErrCacheMiss):
			metrics.ProfileCacheTotal.WithLabelValues("miss").Inc()
		default:
			metrics.ProfileCacheTotal.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache read failed")
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("whoami: find user: %w", err)
	}

	info := user.Info()
	if s.cache != nil {
		if err := s.cache.Set(ctx, info); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache write failed")
		}
	}
	return info, nil
}

// CheckSession reports whether a session token is present at all. It is a
// cheap liveness probe: signature and expiry are not checked, so a true
// result grants nothing. Use Authenticate for access decisions.
func (s *AuthService) CheckSession(token string) bool {
	return strings.TrimSpace(token) != ""
}

// Logout is idempotent. Tokens are stateless, so there is nothing to revoke
// server-side; an issued token stays valid until it expires.
func (s *AuthService) Logout(ctx context.Context, identity *domain.Identity, client ports.ClientInfo) {
	if identity == nil {
		return
	}
	s.record(ctx, domain.EventLogout, identity.UserID, identity.Email, client)
}

func (s *AuthService) record(ctx context.Context, typ domain.AuthEventType, userID, email string, client ports.ClientInfo) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, domain.AuthEvent{
		Type:       typ,
		UserID:     userID,
		Email:      email,
		IP:         client.IP,
		UserAgent:  client.UserAgent,
		OccurredAt: s.now().UTC(),
	})
}

func validateRegistration(email string, in ports.RegisterInput) error {
	var msgs []string
	if email == "" {
		msgs = append(msgs, "email is required")
	} else if !strings.Contains(email, "@") {
		msgs = append(msgs, "email must be a valid email")
	}
	switch {
	case in.Password == "":
		msgs = append(msgs, "password is required")
	case len(in.Password) < minPasswordLength:
		msgs = append(msgs, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	case len(in.Password) > maxPasswordBytes:
		msgs = append(msgs, fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	if strings.TrimSpace(in.FirstName) == "" {
		msgs = append(msgs, "firstName is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		msgs = append(msgs, "lastName is required")
	}
	if in.DateOfBirth.IsZero() {
		msgs = append(msgs, "dateOfBirth is required")
	}
	if len(msgs) > 0 {
		return domain.NewValidationError(msgs...)
	}
	return nil
}
