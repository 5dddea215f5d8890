package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/api/session"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const (
	msgRegistered       = "User registered successfully"
	msgUserExists       = "User already exists"
	msgInvalidModel     = "Invalid model state"
	msgLoggedIn         = "Login successful"
	msgInvalidLogin     = "Invalid email or password"
	msgLoggedOut        = "Logged out successfully"
	msgUserInfo         = "User info retrieved successfully"
	msgNotAuthenticated = "User not authenticated"
	msgUserNotFound     = "User not found"
	msgAuthenticated    = "Authenticated"
	msgAnonymous        = "Not authenticated"
)

type AuthHandler struct {
	authService ports.AuthService
	sessions    *session.Cookies
}

func NewAuthHandler(authService ports.AuthService, sessions *session.Cookies) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword,omitempty" validate:"omitempty,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	DateOfBirth     string `json:"dateOfBirth" validate:"required,datetime=2006-01-02,pastdate"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	User    *domain.UserInfo `json:"user,omitempty"`
	Errors  []string         `json:"errors,omitempty"`
}

func failure(message string, errs ...string) authResponse {
	return authResponse{Message: message, Errors: errs}
}

// bindAndValidate renders a 400 envelope and reports false when the body is
// malformed or breaks a field rule.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, failure(msgInvalidModel, "invalid request payload"))
	}
	if err := c.Validate(req); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return false, c.JSON(http.StatusBadRequest, failure(msgInvalidModel, ve.Errors...))
		}
		return false, err
	}
	return true, nil
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  authResponse
// @Failure      500   {object}  authResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	// The format was checked by the validator.
	dob, _ := time.Parse(domain.DateLayout, req.DateOfBirth)

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Client:      clientInfo(c),
	})
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			return c.JSON(http.StatusBadRequest, failure(msgInvalidModel, ve.Errors...))
		case errors.Is(err, domain.ErrUserExists):
			return c.JSON(http.StatusBadRequest, failure(msgUserExists, "A user with this email already exists"))
		}
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Success: true, Message: msgRegistered, User: user})
}

// Login authenticates a user and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  authResponse
// @Failure      401   {object}  authResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Client:   clientInfo(c),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, failure(msgInvalidLogin, "Invalid credentials"))
		}
		return err
	}

	h.sessions.Attach(c.Response(), res.Token.Value, res.Token.ExpiresAt)
	return c.JSON(http.StatusOK, authResponse{Success: true, Message: msgLoggedIn, User: res.User})
}

// Logout clears the session cookie. It succeeds with or without a session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200   {object}  authResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	identity, _ := middleware.IdentityFrom(c)
	h.authService.Logout(c.Request().Context(), identity, clientInfo(c))

	h.sessions.Clear(c.Response())
	return c.JSON(http.StatusOK, authResponse{Success: true, Message: msgLoggedOut})
}

// Me returns the profile of the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200   {object}  authResponse
// @Failure      401   {object}  authResponse
// @Failure      404   {object}  authResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, failure(msgNotAuthenticated))
	}

	user, err := h.authService.WhoAmI(c.Request().Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, failure(msgUserNotFound))
		}
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Success: true, Message: msgUserInfo, User: user})
}

// Check reports whether the request carries a session cookie. The token is
// not validated here; protected routes do that.
//
// @Summary      Session check
// @Tags         auth
// @Produce      json
// @Success      200   {object}  authResponse
// @Router       /api/auth/check [get]
func (h *AuthHandler) Check(c echo.Context) error {
	token, _ := h.sessions.Extract(c.Request())
	if h.authService.CheckSession(token) {
		return c.JSON(http.StatusOK, authResponse{Success: true, Message: msgAuthenticated})
	}
	return c.JSON(http.StatusOK, authResponse{Success: false, Message: msgAnonymous})
}
