package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/auth-service/docs"
	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/api/session"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	AuthService ports.AuthService
	Sessions    *session.Cookies
	Checks      []handler.DependencyCheck
	Log         zerolog.Logger
	// AllowedOrigins enables credentialed CORS for these origins. Empty
	// disables CORS entirely.
	AllowedOrigins []string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(middleware.Metrics())
	if len(deps.AllowedOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     deps.AllowedOrigins,
			AllowCredentials: true,
		}))
	}

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Sessions)
	requireAuth := middleware.Auth(deps.AuthService, deps.Sessions)
	optionalAuth := middleware.OptionalAuth(deps.AuthService, deps.Sessions)

	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, optionalAuth)
	auth.GET("/me", authHandler.Me, requireAuth)
	auth.GET("/check", authHandler.Check)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Checks...)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
