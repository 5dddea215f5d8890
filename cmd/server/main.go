package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/99minutos/auth-service/internal/api"
	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/api/session"
	"github.com/99minutos/auth-service/internal/core/service"
	mongodb "github.com/99minutos/auth-service/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/auth-service/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-service/internal/infrastructure/queue"
	"github.com/99minutos/auth-service/internal/infrastructure/security"
	"github.com/99minutos/auth-service/internal/pkg/config"
	"github.com/99minutos/auth-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "auth-service",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer, err := security.NewJWTIssuer(security.TokenConfig{
		Key:      cfg.Token.Secret,
		Issuer:   cfg.Token.Issuer,
		Audience: cfg.Token.Audience,
		TTL:      cfg.Token.TTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer")
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis")
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user indexes")
	}
	events := mongodb.NewAuthEventRepository(db)
	if err := events.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("auth event indexes")
	}

	// Audit workers outlive the signal context; queued events are drained
	// after the HTTP server stops.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	audit := queue.NewDispatcher(cfg.Audit.Workers, events, log)
	audit.Start(auditCtx)

	authService := service.NewAuthService(
		users,
		security.NewBcryptHasher(cfg.Token.BcryptCost),
		issuer,
		log,
		service.WithProfileCache(redisdb.NewProfileCache(rdb, cfg.Redis.ProfileCacheTTL)),
		service.WithAuditRecorder(audit),
	)

	e := api.NewRouter(api.Deps{
		AuthService: authService,
		Sessions: session.NewCookies(session.Options{
			Secure: cfg.Session.CookieSecure,
			Domain: cfg.Session.CookieDomain,
		}),
		Checks: []handler.DependencyCheck{
			{Name: "mongodb", Ping: func(ctx context.Context) error { return mongodb.Ping(ctx, db) }},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelDrain()
	if err := audit.Drain(drainCtx); err != nil {
		log.Warn().Err(err).Msg("audit queue not drained, abandoning remaining events")
	}
	stopAudit()
	audit.Wait()
}
