package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Token.TTL != 24*time.Hour || cfg.Token.BcryptCost != 10 {
		t.Fatalf("unexpected token defaults: %+v", cfg.Token)
	}
	if cfg.Token.Secret != "" {
		t.Fatalf("signing secret must not have a default")
	}
	if cfg.Session.CookieSecure {
		t.Fatalf("expected insecure cookies by default for local development")
	}
	if cfg.Audit.Workers != 4 || cfg.Redis.ProfileCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected defaults: audit=%+v redis=%+v", cfg.Audit, cfg.Redis)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("expected CORS disabled by default, got %v", cfg.AllowedOrigins)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development environment")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                  "production",
		"JWT_SECRET":           "s3cret",
		"JWT_ISSUER":           "auth-service",
		"JWT_AUDIENCE":         "web",
		"TOKEN_TTL":            "2h",
		"COOKIE_SECURE":        "true",
		"CORS_ALLOWED_ORIGINS": "https://app.example.com,https://admin.example.com",
		"MONGO_DB":             "auth_test",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.IsDevelopment() {
		t.Fatalf("expected production environment")
	}
	if cfg.Token.Secret != "s3cret" || cfg.Token.Issuer != "auth-service" || cfg.Token.Audience != "web" || cfg.Token.TTL != 2*time.Hour {
		t.Fatalf("unexpected token config: %+v", cfg.Token)
	}
	if !cfg.Session.CookieSecure {
		t.Fatalf("expected secure cookies")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.example.com" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.Mongo.Database != "auth_test" {
		t.Fatalf("unexpected mongo config: %+v", cfg.Mongo)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"TOKEN_TTL": "forever",
	}))
	if err == nil {
		t.Fatalf("expected error for malformed TOKEN_TTL")
	}
}
