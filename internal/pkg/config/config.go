package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// AllowedOrigins lists browser origins allowed to call the API with
	// credentials. Empty disables CORS.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	Token   TokenConfig
	Session SessionConfig
	Audit   AuditConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

// TokenConfig holds the signing material. JWT_SECRET, JWT_ISSUER and
// JWT_AUDIENCE have no defaults: the service refuses to start without them.
type TokenConfig struct {
	Secret     string        `env:"JWT_SECRET"`
	Issuer     string        `env:"JWT_ISSUER"`
	Audience   string        `env:"JWT_AUDIENCE"`
	TTL        time.Duration `env:"TOKEN_TTL,   default=24h"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`
}

type SessionConfig struct {
	CookieSecure bool   `env:"COOKIE_SECURE, default=false"`
	CookieDomain string `env:"COOKIE_DOMAIN"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_service"`
}

type RedisConfig struct {
	Addr            string        `env:"REDIS_ADDR,        default=localhost:6379"`
	DB              int           `env:"REDIS_DB,          default=0"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL, default=5m"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// MustLoad is Load for process startup: it panics on failure.
func MustLoad() *Config {
	cfg, err := Load(context.Background())
	if err != nil {
		panic(err)
	}
	return cfg
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}
