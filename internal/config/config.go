package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const devSecret = "dev_secret"

// Config holds application configuration values.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	Secret   string        `envconfig:"SECRET" default:"dev_secret"`
	TokenTTL time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"file:polycare.db?_pragma=busy_timeout(5000)"`

	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	ReportCacheTTL time.Duration `envconfig:"REPORT_CACHE_TTL" default:"1m"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	Timezone       string   `envconfig:"TIMEZONE" default:"Local"`
	LedgerMode     string   `envconfig:"LEDGER_MODE" default:"atomic"`
	LoginRateLimit int      `envconfig:"LOGIN_RATE_LIMIT" default:"10"`

	SeedAdminUsername string `envconfig:"SEED_ADMIN_USERNAME"`
	SeedAdminPassword string `envconfig:"SEED_ADMIN_PASSWORD"`
	StockSeedPath     string `envconfig:"STOCK_SEED_PATH"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.HTTPPort); err != nil {
		return fmt.Errorf("invalid HTTP_PORT value %q", c.HTTPPort)
	}
	switch c.DBDriver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.LedgerMode {
	case "atomic", "legacy":
	default:
		return fmt.Errorf("unsupported LEDGER_MODE %q", c.LedgerMode)
	}
	if c.IsProduction() && (c.Secret == devSecret || len(c.Secret) < 32) {
		return errors.New("SECRET must be set to at least 32 characters in production")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.LoginRateLimit < 1 {
		return errors.New("LOGIN_RATE_LIMIT must be at least 1")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// UsesDevSecret reports whether tokens are signed with the built-in key.
func (c Config) UsesDevSecret() bool {
	return c.Secret == devSecret
}

// Location resolves the zone reporting day boundaries are computed in.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c Config) Address() string {
	return ":" + c.HTTPPort
}
