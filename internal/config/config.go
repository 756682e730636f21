// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"golang.org/x/crypto/bcrypt"
)

// DevJWTSecret is the signing secret used when JWT_SECRET is unset outside
// production. Tokens signed with it are forgeable by anyone who reads this file.
const DevJWTSecret = "bizdash-dev-secret-do-not-use-in-production"

// MinProductionSecretLength is the minimum JWT_SECRET length accepted in production.
const MinProductionSecretLength = 32

// Supported password hashers.
const (
	HasherArgon2id = "argon2id"
	HasherBcrypt   = "bcrypt"
)

// Config validation errors.
var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required in production")
	ErrWeakJWTSecret    = fmt.Errorf("JWT_SECRET must be at least %d bytes in production", MinProductionSecretLength)
	ErrUnknownHasher    = errors.New("PASSWORD_HASHER must be argon2id or bcrypt")
	ErrBcryptCost       = fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	// Cache (Redis). Empty disables rate limiting.
	RedisURL string `env:"REDIS_URL" envDefault:""`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Session tokens
	JWTSecret string        `env:"JWT_SECRET" envDefault:""`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Password hashing
	PasswordHasher  string `env:"PASSWORD_HASHER" envDefault:"argon2id"`
	BcryptCost      int    `env:"BCRYPT_COST" envDefault:"12"`
	HashConcurrency int    `env:"HASH_CONCURRENCY" envDefault:"0"`

	// Rate limiting for /api/register and /api/login (per client IP)
	RateLimitAuthEnabled bool `env:"RATE_LIMIT_AUTH_ENABLED" envDefault:"true"`
	RateLimitAuthRPM     int  `env:"RATE_LIMIT_AUTH_RPM" envDefault:"20"`
	RateLimitAuthBurst   int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://dashboard.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsesDevSecret reports whether tokens will be signed with DevJWTSecret.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == "" || c.JWTSecret == DevJWTSecret
}

// SigningSecret returns the JWT signing secret, falling back to DevJWTSecret.
// Validate rejects the fallback in production, so callers outside production
// should log a warning when UsesDevSecret is true.
func (c *Config) SigningSecret() []byte {
	if c.JWTSecret == "" {
		return []byte(DevJWTSecret)
	}
	return []byte(c.JWTSecret)
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.UsesDevSecret() {
			return ErrMissingJWTSecret
		}
		if len(c.JWTSecret) < MinProductionSecretLength {
			return ErrWeakJWTSecret
		}
	}

	switch c.PasswordHasher {
	case HasherArgon2id:
	case HasherBcrypt:
		if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
			return ErrBcryptCost
		}
	default:
		return ErrUnknownHasher
	}

	return nil
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
