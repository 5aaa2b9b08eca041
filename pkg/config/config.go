// Package config holds the Voice Bot client configuration and its
// environment loading.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// ClientConfig is the immutable configuration for the Voice Bot client.
// It is constructed once at startup; invalid configuration is a fatal
// startup error, never a per-request error.
type ClientConfig struct {
	// BaseURL is the Voice Bot API base URL (e.g. "https://voicebot.internal").
	BaseURL string `env:"VOICE_BOT_URL"`

	// JWTSecret is the shared secret used to sign service tokens.
	JWTSecret string `env:"VOICE_BOT_JWT_SECRET"`

	// JWTAlgorithm is the signing algorithm identifier. Only HMAC
	// algorithms are supported (HS256, HS384, HS512).
	JWTAlgorithm string `env:"VOICE_BOT_JWT_ALGORITHM" envDefault:"HS256"`

	// TokenLifetime is how long a generated token is valid.
	TokenLifetime time.Duration `env:"VOICE_BOT_TOKEN_LIFETIME" envDefault:"30m"`

	// InternalServiceToken is an optional static credential sent as
	// X-Service-Token on every request when set.
	InternalServiceToken string `env:"VOICE_BOT_INTERNAL_TOKEN"`

	// Timeout is the per-request deadline.
	Timeout time.Duration `env:"VOICE_BOT_TIMEOUT" envDefault:"30s"`

	// MaxRetries is the total number of attempts for retryable
	// failures, the first try included. 3 means at most two retries
	// after the initial attempt.
	MaxRetries int `env:"VOICE_BOT_MAX_RETRIES" envDefault:"3"`

	// CacheTTL is the default TTL for cached GET responses. Endpoint
	// wrappers may override it per call.
	CacheTTL time.Duration `env:"VOICE_BOT_CACHE_TTL" envDefault:"5m"`

	// Connection pool settings for the underlying transport.
	MaxIdleConns    int           `env:"VOICE_BOT_MAX_IDLE_CONNS" envDefault:"10"`
	MaxConnsPerHost int           `env:"VOICE_BOT_MAX_CONNS_PER_HOST" envDefault:"20"`
	IdleConnTimeout time.Duration `env:"VOICE_BOT_IDLE_CONN_TIMEOUT" envDefault:"30s"`
}

// supportedAlgorithms are the HMAC signing algorithms the token manager accepts.
var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

// FromEnv loads and validates configuration from environment variables.
func FromEnv() (ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}

	return cfg, nil
}

// Validate checks that every required field is set and every numeric
// field is positive.
func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base URL %q is not a valid absolute URL", c.BaseURL)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if !supportedAlgorithms[c.JWTAlgorithm] {
		return fmt.Errorf("unsupported JWT algorithm %q (want HS256, HS384 or HS512)", c.JWTAlgorithm)
	}

	if c.TokenLifetime <= 0 {
		return fmt.Errorf("token lifetime must be positive (got %v)", c.TokenLifetime)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %v)", c.Timeout)
	}

	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive (got %d)", c.MaxRetries)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive (got %v)", c.CacheTTL)
	}

	if c.MaxIdleConns <= 0 || c.MaxConnsPerHost <= 0 || c.IdleConnTimeout <= 0 {
		return fmt.Errorf("connection pool settings must be positive")
	}

	return nil
}
