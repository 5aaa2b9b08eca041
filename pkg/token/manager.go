// Package token manages the short-lived signed service token used to
// authenticate to the Voice Bot API.
package token

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for token lifecycle.
var (
	tokenRenewalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebot_token_renewals_total",
		Help: "Total number of service token generations",
	})

	tokenInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebot_token_invalidations_total",
		Help: "Total number of service tokens invalidated after upstream rejection",
	})
)

// DefaultRenewalWindow is how long before expiry a token is proactively renewed.
const DefaultRenewalWindow = 5 * time.Minute

// Claim values identifying this client to the Voice Bot API.
const (
	claimSubject = "dashboard-api"
	claimIssuer  = "replytics-dashboard"
	claimType    = "service"
)

// permissions is the fixed scope granted to the dashboard service token.
var permissions = []string{"dashboard:read", "dashboard:write"}

// accessToken is a signed token with its absolute expiry.
type accessToken struct {
	value     string
	expiresAt time.Time
}

// Manager owns generation, caching, and proactive renewal of the service
// token. Safe for concurrent use; the mutex covers only the
// check-and-maybe-regenerate step, never any network call.
type Manager struct {
	secret        []byte
	method        jwt.SigningMethod
	lifetime      time.Duration
	renewalWindow time.Duration
	staticToken   string
	logger        zerolog.Logger

	// now is swappable for tests.
	now func() time.Time

	mu      sync.Mutex
	current *accessToken
}

// Config holds the token manager configuration.
type Config struct {
	// Secret is the shared HMAC signing secret.
	Secret string

	// Algorithm is the signing algorithm (HS256, HS384 or HS512).
	Algorithm string

	// Lifetime is how long each generated token is valid.
	Lifetime time.Duration

	// StaticToken is an optional internal-service credential added as
	// X-Service-Token alongside the bearer token.
	StaticToken string
}

// NewManager creates a token manager. Misconfiguration (empty secret,
// unknown algorithm, non-positive lifetime) is rejected here so it can
// never surface as a per-request failure.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive (got %v)", cfg.Lifetime)
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", cfg.Algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", cfg.Algorithm)
	}

	window := DefaultRenewalWindow
	if cfg.Lifetime <= window {
		// Short lifetimes still need a renewal margin.
		window = cfg.Lifetime / 2
	}

	return &Manager{
		secret:        []byte(cfg.Secret),
		method:        method,
		lifetime:      cfg.Lifetime,
		renewalWindow: window,
		staticToken:   cfg.StaticToken,
		logger:        log.With().Str("component", "token-manager").Logger(),
		now:           time.Now,
	}, nil
}

// AuthHeader returns the current Authorization header value, generating
// or renewing the token when none exists or the renewal window has been
// entered.
func (m *Manager) AuthHeader() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.current == nil || !now.Before(m.current.expiresAt.Add(-m.renewalWindow)) {
		tok, err := m.generate(now)
		if err != nil {
			return "", err
		}
		m.current = tok
	}

	return "Bearer " + m.current.value, nil
}

// Apply sets the authentication headers on an outbound request.
func (m *Manager) Apply(req *http.Request) error {
	header, err := m.AuthHeader()
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", header)
	if m.staticToken != "" {
		req.Header.Set("X-Service-Token", m.staticToken)
	}

	return nil
}

// Invalidate clears the cached token so the next AuthHeader call
// regenerates instead of reusing a rejected token.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current = nil
		tokenInvalidationsTotal.Inc()
		m.logger.Warn().Msg("Cleared cached token after upstream rejection")
	}
}

// generate signs a fresh token. Caller holds the mutex.
func (m *Manager) generate(now time.Time) (*accessToken, error) {
	expiresAt := now.Add(m.lifetime)

	claims := jwt.MapClaims{
		"sub":         claimSubject,
		"iss":         claimIssuer,
		"type":        claimType,
		"permissions": permissions,
		"iat":         now.Unix(),
		"exp":         expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	tokenRenewalsTotal.Inc()
	m.logger.Debug().
		Time("expires_at", expiresAt).
		Msg("Generated service token")

	return &accessToken{value: signed, expiresAt: expiresAt}, nil
}
