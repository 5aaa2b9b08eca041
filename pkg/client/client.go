// Package client provides the resilient Voice Bot API client with
// token management, response caching, retries, and typed errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/replytics/voicebot-client/pkg/cache"
	"github.com/replytics/voicebot-client/pkg/config"
	"github.com/replytics/voicebot-client/pkg/health"
	"github.com/replytics/voicebot-client/pkg/token"
)

// userAgent identifies this client to the Voice Bot API.
const userAgent = "Replytics-Dashboard/1.0"

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebot_requests_total",
		Help: "Total Voice Bot requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicebot_request_duration_seconds",
		Help:    "Voice Bot request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebot_errors_total",
		Help: "Total Voice Bot errors by kind",
	}, []string{"kind"})
)

// Client is the Voice Bot API client. Construct one at startup and
// share it; all request methods are safe for concurrent use. The Set*
// methods are setup hooks and are not.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	tokens     *token.Manager
	cache      *cache.Cache
	retry      RetryPolicy
	defaultTTL time.Duration
	health     *health.Tracker
	logger     zerolog.Logger
}

// New creates a Voice Bot client from validated configuration. The
// store selects the cache backend: nil defaults to an in-process map,
// cache.NewRedisStore shares the cache across instances.
func New(cfg config.ClientConfig, store cache.Store) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	tokens, err := token.NewManager(token.Config{
		Secret:      cfg.JWTSecret,
		Algorithm:   cfg.JWTAlgorithm,
		Lifetime:    cfg.TokenLifetime,
		StaticToken: cfg.InternalServiceToken,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	if store == nil {
		store = cache.NewMemoryStore()
	}

	policy := DefaultRetryPolicy()
	policy.MaxAttempts = cfg.MaxRetries

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: cfg.MaxIdleConns,
				MaxConnsPerHost:     cfg.MaxConnsPerHost,
				IdleConnTimeout:     cfg.IdleConnTimeout,
			},
		},
		baseURL:    baseURL,
		tokens:     tokens,
		cache:      cache.New(store),
		retry:      policy,
		defaultTTL: cfg.CacheTTL,
		logger:     log.With().Str("component", "voicebot-client").Logger(),
	}, nil
}

// InvokeOptions control caching for a single call.
type InvokeOptions struct {
	// Cacheable marks the response as cacheable. Only honored for GET;
	// the method check wins over caller intent.
	Cacheable bool

	// TTL overrides the configured default cache TTL when positive.
	TTL time.Duration
}

// Invoke performs an authenticated call against the Voice Bot API and
// returns the decoded payload or a typed *APIError.
//
// Per-call flow: cache check (cacheable GET) → auth header → send with
// backoff retries → on 401, invalidate the token and send exactly once
// more → cache successful cacheable responses.
func (c *Client) Invoke(ctx context.Context, method, path string, params url.Values, body any, opts InvokeOptions) (json.RawMessage, error) {
	endpoint := path
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	cacheable := opts.Cacheable && method == http.MethodGet
	key := cache.Key{Path: path, Params: params}

	if cacheable {
		entry, err := c.cache.Get(ctx, key)
		if err == nil {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Bool("cache_hit", true).
				Msg("Serving cached response")
			requestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			return entry.Payload, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			// Cache failures never fail the request.
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, &APIError{Kind: KindInvalidRequest, Message: "request body is not serializable", Err: err}
		}
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Msg("Calling Voice Bot API")

	payload, apiErr := c.send(ctx, method, path, params, bodyBytes)

	// Authentication failures get exactly one renewal retry, layered
	// outside the backoff loop: waiting cannot fix a rejected token.
	if apiErr != nil && apiErr.Kind == KindUnauthenticated {
		c.tokens.Invalidate()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Authentication rejected, renewing token and retrying once")

		payload, apiErr = c.sendOnce(ctx, method, path, params, bodyBytes)
		if apiErr != nil && apiErr.Kind == KindUnauthenticated {
			// A second rejection is a service-to-service credential
			// problem, not the original caller's auth state.
			apiErr = &APIError{
				Kind:       KindUpstreamUnavailable,
				StatusCode: apiErr.StatusCode,
				Message:    "authentication rejected after token renewal",
			}
		}
	}

	if apiErr != nil {
		errorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("method", method).
			Int("status", apiErr.StatusCode).
			Str("error_kind", string(apiErr.Kind)).
			Msg("Voice Bot request failed")
		return nil, apiErr
	}

	if cacheable {
		ttl := opts.TTL
		if ttl <= 0 {
			ttl = c.defaultTTL
		}
		if err := c.cache.Set(ctx, key, payload, ttl); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache set error")
		}
	}

	return payload, nil
}

// send executes the request through the backoff retry loop.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, body []byte) (json.RawMessage, *APIError) {
	var payload json.RawMessage
	var lastAPIErr *APIError

	err := retryWithBackoff(ctx, c.retry, c.logger, func() error {
		p, apiErr := c.doOnce(ctx, method, path, params, body)
		if apiErr != nil {
			lastAPIErr = apiErr
			return apiErr
		}
		payload = p
		return nil
	})
	if err != nil {
		return nil, c.terminalError(ctx, err, lastAPIErr)
	}

	return payload, nil
}

// sendOnce executes a single attempt without backoff retries.
func (c *Client) sendOnce(ctx context.Context, method, path string, params url.Values, body []byte) (json.RawMessage, *APIError) {
	return c.doOnce(ctx, method, path, params, body)
}

// terminalError maps a retry-loop failure to the caller-facing error.
func (c *Client) terminalError(ctx context.Context, err error, lastAPIErr *APIError) *APIError {
	switch {
	case errors.Is(err, ErrRetryExhausted):
		status := 0
		if lastAPIErr != nil {
			status = lastAPIErr.StatusCode
		}
		return &APIError{
			Kind:       KindUpstreamUnavailable,
			StatusCode: status,
			Message:    "upstream unavailable after retries",
			Err:        err,
		}
	case errors.Is(err, ErrContextCancelled):
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &APIError{Kind: KindTimeout, Message: "request deadline exceeded", Err: err}
		}
		return &APIError{Kind: KindUnknown, Message: "request cancelled", Err: err}
	default:
		if lastAPIErr != nil {
			return lastAPIErr
		}
		return &APIError{Kind: KindUnknown, Message: "request failed", Err: err}
	}
}

// doOnce performs exactly one HTTP exchange.
func (c *Client) doOnce(ctx context.Context, method, path string, params url.Values, body []byte) (json.RawMessage, *APIError) {
	// path arrives in escaped form (wrappers escape embedded IDs), so
	// it becomes the raw path directly. Assigning it to u.Path alone
	// would re-escape the percent signs on String().
	u := *c.baseURL
	escaped := strings.TrimRight(u.EscapedPath(), "/") + path
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, &APIError{Kind: KindInvalidRequest, Message: "invalid request path", Err: err}
	}
	u.Path = unescaped
	u.RawPath = escaped
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "request construction failed", Err: err}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Token misconfiguration is fatal at construction; Apply cannot
	// fail transiently.
	if err := c.tokens.Apply(req); err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "token generation failed", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := translateTransport(err)
		requestsTotal.WithLabelValues(path, "transport_error").Inc()
		return nil, apiErr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "response read failed", Err: err}
	}

	requestsTotal.WithLabelValues(path, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		return nil, translateStatus(resp.StatusCode, respBody)
	}

	return json.RawMessage(respBody), nil
}

// HealthStatus reports upstream reachability from a probe call.
type HealthStatus struct {
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checked_at"`
	Error     string        `json:"error,omitempty"`
}

// HealthCheck performs a minimal non-cached probe and reports
// reachability and latency. Probes never retry; a slow answer is
// itself the signal. The result is recorded into the shared health
// tracker when one is attached.
func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	_, apiErr := c.doOnce(ctx, http.MethodGet, "/", nil, nil)
	latency := time.Since(start)
	var err error
	if apiErr != nil {
		err = apiErr
	}

	status := HealthStatus{
		Healthy:   err == nil,
		Latency:   latency,
		CheckedAt: time.Now(),
	}
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			status.Error = apiErr.Error()
		} else {
			status.Error = "health probe failed"
		}
	}

	if c.health != nil {
		if err := c.health.Record(ctx, status.Healthy, latency); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to record health probe")
		}
	}

	return status
}

// SetHealthTracker attaches a shared health tracker that HealthCheck
// records probes into. Call it during setup, before the client serves
// concurrent requests; the field is read without synchronization.
func (c *Client) SetHealthTracker(t *health.Tracker) {
	c.health = t
}

// CacheBackend returns the name of the configured cache backend.
func (c *Client) CacheBackend() string {
	return c.cache.Backend()
}

// SetHTTPClient sets a custom HTTP client (for testing). Like
// SetHealthTracker, it must not race with in-flight requests.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Close releases idle transport connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
