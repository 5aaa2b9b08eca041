package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebot_retries_total",
		Help: "Total number of retry attempts by error kind",
	}, []string{"kind"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicebot_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error kind",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"kind"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebot_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error kind",
	}, []string{"kind"})
)

// RetryPolicy holds the backoff schedule for transient failures.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential delay growth.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor.
	Multiplier float64

	// JitterRange is the width of the random jitter added to each delay.
	JitterRange time.Duration
}

// DefaultRetryPolicy returns the default backoff schedule.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		JitterRange: 500 * time.Millisecond,
	}
}

// delayFor returns the backoff before retry attemptIndex (0-based):
// min(MaxDelay, BaseDelay * Multiplier^attemptIndex) plus random jitter
// in [0, JitterRange).
func (p RetryPolicy) delayFor(attemptIndex int) time.Duration {
	delay := float64(p.BaseDelay)
	for i := 0; i < attemptIndex; i++ {
		delay *= p.Multiplier
	}
	if capped := float64(p.MaxDelay); delay > capped {
		delay = capped
	}

	jitter := time.Duration(0)
	if p.JitterRange > 0 {
		jitter = time.Duration(rand.Int63n(int64(p.JitterRange)))
	}

	return time.Duration(delay) + jitter
}

// errKind extracts the taxonomy kind for metrics labels.
func errKind(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Kind)
	}
	return string(KindUnknown)
}

// retryWithBackoff executes fn with the policy's exponential backoff.
// Non-retryable failures return immediately. Backoff sleeps respect
// context cancellation so a call never sleeps past its deadline.
func retryWithBackoff(ctx context.Context, policy RetryPolicy, logger zerolog.Logger, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if !isRetryable(err) {
			return lastErr
		}

		if attempt >= policy.MaxAttempts {
			break
		}

		kind := errKind(err)
		retriesTotal.WithLabelValues(kind).Inc()

		backoff := policy.delayFor(attempt - 1)
		retryBackoffSeconds.WithLabelValues(kind).Observe(backoff.Seconds())

		logger.Debug().
			Str("kind", kind).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			logger.Warn().
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(backoff):
		}
	}

	retryExhaustedTotal.WithLabelValues(errKind(lastErr)).Inc()
	logger.Warn().
		Int("max_attempts", policy.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, policy.MaxAttempts, lastErr)
}
