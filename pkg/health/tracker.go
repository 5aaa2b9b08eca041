package health

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for upstream health tracking.
var (
	upstreamHealthy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicebot_upstream_healthy",
		Help: "Whether the last Voice Bot health probe succeeded (1) or failed (0)",
	})

	probeLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicebot_health_probe_latency_seconds",
		Help:    "Voice Bot health probe latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	probeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebot_health_probe_failures_total",
		Help: "Total number of failed Voice Bot health probes",
	})
)

// Tracker records health probe results into Redis so all client
// instances share the same upstream view.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a health tracker backed by the given Redis client.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetStatus retrieves the shared health state from Redis. Returns a
// default healthy state if no probe has ever run.
func (t *Tracker) GetStatus(ctx context.Context) (*Status, error) {
	healthy, err := t.redis.Get(ctx, RedisKeyHealthy).Bool()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get healthy flag: %w", err)
	}

	latencyMillis, err := t.redis.Get(ctx, RedisKeyLatencyMillis).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get probe latency: %w", err)
	}

	failures, err := t.redis.Get(ctx, RedisKeyConsecutiveFailures).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get consecutive failures: %w", err)
	}

	lastProbeStr, err := t.redis.Get(ctx, RedisKeyLastProbe).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last probe: %w", err)
	}

	if err == redis.Nil {
		t.logger.Debug().Msg("No health state in Redis, returning default healthy state")
		return &Status{
			Healthy:   true,
			LastProbe: time.Now(),
		}, nil
	}

	var lastProbe time.Time
	if lastProbeStr != "" {
		if err := json.Unmarshal([]byte(lastProbeStr), &lastProbe); err != nil {
			return nil, fmt.Errorf("parse last probe: %w", err)
		}
	}

	return &Status{
		Healthy:             healthy,
		Latency:             time.Duration(latencyMillis) * time.Millisecond,
		ConsecutiveFailures: failures,
		LastProbe:           lastProbe,
	}, nil
}

// Record stores a probe result in Redis and updates metrics. Failures
// increment the consecutive counter; a success resets it.
func (t *Tracker) Record(ctx context.Context, healthy bool, latency time.Duration) error {
	now := time.Now()

	lastProbeJSON, err := json.Marshal(now)
	if err != nil {
		return fmt.Errorf("marshal last probe: %w", err)
	}

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyHealthy, healthy, 0)
	pipe.Set(ctx, RedisKeyLatencyMillis, latency.Milliseconds(), 0)
	if healthy {
		pipe.Set(ctx, RedisKeyConsecutiveFailures, 0, 0)
	} else {
		pipe.Incr(ctx, RedisKeyConsecutiveFailures)
	}
	pipe.Set(ctx, RedisKeyLastProbe, lastProbeJSON, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store health state in redis: %w", err)
	}

	probeLatencySeconds.Observe(latency.Seconds())
	if healthy {
		upstreamHealthy.Set(1)
		t.logger.Debug().
			Dur("latency", latency).
			Msg("Health probe succeeded")
	} else {
		upstreamHealthy.Set(0)
		probeFailuresTotal.Inc()
		t.logger.Warn().
			Dur("latency", latency).
			Msg("Health probe failed")
	}

	return nil
}
