// Package health tracks Voice Bot upstream reachability. Probe results
// are shared across client instances via Redis so every replica sees
// the same upstream picture without probing independently.
package health

import (
	"time"
)

// Redis keys for shared health state.
const (
	RedisKeyHealthy             = "voicebot:health:healthy"
	RedisKeyLatencyMillis       = "voicebot:health:latency_ms"
	RedisKeyConsecutiveFailures = "voicebot:health:consecutive_failures"
	RedisKeyLastProbe           = "voicebot:health:last_probe"
)

// Thresholds for health state decisions.
const (
	// FailureThresholdDegraded marks the upstream degraded after this
	// many consecutive probe failures.
	FailureThresholdDegraded = 1

	// FailureThresholdUnhealthy marks the upstream down after this many
	// consecutive probe failures.
	FailureThresholdUnhealthy = 3

	// LatencyThresholdSlow flags the upstream as slow even when probes
	// succeed.
	LatencyThresholdSlow = 2 * time.Second
)

// Status is the shared view of upstream health.
type Status struct {
	// Healthy reports whether the last probe succeeded.
	Healthy bool `json:"healthy"`

	// Latency is the duration of the last probe.
	Latency time.Duration `json:"latency"`

	// ConsecutiveFailures counts probe failures since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// LastProbe is when the state was last updated. Used to detect
	// stale state when no instance has probed recently.
	LastProbe time.Time `json:"last_probe"`
}

// IsStale returns true if no probe has updated the state within maxAge.
func (s *Status) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastProbe) > maxAge
}

// IsDegraded returns true when recent failures or slow probes indicate
// the upstream is struggling but not confirmed down.
func (s *Status) IsDegraded() bool {
	if s.IsUnhealthy() {
		return false
	}
	return s.ConsecutiveFailures >= FailureThresholdDegraded ||
		(s.Healthy && s.Latency >= LatencyThresholdSlow)
}

// IsUnhealthy returns true when enough consecutive probes have failed
// to consider the upstream down.
func (s *Status) IsUnhealthy() bool {
	return s.ConsecutiveFailures >= FailureThresholdUnhealthy
}
