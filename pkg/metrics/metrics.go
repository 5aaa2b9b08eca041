// Package metrics provides the centralized Prometheus metrics registry
// for the Voice Bot client. All metrics are defined in their respective
// packages (client, cache, token, health) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the Voice Bot client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Token Metrics (pkg/token):
//   - voicebot_token_renewals_total (Counter): Service tokens generated
//   - voicebot_token_invalidations_total (Counter): Tokens cleared after upstream rejection
//
// Cache Metrics (pkg/cache):
//   - voicebot_cache_hits_total{backend} (Counter): Cache hits by backend
//   - voicebot_cache_misses_total (Counter): Cache misses
//   - voicebot_cache_errors_total{operation} (Counter): Cache operation errors
//   - voicebot_cache_evictions_total (Counter): Expired entries evicted on read
//
// Request Metrics (pkg/client):
//   - voicebot_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - voicebot_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - voicebot_errors_total{kind} (Counter): Errors by taxonomy kind
//
// Retry Metrics (pkg/client):
//   - voicebot_retries_total{kind} (Counter): Retry attempts by error kind
//   - voicebot_retry_backoff_seconds{kind} (Histogram): Backoff duration by error kind
//   - voicebot_retry_exhausted_total{kind} (Counter): Requests that exhausted max retries
//
// Health Metrics (pkg/health):
//   - voicebot_upstream_healthy (Gauge): Last probe result (1 healthy, 0 failed)
//   - voicebot_health_probe_latency_seconds (Histogram): Probe latency
//   - voicebot_health_probe_failures_total (Counter): Failed probes
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(voicebot_cache_hits_total[5m])) /
//   (sum(rate(voicebot_cache_hits_total[5m])) + sum(rate(voicebot_cache_misses_total[5m])))
//
//   # Request Error Rate by Kind
//   rate(voicebot_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(voicebot_request_duration_seconds_bucket[5m]))
//
//   # Upstream Availability
//   avg_over_time(voicebot_upstream_healthy[1h])
