package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by backend (memory, redis).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicebot_cache_hits_total",
			Help: "Total number of Voice Bot cache hits",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voicebot_cache_misses_total",
			Help: "Total number of Voice Bot cache misses",
		},
	)

	// CacheErrors tracks cache operation errors by operation.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicebot_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)

	// CacheEvictions tracks lazy evictions of expired entries.
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voicebot_cache_evictions_total",
			Help: "Total number of expired cache entries evicted on lookup",
		},
	)
)
