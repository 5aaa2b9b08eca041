package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrCacheMiss indicates the requested key was not found or had expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry could not be decoded.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Cache stores successful GET responses with per-entry expiry on top of
// a pluggable Store backend.
type Cache struct {
	store  Store
	logger zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a cache over the given backing store.
func New(store Store) *Cache {
	if store == nil {
		panic("cache store cannot be nil")
	}
	return &Cache{
		store:  store,
		logger: log.With().Str("component", "response-cache").Logger(),
		now:    time.Now,
	}
}

// Get retrieves a cache entry. Returns ErrCacheMiss when the key is
// absent or the entry has reached its expiry; expired entries are
// removed on lookup.
func (c *Cache) Get(ctx context.Context, key Key) (*Entry, error) {
	cacheKey := key.String()

	data, ok, err := c.store.Get(ctx, cacheKey)
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%s get: %w", c.store.Name(), err)
	}
	if !ok {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// The store's own TTL usually evicts first; the entry expiry is the
	// authoritative check.
	if entry.IsExpiredAt(c.now()) {
		_ = c.store.Delete(ctx, cacheKey)
		CacheEvictions.Inc()
		CacheMisses.Inc()
		c.logger.Debug().Str("key", cacheKey).Msg("Evicted expired cache entry")
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(c.store.Name()).Inc()
	return &entry, nil
}

// Set stores a payload with the given TTL, overwriting any existing
// entry for the key.
func (c *Cache) Set(ctx context.Context, key Key, payload json.RawMessage, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive (got %v)", ttl)
	}

	now := c.now()
	entry := Entry{
		Payload:   payload,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(&entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := c.store.Set(ctx, key.String(), data, ttl); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("%s set: %w", c.store.Name(), err)
	}

	c.logger.Debug().
		Str("key", key.String()).
		Dur("ttl", ttl).
		Msg("Cached response")

	return nil
}

// Delete removes a cache entry.
func (c *Cache) Delete(ctx context.Context, key Key) error {
	if err := c.store.Delete(ctx, key.String()); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("%s delete: %w", c.store.Name(), err)
	}
	return nil
}

// Backend returns the name of the backing store.
func (c *Cache) Backend() string {
	return c.store.Name()
}
