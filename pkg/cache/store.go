package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the pluggable backing store for cached responses. The
// in-memory implementation serves single-instance deployments; the
// Redis implementation shares the cache across process instances.
// Set always overwrites (last writer wins).
type Store interface {
	// Get returns the raw bytes for key. ok=false on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error

	// Name identifies the backend for logging and metrics.
	Name() string
}

// memoryItem is a stored value with its eviction deadline.
type memoryItem struct {
	value    []byte
	deadline time.Time
}

// MemoryStore is an in-process Store backed by a map. Expired items are
// evicted lazily on Get.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
	}
}

// Get returns the stored value, treating items at or past their
// deadline as absent and removing them.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if !time.Now().Before(item.deadline) {
		s.mu.Lock()
		// Re-check under the write lock; another writer may have
		// refreshed the item.
		if cur, ok := s.items[key]; ok && !time.Now().Before(cur.deadline) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	return item.value, true, nil
}

// Set stores the value, overwriting any previous item for the key.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = memoryItem{
		value:    value,
		deadline: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes the key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// Name implements Store.
func (s *MemoryStore) Name() string { return "memory" }

// Len returns the number of stored items, including not-yet-evicted
// expired ones.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// RedisStore is a Store backed by a shared Redis instance. Redis
// expires entries server-side via the SET TTL, so expired keys
// disappear without client-side sweeping.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{client: client}
}

// Get returns the stored value for key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores the value with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes the key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Name implements Store.
func (s *RedisStore) Name() string { return "redis" }
