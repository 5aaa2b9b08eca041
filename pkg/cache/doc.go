// Package cache provides TTL caching of Voice Bot GET responses.
//
// The cache is deliberately blunt: no ETag negotiation, no conditional
// requests. Upstream dashboard data changes on the order of minutes and
// reads vastly outnumber writes, so a short per-endpoint TTL trades a
// bounded staleness window for a large reduction in upstream load.
// Mutating calls bypass the cache entirely; staleness self-heals within
// the TTL window.
//
// The backing store is pluggable via the Store interface: MemoryStore
// for single-instance deployments, RedisStore for multi-instance
// deployments where cache effectiveness must not depend on which
// process serves a request.
//
// # Basic Usage
//
//	store := cache.NewRedisStore(redisClient)
//	c := cache.New(store)
//
//	key := cache.Key{
//		Path:   "/api/v2/dashboard/business",
//		Params: url.Values{"business_id": []string{"b1"}},
//	}
//
//	entry, err := c.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the Voice Bot API, then:
//		_ = c.Set(ctx, key, payload, 5*time.Minute)
//	}
//
// Keys are deterministic: parameter order never changes the key, so
// logically identical requests always share an entry.
package cache
