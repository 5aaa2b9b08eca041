package cache

import (
	"encoding/json"
	"time"
)

// Entry is a cached Voice Bot response. Entries are immutable once
// written; expiry is absolute.
type Entry struct {
	// Payload is the response body. The client never interprets domain
	// fields, so the payload is stored opaque.
	Payload json.RawMessage `json:"payload"`

	// CachedAt is when the response was stored.
	CachedAt time.Time `json:"cached_at"`

	// ExpiresAt is when the entry becomes stale.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpiredAt reports whether the entry is stale at the given instant.
// A read at exactly ExpiresAt is stale.
func (e *Entry) IsExpiredAt(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// IsExpired reports whether the entry is stale now.
func (e *Entry) IsExpired() bool {
	return e.IsExpiredAt(time.Now())
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
