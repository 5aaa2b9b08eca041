package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached Voice Bot response. Only GET responses are
// ever cached, so the key covers the normalized path and the sorted
// query-parameter set.
type Key struct {
	// Path is the endpoint path (e.g. "/api/v2/dashboard/business").
	Path string

	// Params are the query parameters.
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: voicebot:<path with slashes replaced by colons>:<param hash>
//
// Parameters are sorted before hashing so that logically identical
// requests collide to the same key regardless of construction order.
//
// Example:
//
//	voicebot:api:v2:dashboard:business:6b3a55e0261b
func (k Key) String() string {
	parts := []string{"voicebot"}

	path := strings.Trim(k.Path, "/")
	if path != "" {
		parts = append(parts, strings.ReplaceAll(path, "/", ":"))
	}

	if len(k.Params) > 0 {
		parts = append(parts, hashParams(k.Params))
	}

	return strings.Join(parts, ":")
}

// hashParams produces a short stable digest of the sorted parameter set.
func hashParams(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		values := append([]string(nil), params[key]...)
		sort.Strings(values)
		for _, v := range values {
			fmt.Fprintf(&b, "%s=%s&", key, v)
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:12]
}
