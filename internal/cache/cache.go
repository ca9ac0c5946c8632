// Package cache provides the injectable fetch-result cache used by the POI
// fetcher. Keys are opaque strings; values are serialized feature sets.
package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Cache is the collaborator interface the fetcher depends on. A nil Cache is
// valid and means caching is disabled.
type Cache interface {
	// Get returns the cached value for key, or ok=false on miss/expiry.
	Get(key string) (value []byte, ok bool)

	// Put stores value under key, replacing any existing entry.
	Put(key string, value []byte)

	// Stats returns hit/miss counters for observability.
	Stats() Stats
}

// Stats contains cache performance counters.
type Stats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Key derives the cache key for one fetch: SHA-256 hex over the case-folded
// place name and the canonical tag filter. Identical (place, filter) inputs
// always produce the same key.
func Key(place, canonicalFilter string) string {
	folded := cases.Fold().String(strings.TrimSpace(place))
	h := sha256.Sum256([]byte(folded + "|" + canonicalFilter))
	return fmt.Sprintf("%x", h)
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
