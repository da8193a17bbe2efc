package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Stephen-Collins-tech/hotspots/pkg/gitrepo"
)

// touchCacheEntry is the JSON-visible shape for one cached touch-metric
// lookup: a commit count and, when computable, the days since the most
// recent touch in range.
type touchCacheEntry struct {
	Count     int      `json:"count"`
	DaysSince *float64 `json:"days_since"`
}

// TouchCache is the in-memory, load-whole/save-whole cache of per-range
// blame results, keyed by "sha|file|start|end" as described in §6.
type TouchCache struct {
	entries map[string]touchCacheEntry
}

// NewTouchCache returns an empty cache.
func NewTouchCache() *TouchCache {
	return &TouchCache{entries: make(map[string]touchCacheEntry)}
}

func cacheKey(k gitrepo.TouchKey) string {
	return strings.Join([]string{
		k.SHA, k.File,
		strconv.Itoa(k.StartLine),
		strconv.Itoa(k.EndLine),
	}, "|")
}

// Get returns the cached metrics for key, if present.
func (c *TouchCache) Get(key gitrepo.TouchKey) (gitrepo.TouchMetrics, bool) {
	e, ok := c.entries[cacheKey(key)]
	if !ok {
		return gitrepo.TouchMetrics{}, false
	}

	return gitrepo.TouchMetrics{Count: e.Count, DaysSince: e.DaysSince}, true
}

// Set stores metrics for key, overwriting any prior entry.
func (c *TouchCache) Set(key gitrepo.TouchKey, metrics gitrepo.TouchMetrics) {
	c.entries[cacheKey(key)] = touchCacheEntry{Count: metrics.Count, DaysSince: metrics.DaysSince}
}

// EvictStale removes every entry whose sha is not present in knownSHAs,
// since such an entry can never again be addressed by a future lookup
// (the commit has aged out of the index).
func (c *TouchCache) EvictStale(knownSHAs map[string]bool) {
	for key := range c.entries {
		sha, _, ok := strings.Cut(key, "|")
		if !ok || !knownSHAs[sha] {
			delete(c.entries, key)
		}
	}
}

// LoadTouchCache reads touch_cache.json, returning an empty cache if it
// does not yet exist.
func (s *Store) LoadTouchCache() (*TouchCache, error) {
	data, err := os.ReadFile(s.touchCachePath())
	if err != nil {
		if os.IsNotExist(err) {
			return NewTouchCache(), nil
		}

		return nil, fmt.Errorf("store: read touch cache: %w", err)
	}

	raw := make(map[string]touchCacheEntry)

	if unmarshalErr := json.Unmarshal(data, &raw); unmarshalErr != nil {
		return nil, fmt.Errorf("store: unmarshal touch cache: %w", unmarshalErr)
	}

	return &TouchCache{entries: raw}, nil
}

// SaveTouchCache rewrites touch_cache.json atomically in full; the
// cache has no incremental-write mode, matching §5's "read fully at
// start, written fully at end" resource contract. Write failures here
// are a warning, not a fatal error, per §7 — callers should log and
// continue rather than abort the run.
func (s *Store) SaveTouchCache(c *TouchCache) error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal touch cache: %w", err)
	}

	return atomicWriteFile(s.touchCachePath(), data)
}
