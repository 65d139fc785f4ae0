// Package cache provides the bounded Latest-Version Cache: a
// process-wide name -> latest version mapping kept coherent with the
// store's "!latest-version!" keys on every write, consulted first by the
// Writer and never populated from query-time reads.
package cache

import (
	lru "github.com/hashicorp/golang-lru"
)

// DefaultCapacity is a reasonable working-set size for a single process.
const DefaultCapacity = 1000

// LatestVersions is a bounded, recency-evicted name -> version cache.
type LatestVersions struct {
	lru *lru.Cache
}

// New creates a LatestVersions cache with the given capacity. Capacity
// <= 0 falls back to DefaultCapacity.
func New(capacity int) *LatestVersions {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New(capacity)
	if err != nil {
		// lru.New only fails for a non-positive size, which can't happen
		// after the guard above.
		panic(err)
	}
	return &LatestVersions{lru: c}
}

// Get returns the cached latest version for name, and whether it was
// present.
func (c *LatestVersions) Get(name string) (string, bool) {
	v, ok := c.lru.Get(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Set records name's latest known version. Called only after a
// successful, verified write — never from a query-time read, so the
// cache cannot be poisoned by a stale store read.
func (c *LatestVersions) Set(name, version string) {
	c.lru.Add(name, version)
}

// Len reports the number of cached entries.
func (c *LatestVersions) Len() int {
	return c.lru.Len()
}
