// Package index implements the range-overlap index: the Writer that
// turns a manifest into an atomic batch of index entries, and the Reader
// that scans, filters, and lazily repairs those entries.
package index

import (
	"log/slog"
	"sync"

	"github.com/git-pkgs/depindex/internal/cache"
	"github.com/git-pkgs/depindex/internal/kv"
)

// DB is the long-lived handle every index operation is a method of. It
// owns the process-wide mutable state that would otherwise hide behind
// package globals: the Latest-Version Cache and the Writer Mutex.
type DB struct {
	store  kv.Store
	cache  *cache.LatestVersions
	logger *slog.Logger

	// writerMu serializes all mutating operations (store, cleanup)
	// against each other. Never held across an unbounded scan.
	writerMu *sync.Mutex
}

// Option configures a DB, following the same functional-options pattern
// as client.Option.
type Option func(*DB)

// WithLogger sets the structured logger used for batch commits, lazy
// cleanups, and store errors. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *DB) { d.logger = l }
}

// WithCacheSize overrides the Latest-Version Cache capacity (default
// cache.DefaultCapacity).
func WithCacheSize(n int) Option {
	return func(d *DB) { d.cache = cache.New(n) }
}

// WithMutex injects the Writer Mutex instead of letting Open allocate its
// own. A test seam: it lets a test hold the mutex before calling a
// mutating method to assert that it blocks, or share one mutex across
// two DBs wrapping the same underlying store.
func WithMutex(m *sync.Mutex) Option {
	return func(d *DB) { d.writerMu = m }
}

// Open creates a DB over an already-open kv.Store. The Store's lifecycle
// (and, for kv.Badger, its Close) is the caller's responsibility.
func Open(store kv.Store, opts ...Option) *DB {
	d := &DB{
		store:    store,
		cache:    cache.New(cache.DefaultCapacity),
		logger:   slog.Default(),
		writerMu: &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}
