// Package registries additionally exposes a range-overlap dependency
// index: given a corpus of package manifests, it answers "which packages
// declare a dependency on X whose range overlaps query range R" without
// scanning every dependent.
//
// Basic usage:
//
//	store := registries.NewMemoryStore()
//	db := registries.OpenIndex(store)
//
//	err := db.Store(ctx, &registries.Manifest{
//		Name:         "a",
//		Version:      "1.0.0",
//		Dependencies: map[string]string{"b": "^1.2.0"},
//	})
//
//	for m, err := range db.Query(ctx, "b", "1.5.0", registries.QueryOptions{}) {
//		...
//	}
package registries

import (
	"github.com/git-pkgs/depindex/internal/index"
	"github.com/git-pkgs/depindex/internal/kv"
	"github.com/git-pkgs/depindex/internal/manifest"
)

// Re-export types from internal/manifest and internal/index.
type (
	// Manifest is a package descriptor: name, version, and declared
	// dependency/devDependency range expressions.
	Manifest = manifest.Manifest

	// DependencyKind distinguishes "dependencies" from "devDependencies".
	DependencyKind = manifest.Kind

	// DB is the long-lived handle for Store/Query operations.
	DB = index.DB

	// IndexOption configures a DB.
	IndexOption = index.Option

	// QueryOptions controls a Query call.
	QueryOptions = index.QueryOptions
)

// Re-export constants.
const (
	DepKind = manifest.Dep
	DevKind = manifest.Dev
)

// Re-export errors.
var (
	// ErrInvalidQueryRange is returned when a query range parses to a
	// disjunction, an unsupported comparator shape, or more than two
	// comparators.
	ErrInvalidQueryRange = index.ErrInvalidQueryRange
)

// Re-export index.Store constructor and options.
var (
	// OpenIndex creates a DB over an already-open Store.
	OpenIndex = index.Open

	// WithIndexLogger sets the DB's structured logger.
	WithIndexLogger = index.WithLogger

	// WithIndexCacheSize overrides the Latest-Version Cache capacity.
	WithIndexCacheSize = index.WithCacheSize
)

// Re-export kv.Store and its implementations, so callers need not import
// internal/kv directly.
type (
	// Store is the ordered key-value contract the index is built on.
	Store = kv.Store

	// BadgerConfig configures a Badger-backed Store.
	BadgerConfig = kv.Config
)

var (
	// NewMemoryStore creates an in-memory Store, suitable for tests.
	NewMemoryStore = kv.NewMemory

	// OpenBadgerStore opens a BadgerDB-backed Store.
	OpenBadgerStore = kv.OpenBadger

	// ErrNotFoundInStore is returned by Store.Get and by DB.GetVersion /
	// DB.GetLatest when the requested key is absent.
	ErrNotFoundInStore = kv.ErrNotFound
)
