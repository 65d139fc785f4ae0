package index

import (
	"context"
	"iter"
	"log/slog"

	"github.com/git-pkgs/depindex/internal/keys"
	"github.com/git-pkgs/depindex/internal/kv"
	"github.com/git-pkgs/depindex/internal/manifest"
	"github.com/git-pkgs/depindex/internal/semver"
)

// QueryOptions controls the query(name, range, opts) operation.
type QueryOptions struct {
	// All, if set, scans the per-version index instead of the latest-only
	// index. Per-version results never trigger cleanup or re-validation.
	All bool

	// DevDependencies, if set, queries the "dev" index family instead of
	// "dep".
	DevDependencies bool

	// Gt resumes a scan strictly after this dependent name.
	Gt string

	// Limit bounds the number of raw scan emissions considered, before
	// filtering. <= 0 means unbounded.
	Limit int
}

func (o QueryOptions) kind() manifest.Kind {
	if o.DevDependencies {
		return manifest.Dev
	}
	return manifest.Dep
}

// Query implements query(name, range, opts): a prefixed forward scan over
// the index, an overlap filter against the normalized query interval, a
// manifest fetch per surviving candidate, and — for latest-only scans —
// re-validation with lazy cleanup of stale entries. The returned sequence
// is lazy: nothing past the first unconsumed record is fetched, and
// breaking out of the range-over-func loop releases scan resources
// immediately: consumers apply backpressure by not requesting the next
// item.
func (d *DB) Query(ctx context.Context, name, rangeExpr string, opts QueryOptions) iter.Seq2[*manifest.Manifest, error] {
	return func(yield func(*manifest.Manifest, error) bool) {
		expr, err := semver.ParseRange(rangeExpr)
		if err != nil {
			yield(nil, ErrInvalidQueryRange)
			return
		}
		L, U, wildcard, err := semver.NormalizeQuery(expr)
		if err != nil {
			yield(nil, err)
			return
		}

		kind := opts.kind()
		var prefix string
		if opts.All {
			prefix = keys.IndexScanPrefix(kind, name)
		} else {
			prefix = keys.IndexLatestScanPrefix(kind, name)
		}
		gt := keys.ScanLowerBound(prefix, opts.Gt)
		lt := keys.ScanUpperBound(prefix)

		for rec, err := range d.store.Scan(ctx, gt, lt, opts.Limit) {
			if err != nil {
				yield(nil, storeErr("scan", err))
				return
			}

			if opts.All {
				if !yield2(ctx, d, kind, name, rec, L, U, wildcard, yield) {
					return
				}
				continue
			}
			if !yield2Latest(ctx, d, kind, name, rec, L, U, wildcard, yield) {
				return
			}
		}
	}
}

func yield2(ctx context.Context, d *DB, kind manifest.Kind, name string, rec kv.Record, L, U semver.Packed, wildcard bool, yield func(*manifest.Manifest, error) bool) bool {
	encoded, err := decodePerVersion(rec.Value)
	if err != nil {
		return yield(nil, storeErr("decode-per-version", err))
	}
	if !wildcard && !semver.OverlapAny(encoded, L, U) {
		return true
	}

	dependent, version := keys.DependentVersion(rec.Key)
	raw, err := d.store.Get(ctx, keys.PkgVersion(dependent, version))
	if err != nil {
		if err == kv.ErrNotFound {
			return true
		}
		return yield(nil, storeErr("get-pkg-version", err))
	}
	m, err := decodeManifest(raw)
	if err != nil {
		return yield(nil, storeErr("decode-manifest", err))
	}

	// Per-version entries never go stale: emit unconditionally, no
	// re-validation against name/kind.
	return yield(m, nil)
}

func yield2Latest(ctx context.Context, d *DB, kind manifest.Kind, name string, rec kv.Record, L, U semver.Packed, wildcard bool, yield func(*manifest.Manifest, error) bool) bool {
	_, encoded, err := decodeLatest(rec.Value)
	if err != nil {
		return yield(nil, storeErr("decode-latest", err))
	}
	if !wildcard && !semver.OverlapAny(encoded, L, U) {
		return true
	}

	dependent := keys.Dependent(rec.Key)
	raw, err := d.store.Get(ctx, keys.PkgLatest(dependent))
	if err != nil {
		if err == kv.ErrNotFound {
			return true
		}
		return yield(nil, storeErr("get-pkg-latest", err))
	}
	m, err := decodeManifest(raw)
	if err != nil {
		return yield(nil, storeErr("decode-manifest", err))
	}

	if m.Declares(kind, name) {
		return yield(m, nil)
	}

	// Stale: the dependent's latest manifest (at the version just fetched)
	// no longer declares name.
	if err := d.cleanup(ctx, kind, name, dependent, m.Version); err != nil {
		return yield(nil, err)
	}
	return true
}

// cleanup implements the lazy-cleanup protocol: under the Writer Mutex,
// re-read the dependent's latest-version pointer; if it
// still matches the version of the manifest fetched in step 4 (i.e. the
// latest hasn't moved again since), delete the offending latest index
// entry. If the pointer has moved, do nothing — a subsequent store of
// that dependent already re-created or will re-create its index entries.
func (d *DB) cleanup(ctx context.Context, kind manifest.Kind, dep, dependent, seenVersion string) error {
	d.writerMu.Lock()
	defer d.writerMu.Unlock()

	raw, err := d.store.Get(ctx, keys.LatestVersion(dependent))
	if err != nil {
		if err == kv.ErrNotFound {
			// No latest pointer at all anymore; nothing to protect.
			return storeErr("cleanup-delete", d.store.Del(ctx, keys.IndexLatest(kind, dep, dependent)))
		}
		return storeErr("cleanup-get-latest-version", err)
	}
	if string(raw) != seenVersion {
		// The latest moved again since step 4 fetched the manifest; abort.
		return nil
	}

	if err := d.store.Del(ctx, keys.IndexLatest(kind, dep, dependent)); err != nil {
		return storeErr("cleanup-delete", err)
	}
	d.logger.Info("pruned stale latest index entry",
		slog.String("dependency", dep),
		slog.String("dependent", dependent),
		slog.String("kind", string(kind)),
	)
	return nil
}
