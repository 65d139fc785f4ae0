package index

import (
	"context"
	"log/slog"

	"github.com/git-pkgs/depindex/internal/keys"
	"github.com/git-pkgs/depindex/internal/kv"
	"github.com/git-pkgs/depindex/internal/manifest"
	"github.com/git-pkgs/depindex/internal/semver"
)

// Store implements the store(manifest) operation: determine whether m is
// the latest known version of its package, build a single atomic batch
// covering the manifest, its latest-family entries (if applicable), and
// every parseable dependency's forward index entries, then commit it.
//
// An unparseable range drops only that dependency from the index; the
// manifest itself is always written. Failure to commit the batch returns
// a *StoreIOError and leaves the store untouched (the batch never became
// partially visible).
func (d *DB) Store(ctx context.Context, m *manifest.Manifest) error {
	d.writerMu.Lock()
	defer d.writerMu.Unlock()

	isLatest, err := d.isLatestLocked(ctx, m.Name, m.Version)
	if err != nil {
		return err
	}

	ops, err := d.buildBatch(m, isLatest)
	if err != nil {
		return err
	}

	if err := d.store.Batch(ctx, ops); err != nil {
		return storeErr("batch", err)
	}

	if isLatest {
		d.cache.Set(m.Name, m.Version)
	}

	d.logger.Debug("stored manifest",
		slog.String("name", m.Name),
		slog.String("version", m.Version),
		slog.Bool("latest", isLatest),
		slog.Int("ops", len(ops)),
	)
	return nil
}

// isLatestLocked determines whether version is newer than the currently
// known latest for name, consulting the cache before falling back to the
// store. Must be called with writerMu held.
func (d *DB) isLatestLocked(ctx context.Context, name, version string) (bool, error) {
	if current, ok := d.cache.Get(name); ok {
		return semver.Compare(version, current) > 0, nil
	}

	raw, err := d.store.Get(ctx, keys.LatestVersion(name))
	if err != nil {
		if err == kv.ErrNotFound {
			return true, nil
		}
		return false, storeErr("get-latest-version", err)
	}
	return semver.Compare(version, string(raw)) > 0, nil
}

func (d *DB) buildBatch(m *manifest.Manifest, isLatest bool) ([]kv.Op, error) {
	var ops []kv.Op

	for _, kind := range []manifest.Kind{manifest.Dep, manifest.Dev} {
		for dep, raw := range m.Ranges(kind) {
			expr, err := semver.ParseRange(raw)
			if err != nil {
				d.logger.Info("dropping unparseable dependency range",
					slog.String("dependent", m.Name),
					slog.String("dependency", dep),
					slog.String("range", raw),
					slog.Any("err", &unparseableRangeError{dep: dep, raw: raw, err: err}),
				)
				continue
			}
			encoded := semver.EncodeRange(expr)

			perVersionValue, err := encodePerVersion(encoded)
			if err != nil {
				return nil, storeErr("encode-per-version", err)
			}
			ops = append(ops, kv.Put(keys.Index(kind, dep, m.Name, m.Version), perVersionValue))

			if isLatest {
				latestValue, err := encodeLatest(m.Version, encoded)
				if err != nil {
					return nil, storeErr("encode-latest", err)
				}
				ops = append(ops, kv.Put(keys.IndexLatest(kind, dep, m.Name), latestValue))
			}
		}
	}

	manifestValue, err := encodeManifest(m)
	if err != nil {
		return nil, storeErr("encode-manifest", err)
	}
	ops = append(ops, kv.Put(keys.PkgVersion(m.Name, m.Version), manifestValue))

	if isLatest {
		ops = append(ops, kv.Put(keys.PkgLatest(m.Name), manifestValue))
		ops = append(ops, kv.Put(keys.LatestVersion(m.Name), []byte(m.Version)))
	}

	return ops, nil
}
