package index

import (
	"context"

	"github.com/git-pkgs/depindex/internal/keys"
	"github.com/git-pkgs/depindex/internal/kv"
	"github.com/git-pkgs/depindex/internal/manifest"
)

// GetVersion returns the manifest stored for a specific (name, version),
// independent of any range query — a direct "!pkg!" lookup. Returns
// kv.ErrNotFound if absent.
func (d *DB) GetVersion(ctx context.Context, name, version string) (*manifest.Manifest, error) {
	raw, err := d.store.Get(ctx, keys.PkgVersion(name, version))
	if err != nil {
		if err == kv.ErrNotFound {
			return nil, err
		}
		return nil, storeErr("get-pkg-version", err)
	}
	return decodeManifest(raw)
}

// GetLatest returns the manifest at the currently known latest version of
// name. Returns kv.ErrNotFound if name has never been stored.
func (d *DB) GetLatest(ctx context.Context, name string) (*manifest.Manifest, error) {
	raw, err := d.store.Get(ctx, keys.PkgLatest(name))
	if err != nil {
		if err == kv.ErrNotFound {
			return nil, err
		}
		return nil, storeErr("get-pkg-latest", err)
	}
	return decodeManifest(raw)
}
