// Package ingest is the front end that turns registry metadata into the
// manifests the range-overlap index stores: it walks PURLs across the
// ecosystems registered in internal/*, fetches package, version, and
// dependency data through the shared registry client, and calls
// index.DB.Store for each fetched version.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/git-pkgs/depindex/internal/core"
	"github.com/git-pkgs/depindex/internal/index"
	"github.com/git-pkgs/depindex/internal/manifest"
)

// Ingestor fetches package metadata from a registry client and stores it
// in a range-overlap index.
type Ingestor struct {
	client *core.Client
	db     *index.DB
	logger *slog.Logger

	normalizeLicense bool
	checkIntegrity   bool
	integrityFetcher IntegrityFetcher
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithClient overrides the registry client used for fetches.
func WithClient(c *core.Client) Option {
	return func(in *Ingestor) { in.client = c }
}

// WithLogger sets the structured logger used for per-package progress and
// skipped-version warnings.
func WithLogger(l *slog.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// WithLicenseNormalization enables SPDX normalization of each ingested
// version's license field before it is stored as manifest metadata.
func WithLicenseNormalization() Option {
	return func(in *Ingestor) { in.normalizeLicense = true }
}

// WithIntegrityCheck enables a best-effort artifact spot-check using f: a
// HEAD request per version, logging (never failing ingestion on) a failed
// request or an empty artifact. No digest comparison is made.
func WithIntegrityCheck(f IntegrityFetcher) Option {
	return func(in *Ingestor) {
		in.checkIntegrity = true
		in.integrityFetcher = f
	}
}

// New creates an Ingestor writing into db, fetching through client.
func New(client *core.Client, db *index.DB, opts ...Option) *Ingestor {
	in := &Ingestor{
		client: client,
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// IngestPURL resolves purlStr to a registry and package name, fetches
// every version and its dependencies, and stores each as a manifest.
// Individual version failures are logged and skipped; IngestPURL only
// returns an error when the package itself cannot be fetched.
func (in *Ingestor) IngestPURL(ctx context.Context, purlStr string) error {
	reg, name, _, err := core.NewFromPURL(purlStr, in.client)
	if err != nil {
		return fmt.Errorf("ingest: resolve %s: %w", purlStr, err)
	}
	return in.IngestPackage(ctx, reg, name)
}

// IngestPackage fetches every version of name from reg and stores each as
// a manifest in the index.
func (in *Ingestor) IngestPackage(ctx context.Context, reg core.Registry, name string) error {
	versions, err := reg.FetchVersions(ctx, name)
	if err != nil {
		return fmt.Errorf("ingest: fetch versions for %s: %w", name, err)
	}

	for _, v := range versions {
		if err := in.ingestVersion(ctx, reg, name, v); err != nil {
			in.logger.Warn("skipping version",
				slog.String("name", name),
				slog.String("version", v.Number),
				slog.Any("err", err),
			)
		}
	}
	return nil
}

func (in *Ingestor) ingestVersion(ctx context.Context, reg core.Registry, name string, v core.Version) error {
	deps, err := reg.FetchDependencies(ctx, name, v.Number)
	if err != nil {
		return fmt.Errorf("fetch dependencies: %w", err)
	}

	m := &manifest.Manifest{
		Name:            name,
		Version:         v.Number,
		Dependencies:    make(map[string]string),
		DevDependencies: make(map[string]string),
		Metadata: map[string]any{
			"status": string(v.Status),
		},
	}

	for _, d := range deps {
		if d.Scope == core.Development {
			m.DevDependencies[d.Name] = d.Requirements
		} else {
			m.Dependencies[d.Name] = d.Requirements
		}
	}

	license := v.Licenses
	if in.normalizeLicense && license != "" {
		license = normalizeLicense(license)
	}
	if license != "" {
		m.Metadata["license"] = license
	}
	if v.Integrity != "" {
		m.Metadata["integrity"] = v.Integrity
	}

	if err := in.db.Store(ctx, m); err != nil {
		return fmt.Errorf("store manifest: %w", err)
	}

	if in.checkIntegrity && in.integrityFetcher != nil && v.Integrity != "" {
		in.spotCheckIntegrity(ctx, reg, name, v)
	}
	return nil
}
