package ingest

import (
	"context"
	"log/slog"

	"github.com/git-pkgs/depindex/internal/core"
)

// IntegrityFetcher is the subset of fetch.Fetcher/fetch.CircuitBreakerFetcher
// an integrity spot-check needs: a HEAD request against the artifact URL.
// Satisfied by *fetch.Fetcher and *fetch.CircuitBreakerFetcher.
type IntegrityFetcher interface {
	Head(ctx context.Context, url string) (size int64, contentType string, err error)
}

// spotCheckIntegrity issues a best-effort HEAD request against the
// version's download URL and logs a warning when the request fails or
// reports an empty artifact; it never fails ingestion. The artifact's
// content is not compared against v.Integrity.
func (in *Ingestor) spotCheckIntegrity(ctx context.Context, reg core.Registry, name string, v core.Version) {
	downloadURL := reg.URLs().Download(name, v.Number)
	if downloadURL == "" {
		return
	}

	size, _, err := in.integrityFetcher.Head(ctx, downloadURL)
	if err != nil {
		in.logger.Warn("integrity spot-check failed",
			slog.String("name", name),
			slog.String("version", v.Number),
			slog.Any("err", err),
		)
		return
	}
	if size == 0 {
		in.logger.Warn("integrity spot-check found empty artifact",
			slog.String("name", name),
			slog.String("version", v.Number),
		)
	}
}
