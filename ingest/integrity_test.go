package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/git-pkgs/depindex/internal/core"
)

type fakeIntegrityFetcher struct {
	size        int64
	contentType string
	err         error
	calls       []string
}

func (f *fakeIntegrityFetcher) Head(ctx context.Context, url string) (int64, string, error) {
	f.calls = append(f.calls, url)
	return f.size, f.contentType, f.err
}

func TestIngestVersion_IntegrityCheckRunsWhenEnabled(t *testing.T) {
	ctx := context.Background()
	db := newTestDB()

	reg := &fakeRegistry{
		ecosystem: "npm",
		versions: []core.Version{
			{Number: "1.0.0", Integrity: "sha512-abc"},
		},
		urls: &core.BaseURLs{
			DownloadFn: func(name, version string) string {
				return "https://example.test/" + name + "/" + version + ".tgz"
			},
		},
	}

	fetcher := &fakeIntegrityFetcher{size: 1024, contentType: "application/gzip"}
	in := New(nil, db, WithIntegrityCheck(fetcher))

	if err := in.IngestPackage(ctx, reg, "example"); err != nil {
		t.Fatalf("IngestPackage: %v", err)
	}

	if len(fetcher.calls) != 1 {
		t.Fatalf("expected exactly one HEAD call, got %d: %v", len(fetcher.calls), fetcher.calls)
	}
	if fetcher.calls[0] != "https://example.test/example/1.0.0.tgz" {
		t.Errorf("unexpected HEAD url: %q", fetcher.calls[0])
	}
}

func TestIngestVersion_IntegrityCheckSkippedWithoutIntegrityField(t *testing.T) {
	ctx := context.Background()
	db := newTestDB()

	reg := &fakeRegistry{
		ecosystem: "npm",
		versions: []core.Version{
			{Number: "1.0.0"}, // no Integrity value
		},
		urls: &core.BaseURLs{
			DownloadFn: func(name, version string) string { return "https://example.test/dl" },
		},
	}

	fetcher := &fakeIntegrityFetcher{size: 1024}
	in := New(nil, db, WithIntegrityCheck(fetcher))

	if err := in.IngestPackage(ctx, reg, "example"); err != nil {
		t.Fatalf("IngestPackage: %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("expected no HEAD calls when version has no integrity field, got %d", len(fetcher.calls))
	}
}

func TestIngestVersion_IntegrityCheckFailureDoesNotFailIngestion(t *testing.T) {
	ctx := context.Background()
	db := newTestDB()

	reg := &fakeRegistry{
		ecosystem: "npm",
		versions: []core.Version{
			{Number: "1.0.0", Integrity: "sha512-abc"},
		},
		urls: &core.BaseURLs{
			DownloadFn: func(name, version string) string { return "https://example.test/dl" },
		},
	}

	fetcher := &fakeIntegrityFetcher{err: errors.New("connection reset")}
	in := New(nil, db, WithIntegrityCheck(fetcher))

	if err := in.IngestPackage(ctx, reg, "example"); err != nil {
		t.Fatalf("a HEAD failure must not fail ingestion: %v", err)
	}
	if _, err := db.GetVersion(ctx, "example", "1.0.0"); err != nil {
		t.Fatalf("manifest should still be stored despite HEAD failure: %v", err)
	}
}

func TestIngestVersion_IntegrityCheckDisabledByDefault(t *testing.T) {
	ctx := context.Background()
	db := newTestDB()

	reg := &fakeRegistry{
		ecosystem: "npm",
		versions: []core.Version{
			{Number: "1.0.0", Integrity: "sha512-abc"},
		},
	}

	in := New(nil, db) // no WithIntegrityCheck
	if err := in.IngestPackage(ctx, reg, "example"); err != nil {
		t.Fatalf("IngestPackage: %v", err)
	}
	// No integrityFetcher configured; absence of a panic is the assertion.
}
