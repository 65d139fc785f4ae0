package ingest

import (
	"context"
	"log/slog"
	"sync"
)

const defaultConcurrency = 15

// BulkIngest ingests multiple PURLs concurrently, mirroring
// core.BulkFetchPackagesWithConcurrency's semaphore pattern. Individual
// failures are logged and do not abort the others; the returned map
// carries only the PURLs that failed, to err.
func (in *Ingestor) BulkIngest(ctx context.Context, purls []string) map[string]error {
	return in.BulkIngestWithConcurrency(ctx, purls, defaultConcurrency)
}

// BulkIngestWithConcurrency is BulkIngest with a custom concurrency limit.
func (in *Ingestor) BulkIngestWithConcurrency(ctx context.Context, purls []string, concurrency int) map[string]error {
	failures := make(map[string]error)
	var mu sync.Mutex
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, p := range purls {
		wg.Add(1)
		go func(purlStr string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			if err := in.IngestPURL(ctx, purlStr); err != nil {
				mu.Lock()
				failures[purlStr] = err
				mu.Unlock()
				in.logger.Error("ingest failed", slog.String("purl", purlStr), slog.Any("err", err))
			}
		}(p)
	}

	wg.Wait()
	return failures
}
