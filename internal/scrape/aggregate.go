package scrape

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/scrape/types"
)

// Pipeline fans a fetch out over every source, merges the successes in source
// order and dedupes the result.
type Pipeline struct {
	fetcher *FeedFetcher
	logger  *slog.Logger
}

func NewPipeline(fetcher *FeedFetcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{fetcher: fetcher, logger: logger}
}

// FetchAll returns one result per ref, indexed like refs. Sources never cancel
// each other.
func (p *Pipeline) FetchAll(ctx context.Context, refs []string) []types.FetchResult {
	results := make([]types.FetchResult, len(refs))

	var g errgroup.Group
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			results[i] = p.fetcher.Fetch(ctx, ref)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Aggregate never fails: failed sources are logged and contribute nothing,
// and the result is an empty (non-nil) slice when all of them fail.
func (p *Pipeline) Aggregate(ctx context.Context, refs []string) []domain.JobPosting {
	start := time.Now()
	results := p.FetchAll(ctx, refs)

	var all []domain.JobPosting
	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
			p.logger.Warn("feed fetch failed",
				"source", res.Source,
				"err", res.Err,
				"duration", res.Duration,
			)
			continue
		}
		all = append(all, res.Postings...)
	}

	unique := Dedupe(all)

	p.logger.Info("aggregation complete",
		"sources", len(refs),
		"ok", len(refs)-failed,
		"failed", failed,
		"postings", len(all),
		"unique", len(unique),
		"duration", time.Since(start),
	)
	return unique
}
