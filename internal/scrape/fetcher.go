package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"jobfeed-engine/internal/scrape/types"
)

var (
	ErrFetchTimeout = errors.New("fetch timeout")
	ErrFetchFailure = errors.New("fetch failure")
)

const (
	DefaultFetchTimeout     = 15 * time.Second
	DefaultFetchConcurrency = 5
)

// NewGate returns the concurrency gate shared by every fetch of the process.
func NewGate(n int) *semaphore.Weighted {
	if n < 1 {
		n = DefaultFetchConcurrency
	}
	return semaphore.NewWeighted(int64(n))
}

// FeedFetcher fetches and maps a single source under the shared gate and a
// per-call timeout. Failures are returned in the result, never panicked.
type FeedFetcher struct {
	source  types.Source
	gate    *semaphore.Weighted
	mapper  *Mapper
	timeout time.Duration
	logger  *slog.Logger
}

func NewFeedFetcher(source types.Source, gate *semaphore.Weighted, mapper *Mapper, timeout time.Duration, logger *slog.Logger) *FeedFetcher {
	if gate == nil {
		gate = NewGate(DefaultFetchConcurrency)
	}
	if mapper == nil {
		mapper = NewMapper(nil, logger)
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedFetcher{
		source:  source,
		gate:    gate,
		mapper:  mapper,
		timeout: timeout,
		logger:  logger,
	}
}

type rawResult struct {
	feed types.RawFeed
	err  error
}

// Fetch waits for a gate slot, then gives the source at most the configured
// timeout. The timeout starts once the slot is held.
func (f *FeedFetcher) Fetch(ctx context.Context, ref string) types.FetchResult {
	start := time.Now()
	fail := func(err error) types.FetchResult {
		return types.FetchResult{Source: ref, Err: err, Duration: time.Since(start)}
	}

	if err := f.gate.Acquire(ctx, 1); err != nil {
		return fail(fmt.Errorf("%w: %s: waiting for slot: %v", ErrFetchFailure, ref, err))
	}
	defer f.gate.Release(1)

	fctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// buffered so a source that ignores ctx does not leak a blocked goroutine
	done := make(chan rawResult, 1)
	go func() {
		feed, err := f.source.Fetch(fctx, ref)
		done <- rawResult{feed: feed, err: err}
	}()

	var res rawResult
	select {
	case res = <-done:
	case <-fctx.Done():
		res = rawResult{err: fctx.Err()}
	}

	if res.err != nil {
		if ctx.Err() == nil && errors.Is(fctx.Err(), context.DeadlineExceeded) {
			return fail(fmt.Errorf("%w: %s after %s", ErrFetchTimeout, ref, f.timeout))
		}
		return fail(fmt.Errorf("%w: %s: %v", ErrFetchFailure, ref, res.err))
	}

	postings := f.mapper.Postings(ref, res.feed)
	f.logger.Debug("feed fetched",
		"source", ref,
		"items", len(res.feed.Items),
		"postings", len(postings),
		"duration", time.Since(start),
	)
	return types.FetchResult{
		Source:   ref,
		Postings: postings,
		Duration: time.Since(start),
	}
}
