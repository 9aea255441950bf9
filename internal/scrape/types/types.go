package types

import (
	"context"
	"time"

	"jobfeed-engine/internal/domain"
)

// RawItem is one entry as the upstream feed exposes it, before mapping.
type RawItem struct {
	Title     string
	Author    string
	Company   string
	Tags      []string
	Link      string
	Location  string
	Published *time.Time
	Summary   string // html or plain text, skills are extracted from it
}

type RawFeed struct {
	Title string
	Items []RawItem
}

// Source retrieves a raw feed for a source reference (a feed URL for RSS).
// Implementations must honour ctx cancellation.
type Source interface {
	Fetch(ctx context.Context, ref string) (RawFeed, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context, ref string) (RawFeed, error)

func (f SourceFunc) Fetch(ctx context.Context, ref string) (RawFeed, error) {
	return f(ctx, ref)
}

// FetchResult is the outcome of fetching one source: Err == nil means success.
type FetchResult struct {
	Source   string
	Postings []domain.JobPosting
	Err      error
	Duration time.Duration
}

func (r FetchResult) OK() bool { return r.Err == nil }
