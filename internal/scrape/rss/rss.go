package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"jobfeed-engine/internal/scrape/types"
	"jobfeed-engine/internal/scrape/util"
)

const maxFeedBytes = 10 << 20

type Config struct {
	UserAgent string
}

// Scraper reads RSS/Atom/JSON feeds over HTTP. It does no timeout handling of
// its own; the caller's context bounds each request.
type Scraper struct {
	cfg     Config
	hc      *http.Client
	limiter *util.KeyedLimiter
}

func New(cfg Config, hc *http.Client, limiter *util.KeyedLimiter) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "jobfeed/1.0 (+local)"
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &Scraper{cfg: cfg, hc: hc, limiter: limiter}
}

func (s *Scraper) Fetch(ctx context.Context, feedURL string) (types.RawFeed, error) {
	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, feedURL); err != nil {
			return types.RawFeed{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return types.RawFeed{}, fmt.Errorf("rss request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	res, err := s.hc.Do(req)
	if err != nil {
		return types.RawFeed{}, fmt.Errorf("rss get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return types.RawFeed{}, fmt.Errorf("rss status %d", res.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(res.Body, maxFeedBytes))
	if err != nil {
		return types.RawFeed{}, fmt.Errorf("rss parse: %w", err)
	}
	return convertFeed(feed), nil
}

func convertFeed(feed *gofeed.Feed) types.RawFeed {
	out := types.RawFeed{
		Title: util.CleanText(feed.Title),
		Items: make([]types.RawItem, 0, len(feed.Items)),
	}
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		summary := it.Description
		if strings.TrimSpace(summary) == "" {
			summary = it.Content
		}
		published := it.PublishedParsed
		if published == nil {
			published = it.UpdatedParsed
		}

		out.Items = append(out.Items, types.RawItem{
			Title:     it.Title,
			Author:    authorName(it),
			Company:   it.Custom["company"],
			Tags:      it.Categories,
			Link:      it.Link,
			Location:  it.Custom["location"],
			Published: copyTime(published),
			Summary:   summary,
		})
	}
	return out
}

func authorName(it *gofeed.Item) string {
	for _, a := range it.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return a.Name
		}
	}
	if it.Author != nil {
		return it.Author.Name
	}
	return ""
}

func copyTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
