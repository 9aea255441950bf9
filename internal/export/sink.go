// Package export writes aggregated posting sets to durable destinations.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobfeed-engine/internal/domain"
)

// Sink persists one posting set.
type Sink interface {
	Name() string
	Export(ctx context.Context, jobs []domain.JobPosting) error
}

// Fanout exports to every sink in turn. A failing sink is logged and does not
// stop the others.
type Fanout struct {
	sinks  []Sink
	logger *slog.Logger
}

func NewFanout(logger *slog.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Name() string { return "fanout" }

func (f *Fanout) Len() int { return len(f.sinks) }

// Export returns the joined errors of all failed sinks.
func (f *Fanout) Export(ctx context.Context, jobs []domain.JobPosting) error {
	var errs []error
	for _, s := range f.sinks {
		start := time.Now()
		if err := s.Export(ctx, jobs); err != nil {
			f.logger.Error("export failed", "sink", s.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		f.logger.Info("exported postings",
			"sink", s.Name(),
			"postings", len(jobs),
			"duration", time.Since(start),
		)
	}
	return errors.Join(errs...)
}

// Observe adapts Export to the cache observer signature.
func (f *Fanout) Observe(ctx context.Context, jobs []domain.JobPosting) {
	_ = f.Export(ctx, jobs)
}
