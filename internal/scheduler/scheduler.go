package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task now and then on every tick until ctx is done. Runs never
// overlap; a tick that fires during a run is dropped.
func Every(ctx context.Context, interval time.Duration, name string, task Task, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("task", name)

	run := func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			log.Error("scheduled task failed", "err", err, "duration", time.Since(start))
			return
		}
		log.Debug("scheduled task done", "duration", time.Since(start))
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	// run immediately
	run()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
