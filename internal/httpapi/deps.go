package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"sync/atomic"
	"time"

	"jobfeed-engine/internal/cache"
	"jobfeed-engine/internal/config"
	"jobfeed-engine/internal/events"
	"jobfeed-engine/internal/export"
	"jobfeed-engine/internal/scrape/types"
	"jobfeed-engine/internal/scrape/util"
)

// JobLookup serves the current posting set; *cache.Coordinator implements it.
type JobLookup interface {
	Lookup(ctx context.Context) cache.Result
}

type Deps struct {
	Jobs  JobLookup
	Stats *cache.Stats

	// Saver writes a /jobs page when save=true.
	Saver export.Sink

	// Probe fetches every ref once, uncached.
	Probe func(ctx context.Context, refs []string) []types.FetchResult

	Hub *events.Hub

	// DB is nil unless a SQLite backend or exporter is configured.
	DB *sql.DB

	// Atomic stores
	CfgVal      *atomic.Value // stores config.Config
	ProbeStatus *atomic.Value // stores httpapi.ProbeStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// ClientLimiter throttles /jobs per client IP.
	ClientLimiter *util.KeyedLimiter

	Logger  *slog.Logger
	Started time.Time
}
