package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"jobfeed-engine/internal/cache"
	"jobfeed-engine/internal/config"
	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/events"
	"jobfeed-engine/internal/export"
	"jobfeed-engine/internal/httpapi"
	"jobfeed-engine/internal/scheduler"
	"jobfeed-engine/internal/scrape"
	"jobfeed-engine/internal/scrape/rss"
	"jobfeed-engine/internal/scrape/util"
	"jobfeed-engine/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("engine exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	defaultCfgPath := flag.String("config", filepath.Join("config", "config.yml"), "default config copied into the data dir on first run")
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Engine data dir: use env if provided, else local folder.
	dataDir := os.Getenv("JOBFEED_DATA_DIR")
	if dataDir == "" {
		dataDir = config.DefaultDataDir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	userCfgPath, err := config.EnsureUserConfig(dataDir, *defaultCfgPath)
	if err != nil {
		return fmt.Errorf("config bootstrap failed: %w", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, v, err := config.LoadAndValidate(userCfgPath)
		for _, w := range v.Warnings {
			slog.Warn("config warning", "path", userCfgPath, "warning", w)
		}
		return cfg, err
	}
	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	logger := newLogger(cfg.App.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *store.DB
	if cfg.Cache.Backend == "sqlite" || cfg.Export.SQLite {
		dbPath := filepath.Join(dataDir, "jobfeed.db")
		db, err = store.Open(ctx, dbPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", dbPath, err)
		}
		defer db.Close()
		logger.Info("sqlite opened", "path", dbPath)
	}

	cacheStore, closeStore, err := openCacheStore(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Fetch side
	hostLimiter := util.NewKeyedLimiter(rate.Limit(cfg.Fetch.HostRPS), cfg.Fetch.HostBurst)
	source := rss.New(rss.Config{UserAgent: cfg.Fetch.UserAgent}, &http.Client{}, hostLimiter)
	fetcher := scrape.NewFeedFetcher(
		source,
		scrape.NewGate(cfg.Fetch.Concurrency),
		scrape.NewMapper(cfg.Sources.ExcludeTags, logger.With("component", "mapper")),
		cfg.Fetch.Timeout,
		logger.With("component", "fetch"),
	)
	pipeline := scrape.NewPipeline(fetcher, logger.With("component", "pipeline"))

	// Feeds are read per build so PUT /config takes effect on the next miss.
	builder := cache.BuilderFunc(func(ctx context.Context) []domain.JobPosting {
		return pipeline.Aggregate(ctx, cfgVal.Load().(config.Config).ActiveFeeds())
	})

	hub := events.NewHub()
	stats := &cache.Stats{}
	opts := []cache.Option{
		cache.WithStats(stats),
		cache.WithObserver(hub.CacheRebuilt),
	}
	if sinks := buildSinks(cfg, dataDir, db, logger); sinks.Len() > 0 {
		opts = append(opts, cache.WithObserver(sinks.Observe))
	}

	coord := cache.New(cache.Config{
		Namespace:    cfg.Cache.Namespace,
		EntryTTL:     cfg.Cache.EntryTTL,
		LockTTL:      cfg.Cache.LockTTL,
		PollAttempts: cfg.Cache.PollAttempts,
		PollInterval: cfg.Cache.PollInterval,
	}, cacheStore, builder, logger.With("component", "cache"), opts...)

	if cfg.Cache.WarmInterval > 0 {
		go scheduler.Every(ctx, cfg.Cache.WarmInterval, "cache-warm", warmTask(coord, hub), logger)
	}
	if kv, ok := cacheStore.(*store.KV); ok {
		go scheduler.Every(ctx, time.Hour, "kv-purge", func(ctx context.Context) error {
			n, err := kv.Purge(ctx)
			if n > 0 {
				logger.Info("expired cache rows purged", "rows", n)
			}
			return err
		}, logger)
	}

	// HTTP side
	clientRate, clientBurst, err := config.ParseRateLimit(cfg.HTTP.RateLimit)
	if err != nil {
		return err
	}
	var probeStatus atomic.Value
	probeStatus.Store(httpapi.ProbeStatus{})

	deps := httpapi.Deps{
		Jobs:          coord,
		Stats:         stats,
		Saver:         export.NewJSONFile(dataPath(dataDir, cfg.Export.JSONPath)),
		Probe:         pipeline.FetchAll,
		Hub:           hub,
		CfgVal:        &cfgVal,
		ProbeStatus:   &probeStatus,
		UserCfgPath:   userCfgPath,
		LoadCfg:       loadCfg,
		ClientLimiter: util.NewKeyedLimiter(clientRate, clientBurst),
		Logger:        logger.With("component", "http"),
		Started:       time.Now(),
	}
	if db != nil {
		deps.DB = db.Pool
	}
	mux := httpapi.NewMux(deps)

	ln, err := net.Listen("tcp", cfg.App.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover(deps.Logger), httpapi.AccessLog(deps.Logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if token := os.Getenv("JOBFEED_SHUTDOWN_TOKEN"); token != "" {
		mux.HandleFunc("/shutdown", shutdownHandler(token, srv, logger))
	}

	logger.Info("engine listening",
		"addr", "http://"+ln.Addr().String(),
		"backend", cfg.Cache.Backend,
		"feeds", len(cfg.ActiveFeeds()),
		"config", userCfgPath,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
