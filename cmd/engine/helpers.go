package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jobfeed-engine/internal/cache"
	"jobfeed-engine/internal/config"
	"jobfeed-engine/internal/events"
	"jobfeed-engine/internal/export"
	"jobfeed-engine/internal/secrets"
	"jobfeed-engine/internal/store"
)

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openCacheStore returns the configured backing store and its closer.
func openCacheStore(ctx context.Context, cfg config.Config, db *store.DB, logger *slog.Logger) (cache.Store, func(), error) {
	noop := func() {}

	switch cfg.Cache.Backend {
	case "redis":
		pw, err := secrets.RedisPassword(cfg.Cache.RedisKeyringAccount, os.Getenv)
		if err != nil && !errors.Is(err, secrets.ErrNotFound) {
			return nil, noop, err
		}
		rs, err := cache.OpenRedis(ctx, cfg.Cache.RedisURL, pw)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("cache backend ready", "backend", "redis", "password_set", pw != "")
		return rs, func() { _ = rs.Close() }, nil

	case "sqlite":
		if db == nil {
			return nil, noop, fmt.Errorf("sqlite cache backend needs an open database")
		}
		logger.Info("cache backend ready", "backend", "sqlite")
		return store.NewKV(db.Pool), noop, nil

	default:
		logger.Info("cache backend ready", "backend", "memory")
		return cache.NewMemoryStore(), noop, nil
	}
}

// buildSinks returns the exporters that run after every cache rebuild.
func buildSinks(cfg config.Config, dataDir string, db *store.DB, logger *slog.Logger) *export.Fanout {
	log := logger.With("component", "export")
	var sinks []export.Sink

	if cfg.Export.SQLite && db != nil {
		sinks = append(sinks, export.NewSQLite(db.Pool, log))
	}
	if cfg.Export.SupabaseURL != "" && cfg.Export.SupabaseKey != "" {
		sb, err := export.NewSupabase(cfg.Export.SupabaseURL, cfg.Export.SupabaseKey, cfg.Export.SupabaseTable)
		if err != nil {
			log.Warn("supabase export disabled", "err", err)
		} else {
			sinks = append(sinks, sb)
		}
	}
	return export.NewFanout(log, sinks...)
}

// warmTask rebuilds the cache ahead of callers. A warm that ends in fallback
// means another process holds the lock without writing.
func warmTask(coord *cache.Coordinator, hub *events.Hub) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		res := coord.Lookup(ctx)
		if res.State == cache.StateFallback {
			hub.Publish(events.MakeEvent("", events.TypeWarmFailed, 1, map[string]any{"state": res.State}))
			return fmt.Errorf("cache warm ended in %s after %s", res.State, res.Duration)
		}
		return nil
	}
}

func dataPath(dataDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dataDir, p)
}

func shutdownHandler(token string, srv *http.Server, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Local-only guard (covers typical desktop usage)
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RemoteAddr can sometimes be just a host; fall back safely
			host = r.RemoteAddr
		}
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Respond immediately, then shutdown asynchronously
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))

		go func() {
			logger.Info("shutdown requested", "remote", host)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}
}
