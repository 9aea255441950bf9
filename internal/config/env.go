package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overrides cfg from the environment. Unset variables leave the
// file's value alone.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}

	str("ADDR", &cfg.App.Addr)
	str("JOBFEED_DATA_DIR", &cfg.App.DataDir)
	str("LOG_LEVEL", &cfg.App.LogLevel)
	str("CACHE_BACKEND", &cfg.Cache.Backend)
	str("REDIS_URL", &cfg.Cache.RedisURL)
	str("RATE_LIMIT", &cfg.HTTP.RateLimit)
	str("SUPABASE_URL", &cfg.Export.SupabaseURL)
	str("SUPABASE_KEY", &cfg.Export.SupabaseKey)

	if v := strings.TrimSpace(getenv("CACHE_TTL")); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("CACHE_TTL must be a positive number of seconds, got %q", v)
		}
		cfg.Cache.EntryTTL = time.Duration(secs) * time.Second
	}
	if v := strings.TrimSpace(getenv("MAX_FEEDS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("MAX_FEEDS must be a positive integer, got %q", v)
		}
		cfg.Sources.MaxFeeds = n
	}
	return nil
}
