package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("app:\n  addr: 0.0.0.0:9000\n"), envMap(nil))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.App.Addr != "0.0.0.0:9000" {
		t.Errorf("addr = %q", cfg.App.Addr)
	}
	if cfg.Cache.EntryTTL != DefaultEntryTTL || cfg.Cache.LockTTL != DefaultLockTTL {
		t.Errorf("ttls = %v %v", cfg.Cache.EntryTTL, cfg.Cache.LockTTL)
	}
	if cfg.Cache.PollAttempts != 3 || cfg.Cache.PollInterval != time.Second {
		t.Errorf("poll = %d x %v", cfg.Cache.PollAttempts, cfg.Cache.PollInterval)
	}
	if cfg.Fetch.Timeout != 15*time.Second || cfg.Fetch.Concurrency != 5 {
		t.Errorf("fetch = %v / %d", cfg.Fetch.Timeout, cfg.Fetch.Concurrency)
	}
	if len(cfg.Sources.Feeds) != 3 || cfg.Sources.MaxFeeds != 10 {
		t.Errorf("sources = %+v", cfg.Sources)
	}
	if cfg.HTTP.RateLimit != "10/minute" || cfg.Export.JSONPath != "jobs.json" {
		t.Errorf("http/export = %q %q", cfg.HTTP.RateLimit, cfg.Export.JSONPath)
	}
}

func TestParseDurationsAndExpansion(t *testing.T) {
	yml := `
cache:
  backend: redis
  redis_url: ${REDIS_URL}
  entry_ttl: 2m
  poll_interval: 250ms
`
	cfg, err := Parse([]byte(yml), envMap(map[string]string{"REDIS_URL": "redis://cache:6379/1"}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.RedisURL != "redis://cache:6379/1" {
		t.Errorf("redis_url = %q", cfg.Cache.RedisURL)
	}
	if cfg.Cache.EntryTTL != 2*time.Minute || cfg.Cache.PollInterval != 250*time.Millisecond {
		t.Errorf("durations = %v %v", cfg.Cache.EntryTTL, cfg.Cache.PollInterval)
	}
}

func TestEnvOverrides(t *testing.T) {
	yml := "cache:\n  backend: memory\n  entry_ttl: 10m\nsources:\n  max_feeds: 4\n"
	cfg, err := Parse([]byte(yml), envMap(map[string]string{
		"ADDR":          ":7000",
		"CACHE_BACKEND": "sqlite",
		"CACHE_TTL":     "60",
		"MAX_FEEDS":     "2",
		"RATE_LIMIT":    "5/second",
		"SUPABASE_URL":  "https://x.supabase.co",
		"SUPABASE_KEY":  "k",
		"LOG_LEVEL":     "debug",
	}))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.App.Addr != ":7000" || cfg.App.LogLevel != "debug" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Cache.Backend != "sqlite" || cfg.Cache.EntryTTL != time.Minute {
		t.Errorf("cache = %s %v", cfg.Cache.Backend, cfg.Cache.EntryTTL)
	}
	if cfg.Sources.MaxFeeds != 2 || cfg.HTTP.RateLimit != "5/second" {
		t.Errorf("max_feeds = %d rate = %q", cfg.Sources.MaxFeeds, cfg.HTTP.RateLimit)
	}
	if cfg.Export.SupabaseURL == "" || cfg.Export.SupabaseKey != "k" {
		t.Errorf("export = %+v", cfg.Export)
	}
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	for _, env := range []map[string]string{
		{"CACHE_TTL": "ten"},
		{"CACHE_TTL": "-5"},
		{"MAX_FEEDS": "0"},
	} {
		if _, err := Parse(nil, envMap(env)); err == nil {
			t.Errorf("env %v: expected error", env)
		}
	}
}

func TestActiveFeedsCapped(t *testing.T) {
	cfg := Default()
	cfg.Sources.Feeds = []string{"https://a/1", "https://a/2", "https://a/3"}
	cfg.Sources.MaxFeeds = 2

	got := cfg.ActiveFeeds()
	if len(got) != 2 || got[1] != "https://a/2" {
		t.Errorf("ActiveFeeds = %v", got)
	}
	got[0] = "mutated"
	if cfg.Sources.Feeds[0] != "https://a/1" {
		t.Error("ActiveFeeds aliases the config slice")
	}
}

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		in        string
		wantLimit rate.Limit
		wantBurst int
		wantErr   bool
	}{
		{"10/minute", rate.Every(6 * time.Second), 10, false},
		{"2/second", rate.Every(500 * time.Millisecond), 2, false},
		{"60 / hour", rate.Every(time.Minute), 60, false},
		{"10", 0, 0, true},
		{"0/minute", 0, 0, true},
		{"ten/minute", 0, 0, true},
		{"10/fortnight", 0, 0, true},
	}
	for _, tt := range tests {
		l, b, err := ParseRateLimit(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if l != tt.wantLimit || b != tt.wantBurst {
			t.Errorf("%q = %v/%d, want %v/%d", tt.in, l, b, tt.wantLimit, tt.wantBurst)
		}
	}
}

func TestNormalizeAndValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantErr  string
		wantWarn string
	}{
		{"defaults are valid", func(*Config) {}, "", ""},
		{"bad backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend", ""},
		{"bad redis url", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.RedisURL = "http://x" }, "cache.redis_url", ""},
		{"namespace with colon", func(c *Config) { c.Cache.Namespace = "a:b" }, "cache.namespace", ""},
		{"relative feed", func(c *Config) { c.Sources.Feeds = []string{"/feed.rss"} }, "sources.feeds[0]", ""},
		{"bad rate limit", func(c *Config) { c.HTTP.RateLimit = "lots" }, "http.rate_limit", ""},
		{"bad log level", func(c *Config) { c.App.LogLevel = "loud" }, "app.log_level", ""},
		{"zero concurrency", func(c *Config) { c.Fetch.Concurrency = 0 }, "fetch.concurrency", ""},
		{"no feeds", func(c *Config) { c.Sources.Feeds = nil }, "", "sources.feeds is empty"},
		{"too many feeds", func(c *Config) { c.Sources.MaxFeeds = 1 }, "", "only the first 1"},
		{"half supabase", func(c *Config) { c.Export.SupabaseURL = "https://x" }, "", "supabase"},
		{"poll budget over lock ttl", func(c *Config) { c.Cache.PollAttempts = 60 }, "", "polling budget"},
		{"warm slower than ttl", func(c *Config) { c.Cache.WarmInterval = time.Hour }, "", "warm_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			_, v := NormalizeAndValidate(cfg)

			errs := strings.Join(v.Errors, "\n")
			warns := strings.Join(v.Warnings, "\n")
			if tt.wantErr == "" && !v.OK() {
				t.Errorf("unexpected errors: %s", errs)
			}
			if tt.wantErr != "" && !strings.Contains(errs, tt.wantErr) {
				t.Errorf("errors %q do not mention %q", errs, tt.wantErr)
			}
			if tt.wantWarn != "" && !strings.Contains(warns, tt.wantWarn) {
				t.Errorf("warnings %q do not mention %q", warns, tt.wantWarn)
			}
		})
	}
}

func TestNormalizeTrimsLists(t *testing.T) {
	cfg := Default()
	cfg.Sources.Feeds = []string{" https://a/1 ", "https://a/1", "", "https://a/2"}
	cfg.Cache.Backend = " Redis "

	out, _ := NormalizeAndValidate(cfg)
	if len(out.Sources.Feeds) != 2 || out.Sources.Feeds[0] != "https://a/1" {
		t.Errorf("feeds = %v", out.Sources.Feeds)
	}
	if out.Cache.Backend != "redis" {
		t.Errorf("backend = %q", out.Cache.Backend)
	}
}

func TestSaveAtomicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg := Default()
	cfg.Cache.EntryTTL = 5 * time.Minute

	if err := SaveAtomic(path, cfg); err != nil {
		t.Fatalf("first save: %v", err)
	}
	cfg.Sources.MaxFeeds = 3
	if err := SaveAtomic(path, cfg); err != nil {
		t.Fatalf("second save: %v", err)
	}

	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Errorf("backup missing: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Cache.EntryTTL != 5*time.Minute || back.Sources.MaxFeeds != 3 {
		t.Errorf("reloaded = ttl %v max %d", back.Cache.EntryTTL, back.Sources.MaxFeeds)
	}
}

func TestSaveAtomicRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := Default()
	cfg.Cache.Backend = "nope"
	if err := SaveAtomic(path, cfg); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid config was written")
	}
}

func TestEnsureUserConfig(t *testing.T) {
	dataDir := t.TempDir()

	// No default file: written from Default().
	path, err := EnsureUserConfig(dataDir, filepath.Join(dataDir, "missing.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadAndValidate(path); err != nil {
		t.Errorf("generated config invalid: %v", err)
	}

	// Existing file is left alone.
	if err := os.WriteFile(path, []byte("app:\n  addr: ':1'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureUserConfig(dataDir, ""); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "':1'") {
		t.Errorf("existing config overwritten: %s", b)
	}

	// Copied from a default file.
	other := t.TempDir()
	src := writeTempFile(t, "app:\n  addr: ':2'\n")
	path, err = EnsureUserConfig(other, src)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil || cfg.App.Addr != ":2" {
		t.Errorf("copied config = %+v, %v", cfg.App, err)
	}
}

func TestShippedConfigIsValid(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	_, v, err := LoadAndValidate(filepath.Join("..", "..", "config", "config.yml"))
	if err != nil {
		t.Fatalf("shipped config: %v", err)
	}
	if len(v.Warnings) != 0 {
		t.Errorf("shipped config warnings: %v", v.Warnings)
	}
}
