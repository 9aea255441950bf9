package config

import "time"

const (
	DefaultAddr         = "127.0.0.1:8080"
	DefaultDataDir      = "."
	DefaultLogLevel     = "info"
	DefaultNamespace    = "jobs"
	DefaultBackend      = "memory"
	DefaultRedisURL     = "redis://localhost:6379"
	DefaultEntryTTL     = 600 * time.Second
	DefaultLockTTL      = 30 * time.Second
	DefaultPollAttempts = 3
	DefaultPollInterval = time.Second
	DefaultFetchTimeout = 15 * time.Second
	DefaultConcurrency  = 5
	DefaultHostRPS      = 1.0
	DefaultHostBurst    = 2
	DefaultUserAgent    = "jobfeed/1.0 (+local)"
	DefaultMaxFeeds     = 10
	DefaultRateLimit    = "10/minute"
	DefaultJSONPath     = "jobs.json"
	DefaultSupabaseTbl  = "postings"
)

var DefaultFeeds = []string{
	"https://weworkremotely.com/categories/remote-programming-jobs.rss",
	"https://weworkremotely.com/categories/remote-devops-sysadmin-jobs.rss",
	"https://weworkremotely.com/categories/remote-full-stack-programming-jobs.rss",
}

var DefaultExcludeTags = []string{"Writing", "Sales / Business", "Marketing", "All others", "Education"}

// Default returns a fully defaulted Config.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.App.Addr == "" {
		cfg.App.Addr = DefaultAddr
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = DefaultDataDir
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = DefaultLogLevel
	}

	if cfg.Cache.Namespace == "" {
		cfg.Cache.Namespace = DefaultNamespace
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultBackend
	}
	if cfg.Cache.RedisURL == "" {
		cfg.Cache.RedisURL = DefaultRedisURL
	}
	if cfg.Cache.EntryTTL == 0 {
		cfg.Cache.EntryTTL = DefaultEntryTTL
	}
	if cfg.Cache.LockTTL == 0 {
		cfg.Cache.LockTTL = DefaultLockTTL
	}
	if cfg.Cache.PollAttempts == 0 {
		cfg.Cache.PollAttempts = DefaultPollAttempts
	}
	if cfg.Cache.PollInterval == 0 {
		cfg.Cache.PollInterval = DefaultPollInterval
	}

	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = DefaultFetchTimeout
	}
	if cfg.Fetch.Concurrency == 0 {
		cfg.Fetch.Concurrency = DefaultConcurrency
	}
	if cfg.Fetch.HostRPS == 0 {
		cfg.Fetch.HostRPS = DefaultHostRPS
	}
	if cfg.Fetch.HostBurst == 0 {
		cfg.Fetch.HostBurst = DefaultHostBurst
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = DefaultUserAgent
	}

	if cfg.Sources.Feeds == nil {
		cfg.Sources.Feeds = append([]string(nil), DefaultFeeds...)
	}
	if cfg.Sources.MaxFeeds == 0 {
		cfg.Sources.MaxFeeds = DefaultMaxFeeds
	}
	if cfg.Sources.ExcludeTags == nil {
		cfg.Sources.ExcludeTags = append([]string(nil), DefaultExcludeTags...)
	}

	if cfg.HTTP.RateLimit == "" {
		cfg.HTTP.RateLimit = DefaultRateLimit
	}

	if cfg.Export.JSONPath == "" {
		cfg.Export.JSONPath = DefaultJSONPath
	}
	if cfg.Export.SupabaseTable == "" {
		cfg.Export.SupabaseTable = DefaultSupabaseTbl
	}
}
