// Package config loads the engine's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Addr     string `yaml:"addr"`
		DataDir  string `yaml:"data_dir"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Cache struct {
		Namespace           string        `yaml:"namespace"`
		Backend             string        `yaml:"backend"` // memory | redis | sqlite
		RedisURL            string        `yaml:"redis_url"`
		RedisKeyringAccount string        `yaml:"redis_keyring_account"`
		EntryTTL            time.Duration `yaml:"entry_ttl"`
		LockTTL             time.Duration `yaml:"lock_ttl"`
		PollAttempts        int           `yaml:"poll_attempts"`
		PollInterval        time.Duration `yaml:"poll_interval"`
		WarmInterval        time.Duration `yaml:"warm_interval"` // 0 disables the warmer
	} `yaml:"cache"`

	Fetch struct {
		Timeout     time.Duration `yaml:"timeout"`
		Concurrency int           `yaml:"concurrency"`
		HostRPS     float64       `yaml:"host_rps"`
		HostBurst   int           `yaml:"host_burst"`
		UserAgent   string        `yaml:"user_agent"`
	} `yaml:"fetch"`

	Sources struct {
		Feeds       []string `yaml:"feeds"`
		MaxFeeds    int      `yaml:"max_feeds"`
		ExcludeTags []string `yaml:"exclude_tags"`
	} `yaml:"sources"`

	HTTP struct {
		RateLimit string `yaml:"rate_limit"` // "<n>/<second|minute|hour>"
	} `yaml:"http"`

	Export struct {
		JSONPath      string `yaml:"json_path"`
		SQLite        bool   `yaml:"sqlite"`
		SupabaseURL   string `yaml:"supabase_url"`
		SupabaseKey   string `yaml:"supabase_key"`
		SupabaseTable string `yaml:"supabase_table"`
	} `yaml:"export"`
}

// Load reads path, expands ${VAR} references, applies environment overrides
// and fills defaults.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, os.Getenv)
}

// Parse is Load without the file; getenv supplies overrides.
func Parse(b []byte, getenv func(string) string) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.Expand(string(b), getenv)), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := ApplyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// LoadAndValidate loads and normalizes path and fails on validation errors.
func LoadAndValidate(path string) (Config, Validation, error) {
	cfg, err := Load(path)
	if err != nil {
		return Config{}, Validation{}, err
	}
	cfg, v := NormalizeAndValidate(cfg)
	if !v.OK() {
		return cfg, v, v.Err()
	}
	return cfg, v, nil
}

// ActiveFeeds is the configured feed list capped at max_feeds.
func (c Config) ActiveFeeds() []string {
	feeds := c.Sources.Feeds
	if c.Sources.MaxFeeds > 0 && len(feeds) > c.Sources.MaxFeeds {
		feeds = feeds[:c.Sources.MaxFeeds]
	}
	return append([]string(nil), feeds...)
}
