package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong
// with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		ys := []string{}
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Sources.Feeds = trimList(out.Sources.Feeds)
	out.Sources.ExcludeTags = trimList(out.Sources.ExcludeTags)
	out.Cache.Backend = strings.ToLower(strings.TrimSpace(out.Cache.Backend))
	out.App.LogLevel = strings.ToLower(strings.TrimSpace(out.App.LogLevel))

	// ---- Validation rules ----

	if strings.TrimSpace(out.App.Addr) == "" {
		res.addErr("app.addr is required")
	}
	switch out.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		res.addErr("app.log_level must be debug, info, warn or error (got %q)", out.App.LogLevel)
	}

	// cache sanity
	switch out.Cache.Backend {
	case "memory":
	case "redis":
		if _, err := url.Parse(out.Cache.RedisURL); err != nil || !strings.HasPrefix(out.Cache.RedisURL, "redis") {
			res.addErr("cache.redis_url must be a redis:// or rediss:// url (got %q)", out.Cache.RedisURL)
		}
	case "sqlite":
	default:
		res.addErr("cache.backend must be memory, redis or sqlite (got %q)", out.Cache.Backend)
	}
	if strings.ContainsAny(out.Cache.Namespace, " :") || out.Cache.Namespace == "" {
		res.addErr("cache.namespace must be non-empty without spaces or colons")
	}
	if out.Cache.EntryTTL <= 0 {
		res.addErr("cache.entry_ttl must be > 0")
	}
	if out.Cache.LockTTL <= 0 {
		res.addErr("cache.lock_ttl must be > 0")
	}
	if out.Cache.PollAttempts < 1 {
		res.addErr("cache.poll_attempts must be >= 1")
	}
	if out.Cache.PollInterval <= 0 {
		res.addErr("cache.poll_interval must be > 0")
	}
	if budget := out.Cache.PollInterval * time.Duration(out.Cache.PollAttempts); budget > out.Cache.LockTTL {
		res.addWarn("polling budget %s exceeds cache.lock_ttl %s; waiters will outlive a stalled lock.", budget, out.Cache.LockTTL)
	}
	if out.Cache.WarmInterval < 0 {
		res.addErr("cache.warm_interval must be >= 0")
	} else if out.Cache.WarmInterval > 0 && out.Cache.WarmInterval >= out.Cache.EntryTTL {
		res.addWarn("cache.warm_interval (%s) is not shorter than cache.entry_ttl (%s); the cache will go cold between warms.", out.Cache.WarmInterval, out.Cache.EntryTTL)
	}

	// fetch sanity
	if out.Fetch.Timeout <= 0 {
		res.addErr("fetch.timeout must be > 0")
	}
	if out.Fetch.Concurrency < 1 {
		res.addErr("fetch.concurrency must be >= 1")
	}
	if out.Fetch.HostRPS <= 0 {
		res.addErr("fetch.host_rps must be > 0")
	}
	if out.Fetch.HostBurst < 1 {
		res.addErr("fetch.host_burst must be >= 1")
	}

	// sources
	if len(out.Sources.Feeds) == 0 {
		res.addWarn("sources.feeds is empty; every lookup will return no postings.")
	}
	for i, f := range out.Sources.Feeds {
		u, err := url.Parse(f)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			res.addErr("sources.feeds[%d] is not an absolute http(s) url: %q", i, f)
		}
	}
	if out.Sources.MaxFeeds < 1 {
		res.addErr("sources.max_feeds must be >= 1")
	} else if len(out.Sources.Feeds) > out.Sources.MaxFeeds {
		res.addWarn("sources.feeds has %d entries; only the first %d are fetched.", len(out.Sources.Feeds), out.Sources.MaxFeeds)
	}

	if _, _, err := ParseRateLimit(out.HTTP.RateLimit); err != nil {
		res.addErr("http.rate_limit: %v", err)
	}

	// export
	if (out.Export.SupabaseURL == "") != (out.Export.SupabaseKey == "") {
		res.addWarn("export.supabase_url and export.supabase_key must both be set; supabase export is disabled.")
	}

	return out, res
}
