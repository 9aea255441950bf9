package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"jobfeed-engine/internal/domain"
)

// Default values for Config fields left zero.
const (
	DefaultNamespace    = "jobs"
	DefaultEntryTTL     = 600 * time.Second
	DefaultLockTTL      = 30 * time.Second
	DefaultPollAttempts = 3
	DefaultPollInterval = 1 * time.Second
)

type Config struct {
	Namespace    string        // keys are <ns>:all and <ns>:lock
	EntryTTL     time.Duration // lifetime of the cached posting set
	LockTTL      time.Duration // bounds a crashed or hung builder
	PollAttempts int           // reads while another caller builds
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Namespace:    DefaultNamespace,
		EntryTTL:     DefaultEntryTTL,
		LockTTL:      DefaultLockTTL,
		PollAttempts: DefaultPollAttempts,
		PollInterval: DefaultPollInterval,
	}
}

func (c *Config) applyDefaults() {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.EntryTTL <= 0 {
		c.EntryTTL = DefaultEntryTTL
	}
	if c.LockTTL <= 0 {
		c.LockTTL = DefaultLockTTL
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = DefaultPollAttempts
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
}

func (c Config) EntryKey() string { return c.Namespace + ":all" }
func (c Config) LockKey() string  { return c.Namespace + ":lock" }

// State is where a lookup ended up (or passed through).
type State string

const (
	StateMiss            State = "MISS"
	StateLockHeldBySelf  State = "LOCK_HELD_BY_SELF"
	StateLockHeldByOther State = "LOCK_HELD_BY_OTHER"
	StateHit             State = "HIT"
	StateFallback        State = "FALLBACK"
)

// Builder produces a fresh posting set. It must not fail; an empty set is a
// valid result.
type Builder interface {
	Build(ctx context.Context) []domain.JobPosting
}

// BuilderFunc is a function adapter for Builder.
type BuilderFunc func(ctx context.Context) []domain.JobPosting

func (f BuilderFunc) Build(ctx context.Context) []domain.JobPosting {
	return f(ctx)
}

// Observer is told about every posting set this process built and stored.
type Observer func(ctx context.Context, jobs []domain.JobPosting)

// Result is the outcome of one Lookup. State is the terminal state: HIT,
// LOCK_HELD_BY_SELF or FALLBACK.
type Result struct {
	Jobs     []domain.JobPosting
	State    State
	Token    string // lock token when State is LOCK_HELD_BY_SELF
	Duration time.Duration
}

// Coordinator serves the posting set from the store and makes sure that, per
// namespace, a single caller rebuilds it on a miss while the others wait a
// bounded time and then build it themselves without writing.
//
// The build lock is never released: its TTL bounds a stalled builder and the
// written entry makes later callers hit. A builder slower than the polling
// budget can therefore be joined by fallback builders.
type Coordinator struct {
	cfg       Config
	store     Store
	builder   Builder
	logger    *slog.Logger
	stats     *Stats
	observers []Observer
	newToken  func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver registers fn to run, in its own goroutine, after each rebuild.
func WithObserver(fn Observer) Option {
	return func(c *Coordinator) {
		c.observers = append(c.observers, fn)
	}
}

func WithStats(s *Stats) Option {
	return func(c *Coordinator) {
		c.stats = s
	}
}

func New(cfg Config, store Store, builder Builder, logger *slog.Logger, opts ...Option) *Coordinator {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		cfg:      cfg,
		store:    store,
		builder:  builder,
		logger:   logger.With("namespace", cfg.Namespace),
		stats:    &Stats{},
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Config() Config { return c.cfg }
func (c *Coordinator) Stats() *Stats  { return c.stats }

// Jobs returns the current posting set. It never fails and never returns nil.
func (c *Coordinator) Jobs(ctx context.Context) []domain.JobPosting {
	return c.Lookup(ctx).Jobs
}

// Lookup runs the get-or-build protocol and reports the terminal state.
func (c *Coordinator) Lookup(ctx context.Context) Result {
	start := time.Now()
	res := c.lookup(ctx)
	res.Duration = time.Since(start)
	if res.Jobs == nil {
		res.Jobs = []domain.JobPosting{}
	}
	c.stats.record(res.State)
	return res
}

func (c *Coordinator) lookup(ctx context.Context) Result {
	if jobs, ok, _ := c.read(ctx); ok {
		return Result{Jobs: jobs, State: StateHit}
	}
	c.stats.misses.Add(1)
	c.logger.Debug("cache lookup", "state", StateMiss)

	token := c.newToken()
	acquired, err := c.store.SetNX(ctx, c.cfg.LockKey(), []byte(token), c.cfg.LockTTL)
	if err != nil {
		c.logger.Warn("build lock unavailable, treating as held", "err", err)
		acquired = false
	}

	if acquired {
		return c.buildAndStore(ctx, token)
	}

	c.logger.Debug("cache lookup", "state", StateLockHeldByOther)
	if jobs, ok := c.poll(ctx); ok {
		return Result{Jobs: jobs, State: StateHit}
	}

	c.logger.Warn("cache not populated in time, building without cache",
		"state", StateFallback,
		"attempts", c.cfg.PollAttempts,
		"interval", c.cfg.PollInterval,
	)
	return Result{Jobs: c.builder.Build(ctx), State: StateFallback}
}

func (c *Coordinator) buildAndStore(ctx context.Context, token string) Result {
	log := c.logger.With("state", StateLockHeldBySelf, "token", token)
	log.Info("rebuilding posting cache")

	jobs := c.builder.Build(ctx)
	if jobs == nil {
		jobs = []domain.JobPosting{}
	}

	payload, err := json.Marshal(jobs)
	if err != nil {
		log.Error("encode posting set", "err", err)
	} else if err := c.store.Set(ctx, c.cfg.EntryKey(), payload, c.cfg.EntryTTL); err != nil {
		log.Warn("cache write failed", "err", err)
	} else {
		log.Info("posting cache stored", "postings", len(jobs), "ttl", c.cfg.EntryTTL)
		c.notify(ctx, jobs)
	}

	return Result{Jobs: jobs, State: StateLockHeldBySelf, Token: token}
}

func (c *Coordinator) notify(ctx context.Context, jobs []domain.JobPosting) {
	if len(c.observers) == 0 {
		return
	}
	octx := context.WithoutCancel(ctx)
	for _, fn := range c.observers {
		go fn(octx, jobs)
	}
}

// poll re-reads the entry while another caller builds. A read error ends
// polling early.
func (c *Coordinator) poll(ctx context.Context) ([]domain.JobPosting, bool) {
	for attempt := 1; attempt <= c.cfg.PollAttempts; attempt++ {
		t := time.NewTimer(c.cfg.PollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, false
		case <-t.C:
		}

		jobs, ok, err := c.read(ctx)
		if err != nil {
			return nil, false
		}
		if ok {
			c.logger.Debug("cache populated while waiting", "attempt", attempt)
			return jobs, true
		}
	}
	return nil, false
}

// read treats store failures and undecodable payloads as a miss; err is only
// set for store failures.
func (c *Coordinator) read(ctx context.Context) ([]domain.JobPosting, bool, error) {
	b, found, err := c.store.Get(ctx, c.cfg.EntryKey())
	if err != nil {
		c.stats.storeErrors.Add(1)
		c.logger.Warn("cache read failed", "err", err)
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	var jobs []domain.JobPosting
	if err := json.Unmarshal(b, &jobs); err != nil {
		c.logger.Warn("cached posting set is corrupt, ignoring", "err", err, "bytes", len(b))
		return nil, false, nil
	}
	return jobs, true, nil
}
