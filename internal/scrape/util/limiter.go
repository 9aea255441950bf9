package util

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultLimiterIdle is how long a key may go unused before its bucket is
// dropped. Buckets that take longer than this to refill are kept until full.
const DefaultLimiterIdle = 10 * time.Minute

// KeyedLimiter keeps one token bucket per key: upstream hostnames for feed
// fetches, client addresses for the HTTP surface. Idle keys are swept on
// access, so the map stays bounded by the number of recently active keys.
type KeyedLimiter struct {
	mu        sync.Mutex
	m         map[string]*keyedEntry
	r         rate.Limit
	b         int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type keyedEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewKeyedLimiter(r rate.Limit, burst int) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	kl := &KeyedLimiter{
		m:   make(map[string]*keyedEntry),
		r:   r,
		b:   burst,
		now: time.Now,
	}
	kl.idle = kl.evictAfter(DefaultLimiterIdle)
	return kl
}

// evictAfter returns the idle period after which a bucket is full again and
// can be forgotten. Zero disables eviction.
func (kl *KeyedLimiter) evictAfter(d time.Duration) time.Duration {
	if kl.r <= 0 || d <= 0 {
		return 0
	}
	if kl.r != rate.Inf {
		if refill := time.Duration(float64(kl.b) / float64(kl.r) * float64(time.Second)); refill > d {
			return refill
		}
	}
	return d
}

// WithIdle sets the idle period; zero keeps every key forever.
func (kl *KeyedLimiter) WithIdle(d time.Duration) *KeyedLimiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	kl.idle = kl.evictAfter(d)
	return kl
}

// WithClock replaces time.Now for idle bookkeeping.
func (kl *KeyedLimiter) WithClock(now func() time.Time) *KeyedLimiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	kl.now = now
	return kl
}

// Len reports how many keys currently hold a bucket.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.m)
}

func (kl *KeyedLimiter) limiterFor(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	if kl.idle > 0 && now.Sub(kl.lastSweep) >= kl.idle {
		for k, e := range kl.m {
			if now.Sub(e.seen) >= kl.idle {
				delete(kl.m, k)
			}
		}
		kl.lastSweep = now
	}

	if e, ok := kl.m[key]; ok {
		e.seen = now
		return e.lim
	}
	e := &keyedEntry{lim: rate.NewLimiter(kl.r, kl.b), seen: now}
	kl.m[key] = e
	return e.lim
}

// Allow reports whether an event for key may happen now.
func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.limiterFor(key).Allow()
}

// WaitURL blocks until the host of raw may be contacted again.
func (kl *KeyedLimiter) WaitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return kl.limiterFor("_").Wait(ctx)
	}
	return kl.limiterFor(u.Host).Wait(ctx)
}
