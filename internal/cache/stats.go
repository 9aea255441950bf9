package cache

import "sync/atomic"

// Stats counts lookup outcomes. Safe for concurrent use.
type Stats struct {
	hits        atomic.Int64
	misses      atomic.Int64
	builds      atomic.Int64
	fallbacks   atomic.Int64
	storeErrors atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Builds      int64 `json:"builds"`
	Fallbacks   int64 `json:"fallbacks"`
	StoreErrors int64 `json:"store_errors"`
}

func (s *Stats) record(st State) {
	switch st {
	case StateHit:
		s.hits.Add(1)
	case StateLockHeldBySelf:
		s.builds.Add(1)
	case StateFallback:
		s.fallbacks.Add(1)
	}
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Builds:      s.builds.Load(),
		Fallbacks:   s.fallbacks.Load(),
		StoreErrors: s.storeErrors.Load(),
	}
}
