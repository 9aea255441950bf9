package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jobfeed-engine/internal/cache"
	"jobfeed-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "jobfeed.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := Migrate(ctx, db.Pool); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var v int
	if err := db.Pool.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		t.Fatal(err)
	}
	if v != schemaVersion {
		t.Errorf("user_version = %d, want %d", v, schemaVersion)
	}
}

func TestKVGetSetExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kv := NewKV(openTestDB(t).Pool).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if _, found, err := kv.Get(ctx, "jobs:all"); err != nil || found {
		t.Fatalf("empty Get = %v %v", found, err)
	}

	if err := kv.Set(ctx, "jobs:all", []byte(`[]`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(ctx, "jobs:all", []byte(`[1]`), time.Minute); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, found, err := kv.Get(ctx, "jobs:all")
	if err != nil || !found || string(v) != "[1]" {
		t.Fatalf("Get = %q %v %v", v, found, err)
	}

	now = now.Add(time.Minute)
	if _, found, _ := kv.Get(ctx, "jobs:all"); found {
		t.Error("entry visible at its expiry")
	}

	n, err := kv.Purge(ctx)
	if err != nil || n != 1 {
		t.Errorf("Purge = %d %v, want 1", n, err)
	}
}

func TestKVSetNX(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kv := NewKV(openTestDB(t).Pool).WithClock(func() time.Time { return now })
	ctx := context.Background()

	tests := []struct {
		name    string
		advance time.Duration
		val     string
		want    bool
	}{
		{"first acquire", 0, "a", true},
		{"held", 10 * time.Second, "b", false},
		{"expired", 21 * time.Second, "c", true},
		{"held again", 0, "d", false},
	}
	for _, tt := range tests {
		now = now.Add(tt.advance)
		got, err := kv.SetNX(ctx, "jobs:lock", []byte(tt.val), 30*time.Second)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: SetNX = %v, want %v", tt.name, got, tt.want)
		}
	}

	v, _, _ := kv.Get(ctx, "jobs:lock")
	if string(v) != "c" {
		t.Errorf("lock holder = %q, want c", v)
	}
}

func TestKVSetNXConcurrent(t *testing.T) {
	kv := NewKV(openTestDB(t).Pool)
	var (
		wg  sync.WaitGroup
		won atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := kv.SetNX(context.Background(), "jobs:lock", []byte("x"), time.Minute)
			if err != nil {
				t.Errorf("SetNX: %v", err)
			}
			if ok {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	if won.Load() != 1 {
		t.Errorf("winners = %d, want 1", won.Load())
	}
}

func TestKVClosedDBIsUnavailable(t *testing.T) {
	db := openTestDB(t)
	kv := NewKV(db.Pool)
	_ = db.Close()

	if _, _, err := kv.Get(context.Background(), "k"); !errors.Is(err, cache.ErrCacheUnavailable) {
		t.Errorf("err = %v, want ErrCacheUnavailable", err)
	}
}

func TestCoordinatorOverKV(t *testing.T) {
	kv := NewKV(openTestDB(t).Pool)
	var builds atomic.Int32
	builder := cache.BuilderFunc(func(context.Context) []domain.JobPosting {
		builds.Add(1)
		return []domain.JobPosting{{Source: "s", Title: "t", URL: "https://e.com/1", Skills: []string{}}}
	})
	c := cache.New(cache.DefaultConfig(), kv, builder, nil)

	ctx := context.Background()
	if res := c.Lookup(ctx); res.State != cache.StateLockHeldBySelf {
		t.Fatalf("state = %s", res.State)
	}
	if res := c.Lookup(ctx); res.State != cache.StateHit || len(res.Jobs) != 1 {
		t.Fatalf("state = %s jobs = %d", res.State, len(res.Jobs))
	}
	if builds.Load() != 1 {
		t.Errorf("builds = %d, want 1", builds.Load())
	}
}

func TestInsertPostingsIgnoresKnownDigests(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	pub := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := []PostingInsert{
		{Digest: "d1", Posting: domain.JobPosting{Source: "s", Title: "Go Dev", Company: domain.Opt("Acme"), URL: "https://e.com/1", PublishedAt: &pub, Skills: []string{"go"}}},
		{Digest: "d2", Posting: domain.JobPosting{Source: "s", Title: "Ops", URL: "https://e.com/2", Skills: []string{}}},
	}
	added, err := InsertPostings(ctx, db.Pool, first)
	if err != nil || added != 2 {
		t.Fatalf("first insert = %d %v, want 2", added, err)
	}

	again := append(first, PostingInsert{Digest: "d3", Posting: domain.JobPosting{Source: "s", Title: "QA", URL: "https://e.com/3"}})
	added, err = InsertPostings(ctx, db.Pool, again)
	if err != nil || added != 1 {
		t.Fatalf("second insert = %d %v, want 1", added, err)
	}

	got, err := ListPostings(ctx, db.Pool, 0)
	if err != nil {
		t.Fatalf("ListPostings: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("stored = %d, want 3", len(got))
	}

	var goDev *domain.JobPosting
	for i := range got {
		if got[i].Title == "Go Dev" {
			goDev = &got[i]
		}
	}
	if goDev == nil {
		t.Fatal("Go Dev not stored")
	}
	if goDev.CompanyName() != "Acme" || goDev.Tag != nil {
		t.Errorf("company/tag = %v/%v", goDev.CompanyName(), goDev.Tag)
	}
	if goDev.PublishedAt == nil || !goDev.PublishedAt.Equal(pub) {
		t.Errorf("published = %v", goDev.PublishedAt)
	}
	if len(goDev.Skills) != 1 || goDev.Skills[0] != "go" {
		t.Errorf("skills = %v", goDev.Skills)
	}
}

func TestCleanupOldPostings(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, _ = InsertPostings(ctx, db.Pool, []PostingInsert{
		{Digest: "d1", Posting: domain.JobPosting{Source: "s", Title: "a", URL: "https://e.com/1"}},
	})

	n, err := CleanupOldPostings(ctx, db.Pool, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Errorf("cleanup with old cutoff = %d %v, want 0", n, err)
	}
	n, err = CleanupOldPostings(ctx, db.Pool, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Errorf("cleanup with future cutoff = %d %v, want 1", n, err)
	}
}
