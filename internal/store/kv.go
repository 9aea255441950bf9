package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobfeed-engine/internal/cache"
)

// KV is a cache.Store on the kv table, so several processes sharing one
// database file share one cache and one build lock.
type KV struct {
	db  *sql.DB
	now func() time.Time
}

var _ cache.Store = (*KV)(nil)

func NewKV(db *sql.DB) *KV {
	return &KV{db: db, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (k *KV) WithClock(now func() time.Time) *KV {
	k.now = now
	return k
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		val     []byte
		expires int64
	)
	err := k.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ?;`, key,
	).Scan(&val, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: sqlite get %s: %v", cache.ErrCacheUnavailable, key, err)
	}
	if k.now().UnixMilli() >= expires {
		return nil, false, nil
	}
	return val, true, nil
}

func (k *KV) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_, err := k.db.ExecContext(ctx, `
INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at;`,
		key, val, k.expiry(ttl),
	)
	if err != nil {
		return fmt.Errorf("%w: sqlite set %s: %v", cache.ErrCacheUnavailable, key, err)
	}
	return nil
}

// SetNX drops an expired row for key and inserts val unless a live row
// remains, in one transaction.
func (k *KV) SetNX(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error) {
	wrap := func(err error) error {
		return fmt.Errorf("%w: sqlite setnx %s: %v", cache.ErrCacheUnavailable, key, err)
	}

	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return false, wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM kv WHERE key = ? AND expires_at <= ?;`, key, k.now().UnixMilli(),
	); err != nil {
		return false, wrap(err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO kv (key, value, expires_at) VALUES (?, ?, ?);`,
		key, val, k.expiry(ttl),
	)
	if err != nil {
		return false, wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return false, wrap(err)
	}
	return n == 1, nil
}

// Purge deletes expired rows and reports how many went.
func (k *KV) Purge(ctx context.Context) (int64, error) {
	res, err := k.db.ExecContext(ctx, `DELETE FROM kv WHERE expires_at <= ?;`, k.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge kv: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (k *KV) expiry(ttl time.Duration) int64 {
	return k.now().Add(ttl).UnixMilli()
}
