package store

import (
	"context"
	"database/sql"
)

const schemaVersion = 1

// Migrate brings db to the current schema, tracked in PRAGMA user_version.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value BLOB NOT NULL,
  expires_at INTEGER NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS postings (
  digest TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  title TEXT NOT NULL,
  company TEXT,
  tag TEXT,
  url TEXT NOT NULL,
  location TEXT,
  published_at TEXT,
  skills TEXT NOT NULL DEFAULT '[]',
  first_seen TEXT NOT NULL
);`,
		`
CREATE INDEX IF NOT EXISTS idx_postings_first_seen
ON postings(first_seen);`,
		`
CREATE INDEX IF NOT EXISTS idx_kv_expires_at
ON kv(expires_at);`,
		`PRAGMA user_version = 1;`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}

	return tx.Commit()
}
