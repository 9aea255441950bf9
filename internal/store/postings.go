package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jobfeed-engine/internal/domain"
)

// PostingInsert is one posting keyed by its identity digest.
type PostingInsert struct {
	Digest  string
	Posting domain.JobPosting
}

// InsertPostings stores every posting whose digest is new and returns how many
// were added. Existing rows are left untouched, so first_seen is stable.
func InsertPostings(ctx context.Context, db *sql.DB, rows []PostingInsert) (added int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO postings (digest, source, title, company, tag, url, location, published_at, skills, first_seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	seen := time.Now().UTC().Format(time.RFC3339)
	for _, r := range rows {
		j := r.Posting
		skills, _ := json.Marshal(j.Skills)

		var published any
		if j.PublishedAt != nil {
			published = j.PublishedAt.UTC().Format(time.RFC3339)
		}

		res, err := stmt.ExecContext(ctx,
			r.Digest, j.Source, j.Title, nullable(j.Company), nullable(j.Tag), j.URL,
			nullable(j.Location), published, string(skills), seen,
		)
		if err != nil {
			return added, fmt.Errorf("insert posting %s: %w", j.URL, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// ListPostings returns stored postings, newest first.
func ListPostings(ctx context.Context, db *sql.DB, limit int) ([]domain.JobPosting, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := db.QueryContext(ctx, `
SELECT source, title, company, tag, url, location, published_at, skills
FROM postings
ORDER BY first_seen DESC, rowid DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.JobPosting{}
	for rows.Next() {
		var (
			j                         domain.JobPosting
			company, tag, loc, pubStr sql.NullString
			skillsJSON                string
		)
		if err := rows.Scan(&j.Source, &j.Title, &company, &tag, &j.URL, &loc, &pubStr, &skillsJSON); err != nil {
			return nil, err
		}
		j.Company = fromNull(company)
		j.Tag = fromNull(tag)
		j.Location = fromNull(loc)
		if pubStr.Valid {
			if t, err := time.Parse(time.RFC3339, pubStr.String); err == nil {
				j.PublishedAt = &t
			}
		}
		_ = json.Unmarshal([]byte(skillsJSON), &j.Skills)
		if j.Skills == nil {
			j.Skills = []string{}
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// CleanupOldPostings deletes postings first seen before cutoff.
func CleanupOldPostings(ctx context.Context, db *sql.DB, cutoff time.Time) (deleted int64, err error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM postings WHERE first_seen < ?;`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("cleanup old postings: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
