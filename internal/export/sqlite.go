package export

import (
	"context"
	"database/sql"
	"log/slog"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/scrape"
	"jobfeed-engine/internal/store"
)

// SQLite appends postings not seen before to the postings table.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLite(db *sql.DB, logger *slog.Logger) *SQLite {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLite{db: db, logger: logger}
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Export(ctx context.Context, jobs []domain.JobPosting) error {
	rows := make([]store.PostingInsert, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, store.PostingInsert{Digest: scrape.IdentityDigest(j), Posting: j})
	}
	added, err := store.InsertPostings(ctx, s.db, rows)
	if err != nil {
		return err
	}
	s.logger.Debug("postings archived", "added", added, "seen", len(jobs)-added)
	return nil
}
