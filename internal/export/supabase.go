package export

import (
	"context"
	"errors"
	"time"

	supabase "github.com/nedpals/supabase-go"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/scrape"
)

var ErrSupabaseConfig = errors.New("supabase url and key are required")

// supabaseRow is the column layout of the remote postings table.
type supabaseRow struct {
	Digest      string     `json:"digest"`
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Company     *string    `json:"company"`
	Tag         *string    `json:"tag"`
	URL         string     `json:"url"`
	Location    *string    `json:"location"`
	PublishedAt *time.Time `json:"published_at"`
	Skills      []string   `json:"skills"`
	ScrapedAt   time.Time  `json:"scraped_at"`
}

// Supabase batch-inserts postings into a Supabase table.
type Supabase struct {
	client *supabase.Client
	table  string
}

func NewSupabase(url, key, table string) (*Supabase, error) {
	if url == "" || key == "" {
		return nil, ErrSupabaseConfig
	}
	if table == "" {
		table = "postings"
	}
	// CreateClient returns *supabase.Client (no error)
	return &Supabase{client: supabase.CreateClient(url, key), table: table}, nil
}

func (s *Supabase) Name() string { return "supabase:" + s.table }

func (s *Supabase) Export(ctx context.Context, jobs []domain.JobPosting) error {
	if len(jobs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := toSupabaseRows(jobs, time.Now().UTC())
	var results []supabaseRow
	return s.client.DB.From(s.table).Insert(rows).Execute(&results)
}

func toSupabaseRows(jobs []domain.JobPosting, now time.Time) []supabaseRow {
	rows := make([]supabaseRow, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, supabaseRow{
			Digest:      scrape.IdentityDigest(j),
			Source:      j.Source,
			Title:       j.Title,
			Company:     j.Company,
			Tag:         j.Tag,
			URL:         j.URL,
			Location:    j.Location,
			PublishedAt: j.PublishedAt,
			Skills:      j.Skills,
			ScrapedAt:   now,
		})
	}
	return rows
}
