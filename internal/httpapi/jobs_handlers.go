package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/export"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type JobsHandler struct {
	Jobs   JobLookup
	Saver  export.Sink
	Logger *slog.Logger
}

type listParams struct {
	q      string
	source string
	limit  int
	offset int
	save   bool
}

func parseListParams(r *http.Request) (listParams, string) {
	q := r.URL.Query()
	p := listParams{
		q:      strings.ToLower(strings.TrimSpace(q.Get("q"))),
		source: strings.ToLower(strings.TrimSpace(q.Get("source"))),
		limit:  defaultLimit,
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxLimit {
			return p, "limit must be an integer in 1..200"
		}
		p.limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return p, "offset must be a non-negative integer"
		}
		p.offset = n
	}
	if s := q.Get("save"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return p, "save must be true or false"
		}
		p.save = b
	}
	return p, ""
}

// List serves GET /jobs. The page is a JSON array; X-Total-Count carries the
// number of matches before paging and X-Cache the lookup state.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, msg := parseListParams(r)
	if msg != "" {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidParam, msg)
		return
	}

	res := h.Jobs.Lookup(r.Context())
	matched := filterJobs(res.Jobs, p.q, p.source)
	page := paginate(matched, p.offset, p.limit)

	if p.save && h.Saver != nil {
		if err := h.Saver.Export(r.Context(), page); err != nil {
			h.Logger.Error("save jobs page", "request_id", RequestIDFrom(r.Context()), "err", err)
			WriteError(w, r, http.StatusInternalServerError, CodeSaveFailed, "could not save results")
			return
		}
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(len(matched)))
	w.Header().Set("X-Cache", string(res.State))
	writeJSON(w, page)
}

// filterJobs keeps postings whose title, skills or tag contain q and whose
// source contains source. Both are lower-case; empty matches everything.
func filterJobs(jobs []domain.JobPosting, q, source string) []domain.JobPosting {
	out := []domain.JobPosting{}
	for _, j := range jobs {
		if source != "" && !strings.Contains(strings.ToLower(j.Source), source) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(j.Title), q) &&
			!strings.Contains(strings.ToLower(strings.Join(j.Skills, " ")), q) &&
			!strings.Contains(strings.ToLower(j.TagName()), q) {
			continue
		}
		out = append(out, j)
	}
	return out
}

func paginate(jobs []domain.JobPosting, offset, limit int) []domain.JobPosting {
	if offset >= len(jobs) {
		return []domain.JobPosting{}
	}
	end := offset + limit
	if end > len(jobs) {
		end = len(jobs)
	}
	return jobs[offset:end]
}
