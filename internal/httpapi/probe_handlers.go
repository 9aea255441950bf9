package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"jobfeed-engine/internal/config"
	"jobfeed-engine/internal/scrape/types"
)

// SourceStatus is the outcome of one source in the last probe.
type SourceStatus struct {
	Source   string `json:"source"`
	OK       bool   `json:"ok"`
	Postings int    `json:"postings"`
	Error    string `json:"error,omitempty"`
	DurMS    int64  `json:"dur_ms"`
}

type ProbeStatus struct {
	LastRunAt string         `json:"last_run_at"`
	LastOkAt  string         `json:"last_ok_at"`
	Running   bool           `json:"running"`
	Sources   []SourceStatus `json:"sources"`
}

// ProbeHandler fetches every configured source once, bypassing the cache, and
// reports per-source health.
type ProbeHandler struct {
	CfgVal      *atomic.Value // config.Config
	ProbeStatus *atomic.Value // httpapi.ProbeStatus
	Probe       func(ctx context.Context, refs []string) []types.FetchResult
	Logger      *slog.Logger

	running atomic.Bool
}

func (h *ProbeHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.ProbeStatus.Load().(ProbeStatus)
	writeJSON(w, st)
}

func (h *ProbeHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.running.CompareAndSwap(false, true) {
		WriteJSON(w, http.StatusConflict, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	st := h.ProbeStatus.Load().(ProbeStatus)
	st.LastRunAt = time.Now().Format(time.RFC3339)
	st.Running = true
	h.ProbeStatus.Store(st)

	refs := h.CfgVal.Load().(config.Config).ActiveFeeds()
	go func() {
		ctx := context.WithoutCancel(r.Context())
		results := h.Probe(ctx, refs)

		next := h.ProbeStatus.Load().(ProbeStatus)
		next.Running = false
		next.Sources = make([]SourceStatus, 0, len(results))
		allOK := true
		for _, res := range results {
			s := SourceStatus{
				Source:   res.Source,
				OK:       res.OK(),
				Postings: len(res.Postings),
				DurMS:    res.Duration.Milliseconds(),
			}
			if res.Err != nil {
				s.Error = res.Err.Error()
				allOK = false
			}
			next.Sources = append(next.Sources, s)
		}
		if allOK {
			next.LastOkAt = time.Now().Format(time.RFC3339)
		}
		h.ProbeStatus.Store(next)
		h.running.Store(false)
		h.Logger.Info("source probe finished", "sources", len(results), "all_ok", allOK)
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
