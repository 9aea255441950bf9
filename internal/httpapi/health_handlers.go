package httpapi

import (
	"net/http"
	"sync/atomic"
	"time"

	"jobfeed-engine/internal/cache"
	"jobfeed-engine/internal/config"
	"jobfeed-engine/internal/events"
)

type HealthHandler struct {
	Counters *cache.Stats
	Hub      *events.Hub
	CfgVal   *atomic.Value
	Started  time.Time
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":     true,
		"uptime": time.Since(h.Started).Round(time.Second).String(),
	})
}

type statsResponse struct {
	Cache       cache.Snapshot `json:"cache"`
	Sources     int            `json:"sources"`
	Backend     string         `json:"backend"`
	Subscribers int            `json:"subscribers"`
}

func (h HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var resp statsResponse
	if h.Counters != nil {
		resp.Cache = h.Counters.Snapshot()
	}
	if h.Hub != nil {
		resp.Subscribers = h.Hub.Subscribers()
	}
	if h.CfgVal != nil {
		if cfg, ok := h.CfgVal.Load().(config.Config); ok {
			resp.Sources = len(cfg.ActiveFeeds())
			resp.Backend = cfg.Cache.Backend
		}
	}
	writeJSON(w, resp)
}
