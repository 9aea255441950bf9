package httpapi

import (
	"log/slog"
	"net/http"
)

// NewMux registers every route on a fresh mux.
func NewMux(d Deps) *http.ServeMux {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	mux := http.NewServeMux()

	// Jobs
	jh := JobsHandler{Jobs: d.Jobs, Saver: d.Saver, Logger: d.Logger}
	var list http.Handler = http.HandlerFunc(jh.List)
	if d.ClientLimiter != nil {
		list = RateLimit(d.ClientLimiter)(list)
	}
	mux.Handle("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: list.ServeHTTP,
	}))

	// Health and stats
	hh := HealthHandler{Counters: d.Stats, Hub: d.Hub, CfgVal: d.CfgVal, Started: d.Started}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))
	mux.HandleFunc("/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Stats,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  ch.Validate,
		http.MethodPost: ch.ValidateDraft,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/redis", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetRedisPassword,
	}))

	// Source probe
	if d.Probe != nil {
		ph := &ProbeHandler{
			CfgVal:      d.CfgVal,
			ProbeStatus: d.ProbeStatus,
			Probe:       d.Probe,
			Logger:      d.Logger,
		}
		mux.HandleFunc("/sources/status", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: ph.Status,
		}))
		mux.HandleFunc("/sources/probe", methodMux(map[string]http.HandlerFunc{
			http.MethodPost: ph.Run,
		}))
	}

	// SSE events
	if d.Hub != nil {
		eh := EventsHandler{Hub: d.Hub}
		mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: eh.ServeSSE,
		}))
	}

	if d.DB != nil {
		dh := DBHandler{DB: d.DB}
		mux.HandleFunc("/db/checkpoint", dh.Checkpoint)
	}

	return mux
}

// NewHandler is NewMux behind the standard middleware chain.
func NewHandler(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return Chain(NewMux(d), RequestID, Recover(d.Logger), AccessLog(d.Logger))
}
