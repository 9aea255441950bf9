package httpapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"slices"
	"sync/atomic"

	"jobfeed-engine/internal/config"
)

const redacted = "********"

type ConfigHandler struct {
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}

func redact(cfg config.Config) config.Config {
	if cfg.Export.SupabaseKey != "" {
		cfg.Export.SupabaseKey = redacted
	}
	return cfg
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	writeJSON(w, redact(cur))
}

// decodeConfig reads a JSON config from the body on top of base. A redacted
// Supabase key (as returned by Get) is swapped back for the stored one.
func (h ConfigHandler) decodeConfig(w http.ResponseWriter, r *http.Request, base config.Config) (config.Config, bool) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	// Decoding reuses slice backing arrays; keep the running config's intact.
	incoming := base
	incoming.Sources.Feeds = slices.Clone(base.Sources.Feeds)
	incoming.Sources.ExcludeTags = slices.Clone(base.Sources.ExcludeTags)
	if err := dec.Decode(&incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidJSON, "invalid JSON: "+err.Error())
		return config.Config{}, false
	}
	if dec.More() {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidJSON, "invalid JSON: trailing data")
		return config.Config{}, false
	}
	if incoming.Export.SupabaseKey == redacted {
		incoming.Export.SupabaseKey = h.CfgVal.Load().(config.Config).Export.SupabaseKey
	}
	return incoming, true
}

func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	incoming, ok := h.decodeConfig(w, r, config.Config{})
	if !ok {
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		WriteErrorDetails(w, r, http.StatusBadRequest, CodeInvalidConfig, "config has validation errors", vr)
		return
	}

	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeSaveFailed, err.Error())
		return
	}

	saved, err := h.LoadCfg()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeReloadFailed, "saved but reload failed: "+err.Error())
		return
	}
	h.CfgVal.Store(saved)
	writeJSON(w, redact(saved))
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.UserCfgPath)
	writeJSON(w, map[string]any{"path": abs})
}

// Validate checks the running config.
func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	_, vr := config.NormalizeAndValidate(cur)
	writeJSON(w, vr)
}

// ValidateDraft checks a config sent in the body without saving it. Fields
// missing from the draft keep their running values.
func (h ConfigHandler) ValidateDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decodeConfig(w, r, h.CfgVal.Load().(config.Config))
	if !ok {
		return
	}
	_, vr := config.NormalizeAndValidate(draft)
	writeJSON(w, vr)
}
