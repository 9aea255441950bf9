package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"jobfeed-engine/internal/config"
	"jobfeed-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setRedisPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) SetRedisPassword(w http.ResponseWriter, r *http.Request) {
	var req setRedisPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidJSON, "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetRedisPassword(cfg.Cache.RedisKeyringAccount, req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeStoreFailed, "failed to store password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
