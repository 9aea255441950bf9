package events

import (
	"context"
	"encoding/json"
	"time"

	"jobfeed-engine/internal/domain"
)

const (
	TypePing         = "ping"
	TypeCacheRebuilt = "cache_rebuilt"
	TypeWarmFailed   = "cache_warm_failed"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// RebuiltData is the payload of a cache_rebuilt event.
type RebuiltData struct {
	Postings int            `json:"postings"`
	Sources  map[string]int `json:"sources"`
}

// CacheRebuilt publishes a cache_rebuilt event. Its signature matches the
// cache observer hook.
func (h *Hub) CacheRebuilt(_ context.Context, jobs []domain.JobPosting) {
	d := RebuiltData{Postings: len(jobs), Sources: map[string]int{}}
	for _, j := range jobs {
		d.Sources[j.Source]++
	}
	h.Publish(MakeEvent("", TypeCacheRebuilt, 1, d))
}
