package api

import (
	"net/http"
	"time"
)

// StatsProvider reports the service's monitoring counters.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	stats StatsProvider
}

// NewStatsHandler returns a StatsHandler reading from stats.
func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// HandleStats writes the current counters together with the server time.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	out := h.stats.GetStats()
	if out == nil {
		out = map[string]any{}
	}
	out["serverTime"] = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, out)
}
