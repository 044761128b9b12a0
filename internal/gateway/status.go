package gateway

import (
	"net/http"
	"time"
)

// statusResponse is the JSON response for GET /status.
type statusResponse struct {
	UptimeSeconds int64         `json:"uptime_seconds"`
	Stats         StatsSnapshot `json:"stats"`
	Sessions      int           `json:"sessions"`
}

func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := statusResponse{
			UptimeSeconds: int64(time.Since(g.startedAt) / time.Second),
			Stats:         g.stats.Snapshot(),
		}
		if g.sessions != nil {
			resp.Sessions = len(g.sessions.ActiveSessions())
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
