package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkoziel/vitrine/internal/convmem"
)

// sessionsResponse is the JSON response for GET /api/sessions.
type sessionsResponse struct {
	Sessions []convmem.Summary `json:"sessions"`
	Count    int               `json:"count"`
}

func (g *Gateway) handleListSessions() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		summaries := g.sessions.ActiveSessions()
		writeJSON(w, http.StatusOK, sessionsResponse{
			Sessions: summaries,
			Count:    len(summaries),
		})
	}
}

// handleDeleteSession serves DELETE /api/sessions/{id}: the explicit-clear
// path alongside TTL eviction.
func (g *Gateway) handleDeleteSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !g.sessions.Clear(id) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
			return
		}
		g.logger.Info("session cleared", "session_id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}
