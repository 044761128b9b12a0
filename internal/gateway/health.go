package gateway

import "net/http"

// healthResponse is the JSON response for GET /health.
type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// handleHealth reports liveness. The pipeline degrades instead of failing,
// so a reachable gateway is a healthy one.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: "ok"}
		if g.sessions != nil {
			resp.Sessions = len(g.sessions.ActiveSessions())
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
