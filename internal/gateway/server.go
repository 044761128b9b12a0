package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public surface.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", g.metrics.Handler())
	r.Post("/v1/chat", g.handleChat())
	r.Get("/v1/chat/ws", g.handleChatWS())
	r.Post("/v1/feedback", g.handleFeedback())

	// Admin surface — not mounted without a token.
	if g.config.AdminToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(g.config.AdminToken))
			r.Get("/status", g.handleStatus())
			r.Route("/api", func(r chi.Router) {
				r.Get("/sessions", g.handleListSessions())
				r.Delete("/sessions/{id}", g.handleDeleteSession())
			})
		})
	}

	return r
}
