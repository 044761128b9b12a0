package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mkoziel/vitrine/pkg/message"
)

// errorResponse is the JSON error body for rejected requests.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleChat serves POST /v1/chat. Input errors come back as 400; every
// other pipeline failure has already degraded into a valid reply.
func (g *Gateway) handleChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req message.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			g.stats.RecordError()
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
			return
		}

		resp, err := g.chat.Handle(r.Context(), req)
		if err != nil {
			g.stats.RecordError()
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		g.stats.RecordRequest(resp.Metadata.TokensUsed, time.Since(start))
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleFeedback serves POST /v1/feedback: validate, count, log. The core
// does not act on feedback beyond recording it.
func (g *Gateway) handleFeedback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fb message.Feedback
		if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
			return
		}
		if err := fb.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		g.stats.RecordFeedback()
		g.metrics.FeedbackTotal.WithLabelValues(string(fb.Feedback)).Inc()
		g.logger.Info("feedback received",
			"session_id", fb.SessionID,
			"message_id", fb.MessageID,
			"feedback", string(fb.Feedback),
		)

		w.WriteHeader(http.StatusAccepted)
	}
}

// isInputError reports whether the pipeline rejected the request itself.
func isInputError(err error) bool {
	return errors.Is(err, message.ErrNoMessages) ||
		errors.Is(err, message.ErrEmptyQuery) ||
		errors.Is(err, message.ErrMissingSessionID) ||
		errors.Is(err, message.ErrInvalidRole)
}
