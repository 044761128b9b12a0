package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mkoziel/vitrine/internal/pipeline"
	"github.com/mkoziel/vitrine/pkg/message"
)

const wsReadTimeout = 30 * time.Second

// handleChatWS serves GET /v1/chat/ws: one chat request per connection. The
// client sends a ChatRequest, the server streams stage events and content
// deltas, then the final response, and closes.
func (g *Gateway) handleChatWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Warn("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow() //nolint:errcheck

		ctx := r.Context()
		start := time.Now()

		readCtx, cancel := context.WithTimeout(ctx, wsReadTimeout)
		var req message.ChatRequest
		err = wsjson.Read(readCtx, conn, &req)
		cancel()
		if err != nil {
			_ = conn.Close(websocket.StatusPolicyViolation, "expected a chat request")
			return
		}

		var tokens int
		err = g.chat.HandleStream(ctx, req, func(ev pipeline.StreamEvent) error {
			if ev.Type == "done" && ev.Response != nil {
				tokens = ev.Response.Metadata.TokensUsed
			}
			return wsjson.Write(ctx, conn, ev)
		})
		if err != nil {
			g.stats.RecordError()
			if isInputError(err) {
				_ = wsjson.Write(ctx, conn, pipeline.StreamEvent{Type: "error", Content: err.Error()})
				_ = conn.Close(websocket.StatusPolicyViolation, "invalid request")
				return
			}
			g.logger.Warn("websocket stream aborted", "error", err)
			_ = conn.Close(websocket.StatusInternalError, "stream aborted")
			return
		}

		g.stats.RecordRequest(tokens, time.Since(start))
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}
