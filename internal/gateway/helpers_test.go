package gateway_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/mkoziel/vitrine/internal/convmem"
	"github.com/mkoziel/vitrine/internal/gateway"
	"github.com/mkoziel/vitrine/internal/pipeline"
	"github.com/mkoziel/vitrine/internal/telemetry"
	"github.com/mkoziel/vitrine/pkg/message"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockChat is a scriptable ChatHandler.
type mockChat struct {
	resp   message.ChatResponse
	events []pipeline.StreamEvent
}

func (m *mockChat) Handle(_ context.Context, req message.ChatRequest) (message.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return message.ChatResponse{}, err
	}
	return m.resp, nil
}

func (m *mockChat) HandleStream(_ context.Context, req message.ChatRequest, send func(pipeline.StreamEvent) error) error {
	if err := req.Validate(); err != nil {
		return err
	}
	for _, ev := range m.events {
		if err := send(ev); err != nil {
			return err
		}
	}
	return nil
}

// mockSessions is a scriptable SessionAdmin.
type mockSessions struct {
	summaries []convmem.Summary
	cleared   []string
}

func (m *mockSessions) ActiveSessions() []convmem.Summary {
	return m.summaries
}

func (m *mockSessions) Clear(sessionID string) bool {
	for _, s := range m.summaries {
		if s.SessionID == sessionID {
			m.cleared = append(m.cleared, sessionID)
			return true
		}
	}
	return false
}

func newTestGateway(t *testing.T, cfg gateway.Config, chat *mockChat, sessions *mockSessions) *gateway.Gateway {
	t.Helper()
	if chat == nil {
		chat = &mockChat{}
	}
	if sessions == nil {
		sessions = &mockSessions{}
	}
	return gateway.New(cfg, chat, sessions, telemetry.NewMetrics(), discardLogger())
}

func chatRequestBody() string {
	return `{"sessionId": "s1", "messages": [{"role": "user", "content": "ile lat doświadczenia masz?"}]}`
}
