// Package gateway exposes the pipeline over HTTP: the chat operation (plain
// and streaming), feedback intake, health and status probes, Prometheus
// metrics, and bearer-protected session administration.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mkoziel/vitrine/internal/convmem"
	"github.com/mkoziel/vitrine/internal/pipeline"
	"github.com/mkoziel/vitrine/internal/telemetry"
	"github.com/mkoziel/vitrine/pkg/message"
)

// ChatHandler is the pipeline surface the gateway needs.
type ChatHandler interface {
	Handle(ctx context.Context, req message.ChatRequest) (message.ChatResponse, error)
	HandleStream(ctx context.Context, req message.ChatRequest, send func(pipeline.StreamEvent) error) error
}

// SessionAdmin is the conversation-memory surface of the admin endpoints.
type SessionAdmin interface {
	ActiveSessions() []convmem.Summary
	Clear(sessionID string) bool
}

// Gateway is the HTTP server component. It is a leaf: nothing imports it.
type Gateway struct {
	config    Config
	chat      ChatHandler
	sessions  SessionAdmin
	metrics   *telemetry.Metrics
	stats     *Stats
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a gateway. metrics may not be nil; its handler serves
// GET /metrics.
func New(cfg Config, chat ChatHandler, sessions SessionAdmin, metrics *telemetry.Metrics, logger *slog.Logger) *Gateway {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:   cfg,
		chat:     chat,
		sessions: sessions,
		metrics:  metrics,
		stats:    &Stats{},
		logger:   logger.With("component", "gateway"),
	}
}

// Handler returns the full route tree, for tests and embedding.
func (g *Gateway) Handler() http.Handler {
	return g.buildRouter()
}

// Start begins serving. The listener is opened synchronously so a bind
// failure is reported to the caller, not a goroutine.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Listen,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Listen)
	if err != nil {
		return fmt.Errorf("gateway: listen on %s: %w", g.config.Listen, err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Listen)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
