// Package app wires configuration into a running vitrine service: it loads
// the corpus, assembles the context pipeline, and manages component
// lifecycle through core.App.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/mkoziel/vitrine/internal/config"
	"github.com/mkoziel/vitrine/internal/convmem"
	"github.com/mkoziel/vitrine/internal/core"
	"github.com/mkoziel/vitrine/internal/corpus"
	"github.com/mkoziel/vitrine/internal/cron"
	"github.com/mkoziel/vitrine/internal/embedding"
	"github.com/mkoziel/vitrine/internal/gateway"
	"github.com/mkoziel/vitrine/internal/intent"
	"github.com/mkoziel/vitrine/internal/pipeline"
	"github.com/mkoziel/vitrine/internal/planner"
	"github.com/mkoziel/vitrine/internal/provider"
	"github.com/mkoziel/vitrine/internal/pruner"
	"github.com/mkoziel/vitrine/internal/retrieval"
	"github.com/mkoziel/vitrine/internal/telemetry"
	"github.com/mkoziel/vitrine/internal/vectorindex"
	"github.com/mkoziel/vitrine/modules/memory/sqlite"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, config.DefaultPath is used.
	ConfigPath string

	// Version is injected at build time via ldflags.
	Version string

	// LogLevel sets the minimum log level. Defaults to slog.LevelInfo.
	LogLevel slog.Level
}

// Run loads configuration, starts all components, and blocks until a
// shutdown signal is received.
func Run(params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: params.LogLevel,
	}))
	logger.Info("starting vitrine", "version", params.Version, "config", cfgPath)

	app, err := Build(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	return app.Run()
}

// Build assembles every component from configuration and registers them
// with a core.App in start order. The caller owns the returned app.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*core.App, error) {
	chunks, err := corpus.LoadFile(cfg.Corpus.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("corpus loaded", "path", cfg.Corpus.Path, "chunks", len(chunks))
	index := vectorindex.NewMemoryIndex(chunks)

	store, db, err := openStore(cfg.Memory, logger)
	if err != nil {
		return nil, err
	}
	memory := convmem.New(store, cfg.Memory.Sessions, logger)

	tracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry.Tracing)
	if err != nil {
		if db != nil {
			db.Close() //nolint:errcheck
		}
		return nil, fmt.Errorf("app: tracing setup: %w", err)
	}
	metrics := telemetry.NewMetrics()

	pipe := pipeline.New(
		intent.NewRuleClassifier(intent.PolishRules(), intent.EnglishRules()),
		planner.New(plannerTable(cfg)),
		retrieval.NewEngine(embedding.NewClient(cfg.Embedding), index, cfg.Retrieval, logger),
		pruner.New(logger),
		memory,
		provider.NewClient(cfg.Completion, logger),
		metrics,
		tracing.Tracer(),
		cfg.Pipeline,
		logger,
	)

	scheduler := cron.NewScheduler(logger)
	if err := scheduler.RegisterJob(&cron.SessionEvictionJob{
		Memory:       memory,
		Logger:       logger,
		ScheduleExpr: cfg.Memory.SweepSchedule,
	}); err != nil {
		if db != nil {
			db.Close() //nolint:errcheck
		}
		return nil, err
	}

	gw := gateway.New(gateway.Config{
		Listen:       cfg.Server.Listen,
		AdminToken:   cfg.Server.AdminToken,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, pipe, memory, metrics, logger)

	// Stop runs in reverse order: the gateway drains first, the store and
	// the span exporter close last.
	app := core.NewApp(logger)
	if db != nil {
		app.Add("session-store", &dbCloser{db: db})
	}
	app.Add("tracing", &tracingCloser{tracing: tracing})
	app.Add("scheduler", scheduler)
	app.Add("gateway", gw)
	return app, nil
}

func openStore(cfg config.MemoryConfig, logger *slog.Logger) (convmem.Store, *sql.DB, error) {
	if cfg.Backend != "sqlite" {
		return convmem.NewMemoryStore(), nil, nil
	}
	store, db, err := sqlite.Open(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	store.SetLogger(logger)
	logger.Info("session store opened", "backend", "sqlite", "path", cfg.Path)
	return store, db, nil
}

func plannerTable(cfg *config.Config) planner.Table {
	if cfg.Planner != nil {
		return *cfg.Planner
	}
	return planner.Table{}
}

// dbCloser closes the session database during shutdown.
type dbCloser struct {
	db *sql.DB
}

func (c *dbCloser) Stop(context.Context) error {
	return c.db.Close()
}

// tracingCloser flushes pending spans during shutdown.
type tracingCloser struct {
	tracing *telemetry.Tracing
}

func (c *tracingCloser) Stop(ctx context.Context) error {
	return c.tracing.Shutdown(ctx)
}
