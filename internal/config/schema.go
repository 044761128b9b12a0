// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for vitrine.
package config

import (
	"time"

	"github.com/mkoziel/vitrine/internal/convmem"
	"github.com/mkoziel/vitrine/internal/embedding"
	"github.com/mkoziel/vitrine/internal/pipeline"
	"github.com/mkoziel/vitrine/internal/planner"
	"github.com/mkoziel/vitrine/internal/provider"
	"github.com/mkoziel/vitrine/internal/retrieval"
	"github.com/mkoziel/vitrine/internal/telemetry"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Server     ServerConfig     `yaml:"server"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Embedding  embedding.Config `yaml:"embedding"`
	Completion provider.Config  `yaml:"completion"`
	Memory     MemoryConfig     `yaml:"memory"`
	Retrieval  retrieval.Config `yaml:"retrieval"`
	Pipeline   pipeline.Config  `yaml:"pipeline"`

	// Planner overrides entries of the built-in planning table; unset
	// intents and tiers keep their defaults.
	Planner *planner.Table `yaml:"planner,omitempty"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	Listen string `yaml:"listen"`

	// AdminToken protects the session admin endpoints; empty disables them.
	AdminToken string `yaml:"admin_token"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// TelemetryConfig groups the observability settings.
type TelemetryConfig struct {
	Tracing telemetry.TracingConfig `yaml:"tracing"`
}

// CorpusConfig locates the embedded-chunk corpus file.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// MemoryConfig configures conversation memory and its eviction sweep.
type MemoryConfig struct {
	// Backend selects the session store: "memory" (default) or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the SQLite database file, used when Backend is "sqlite".
	Path string `yaml:"path"`

	// SweepSchedule is the cron expression of the eviction sweep.
	SweepSchedule string `yaml:"sweep_schedule"`

	Sessions convmem.Config `yaml:",inline"`
}

// Defaults fills unset fields across all sections.
func (c *Config) Defaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Memory.Backend == "" {
		c.Memory.Backend = "memory"
	}
	if c.Memory.SweepSchedule == "" {
		c.Memory.SweepSchedule = "*/10 * * * *"
	}
	c.Telemetry.Tracing.Defaults()
	c.Completion.Defaults()
	c.Pipeline.Defaults()
}
