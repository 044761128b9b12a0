package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkoziel/vitrine/internal/config"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vitrine.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func validConfig(t *testing.T) string {
	t.Helper()
	corpusPath := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(corpusPath, []byte("[]"), 0o600); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return `
version: "1"
server:
  listen: ":9090"
corpus:
  path: ` + corpusPath + `
completion:
  base_url: https://api.example.com/v1
  model: test-model
memory:
  backend: memory
  max_messages: 10
`
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, validConfig(t))

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != ":9090" {
		t.Errorf("Server.Listen = %q, want :9090", cfg.Server.Listen)
	}
	if cfg.Memory.Sessions.MaxMessages != 10 {
		t.Errorf("Memory.Sessions.MaxMessages = %d, want 10", cfg.Memory.Sessions.MaxMessages)
	}
	// Defaults applied on load.
	if cfg.Memory.SweepSchedule != "*/10 * * * *" {
		t.Errorf("SweepSchedule = %q, want default sweep", cfg.Memory.SweepSchedule)
	}
	if cfg.Pipeline.HistoryMessages != 5 {
		t.Errorf("Pipeline.HistoryMessages = %d, want default 5", cfg.Pipeline.HistoryMessages)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("Validate rejected a valid config: %v", err)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("VITRINE_TEST_LISTEN", ":7070")

	path := writeTempConfig(t, `
version: "1"
server:
  listen: ${VITRINE_TEST_LISTEN}
completion:
  api_key: ${VITRINE_TEST_MISSING:-fallback-key}
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != ":7070" {
		t.Errorf("Listen = %q, want expanded env value", cfg.Server.Listen)
	}
	if cfg.Completion.APIKey != "fallback-key" {
		t.Errorf("APIKey = %q, want default fallback", cfg.Completion.APIKey)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	path := writeTempConfig(t, `
version: "1"
server:
  listen: ${VITRINE_TEST_DEFINITELY_UNSET}
`)

	_, err := config.Load(path)
	if err == nil {
		t.Fatal("Load accepted an unresolved variable")
	}
	if !strings.Contains(err.Error(), "VITRINE_TEST_DEFINITELY_UNSET") {
		t.Errorf("error %q does not name the unresolved variable", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	corpusPath := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(corpusPath, []byte("[]"), 0o600); err != nil {
		t.Fatalf("write corpus: %v", err)
	}

	base := func() *config.Config {
		cfg := &config.Config{Version: "1"}
		cfg.Corpus.Path = corpusPath
		cfg.Completion.BaseURL = "https://api.example.com/v1"
		cfg.Completion.Model = "m"
		cfg.Defaults()
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing version", func(c *config.Config) { c.Version = "" }, "version"},
		{"unsupported version", func(c *config.Config) { c.Version = "2" }, "unsupported version"},
		{"missing corpus", func(c *config.Config) { c.Corpus.Path = "" }, "corpus.path"},
		{"sqlite without path", func(c *config.Config) { c.Memory.Backend = "sqlite" }, "memory.path"},
		{"unknown backend", func(c *config.Config) { c.Memory.Backend = "redis" }, "memory.backend"},
		{"bad sweep schedule", func(c *config.Config) { c.Memory.SweepSchedule = "often" }, "sweep_schedule"},
		{"tracing without endpoint", func(c *config.Config) {
			c.Telemetry.Tracing.Enabled = true
			c.Telemetry.Tracing.Endpoint = ""
		}, "tracing.endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
