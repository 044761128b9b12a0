package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
)

// Validate checks the structural validity of a Config. All problems are
// reported at once, joined.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.Corpus.Path == "" {
		errs = append(errs, errors.New("config: corpus.path is required"))
	} else if _, err := os.Stat(cfg.Corpus.Path); err != nil {
		errs = append(errs, fmt.Errorf("config: corpus.path: %w", err))
	}

	if err := cfg.Completion.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch cfg.Memory.Backend {
	case "memory":
	case "sqlite":
		if cfg.Memory.Path == "" {
			errs = append(errs, errors.New("config: memory.path is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown memory.backend %q (supported: memory, sqlite)", cfg.Memory.Backend))
	}

	if cfg.Memory.SweepSchedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(cfg.Memory.SweepSchedule); err != nil {
			errs = append(errs, fmt.Errorf("config: invalid memory.sweep_schedule: %w", err))
		}
	}

	if cfg.Telemetry.Tracing.Enabled && cfg.Telemetry.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("config: telemetry.tracing.endpoint is required when tracing is enabled"))
	}

	return errors.Join(errs...)
}
