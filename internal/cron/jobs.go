package cron

import (
	"context"
	"fmt"
	"log/slog"
)

// SessionEvicter is the subset of the conversation memory API the eviction
// job needs. Defined here so the job does not depend on the convmem package.
type SessionEvicter interface {
	EvictExpired() int
}

// SessionEvictionJob sweeps conversation sessions whose inactivity exceeded
// the TTL. The sweep is lazy: a session can stay queryable for up to one
// sweep interval past its TTL, which is accepted rather than worked around
// with finer-grained timers.
type SessionEvictionJob struct {
	Memory       SessionEvicter
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/10 * * * *"
}

// Compile-time interface check.
var _ Job = (*SessionEvictionJob)(nil)

// Name implements Job.
func (j *SessionEvictionJob) Name() string {
	return "session_eviction"
}

// Schedule implements Job.
func (j *SessionEvictionJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/10 * * * *"
}

// Run evicts expired sessions.
func (j *SessionEvictionJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cron: session eviction cancelled: %w", ctx.Err())
	}

	if evicted := j.Memory.EvictExpired(); evicted > 0 {
		j.Logger.Info("cron: evicted expired sessions", "count", evicted)
	}
	return nil
}
