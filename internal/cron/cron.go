// Package cron provides a job scheduler for periodic background tasks,
// primarily the conversation-session eviction sweep. Jobs run on cron
// expressions and are owned by the host lifecycle: nothing here starts as a
// side effect of construction.
package cron

import "context"

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job (used for logging and dedup).
	Name() string

	// Schedule returns a 5-field cron expression (e.g., "*/5 * * * *").
	Schedule() string

	// Run executes the job. Implementations should check ctx.Done() for
	// graceful cancellation.
	Run(ctx context.Context) error
}
