package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs registered jobs on their cron schedules. A per-job guard
// suppresses overlapping runs: when a tick fires while the previous run is
// still active (a slow eviction sweep over a large session store), the tick
// is skipped rather than queued.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   []Job
	guards map[string]*sync.Mutex
	logger *slog.Logger
	cancel context.CancelFunc
}

// NewScheduler creates an idle scheduler. Register jobs, then Start.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		guards: make(map[string]*sync.Mutex),
		logger: logger.With("component", "cron"),
	}
}

// newParser builds the 5-field schedule parser (minute through day-of-week)
// used for every registered job.
func newParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
}

// RegisterJob adds a job. Job names double as guard keys, so they must be
// unique. Registration after Start is not supported.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.guards[name]; exists {
		return fmt.Errorf("cron: job %q already registered", name)
	}

	s.guards[name] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start validates every schedule and begins ticking. A single invalid
// expression fails the whole start so a misconfigured sweep is caught at
// boot, not silently never run.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.cron = cron.New(cron.WithParser(newParser()))

	for _, j := range s.jobs {
		job := j
		guard := s.guards[job.Name()]
		if _, err := s.cron.AddFunc(job.Schedule(), func() {
			s.runJob(ctx, job, guard)
		}); err != nil {
			cancel()
			return fmt.Errorf("cron: job %q has invalid schedule %q: %w", job.Name(), job.Schedule(), err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// runJob executes one tick of a job unless its previous run is still active.
func (s *Scheduler) runJob(ctx context.Context, j Job, guard *sync.Mutex) {
	if !guard.TryLock() {
		s.logger.Warn("previous run still active, tick skipped", "job", j.Name())
		return
	}
	defer guard.Unlock()

	if err := j.Run(ctx); err != nil {
		s.logger.Error("job run failed", "job", j.Name(), "error", err)
	}
}

// Stop cancels the job context and waits for in-flight runs to finish.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info("scheduler stopped")
	}
	return nil
}
