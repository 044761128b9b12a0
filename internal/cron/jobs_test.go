package cron

import (
	"context"
	"testing"
)

// testEvicter implements SessionEvicter for job tests.
type testEvicter struct {
	evicted int
	calls   int
}

func (e *testEvicter) EvictExpired() int {
	e.calls++
	return e.evicted
}

func TestSessionEvictionJob_Name(t *testing.T) {
	t.Parallel()
	j := &SessionEvictionJob{Logger: discardLogger()}
	if j.Name() != "session_eviction" {
		t.Errorf("name = %q, want session_eviction", j.Name())
	}
}

func TestSessionEvictionJob_Schedule(t *testing.T) {
	t.Parallel()

	j := &SessionEvictionJob{Logger: discardLogger()}
	if j.Schedule() != "*/10 * * * *" {
		t.Errorf("schedule = %q, want */10 * * * *", j.Schedule())
	}

	j.ScheduleExpr = "*/5 * * * *"
	if j.Schedule() != "*/5 * * * *" {
		t.Errorf("schedule = %q, want configured override", j.Schedule())
	}
}

func TestSessionEvictionJob_Run(t *testing.T) {
	t.Parallel()

	evicter := &testEvicter{evicted: 3}
	j := &SessionEvictionJob{Memory: evicter, Logger: discardLogger()}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if evicter.calls != 1 {
		t.Errorf("EvictExpired calls = %d, want 1", evicter.calls)
	}
}

func TestSessionEvictionJob_RunCancelled(t *testing.T) {
	t.Parallel()

	evicter := &testEvicter{}
	j := &SessionEvictionJob{Memory: evicter, Logger: discardLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := j.Run(ctx); err == nil {
		t.Fatal("Run with cancelled context did not return an error")
	}
	if evicter.calls != 0 {
		t.Error("cancelled run still swept sessions")
	}
}
