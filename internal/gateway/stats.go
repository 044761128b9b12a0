package gateway

import (
	"sync/atomic"
	"time"
)

// Stats tracks gateway-level counters with atomics, independent of the
// Prometheus registry, for the /status snapshot.
type Stats struct {
	requests     atomic.Int64
	errors       atomic.Int64
	feedback     atomic.Int64
	totalTokens  atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
}

// RecordRequest records one answered chat request.
func (s *Stats) RecordRequest(tokens int, latency time.Duration) {
	s.requests.Add(1)
	s.totalTokens.Add(int64(tokens))
	s.totalLatency.Add(int64(latency))
}

// RecordError records a rejected or failed request.
func (s *Stats) RecordError() {
	s.errors.Add(1)
}

// RecordFeedback records a feedback submission.
func (s *Stats) RecordFeedback() {
	s.feedback.Add(1)
}

// Snapshot returns a consistent point-in-time view of the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	requests := s.requests.Load()
	snap := StatsSnapshot{
		Requests:    requests,
		Errors:      s.errors.Load(),
		Feedback:    s.feedback.Load(),
		TotalTokens: s.totalTokens.Load(),
	}
	if requests > 0 {
		snap.AvgLatency = time.Duration(s.totalLatency.Load() / requests)
	}
	return snap
}

// StatsSnapshot is a serializable point-in-time view.
type StatsSnapshot struct {
	Requests    int64         `json:"requests"`
	Errors      int64         `json:"errors"`
	Feedback    int64         `json:"feedback"`
	TotalTokens int64         `json:"total_tokens"`
	AvgLatency  time.Duration `json:"avg_latency_ns"`
}
