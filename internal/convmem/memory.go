package convmem

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mkoziel/vitrine/pkg/message"
)

// Config tunes conversation memory.
type Config struct {
	// MaxMessages caps the per-session history; the oldest turns are
	// dropped first.
	MaxMessages int `yaml:"max_messages"`

	// TTL is the inactivity duration after which a session becomes
	// eligible for eviction.
	TTL time.Duration `yaml:"ttl"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.MaxMessages <= 0 {
		c.MaxMessages = 20
	}
	if c.TTL <= 0 {
		c.TTL = time.Hour
	}
}

// Recall defaults for RelevantHistory.
const (
	DefaultRecallMax       = 5
	DefaultRecallThreshold = 0.3
	recencyGuarantee       = 3
)

// Memory manages conversation sessions on top of a Store. Append,
// recompute, and trim for one session form a critical section, serialized
// by a per-session lock, so concurrent turns for the same session cannot
// interleave mid-update.
type Memory struct {
	store  Store
	config Config
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Memory over the given store.
func New(store Store, cfg Config, logger *slog.Logger) *Memory {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		store:  store,
		config: cfg,
		logger: logger.With("component", "convmem"),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (m *Memory) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	return l
}

// AddMessage appends a turn to the session, creating the session on first
// use. Topics are extracted from the content; dominant topics are
// recomputed over the full post-append history before the cap trims it.
func (m *Memory) AddMessage(sessionID string, role message.Role, content string, meta *MessageMetadata) error {
	if sessionID == "" {
		return message.ErrMissingSessionID
	}

	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	now := m.now()
	sess, ok := m.store.Get(sessionID)
	if !ok {
		sess = Session{ID: sessionID}
	}

	sess.Messages = append(sess.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
		Topics:    ExtractTopics(content),
		Metadata:  meta,
	})
	sess.LastActive = now
	sess.TotalMessages++
	sess.DominantTopics = dominantTopics(sess.Messages, 5)

	if over := len(sess.Messages) - m.config.MaxMessages; over > 0 {
		sess.Messages = sess.Messages[over:]
	}

	m.store.Put(sess)
	return nil
}

// RelevantHistory returns up to maxMessages turns for prompt assembly,
// most-recent-last. The newest three turns are always included regardless
// of topic match; earlier turns qualify when their topic overlap with the
// query meets the threshold.
func (m *Memory) RelevantHistory(sessionID, query string, maxMessages int, threshold float64) []Message {
	if maxMessages <= 0 {
		maxMessages = DefaultRecallMax
	}

	sess, ok := m.store.Get(sessionID)
	if !ok {
		return nil
	}

	queryTopics := ExtractTopics(query)

	qualifying := make([]Message, 0, len(sess.Messages))
	for i, msg := range sess.Messages {
		recent := i >= len(sess.Messages)-recencyGuarantee
		if recent || topicOverlap(msg.Topics, queryTopics) >= threshold {
			qualifying = append(qualifying, msg)
		}
	}

	if len(qualifying) > maxMessages {
		qualifying = qualifying[len(qualifying)-maxMessages:]
	}
	return qualifying
}

// SessionSummary returns a read-only projection of the session.
func (m *Memory) SessionSummary(sessionID string) (Summary, bool) {
	sess, ok := m.store.Get(sessionID)
	if !ok {
		return Summary{}, false
	}

	var duration time.Duration
	if len(sess.Messages) > 0 {
		duration = sess.LastActive.Sub(sess.Messages[0].Timestamp)
	}
	return Summary{
		SessionID:      sess.ID,
		MessageCount:   len(sess.Messages),
		TotalMessages:  sess.TotalMessages,
		DominantTopics: sess.DominantTopics,
		Duration:       duration,
		LastActive:     sess.LastActive,
	}, true
}

// ConversationalContext formats the most recent turns as prompt text.
// Read-only: it never mutates session state.
func (m *Memory) ConversationalContext(sessionID string, maxTurns int) string {
	if maxTurns <= 0 {
		maxTurns = DefaultRecallMax
	}

	sess, ok := m.store.Get(sessionID)
	if !ok || len(sess.Messages) == 0 {
		return ""
	}

	msgs := sess.Messages
	if len(msgs) > maxTurns {
		msgs = msgs[len(msgs)-maxTurns:]
	}

	var b strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleUser:
			b.WriteString("User: ")
		case message.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString(string(msg.Role) + ": ")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// MessageCount returns how many turns a session currently retains.
func (m *Memory) MessageCount(sessionID string) int {
	sess, ok := m.store.Get(sessionID)
	if !ok {
		return 0
	}
	return len(sess.Messages)
}

// Clear removes a session explicitly (admin surface).
func (m *Memory) Clear(sessionID string) bool {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()
	return m.store.Evict(sessionID)
}

// ActiveSessions lists the sessions currently present in the store.
func (m *Memory) ActiveSessions() []Summary {
	sessions := m.store.List()
	out := make([]Summary, 0, len(sessions))
	for _, sess := range sessions {
		if summary, ok := m.SessionSummary(sess.ID); ok {
			out = append(out, summary)
		}
	}
	return out
}

// EvictExpired removes sessions idle longer than the TTL and returns how
// many were evicted. It is called by the periodic sweep; a session may
// therefore outlive its TTL by up to one sweep interval, which is accepted
// staleness rather than a bug to fix with finer-grained timers.
func (m *Memory) EvictExpired() int {
	cutoff := m.now().Add(-m.config.TTL)
	evicted := 0
	for _, sess := range m.store.List() {
		if sess.LastActive.After(cutoff) {
			continue
		}
		lock := m.sessionLock(sess.ID)
		lock.Lock()
		// Re-check under the lock: the session may have been touched
		// between the listing and now.
		if current, ok := m.store.Get(sess.ID); ok && !current.LastActive.After(cutoff) {
			m.store.Evict(sess.ID)
			evicted++

			m.mu.Lock()
			delete(m.locks, sess.ID)
			m.mu.Unlock()
		}
		lock.Unlock()
	}
	if evicted > 0 {
		m.logger.Info("evicted idle sessions", "count", evicted)
	}
	return evicted
}

// String implements fmt.Stringer for debug logging.
func (m *Memory) String() string {
	return fmt.Sprintf("convmem(cap=%d, ttl=%s)", m.config.MaxMessages, m.config.TTL)
}
