// Package convmem provides session-scoped conversation memory: capped
// message history, topic-relevance recall, and TTL-based eviction. Sessions
// live behind an injectable Store so the in-memory backing can be swapped
// for a persistent one without touching pipeline logic.
package convmem

import (
	"time"

	"github.com/mkoziel/vitrine/pkg/message"
)

// MessageMetadata carries optional pipeline facts about a turn.
type MessageMetadata struct {
	Intent        string        `json:"intent,omitempty"`
	ContextLength int           `json:"contextLength,omitempty"`
	ResponseTime  time.Duration `json:"responseTime,omitempty"`
}

// Message is one conversation turn held in memory.
type Message struct {
	Role      message.Role     `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Topics    []string         `json:"topics,omitempty"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// Session is the per-conversation state. Messages holds at most the
// configured cap (newest kept); TotalMessages counts every append and never
// decreases, so it can exceed len(Messages).
type Session struct {
	ID             string
	Messages       []Message
	LastActive     time.Time
	TotalMessages  int
	DominantTopics []string
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (s Session) Clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	out.DominantTopics = append([]string(nil), s.DominantTopics...)
	for i := range out.Messages {
		out.Messages[i].Topics = append([]string(nil), out.Messages[i].Topics...)
		if m := out.Messages[i].Metadata; m != nil {
			clone := *m
			out.Messages[i].Metadata = &clone
		}
	}
	return out
}

// Summary is a read-only projection of a session.
type Summary struct {
	SessionID      string        `json:"sessionId"`
	MessageCount   int           `json:"messageCount"`
	TotalMessages  int           `json:"totalMessages"`
	DominantTopics []string      `json:"dominantTopics"`
	Duration       time.Duration `json:"duration"`
	LastActive     time.Time     `json:"lastActive"`
}
