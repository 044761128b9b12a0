// Package message defines the data contract between the HTTP gateway and the
// context pipeline: chat requests, responses, and feedback events.
package message

import "errors"

// Role identifies the author of a conversation message.
type Role string

// Supported roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one the pipeline accepts from callers.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatMessage is a single conversation turn as submitted by a caller.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the input of the exposed chat operation.
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	SessionID string        `json:"sessionId"`
}

// Validation errors returned to callers. These are the only errors the
// pipeline surfaces; everything else degrades internally.
var (
	ErrNoMessages       = errors.New("message: request contains no messages")
	ErrEmptyQuery       = errors.New("message: last user message is empty")
	ErrMissingSessionID = errors.New("message: missing session id")
	ErrInvalidRole      = errors.New("message: invalid message role")
)

// Validate checks the structural requirements of a chat request.
func (r ChatRequest) Validate() error {
	if r.SessionID == "" {
		return ErrMissingSessionID
	}
	if len(r.Messages) == 0 {
		return ErrNoMessages
	}
	for _, m := range r.Messages {
		if !m.Role.Valid() {
			return ErrInvalidRole
		}
	}
	if r.Query() == "" {
		return ErrEmptyQuery
	}
	return nil
}

// Query returns the content of the most recent user message, which is the
// turn the pipeline builds context for.
func (r ChatRequest) Query() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// ResponseMetadata describes how a reply was produced. Automated suites
// assert on these fields, so names and units are part of the contract.
type ResponseMetadata struct {
	QueryIntent        string   `json:"queryIntent"`
	ContextLength      int      `json:"contextLength"`
	ResponseTime       int64    `json:"responseTime"` // milliseconds
	TokensUsed         int      `json:"tokensUsed"`
	SessionID          string   `json:"sessionId"`
	ConversationLength int      `json:"conversationLength"`
	PipelineStages     []string `json:"pipelineStages"`
	CacheHit           bool     `json:"cacheHit"`
	Confidence         float64  `json:"confidence"`
	Language           string   `json:"language"`
}

// ChatResponse is the output of the exposed chat operation.
type ChatResponse struct {
	Content  string           `json:"content"`
	Metadata ResponseMetadata `json:"metadata"`
}

// FeedbackKind is a caller's verdict on a reply.
type FeedbackKind string

// Supported feedback kinds.
const (
	FeedbackHelpful    FeedbackKind = "helpful"
	FeedbackNotHelpful FeedbackKind = "not_helpful"
)

// Feedback is the analytics side channel: a verdict keyed by message id.
// The core accepts and records it; it does not act on it.
type Feedback struct {
	SessionID string       `json:"sessionId"`
	MessageID string       `json:"messageId"`
	Feedback  FeedbackKind `json:"feedback"`
}

// Validate checks the structural requirements of a feedback event.
func (f Feedback) Validate() error {
	if f.SessionID == "" {
		return ErrMissingSessionID
	}
	if f.MessageID == "" {
		return errors.New("message: missing message id")
	}
	if f.Feedback != FeedbackHelpful && f.Feedback != FeedbackNotHelpful {
		return errors.New("message: feedback must be helpful or not_helpful")
	}
	return nil
}
