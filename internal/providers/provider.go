// Package providers implements the LLM client facade (spec component C1)
// and the per-process token-bucket rate limiter (C2). A Client is a single
// method, complete/chat-style call over one provider; everything above it
// (retry, fallback, routing) is composed externally in internal/resilience
// and internal/router.
package providers

import (
	"context"
	"encoding/json"
	"time"
)

// ResponseFormat selects how the caller wants the completion shaped.
type ResponseFormat string

const (
	ResponseFormatText ResponseFormat = "free_text"
	ResponseFormatJSON ResponseFormat = "json_object"
)

// Role tags a Message within a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged conversation segment. A message may carry
// text, one or more raster images (for vision-capable models), or both.
type Message struct {
	Role   Role     `json:"role"`
	Text   string   `json:"text"`
	Images [][]byte `json:"-"` // raw bytes; encoded to base64 at the transport layer
}

// ChatRequest is a single completion request against a named model.
type ChatRequest struct {
	Messages       []Message
	Model          string
	Temperature    float64
	MaxTokens      int
	ResponseFormat ResponseFormat
	// JSONSchema, when ResponseFormat is ResponseFormatJSON, is passed to
	// providers that support schema-constrained JSON mode. Best-effort:
	// providers without native support still receive the prompt-only path.
	JSONSchema json.RawMessage
	Timeout    time.Duration
	RequestID  string
}

// ChatResult is the outcome of a single Client.Chat call.
type ChatResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	ExecutionTime    time.Duration
	Provider         string
	ModelUsed        string
	RequestID        string
	Success          bool
	Kind             ErrorKind
	ErrorMessage     string
	RetryAfter       time.Duration
}

// Client is the single-call façade over one LLM provider (spec C1).
// Implementations must classify any failure into one of the ErrorKind
// values so internal/resilience can decide whether to retry or fall over.
type Client interface {
	// Chat performs one completion request and returns a classified result.
	// It never panics on provider errors; it returns (result, err) where
	// result.Kind communicates the classification whenever err != nil.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name identifies the client for logging and model-catalog lookups.
	Name() string

	// VisionCapable reports whether this client's model accepts images.
	VisionCapable() bool
}
