// Package llmcall records every LLM call made during a pipeline run for
// traceability, ambient infrastructure carried over from the teacher even
// though this module has no persistence layer (spec.md §1 Non-goals) —
// grounded on internal/llmcall/call.go in the teacher, with the DefraDB
// write path swapped for an in-memory/JSONL sink (recorder_sink.go).
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/extractd/internal/providers"
)

// Call is one recorded LLM API call.
type Call struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references into the extraction pipeline.
	PageIndex  int    `json:"page_index"`
	StepNumber int    `json:"step_number,omitempty"`
	Component  string `json:"component"` // "extract:<strategy>", "refine"

	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	Response string `json:"response"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	PageIndex   int
	StepNumber  int
	Component   string
	Temperature *float64
}

// FromChatResult builds a Call from a ChatResult. Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	call := &Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		PageIndex:    opts.PageIndex,
		StepNumber:   opts.StepNumber,
		Component:    opts.Component,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		Response:     result.Content,
		Success:      result.Success,
		Temperature:  opts.Temperature,
	}

	if !result.Success {
		call.Error = result.ErrorMessage
	}

	return call
}
