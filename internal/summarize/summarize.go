// Package summarize implements the executive-summary generator spec.md §1
// lists as an external collaborator made concrete: one LLM call over the
// document's per-page titles/summaries, with a fallback summary when that
// call fails. Grounded on
// original_source/backend/processing/summarizer.py's Summarizer.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/resilience"
	"github.com/jackzampolin/extractd/internal/types"
)

const maxTakeaways = 10

// Takeaway is one bullet in the executive summary.
type Takeaway struct {
	Point      string `json:"point"`
	Importance string `json:"importance,omitempty"`
}

// Summary is the document-level executive summary.
type Summary struct {
	ExecutiveSummary string                 `json:"executive_summary"`
	KeyTakeaways     []Takeaway             `json:"key_takeaways"`
	DocumentMetadata map[string]interface{} `json:"document_metadata"`
	ModelUsed        string                 `json:"model_used,omitempty"`
	FallbackUsed     bool                   `json:"fallback_used,omitempty"`
	Error            string                 `json:"error,omitempty"`
}

type rawSummary struct {
	ExecutiveSummary string                 `json:"executive_summary"`
	KeyTakeaways     []Takeaway             `json:"key_takeaways"`
	DocumentMetadata map[string]interface{} `json:"document_metadata"`
}

// Summarizer generates a Summary from a document's merged page results.
type Summarizer struct {
	Registry *providers.Registry
	Retry    resilience.RetryConfig
	Logger   *slog.Logger
}

// New builds a Summarizer.
func New(registry *providers.Registry, retry resilience.RetryConfig, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{Registry: registry, Retry: retry, Logger: logger}
}

// Generate produces an executive summary for the document. It never
// returns an error: a failed LLM call or unparsable response falls back
// to a basic summary whose takeaways are the page_summary fields of the
// first five pages.
func (s *Summarizer) Generate(ctx context.Context, pages []types.PageResult) Summary {
	content := prepareContent(pages)

	modelID := s.Registry.DefaultSummarizer()
	if modelID == "" {
		return fallbackSummary(pages, "no summarizer model configured")
	}

	chain := resilience.NewChain(s.Registry, s.Retry)
	result, err := chain.Execute(ctx, modelID, func(client providers.Client) func(context.Context) (*providers.ChatResult, error) {
		return func(ctx context.Context) (*providers.ChatResult, error) {
			return client.Chat(ctx, buildRequest(content))
		}
	})
	if err != nil {
		s.Logger.Warn("summarize: all models exhausted, using fallback summary", "error", err)
		return fallbackSummary(pages, err.Error())
	}

	var raw rawSummary
	if err := json.Unmarshal([]byte(result.Content), &raw); err != nil {
		s.Logger.Warn("summarize: failed to parse summary response, using fallback summary", "error", err)
		return fallbackSummary(pages, "failed to parse JSON response")
	}

	takeaways := raw.KeyTakeaways
	if len(takeaways) > maxTakeaways {
		takeaways = takeaways[:maxTakeaways]
	}

	return Summary{
		ExecutiveSummary: raw.ExecutiveSummary,
		KeyTakeaways:     takeaways,
		DocumentMetadata: raw.DocumentMetadata,
		ModelUsed:        result.ModelUsed,
	}
}

func prepareContent(pages []types.PageResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DOCUMENT OVERVIEW:\n- Total pages: %d\n", len(pages))

	for i, page := range pages {
		fmt.Fprintf(&sb, "\n=== PAGE %d ===\n", i+1)
		if title, ok := page.Content["main_title"].(string); ok && title != "" {
			fmt.Fprintf(&sb, "Title: %s\n", title)
		}
		if summary, ok := page.Content["page_summary"].(string); ok && summary != "" {
			fmt.Fprintf(&sb, "Summary: %s\n", summary)
		}
	}

	return sb.String()
}

func buildRequest(content string) *providers.ChatRequest {
	prompt := fmt.Sprintf(`You are an expert document analyst. Analyze the following document content and provide a comprehensive executive summary.

%s

Please provide:
1. EXECUTIVE SUMMARY (2-3 paragraphs)
2. KEY TAKEAWAYS (up to %d points)
3. DOCUMENT METADATA (document_type, primary_subject, etc.)

Format your response as JSON with the structure:
{
  "executive_summary": "...",
  "key_takeaways": [{"point": "...", "importance": "high/medium/low"}],
  "document_metadata": {"document_type": "...", "primary_subject": "..."}
}`, content, maxTakeaways)

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Text: "You are a professional document analyst. Always respond with valid JSON."},
			{Role: providers.RoleUser, Text: prompt},
		},
		Temperature:    0.3,
		MaxTokens:      4000,
		ResponseFormat: providers.ResponseFormatJSON,
	}
}

func fallbackSummary(pages []types.PageResult, errMsg string) Summary {
	var takeaways []Takeaway
	limit := len(pages)
	if limit > 5 {
		limit = 5
	}
	for _, page := range pages[:limit] {
		summary, ok := page.Content["page_summary"].(string)
		if !ok || summary == "" {
			continue
		}
		if len(summary) > 200 {
			summary = summary[:200]
		}
		takeaways = append(takeaways, Takeaway{Point: summary})
	}

	return Summary{
		ExecutiveSummary: "Summary generation failed.",
		KeyTakeaways:     takeaways,
		DocumentMetadata: map[string]interface{}{},
		FallbackUsed:     true,
		Error:            errMsg,
	}
}
