// Package router implements C5: the per-page planner that turns a vision
// LLM's free-form analysis of a page into a validated ExtractionPlan
// (spec.md §4.5).
package router

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/resilience"
	"github.com/jackzampolin/extractd/internal/strategy"
	"github.com/jackzampolin/extractd/internal/types"
)

const analysisPrompt = `You are an expert document analyzer. Examine this page image ` +
	`and its extracted text. Return ONLY a JSON object with this shape:
{
  "page_complexity": "simple|moderate|complex",
  "tables": <count or descriptor>,
  "charts": <count or descriptor>,
  "dense_text": <count or descriptor>,
  "recommended_strategies": ["minimal"|"basic"|"comprehensive"|"visual"|"table_focused", ...]
}
Return ONLY valid JSON, no commentary.`

// routerAnalysisSchema tolerates tables/charts/dense_text as either a
// number or a descriptor string, matching FlexCount's own leniency
// (spec.md §3: "numeric fields should be permissive").
var routerAnalysisSchema = []byte(`{
  "type": "object",
  "properties": {
    "page_complexity": {"type": "string"},
    "tables": {"type": ["number", "string"]},
    "charts": {"type": ["number", "string"]},
    "dense_text": {"type": ["number", "string"]},
    "recommended_strategies": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`)

// Router analyzes a page and produces an ExtractionPlan (C5, spec.md §4.5).
type Router struct {
	Registry *providers.Registry
	Retry    resilience.RetryConfig
	Logger   *slog.Logger
}

// New builds a Router bound to the given model registry.
func New(registry *providers.Registry, retry resilience.RetryConfig, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{Registry: registry, Retry: retry, Logger: logger}
}

// Plan runs the router procedure from spec.md §4.5 and always returns a
// plan with at least one step — routing failure is never fatal to a page.
func (r *Router) Plan(ctx context.Context, page *pageinput.PageInput) *types.ExtractionPlan {
	modelID := r.Registry.DefaultRouter()
	chain := resilience.NewChain(r.Registry, r.Retry)

	result, err := chain.Execute(ctx, modelID, func(client providers.Client) func(context.Context) (*providers.ChatResult, error) {
		return func(ctx context.Context) (*providers.ChatResult, error) {
			return client.Chat(ctx, r.buildRequest(page))
		}
	})
	if err != nil {
		r.Logger.Warn("router: all models exhausted, emitting default plan", "page_index", page.PageIndex, "error", err)
		return defaultPlan(page.PageIndex)
	}

	var rawContent map[string]interface{}
	if err := json.Unmarshal([]byte(result.Content), &rawContent); err != nil {
		r.Logger.Warn("router: failed to parse analysis, emitting default plan", "page_index", page.PageIndex, "error", err)
		return defaultPlan(page.PageIndex)
	}
	if err := strategy.ValidateShape(routerAnalysisSchema, rawContent); err != nil {
		r.Logger.Warn("router: analysis failed schema validation, emitting default plan", "page_index", page.PageIndex, "error", err)
		return defaultPlan(page.PageIndex)
	}

	analysis, err := types.ParseRouterAnalysis([]byte(result.Content))
	if err != nil {
		r.Logger.Warn("router: failed to parse analysis, emitting default plan", "page_index", page.PageIndex, "error", err)
		return defaultPlan(page.PageIndex)
	}

	return buildPlan(page.PageIndex, analysis, r.Logger)
}

func (r *Router) buildRequest(page *pageinput.PageInput) *providers.ChatRequest {
	text := page.Text
	if len(text) > 500 {
		text = text[:500] + "..."
	}
	prompt := analysisPrompt
	if text != "" {
		prompt += "\n\nText preview from page:\n" + text
	}

	msg := providers.Message{Role: providers.RoleUser, Text: prompt}
	if len(page.ImageBytes) > 0 {
		msg.Images = [][]byte{page.ImageBytes}
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Text: "You are an expert document analyzer. Provide detailed extraction plans. Return ONLY valid JSON."},
			msg,
		},
		Temperature:    0.1,
		MaxTokens:      3000,
		ResponseFormat: providers.ResponseFormatJSON,
	}
}

func defaultPlan(pageIndex int) *types.ExtractionPlan {
	return &types.ExtractionPlan{
		PageIndex:      pageIndex,
		PageComplexity: types.ComplexityUnknown,
		Steps: []types.ExtractionStep{
			{
				StepNumber: 1,
				Strategy:   types.StrategyComprehensive,
				Rationale:  "router failed, using default plan",
				IsFallback: true,
			},
		},
	}
}
