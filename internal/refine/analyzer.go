// Package refine implements C9: deciding whether a page's merged result
// needs another extraction cycle, and if so, building the additional
// steps (spec.md §4.9).
package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackzampolin/extractd/internal/llmcall"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/resilience"
	"github.com/jackzampolin/extractd/internal/types"
)

const verdictPrompt = `You are reviewing an extraction result for completeness. Given the
merged content below, decide whether another extraction pass is needed.
Return ONLY a JSON object:
{
  "needs_refinement": <bool>,
  "missing_aspects": [<string>, ...],
  "recommended_strategies": [<strategy id>, ...]
}`

// Verdict is the refinement LLM's tolerant, open-ended judgment.
type Verdict struct {
	NeedsRefinement       bool     `json:"needs_refinement"`
	MissingAspects        []string `json:"missing_aspects"`
	RecommendedStrategies []string `json:"recommended_strategies"`
}

// Config controls the refinement loop bounds from spec.md §4.9/§9.
type Config struct {
	Enabled   bool
	MaxCycles int
}

// Analyzer implements C9's decision procedure.
type Analyzer struct {
	Registry *providers.Registry
	Retry    resilience.RetryConfig
	Config   Config
	Recorder *llmcall.Recorder
	Logger   *slog.Logger
}

// New builds an Analyzer.
func New(registry *providers.Registry, retry resilience.RetryConfig, cfg Config, recorder *llmcall.Recorder, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{Registry: registry, Retry: retry, Config: cfg, Recorder: recorder, Logger: logger}
}

// Decide runs spec.md §4.9's procedure. tried accumulates focus keys
// (strategy + sorted missing_aspects) already attempted for this page
// across cycles, so a strategy is never retried with the same focus; it
// mutates tried in place when it emits new steps. Returns (nil, false)
// when the page should be emitted as-is.
func (a *Analyzer) Decide(ctx context.Context, pageIndex int, page types.PageResult, cycle int, tried map[string]bool) ([]types.ExtractionStep, bool) {
	if !a.Config.Enabled || cycle >= a.Config.MaxCycles {
		return nil, false
	}

	verdict, ok := a.fetchVerdict(ctx, pageIndex, page)
	if !ok || !verdict.NeedsRefinement {
		return nil, false
	}

	focus := focusKey(verdict.MissingAspects)
	maxNew := page.TotalSteps
	if maxNew < 0 {
		maxNew = 0
	}
	limit := 4 - maxNew
	if limit < 1 {
		limit = 1
	}

	var newSteps []types.ExtractionStep
	stepNumber := page.TotalSteps + 1
	for _, name := range verdict.RecommendedStrategies {
		if len(newSteps) >= limit {
			break
		}
		strat := types.ExtractionStrategy(name)
		if !types.KnownStrategies[strat] {
			a.Logger.Warn("refine: dropping unrecognized recommended strategy", "page_index", pageIndex, "strategy", name)
			continue
		}
		key := string(strat) + "|" + focus
		if tried[key] {
			continue
		}
		tried[key] = true

		newSteps = append(newSteps, types.ExtractionStep{
			StepNumber: stepNumber,
			Strategy:   strat,
			Rationale:  "refinement: " + strings.Join(verdict.MissingAspects, ", "),
		})
		stepNumber++
	}

	if len(newSteps) == 0 {
		return nil, false
	}
	return newSteps, true
}

func (a *Analyzer) fetchVerdict(ctx context.Context, pageIndex int, page types.PageResult) (*Verdict, bool) {
	body, err := json.Marshal(page.Content)
	if err != nil {
		a.Logger.Warn("refine: failed to serialize page content for verdict prompt", "page_index", pageIndex, "error", err)
		return nil, false
	}

	prompt := verdictPrompt + "\n\nMerged content:\n" + string(body)
	if LooksLikeTable(flattenContentText(page.Content)) {
		prompt += "\n\nHeuristic hint: this page's text has numeric density and line-length patterns " +
			"typical of a table that may not have been captured structurally. Treat a missing or " +
			"malformed table as a likely missing_aspect unless the content above already contains one."
	}

	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Text: "You are a meticulous document review assistant. Return only valid JSON."},
			{Role: providers.RoleUser, Text: prompt},
		},
		Temperature:    0.1,
		MaxTokens:      1024,
		ResponseFormat: providers.ResponseFormatJSON,
	}

	modelID := a.Registry.DefaultExtractor()
	chain := resilience.NewChain(a.Registry, a.Retry)
	result, err := chain.Execute(ctx, modelID, func(client providers.Client) func(context.Context) (*providers.ChatResult, error) {
		return func(ctx context.Context) (*providers.ChatResult, error) {
			return client.Chat(ctx, req)
		}
	})
	if err != nil {
		a.Logger.Warn("refine: verdict call failed, emitting as-is", "page_index", pageIndex, "error", err)
		return nil, false
	}
	a.Recorder.Record(result, llmcall.RecordOptions{PageIndex: pageIndex, Component: "refine"})

	var verdict Verdict
	if err := json.Unmarshal([]byte(result.Content), &verdict); err != nil {
		a.Logger.Warn("refine: unparsable verdict, emitting as-is", "page_index", pageIndex, "error", err)
		return nil, false
	}
	return &verdict, true
}

// flattenContentText concatenates every string-valued leaf in a page's
// merged content so LooksLikeTable can run its line/character heuristics
// against something resembling the original page text, since PageResult
// carries structured fields rather than a single raw-text field.
func flattenContentText(content map[string]interface{}) string {
	var b strings.Builder
	var walk func(v interface{})
	walk = func(v interface{}) {
		switch t := v.(type) {
		case string:
			b.WriteString(t)
			b.WriteString("\n")
		case []interface{}:
			for _, item := range t {
				walk(item)
			}
		case []map[string]interface{}:
			for _, item := range t {
				walk(item)
			}
		case map[string]interface{}:
			for _, item := range t {
				walk(item)
			}
		}
	}
	for _, v := range content {
		walk(v)
	}
	return b.String()
}

func focusKey(missingAspects []string) string {
	sorted := append([]string(nil), missingAspects...)
	sort.Strings(sorted)
	return fmt.Sprintf("%v", sorted)
}
