// Package extract implements C7: sequential per-page execution of an
// ExtractionPlan's steps against the strategy set (spec.md §4.7).
//
// Grounded on original_source/backend/strategies/base.py's execute_plan
// for the per-step shape, rebuilt so every call is routed through
// C4(C3(C1)) gated by the shared rate limiter (C2), per spec.md §4.7/§5.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackzampolin/extractd/internal/llmcall"
	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/resilience"
	"github.com/jackzampolin/extractd/internal/strategy"
	"github.com/jackzampolin/extractd/internal/types"
)

// Extractor runs an ExtractionPlan's steps sequentially against one page.
type Extractor struct {
	Registry    *providers.Registry
	RateLimiter *providers.RateLimiter
	Strategies  *strategy.Registry
	Retry       resilience.RetryConfig
	Recorder    *llmcall.Recorder
	Logger      *slog.Logger
}

// New builds an Extractor bound to the given collaborators.
func New(registry *providers.Registry, limiter *providers.RateLimiter, strategies *strategy.Registry, retry resilience.RetryConfig, recorder *llmcall.Recorder, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		Registry:    registry,
		RateLimiter: limiter,
		Strategies:  strategies,
		Retry:       retry,
		Recorder:    recorder,
		Logger:      logger,
	}
}

// Run executes every step of plan against page, in step_number order.
// Steps are never run concurrently within a page (spec.md §4.7/§5).
// A failed step never aborts the plan; it is recorded with success=false
// and the next step proceeds.
func (e *Extractor) Run(ctx context.Context, page *pageinput.PageInput, plan *types.ExtractionPlan) []types.ExtractionResult {
	results := make([]types.ExtractionResult, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		results = append(results, e.runStep(ctx, page, step))
	}
	return results
}

func (e *Extractor) runStep(ctx context.Context, page *pageinput.PageInput, step types.ExtractionStep) types.ExtractionResult {
	start := time.Now()

	strat, err := e.Strategies.Get(step.Strategy)
	if err != nil {
		return types.ExtractionResult{
			StepNumber: step.StepNumber,
			Strategy:   step.Strategy,
			Success:    false,
			Error:      err.Error(),
			ElapsedMS:  time.Since(start).Milliseconds(),
		}
	}

	req := strat.PromptFor(page, step)
	modelID := e.Registry.DefaultExtractor()

	if e.RateLimiter != nil {
		if err := e.RateLimiter.Wait(ctx); err != nil {
			return types.ExtractionResult{
				StepNumber: step.StepNumber,
				Strategy:   step.Strategy,
				Success:    false,
				Error:      err.Error(),
				ElapsedMS:  time.Since(start).Milliseconds(),
			}
		}
	}

	chain := resilience.NewChain(e.Registry, e.Retry)
	chatResult, callErr := chain.Execute(ctx, modelID, func(client providers.Client) func(context.Context) (*providers.ChatResult, error) {
		return func(ctx context.Context) (*providers.ChatResult, error) {
			return client.Chat(ctx, req)
		}
	})

	elapsed := time.Since(start)

	if callErr != nil {
		e.Logger.Warn("extract: step failed", "page_index", page.PageIndex, "step", step.StepNumber, "strategy", step.Strategy, "error", callErr)
		return types.ExtractionResult{
			StepNumber: step.StepNumber,
			Strategy:   step.Strategy,
			Success:    false,
			Error:      callErr.Error(),
			ElapsedMS:  elapsed.Milliseconds(),
		}
	}

	e.Recorder.Record(chatResult, llmcall.RecordOptions{
		PageIndex:  page.PageIndex,
		StepNumber: step.StepNumber,
		Component:  "extract:" + string(step.Strategy),
	})

	content, parseErr := strat.Parse(chatResult.Content)
	if parseErr != nil {
		return types.ExtractionResult{
			StepNumber: step.StepNumber,
			Strategy:   step.Strategy,
			Success:    false,
			Error:      parseErr.Error(),
			ModelUsed:  chatResult.ModelUsed,
			ElapsedMS:  elapsed.Milliseconds(),
		}
	}

	return types.ExtractionResult{
		StepNumber: step.StepNumber,
		Strategy:   step.Strategy,
		Success:    true,
		Content:    content,
		ModelUsed:  chatResult.ModelUsed,
		ElapsedMS:  elapsed.Milliseconds(),
	}
}
