package refine

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/jackzampolin/extractd/internal/llmcall"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/resilience"
	"github.com/jackzampolin/extractd/internal/types"
)

func newTestAnalyzer(t *testing.T, cfg Config, content string) *Analyzer {
	t.Helper()
	catalog := providers.ModelCatalog{
		DefaultExtractor: "extract-model",
		Models: map[string]providers.LLMModelSpec{
			"extract-model": {ModelID: "extract-model"},
		},
	}
	reg, err := providers.NewRegistry(catalog)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	reg.Set("extract-model", providers.NewMockClient("extract-model", false, providers.MockResponse{Content: content}))
	return New(reg, resilience.RetryConfig{MaxAttempts: 1}, cfg, llmcall.NewRecorder(llmcall.NewMemorySink()), slog.Default())
}

func TestDecideEmitsWhenDisabled(t *testing.T) {
	a := newTestAnalyzer(t, Config{Enabled: false, MaxCycles: 3}, `{"needs_refinement":true}`)
	steps, refine := a.Decide(context.Background(), 0, types.PageResult{TotalSteps: 1}, 0, map[string]bool{})
	if refine || steps != nil {
		t.Error("Decide() should emit immediately when refinement is disabled")
	}
}

func TestDecideEmitsAtMaxCycles(t *testing.T) {
	a := newTestAnalyzer(t, Config{Enabled: true, MaxCycles: 2}, `{"needs_refinement":true}`)
	steps, refine := a.Decide(context.Background(), 0, types.PageResult{TotalSteps: 1}, 2, map[string]bool{})
	if refine || steps != nil {
		t.Error("Decide() should emit at cycle >= max_refinement_cycles")
	}
}

func TestDecideEmitsWhenVerdictSaysNoRefinementNeeded(t *testing.T) {
	a := newTestAnalyzer(t, Config{Enabled: true, MaxCycles: 3}, `{"needs_refinement":false}`)
	steps, refine := a.Decide(context.Background(), 0, types.PageResult{TotalSteps: 1}, 0, map[string]bool{})
	if refine || steps != nil {
		t.Error("Decide() should emit when needs_refinement=false")
	}
}

func TestDecideEmitsOnUnparsableVerdict(t *testing.T) {
	a := newTestAnalyzer(t, Config{Enabled: true, MaxCycles: 3}, "not json")
	steps, refine := a.Decide(context.Background(), 0, types.PageResult{TotalSteps: 1}, 0, map[string]bool{})
	if refine || steps != nil {
		t.Error("Decide() should emit on unparsable verdict")
	}
}

func TestDecideExtendsPlanWithNewSteps(t *testing.T) {
	a := newTestAnalyzer(t, Config{Enabled: true, MaxCycles: 3}, `{"needs_refinement":true,"missing_aspects":["tables"],"recommended_strategies":["table_focused"]}`)
	steps, refine := a.Decide(context.Background(), 0, types.PageResult{TotalSteps: 2}, 0, map[string]bool{})
	if !refine {
		t.Fatal("Decide() should recommend refinement")
	}
	if len(steps) != 1 || steps[0].Strategy != types.StrategyTableFocused {
		t.Errorf("steps = %+v, want single table_focused step", steps)
	}
	if steps[0].StepNumber != 3 {
		t.Errorf("StepNumber = %d, want 3 (continues after existing steps)", steps[0].StepNumber)
	}
}

func TestDecideDropsUnrecognizedRecommendedStrategy(t *testing.T) {
	a := newTestAnalyzer(t, Config{Enabled: true, MaxCycles: 3}, `{"needs_refinement":true,"missing_aspects":["x"],"recommended_strategies":["not_a_strategy"]}`)
	steps, refine := a.Decide(context.Background(), 0, types.PageResult{TotalSteps: 1}, 0, map[string]bool{})
	if refine || len(steps) != 0 {
		t.Errorf("expected no steps when only unrecognized strategies were recommended, got %+v refine=%v", steps, refine)
	}
}

func TestDecideNeverRepeatsSameFocus(t *testing.T) {
	a := newTestAnalyzer(t, Config{Enabled: true, MaxCycles: 3}, `{"needs_refinement":true,"missing_aspects":["tables"],"recommended_strategies":["table_focused"]}`)
	tried := map[string]bool{}

	steps1, refine1 := a.Decide(context.Background(), 0, types.PageResult{TotalSteps: 1}, 0, tried)
	if !refine1 || len(steps1) != 1 {
		t.Fatalf("first Decide() should produce a step, got %+v", steps1)
	}

	steps2, refine2 := a.Decide(context.Background(), 0, types.PageResult{TotalSteps: 2}, 1, tried)
	if refine2 || len(steps2) != 0 {
		t.Errorf("second Decide() with the same focus should produce no new steps, got %+v", steps2)
	}
}

func TestFlattenContentTextCollectsStringLeaves(t *testing.T) {
	content := map[string]interface{}{
		"main_title": "Q3 Results",
		"key_sections": []map[string]interface{}{
			{"section_title": "Revenue", "content": "12 34 56\n78 90 12\n34 56 78\n90 12 34\n56 78 90"},
		},
	}
	text := flattenContentText(content)
	if !strings.Contains(text, "Q3 Results") || !strings.Contains(text, "Revenue") {
		t.Errorf("flattenContentText() = %q, want it to contain string leaves from nested maps", text)
	}
}

func TestDecideBoundsNewStepsToFourMinusTotalSteps(t *testing.T) {
	a := newTestAnalyzer(t, Config{Enabled: true, MaxCycles: 3},
		`{"needs_refinement":true,"missing_aspects":["x"],"recommended_strategies":["basic","visual","table_focused"]}`)
	steps, refine := a.Decide(context.Background(), 0, types.PageResult{TotalSteps: 3}, 0, map[string]bool{})
	if !refine {
		t.Fatal("expected refinement")
	}
	if len(steps) > 1 {
		t.Errorf("steps = %d, want at most max(1, 4-3)=1", len(steps))
	}
}
