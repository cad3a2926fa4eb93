package merge

import (
	"testing"

	"github.com/jackzampolin/extractd/internal/types"
)

func TestMergeScalarPrefersHighestRankedStrategy(t *testing.T) {
	results := []types.ExtractionResult{
		{StepNumber: 1, Strategy: types.StrategyMinimal, Success: true, Content: map[string]interface{}{"main_title": "from minimal"}},
		{StepNumber: 2, Strategy: types.StrategyComprehensive, Success: true, Content: map[string]interface{}{"title": "from comprehensive"}},
	}
	page := Merge(0, types.ComplexityModerate, results, true, 0)

	if page.Content["main_title"] != "from comprehensive" {
		t.Errorf("main_title = %v, want %q", page.Content["main_title"], "from comprehensive")
	}
}

func TestMergeScalarTieBreaksByStepOrder(t *testing.T) {
	results := []types.ExtractionResult{
		{StepNumber: 1, Strategy: types.StrategyBasic, Success: true, Content: map[string]interface{}{"title": "first"}},
		{StepNumber: 2, Strategy: types.StrategyBasic, Success: true, Content: map[string]interface{}{"title": "second"}},
	}
	page := Merge(0, types.ComplexityModerate, results, true, 0)

	if page.Content["main_title"] != "first" {
		t.Errorf("main_title = %v, want %q (earliest step wins tie)", page.Content["main_title"], "first")
	}
}

func TestMergeKeySectionsDeduplicatesBySectionID(t *testing.T) {
	results := []types.ExtractionResult{
		{StepNumber: 1, Strategy: types.StrategyBasic, Success: true, Content: map[string]interface{}{
			"key_sections": []interface{}{
				map[string]interface{}{"section_id": "abc", "section_title": "A"},
			},
		}},
		{StepNumber: 2, Strategy: types.StrategyComprehensive, Success: true, Content: map[string]interface{}{
			"key_sections": []interface{}{
				map[string]interface{}{"section_id": "abc", "section_title": "A duplicate"},
				map[string]interface{}{"section_id": "def", "section_title": "B"},
			},
		}},
	}
	page := Merge(0, types.ComplexityModerate, results, true, 0)

	sections := page.Content["key_sections"].([]map[string]interface{})
	if len(sections) != 2 {
		t.Fatalf("key_sections = %d entries, want 2 (deduplicated by section_id)", len(sections))
	}
}

func TestMergeVisualElementsPrefersMorePopulatedEntry(t *testing.T) {
	results := []types.ExtractionResult{
		{StepNumber: 1, Strategy: types.StrategyVisual, Success: true, Content: map[string]interface{}{
			"visual_elements": []interface{}{
				map[string]interface{}{"element_type": "table", "description": "sales"},
			},
		}},
		{StepNumber: 2, Strategy: types.StrategyTableFocused, Success: true, Content: map[string]interface{}{
			"visual_elements": []interface{}{
				map[string]interface{}{"element_type": "table", "description": "sales", "data": map[string]interface{}{"rows": []interface{}{"1"}}},
			},
		}},
	}
	page := Merge(0, types.ComplexityModerate, results, true, 0)

	elements := page.Content["visual_elements"].([]map[string]interface{})
	if len(elements) != 1 {
		t.Fatalf("visual_elements = %d entries, want 1 (deduplicated)", len(elements))
	}
	if _, ok := elements[0]["data"]; !ok {
		t.Error("expected the more populated visual_element entry to win")
	}
}

func TestMergeToleratesZeroSuccessfulSteps(t *testing.T) {
	results := []types.ExtractionResult{
		{StepNumber: 1, Strategy: types.StrategyBasic, Success: false, Error: "boom"},
	}
	page := Merge(0, types.ComplexityModerate, results, true, 0)

	if page.SuccessfulSteps != 0 {
		t.Errorf("SuccessfulSteps = %d, want 0", page.SuccessfulSteps)
	}
	if page.TotalSteps != 1 {
		t.Errorf("TotalSteps = %d, want 1", page.TotalSteps)
	}
	if page.Content["main_title"] != "" {
		t.Errorf("main_title = %v, want empty", page.Content["main_title"])
	}
}

func TestMergeExtractionMethodReflectsRoutingSource(t *testing.T) {
	routed := Merge(0, types.ComplexityModerate, nil, true, 0)
	if routed.ExtractionMethod != "smart_routing" {
		t.Errorf("ExtractionMethod = %v, want smart_routing", routed.ExtractionMethod)
	}

	fallback := Merge(0, types.ComplexityModerate, nil, false, 0)
	if fallback.ExtractionMethod != "fallback" {
		t.Errorf("ExtractionMethod = %v, want fallback", fallback.ExtractionMethod)
	}
}
