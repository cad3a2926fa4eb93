// Package merge implements C8: combining a page's ordered ExtractionResults
// into one PageResult (spec.md §4.8).
package merge

import (
	"github.com/jackzampolin/extractd/internal/types"
)

// Merge combines results for a single page into a PageResult.
// wasRouted distinguishes the "smart_routing" extraction_method (plan came
// from the Router) from "fallback" (plan is the Router's default plan).
func Merge(pageIndex int, complexity types.PageComplexity, results []types.ExtractionResult, wasRouted bool, refinementCycles int) types.PageResult {
	result := types.PageResult{
		PageIndex:        pageIndex,
		PageComplexity:   complexity,
		TotalSteps:       len(results),
		RefinementCycles: refinementCycles,
		Content:          map[string]interface{}{},
	}

	if wasRouted {
		result.ExtractionMethod = "smart_routing"
	} else {
		result.ExtractionMethod = "fallback"
	}

	successful := make([]types.ExtractionResult, 0, len(results))
	for _, r := range results {
		if r.Success {
			successful = append(successful, r)
			result.SuccessfulSteps++
		}
	}

	result.Content["main_title"] = mergeScalar(successful, "main_title", "title")
	result.Content["page_summary"] = mergeScalar(successful, "page_summary", "summary")
	result.Content["key_sections"] = mergeKeySections(successful)
	result.Content["visual_elements"] = mergeVisualElements(successful)

	return result
}

// mergeScalar takes the first non-empty value from the successful result
// with the highest-ranked strategy, ties broken by step order (spec.md
// §4.8). Some strategies name the field differently (basic/comprehensive
// use "title"/"summary"; minimal uses "main_title"/"page_summary"), so
// both candidate keys are checked per result.
func mergeScalar(results []types.ExtractionResult, keys ...string) string {
	best := ""
	bestRank := -1
	bestStep := int(^uint(0) >> 1)

	for _, r := range results {
		var value string
		for _, key := range keys {
			if v, ok := r.Content[key].(string); ok && v != "" {
				value = v
				break
			}
		}
		if value == "" {
			continue
		}
		rank := r.Strategy.Rank()
		if rank > bestRank || (rank == bestRank && r.StepNumber < bestStep) {
			best = value
			bestRank = rank
			bestStep = r.StepNumber
		}
	}
	return best
}

// mergeKeySections concatenates key_sections across steps, then
// de-duplicates by section_id (spec.md §4.8).
func mergeKeySections(results []types.ExtractionResult) []map[string]interface{} {
	seen := map[string]bool{}
	var out []map[string]interface{}

	for _, r := range results {
		sections, ok := r.Content["key_sections"].([]interface{})
		if !ok {
			continue
		}
		for _, raw := range sections {
			section, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			id, _ := section["section_id"].(string)
			if id != "" && seen[id] {
				continue
			}
			if id != "" {
				seen[id] = true
			}
			out = append(out, section)
		}
	}
	return out
}

// mergeVisualElements concatenates visual_elements across steps, then
// de-duplicates by (element_type, description), preferring the entry with
// more populated fields (spec.md §4.8).
func mergeVisualElements(results []types.ExtractionResult) []map[string]interface{} {
	index := map[string]int{} // key -> position in out
	var out []map[string]interface{}

	for _, r := range results {
		elements, ok := r.Content["visual_elements"].([]interface{})
		if !ok {
			continue
		}
		for _, raw := range elements {
			element, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			elementType, _ := element["element_type"].(string)
			description, _ := element["description"].(string)
			key := elementType + "\x00" + description

			pos, exists := index[key]
			if !exists {
				index[key] = len(out)
				out = append(out, element)
				continue
			}
			if populatedFields(element) > populatedFields(out[pos]) {
				out[pos] = element
			}
		}
	}
	return out
}

func populatedFields(m map[string]interface{}) int {
	count := 0
	for _, v := range m {
		switch val := v.(type) {
		case nil:
		case string:
			if val != "" {
				count++
			}
		case []interface{}:
			if len(val) > 0 {
				count++
			}
		case map[string]interface{}:
			if len(val) > 0 {
				count++
			}
		default:
			count++
		}
	}
	return count
}
