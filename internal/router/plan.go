package router

import (
	"log/slog"

	"github.com/jackzampolin/extractd/internal/types"
)

// maxSteps bounds plan length to control per-page cost (spec.md §4.5).
const maxSteps = 4

// buildPlan converts a parsed RouterAnalysis into an ExtractionPlan,
// applying the tie-break rules from spec.md §4.5 in order:
//  1. simple pages always get a single minimal step, overriding the model
//  2. drop strategy names the build doesn't recognize, with a warning
//  3. zero recommendations on a non-trivial page get a comprehensive step
//  4. more than four recommendations are truncated to the first four
func buildPlan(pageIndex int, analysis *types.RouterAnalysis, logger *slog.Logger) *types.ExtractionPlan {
	if analysis.PageComplexity == types.ComplexitySimple {
		return &types.ExtractionPlan{
			PageIndex:      pageIndex,
			PageComplexity: analysis.PageComplexity,
			Steps: []types.ExtractionStep{
				{StepNumber: 1, Strategy: types.StrategyMinimal, Rationale: "simple page cost guard"},
			},
		}
	}

	recommended := make([]types.ExtractionStrategy, 0, len(analysis.RecommendedStrategies))
	for _, name := range analysis.RecommendedStrategies {
		strategy := types.ExtractionStrategy(name)
		if !types.KnownStrategies[strategy] {
			logger.Warn("router: dropping unrecognized strategy recommendation", "page_index", pageIndex, "strategy", name)
			continue
		}
		recommended = append(recommended, strategy)
	}

	if len(recommended) == 0 {
		if analysis.HasNonTrivialContent() {
			recommended = []types.ExtractionStrategy{types.StrategyComprehensive}
		} else {
			recommended = []types.ExtractionStrategy{types.StrategyMinimal}
		}
	}

	if len(recommended) > maxSteps {
		logger.Warn("router: truncating recommended strategies to bound cost", "page_index", pageIndex, "recommended_count", len(recommended))
		recommended = recommended[:maxSteps]
	}

	steps := make([]types.ExtractionStep, 0, len(recommended))
	for i, strategy := range recommended {
		steps = append(steps, types.ExtractionStep{
			StepNumber: i + 1,
			Strategy:   strategy,
			Rationale:  "router recommendation",
		})
	}

	return &types.ExtractionPlan{PageIndex: pageIndex, PageComplexity: analysis.PageComplexity, Steps: steps}
}
