// Package types provides the shared extraction data model (spec.md §3)
// used across router, strategy, extract, merge, and refine. It has no
// dependency on other extractd packages, to avoid import cycles —
// grounded on the teacher's own internal/types package.
package types

// ExtractionStrategy is a closed enumeration of strategy identifiers
// (spec.md §3), extensible at build time by adding a new constant and a
// matching registry entry in internal/strategy.
type ExtractionStrategy string

const (
	StrategyMinimal       ExtractionStrategy = "minimal"
	StrategyBasic         ExtractionStrategy = "basic"
	StrategyComprehensive ExtractionStrategy = "comprehensive"
	StrategyVisual        ExtractionStrategy = "visual"
	StrategyTableFocused  ExtractionStrategy = "table_focused"
)

// KnownStrategies lists every strategy identifier the build recognizes,
// used by the Router to drop unrecognized recommendations (spec.md §4.5).
var KnownStrategies = map[ExtractionStrategy]bool{
	StrategyMinimal:       true,
	StrategyBasic:         true,
	StrategyComprehensive: true,
	StrategyVisual:        true,
	StrategyTableFocused:  true,
}

// strategyRank orders strategies from richest to leanest for the Merger's
// scalar tie-break rule (spec.md §4.8).
var strategyRank = map[ExtractionStrategy]int{
	StrategyComprehensive: 4,
	StrategyBasic:         3,
	StrategyVisual:        2,
	StrategyTableFocused:  1,
	StrategyMinimal:       0,
}

// Rank returns this strategy's position in the Merger's preference order;
// higher wins.
func (s ExtractionStrategy) Rank() int {
	return strategyRank[s]
}
