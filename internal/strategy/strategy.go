// Package strategy implements C6: the family of prompt/parser plug-ins
// (minimal, basic, comprehensive, visual, table_focused) the Extractor
// dispatches per ExtractionStep (spec.md §4.6).
//
// Grounded on the template-method shape of
// original_source/backend/strategies/base.py's BaseStrategy, reworked as
// a Go interface + struct registry per spec.md §9's "no dynamic class
// loading required" guidance.
package strategy

import (
	"fmt"

	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/types"
)

// Strategy is one interchangeable (prompt template, response parser) pair
// keyed by an ExtractionStrategy identifier. The Extractor treats every
// Strategy uniformly.
type Strategy interface {
	// PromptFor builds the chat request for this strategy against a page.
	PromptFor(page *pageinput.PageInput, step types.ExtractionStep) *providers.ChatRequest

	// Parse turns a raw model response into a content record. It performs
	// the strategy's own single repair attempt internally before failing.
	Parse(raw string) (map[string]interface{}, error)

	// VisionRequired reports whether this strategy's prompt needs the page
	// image (spec.md §4.6: minimal must not request images).
	VisionRequired() bool
}

// Registry maps known ExtractionStrategy identifiers to their Strategy
// implementation.
type Registry struct {
	strategies map[types.ExtractionStrategy]Strategy
}

// NewRegistry builds the registry with every built-in strategy wired in.
func NewRegistry() *Registry {
	return &Registry{
		strategies: map[types.ExtractionStrategy]Strategy{
			types.StrategyMinimal:       &minimalStrategy{},
			types.StrategyBasic:         &basicStrategy{},
			types.StrategyComprehensive: &comprehensiveStrategy{},
			types.StrategyVisual:        &visualStrategy{},
			types.StrategyTableFocused:  &tableFocusedStrategy{},
		},
	}
}

// Get returns the Strategy for a strategy identifier.
func (r *Registry) Get(s types.ExtractionStrategy) (Strategy, error) {
	strat, ok := r.strategies[s]
	if !ok {
		return nil, fmt.Errorf("unknown extraction strategy %q", s)
	}
	return strat, nil
}

// textPreview truncates page text to a prompt-friendly excerpt, matching
// the 1000-character excerpt the teacher's Python original uses for
// non-minimal strategies (original_source/backend/strategies/basic.py).
func textPreview(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "...[truncated]"
}

// imageMessage appends the page image to a vision strategy's user message.
func imageMessage(prompt string, page *pageinput.PageInput) providers.Message {
	msg := providers.Message{Role: providers.RoleUser, Text: prompt}
	if len(page.ImageBytes) > 0 {
		msg.Images = [][]byte{page.ImageBytes}
	}
	return msg
}

const systemPrompt = "You are a precise document analyzer. Return only valid JSON."

// fillSectionIDs assigns a stable SectionID to every key_sections entry
// that is missing one, so repeated runs over identical content produce
// identical ids (spec.md §4.6, §9). It mutates and returns content.
func fillSectionIDs(content map[string]interface{}) map[string]interface{} {
	sections, ok := content["key_sections"].([]interface{})
	if !ok {
		return content
	}
	for _, raw := range sections {
		section, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := section["section_id"].(string); ok && id != "" {
			continue
		}
		body, _ := section["content"].(string)
		section["section_id"] = SectionID(body)
	}
	return content
}
