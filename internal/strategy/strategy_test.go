package strategy

import (
	"testing"

	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/types"
)

func TestRegistryGetKnownStrategies(t *testing.T) {
	reg := NewRegistry()
	for s := range types.KnownStrategies {
		if _, err := reg.Get(s); err != nil {
			t.Errorf("Get(%q) error = %v", s, err)
		}
	}
}

func TestRegistryGetUnknownStrategy(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Get("nonsense"); err == nil {
		t.Error("Get(nonsense) should error")
	}
}

func TestMinimalStrategyDoesNotRequireVision(t *testing.T) {
	reg := NewRegistry()
	strat, _ := reg.Get(types.StrategyMinimal)
	if strat.VisionRequired() {
		t.Error("minimal strategy must not require vision (cost saver)")
	}

	page := &pageinput.PageInput{Text: "hello world"}
	req := strat.PromptFor(page, types.ExtractionStep{StepNumber: 1, Strategy: types.StrategyMinimal})
	for _, msg := range req.Messages {
		if len(msg.Images) > 0 {
			t.Error("minimal strategy must not attach images to its prompt")
		}
	}
}

func TestBasicStrategyParseFillsSectionIDs(t *testing.T) {
	reg := NewRegistry()
	strat, _ := reg.Get(types.StrategyBasic)

	raw := `{"title":"T","summary":"S","key_sections":[{"section_title":"A","content":"body text"}]}`
	content, err := strat.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	sections := content["key_sections"].([]interface{})
	section := sections[0].(map[string]interface{})
	id, ok := section["section_id"].(string)
	if !ok || id == "" {
		t.Fatal("expected a non-empty section_id to be assigned")
	}
	if id != SectionID("body text") {
		t.Errorf("section_id = %q, want deterministic hash of content", id)
	}
}

func TestBasicStrategyParseRepairsCodeFences(t *testing.T) {
	reg := NewRegistry()
	strat, _ := reg.Get(types.StrategyBasic)

	raw := "```json\n{\"title\":\"T\",\"summary\":\"S\",\"key_sections\":[]}\n```"
	content, err := strat.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if content["title"] != "T" {
		t.Errorf("title = %v, want T", content["title"])
	}
}

func TestBasicStrategyParseFailsOnUnrecoverableGarbage(t *testing.T) {
	reg := NewRegistry()
	strat, _ := reg.Get(types.StrategyBasic)

	if _, err := strat.Parse("not json and no braces at all"); err == nil {
		t.Error("Parse() should fail on unrecoverable non-JSON content")
	}
}

func TestMinimalStrategyParseRejectsMissingRequiredField(t *testing.T) {
	reg := NewRegistry()
	strat, _ := reg.Get(types.StrategyMinimal)

	if _, err := strat.Parse(`{"main_title":"A"}`); err == nil {
		t.Error("Parse() should fail schema validation when page_summary is missing")
	}
}

func TestBasicStrategyParseRejectsWrongFieldType(t *testing.T) {
	reg := NewRegistry()
	strat, _ := reg.Get(types.StrategyBasic)

	if _, err := strat.Parse(`{"title":"T","summary":"S","key_sections":"not an array"}`); err == nil {
		t.Error("Parse() should fail schema validation when key_sections is not an array")
	}
}

func TestSectionIDIsStableAcrossWhitespaceVariation(t *testing.T) {
	a := SectionID("hello   world\n\tfoo")
	b := SectionID("hello world foo")
	if a != b {
		t.Errorf("SectionID should collapse whitespace before hashing: %q != %q", a, b)
	}
}
