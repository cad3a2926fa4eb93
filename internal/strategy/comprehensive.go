package strategy

import (
	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/types"
)

var comprehensiveSchema = []byte(`{
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "summary": {"type": "string"},
    "key_sections": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "section_title": {"type": "string"},
          "content": {}
        }
      }
    },
    "visual_elements": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "element_type": {"type": "string"},
          "description": {"type": "string"},
          "data": {"type": "object"}
        }
      }
    }
  }
}`)

// comprehensiveStrategy is basic plus visual_elements with typed details
// (spec.md §4.6). Numeric table/chart values are requested as strings so
// signs, percent-signs, and thousand separators survive round-tripping.
type comprehensiveStrategy struct{}

func (s *comprehensiveStrategy) VisionRequired() bool { return true }

func (s *comprehensiveStrategy) PromptFor(page *pageinput.PageInput, step types.ExtractionStep) *providers.ChatRequest {
	prompt := `Examine this page image thoroughly and return ONLY a JSON object:
{
  "title": "<page title>",
  "summary": "<brief summary>",
  "key_sections": [
    {"section_title": "<title>", "content": "<section body>"}
  ],
  "visual_elements": [
    {
      "element_type": "line_chart|bubble_chart|table|image|other",
      "description": "<what it shows>",
      "data": {}
    }
  ]
}
Numeric values inside visual_elements.data must be returned as strings
(preserve signs, percent-signs, and thousand separators exactly as shown).`
	if page.Text != "" {
		prompt += "\n\nText excerpt:\n" + textPreview(page.Text, 1000)
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Text: systemPrompt},
			imageMessage(prompt, page),
		},
		Temperature:    0.1,
		MaxTokens:      4096,
		ResponseFormat: providers.ResponseFormatJSON,
	}
}

func (s *comprehensiveStrategy) Parse(raw string) (map[string]interface{}, error) {
	content, err := parseJSON(raw)
	if err != nil {
		return nil, err
	}
	content = fillSectionIDs(content)
	if err := ValidateShape(comprehensiveSchema, content); err != nil {
		return nil, err
	}
	return content, nil
}
