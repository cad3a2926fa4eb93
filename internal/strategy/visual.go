package strategy

import (
	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/types"
)

var visualSchema = []byte(`{
  "type": "object",
  "properties": {
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

// visualStrategy is tuned for charts and graphics; it populates only
// visual_elements (spec.md §4.6).
type visualStrategy struct{}

func (s *visualStrategy) VisionRequired() bool { return true }

func (s *visualStrategy) PromptFor(page *pageinput.PageInput, step types.ExtractionStep) *providers.ChatRequest {
	prompt := `Examine this page image and identify every chart, graph, or
graphic. Return ONLY a JSON object:
{
  "visual_elements": [
    {
      "element_type": "line_chart|bubble_chart|bar_chart|pie_chart|image|other",
      "description": "<what it shows>",
      "data": {}
    }
  ]
}
Numeric values inside visual_elements.data must be returned as strings.`

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Text: systemPrompt},
			imageMessage(prompt, page),
		},
		Temperature:    0.1,
		MaxTokens:      2048,
		ResponseFormat: providers.ResponseFormatJSON,
	}
}

func (s *visualStrategy) Parse(raw string) (map[string]interface{}, error) {
	content, err := parseJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateShape(visualSchema, content); err != nil {
		return nil, err
	}
	return content, nil
}
