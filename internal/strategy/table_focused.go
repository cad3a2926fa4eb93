package strategy

import (
	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/types"
)

var tableFocusedSchema = []byte(`{
  "type": "object",
  "properties": {
    "visual_elements": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "element_type": {"type": "string"},
          "description": {"type": "string"},
          "data": {
            "type": "object",
            "properties": {
              "headers": {"type": "array"},
              "rows": {"type": "array"}
            }
          }
        }
      }
    }
  }
}`)

// tableFocusedStrategy is tuned for tabular content; it populates
// visual_elements entries with element_type "table" and a row/column
// structure (spec.md §4.6).
type tableFocusedStrategy struct{}

func (s *tableFocusedStrategy) VisionRequired() bool { return true }

func (s *tableFocusedStrategy) PromptFor(page *pageinput.PageInput, step types.ExtractionStep) *providers.ChatRequest {
	prompt := `Examine this page image and transcribe every table exactly.
Return ONLY a JSON object:
{
  "visual_elements": [
    {
      "element_type": "table",
      "description": "<what the table shows>",
      "data": {
        "headers": ["<column header>", ...],
        "rows": [["<cell>", ...], ...]
      }
    }
  ]
}
Numeric cell values must be returned as strings (preserve signs,
percent-signs, and thousand separators exactly as shown).`

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

func (s *tableFocusedStrategy) Parse(raw string) (map[string]interface{}, error) {
	content, err := parseJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateShape(tableFocusedSchema, content); err != nil {
		return nil, err
	}
	return content, nil
}
