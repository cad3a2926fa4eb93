package strategy

import (
	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/types"
)

var basicSchema = []byte(`{
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
    }
  }
}`)

// basicStrategy is a balanced vision extraction: title, summary, and
// key_sections (spec.md §4.6). Each key_sections entry gets a stable
// content-hash section_id.
type basicStrategy struct{}

func (s *basicStrategy) VisionRequired() bool { return true }

func (s *basicStrategy) PromptFor(page *pageinput.PageInput, step types.ExtractionStep) *providers.ChatRequest {
	prompt := `Examine this page image and return ONLY a JSON object:
{
  "title": "<page title>",
  "summary": "<brief summary>",
  "key_sections": [
    {"section_title": "<title>", "content": "<section body>"}
  ]
}`
	if page.Text != "" {
		prompt += "\n\nText excerpt:\n" + textPreview(page.Text, 1000)
	}

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

func (s *basicStrategy) Parse(raw string) (map[string]interface{}, error) {
	content, err := parseJSON(raw)
	if err != nil {
		return nil, err
	}
	content = fillSectionIDs(content)
	if err := ValidateShape(basicSchema, content); err != nil {
		return nil, err
	}
	return content, nil
}
