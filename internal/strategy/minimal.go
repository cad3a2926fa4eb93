package strategy

import (
	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/types"
)

var minimalSchema = []byte(`{
  "type": "object",
  "required": ["main_title", "page_summary"],
  "properties": {
    "main_title": {"type": "string"},
    "page_summary": {"type": "string"}
  }
}`)

// minimalStrategy is a text-only, cost-minimizing extraction: main_title
// plus a one-paragraph page_summary. It must never request the page image
// (spec.md §4.6).
type minimalStrategy struct{}

func (s *minimalStrategy) VisionRequired() bool { return false }

func (s *minimalStrategy) PromptFor(page *pageinput.PageInput, step types.ExtractionStep) *providers.ChatRequest {
	prompt := `Read the following page text and return ONLY a JSON object:
{
  "main_title": "<the page's main title, or empty string>",
  "page_summary": "<one paragraph summarizing the page>"
}

Page text:
` + page.Text

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Text: systemPrompt},
			{Role: providers.RoleUser, Text: prompt},
		},
		Temperature:    0.1,
		MaxTokens:      1024,
		ResponseFormat: providers.ResponseFormatJSON,
	}
}

func (s *minimalStrategy) Parse(raw string) (map[string]interface{}, error) {
	content, err := parseJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateShape(minimalSchema, content); err != nil {
		return nil, err
	}
	return content, nil
}
