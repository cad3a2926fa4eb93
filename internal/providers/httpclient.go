package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HTTPClient is a Client backed by a generic OpenAI-compatible chat
// completions endpoint. It speaks the same multipart-content wire shape
// used by every major hosted provider (OpenAI, OpenRouter, Anthropic's
// OpenAI-compatible surface): a `messages` array where a message's
// `content` is either a string or an array of `{type: text|image_url}`
// parts.
type HTTPClient struct {
	name          string
	baseURL       string
	apiKey        string
	model         string
	visionCapable bool
	httpClient    *http.Client
}

// HTTPClientConfig configures an HTTPClient.
type HTTPClientConfig struct {
	Name          string
	BaseURL       string
	APIKey        string
	Model         string
	VisionCapable bool
	Timeout       time.Duration
}

// NewHTTPClient builds an HTTPClient from config, applying sane defaults.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second // spec.md §5 default per-call timeout
	}
	return &HTTPClient{
		name:          cfg.Name,
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		visionCapable: cfg.VisionCapable,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Name() string          { return c.name }
func (c *HTTPClient) VisionCapable() bool   { return c.visionCapable }

// Chat sends one chat completion request and classifies any failure per
// spec.md §4.1. It never retries — retry/fallback live in
// internal/resilience, one layer up.
func (c *HTTPClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	wireReq := wireRequest{
		Model:       model,
		Messages:    make([]wireMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		wireReq.Messages = append(wireReq.Messages, toWireMessage(m))
	}
	if req.ResponseFormat == ResponseFormatJSON {
		wireReq.ResponseFormat = &wireResponseFormat{
			Type:       "json_object",
			JSONSchema: req.JSONSchema,
		}
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(wireReq)
	if err != nil {
		return c.errResult(requestID, start, ErrorKindInvalidReq, err)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return c.errResult(requestID, start, ErrorKindInvalidReq, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network error or our own timeout: both transient per spec.md §5.
		return c.errResult(requestID, start, ErrorKindTransientHTTP, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.errResult(requestID, start, ErrorKindTransientHTTP, err)
	}

	if c.apiKey == "" {
		return c.errResult(requestID, start, ErrorKindAuthFailure, fmt.Errorf("no API credential configured for provider %q", c.name))
	}

	if resp.StatusCode != http.StatusOK {
		kind := ClassifyHTTPStatus(resp.StatusCode)
		if kind == ErrorKindTerminalOther && looksLikeContentPolicy(respBody) {
			kind = ErrorKindContentPolicy
		}
		return c.errResult(requestID, start, kind, fmt.Errorf("provider %q status %d: %s", c.name, resp.StatusCode, string(respBody)))
	}

	var wireResp wireResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return c.errResult(requestID, start, ErrorKindInvalidReq, fmt.Errorf("failed to decode response: %w", err))
	}
	if len(wireResp.Choices) == 0 {
		return c.errResult(requestID, start, ErrorKindTerminalOther, fmt.Errorf("empty choices in response"))
	}

	return &ChatResult{
		Content:          wireResp.Choices[0].Message.Content,
		PromptTokens:     wireResp.Usage.PromptTokens,
		CompletionTokens: wireResp.Usage.CompletionTokens,
		ExecutionTime:    time.Since(start),
		Provider:         c.name,
		ModelUsed:        firstNonEmpty(wireResp.Model, model),
		RequestID:        requestID,
		Success:          true,
	}, nil
}

func (c *HTTPClient) errResult(requestID string, start time.Time, kind ErrorKind, err error) (*ChatResult, error) {
	classified := Classify(kind, err)
	return &ChatResult{
		RequestID:     requestID,
		Provider:      c.name,
		ExecutionTime: time.Since(start),
		Success:       false,
		Kind:          kind,
		ErrorMessage:  classified.Error(),
	}, classified
}

func toWireMessage(m Message) wireMessage {
	wm := wireMessage{Role: string(m.Role)}
	if len(m.Images) == 0 {
		wm.Content = m.Text
		return wm
	}
	parts := []wireContentPart{{Type: "text", Text: m.Text}}
	for _, img := range m.Images {
		parts = append(parts, wireContentPart{
			Type: "image_url",
			ImageURL: &wireImageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
			},
		})
	}
	wm.ContentParts = parts
	return wm
}

func looksLikeContentPolicy(body []byte) bool {
	s := strings.ToLower(string(body))
	for _, marker := range []string{"content_policy", "content filter", "safety system", "refused"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Wire types for the OpenAI-compatible chat completions API.

type wireRequest struct {
	Model          string               `json:"model"`
	Messages       []wireMessage        `json:"messages"`
	Temperature    float64              `json:"temperature,omitempty"`
	MaxTokens      int                  `json:"max_tokens,omitempty"`
	ResponseFormat *wireResponseFormat  `json:"response_format,omitempty"`
}

type wireMessage struct {
	Role         string             `json:"role"`
	Content      string             `json:"-"`
	ContentParts []wireContentPart  `json:"-"`
}

// MarshalJSON flattens Content/ContentParts into the `content` field,
// matching the provider wire format where content is either a string or
// an array of typed parts.
func (m wireMessage) MarshalJSON() ([]byte, error) {
	type alias struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	}
	a := alias{Role: m.Role}
	if len(m.ContentParts) > 0 {
		a.Content = m.ContentParts
	} else {
		a.Content = m.Content
	}
	return json.Marshal(a)
}

type wireContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

type wireResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

type wireResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}
