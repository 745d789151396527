package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vportnov/pod-extractor/internal/core/domain"
	"github.com/vportnov/pod-extractor/internal/core/ports"
)

// Client calls the Gemini generateContent REST API with an inline PDF and a
// response schema, returning the model's structured JSON plus token usage.
// It carries no retries, caching, or rate limiting; a failed call is the
// caller's problem to record.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func New(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      *float64       `json:"temperature,omitempty"`
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateContentResponse struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type usageMetadata struct {
	PromptTokenCount        int64 `json:"promptTokenCount"`
	CandidatesTokenCount    int64 `json:"candidatesTokenCount"`
	ToolUsePromptTokenCount int64 `json:"toolUsePromptTokenCount"`
	CachedContentTokenCount int64 `json:"cachedContentTokenCount"`
	ThoughtsTokenCount      int64 `json:"thoughtsTokenCount"`
	TotalTokenCount         int64 `json:"totalTokenCount"`
}

func (c *Client) Invoke(ctx context.Context, req ports.ModelRequest) (*ports.ModelResult, error) {
	temperature := 0.0
	payload := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{
					MIMEType: req.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(req.Payload),
				}},
				{Text: req.Prompt},
			},
		}},
		GenerationConfig: &generationConfig{
			Temperature:      &temperature,
			ResponseMIMEType: "application/json",
			ResponseSchema:   toResponseSchema(req.Schema),
		},
	}

	var response generateContentResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
	if err := c.postJSON(ctx, path, payload, &response, "generate content"); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(candidateText(response))
	if text == "" {
		return nil, fmt.Errorf("gemini returned no candidate text")
	}

	result := &ports.ModelResult{
		Data:  json.RawMessage(text),
		Model: c.model,
	}
	if response.UsageMetadata != nil {
		result.Usage = mapUsage(response.UsageMetadata)
	}
	return result, nil
}

func candidateText(response generateContentResponse) string {
	if len(response.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func mapUsage(meta *usageMetadata) *domain.TokenUsage {
	return &domain.TokenUsage{
		InputTokens:    meta.PromptTokenCount,
		OutputTokens:   meta.CandidatesTokenCount,
		ToolUseTokens:  meta.ToolUsePromptTokenCount,
		CachedTokens:   meta.CachedContentTokenCount,
		ThinkingTokens: meta.ThoughtsTokenCount,
		TotalTokens:    meta.TotalTokenCount,
	}
}
