// Package gemini implements llm.Client on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"resume-generator/internal/llm"
	"resume-generator/internal/shared/telemetry"
)

// Config configures the client. BaseURL is only set in tests.
type Config struct {
	APIKey  string
	BaseURL string
}

// Client implements llm.Client using Models.GenerateContent.
type Client struct {
	client *genai.Client
}

// NewClient constructs a Gemini client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{client: client}, nil
}

// Complete sends the system prompt as a system instruction and every user
// turn as its own content.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if strings.TrimSpace(req.Model) == "" {
		return llm.Response{}, errors.New("LLM_MODEL is required for Gemini")
	}
	var contents []*genai.Content
	for _, m := range req.Messages() {
		contents = append(contents, genai.NewContentFromText(m, genai.RoleUser))
	}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return llm.Response{}, wrapError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return llm.Response{}, errors.New("gemini response empty content")
	}
	var usage llm.Usage
	if resp.UsageMetadata != nil {
		usage = llm.Usage{
			PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int64(resp.UsageMetadata.TotalTokenCount),
		}
	}
	telemetry.Info("llm.response", map[string]any{
		"provider":          "gemini",
		"model":             req.Model,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
	})
	return llm.Response{Text: text, Model: req.Model, Usage: usage}, nil
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini http status %d: %s", apiErr.Code, apiErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini request timeout: %w", err)
	}
	return fmt.Errorf("gemini request: %w", err)
}

var _ llm.Client = (*Client)(nil)
