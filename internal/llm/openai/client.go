// Package openai implements llm.Client on the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"resume-generator/internal/llm"
	"resume-generator/internal/shared/telemetry"
)

// Config configures the chat client. BaseURL may point at any
// OpenAI-compatible server.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// NoTemperatureModels lists models that reject temperature 0.
	NoTemperatureModels []string
}

// Client implements llm.Client using Chat Completions.
type Client struct {
	client sdk.Client
	noTemp map[string]struct{}
}

// NewClient constructs a new OpenAI client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	noTemp := make(map[string]struct{})
	models := cfg.NoTemperatureModels
	if raw := strings.TrimSpace(os.Getenv("LLM_NO_TEMP0_MODELS")); raw != "" {
		models = append(models, strings.Split(raw, ",")...)
	}
	for _, m := range models {
		if m = normalizeModel(m); m != "" {
			noTemp[m] = struct{}{}
		}
	}
	return &Client{client: sdk.NewClient(opts...), noTemp: noTemp}, nil
}

// Complete sends the request, dropping temperature and retrying once if the
// model rejects it.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if strings.TrimSpace(req.Model) == "" {
		return llm.Response{}, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	withTemp := c.allowsTemperature(req.Model)
	resp, err := c.completeOnce(ctx, req, withTemp)
	if err != nil && withTemp && isTemperatureUnsupported(err) {
		telemetry.Warn("llm.temperature_unsupported", map[string]any{"model": req.Model})
		resp, err = c.completeOnce(ctx, req, false)
	}
	return resp, err
}

func (c *Client) completeOnce(ctx context.Context, req llm.Request, withTemp bool) (llm.Response, error) {
	msgs := []sdk.ChatCompletionMessageParamUnion{sdk.SystemMessage(req.System)}
	for _, m := range req.Messages() {
		msgs = append(msgs, sdk.UserMessage(m))
	}
	params := sdk.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: msgs,
	}
	if withTemp {
		params.Temperature = sdk.Float(0)
	}
	if req.JSON {
		params.ResponseFormat = sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Response{}, wrapError(err)
	}
	if len(completion.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("openai response missing choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return llm.Response{}, fmt.Errorf("openai response empty content")
	}
	usage := llm.Usage{
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		TotalTokens:      completion.Usage.TotalTokens,
	}
	telemetry.Info("llm.response", map[string]any{
		"provider":          "openai",
		"model":             req.Model,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
	})
	return llm.Response{Text: content, Model: completion.Model, Usage: usage}, nil
}

func (c *Client) allowsTemperature(model string) bool {
	if isGPT5(model) {
		return false
	}
	_, denied := c.noTemp[normalizeModel(model)]
	return !denied
}

// wrapError keeps the "openai http status N" wording that llm.ShouldRetry keys on.
func wrapError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai http status %d: %s (%s)", apiErr.StatusCode, apiErr.Message, apiErr.Type)
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
		return fmt.Errorf("openai request timeout: %w", err)
	}
	return fmt.Errorf("openai request: %w", err)
}

func isTemperatureUnsupported(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "temperature") && (strings.Contains(msg, "unsupported") || strings.Contains(msg, "does not support"))
}

func isGPT5(model string) bool {
	return strings.HasPrefix(normalizeModel(model), "gpt-5")
}

func normalizeModel(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}

var _ llm.Client = (*Client)(nil)
