// Package gemini embeds text with the Gemini embeddings API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"resume-generator/internal/embedding"
)

const defaultModel = "text-embedding-004"

// Config configures the embedder.
type Config struct {
	APIKey     string
	Model      string
	Dimensions int
}

// Embedder calls Models.EmbedContent.
type Embedder struct {
	client *genai.Client
	model  string
	dim    int
}

// New creates an Embedder backed by the Gemini API.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini embedder: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 768
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Embedder{client: client, model: cfg.Model, dim: cfg.Dimensions}, nil
}

func (e *Embedder) Name() string    { return "gemini" }
func (e *Embedder) Dimensions() int { return e.dim }

// Embed returns one vector per text in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr[int32](int32(e.dim)),
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embeddings: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}
	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		out[i] = emb.Values
	}
	if err := embedding.CheckDimensions(out, e.dim); err != nil {
		return nil, err
	}
	return out, nil
}

var _ embedding.Embedder = (*Embedder)(nil)
