// Package llm abstracts the generative model providers used by synthesis
// and translation.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured is returned when no provider serves the requested model.
var ErrNotConfigured = errors.New("llm provider not configured")

// Client completes a prompt and returns the raw model text.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Request is a single completion call. Corrections are appended as extra
// user turns after a failed validation.
type Request struct {
	Model       string
	System      string
	User        string
	Corrections []string
	// JSON asks the provider for a JSON object response when supported.
	JSON bool
}

// Response is the provider output.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Usage reports token counts when the provider returns them.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Messages flattens the request into user turns in send order.
func (r Request) Messages() []string {
	out := make([]string, 0, 1+len(r.Corrections))
	out = append(out, r.User)
	for _, c := range r.Corrections {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
