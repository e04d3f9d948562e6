package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Router picks a provider by model-id prefix, e.g. "gemini-" or "gpt-".
type Router struct {
	// DefaultModel is used when a request names no model.
	DefaultModel string
	// Fallback serves models that match no prefix.
	Fallback Client

	routes []route
}

type route struct {
	prefix string
	client Client
}

// Handle registers client for models starting with prefix. Longer prefixes win.
func (r *Router) Handle(prefix string, client Client) {
	r.routes = append(r.routes, route{prefix: strings.ToLower(prefix), client: client})
	sort.SliceStable(r.routes, func(i, j int) bool {
		return len(r.routes[i].prefix) > len(r.routes[j].prefix)
	})
}

// Resolve returns the model id that will be used for model.
func (r *Router) Resolve(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return r.DefaultModel
}

// Complete forwards req to the provider owning its model.
func (r *Router) Complete(ctx context.Context, req Request) (Response, error) {
	req.Model = r.Resolve(req.Model)
	lower := strings.ToLower(req.Model)
	for _, rt := range r.routes {
		if strings.HasPrefix(lower, rt.prefix) {
			return rt.client.Complete(ctx, req)
		}
	}
	if r.Fallback != nil {
		return r.Fallback.Complete(ctx, req)
	}
	return Response{}, fmt.Errorf("%w: model %q", ErrNotConfigured, req.Model)
}
