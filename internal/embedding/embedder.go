// Package embedding turns text into vectors for experience retrieval.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when a backend produces vectors of an
// unexpected length.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedder converts free text into fixed-length vectors.
type Embedder interface {
	Name() string
	Dimensions() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%s embedder returned %d vectors for 1 input", e.Name(), len(vecs))
	}
	return vecs[0], nil
}

// CheckDimensions verifies every vector has length dim.
func CheckDimensions(vecs [][]float32, dim int) error {
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}
