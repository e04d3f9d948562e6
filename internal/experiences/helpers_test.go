package experiences

import (
	"context"
	"time"
)

func month(raw string) time.Time {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		panic(err)
	}
	return t
}

func monthPtr(raw string) *time.Time {
	t := month(raw)
	return &t
}

func rec(id string, kind Kind, start string, emb ...float32) Record {
	r := Record{
		ID:        id,
		OwnerID:   "user_12345678",
		Kind:      kind,
		Company:   "Company " + id,
		Role:      "Engineer",
		Embedding: emb,
		CreatedAt: month("2024-01"),
	}
	if start != "" {
		r.StartDate = month(start)
	}
	return r
}

// stubEmbedder maps every text to a fixed-length vector derived from its length.
type stubEmbedder struct {
	dim   int
	calls int
	err   error
}

func (s *stubEmbedder) Name() string    { return "stub" }
func (s *stubEmbedder) Dimensions() int { return s.dim }

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, s.dim)
		v[0] = float32(len(t))
		v[len(v)-1] = 1
		out[i] = v
	}
	return out, nil
}
