// Package retrieval runs similarity queries against a user's experience set.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"resume-generator/internal/embedding"
	"resume-generator/internal/experiences"
	"resume-generator/internal/shared/metrics"
)

const (
	defaultFanOut = 5
	defaultTopK   = 4
)

// Retriever embeds queries and ranks experience records against them.
// It is safe for concurrent use.
type Retriever struct {
	Repo     experiences.Repo
	Embedder embedding.Embedder
	FanOut   int
	TopK     int
}

// Results holds deduplicated records from several queries.
type Results struct {
	Records []experiences.Scored
	// Counts is the number of hits per query, in query order.
	Counts []int
}

// Queries returns how many queries produced the results.
func (r Results) Queries() int {
	return len(r.Counts)
}

// Search returns the top k records for query.
func (r *Retriever) Search(ctx context.Context, ownerID, query string, k int) ([]experiences.Scored, error) {
	if k <= 0 {
		k = r.topK()
	}
	vec, err := embedding.EmbedOne(ctx, r.Embedder, query)
	if err != nil {
		return nil, classify(ctx, err)
	}
	if err := embedding.CheckDimensions([][]float32{vec}, r.Embedder.Dimensions()); err != nil {
		return nil, classify(ctx, err)
	}
	hits, err := r.Repo.Search(ctx, ownerID, vec, k)
	if err != nil {
		return nil, classify(ctx, err)
	}
	metrics.AddRetrievalQueries(1)
	return hits, nil
}

// SearchMany runs every query with bounded concurrency and merges the hits.
// A record seen by several queries keeps its best score. The first failure
// cancels the remaining queries.
func (r *Retriever) SearchMany(ctx context.Context, ownerID string, queries []string, k int) (Results, error) {
	hits := make([][]experiences.Scored, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.fanOut())
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			res, err := r.Search(gctx, ownerID, q, k)
			if err != nil {
				return err
			}
			hits[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Results{}, err
	}

	out := Results{Counts: make([]int, len(queries))}
	index := make(map[string]int)
	for i, res := range hits {
		out.Counts[i] = len(res)
		for _, s := range res {
			if pos, ok := index[s.ID]; ok {
				if s.Score > out.Records[pos].Score {
					out.Records[pos].Score = s.Score
				}
				continue
			}
			index[s.ID] = len(out.Records)
			out.Records = append(out.Records, s)
		}
	}
	experiences.SortScored(out.Records)
	return out, nil
}

// Latest returns the owner's most recent eligible record, or nil.
func (r *Retriever) Latest(ctx context.Context, ownerID string) (*experiences.Record, error) {
	records, err := r.Repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return experiences.LatestEligible(records), nil
}

func (r *Retriever) fanOut() int {
	if r.FanOut > 0 {
		return r.FanOut
	}
	return defaultFanOut
}

func (r *Retriever) topK() int {
	if r.TopK > 0 {
		return r.TopK
	}
	return defaultTopK
}

// classify maps store and embedder failures onto the retrieval sentinels.
// Context errors pass through untouched so callers can tell a timeout apart.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, experiences.ErrDimensionMismatch), errors.Is(err, embedding.ErrDimensionMismatch):
		return fmt.Errorf("%w: %v", ErrEmbeddingVersionMismatch, err)
	default:
		return fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}
}
