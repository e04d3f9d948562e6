package experiences

import (
	"context"
	"time"
)

// Repo defines persistence and similarity search for experience records.
// Superseded records are invisible to every read.
type Repo interface {
	// ListByOwner returns active records ordered by start date descending.
	ListByOwner(ctx context.Context, ownerID string) ([]Record, error)
	// Search returns the k searchable records most similar to query.
	Search(ctx context.Context, ownerID string, query []float32, k int) ([]Scored, error)
	Insert(ctx context.Context, records ...Record) error
	Supersede(ctx context.Context, ownerID, id string, at time.Time) error
}
