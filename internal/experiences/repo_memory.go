package experiences

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores experience records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Record
	byOwner map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Record),
		byOwner: make(map[string][]string),
	}
}

// ListByOwner returns active records for the owner.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := r.active(ownerID)
	SortByStartDesc(out)
	return out, nil
}

// Search ranks the owner's active records against query.
func (r *MemoryRepo) Search(ctx context.Context, ownerID string, query []float32, k int) ([]Scored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Rank(r.active(ownerID), query, k)
}

// Insert stores new records. IDs must be unique.
func (r *MemoryRepo) Insert(ctx context.Context, records ...Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		_, exists := r.byID[rec.ID]
		_, dup := seen[rec.ID]
		if exists || dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidRecord, rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}
	for _, rec := range records {
		rec.Embedding = append([]float32(nil), rec.Embedding...)
		r.byID[rec.ID] = rec
		r.byOwner[rec.OwnerID] = append(r.byOwner[rec.OwnerID], rec.ID)
	}
	return nil
}

// Supersede hides a record from all reads.
func (r *MemoryRepo) Supersede(ctx context.Context, ownerID, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok || rec.OwnerID != ownerID || rec.SupersededAt != nil {
		return ErrNotFound
	}
	rec.SupersededAt = &at
	r.byID[id] = rec
	return nil
}

func (r *MemoryRepo) active(ownerID string) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byOwner[ownerID]
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec := r.byID[id]
		if rec.SupersededAt == nil {
			out = append(out, rec)
		}
	}
	return out
}

// SortByStartDesc orders records most recent first, then by ID.
func SortByStartDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].StartDate.Equal(records[j].StartDate) {
			return records[i].StartDate.After(records[j].StartDate)
		}
		return records[i].ID < records[j].ID
	})
}

var _ Repo = (*MemoryRepo)(nil)
