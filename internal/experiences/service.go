package experiences

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-generator/internal/embedding"
)

// ChangeHook is called after a user's experience set changes.
type ChangeHook func(ctx context.Context, ownerID string)

// Input is an already-validated experience row as supplied by ingestion.
type Input struct {
	Kind        Kind   `json:"kind" yaml:"kind"`
	Company     string `json:"company" yaml:"company"`
	Location    string `json:"location" yaml:"location"`
	Role        string `json:"role" yaml:"role"`
	StartDate   string `json:"start_date" yaml:"start_date"`
	EndDate     string `json:"end_date" yaml:"end_date"`
	Description string `json:"description" yaml:"description"`
}

// Service owns writes to the experience store. Writes embed searchable
// records and notify change hooks so dependent caches can be invalidated.
type Service struct {
	Repo     Repo
	Embedder embedding.Embedder
	Now      func() time.Time

	mu    sync.RWMutex
	hooks []ChangeHook
}

// OnChange registers a hook fired after every successful write.
func (s *Service) OnChange(h ChangeHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// Snapshot lists the owner's records and summarizes them.
func (s *Service) Snapshot(ctx context.Context, ownerID string) (Snapshot, error) {
	records, err := s.Repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(ownerID, records), nil
}

// Add embeds and stores new records.
func (s *Service) Add(ctx context.Context, ownerID string, inputs []Input) ([]Record, error) {
	if len(inputs) == 0 {
		return []Record{}, nil
	}
	records := make([]Record, len(inputs))
	now := s.now()
	for i, in := range inputs {
		rec, err := in.toRecord(ownerID)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rec.ID = uuid.NewString()
		rec.CreatedAt = now
		records[i] = rec
	}
	if err := s.embed(ctx, records); err != nil {
		return nil, err
	}
	if err := s.Repo.Insert(ctx, records...); err != nil {
		return nil, err
	}
	s.notify(ctx, ownerID)
	return records, nil
}

// Replace supersedes record id with a new version built from in.
func (s *Service) Replace(ctx context.Context, ownerID, id string, in Input) (Record, error) {
	rec, err := in.toRecord(ownerID)
	if err != nil {
		return Record{}, err
	}
	now := s.now()
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	records := []Record{rec}
	if err := s.embed(ctx, records); err != nil {
		return Record{}, err
	}
	if err := s.Repo.Supersede(ctx, ownerID, id, now); err != nil {
		return Record{}, err
	}
	if err := s.Repo.Insert(ctx, records...); err != nil {
		return Record{}, err
	}
	s.notify(ctx, ownerID)
	return records[0], nil
}

// Remove supersedes record id without a replacement.
func (s *Service) Remove(ctx context.Context, ownerID, id string) error {
	if err := s.Repo.Supersede(ctx, ownerID, id, s.now()); err != nil {
		return err
	}
	s.notify(ctx, ownerID)
	return nil
}

func (s *Service) embed(ctx context.Context, records []Record) error {
	var (
		texts []string
		idx   []int
	)
	for i, r := range records {
		if r.Kind.Searchable() {
			texts = append(texts, r.EmbeddingText())
			idx = append(idx, i)
		}
	}
	if len(texts) == 0 {
		return nil
	}
	if s.Embedder == nil {
		return fmt.Errorf("experiences: no embedder configured")
	}
	vecs, err := s.Embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed records: %w", err)
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("embed records: got %d vectors for %d records", len(vecs), len(texts))
	}
	if err := embedding.CheckDimensions(vecs, s.Embedder.Dimensions()); err != nil {
		return err
	}
	for i, v := range vecs {
		records[idx[i]].Embedding = v
	}
	return nil
}

func (s *Service) notify(ctx context.Context, ownerID string) {
	s.mu.RLock()
	hooks := append([]ChangeHook(nil), s.hooks...)
	s.mu.RUnlock()
	for _, h := range hooks {
		h(ctx, ownerID)
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (in Input) toRecord(ownerID string) (Record, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(string(in.Kind))))
	if !kind.Valid() {
		return Record{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, in.Kind)
	}
	rec := Record{
		OwnerID:     ownerID,
		Kind:        kind,
		Company:     strings.TrimSpace(in.Company),
		Location:    strings.TrimSpace(in.Location),
		Role:        strings.TrimSpace(in.Role),
		Description: strings.TrimSpace(in.Description),
	}
	if rec.Company == "" {
		return Record{}, fmt.Errorf("%w: company is required", ErrInvalidRecord)
	}

	var err error
	if strings.TrimSpace(in.StartDate) != "" {
		if rec.StartDate, err = ParseDate(in.StartDate); err != nil {
			return Record{}, fmt.Errorf("%w: start_date: %v", ErrInvalidRecord, err)
		}
	}
	if end := strings.TrimSpace(in.EndDate); end != "" && !strings.EqualFold(end, "present") {
		t, err := ParseDate(end)
		if err != nil {
			return Record{}, fmt.Errorf("%w: end_date: %v", ErrInvalidRecord, err)
		}
		if !rec.StartDate.IsZero() && t.Before(rec.StartDate) {
			return Record{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidRecord)
		}
		rec.EndDate = &t
	}

	if kind.Eligible() {
		if rec.Role == "" {
			return Record{}, fmt.Errorf("%w: role is required for %s", ErrInvalidRecord, kind)
		}
		if rec.StartDate.IsZero() {
			return Record{}, fmt.Errorf("%w: start_date is required for %s", ErrInvalidRecord, kind)
		}
	}
	return rec, nil
}

// ParseDate accepts YYYY-MM-DD or YYYY-MM.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
