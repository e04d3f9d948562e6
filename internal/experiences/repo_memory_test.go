package experiences

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoSupersedeHidesRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	if err := repo.Insert(ctx, rec("a", KindJob, "2020-01", 1, 0), rec("b", KindJob, "2021-01", 0, 1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := repo.Supersede(ctx, "user_12345678", "b", time.Now()); err != nil {
		t.Fatalf("Supersede: %v", err)
	}
	list, err := repo.ListByOwner(ctx, "user_12345678")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 1 || list[0].ID != "a" {
		t.Fatalf("expected only a, got %+v", list)
	}
	found, err := repo.Search(ctx, "user_12345678", []float32{0, 1}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 || found[0].ID != "a" {
		t.Fatalf("superseded record returned by search: %v", ids(found))
	}

	if err := repo.Supersede(ctx, "user_12345678", "b", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second supersede, got %v", err)
	}
}

func TestMemoryRepoIsolatesOwners(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	other := rec("x", KindJob, "2020-01", 1, 0)
	other.OwnerID = "someone_else"
	if err := repo.Insert(ctx, rec("a", KindJob, "2020-01", 1, 0), other); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := repo.Supersede(ctx, "user_12345678", "x", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign record, got %v", err)
	}
	found, _ := repo.Search(ctx, "user_12345678", []float32{1, 0}, 5)
	if len(found) != 1 || found[0].ID != "a" {
		t.Fatalf("unexpected search result %v", ids(found))
	}
}

func TestMemoryRepoRejectsDuplicateIDs(t *testing.T) {
	repo := NewMemoryRepo()
	err := repo.Insert(context.Background(), rec("a", KindJob, "2020-01"), rec("a", KindJob, "2020-01"))
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}
