package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"resume-generator/internal/shared/storage/object"
)

func TestPutOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key := object.ArtifactKey("user_12345678", "k1", "resume.tex")
	n, err := store.Put(ctx, key, "application/x-tex", strings.NewReader("\\documentclass{article}"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len("\\documentclass{article}")) {
		t.Fatalf("unexpected size %d", n)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "\\documentclass{article}" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestOpenMissingReturnsNotFound(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Open(context.Background(), "artifacts/x/y/resume.pdf")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	tests := []string{"../escape.pdf", "/etc/passwd", "."}
	for _, key := range tests {
		if _, err := store.Put(context.Background(), key, "application/pdf", strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}
