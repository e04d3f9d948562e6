package object

import (
	"strings"
	"testing"
)

func TestArtifactKey(t *testing.T) {
	got := ArtifactKey("user_12345678", "abc123", "resume.pdf")
	if !strings.HasPrefix(got, "artifacts/") {
		t.Fatalf("expected artifacts prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "/abc123/resume.pdf") {
		t.Fatalf("expected key and file suffix, got %q", got)
	}
	if strings.Contains(got, "user_12345678") {
		t.Fatalf("raw user id leaked into key %q", got)
	}
}
