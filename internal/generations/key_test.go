package generations

import (
	"testing"

	"resume-generator/resume/render"
)

func TestKeyIsStableAndScoped(t *testing.T) {
	base := Request{UserID: testUser, JobDescription: "Go engineer\n\nBerlin", Format: render.FormatLatex, ModelID: "m1"}
	key := Key(base, "fp1")
	if len(key) != 64 {
		t.Fatalf("expected hex sha256, got %q", key)
	}

	tests := []struct {
		name        string
		mutate      func(r *Request)
		fingerprint string
		same        bool
		sameDraft   bool
	}{
		{name: "identical", mutate: func(r *Request) {}, fingerprint: "fp1", same: true, sameDraft: true},
		{name: "whitespace only", mutate: func(r *Request) { r.JobDescription = "  Go engineer Berlin " }, fingerprint: "fp1", same: true, sameDraft: true},
		{name: "format", mutate: func(r *Request) { r.Format = render.FormatWord }, fingerprint: "fp1", sameDraft: true},
		{name: "model", mutate: func(r *Request) { r.ModelID = "m2" }, fingerprint: "fp1"},
		{name: "user", mutate: func(r *Request) { r.UserID = "user_87654321" }, fingerprint: "fp1"},
		{name: "fingerprint", mutate: func(r *Request) {}, fingerprint: "fp2"},
		{name: "job description", mutate: func(r *Request) { r.JobDescription = "Rust engineer" }, fingerprint: "fp1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := base
			tt.mutate(&req)
			if got := Key(req, tt.fingerprint) == key; got != tt.same {
				t.Fatalf("key equality = %v, want %v", got, tt.same)
			}
			if got := DraftKey(req, tt.fingerprint) == DraftKey(base, "fp1"); got != tt.sameDraft {
				t.Fatalf("draft key equality = %v, want %v", got, tt.sameDraft)
			}
		})
	}
}

func TestDraftKeyDiffersFromKey(t *testing.T) {
	req := Request{UserID: testUser, JobDescription: "Go", Format: render.FormatLatex}
	if Key(req, "fp") == DraftKey(req, "fp") {
		t.Fatalf("expected draft key to differ from full key")
	}
}
