package generations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"resume-generator/internal/retrieval"
	"resume-generator/internal/synthesis"
	"resume-generator/internal/translation"
	"resume-generator/resume/render"
)

func TestClassifyAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{name: "invalid", err: fmt.Errorf("%w: bad format", ErrInvalidRequest), code: CodeInvalidRequest, status: http.StatusBadRequest},
		{name: "no experience", err: ErrNoExperience, code: CodeNoExperience, status: http.StatusBadRequest},
		{name: "retrieval", err: fmt.Errorf("%w: timeout", retrieval.ErrRetrievalUnavailable), code: CodeRetrievalUnavailable, status: http.StatusServiceUnavailable},
		{name: "embedding", err: retrieval.ErrEmbeddingVersionMismatch, code: CodeEmbeddingVersionMismatch, status: http.StatusServiceUnavailable},
		{name: "synthesis", err: fmt.Errorf("%w: schema", synthesis.ErrSynthesis), code: CodeSynthesisError, status: http.StatusBadGateway},
		{name: "translation", err: fmt.Errorf("%w: drift", translation.ErrTranslation), code: CodeTranslationError, status: http.StatusBadGateway},
		{name: "render", err: fmt.Errorf("%w: exit 1", render.ErrRender), code: CodeRenderError, status: http.StatusInternalServerError},
		{name: "deadline", err: context.DeadlineExceeded, code: CodeTimeout, status: http.StatusGatewayTimeout},
		{name: "storage", err: fmt.Errorf("%w: denied", ErrStorage), code: CodeInternalError, status: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), code: CodeInternalError, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code := Classify(tt.err)
			if code != tt.code {
				t.Fatalf("Classify() = %s, want %s", code, tt.code)
			}
			if got := HTTPStatus(code); got != tt.status {
				t.Fatalf("HTTPStatus(%s) = %d, want %d", code, got, tt.status)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	got := sanitizeError(errors.New("line one\n\tline   two"))
	if got != "line one line two" {
		t.Fatalf("unexpected message %q", got)
	}

	long := sanitizeError(errors.New(strings.Repeat("é", 800)))
	if utf8.RuneCountInString(long) != maxErrorMessage {
		t.Fatalf("expected %d runes, got %d", maxErrorMessage, utf8.RuneCountInString(long))
	}
	if sanitizeError(nil) != "" {
		t.Fatalf("expected empty message for nil")
	}
}
