package generations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"resume-generator/internal/retrieval"
	"resume-generator/internal/synthesis"
	"resume-generator/internal/translation"
	"resume-generator/resume/render"
)

var (
	// ErrCache wraps cache read and write failures. It is never fatal.
	ErrCache = errors.New("cache error")

	// ErrNoExperience is returned when the user has no eligible records.
	ErrNoExperience = errors.New("no experience records found")

	// ErrInvalidRequest indicates a malformed generation request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrStorage wraps artifact storage failures.
	ErrStorage = errors.New("artifact storage failed")

	// ErrTimeout is returned by Generate when the run exceeded its deadline.
	ErrTimeout = errors.New("generation timed out")
)

// Error codes carried by error events.
const (
	CodeInvalidRequest           = "INVALID_REQUEST"
	CodeNoExperience             = "NO_EXPERIENCE"
	CodeRetrievalUnavailable     = "RETRIEVAL_UNAVAILABLE"
	CodeEmbeddingVersionMismatch = "EMBEDDING_VERSION_MISMATCH"
	CodeSynthesisError           = "SYNTHESIS_ERROR"
	CodeTranslationError         = "TRANSLATION_ERROR"
	CodeRenderError              = "RENDER_ERROR"
	CodeTimeout                  = "TIMEOUT"
	CodeInternalError            = "INTERNAL_ERROR"
)

const maxErrorMessage = 500

// Classify maps a pipeline error to its event code.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrNoExperience):
		return CodeNoExperience
	case errors.Is(err, retrieval.ErrEmbeddingVersionMismatch):
		return CodeEmbeddingVersionMismatch
	case errors.Is(err, retrieval.ErrRetrievalUnavailable):
		return CodeRetrievalUnavailable
	case errors.Is(err, synthesis.ErrSynthesis):
		return CodeSynthesisError
	case errors.Is(err, translation.ErrTranslation):
		return CodeTranslationError
	case errors.Is(err, render.ErrRender):
		return CodeRenderError
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	default:
		return CodeInternalError
	}
}

// HTTPStatus maps an error code to the status of the blocking endpoint.
func HTTPStatus(code string) int {
	switch code {
	case CodeInvalidRequest, CodeNoExperience:
		return http.StatusBadRequest
	case CodeRetrievalUnavailable, CodeEmbeddingVersionMismatch:
		return http.StatusServiceUnavailable
	case CodeSynthesisError, CodeTranslationError:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// sanitizeError flattens err into a single line capped at maxErrorMessage runes.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	runes := []rune(msg)
	if len(runes) > maxErrorMessage {
		return string(runes[:maxErrorMessage])
	}
	return msg
}
