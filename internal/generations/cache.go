package generations

import (
	"context"

	"resume-generator/resume/model"
)

// Cache memoizes results by idempotency key.
type Cache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	// GetDraft returns the draft of any result stored under draftKey.
	GetDraft(ctx context.Context, draftKey string) (model.Draft, bool, error)
	// Put stores res unless its key already exists.
	Put(ctx context.Context, res Result) error
	// InvalidateUser drops every entry of the user.
	InvalidateUser(ctx context.Context, userID string) error
	// PurgeStale drops the user's entries built from another fingerprint.
	PurgeStale(ctx context.Context, userID, fingerprint string) error
}
