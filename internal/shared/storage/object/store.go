package object

import (
	"context"
	"errors"
	"io"
	"path"

	"resume-generator/internal/shared/util"
)

// ErrNotFound is returned by Open when no object exists at the key.
var ErrNotFound = errors.New("object not found")

// Store defines the contract for saving and retrieving generated artifacts.
type Store interface {
	Put(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// ArtifactKey returns the storage key of a generated file. The user ID is hashed
// so keys never leak raw identifiers.
func ArtifactKey(userID, generationKey, fileName string) string {
	return path.Join("artifacts", util.HashUserKey(userID), generationKey, fileName)
}
