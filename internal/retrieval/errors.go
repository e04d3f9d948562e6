package retrieval

import "errors"

var (
	ErrRetrievalUnavailable     = errors.New("retrieval unavailable")
	ErrEmbeddingVersionMismatch = errors.New("embedding version mismatch")
)
