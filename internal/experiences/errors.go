package experiences

import "errors"

var (
	// ErrNotFound indicates the record does not exist or is superseded.
	ErrNotFound = errors.New("experience record not found")

	// ErrInvalidRecord indicates a record failed validation.
	ErrInvalidRecord = errors.New("invalid experience record")

	// ErrDimensionMismatch indicates a stored embedding and a query embedding
	// have different lengths.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
