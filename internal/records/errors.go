package records

import "errors"

var (
	// ErrNotFound is returned when no record matches the user and id.
	ErrNotFound = errors.New("record not found")
	// ErrPersistence wraps every failure of Save.
	ErrPersistence = errors.New("persist analysis record")
	// ErrInvalidRecord rejects input that would violate record invariants.
	ErrInvalidRecord = errors.New("invalid analysis record")
)
