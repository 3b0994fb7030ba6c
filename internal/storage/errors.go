package storage

import "errors"

// Archive errors.
var (
	// ErrDuplicateKey is returned when inserting a record whose key already
	// exists. The history archive is append-only and never updates in place.
	ErrDuplicateKey = errors.New("duplicate key: archive is append-only")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
