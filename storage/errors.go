// Package storage holds the errors shared by the persistent stores of a
// replica. The badger operations translate badger's own errors into these.
package storage

import "errors"

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("key not found")

	// ErrAlreadyExists is returned by insert operations on a taken key.
	ErrAlreadyExists = errors.New("key already exists")
)
