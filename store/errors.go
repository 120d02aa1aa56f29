package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when an update targets an id that does not exist.
var ErrNotFound = errors.New("store: not found")

// ValidationError reports input fields that are missing or invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "store: invalid fields: " + strings.Join(e.Fields, ", ")
}

// PersistenceError wraps a failure of the underlying durable write. The
// in-memory document is left on its previous committed value.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
