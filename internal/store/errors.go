package store

import (
	"errors"
	"fmt"

	"github.com/complaintdesk/backend/internal/models"
)

// ErrNotFound is returned when an operation targets an id absent from the
// relevant collection.
var ErrNotFound = errors.New("store: record not found")

// ValidationError identifies the offending field and a human-readable reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("store: validation failed on %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failed write to the underlying key-value store.
// The in-memory state keeps its pre-mutation value when this is returned.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: failed to persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ImportFormatError rejects a document that lacks the expected export shape.
// No partial merge occurs.
type ImportFormatError struct {
	Reason string
}

func (e *ImportFormatError) Error() string {
	return "store: invalid import document: " + e.Reason
}

// TransitionError reports a status move the lifecycle does not allow.
type TransitionError struct {
	From models.Status
	To   models.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("store: illegal status transition %s -> %s", e.From, e.To)
}
