package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidStayRange  = errors.New("check-out must be after check-in")
	ErrInvalidDraft      = errors.New("invalid reservation")
	ErrCapacityExceeded  = errors.New("guest count exceeds property capacity")
	ErrDatesUnavailable  = errors.New("dates are not available")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrForbidden         = errors.New("forbidden")
)

// ConflictError reports which active reservations clash with a requested stay.
// The IDs are for logs and diagnostics only; user-facing responses must reduce
// this to a plain "unavailable" signal.
type ConflictError struct {
	ResourceID     uuid.UUID
	ConflictingIDs []uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource %s: %d conflicting reservation(s)", e.ResourceID, len(e.ConflictingIDs))
}

func (e *ConflictError) Unwrap() error {
	return ErrDatesUnavailable
}
