package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a workshop, student or registration does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRegistrationNotFound is returned when the student holds no seat in the workshop.
	ErrRegistrationNotFound = fmt.Errorf("registration %w", ErrNotFound)

	// ErrForbidden is returned when the caller's role does not allow the action.
	ErrForbidden = errors.New("forbidden")

	// ErrCapacityExceeded is returned when a workshop has no remaining seats.
	ErrCapacityExceeded = errors.New("workshop is fully booked")

	// ErrAlreadyRegistered is returned when the student already holds a seat.
	ErrAlreadyRegistered = errors.New("student already registered for this workshop")

	// ErrConflict is returned when a conditional write kept losing to
	// concurrent writers until the caller's deadline passed.
	ErrConflict = errors.New("concurrent modification, retry the request")
)

// ValidationError reports malformed or missing input. It is raised before
// any store access.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return e.Reason + ": " + strings.Join(e.Fields, ", ")
}

// NewValidationError builds a ValidationError.
func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{Reason: reason, Fields: fields}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConflict reports whether err is one of the invariant-violation errors.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrConflict)
}
