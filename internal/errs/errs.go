// Package errs holds the error kinds shared across the notification engine.
// Concrete error types in other packages match one of these with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed input, rejected before any write.
	ErrValidation = errors.New("validation error")
	// ErrTemplate aborts a single notification (missing template, missing variable).
	ErrTemplate = errors.New("template error")
	// ErrDelivery is a gateway failure, retried by a later attempt.
	ErrDelivery = errors.New("delivery error")
	// ErrConcurrencyConflict means another worker already claimed the trigger.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// ValidationError describes a single invalid field of a record.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Entity, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Invalid(entity, field, reason string) error {
	return &ValidationError{Entity: entity, Field: field, Reason: reason}
}

// Kind returns the name of the error kind err belongs to, or "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTemplate):
		return "template"
	case errors.Is(err, ErrDelivery):
		return "delivery"
	case errors.Is(err, ErrConcurrencyConflict):
		return "conflict"
	default:
		return "internal"
	}
}
