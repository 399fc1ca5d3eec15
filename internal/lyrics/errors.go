package lyrics

import "errors"

var (
	// ErrNotFound is returned when no entry has the requested id
	ErrNotFound = errors.New("lyrics not found")

	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("invalid lyrics entry")
)

// ValidationError reports a missing or blank field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
