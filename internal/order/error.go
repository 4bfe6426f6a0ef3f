package order

import "errors"

var ErrOrderNotFound = errors.New("order not found")

// ValidationError covers malformed checkout input, a non-positive computed
// total, and illegal status transitions.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}

func validationErrorf(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}
