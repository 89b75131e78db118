package risk

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing input: an absent signal field
// with no configured fallback, or an out-of-range feedback rating. It is
// propagated to the caller unchanged, never retried, and never mutates state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ComputationError reports a numeric failure inside the engine, such as a
// non-finite intermediate value. Callers fall back to the previous cached
// status rather than failing the request.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed in %s: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// errNonFinite marks a NaN or infinite intermediate value.
var errNonFinite = errors.New("non-finite value")

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsComputation reports whether err is (or wraps) a ComputationError.
func IsComputation(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce)
}
