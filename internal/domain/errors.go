package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during fitting and evaluation.
var (
	// ErrNotFitted indicates that Predict was called before a successful Fit.
	ErrNotFitted = errors.New("model not fitted")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrShapeMismatch indicates that an input row does not line up with the
	// configured KPIs.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidReading indicates that a KPI reading is NaN or infinite.
	ErrInvalidReading = errors.New("invalid reading")
)

// ErrorKind classifies evaluation failures. The set is closed; every error
// produced by the estimator maps to exactly one kind.
type ErrorKind int

const (
	// KindUnknown is returned by KindOf for errors that did not originate here.
	KindUnknown ErrorKind = iota
	KindNotFitted
	KindInvalidConfiguration
	KindShapeMismatch
	KindInvalidReading
)

// String returns the snake_case name of the kind, suitable for metric labels.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFitted:
		return "not_fitted"
	case KindInvalidConfiguration:
		return "invalid_configuration"
	case KindShapeMismatch:
		return "shape_mismatch"
	case KindInvalidReading:
		return "invalid_reading"
	default:
		return "unknown"
	}
}

// KindOf maps an error to its ErrorKind by inspecting the wrapped sentinel.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFitted):
		return KindNotFitted
	case errors.Is(err, ErrInvalidConfiguration):
		return KindInvalidConfiguration
	case errors.Is(err, ErrShapeMismatch):
		return KindShapeMismatch
	case errors.Is(err, ErrInvalidReading):
		return KindInvalidReading
	default:
		return KindUnknown
	}
}

// EvaluationError represents an error that occurred while evaluating a row.
// It records which operation and which input row caused the failure.
type EvaluationError struct {
	// Op is the operation that was being performed (fit, predict).
	Op string

	// Row is the zero-based index of the offending input row, or -1 when
	// the failure is not tied to a row.
	Row int

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for EvaluationError.
func (e *EvaluationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("evaluation error: operation=%s, err=%v", e.Op, e.Err)
	}
	return fmt.Sprintf("evaluation error: operation=%s, row=%d, err=%v", e.Op, e.Row, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *EvaluationError) Unwrap() error { return e.Err }

// Kind reports the ErrorKind of the wrapped error.
func (e *EvaluationError) Kind() ErrorKind { return KindOf(e.Err) }

// NewEvaluationError creates a new EvaluationError with the given details.
func NewEvaluationError(op string, row int, err error) *EvaluationError {
	return &EvaluationError{
		Op:  op,
		Row: row,
		Err: err,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// AddErrorf formats and adds a new error message to the validation error.
func (e *ValidationError) AddErrorf(format string, args ...any) {
	e.AddError(fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// Unwrap ties every ValidationError to ErrInvalidConfiguration so callers can
// test for the kind with errors.Is.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
