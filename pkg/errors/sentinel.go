package errors

import (
	"errors"
	"fmt"
)

// InsufficientDataError represents an error when there is not enough data
// for a calculation (e.g., indicator calculations requiring a minimum period,
// or a backtest invoked with an empty candle series).
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}

// UnknownDurationError is returned when an unrecognized duration value is
// passed to bucket truncation logic. It aborts the ingest call for the
// offending tick only.
type UnknownDurationError struct {
	Value string
}

// NewUnknownDurationError creates a new UnknownDurationError.
func NewUnknownDurationError(value string) *UnknownDurationError {
	return &UnknownDurationError{Value: value}
}

// Error implements the error interface.
func (e *UnknownDurationError) Error() string {
	return fmt.Sprintf("unknown candle duration %q", e.Value)
}

// IsUnknownDurationError checks if an error is an UnknownDurationError.
func IsUnknownDurationError(err error) bool {
	var unknownErr *UnknownDurationError

	return errors.As(err, &unknownErr)
}

// DegenerateParameterError marks a parameter combination that violates a
// declared ordering constraint (e.g. fast >= slow). The optimizer skips
// these combinations silently; callers invoking the engine directly see
// the error.
type DegenerateParameterError struct {
	Constraint string
}

// NewDegenerateParameterError creates a new DegenerateParameterError.
func NewDegenerateParameterError(constraint string) *DegenerateParameterError {
	return &DegenerateParameterError{Constraint: constraint}
}

// Error implements the error interface.
func (e *DegenerateParameterError) Error() string {
	return fmt.Sprintf("degenerate parameter combination: %s", e.Constraint)
}

// IsDegenerateParameterError checks if an error is a DegenerateParameterError.
func IsDegenerateParameterError(err error) bool {
	var degenerateErr *DegenerateParameterError

	return errors.As(err, &degenerateErr)
}
