// Package puzzles structured error types for better error handling
package puzzles

import (
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Memory errors
	ErrTypeMemory ErrorType = iota
	// Invalid argument errors
	ErrTypeInvalidArg
	// Launch configuration errors (bad grid/block shape, oversized tiles)
	ErrTypeConfig
	// Execution errors (device-side faults surfaced at Synchronize)
	ErrTypeExecution
	// Numerical errors
	ErrTypeNumerical
	// Device errors
	ErrTypeDevice
)

// PuzzleError represents a structured error with context
type PuzzleError struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *PuzzleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("puzzles: %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("puzzles: %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *PuzzleError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeMemory:
		return "Memory"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeConfig:
		return "Configuration"
	case ErrTypeExecution:
		return "Execution"
	case ErrTypeNumerical:
		return "Numerical"
	case ErrTypeDevice:
		return "Device"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewMemoryError creates a memory-related error
func NewMemoryError(op string, message string, err error) error {
	return &PuzzleError{
		Type:    ErrTypeMemory,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &PuzzleError{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewConfigError creates a launch-configuration error
func NewConfigError(op string, message string) error {
	return &PuzzleError{
		Type:    ErrTypeConfig,
		Op:      op,
		Message: message,
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &PuzzleError{
		Type:    ErrTypeExecution,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewNumericalError creates a numerical error
func NewNumericalError(op string, message string) error {
	return &PuzzleError{
		Type:    ErrTypeNumerical,
		Op:      op,
		Message: message,
	}
}

// Common pre-defined errors

var (
	// ErrInvalidSize indicates a negative size parameter
	ErrInvalidSize = NewInvalidArgError("Malloc", "size must be non-negative")

	// ErrNullPointer indicates null pointer access
	ErrNullPointer = NewInvalidArgError("Memory", "null pointer")

	// ErrDoubleFree indicates double free attempt
	ErrDoubleFree = NewMemoryError("Free", "double free detected", nil)

	// ErrInvalidDevice indicates invalid device ID
	ErrInvalidDevice = NewInvalidArgError("SetDevice", "invalid device ID")
)

// IsMemoryError checks if an error is a memory error
func IsMemoryError(err error) bool {
	if e, ok := err.(*PuzzleError); ok {
		return e.Type == ErrTypeMemory
	}
	return false
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	if e, ok := err.(*PuzzleError); ok {
		return e.Type == ErrTypeInvalidArg
	}
	return false
}

// IsConfigError checks if an error is a launch-configuration error
func IsConfigError(err error) bool {
	if e, ok := err.(*PuzzleError); ok {
		return e.Type == ErrTypeConfig
	}
	return false
}

// IsExecutionError checks if an error is a device-side execution error
func IsExecutionError(err error) bool {
	if e, ok := err.(*PuzzleError); ok {
		return e.Type == ErrTypeExecution
	}
	return false
}
