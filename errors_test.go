package puzzles

import (
	"errors"
	"strings"
	"testing"
)

func TestStructuredErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantOp   string
		wantMsg  string
		checkFn  func(error) bool
	}{
		{
			name:     "Invalid Size Error",
			err:      ErrInvalidSize,
			wantType: ErrTypeInvalidArg,
			wantOp:   "Malloc",
			wantMsg:  "size must be non-negative",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Null Pointer Error",
			err:      ErrNullPointer,
			wantType: ErrTypeInvalidArg,
			wantOp:   "Memory",
			wantMsg:  "null pointer",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Double Free Error",
			err:      ErrDoubleFree,
			wantType: ErrTypeMemory,
			wantOp:   "Free",
			wantMsg:  "double free detected",
			checkFn:  IsMemoryError,
		},
		{
			name:     "Invalid Device Error",
			err:      ErrInvalidDevice,
			wantType: ErrTypeInvalidArg,
			wantOp:   "SetDevice",
			wantMsg:  "invalid device ID",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Config Error",
			err:      NewConfigError("Launch", "block size exceeds device maximum"),
			wantType: ErrTypeConfig,
			wantOp:   "Launch",
			wantMsg:  "block size exceeds device maximum",
			checkFn:  IsConfigError,
		},
		{
			name:     "Execution Error",
			err:      NewExecutionError("Synchronize", "device fault", nil),
			wantType: ErrTypeExecution,
			wantOp:   "Synchronize",
			wantMsg:  "device fault",
			checkFn:  IsExecutionError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr, ok := tt.err.(*PuzzleError)
			if !ok {
				t.Fatalf("Expected PuzzleError, got %T", tt.err)
			}

			if perr.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", perr.Type, tt.wantType)
			}
			if perr.Op != tt.wantOp {
				t.Errorf("Op = %v, want %v", perr.Op, tt.wantOp)
			}
			if perr.Message != tt.wantMsg {
				t.Errorf("Message = %v, want %v", perr.Message, tt.wantMsg)
			}
			if !tt.checkFn(tt.err) {
				t.Errorf("Type check function returned false")
			}

			errStr := tt.err.Error()
			if !strings.Contains(errStr, tt.wantOp) || !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("Error string %q missing op or message", errStr)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	baseErr := errors.New("base error")
	wrappedErr := NewMemoryError("Test", "wrapped error", baseErr)

	perr, ok := wrappedErr.(*PuzzleError)
	if !ok {
		t.Fatal("Expected PuzzleError")
	}

	if unwrapped := perr.Unwrap(); unwrapped != baseErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, baseErr)
	}

	if !errors.Is(wrappedErr, baseErr) {
		t.Error("errors.Is() should return true for wrapped error")
	}
}

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrTypeMemory, "Memory"},
		{ErrTypeInvalidArg, "InvalidArgument"},
		{ErrTypeConfig, "Configuration"},
		{ErrTypeExecution, "Execution"},
		{ErrTypeNumerical, "Numerical"},
		{ErrTypeDevice, "Device"},
		{ErrorType(999), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.errType.String()
			if got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredicatesRejectOtherTypes(t *testing.T) {
	plain := errors.New("plain error")
	if IsMemoryError(plain) || IsInvalidArgError(plain) || IsConfigError(plain) || IsExecutionError(plain) {
		t.Error("predicates should reject non-PuzzleError values")
	}
	if IsMemoryError(nil) {
		t.Error("predicates should reject nil")
	}
	if IsExecutionError(ErrDoubleFree) {
		t.Error("memory error should not satisfy IsExecutionError")
	}
}
