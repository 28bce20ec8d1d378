package app

import (
	"errors"
	"testing"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "op only",
			err:      &OperationError{Op: "export"},
			expected: "export",
		},
		{
			name:     "op and target",
			err:      &OperationError{Op: "eval", Target: "greet.lua"},
			expected: "eval greet.lua",
		},
		{
			name:     "full error chain",
			err:      NewOperationError("put", "k", errors.New("disk full")).WithContext("sqlite"),
			expected: "put k (sqlite): disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	err := NewOperationError("eval", "x.lua", ErrUnknownLanguage)
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Error("errors.Is should see the wrapped sentinel")
	}

	var nilErr *OperationError
	if nilErr.Unwrap() != nil {
		t.Error("nil receiver should unwrap to nil")
	}
	if nilErr.WithContext("x") != nil {
		t.Error("nil receiver WithContext should return nil")
	}
}

func TestComponentError(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		err      *ComponentError
		expected string
	}{
		{&ComponentError{Component: "store"}, "store"},
		{&ComponentError{Component: "store", Action: "open"}, "store: open"},
		{&ComponentError{Component: "store", Err: base}, "store: boom"},
		{&ComponentError{Component: "store", Action: "open", Err: base}, "store: open: boom"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Error() = %q, want %q", got, tt.expected)
		}
	}

	if !errors.Is(&ComponentError{Component: "store", Err: base}, base) {
		t.Error("errors.Is should see the wrapped error")
	}
}
