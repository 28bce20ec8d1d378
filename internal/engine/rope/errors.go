package rope

import (
	"errors"
	"fmt"
)

// Errors returned by rope operations.
var (
	// ErrConstructionOverflow is returned when the combined length of two
	// operands exceeds the maximum representable length.
	ErrConstructionOverflow = errors.New("rope: length overflow")

	// ErrIndexOutOfRange is returned for an index or range outside [0, Len()].
	ErrIndexOutOfRange = errors.New("rope: index out of range")

	// ErrAllocationFailure is returned when a flatten cannot obtain its buffer.
	ErrAllocationFailure = errors.New("rope: allocation failure")

	// ErrDecodeTarget is returned when decoding into a Rope that already
	// holds content.
	ErrDecodeTarget = errors.New("rope: decode target is not a zero Rope")
)

// IndexError reports an invalid index or range passed to CharAt or SubSequence.
type IndexError struct {
	// Op is the operation that failed ("CharAt" or "SubSequence").
	Op string
	// Index is the offending index for CharAt.
	Index int
	// Start and End are the offending range for SubSequence.
	Start, End int
	// Len is the length of the value at the time of the call.
	Len int
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.Op == "SubSequence" {
		return fmt.Sprintf("rope: %s [%d:%d] out of range with length %d", e.Op, e.Start, e.End, e.Len)
	}
	return fmt.Sprintf("rope: %s index %d out of range with length %d", e.Op, e.Index, e.Len)
}

// Unwrap returns ErrIndexOutOfRange.
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// OverflowError reports a concatenation whose length would exceed Limit.
type OverflowError struct {
	Left, Right int
	Limit       int
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("rope: length overflow: %d + %d exceeds %d", e.Left, e.Right, e.Limit)
}

// Unwrap returns ErrConstructionOverflow.
func (e *OverflowError) Unwrap() error {
	return ErrConstructionOverflow
}

// AllocationError reports a flatten that could not allocate Size bytes.
type AllocationError struct {
	Size   int
	Reason string
}

// Error implements the error interface.
func (e *AllocationError) Error() string {
	return fmt.Sprintf("rope: cannot allocate %d bytes: %s", e.Size, e.Reason)
}

// Unwrap returns ErrAllocationFailure.
func (e *AllocationError) Unwrap() error {
	return ErrAllocationFailure
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return &IndexError{Op: "CharAt", Index: i, Len: n}
	}
	return nil
}

func checkRange(start, end, n int) error {
	if start < 0 || start > end || end > n {
		return &IndexError{Op: "SubSequence", Start: start, End: end, Len: n}
	}
	return nil
}
