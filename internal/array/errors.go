package array

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrAllocation    = errors.New("foreign runtime could not allocate array")
	ErrTypeMismatch  = errors.New("foreign buffer type or layout mismatch")
	ErrReadOnly      = errors.New("array is read-only")
	ErrRankMismatch  = errors.New("shape and strides have different ranks")
	ErrRaggedLiteral = errors.New("nested literal is ragged")
)

// MismatchError details why a foreign buffer cannot back an Array of the requested
// element type. It matches ErrTypeMismatch with errors.Is, and Err when set.
type MismatchError struct {
	Field string // "dtype", "flags", "rank", "layout" or "data"
	Want  string
	Got   string
	Err   error // underlying cause, if any
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: %s: want %s, got %s", ErrTypeMismatch, e.Field, e.Want, e.Got)
}

// Unwrap returns ErrTypeMismatch and the underlying cause.
func (e *MismatchError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTypeMismatch, e.Err}
	}
	return []error{ErrTypeMismatch}
}
