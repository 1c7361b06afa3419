package mapped

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrOutOfBounds        = errors.New("array data extends beyond file")
	ErrClosed             = errors.New("runtime is closed")
)

// HeaderError provides detailed information about a malformed .bnda header.
type HeaderError struct {
	Path    string // File the header was read from, if known
	Field   string // Offending header field
	Details string // Additional details
	Err     error  // Underlying sentinel, if any
}

// Error implements the error interface.
func (e *HeaderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Field, e.Details)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying sentinel.
func (e *HeaderError) Unwrap() error {
	return e.Err
}
