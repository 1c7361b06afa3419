// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mapped provides a foreign runtime whose buffers are memory-mapped .bnda
// files.
//
// Example:
//
//	rt, err := mapped.New(mapped.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	h, err := rt.Open("weights.bnda", true)
//	if err != nil {
//	    return err
//	}
//	w, err := array.Adopt[float32](rt, h) // read-only, zero-copy over the file
package mapped

import (
	"github.com/born-ml/ndarray/internal/mapped"
)

// Runtime is a foreign runtime backed by memory-mapped files.
type Runtime = mapped.Runtime

// Config controls where and how a Runtime creates files.
type Config = mapped.Config

// Header is the JSON header of a .bnda file.
type Header = mapped.Header

// HeaderError describes a malformed .bnda header.
type HeaderError = mapped.HeaderError

// File format constants.
const (
	MagicBytes    = mapped.MagicBytes
	FormatVersion = mapped.FormatVersion
	FileExt       = mapped.FileExt
)

// Common errors.
var (
	ErrInvalidMagic       = mapped.ErrInvalidMagic
	ErrUnsupportedVersion = mapped.ErrUnsupportedVersion
	ErrHeaderTooLarge     = mapped.ErrHeaderTooLarge
	ErrOutOfBounds        = mapped.ErrOutOfBounds
	ErrClosed             = mapped.ErrClosed
)

// DefaultConfig places anonymous buffers in a temporary directory.
func DefaultConfig() Config {
	return mapped.DefaultConfig()
}

// New creates a runtime.
func New(cfg Config) (*Runtime, error) {
	return mapped.New(cfg)
}
