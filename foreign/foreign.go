// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package foreign defines the runtime contract arrays are adapted from, and an
// in-process Heap runtime.
//
// A Runtime owns reference-counted buffers behind opaque handles. Implement it to
// expose another memory manager (a GPU staging area, a shared-memory segment) to the
// array package.
package foreign

import (
	"github.com/born-ml/ndarray/internal/foreign"
)

// Runtime is the foreign runtime consumed by arrays.
type Runtime = foreign.Runtime

// Handle is an opaque reference to a buffer. Zero is the null handle.
type Handle = foreign.Handle

// Descriptor is the buffer-protocol description of a handle.
type Descriptor = foreign.Descriptor

// Flags describe properties of a foreign buffer.
type Flags = foreign.Flags

// Buffer flags.
const (
	Aligned     Flags = foreign.Aligned
	Writable    Flags = foreign.Writable
	CContiguous Flags = foreign.CContiguous
	FContiguous Flags = foreign.FContiguous
	OwnsData    Flags = foreign.OwnsData
)

// Ref is an ownership-tagged reference to a handle.
type Ref = foreign.Ref

// Heap is an in-process runtime keeping buffers on the Go heap.
type Heap = foreign.Heap

// Common errors.
var (
	ErrInvalidHandle = foreign.ErrInvalidHandle
	ErrUnsupported   = foreign.ErrUnsupported
	ErrInvalidBool   = foreign.ErrInvalidBool
)

// NewHeap creates an empty heap runtime.
func NewHeap() *Heap {
	return foreign.NewHeap()
}

// Borrow returns a Ref acquiring one reference to h.
func Borrow(rt Runtime, h Handle) Ref {
	return foreign.Borrow(rt, h)
}

// Adopt returns a Ref taking over a reference the caller already holds.
func Adopt(rt Runtime, h Handle) Ref {
	return foreign.Adopt(rt, h)
}

// ContiguityFlags computes CContiguous and FContiguous for a layout given in bytes.
func ContiguityFlags(shape, byteStrides []int, elemSize int) Flags {
	return foreign.ContiguityFlags(shape, byteStrides, elemSize)
}
