// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package array adapts strided buffers owned by a foreign runtime into mutable
// N-dimensional arrays without copying them.
//
// Example:
//
//	rt := foreign.NewHeap()
//	a, err := array.FromLiteral[float32](rt, [][]float32{{1, 2, 3}, {4, 5, 6}})
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	a.Shape()            // [2 3]
//	a.Strides().Slice()  // [3 1]
//	a.At(1, 2)           // 6
package array

import (
	"github.com/born-ml/ndarray/internal/array"
	"github.com/born-ml/ndarray/internal/expr"
	"github.com/born-ml/ndarray/internal/foreign"
	"github.com/born-ml/ndarray/internal/tensor"
)

// Array is a strided N-dimensional view over a foreign buffer.
// Arrays are not safe for concurrent use.
type Array[T tensor.DType] = array.Array[T]

// Backstrides computes per-dimension wraparound offsets on demand.
type Backstrides = array.Backstrides

// Literal is a nested Go slice of rank 1 to 5.
type Literal[T tensor.DType] = array.Literal[T]

// MismatchError details why a foreign buffer cannot back an Array.
type MismatchError = array.MismatchError

// Common errors.
var (
	ErrAllocation    = array.ErrAllocation
	ErrTypeMismatch  = array.ErrTypeMismatch
	ErrReadOnly      = array.ErrReadOnly
	ErrRankMismatch  = array.ErrRankMismatch
	ErrRaggedLiteral = array.ErrRaggedLiteral
)

// Empty returns an array bound to rt with shape [0] and no buffer yet.
func Empty[T tensor.DType](rt foreign.Runtime) *Array[T] {
	return array.Empty[T](rt)
}

// New allocates an array with default strides for layout l.
func New[T tensor.DType](rt foreign.Runtime, shape tensor.Shape, l tensor.Layout) (*Array[T], error) {
	return array.New[T](rt, shape, l)
}

// NewStrided allocates an array with explicit element strides.
func NewStrided[T tensor.DType](rt foreign.Runtime, shape tensor.Shape, strides []int) (*Array[T], error) {
	return array.NewStrided[T](rt, shape, strides)
}

// FromScalar allocates a rank-0 array holding v.
func FromScalar[T tensor.DType](rt foreign.Runtime, v T) (*Array[T], error) {
	return array.FromScalar[T](rt, v)
}

// FromLiteral allocates a row-major array shaped like lit and copies lit into it.
func FromLiteral[T tensor.DType, L Literal[T]](rt foreign.Runtime, lit L) (*Array[T], error) {
	return array.FromLiteral[T, L](rt, lit)
}

// FromExpr allocates an array shaped like e and evaluates e into it.
func FromExpr[T tensor.DType](rt foreign.Runtime, e expr.Expression[T]) (*Array[T], error) {
	return array.FromExpr[T](rt, e)
}

// Borrow wraps a handle the caller keeps ownership of.
func Borrow[T tensor.DType](rt foreign.Runtime, h foreign.Handle) (*Array[T], error) {
	return array.Borrow[T](rt, h)
}

// Adopt wraps a handle whose reference the caller hands over.
func Adopt[T tensor.DType](rt foreign.Runtime, h foreign.Handle) (*Array[T], error) {
	return array.Adopt[T](rt, h)
}

// Ensure returns a zero-copy array over h when h is compatible with T.
func Ensure[T tensor.DType](rt foreign.Runtime, h foreign.Handle) (*Array[T], bool) {
	return array.Ensure[T](rt, h)
}

// Check reports whether Ensure would succeed.
func Check[T tensor.DType](rt foreign.Runtime, h foreign.Handle) bool {
	return array.Check[T](rt, h)
}

// Validate reports why h cannot back an Array[T], or nil if it can.
func Validate[T tensor.DType](rt foreign.Runtime, h foreign.Handle) error {
	return array.Validate[T](rt, h)
}
