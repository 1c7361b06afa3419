// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/ndarray/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for array element types.
// Supported types: float32, float64, int32, int64, uint8, bool, and named types
// built on them.
type DType = tensor.DType

// Numeric is the subset of DType that supports arithmetic.
type Numeric = tensor.Numeric

// DataType is the element type tag exchanged with foreign runtimes.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of an array.
// Example: Shape{2, 3, 4} represents a 3D array with dimensions 2×3×4.
type Shape = tensor.Shape

// Layout selects how default strides are derived from a shape.
type Layout = tensor.Layout

// Layout constants.
const (
	RowMajor    Layout = tensor.RowMajor
	ColumnMajor Layout = tensor.ColumnMajor
)

// ErrOverflow is returned when a shape or layout addresses more memory than an int can count.
var ErrOverflow = tensor.ErrOverflow

// DataTypeOf returns the runtime tag for the element type T.
func DataTypeOf[T DType]() DataType {
	return tensor.DataTypeOf[T]()
}

// ParseDataType converts a name such as "float32" into a DataType.
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// Backstride returns the wraparound offset of a dimension: 0 for extent 1,
// (extent-1)*stride otherwise.
func Backstride(extent, stride int) int {
	return tensor.Backstride(extent, stride)
}

// LayoutOf reports whether strides are the dense default for shape under a layout.
func LayoutOf(shape Shape, strides []int) (Layout, bool) {
	return tensor.LayoutOf(shape, strides)
}

// BroadcastShapes returns the NumPy-style broadcast of two shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
