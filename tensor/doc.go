// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the shape and element type vocabulary shared by the
// ndarray packages.
//
// # Overview
//
// A strided array is described by three integer sequences of equal length:
//   - shape: the extent of every dimension
//   - strides: how many elements to skip to move one step along a dimension
//   - backstrides: how many elements to move back when a dimension wraps to 0
//
// Strides are usually derived from a shape and a Layout:
//
//	s := tensor.Shape{3, 4}
//	s.DefaultStrides(tensor.RowMajor)    // [4 1]
//	s.DefaultStrides(tensor.ColumnMajor) // [1 3]
//
// # Supported Data Types
//
// The DType constraint admits:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - uint8 (unsigned integers, useful for images)
//   - bool (boolean masks)
//
// # Broadcasting
//
// Assignment follows NumPy broadcasting rules:
//
//	tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{3, 4}) // (3, 4)
//
// A dimension of extent 1 has backstride 0, so walking it repeatedly never moves
// through memory.
package tensor
