// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package expr provides lazy elementwise expressions over arrays.
//
// Example:
//
//	z := array.Empty[float32](rt)
//	err := z.Assign(expr.Add[float32](x, expr.Scalar[float32](1)))
package expr

import (
	"github.com/born-ml/ndarray/internal/expr"
	"github.com/born-ml/ndarray/internal/parallel"
	"github.com/born-ml/ndarray/internal/tensor"
)

// Expression is a lazily evaluated array computation.
type Expression[T any] = expr.Expression[T]

// Stepper walks an expression over a target shape.
type Stepper[T any] = expr.Stepper[T]

// Sink is a Stepper that can write the current element.
type Sink[T any] = expr.Sink[T]

// Container is an expression backed by writable, resizable storage.
type Container[T any] = expr.Container[T]

// Dense is a row-major container over Go-owned memory.
type Dense[T any] = expr.Dense[T]

// Config controls expression evaluation.
type Config = expr.Config

// ParallelConfig controls the outer-dimension fan-out of evaluation.
type ParallelConfig = parallel.Config

// ErrShapeMismatch is returned when an expression cannot be broadcast to a destination.
var ErrShapeMismatch = expr.ErrShapeMismatch

// DefaultConfig evaluates sequentially.
func DefaultConfig() Config {
	return expr.DefaultConfig()
}

// ParallelDefaults returns a configuration fanning evaluation out over every CPU.
func ParallelDefaults() Config {
	return Config{Parallel: parallel.DefaultConfig()}
}

// Assign evaluates e into dst, resizing dst first when shapes differ.
func Assign[T any](dst Container[T], e Expression[T]) error {
	return expr.Assign(dst, e)
}

// Evaluate writes e into dst without resizing.
func Evaluate[T any](dst Container[T], e Expression[T]) error {
	return expr.Evaluate(dst, e)
}

// EvaluateWith is Evaluate with an explicit configuration.
func EvaluateWith[T any](cfg Config, dst Container[T], e Expression[T]) error {
	return expr.EvaluateWith(cfg, dst, e)
}

// Scalar returns a rank-0 expression holding v.
func Scalar[T any](v T) Expression[T] {
	return expr.Scalar(v)
}

// Add returns a + b elementwise.
func Add[T tensor.Numeric](a, b Expression[T]) Expression[T] {
	return expr.Add(a, b)
}

// Sub returns a - b elementwise.
func Sub[T tensor.Numeric](a, b Expression[T]) Expression[T] {
	return expr.Sub(a, b)
}

// Mul returns a * b elementwise.
func Mul[T tensor.Numeric](a, b Expression[T]) Expression[T] {
	return expr.Mul(a, b)
}

// Div returns a / b elementwise.
func Div[T tensor.Numeric](a, b Expression[T]) Expression[T] {
	return expr.Div(a, b)
}

// Map returns f applied to every element of e.
func Map[T any](e Expression[T], f func(T) T) Expression[T] {
	return expr.Map(e, f)
}

// NewDense wraps data with the given shape without copying.
func NewDense[T any](data []T, shape tensor.Shape) *Dense[T] {
	return expr.NewDense(data, shape)
}

// Err returns the error recorded while building e, if any.
func Err[T any](e Expression[T]) error {
	return expr.Err(e)
}
