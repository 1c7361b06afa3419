// Package expr defines the lazy expression contract strided arrays take part in, and a
// small elementwise engine that evaluates expressions into containers.
//
// Evaluation walks the destination shape with steppers. A stepper moves along one
// dimension with Step and wraps a dimension back to index 0 with Reset; strided
// leaves implement Reset by subtracting the dimension's backstride.
package expr

import (
	"errors"

	"github.com/born-ml/ndarray/internal/tensor"
)

// ErrShapeMismatch is returned when an expression cannot be broadcast to a destination.
var ErrShapeMismatch = errors.New("expression shape does not match destination")

// Stepper walks an expression over a target shape. Dimensions are numbered in the
// target's coordinates; an expression of lower rank is aligned to the right.
type Stepper[T any] interface {
	// Step advances one position along dim.
	Step(dim int)
	// Reset moves from the last position along dim back to position 0.
	Reset(dim int)
	// Value returns the element at the current position.
	Value() T
}

// Sink is a Stepper that can also write the current element.
type Sink[T any] interface {
	Stepper[T]
	Store(value T)
}

// Expression is a lazily evaluated array computation.
type Expression[T any] interface {
	// Shape returns the shape the expression produces.
	Shape() tensor.Shape
	// Stepper returns a fresh stepper over target, which must be a broadcast of Shape.
	Stepper(target tensor.Shape) Stepper[T]
}

// Container is an expression backed by storage that can be written and resized.
type Container[T any] interface {
	Expression[T]
	// Sink returns a fresh write stepper positioned at the first element.
	Sink() Sink[T]
	// Resize gives the container the requested shape. Contents are unspecified afterwards.
	Resize(shape tensor.Shape) error
}

// Err returns the error recorded while building e, if any.
func Err[T any](e Expression[T]) error {
	if f, ok := e.(interface{ Err() error }); ok {
		return f.Err()
	}
	return nil
}

// ShapeOf returns the shape e would produce if evaluated.
func ShapeOf[T any](e Expression[T]) (tensor.Shape, error) {
	if err := Err(e); err != nil {
		return nil, err
	}
	return e.Shape(), nil
}
