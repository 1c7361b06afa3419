package expr

import (
	"github.com/born-ml/ndarray/internal/buffer"
	"github.com/born-ml/ndarray/internal/tensor"
)

// scalar broadcasts a single value to any shape.
type scalar[T any] struct {
	v T
}

// Scalar returns a rank-0 expression holding v.
func Scalar[T any](v T) Expression[T] {
	return scalar[T]{v: v}
}

func (s scalar[T]) Shape() tensor.Shape { return tensor.Shape{} }

func (s scalar[T]) Stepper(tensor.Shape) Stepper[T] { return s }

func (s scalar[T]) Step(int)  {}
func (s scalar[T]) Reset(int) {}
func (s scalar[T]) Value() T  { return s.v }

// Binary applies op elementwise to two broadcast-compatible expressions.
// A shape error is recorded at construction and reported by Err.
type Binary[T any] struct {
	a, b  Expression[T]
	op    func(x, y T) T
	shape tensor.Shape
	err   error
}

// NewBinary builds an elementwise binary node.
func NewBinary[T any](a, b Expression[T], op func(x, y T) T) *Binary[T] {
	n := &Binary[T]{a: a, b: b, op: op}
	if n.err = Err(a); n.err != nil {
		return n
	}
	if n.err = Err(b); n.err != nil {
		return n
	}
	shape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		n.err = err
		return n
	}
	n.shape = shape
	return n
}

// Add returns a + b elementwise.
func Add[T tensor.Numeric](a, b Expression[T]) *Binary[T] {
	return NewBinary(a, b, func(x, y T) T { return x + y })
}

// Sub returns a - b elementwise.
func Sub[T tensor.Numeric](a, b Expression[T]) *Binary[T] {
	return NewBinary(a, b, func(x, y T) T { return x - y })
}

// Mul returns a * b elementwise.
func Mul[T tensor.Numeric](a, b Expression[T]) *Binary[T] {
	return NewBinary(a, b, func(x, y T) T { return x * y })
}

// Div returns a / b elementwise. Integer division by zero panics as in Go.
func Div[T tensor.Numeric](a, b Expression[T]) *Binary[T] {
	return NewBinary(a, b, func(x, y T) T { return x / y })
}

// Shape returns the broadcast shape of both operands.
func (n *Binary[T]) Shape() tensor.Shape { return n.shape }

// Err returns the construction error, if any.
func (n *Binary[T]) Err() error { return n.err }

// Stepper returns a stepper combining both operands.
func (n *Binary[T]) Stepper(target tensor.Shape) Stepper[T] {
	return &binaryStepper[T]{a: n.a.Stepper(target), b: n.b.Stepper(target), op: n.op}
}

type binaryStepper[T any] struct {
	a, b Stepper[T]
	op   func(x, y T) T
}

func (s *binaryStepper[T]) Step(dim int) {
	s.a.Step(dim)
	s.b.Step(dim)
}

func (s *binaryStepper[T]) Reset(dim int) {
	s.a.Reset(dim)
	s.b.Reset(dim)
}

func (s *binaryStepper[T]) Value() T {
	return s.op(s.a.Value(), s.b.Value())
}

// Unary applies f elementwise.
type Unary[T any] struct {
	e Expression[T]
	f func(T) T
}

// Map returns f applied to every element of e.
func Map[T any](e Expression[T], f func(T) T) *Unary[T] {
	return &Unary[T]{e: e, f: f}
}

// Shape returns the operand's shape.
func (u *Unary[T]) Shape() tensor.Shape { return u.e.Shape() }

// Err returns the operand's construction error.
func (u *Unary[T]) Err() error { return Err(u.e) }

// Stepper returns a stepper applying f to the operand.
func (u *Unary[T]) Stepper(target tensor.Shape) Stepper[T] {
	return &unaryStepper[T]{s: u.e.Stepper(target), f: u.f}
}

type unaryStepper[T any] struct {
	s Stepper[T]
	f func(T) T
}

func (s *unaryStepper[T]) Step(dim int)  { s.s.Step(dim) }
func (s *unaryStepper[T]) Reset(dim int) { s.s.Reset(dim) }
func (s *unaryStepper[T]) Value() T      { return s.f(s.s.Value()) }

// Dense is a row-major container over Go-owned memory.
type Dense[T any] struct {
	data  []T
	shape tensor.Shape
}

// NewDense wraps data with the given shape. The slice is not copied.
// Panics if len(data) does not match the shape.
func NewDense[T any](data []T, shape tensor.Shape) *Dense[T] {
	if len(data) != shape.NumElements() {
		panic("expr: data length does not match shape")
	}
	return &Dense[T]{data: data, shape: shape.Clone()}
}

// Data returns the underlying slice.
func (d *Dense[T]) Data() []T { return d.data }

// Shape returns the container's shape.
func (d *Dense[T]) Shape() tensor.Shape { return d.shape }

// Resize reallocates the container with a new zeroed buffer.
func (d *Dense[T]) Resize(shape tensor.Shape) error {
	if err := shape.Validate(); err != nil {
		return err
	}
	d.data = make([]T, shape.NumElements())
	d.shape = shape.Clone()
	return nil
}

// Stepper returns a read stepper over target.
func (d *Dense[T]) Stepper(target tensor.Shape) Stepper[T] {
	return d.strided(target)
}

// Sink returns a write stepper over the container's own shape.
func (d *Dense[T]) Sink() Sink[T] {
	return d.strided(d.shape)
}

func (d *Dense[T]) strided(target tensor.Shape) *Strided[T] {
	strides := denseIndexer(d.shape.ComputeStrides())
	back := make(denseIndexer, len(d.shape))
	for i := range back {
		back[i] = tensor.Backstride(d.shape[i], strides[i])
	}
	return NewStrided(buffer.ViewOf(d.data), d.shape, strides, back, target)
}

type denseIndexer []int

func (x denseIndexer) At(i int) int { return x[i] }
