package expr

import (
	"github.com/born-ml/ndarray/internal/buffer"
	"github.com/born-ml/ndarray/internal/tensor"
)

// Indexer is a read-only integer sequence, such as element strides or backstrides.
type Indexer interface {
	At(i int) int
}

// Strided steps over a strided buffer. Dimensions of extent 1 never move the offset,
// which is what lets a leaf broadcast against a larger target.
type Strided[T any] struct {
	data        buffer.View[T]
	shape       tensor.Shape
	strides     Indexer
	backstrides Indexer
	lead        int // target dimensions in front of the leaf's own
	offset      int
}

// NewStrided creates a stepper over data laid out by shape/strides, walking target.
func NewStrided[T any](data buffer.View[T], shape tensor.Shape, strides, backstrides Indexer, target tensor.Shape) *Strided[T] {
	return &Strided[T]{
		data:        data,
		shape:       shape,
		strides:     strides,
		backstrides: backstrides,
		lead:        len(target) - len(shape),
	}
}

// Step advances one position along dim.
func (s *Strided[T]) Step(dim int) {
	d := dim - s.lead
	if d < 0 || s.shape[d] == 1 {
		return
	}
	s.offset += s.strides.At(d)
}

// Reset wraps dim back to position 0.
func (s *Strided[T]) Reset(dim int) {
	d := dim - s.lead
	if d < 0 {
		return
	}
	s.offset -= s.backstrides.At(d)
}

// Value returns the element at the current offset.
func (s *Strided[T]) Value() T {
	return s.data.At(s.offset)
}

// Store writes the element at the current offset.
func (s *Strided[T]) Store(value T) {
	s.data.Set(s.offset, value)
}

// Offset returns the current flat offset.
func (s *Strided[T]) Offset() int {
	return s.offset
}

// mover is the positional part of a Stepper.
type mover interface {
	Step(dim int)
	Reset(dim int)
}

// increment moves idx to the next position of shape in row-major order, stepping or
// resetting dst and src accordingly.
func increment(idx []int, shape tensor.Shape, dst, src mover) {
	for i := len(shape) - 1; i >= 0; i-- {
		if idx[i] < shape[i]-1 {
			idx[i]++
			dst.Step(i)
			src.Step(i)
			return
		}
		idx[i] = 0
		dst.Reset(i)
		src.Reset(i)
	}
}
