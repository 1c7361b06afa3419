// Package array adapts strided foreign buffers into mutable N-dimensional arrays.
//
// An Array never copies the memory it wraps. Its shape, strides and data are read
// straight out of the foreign handle's description, strides are converted from bytes
// to elements on access, and backstrides are recomputed every time they are asked for.
// Writes through an Array are immediately visible to every other holder of the handle.
//
// Arrays are not safe for concurrent use. Concurrent mutation of a buffer through
// aliased views (two arrays over one handle, or an array and the runtime's own users)
// is the caller's hazard to coordinate.
package array

import (
	"errors"
	"fmt"
	"iter"

	"github.com/born-ml/ndarray/internal/buffer"
	"github.com/born-ml/ndarray/internal/expr"
	"github.com/born-ml/ndarray/internal/foreign"
	"github.com/born-ml/ndarray/internal/tensor"
)

// Array is a strided N-dimensional view over a buffer owned by a foreign runtime.
//
// Example:
//
//	rt := foreign.NewHeap()
//	a, err := array.New[float32](rt, tensor.Shape{3, 4}, tensor.RowMajor)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	a.Set(1.5, 2, 3)
type Array[T tensor.DType] struct {
	rt       foreign.Runtime
	ref      foreign.Ref
	shape    tensor.Shape   // live view of the descriptor's shape
	strides  buffer.Strides // descriptor byte strides, read in elements
	data     buffer.View[T]
	writable bool
}

var _ expr.Container[float32] = (*Array[float32])(nil)

// Empty returns a container bound to rt that holds no buffer yet. It has shape [0]
// and acquires storage on its first Assign, Reshape or Resize.
func Empty[T tensor.DType](rt foreign.Runtime) *Array[T] {
	a := &Array[T]{rt: rt}
	a.initEmpty()
	return a
}

// New allocates an array of the given shape with default strides for layout l.
func New[T tensor.DType](rt foreign.Runtime, shape tensor.Shape, l tensor.Layout) (*Array[T], error) {
	return NewStrided[T](rt, shape, shape.DefaultStrides(l))
}

// NewStrided allocates an array with explicit strides given in elements. Strides are
// converted to bytes only when the allocation request is sent to the runtime.
func NewStrided[T tensor.DType](rt foreign.Runtime, shape tensor.Shape, strides []int) (*Array[T], error) {
	if rt == nil {
		return nil, fmt.Errorf("%w: no runtime", ErrAllocation)
	}
	if len(shape) != len(strides) {
		return nil, fmt.Errorf("%w: shape %v, strides %v", ErrRankMismatch, shape, strides)
	}
	if err := shape.Validate(); err != nil {
		if errors.Is(err, tensor.ErrOverflow) {
			return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
		}
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	dtype := tensor.DataTypeOf[T]()
	size := dtype.Size()
	byteStrides, err := buffer.ToBytes(strides, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	h, err := rt.Allocate(shape, dtype, byteStrides, size, foreign.Aligned|foreign.Writable)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	if h == 0 {
		return nil, fmt.Errorf("%w: runtime returned a null handle for %s%v", ErrAllocation, dtype, shape)
	}
	return wrap[T](rt, foreign.Adopt(rt, h))
}

// Borrow wraps a handle the caller keeps ownership of. The array acquires its own
// reference, released by Close. Nothing is acquired if the handle is incompatible.
func Borrow[T tensor.DType](rt foreign.Runtime, h foreign.Handle) (*Array[T], error) {
	if err := Validate[T](rt, h); err != nil {
		return nil, err
	}
	return wrap[T](rt, foreign.Borrow(rt, h))
}

// Adopt wraps a handle whose reference the caller hands over. On failure the adopted
// reference is released, since no array exists to own it. A handle the runtime
// reports as dead fails with foreign.ErrInvalidHandle and is not released.
func Adopt[T tensor.DType](rt foreign.Runtime, h foreign.Handle) (*Array[T], error) {
	return wrap[T](rt, foreign.Adopt(rt, h))
}

// wrap builds an array around ref, closing ref if the handle cannot be adapted.
func wrap[T tensor.DType](rt foreign.Runtime, ref foreign.Ref) (*Array[T], error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: null handle", foreign.ErrInvalidHandle)
	}
	a := &Array[T]{rt: rt, ref: ref}
	if err := a.sync(); err != nil {
		// A handle the runtime no longer knows has no reference left to release.
		if !errors.Is(err, foreign.ErrInvalidHandle) {
			a.ref.Close()
		}
		return nil, err
	}
	return a, nil
}

// Sync re-derives shape, strides and data from the live handle. It is idempotent and
// is the only path through which an array picks up its backing store.
func (a *Array[T]) Sync() error {
	if !a.ref.Valid() {
		a.initEmpty()
		return nil
	}
	return a.sync()
}

func (a *Array[T]) sync() error {
	desc, err := a.rt.Describe(a.ref.Handle())
	if err != nil {
		return err
	}
	span, err := compatible[T](desc)
	if err != nil {
		return err
	}

	a.shape = tensor.Shape(desc.Shape)
	a.strides = buffer.NewStrides(desc.ByteStrides, desc.DType.Size())
	a.data = buffer.NewView[T](desc.Data, span)
	a.writable = desc.Flags.Has(foreign.Writable)
	return nil
}

func (a *Array[T]) initEmpty() {
	size := tensor.DataTypeOf[T]().Size()
	a.shape = tensor.Shape{0}
	a.strides = buffer.NewStrides([]int{size}, size)
	a.data = buffer.View[T]{}
	a.writable = false
}

// Close releases the array's reference exactly once and leaves it empty.
// Closing an empty array is a no-op.
func (a *Array[T]) Close() {
	a.ref.Close()
	a.initEmpty()
}

// Clone returns a second array over the same handle, holding its own reference.
// Both arrays alias the same memory.
func (a *Array[T]) Clone() *Array[T] {
	c := *a
	c.ref = a.ref.Clone()
	return &c
}

// Export returns the array's handle with one extra reference for the receiver,
// who must release it. It returns 0 for an empty array.
func (a *Array[T]) Export() foreign.Handle {
	return a.ref.Export()
}

// replace moves other's buffer into a and releases a's previous reference.
func (a *Array[T]) replace(other *Array[T]) {
	a.ref.Swap(&other.ref)
	a.shape, other.shape = other.shape, a.shape
	a.strides, other.strides = other.strides, a.strides
	a.data, other.data = other.data, a.data
	a.writable, other.writable = other.writable, a.writable
	other.Close()
}

// Handle returns the wrapped handle without touching its reference count.
func (a *Array[T]) Handle() foreign.Handle {
	return a.ref.Handle()
}

// Runtime returns the runtime the array allocates from.
func (a *Array[T]) Runtime() foreign.Runtime {
	return a.rt
}

// Shape returns the array's shape. The slice is owned by the foreign runtime and
// must not be modified.
func (a *Array[T]) Shape() tensor.Shape {
	return a.shape
}

// Strides returns the array's strides in elements.
func (a *Array[T]) Strides() buffer.Strides {
	return a.strides
}

// Backstrides returns backstrides computed from the current shape and strides.
// A fresh value is built on every call, so it is never stale after Reshape or Clone.
func (a *Array[T]) Backstrides() Backstrides {
	return Backstrides{shape: a.shape, strides: a.strides}
}

// Rank returns the number of dimensions.
func (a *Array[T]) Rank() int {
	return len(a.shape)
}

// Size returns the number of elements.
func (a *Array[T]) Size() int {
	return a.shape.NumElements()
}

// DType returns the element type tag.
func (a *Array[T]) DType() tensor.DataType {
	return tensor.DataTypeOf[T]()
}

// Writable reports whether elements may be written.
func (a *Array[T]) Writable() bool {
	return a.writable
}

// Data returns the flat view of the buffer.
func (a *Array[T]) Data() buffer.View[T] {
	return a.data
}

// Begin returns an iterator at the first element of the flat buffer.
func (a *Array[T]) Begin() buffer.Iterator[T] {
	return a.data.Begin()
}

// End returns the past-the-end iterator of the flat buffer.
func (a *Array[T]) End() buffer.Iterator[T] {
	return a.data.End()
}

// All yields (flat index, value) pairs over the buffer in storage order.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return a.data.All()
}

// Offset returns the flat buffer offset of the element at indices.
// Panics if the number of indices or any index is out of range.
func (a *Array[T]) Offset(indices ...int) int {
	if len(indices) != len(a.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(a.shape), len(indices)))
	}

	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= a.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, a.shape[i]))
		}
		offset += idx * a.strides.At(i)
	}
	return offset
}

// At returns the element at the given indices.
func (a *Array[T]) At(indices ...int) T {
	return a.data.At(a.Offset(indices...))
}

// Set writes the element at the given indices.
// Panics if the array is read-only or an index is out of range.
func (a *Array[T]) Set(value T, indices ...int) {
	if !a.writable {
		panic(ErrReadOnly.Error())
	}
	a.data.Set(a.Offset(indices...), value)
}

// Values returns a copy of the elements in row-major logical order.
func (a *Array[T]) Values() []T {
	out := expr.NewDense(make([]T, a.Size()), a.shape)
	if err := expr.Evaluate[T](out, a); err != nil {
		panic(err) // Same shape on both sides
	}
	return out.Data()
}

// String returns a short description of the array.
func (a *Array[T]) String() string {
	return fmt.Sprintf("Array[%s]%v handle=%d", a.DType(), a.shape, a.ref.Handle())
}
