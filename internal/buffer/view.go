// Package buffer provides non-owning typed views over foreign memory.
//
// Nothing in this package allocates or frees the memory it looks at: a View or a
// Strides value is only valid while the foreign runtime keeps the region alive.
package buffer

import (
	"iter"
	"unsafe"
)

// View is a typed, flat, randomly indexable view over count contiguous elements
// starting at a foreign address. It never takes ownership.
type View[T any] struct {
	data []T
}

// NewView creates a view over count elements of T starting at ptr.
// Panics if ptr is nil and count is non-zero.
func NewView[T any](ptr unsafe.Pointer, count int) View[T] {
	if count == 0 {
		return View[T]{}
	}
	if ptr == nil {
		panic("buffer: nil pointer with non-zero element count")
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, count comes from the foreign descriptor
	return View[T]{data: unsafe.Slice((*T)(ptr), count)}
}

// ViewOf wraps Go-owned memory. The slice is not copied.
func ViewOf[T any](s []T) View[T] {
	return View[T]{data: s}
}

// Len returns the number of elements in the view.
func (v View[T]) Len() int {
	return len(v.data)
}

// At returns the element at flat index i.
func (v View[T]) At(i int) T {
	return v.data[i]
}

// Set writes the element at flat index i.
func (v View[T]) Set(i int, value T) {
	v.data[i] = value
}

// Ptr returns a reference to the element at flat index i.
func (v View[T]) Ptr(i int) *T {
	return &v.data[i]
}

// Slice returns the elements as a slice aliasing the foreign memory.
//
// WARNING: Modifications to the returned slice modify the foreign buffer.
func (v View[T]) Slice() []T {
	return v.data
}

// Begin returns an iterator positioned at the first element.
func (v View[T]) Begin() Iterator[T] {
	return Iterator[T]{data: v.data}
}

// End returns the past-the-end iterator.
func (v View[T]) End() Iterator[T] {
	return Iterator[T]{data: v.data, pos: len(v.data)}
}

// All yields (flat index, value) pairs in ascending index order.
func (v View[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, x := range v.data {
			if !yield(i, x) {
				return
			}
		}
	}
}

// Iterator is a position in a View. The zero distance between Begin and End is
// the view's length; iterators are plain values and can be restarted by copying.
type Iterator[T any] struct {
	data []T
	pos  int
}

// Next advances the iterator by one element.
func (it *Iterator[T]) Next() {
	it.pos++
}

// Value returns the element under the iterator.
func (it Iterator[T]) Value() T {
	return it.data[it.pos]
}

// Store writes the element under the iterator.
func (it Iterator[T]) Store(value T) {
	it.data[it.pos] = value
}

// Index returns the flat index of the iterator.
func (it Iterator[T]) Index() int {
	return it.pos
}

// Equal reports whether two iterators point at the same position.
func (it Iterator[T]) Equal(other Iterator[T]) bool {
	return it.pos == other.pos
}
