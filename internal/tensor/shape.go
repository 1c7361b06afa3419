package tensor

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a shape or layout addresses more than math.MaxInt units.
var ErrOverflow = errors.New("size overflows int")

// Shape represents the per-dimension extents of an array.
// Its length is the array's rank.
type Shape []int

// NumElements returns the total number of elements described by the shape.
// A dimension of extent 0 anywhere yields 0. The result is only meaningful for
// shapes that pass Validate.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that no dimension is negative and that the product of the
// non-zero extents fits in an int. Zero extents are allowed and describe an empty array.
func (s Shape) Validate() error {
	n := 1
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
		if dim == 0 {
			continue
		}
		var ok bool
		if n, ok = MulInt(n, dim); !ok {
			return fmt.Errorf("%w: shape %v", ErrOverflow, []int(s))
		}
	}
	return nil
}

// MulInt returns a*b for non-negative operands and reports whether it fits in an int.
func MulInt(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// AddInt returns a+b for non-negative operands and reports whether it fits in an int.
func AddInt(a, b int) (int, bool) {
	if a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	return s.DefaultStrides(RowMajor)
}

// DefaultStrides derives element strides for the shape under the given layout.
//
// Row-major: stride[n-1] = 1, stride[i] = stride[i+1] * s[i+1].
// Column-major mirrors this from the left: stride[0] = 1, stride[i] = stride[i-1] * s[i-1].
// Zero-extent dimensions go through the same recurrence without special casing.
func (s Shape) DefaultStrides(l Layout) []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	switch l {
	case ColumnMajor:
		strides[0] = 1
		for i := 1; i < len(s); i++ {
			strides[i] = strides[i-1] * s[i-1]
		}
	default:
		strides[len(s)-1] = 1
		for i := len(s) - 2; i >= 0; i-- {
			strides[i] = strides[i+1] * s[i+1]
		}
	}
	return strides
}

// Span returns the number of elements between the first and the last addressable
// element (inclusive) for the given element strides. For dense layouts it equals
// NumElements. Strides must be non-negative.
func (s Shape) Span(strides []int) int {
	if s.NumElements() == 0 {
		return 0
	}
	last := 0
	for i, dim := range s {
		last += (dim - 1) * strides[i]
	}
	return last + 1
}

// BroadcastShapes implements NumPy-style broadcasting rules.
//
// Rules:
// 1. Compare shapes element-wise from right to left
// 2. Dimensions are compatible if:
//   - They are equal, OR
//   - One of them is 1
//
// 3. Missing dimensions are treated as 1
//
// Returns the broadcasted shape, a flag indicating if broadcasting is needed, and an error if incompatible.
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5), true, nil
//	(1, 5) + (3, 5) → (3, 5), true, nil
//	(3, 5) + (3, 5) → (3, 5), false, nil
//	(3, 4) + (3, 5) → nil, false, Error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	maxLen := max(len(a), len(b))
	result := make(Shape, maxLen)
	needsBroadcast := len(a) != len(b)

	for i := 0; i < maxLen; i++ {
		aIdx := len(a) - 1 - i
		bIdx := len(b) - 1 - i

		aDim := 1
		if aIdx >= 0 {
			aDim = a[aIdx]
		}

		bDim := 1
		if bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			result[maxLen-1-i] = aDim
		case aDim == 1:
			result[maxLen-1-i] = bDim
			needsBroadcast = true
		case bDim == 1:
			result[maxLen-1-i] = aDim
			needsBroadcast = true
		default:
			return nil, false, fmt.Errorf("shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
				a, b, maxLen-1-i, aDim, bDim)
		}
	}

	return result, needsBroadcast, nil
}
