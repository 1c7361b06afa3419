package array

import (
	"fmt"

	"github.com/born-ml/ndarray/internal/foreign"
	"github.com/born-ml/ndarray/internal/tensor"
)

// Literal is a nested Go slice of rank 1 to 5.
type Literal[T tensor.DType] interface {
	[]T | [][]T | [][][]T | [][][][]T | [][][][][]T
}

// FromScalar allocates a rank-0 array holding v.
func FromScalar[T tensor.DType](rt foreign.Runtime, v T) (*Array[T], error) {
	a, err := New[T](rt, tensor.Shape{}, tensor.RowMajor)
	if err != nil {
		return nil, err
	}
	a.data.Set(0, v)
	return a, nil
}

// FromLiteral allocates a row-major array shaped like lit and copies lit into it.
//
// Example:
//
//	a, err := array.FromLiteral[int32](rt, [][]int32{{1, 2, 3}, {4, 5, 6}}) // shape (2, 3)
func FromLiteral[T tensor.DType, L Literal[T]](rt foreign.Runtime, lit L) (*Array[T], error) {
	shape := literalShape[T](lit)
	flat, err := flatten[T](lit, shape, make([]T, 0, shape.NumElements()))
	if err != nil {
		return nil, err
	}

	a, err := New[T](rt, shape, tensor.RowMajor)
	if err != nil {
		return nil, err
	}
	copy(a.data.Slice(), flat)
	return a, nil
}

// literalShape reads the shape of a nested literal from its first elements.
func literalShape[T any](lit any) tensor.Shape {
	switch l := lit.(type) {
	case []T:
		return tensor.Shape{len(l)}
	case [][]T:
		return outerShape(l, 1, literalShape[T])
	case [][][]T:
		return outerShape(l, 2, literalShape[T])
	case [][][][]T:
		return outerShape(l, 3, literalShape[T])
	case [][][][][]T:
		return outerShape(l, 4, literalShape[T])
	default:
		panic(fmt.Sprintf("unsupported literal type %T", lit))
	}
}

func outerShape[E any](l []E, innerRank int, inner func(any) tensor.Shape) tensor.Shape {
	if len(l) == 0 {
		return make(tensor.Shape, innerRank+1)
	}
	return append(tensor.Shape{len(l)}, inner(l[0])...)
}

// flatten appends the elements of lit to out in row-major order, checking every row
// against shape.
func flatten[T any](lit any, shape tensor.Shape, out []T) ([]T, error) {
	switch l := lit.(type) {
	case []T:
		if len(l) != shape[0] {
			return nil, fmt.Errorf("%w: row of length %d, want %d", ErrRaggedLiteral, len(l), shape[0])
		}
		return append(out, l...), nil
	case [][]T:
		return flattenOuter(l, shape, out, flatten[T])
	case [][][]T:
		return flattenOuter(l, shape, out, flatten[T])
	case [][][][]T:
		return flattenOuter(l, shape, out, flatten[T])
	case [][][][][]T:
		return flattenOuter(l, shape, out, flatten[T])
	default:
		panic(fmt.Sprintf("unsupported literal type %T", lit))
	}
}

func flattenOuter[T, E any](l []E, shape tensor.Shape, out []T, inner func(any, tensor.Shape, []T) ([]T, error)) ([]T, error) {
	if len(l) != shape[0] {
		return nil, fmt.Errorf("%w: %d rows, want %d", ErrRaggedLiteral, len(l), shape[0])
	}
	var err error
	for _, e := range l {
		if out, err = inner(e, shape[1:], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
