package array

import (
	"github.com/born-ml/ndarray/internal/expr"
	"github.com/born-ml/ndarray/internal/foreign"
	"github.com/born-ml/ndarray/internal/tensor"
)

// FromExpr allocates an array shaped like e and evaluates e into it.
func FromExpr[T tensor.DType](rt foreign.Runtime, e expr.Expression[T]) (*Array[T], error) {
	a := Empty[T](rt)
	if err := a.Assign(e); err != nil {
		return nil, err
	}
	return a, nil
}

// Assign evaluates e into the array.
//
// When e's shape differs from the array's, e is evaluated into a freshly allocated
// row-major buffer which then replaces the array's handle, so e may read the array
// itself. Read-only arrays return ErrReadOnly.
func (a *Array[T]) Assign(e expr.Expression[T]) error {
	return a.AssignWith(expr.DefaultConfig(), e)
}

// AssignWith is Assign with an explicit evaluation configuration.
func (a *Array[T]) AssignWith(cfg expr.Config, e expr.Expression[T]) error {
	shape, err := expr.ShapeOf(e)
	if err != nil {
		return err
	}
	if a.ref.Valid() {
		if !a.writable {
			return ErrReadOnly
		}
		if a.shape.Equal(shape) {
			return expr.EvaluateWith[T](cfg, a, e)
		}
	}

	tmp, err := New[T](a.rt, shape, tensor.RowMajor)
	if err != nil {
		return err
	}
	if err := expr.EvaluateWith[T](cfg, tmp, e); err != nil {
		tmp.Close()
		return err
	}
	a.replace(tmp)
	return nil
}

// Reshape gives the array a new shape with default strides for layout l, backed by a
// newly allocated buffer. Element values are not preserved. Nothing happens when the
// array already has that shape and those strides.
func (a *Array[T]) Reshape(shape tensor.Shape, l tensor.Layout) error {
	strides := shape.DefaultStrides(l)
	if a.ref.Valid() && a.shape.Equal(shape) && equalStrides(a.strides, strides) {
		return nil
	}
	tmp, err := New[T](a.rt, shape, l)
	if err != nil {
		return err
	}
	a.replace(tmp)
	return nil
}

// Resize is Reshape with row-major layout.
func (a *Array[T]) Resize(shape tensor.Shape) error {
	return a.Reshape(shape, tensor.RowMajor)
}

// Stepper returns a read stepper walking target, which must be a broadcast of the
// array's shape.
func (a *Array[T]) Stepper(target tensor.Shape) expr.Stepper[T] {
	return expr.NewStrided(a.data, a.shape, a.strides, a.Backstrides(), target)
}

// Sink returns a write stepper over the array's own shape.
// Panics if the array is read-only.
func (a *Array[T]) Sink() expr.Sink[T] {
	if !a.writable {
		panic(ErrReadOnly.Error())
	}
	return expr.NewStrided(a.data, a.shape, a.strides, a.Backstrides(), a.shape)
}

func equalStrides(s interface {
	Len() int
	At(i int) int
}, want []int) bool {
	if s.Len() != len(want) {
		return false
	}
	for i, w := range want {
		if s.At(i) != w {
			return false
		}
	}
	return true
}
