package array

import (
	"fmt"
	"strconv"

	"github.com/born-ml/ndarray/internal/buffer"
	"github.com/born-ml/ndarray/internal/foreign"
	"github.com/born-ml/ndarray/internal/tensor"
)

// Validate reports why h cannot back an Array[T], or nil if it can.
// Type, alignment and rank problems wrap ErrTypeMismatch; stride problems wrap
// buffer.ErrStrideDivisibility or buffer.ErrNegativeStride.
func Validate[T tensor.DType](rt foreign.Runtime, h foreign.Handle) error {
	desc, err := rt.Describe(h)
	if err != nil {
		return err
	}
	_, err = compatible[T](desc)
	return err
}

// Ensure returns a zero-copy array over h when h is compatible with T, and
// (nil, false) otherwise. It never returns an error: callers use it to test compatibility.
func Ensure[T tensor.DType](rt foreign.Runtime, h foreign.Handle) (*Array[T], bool) {
	a, err := Borrow[T](rt, h)
	if err != nil {
		return nil, false
	}
	return a, true
}

// Check reports whether Ensure would succeed, without creating an array.
func Check[T tensor.DType](rt foreign.Runtime, h foreign.Handle) bool {
	return Validate[T](rt, h) == nil
}

// compatible checks desc against T and returns the number of elements its layout
// spans.
func compatible[T tensor.DType](desc foreign.Descriptor) (int, error) {
	want := tensor.DataTypeOf[T]()
	if desc.DType != want {
		return 0, &MismatchError{Field: "dtype", Want: want.String(), Got: desc.DType.String()}
	}
	if !desc.Flags.Has(foreign.Aligned) {
		return 0, &MismatchError{Field: "flags", Want: foreign.Aligned.String(), Got: desc.Flags.String()}
	}
	if len(desc.ByteStrides) != len(desc.Shape) {
		return 0, &MismatchError{Field: "rank", Want: strconv.Itoa(len(desc.Shape)), Got: strconv.Itoa(len(desc.ByteStrides))}
	}
	if err := buffer.CheckStrides(desc.ByteStrides, want.Size()); err != nil {
		return 0, err
	}
	span, err := foreign.SpanBytes(desc.Shape, desc.ByteStrides, want.Size())
	if err != nil {
		return 0, &MismatchError{Field: "layout", Want: "addressable shape and strides", Got: fmt.Sprint(desc.Shape, desc.ByteStrides), Err: err}
	}
	if desc.Data == nil && span > 0 {
		return 0, &MismatchError{Field: "data", Want: "non-nil pointer", Got: "nil"}
	}
	return span / want.Size(), nil
}
