package buffer

import (
	"errors"
	"fmt"

	"github.com/born-ml/ndarray/internal/tensor"
)

// ErrStrideDivisibility is returned when a foreign byte stride is not a multiple of
// the element size.
var ErrStrideDivisibility = errors.New("byte stride is not a multiple of element size")

// ErrNegativeStride is returned for foreign layouts walking memory backwards.
var ErrNegativeStride = errors.New("negative strides are not supported")

// Strides exposes a foreign byte-stride sequence in element units.
// The foreign slice is referenced, not copied, and never written through.
type Strides struct {
	bytes    []int
	elemSize int
}

// NewStrides wraps byteStrides for elements of elemSize bytes.
// Divisibility is the caller's responsibility; see CheckStrides.
func NewStrides(byteStrides []int, elemSize int) Strides {
	return Strides{bytes: byteStrides, elemSize: elemSize}
}

// Len returns the number of dimensions.
func (s Strides) Len() int {
	return len(s.bytes)
}

// At returns the stride of dimension i in elements.
func (s Strides) At(i int) int {
	return s.bytes[i] / s.elemSize
}

// Slice returns a freshly allocated copy of the strides in element units.
func (s Strides) Slice() []int {
	out := make([]int, len(s.bytes))
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

// CheckStrides validates that every byte stride converts exactly to elements.
func CheckStrides(byteStrides []int, elemSize int) error {
	for i, b := range byteStrides {
		if b < 0 {
			return fmt.Errorf("dimension %d: stride %d: %w", i, b, ErrNegativeStride)
		}
		if b%elemSize != 0 {
			return fmt.Errorf("dimension %d: stride %d bytes, element size %d: %w", i, b, elemSize, ErrStrideDivisibility)
		}
	}
	return nil
}

// ToBytes converts element strides to byte strides. It is used only at the
// allocation boundary.
func ToBytes(strides []int, elemSize int) ([]int, error) {
	out := make([]int, len(strides))
	for i, s := range strides {
		if s < 0 {
			return nil, fmt.Errorf("dimension %d: stride %d: %w", i, s, ErrNegativeStride)
		}
		b, ok := tensor.MulInt(s, elemSize)
		if !ok {
			return nil, fmt.Errorf("dimension %d: stride %d: %w", i, s, tensor.ErrOverflow)
		}
		out[i] = b
	}
	return out, nil
}
