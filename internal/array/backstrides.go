package array

import (
	"github.com/born-ml/ndarray/internal/buffer"
	"github.com/born-ml/ndarray/internal/tensor"
)

// Backstrides computes per-dimension wraparound offsets on demand:
// 0 for a dimension of extent 1, (extent-1)*stride otherwise.
type Backstrides struct {
	shape   tensor.Shape
	strides buffer.Strides
}

// Len returns the number of dimensions.
func (b Backstrides) Len() int {
	return len(b.shape)
}

// At returns the backstride of dimension i in elements.
func (b Backstrides) At(i int) int {
	return tensor.Backstride(b.shape[i], b.strides.At(i))
}

// Slice returns all backstrides as a new slice.
func (b Backstrides) Slice() []int {
	out := make([]int, len(b.shape))
	for i := range out {
		out[i] = b.At(i)
	}
	return out
}
