package foreign

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ndarray/internal/tensor"
)

func TestHeap_AllocateDescribes(t *testing.T) {
	h := NewHeap()
	hd, err := h.Allocate([]int{3, 4}, tensor.Float32, []int{16, 4}, 4, Writable)
	require.NoError(t, err)
	require.NotZero(t, hd)

	d, err := h.Describe(hd)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, d.DType)
	assert.Equal(t, []int{3, 4}, d.Shape)
	assert.Equal(t, []int{16, 4}, d.ByteStrides)
	assert.Equal(t, 12, d.Count)
	assert.Equal(t, 2, d.Rank())
	assert.NotNil(t, d.Data)
	assert.True(t, d.Flags.Has(Aligned|Writable|OwnsData|CContiguous))
	assert.False(t, d.Flags.Has(FContiguous))

	// Zero-filled.
	data := unsafe.Slice((*float32)(d.Data), d.Count)
	for _, v := range data {
		assert.Zero(t, v)
	}
}

func TestHeap_AllocateRejects(t *testing.T) {
	h := NewHeap()

	_, err := h.Allocate([]int{2}, tensor.Float64, []int{8}, 4, 0)
	assert.ErrorIs(t, err, ErrUnsupported, "element size mismatch")

	_, err = h.Allocate([]int{2, 2}, tensor.Float32, []int{4}, 4, 0)
	assert.ErrorIs(t, err, ErrUnsupported, "rank mismatch")

	_, err = h.Allocate([]int{2}, tensor.Float32, []int{-4}, 4, 0)
	assert.ErrorIs(t, err, ErrUnsupported, "negative stride")

	assert.Equal(t, 0, h.Live())
}

func TestHeap_RefCounting(t *testing.T) {
	h := NewHeap()
	hd, err := h.Allocate([]int{2}, tensor.Int32, []int{4}, 4, Writable)
	require.NoError(t, err)
	assert.Equal(t, 1, h.RefCount(hd))

	h.Acquire(hd)
	assert.Equal(t, 2, h.RefCount(hd))

	h.Release(hd)
	h.Release(hd)
	assert.Equal(t, 0, h.RefCount(hd))
	assert.Equal(t, 0, h.Live())

	_, err = h.Describe(hd)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.Panics(t, func() { h.Release(hd) }, "double release")
	assert.Panics(t, func() { h.Acquire(hd) })
}

func TestHeap_WrapAliases(t *testing.T) {
	h := NewHeap()
	mem := make([]byte, 6*8)
	hd, err := h.Wrap(mem, tensor.Int64, []int{2, 3}, []int{8, 16}, Writable)
	require.NoError(t, err)

	d, err := h.Describe(hd)
	require.NoError(t, err)
	assert.Equal(t, unsafe.Pointer(&mem[0]), d.Data)
	assert.True(t, d.Flags.Has(FContiguous))
	assert.False(t, d.Flags.Has(OwnsData))
	assert.True(t, d.Flags.Has(Writable))

	_, err = h.Wrap(mem[:8], tensor.Int64, []int{2, 3}, []int{8, 16}, 0)
	assert.ErrorIs(t, err, ErrUnsupported, "layout larger than buffer")
}

func TestContiguityFlags(t *testing.T) {
	tests := []struct {
		name    string
		shape   []int
		strides []int
		want    Flags
	}{
		{"row major", []int{3, 4}, []int{16, 4}, CContiguous},
		{"column major", []int{3, 4}, []int{4, 12}, FContiguous},
		{"vector", []int{5}, []int{4}, CContiguous | FContiguous},
		{"scalar", []int{}, []int{}, CContiguous | FContiguous},
		{"padded", []int{3, 4}, []int{32, 4}, 0},
		{"rank mismatch", []int{3, 4}, []int{4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContiguityFlags(tt.shape, tt.strides, 4))
		})
	}
}

func TestSpanBytes(t *testing.T) {
	n, err := SpanBytes([]int{3, 4}, []int{24, 4}, 4)
	require.NoError(t, err)
	assert.Equal(t, 2*24+3*4+4, n)

	n, err = SpanBytes([]int{}, []int{}, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, n, "scalar holds one element")

	n, err = SpanBytes([]int{3, 0}, []int{4, 4}, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = SpanBytes([]int{-1}, []int{4}, 4)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSpanBytes_Overflow(t *testing.T) {
	tests := []struct {
		name        string
		shape       []int
		byteStrides []int
		elemSize    int
	}{
		{"element count", []int{1 << 32, 1 << 32}, []int{1 << 32, 1}, 1},
		{"single stride", []int{4}, []int{math.MaxInt / 2}, 4},
		{"sum of steps", []int{2, 2}, []int{math.MaxInt / 2, math.MaxInt/2 + 2}, 1},
		{"trailing element", []int{2}, []int{math.MaxInt - 4}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SpanBytes(tt.shape, tt.byteStrides, tt.elemSize)
			assert.ErrorIs(t, err, ErrUnsupported)
			assert.ErrorIs(t, err, tensor.ErrOverflow)
		})
	}
}

func TestCheckBools(t *testing.T) {
	// 2x2 bool layout with a padding byte after each row.
	mem := []byte{1, 0, 7, 0, 1, 7}
	assert.NoError(t, CheckBools(mem, []int{2, 2}, []int{3, 1}), "padding is not inspected")
	assert.NoError(t, CheckBools(mem, []int{0, 2}, []int{3, 1}))

	mem[4] = 2
	assert.ErrorIs(t, CheckBools(mem, []int{2, 2}, []int{3, 1}), ErrInvalidBool)
	assert.ErrorIs(t, CheckBools([]byte{255}, []int{}, []int{}), ErrInvalidBool)
}

func TestHeap_WrapRejectsInvalidBools(t *testing.T) {
	h := NewHeap()
	_, err := h.Wrap([]byte{0, 1, 2}, tensor.Bool, []int{3}, []int{1}, Writable)
	assert.ErrorIs(t, err, ErrInvalidBool)
	assert.Equal(t, 0, h.Live())

	hd, err := h.Wrap([]byte{0, 1, 1}, tensor.Bool, []int{3}, []int{1}, Writable)
	require.NoError(t, err)
	h.Release(hd)
}

func TestHeap_AllocateRejectsOverflow(t *testing.T) {
	h := NewHeap()
	hd, err := h.Allocate([]int{1 << 32, 1 << 32}, tensor.Uint8, []int{1 << 32, 1}, 1, Writable)
	assert.ErrorIs(t, err, tensor.ErrOverflow)
	assert.Zero(t, hd)
	assert.Equal(t, 0, h.Live())
}

func TestFlagsString(t *testing.T) {
	assert.Equal(t, "0", Flags(0).String())
	assert.Equal(t, "ALIGNED|WRITEABLE", (Aligned | Writable).String())
}

func TestRef_Ownership(t *testing.T) {
	h := NewHeap()
	hd, err := h.Allocate([]int{1}, tensor.Float32, []int{4}, 4, 0)
	require.NoError(t, err)

	borrowed := Borrow(h, hd)
	assert.Equal(t, 2, h.RefCount(hd), "borrow acquires")

	clone := borrowed.Clone()
	assert.Equal(t, 3, h.RefCount(hd))

	exported := clone.Export()
	assert.Equal(t, hd, exported)
	assert.Equal(t, 4, h.RefCount(hd))
	h.Release(exported)

	clone.Close()
	clone.Close()
	assert.False(t, clone.Valid())
	assert.Equal(t, 2, h.RefCount(hd), "second close is a no-op")

	adopted := Adopt(h, hd)
	assert.Equal(t, 2, h.RefCount(hd), "adopt does not acquire")
	adopted.Close()
	borrowed.Close()
	assert.Equal(t, 0, h.Live())
}

func TestRef_NullHandle(t *testing.T) {
	h := NewHeap()
	r := Borrow(h, 0)
	assert.False(t, r.Valid())
	assert.Nil(t, r.Runtime())
	assert.Zero(t, r.Export())
	assert.False(t, r.Clone().Valid())
	r.Close()
	assert.False(t, Adopt(h, 0).Valid())
}

func TestRef_Swap(t *testing.T) {
	h := NewHeap()
	a, err := h.Allocate([]int{1}, tensor.Uint8, []int{1}, 1, 0)
	require.NoError(t, err)

	r1 := Adopt(h, a)
	var r2 Ref
	r1.Swap(&r2)
	assert.False(t, r1.Valid())
	assert.Equal(t, a, r2.Handle())
	assert.Same(t, h, r2.Runtime().(*Heap))
	r2.Close()
	assert.Equal(t, 0, h.Live())
}
