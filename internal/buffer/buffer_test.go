package buffer

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ndarray/internal/tensor"
)

func TestNewView_AliasesMemory(t *testing.T) {
	backing := []float32{1, 2, 3, 4}
	v := NewView[float32](unsafe.Pointer(&backing[0]), len(backing))

	require.Equal(t, 4, v.Len())
	assert.Equal(t, float32(3), v.At(2))

	v.Set(1, 9)
	assert.Equal(t, float32(9), backing[1], "write through view must reach the backing store")

	*v.Ptr(3) = 7
	assert.Equal(t, float32(7), backing[3])

	backing[0] = -1
	assert.Equal(t, float32(-1), v.Slice()[0])
}

func TestNewView_Empty(t *testing.T) {
	v := NewView[int32](nil, 0)
	assert.Equal(t, 0, v.Len())
	assert.True(t, v.Begin().Equal(v.End()))
}

func TestNewView_NilPointerPanics(t *testing.T) {
	assert.Panics(t, func() { NewView[int32](nil, 3) })
}

func TestIterator_Walk(t *testing.T) {
	v := ViewOf([]int64{10, 20, 30})

	var got []int64
	for it := v.Begin(); !it.Equal(v.End()); it.Next() {
		got = append(got, it.Value())
	}
	assert.Equal(t, []int64{10, 20, 30}, got)

	it := v.Begin()
	it.Next()
	it.Store(99)
	assert.Equal(t, 1, it.Index())
	assert.Equal(t, int64(99), v.At(1))
}

func TestView_All(t *testing.T) {
	v := ViewOf([]uint8{4, 5, 6})

	var idx []int
	var vals []uint8
	for i, x := range v.All() {
		idx = append(idx, i)
		vals = append(vals, x)
		if i == 1 {
			break
		}
	}
	assert.Equal(t, []int{0, 1}, idx)
	assert.Equal(t, []uint8{4, 5}, vals)
}

func TestStrides_ElementUnits(t *testing.T) {
	bytes := []int{16, 4}
	s := NewStrides(bytes, 4)

	require.Equal(t, 2, s.Len())
	assert.Equal(t, 4, s.At(0))
	assert.Equal(t, 1, s.At(1))
	assert.Equal(t, []int{4, 1}, s.Slice())

	// Strides reference the foreign slice.
	bytes[0] = 32
	assert.Equal(t, 8, s.At(0))
}

func TestCheckStrides(t *testing.T) {
	tests := []struct {
		name     string
		strides  []int
		elemSize int
		wantErr  error
	}{
		{"divisible", []int{24, 8}, 8, nil},
		{"zero stride", []int{0, 4}, 4, nil},
		{"not divisible", []int{6, 4}, 4, ErrStrideDivisibility},
		{"negative", []int{-4}, 4, ErrNegativeStride},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStrides(tt.strides, tt.elemSize)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestToBytes(t *testing.T) {
	b, err := ToBytes([]int{4, 1}, 8)
	require.NoError(t, err)
	assert.Equal(t, []int{32, 8}, b)

	b, err = ToBytes([]int{}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{}, b)

	_, err = ToBytes([]int{1, -1}, 4)
	assert.ErrorIs(t, err, ErrNegativeStride)

	_, err = ToBytes([]int{math.MaxInt / 2}, 4)
	assert.ErrorIs(t, err, tensor.ErrOverflow)
}
