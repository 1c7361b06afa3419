package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ndarray/internal/buffer"
	"github.com/born-ml/ndarray/internal/parallel"
	"github.com/born-ml/ndarray/internal/tensor"
)

func TestAssign_ResizesDense(t *testing.T) {
	a := NewDense([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := NewDense([]float32{10, 20, 30, 40}, tensor.Shape{2, 2})
	dst := NewDense([]float32{}, tensor.Shape{0})

	require.NoError(t, Assign[float32](dst, Add[float32](a, b)))
	assert.Equal(t, tensor.Shape{2, 2}, dst.Shape())
	assert.Equal(t, []float32{11, 22, 33, 44}, dst.Data())
}

func TestEvaluate_Broadcasting(t *testing.T) {
	tests := []struct {
		name string
		a    *Dense[int32]
		b    *Dense[int32]
		want []int32
	}{
		{
			name: "row against matrix",
			a:    NewDense([]int32{1, 2, 3}, tensor.Shape{1, 3}),
			b:    NewDense([]int32{10, 20, 30, 40, 50, 60}, tensor.Shape{2, 3}),
			want: []int32{11, 22, 33, 41, 52, 63},
		},
		{
			name: "column against matrix",
			a:    NewDense([]int32{1, 2}, tensor.Shape{2, 1}),
			b:    NewDense([]int32{10, 20, 30, 40, 50, 60}, tensor.Shape{2, 3}),
			want: []int32{11, 21, 31, 42, 52, 62},
		},
		{
			name: "lower rank",
			a:    NewDense([]int32{1, 2, 3}, tensor.Shape{3}),
			b:    NewDense([]int32{10, 20, 30, 40, 50, 60}, tensor.Shape{2, 3}),
			want: []int32{11, 22, 33, 41, 52, 63},
		},
		{
			name: "outer",
			a:    NewDense([]int32{1, 2}, tensor.Shape{2, 1}),
			b:    NewDense([]int32{10, 20, 30}, tensor.Shape{1, 3}),
			want: []int32{11, 21, 31, 12, 22, 32},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := NewDense(make([]int32, 6), tensor.Shape{2, 3})
			require.NoError(t, Evaluate[int32](dst, Add[int32](tt.a, tt.b)))
			assert.Equal(t, tt.want, dst.Data())
		})
	}
}

func TestEvaluate_ScalarAndMap(t *testing.T) {
	a := NewDense([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	dst := NewDense(make([]float64, 6), tensor.Shape{3, 2})

	e := Map[float64](Mul[float64](a, Scalar(2.0)), func(x float64) float64 { return x - 1 })
	require.NoError(t, Evaluate[float64](dst, e))
	assert.Equal(t, []float64{1, 3, 5, 7, 9, 11}, dst.Data())

	// A scalar fills a whole container.
	require.NoError(t, Evaluate[float64](dst, Scalar(0.5)))
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, dst.Data())
}

func TestEvaluate_RankZero(t *testing.T) {
	dst := NewDense([]int64{0}, tensor.Shape{})
	require.NoError(t, Evaluate[int64](dst, Sub[int64](Scalar[int64](9), Scalar[int64](2))))
	assert.Equal(t, []int64{7}, dst.Data())
}

func TestEvaluate_EmptyIsNoop(t *testing.T) {
	dst := NewDense([]uint8{}, tensor.Shape{3, 0})
	require.NoError(t, Evaluate[uint8](dst, Scalar[uint8](1)))
	assert.Empty(t, dst.Data())
}

func TestEvaluate_ShapeMismatch(t *testing.T) {
	dst := NewDense(make([]float32, 6), tensor.Shape{2, 3})
	src := NewDense(make([]float32, 4), tensor.Shape{2, 2})
	assert.ErrorIs(t, Evaluate[float32](dst, src), ErrShapeMismatch)

	// Source larger than destination cannot be broadcast down.
	big := NewDense(make([]float32, 12), tensor.Shape{2, 2, 3})
	assert.ErrorIs(t, Evaluate[float32](dst, big), ErrShapeMismatch)
}

func TestBinary_StickyError(t *testing.T) {
	a := NewDense(make([]float32, 6), tensor.Shape{2, 3})
	b := NewDense(make([]float32, 4), tensor.Shape{2, 2})

	bad := Add[float32](a, b)
	require.Error(t, bad.Err())

	// The error propagates through every node built on top of it.
	outer := Map[float32](Mul[float32](bad, Scalar[float32](2)), func(x float32) float32 { return x })
	require.Error(t, outer.Err())

	_, err := ShapeOf[float32](outer)
	assert.Equal(t, bad.Err(), err)

	dst := NewDense(make([]float32, 6), tensor.Shape{2, 3})
	assert.Error(t, Assign[float32](dst, outer))
	assert.Equal(t, tensor.Shape{2, 3}, dst.Shape(), "failed assign must not resize")
}

func TestEvaluateWith_ParallelMatchesSequential(t *testing.T) {
	const rows, cols = 64, 17
	data := make([]float32, rows*cols)
	for i := range data {
		data[i] = float32(i)
	}
	a := NewDense(data, tensor.Shape{rows, cols})
	row := NewDense(make([]float32, cols), tensor.Shape{cols})
	for i := range row.Data() {
		row.Data()[i] = float32(i) * 0.5
	}
	e := Add[float32](a, row)

	seq := NewDense(make([]float32, rows*cols), tensor.Shape{rows, cols})
	require.NoError(t, Evaluate[float32](seq, e))

	cfg := Config{Parallel: parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}}
	par := NewDense(make([]float32, rows*cols), tensor.Shape{rows, cols})
	require.NoError(t, EvaluateWith[float32](cfg, par, e))

	assert.Equal(t, seq.Data(), par.Data())
}

func TestStrided_PaddedLayout(t *testing.T) {
	// 2x3 view with a row pitch of 4 elements.
	mem := []int32{1, 2, 3, -1, 4, 5, 6, -1}
	strides := indexes{4, 1}
	back := indexes{tensor.Backstride(2, 4), tensor.Backstride(3, 1)}

	leaf := &leafExpr{s: NewStrided(buffer.ViewOf(mem), tensor.Shape{2, 3}, strides, back, tensor.Shape{2, 3}), shape: tensor.Shape{2, 3}}
	dst := NewDense(make([]int32, 6), tensor.Shape{2, 3})
	require.NoError(t, Evaluate[int32](dst, leaf))
	assert.Equal(t, []int32{1, 2, 3, 4, 5, 6}, dst.Data())
}

func TestStrided_UnitExtentNeverMoves(t *testing.T) {
	// A leading extent-1 dimension with a nonzero stride must not advance the offset.
	s := NewStrided(buffer.ViewOf([]float32{7}), tensor.Shape{1}, indexes{5}, indexes{0}, tensor.Shape{3})
	s.Step(0)
	s.Step(0)
	assert.Equal(t, 0, s.Offset())
	s.Reset(0)
	assert.Equal(t, 0, s.Offset())
	assert.Equal(t, float32(7), s.Value())
}

func TestErr_PlainExpression(t *testing.T) {
	assert.NoError(t, Err[int32](Scalar[int32](1)))
	assert.False(t, errors.Is(Err[int32](NewDense([]int32{1}, tensor.Shape{1})), ErrShapeMismatch))
}

func TestNewDense_LengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { NewDense([]int32{1, 2}, tensor.Shape{3}) })
}

type indexes []int

func (x indexes) At(i int) int { return x[i] }

// leafExpr exposes a prebuilt stepper as an expression.
type leafExpr struct {
	s     *Strided[int32]
	shape tensor.Shape
}

func (l *leafExpr) Shape() tensor.Shape                 { return l.shape }
func (l *leafExpr) Stepper(tensor.Shape) Stepper[int32] { return l.s }
