package array_test

import (
	"fmt"

	"github.com/born-ml/ndarray/array"
	"github.com/born-ml/ndarray/expr"
	"github.com/born-ml/ndarray/foreign"
	"github.com/born-ml/ndarray/tensor"
)

func ExampleFromLiteral() {
	rt := foreign.NewHeap()
	a, err := array.FromLiteral[int32](rt, [][]int32{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		panic(err)
	}
	defer a.Close()

	fmt.Println(a.Shape(), a.Strides().Slice(), a.Backstrides().Slice())
	fmt.Println(a.Data().Slice())
	// Output:
	// [2 3] [3 1] [3 2]
	// [1 2 3 4 5 6]
}

func ExampleArray_Assign() {
	rt := foreign.NewHeap()
	x, _ := array.FromLiteral[float32](rt, [][]float32{{1, 2}, {3, 4}})
	defer x.Close()
	y, _ := array.FromLiteral[float32](rt, [][]float32{{10, 20}, {30, 40}})
	defer y.Close()

	z := array.Empty[float32](rt)
	defer z.Close()
	if err := z.Assign(expr.Add[float32](x, y)); err != nil {
		panic(err)
	}
	fmt.Println(z.Shape(), z.Values())
	// Output: [2 2] [11 22 33 44]
}

func ExampleNew_columnMajor() {
	rt := foreign.NewHeap()
	a, _ := array.New[float64](rt, tensor.Shape{3, 4}, tensor.ColumnMajor)
	defer a.Close()
	b, _ := array.New[float64](rt, tensor.Shape{1, 5}, tensor.RowMajor)
	defer b.Close()

	fmt.Println(a.Strides().Slice(), a.Backstrides().Slice())
	fmt.Println(b.Strides().Slice(), b.Backstrides().Slice())
	// Output:
	// [1 3] [2 9]
	// [5 1] [0 4]
}

func ExampleEnsure() {
	rt := foreign.NewHeap()
	h, _ := rt.Allocate([]int{2}, tensor.Float64, []int{8}, 8, foreign.Writable)
	defer rt.Release(h)

	_, ok := array.Ensure[float32](rt, h)
	fmt.Println("float32:", ok)

	a, ok := array.Ensure[float64](rt, h)
	fmt.Println("float64:", ok)
	a.Close()
	// Output:
	// float32: false
	// float64: true
}
