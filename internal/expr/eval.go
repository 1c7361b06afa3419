package expr

import (
	"fmt"

	"github.com/born-ml/ndarray/internal/parallel"
	"github.com/born-ml/ndarray/internal/tensor"
)

// Config controls expression evaluation.
type Config struct {
	// Parallel splits the outermost destination dimension across goroutines.
	// Chunks write disjoint elements; evaluation returns once all chunks finish.
	Parallel parallel.Config
}

// DefaultConfig evaluates sequentially on the calling goroutine.
func DefaultConfig() Config {
	return Config{Parallel: parallel.Sequential()}
}

// Assign evaluates e into dst, resizing dst first when its shape differs from e's.
//
// Resizing happens before evaluation: an expression that reads dst itself must be
// evaluated into a separate container first.
func Assign[T any](dst Container[T], e Expression[T]) error {
	return AssignWith(DefaultConfig(), dst, e)
}

// AssignWith is Assign with an explicit configuration.
func AssignWith[T any](cfg Config, dst Container[T], e Expression[T]) error {
	shape, err := ShapeOf(e)
	if err != nil {
		return err
	}
	if !dst.Shape().Equal(shape) {
		if err := dst.Resize(shape.Clone()); err != nil {
			return fmt.Errorf("resize to %v: %w", shape, err)
		}
	}
	return EvaluateWith(cfg, dst, e)
}

// Evaluate writes every element of e into dst without resizing. e must broadcast to
// dst's shape.
func Evaluate[T any](dst Container[T], e Expression[T]) error {
	return EvaluateWith(DefaultConfig(), dst, e)
}

// EvaluateWith is Evaluate with an explicit configuration.
func EvaluateWith[T any](cfg Config, dst Container[T], e Expression[T]) error {
	src, err := ShapeOf(e)
	if err != nil {
		return err
	}
	shape := dst.Shape()
	if b, _, err := tensor.BroadcastShapes(shape, src); err != nil || !b.Equal(shape) {
		return fmt.Errorf("%w: %v into %v", ErrShapeMismatch, src, shape)
	}

	if shape.NumElements() == 0 {
		return nil
	}
	if len(shape) == 0 {
		dst.Sink().Store(e.Stepper(shape).Value())
		return nil
	}

	inner := shape.NumElements() / shape[0]
	parallel.ForRange(shape[0], func(start, end int) {
		evaluateRows(dst, e, shape, inner, start, end)
	}, cfg.Parallel)
	return nil
}

// evaluateRows evaluates rows [start, end) of the outermost dimension.
func evaluateRows[T any](dst Container[T], e Expression[T], shape tensor.Shape, inner, start, end int) {
	sink := dst.Sink()
	src := e.Stepper(shape)
	for r := 0; r < start; r++ {
		sink.Step(0)
		src.Step(0)
	}

	idx := make([]int, len(shape))
	idx[0] = start
	count := (end - start) * inner
	for k := 0; k < count; k++ {
		sink.Store(src.Value())
		if k < count-1 {
			increment(idx, shape, sink, src)
		}
	}
}
