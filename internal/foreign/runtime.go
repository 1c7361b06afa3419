// Package foreign defines the contract between strided arrays and the runtime that
// owns and reference-counts their memory.
//
// A Runtime hands out opaque Handles. Each handle describes one buffer (element type,
// shape, byte strides, data pointer, flags) and carries a reference count. Arrays never
// touch the count directly: every Acquire/Release goes through Ref.
package foreign

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/born-ml/ndarray/internal/tensor"
)

// Common errors.
var (
	ErrInvalidHandle = errors.New("invalid foreign handle")
	ErrUnsupported   = errors.New("unsupported buffer request")
	ErrInvalidBool   = errors.New("bool element is neither 0 nor 1")
)

// Handle is an opaque reference to a buffer owned by a Runtime. Zero is the null handle.
type Handle uint64

// Flags describe properties of a foreign buffer.
type Flags uint32

// Buffer flags.
const (
	Aligned     Flags = 1 << 0 // data pointer is aligned for the element type
	Writable    Flags = 1 << 1 // buffer may be written through
	CContiguous Flags = 1 << 2 // dense row-major
	FContiguous Flags = 1 << 3 // dense column-major
	OwnsData    Flags = 1 << 4 // the runtime allocated the memory itself
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// String lists the set flags.
func (f Flags) String() string {
	names := []struct {
		flag Flags
		name string
	}{
		{Aligned, "ALIGNED"},
		{Writable, "WRITEABLE"},
		{CContiguous, "C_CONTIGUOUS"},
		{FContiguous, "F_CONTIGUOUS"},
		{OwnsData, "OWNDATA"},
	}
	var parts []string
	for _, n := range names {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}

// Descriptor is the buffer-protocol description of a handle.
//
// Shape and ByteStrides are owned by the runtime and stay valid while the handle is
// alive. Callers must not modify them.
type Descriptor struct {
	DType       tensor.DataType
	Shape       []int
	ByteStrides []int
	Data        unsafe.Pointer
	Count       int // product of Shape
	Flags       Flags
}

// Rank returns the number of dimensions.
func (d Descriptor) Rank() int {
	return len(d.Shape)
}

// Runtime is the foreign runtime consumed by strided arrays.
type Runtime interface {
	// Describe returns the buffer description of a live handle.
	Describe(h Handle) (Descriptor, error)

	// Allocate requests a new buffer. The returned handle carries one reference owned by
	// the caller. A runtime that cannot satisfy the request returns an error or the null handle.
	Allocate(shape []int, dtype tensor.DataType, byteStrides []int, elemSize int, flags Flags) (Handle, error)

	// Acquire increments the reference count of a live handle.
	Acquire(h Handle)

	// Release decrements the reference count; the runtime frees the buffer at zero.
	Release(h Handle)
}

// ContiguityFlags computes CContiguous/FContiguous for a layout given in bytes.
// Shapes that are dense under both layouts (rank <= 1) get both flags.
func ContiguityFlags(shape, byteStrides []int, elemSize int) Flags {
	if len(shape) != len(byteStrides) {
		return 0
	}
	s := tensor.Shape(shape)
	var f Flags
	if equal(scale(s.DefaultStrides(tensor.RowMajor), elemSize), byteStrides) {
		f |= CContiguous
	}
	if equal(scale(s.DefaultStrides(tensor.ColumnMajor), elemSize), byteStrides) {
		f |= FContiguous
	}
	return f
}

// SpanBytes returns the number of bytes addressed by a layout, or an error wrapping
// ErrUnsupported when the layout cannot be served. Layouts whose extent or span does
// not fit in an int also wrap tensor.ErrOverflow.
func SpanBytes(shape, byteStrides []int, elemSize int) (int, error) {
	if len(shape) != len(byteStrides) {
		return 0, fmt.Errorf("%w: rank %d with %d strides", ErrUnsupported, len(shape), len(byteStrides))
	}
	if elemSize <= 0 {
		return 0, fmt.Errorf("%w: element size %d", ErrUnsupported, elemSize)
	}
	if err := tensor.Shape(shape).Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	for i, bs := range byteStrides {
		if bs < 0 {
			return 0, fmt.Errorf("%w: negative stride %d at dimension %d", ErrUnsupported, bs, i)
		}
	}
	if tensor.Shape(shape).NumElements() == 0 {
		return 0, nil
	}

	last := 0
	for i, dim := range shape {
		step, ok := tensor.MulInt(dim-1, byteStrides[i])
		if ok {
			last, ok = tensor.AddInt(last, step)
		}
		if !ok {
			return 0, fmt.Errorf("%w: %w: dimension %d of %d with stride %d bytes", ErrUnsupported, tensor.ErrOverflow, i, dim, byteStrides[i])
		}
	}
	size, ok := tensor.AddInt(last, elemSize)
	if !ok {
		return 0, fmt.Errorf("%w: %w: layout span", ErrUnsupported, tensor.ErrOverflow)
	}
	return size, nil
}

// CheckBools verifies that every element a bool layout addresses in data is 0 or 1.
// Other bytes cannot be read as a Go bool. The layout must already fit in data.
func CheckBools(data []byte, shape, byteStrides []int) error {
	if tensor.Shape(shape).NumElements() == 0 {
		return nil
	}
	return checkBools(data, 0, shape, byteStrides)
}

func checkBools(data []byte, off int, shape, byteStrides []int) error {
	if len(shape) == 0 {
		if b := data[off]; b > 1 {
			return fmt.Errorf("%w: byte %#x at offset %d", ErrInvalidBool, b, off)
		}
		return nil
	}
	for i := range shape[0] {
		if err := checkBools(data, off+i*byteStrides[0], shape[1:], byteStrides[1:]); err != nil {
			return err
		}
	}
	return nil
}

func scale(strides []int, elemSize int) []int {
	out := make([]int, len(strides))
	for i, s := range strides {
		out[i] = s * elemSize
	}
	return out
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
