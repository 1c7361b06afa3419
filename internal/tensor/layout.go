package tensor

// Layout selects how default strides are derived from a shape.
// It is only consulted at construction time; strides are the source of truth afterwards.
type Layout int

// Supported layouts.
const (
	RowMajor Layout = iota
	ColumnMajor
)

// String returns a human-readable layout name.
func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "row-major"
	case ColumnMajor:
		return "column-major"
	default:
		return "unknown"
	}
}

// Backstride returns the offset to subtract when an iterator wraps a dimension of
// the given extent and stride back to index 0.
//
// A dimension of extent 1 always yields 0, whatever its stride, so that a broadcast
// dimension walked repeatedly never moves the buffer offset.
func Backstride(extent, stride int) int {
	if extent == 1 {
		return 0
	}
	return (extent - 1) * stride
}

// LayoutOf reports whether strides are the dense default for shape under a layout.
// A shape that is dense under both (rank <= 1, or all but one extent equal to 1)
// reports RowMajor. ok is false for any other stride set.
func LayoutOf(shape Shape, strides []int) (l Layout, ok bool) {
	if len(shape) != len(strides) {
		return RowMajor, false
	}
	if equalInts(shape.DefaultStrides(RowMajor), strides) {
		return RowMajor, true
	}
	if equalInts(shape.DefaultStrides(ColumnMajor), strides) {
		return ColumnMajor, true
	}
	return RowMajor, false
}

func equalInts(a, b []int) bool {
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
