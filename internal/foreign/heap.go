package foreign

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/born-ml/ndarray/internal/tensor"
)

// block is a reference-counted buffer registered with a Heap.
type block struct {
	mem      []uint64 // backing store when the heap allocated it (8-byte aligned)
	wrapped  []byte   // caller memory registered through Wrap
	desc     Descriptor
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// addRef increments the reference count.
func (b *block) addRef() {
	b.refCount.Add(1)
}

// release decrements the reference count and drops the memory when it reaches 0.
// It reports whether the block died.
func (b *block) release() bool {
	if b.refCount.Add(-1) != 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mem = nil
	b.wrapped = nil
	b.desc.Data = nil
	return true
}

// Heap is an in-process foreign runtime. Buffers live on the Go heap and are kept
// reachable by the handle table until their reference count drops to zero.
//
// Heap is safe for concurrent use; the buffers it hands out are not synchronized.
type Heap struct {
	mu     sync.Mutex
	next   Handle
	blocks map[Handle]*block
}

// NewHeap creates an empty heap runtime.
func NewHeap() *Heap {
	return &Heap{blocks: make(map[Handle]*block)}
}

// Allocate creates a zero-filled buffer with the requested layout.
func (h *Heap) Allocate(shape []int, dtype tensor.DataType, byteStrides []int, elemSize int, flags Flags) (Handle, error) {
	if elemSize != dtype.Size() {
		return 0, fmt.Errorf("%w: element size %d for %s", ErrUnsupported, elemSize, dtype)
	}
	size, err := SpanBytes(shape, byteStrides, elemSize)
	if err != nil {
		return 0, err
	}

	b := &block{mem: make([]uint64, (size+7)/8)}
	var data unsafe.Pointer
	if len(b.mem) > 0 {
		data = unsafe.Pointer(&b.mem[0])
	}
	b.desc = Descriptor{
		DType:       dtype,
		Shape:       append([]int(nil), shape...),
		ByteStrides: append([]int(nil), byteStrides...),
		Data:        data,
		Count:       tensor.Shape(shape).NumElements(),
		Flags:       flags | Aligned | OwnsData | ContiguityFlags(shape, byteStrides, elemSize),
	}
	return h.register(b), nil
}

// Wrap registers caller-owned memory as a foreign buffer without copying it. The
// returned handle carries one reference owned by the caller. The Aligned flag is set
// only when data is suitably aligned for dtype; Writable is taken from flags.
// Bool buffers must hold only 0 or 1 in every addressed element, and callers writing
// to data afterwards must keep it that way.
func (h *Heap) Wrap(data []byte, dtype tensor.DataType, shape, byteStrides []int, flags Flags) (Handle, error) {
	elemSize := dtype.Size()
	size, err := SpanBytes(shape, byteStrides, elemSize)
	if err != nil {
		return 0, err
	}
	if size > len(data) {
		return 0, fmt.Errorf("%w: layout addresses %d bytes, buffer has %d", ErrUnsupported, size, len(data))
	}
	if dtype == tensor.Bool {
		if err := CheckBools(data, shape, byteStrides); err != nil {
			return 0, err
		}
	}

	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	flags &^= Aligned | OwnsData | CContiguous | FContiguous
	if uintptr(ptr)%uintptr(elemSize) == 0 {
		flags |= Aligned
	}

	b := &block{wrapped: data}
	b.desc = Descriptor{
		DType:       dtype,
		Shape:       append([]int(nil), shape...),
		ByteStrides: append([]int(nil), byteStrides...),
		Data:        ptr,
		Count:       tensor.Shape(shape).NumElements(),
		Flags:       flags | ContiguityFlags(shape, byteStrides, elemSize),
	}
	return h.register(b), nil
}

func (h *Heap) register(b *block) Handle {
	b.refCount.Store(1)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.blocks[h.next] = b
	return h.next
}

func (h *Heap) lookup(hd Handle) (*block, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.blocks[hd]
	return b, ok
}

// Describe returns the descriptor of a live handle.
func (h *Heap) Describe(hd Handle) (Descriptor, error) {
	b, ok := h.lookup(hd)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %d", ErrInvalidHandle, hd)
	}
	return b.desc, nil
}

// Acquire increments the reference count. Panics on a dead handle.
func (h *Heap) Acquire(hd Handle) {
	b, ok := h.lookup(hd)
	if !ok {
		panic(fmt.Sprintf("foreign: acquire of dead handle %d", hd))
	}
	b.addRef()
}

// Release decrements the reference count and forgets the handle at zero.
// Panics on a dead handle, which indicates a double release.
func (h *Heap) Release(hd Handle) {
	b, ok := h.lookup(hd)
	if !ok {
		panic(fmt.Sprintf("foreign: release of dead handle %d", hd))
	}
	if b.release() {
		h.mu.Lock()
		delete(h.blocks, hd)
		h.mu.Unlock()
	}
}

// RefCount returns the current reference count of a handle, or 0 if it is dead.
func (h *Heap) RefCount(hd Handle) int {
	b, ok := h.lookup(hd)
	if !ok {
		return 0
	}
	return int(b.refCount.Load())
}

// Live returns the number of live handles.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks)
}
