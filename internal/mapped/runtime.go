// Package mapped implements a foreign runtime whose buffers are memory-mapped .bnda
// files. Arrays adapted from this runtime read and write file pages directly; two
// handles opened on the same file alias the same bytes.
package mapped

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/edsrzf/mmap-go"

	"github.com/born-ml/ndarray/internal/foreign"
	"github.com/born-ml/ndarray/internal/tensor"
)

// Config controls where and how a Runtime creates files.
type Config struct {
	Dir             string      // Directory for files created by Allocate
	RemoveOnRelease bool        // Delete Allocate'd files when their last reference goes
	FileMode        os.FileMode // Permissions of created files
}

// DefaultConfig places anonymous buffers in a temporary directory and deletes them
// once released.
func DefaultConfig() Config {
	return Config{
		Dir:             filepath.Join(os.TempDir(), "bnda"),
		RemoveOnRelease: true,
		FileMode:        0o600,
	}
}

// entry is one mapped file behind a handle.
type entry struct {
	path     string
	file     *os.File
	m        mmap.MMap
	header   Header
	desc     foreign.Descriptor
	remove   bool
	refCount atomic.Int32
}

// close flushes, unmaps and closes the file, removing it if requested.
func (e *entry) close() error {
	var errs []error
	if e.desc.Flags.Has(foreign.Writable) {
		if err := e.m.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", e.path, err))
		}
	}
	if err := e.m.Unmap(); err != nil {
		errs = append(errs, fmt.Errorf("unmap %s: %w", e.path, err))
	}
	if err := e.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", e.path, err))
	}
	if e.remove {
		if err := os.Remove(e.path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", e.path, err))
		}
	}
	return errors.Join(errs...)
}

// Runtime is a foreign runtime backed by memory-mapped files.
//
// Runtime is safe for concurrent use; the mapped memory it hands out is not synchronized.
type Runtime struct {
	cfg     Config
	mu      sync.Mutex
	next    foreign.Handle
	entries map[foreign.Handle]*entry
	errs    []error // release failures, reported by Close
	closed  bool
}

// New creates a runtime, making cfg.Dir if needed.
func New(cfg Config) (*Runtime, error) {
	if cfg.FileMode == 0 {
		cfg.FileMode = 0o600
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", cfg.Dir, err)
	}
	return &Runtime{cfg: cfg, entries: make(map[foreign.Handle]*entry)}, nil
}

// Allocate creates an anonymous zero-filled file in the runtime's directory and maps it.
// The mapping is read-write when flags include Writable, read-only otherwise.
func (r *Runtime) Allocate(shape []int, dtype tensor.DataType, byteStrides []int, elemSize int, flags foreign.Flags) (foreign.Handle, error) {
	if elemSize != dtype.Size() {
		return 0, fmt.Errorf("%w: element size %d for %s", foreign.ErrUnsupported, elemSize, dtype)
	}
	f, err := os.CreateTemp(r.cfg.Dir, "*"+FileExt)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	path := f.Name()
	if err := r.initFile(f, dtype, shape, byteStrides); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return 0, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}

	h, err := r.open(path, !flags.Has(foreign.Writable), r.cfg.RemoveOnRelease)
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return h, nil
}

// Create writes a new zero-filled .bnda file at path and maps it read-write.
// The file outlives the handle.
func (r *Runtime) Create(path string, dtype tensor.DataType, shape, byteStrides []int) (foreign.Handle, error) {
	//nolint:gosec // G304: path is chosen by the caller
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, r.cfg.FileMode)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := r.initFile(f, dtype, shape, byteStrides); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return r.open(path, false, false)
}

// Open maps an existing .bnda file. Handles opened read-only lack the Writable flag.
// Bool files are rejected unless every element holds 0 or 1.
func (r *Runtime) Open(path string, readOnly bool) (foreign.Handle, error) {
	return r.open(path, readOnly, false)
}

func (r *Runtime) initFile(f *os.File, dtype tensor.DataType, shape, byteStrides []int) error {
	h, err := newHeader(dtype, shape, byteStrides)
	if err != nil {
		return err
	}
	if err := writeHeader(f, &h); err != nil {
		return err
	}
	if err := f.Truncate(h.DataOffset + h.DataSize); err != nil {
		return fmt.Errorf("failed to size %s: %w", f.Name(), err)
	}
	return nil
}

func (r *Runtime) open(path string, readOnly, remove bool) (foreign.Handle, error) {
	flag, prot := os.O_RDWR, mmap.RDWR
	if readOnly {
		flag, prot = os.O_RDONLY, mmap.RDONLY
	}
	//nolint:gosec // G304: path is chosen by the caller
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}

	m, err := mmap.Map(f, prot, 0)
	if err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("mmap failed: %w", err)
	}

	h, dtype, err := parseHeader(m)
	if err != nil {
		_ = m.Unmap()
		_ = f.Close()
		var he *HeaderError
		if errors.As(err, &he) {
			he.Path = path
			return 0, he
		}
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	var data unsafe.Pointer
	if h.DataSize > 0 {
		data = unsafe.Pointer(&m[h.DataOffset])
	}
	flags := foreign.Aligned | foreign.ContiguityFlags(h.Shape, h.Strides, dtype.Size())
	if !readOnly {
		flags |= foreign.Writable
	}

	e := &entry{
		path:   path,
		file:   f,
		m:      m,
		header: h,
		remove: remove,
		desc: foreign.Descriptor{
			DType:       dtype,
			Shape:       h.Shape,
			ByteStrides: h.Strides,
			Data:        data,
			Count:       tensor.Shape(h.Shape).NumElements(),
			Flags:       flags,
		},
	}
	e.refCount.Store(1)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		_ = e.close()
		return 0, ErrClosed
	}
	r.next++
	r.entries[r.next] = e
	return r.next, nil
}

func (r *Runtime) lookup(h foreign.Handle) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	return e, ok
}

// Describe returns the descriptor of a live handle.
func (r *Runtime) Describe(h foreign.Handle) (foreign.Descriptor, error) {
	e, ok := r.lookup(h)
	if !ok {
		return foreign.Descriptor{}, fmt.Errorf("%w: %d", foreign.ErrInvalidHandle, h)
	}
	return e.desc, nil
}

// Acquire increments the reference count. Panics on a dead handle.
func (r *Runtime) Acquire(h foreign.Handle) {
	e, ok := r.lookup(h)
	if !ok {
		panic(fmt.Sprintf("mapped: acquire of dead handle %d", h))
	}
	e.refCount.Add(1)
}

// Release decrements the reference count and unmaps the file at zero.
// Panics on a dead handle, which indicates a double release.
func (r *Runtime) Release(h foreign.Handle) {
	e, ok := r.lookup(h)
	if !ok {
		panic(fmt.Sprintf("mapped: release of dead handle %d", h))
	}
	if e.refCount.Add(-1) != 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, h)
	if err := e.close(); err != nil {
		r.errs = append(r.errs, err)
	}
}

// Flush writes modified pages of a writable handle back to its file.
func (r *Runtime) Flush(h foreign.Handle) error {
	e, ok := r.lookup(h)
	if !ok {
		return fmt.Errorf("%w: %d", foreign.ErrInvalidHandle, h)
	}
	if !e.desc.Flags.Has(foreign.Writable) {
		return nil
	}
	return e.m.Flush()
}

// Path returns the file behind a handle.
func (r *Runtime) Path(h foreign.Handle) (string, error) {
	e, ok := r.lookup(h)
	if !ok {
		return "", fmt.Errorf("%w: %d", foreign.ErrInvalidHandle, h)
	}
	return e.path, nil
}

// Header returns the parsed header of a handle's file.
func (r *Runtime) Header(h foreign.Handle) (Header, error) {
	e, ok := r.lookup(h)
	if !ok {
		return Header{}, fmt.Errorf("%w: %d", foreign.ErrInvalidHandle, h)
	}
	return e.header, nil
}

// RefCount returns the current reference count of a handle, or 0 if it is dead.
func (r *Runtime) RefCount(h foreign.Handle) int {
	e, ok := r.lookup(h)
	if !ok {
		return 0
	}
	return int(e.refCount.Load())
}

// Live returns the number of mapped handles.
func (r *Runtime) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close unmaps every remaining handle regardless of its reference count and reports
// any error met while releasing. Arrays still referring to the runtime must not be
// used afterwards.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	errs := r.errs
	for h, e := range r.entries {
		if err := e.close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.entries, h)
	}
	r.errs = nil
	return errors.Join(errs...)
}
