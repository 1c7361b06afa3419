package mapped

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/born-ml/ndarray/internal/foreign"
	"github.com/born-ml/ndarray/internal/tensor"
)

// Format constants.
//
//	[4 bytes: Magic "BNDA"]
//	[4 bytes: Version (uint32 LE)]
//	[8 bytes: Header Size (uint64 LE)]
//	[Header: JSON metadata]
//	[Array data: raw bytes, 64-byte aligned]
const (
	MagicBytes    = "BNDA"
	FormatVersion = 1
	PreambleSize  = 16
	DataAlignment = 64      // Align array data to 64 bytes
	MaxHeaderSize = 1 << 20 // 1MB - maximum JSON header size
	FileExt       = ".bnda"
)

// Header is the JSON header of a .bnda file.
type Header struct {
	DType      string            `json:"dtype"`              // Element type (e.g. "float32")
	Shape      []int             `json:"shape"`              // Extents per dimension
	Strides    []int             `json:"strides"`            // Strides in bytes
	DataOffset int64             `json:"data_offset"`        // Start of the data section
	DataSize   int64             `json:"data_size"`          // Bytes in the data section
	CreatedAt  time.Time         `json:"created_at"`         // When the file was created
	Metadata   map[string]string `json:"metadata,omitempty"` // Custom metadata
}

// newHeader builds a header for the given layout. DataOffset is filled by encode.
func newHeader(dtype tensor.DataType, shape, byteStrides []int) (Header, error) {
	size, err := foreign.SpanBytes(shape, byteStrides, dtype.Size())
	if err != nil {
		return Header{}, err
	}
	return Header{
		DType:     dtype.String(),
		Shape:     append([]int{}, shape...),
		Strides:   append([]int{}, byteStrides...),
		DataSize:  int64(size),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// encode serializes the header and fixes DataOffset so that the data section starts
// on a DataAlignment boundary right after the JSON.
func (h *Header) encode() ([]byte, error) {
	for {
		b, err := json.Marshal(h)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal header: %w", err)
		}
		off := alignUp(int64(PreambleSize+len(b)), DataAlignment)
		if off == h.DataOffset {
			return b, nil
		}
		h.DataOffset = off
	}
}

// writeHeader writes the preamble and JSON header to w.
func writeHeader(w io.Writer, h *Header) error {
	b, err := h.encode()
	if err != nil {
		return err
	}
	if len(b) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	var pre [PreambleSize]byte
	copy(pre[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(pre[4:8], FormatVersion)
	binary.LittleEndian.PutUint64(pre[8:16], uint64(len(b)))
	if _, err := w.Write(pre[:]); err != nil {
		return fmt.Errorf("failed to write preamble: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// parseHeader reads and validates the header of a mapped file.
func parseHeader(data []byte) (Header, tensor.DataType, error) {
	if len(data) < PreambleSize {
		return Header{}, 0, fmt.Errorf("file too small: %d bytes (minimum %d bytes required)", len(data), PreambleSize)
	}
	if string(data[0:4]) != MagicBytes {
		return Header{}, 0, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != FormatVersion {
		return Header{}, 0, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, v, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(data[8:16])
	if headerSize > MaxHeaderSize {
		return Header{}, 0, ErrHeaderTooLarge
	}
	end := PreambleSize + int(headerSize)
	if end > len(data) {
		return Header{}, 0, &HeaderError{Field: "header_size", Details: fmt.Sprintf("%d bytes past end of file", end-len(data)), Err: ErrOutOfBounds}
	}

	var h Header
	if err := json.Unmarshal(data[PreambleSize:end], &h); err != nil {
		return Header{}, 0, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	dtype, err := tensor.ParseDataType(h.DType)
	if err != nil {
		return Header{}, 0, &HeaderError{Field: "dtype", Details: err.Error()}
	}
	if err := validateHeader(h, dtype, int64(end), int64(len(data))); err != nil {
		return Header{}, 0, err
	}
	if dtype == tensor.Bool {
		section := data[h.DataOffset : h.DataOffset+h.DataSize]
		if err := foreign.CheckBools(section, h.Shape, h.Strides); err != nil {
			return Header{}, 0, &HeaderError{Field: "data", Details: "invalid bool element", Err: err}
		}
	}
	return h, dtype, nil
}

// validateHeader checks the data section against the header and the file size.
func validateHeader(h Header, dtype tensor.DataType, headerEnd, fileSize int64) error {
	if h.DataOffset < headerEnd || h.DataOffset%DataAlignment != 0 {
		return &HeaderError{Field: "data_offset", Details: fmt.Sprintf("%d is not an aligned offset past the header (%d)", h.DataOffset, headerEnd)}
	}
	if h.DataSize < 0 || h.DataSize > fileSize-h.DataOffset {
		return &HeaderError{
			Field:   "data_size",
			Details: fmt.Sprintf("offset %d + size %d > file size %d", h.DataOffset, h.DataSize, fileSize),
			Err:     ErrOutOfBounds,
		}
	}
	span, err := foreign.SpanBytes(h.Shape, h.Strides, dtype.Size())
	if err != nil {
		return &HeaderError{Field: "strides", Details: "layout cannot be served", Err: err}
	}
	if int64(span) > h.DataSize {
		return &HeaderError{
			Field:   "shape",
			Details: fmt.Sprintf("layout addresses %d bytes, data section has %d", span, h.DataSize),
			Err:     ErrOutOfBounds,
		}
	}
	return nil
}

func alignUp(n, align int64) int64 {
	return (n + align - 1) / align * align
}
