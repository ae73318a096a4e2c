// Package testing provides in-memory file doubles for HDF5 structure tests.
package testing

import (
	"errors"
	"io"
)

// MemFile is an in-memory io.ReaderAt and io.WriterAt. Writes past the end
// grow the buffer, zero-filling any gap.
type MemFile struct {
	data []byte
}

// NewMemFile creates a MemFile holding a copy of data.
func NewMemFile(data []byte) *MemFile {
	return &MemFile{data: append([]byte(nil), data...)}
}

// ReadAt implements io.ReaderAt.
func (m *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt.
func (m *MemFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}

	end := int(off) + len(p)
	if end > len(m.data) {
		m.data = append(m.data, make([]byte, end-len(m.data))...)
	}
	return copy(m.data[off:], p), nil
}

// Bytes returns the underlying buffer. Mutating it changes the file.
func (m *MemFile) Bytes() []byte {
	return m.data
}

// Len returns the file size.
func (m *MemFile) Len() int {
	return len(m.data)
}

// FlipByte inverts every bit of the byte at off, for corruption tests.
func (m *MemFile) FlipByte(off int) {
	m.data[off] ^= 0xFF
}

// FailingReaderAt returns Err from every read.
type FailingReaderAt struct {
	Err error
}

// ReadAt implements io.ReaderAt.
func (f FailingReaderAt) ReadAt([]byte, int64) (int, error) {
	return 0, f.Err
}
