package writer

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// CreateMode specifies how NewFileWriter obtains its file.
type CreateMode int

const (
	// ModeTruncate creates a new file, truncating if it exists.
	ModeTruncate CreateMode = iota

	// ModeExclusive creates a new file, fails if it exists.
	ModeExclusive

	// ModeAtomic writes to a hidden temporary file in the target directory
	// and renames it over the target on Close. Abort leaves the target
	// untouched.
	ModeAtomic
)

// String returns the mode name used in log output.
func (m CreateMode) String() string {
	switch m {
	case ModeTruncate:
		return "truncate"
	case ModeExclusive:
		return "exclusive"
	case ModeAtomic:
		return "atomic"
	default:
		return fmt.Sprintf("CreateMode(%d)", int(m))
	}
}

// ErrWriterClosed is returned by every operation on a closed FileWriter.
var ErrWriterClosed = errors.New("writer is closed")

// backingFile is the subset of *os.File the writer needs. A renameio
// pending file satisfies it as well.
type backingFile interface {
	io.ReaderAt
	io.WriterAt
	Sync() error
	Truncate(size int64) error
	Stat() (os.FileInfo, error)
}

// FileWriter owns a writable HDF5 file handle together with its space
// allocator.
//
// Thread-safety: Not thread-safe. Caller must synchronize access.
type FileWriter struct {
	file      backingFile
	allocator *Allocator
	mode      CreateMode
	created   bool

	// finish releases the handle and publishes the result.
	finish func() error
	// discard releases the handle and drops whatever was created.
	discard func() error
}

// NewFileWriter creates a writer for a new HDF5 file.
//
// Parameters:
//   - filename: Path to file to create
//   - mode: Creation mode (truncate, exclusive or atomic)
//   - initialOffset: Starting address for allocations (48 for superblock v2)
//
// Returns:
//   - FileWriter ready for use
//   - Error if file creation fails
func NewFileWriter(filename string, mode CreateMode, initialOffset uint64) (*FileWriter, error) {
	w := &FileWriter{
		allocator: NewAllocator(initialOffset),
		mode:      mode,
		created:   true,
	}

	switch mode {
	case ModeTruncate, ModeExclusive:
		flags := os.O_RDWR | os.O_CREATE | os.O_TRUNC
		if mode == ModeExclusive {
			flags = os.O_RDWR | os.O_CREATE | os.O_EXCL
		}
		f, err := os.OpenFile(filename, flags, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to create file: %w", err)
		}
		w.file = f
		w.finish = f.Close
		w.discard = func() error {
			closeErr := f.Close()
			if err := os.Remove(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return closeErr
		}

	case ModeAtomic:
		if err := w.openAtomic(filename); err != nil {
			return nil, fmt.Errorf("failed to create pending file: %w", err)
		}

	default:
		return nil, fmt.Errorf("invalid create mode: %d", mode)
	}

	return w, nil
}

// OpenFileWriter opens an existing HDF5 file for modification. New space is
// allocated from the current end of the file; callers that know a larger
// end-of-file address move the allocator with Allocator().AdvanceTo.
func OpenFileWriter(filename string) (*FileWriter, error) {
	f, err := os.OpenFile(filename, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for writing: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &FileWriter{
		file:      f,
		allocator: NewAllocator(uint64(info.Size())), //nolint:gosec // G115: file sizes are non-negative
		mode:      ModeTruncate,
		finish:    f.Close,
		discard:   f.Close,
	}, nil
}

// Mode returns the mode the writer was created with.
func (w *FileWriter) Mode() CreateMode {
	return w.mode
}

// Allocate reserves a block of space at the end of the file.
// The space is not zeroed; the caller writes the block with WriteAtAddress.
//
// Example:
//
//	addr, err := w.Allocate(uint64(len(data)))
//	if err != nil {
//	    return err
//	}
//	err = w.WriteAtAddress(data, addr)
func (w *FileWriter) Allocate(size uint64) (uint64, error) {
	if w.file == nil {
		return 0, ErrWriterClosed
	}

	return w.allocator.Allocate(size)
}

// WriteAt writes data at a specific file offset. Implements io.WriterAt.
func (w *FileWriter) WriteAt(data []byte, offset int64) (int, error) {
	if w.file == nil {
		return 0, ErrWriterClosed
	}

	if len(data) == 0 {
		return 0, nil
	}

	n, err := w.file.WriteAt(data, offset)
	if err != nil {
		return n, fmt.Errorf("write at address %d failed: %w", offset, err)
	}

	if n != len(data) {
		return n, fmt.Errorf("incomplete write at address %d: wrote %d of %d bytes", offset, n, len(data))
	}

	return n, nil
}

// WriteAtAddress is WriteAt with an HDF5 address.
func (w *FileWriter) WriteAtAddress(data []byte, addr uint64) error {
	//nolint:gosec // G115: allocator keeps addresses below MaxInt64
	_, err := w.WriteAt(data, int64(addr))
	return err
}

// WriteAtWithAllocation allocates len(data) bytes and writes data there.
// Returns the address of the new block.
func (w *FileWriter) WriteAtWithAllocation(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("cannot write empty data")
	}

	addr, err := w.Allocate(uint64(len(data)))
	if err != nil {
		return 0, err
	}

	if err := w.WriteAtAddress(data, addr); err != nil {
		return 0, err
	}

	return addr, nil
}

// ReadAt reads back previously written data. Implements io.ReaderAt.
func (w *FileWriter) ReadAt(buf []byte, addr int64) (int, error) {
	if w.file == nil {
		return 0, ErrWriterClosed
	}

	return w.file.ReadAt(buf, addr)
}

// EndOfFile returns the address where the next allocation would occur.
func (w *FileWriter) EndOfFile() uint64 {
	return w.allocator.EndOfFile()
}

// Allocator returns the space allocator.
func (w *FileWriter) Allocator() *Allocator {
	return w.allocator
}

// Extend grows the file to at least size bytes. Allocated but unwritten
// space at the end of the file would otherwise leave the file shorter than
// its recorded end-of-file address, which readers report as truncation.
func (w *FileWriter) Extend(size uint64) error {
	if w.file == nil {
		return ErrWriterClosed
	}

	info, err := w.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	//nolint:gosec // G115: file sizes are non-negative
	if uint64(info.Size()) >= size {
		return nil
	}

	//nolint:gosec // G115: allocator keeps addresses below MaxInt64
	if err := w.file.Truncate(int64(size)); err != nil {
		return fmt.Errorf("failed to extend file to %d bytes: %w", size, err)
	}
	return nil
}

// Flush commits all writes to stable storage.
func (w *FileWriter) Flush() error {
	if w.file == nil {
		return ErrWriterClosed
	}

	return w.file.Sync()
}

// Close extends the file to its end-of-file address and releases it.
// In ModeAtomic the temporary file is synced and renamed over the target.
// Closing twice is a no-op.
func (w *FileWriter) Close() error {
	if w.file == nil {
		return nil
	}

	extendErr := w.Extend(w.allocator.EndOfFile())
	if extendErr != nil {
		_ = w.discard()
		w.file = nil
		return extendErr
	}

	err := w.finish()
	w.file = nil
	return err
}

// Abort releases the file without publishing it. A file created by
// NewFileWriter is removed; an atomic pending file is discarded and the
// target path is left as it was. A file opened by OpenFileWriter is only
// closed.
func (w *FileWriter) Abort() error {
	if w.file == nil {
		return nil
	}

	err := w.discard()
	w.file = nil
	return err
}

// Created reports whether the writer created its file rather than opening
// an existing one.
func (w *FileWriter) Created() bool {
	return w.created
}

var (
	_ io.ReaderAt = (*FileWriter)(nil)
	_ io.WriterAt = (*FileWriter)(nil)
)
