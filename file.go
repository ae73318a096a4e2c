// Package h5io reads and writes HDF5 files holding flat collections of
// numeric datasets.
//
// A File is opened or created, datasets are created from a Datatype and a
// Dataspace, written and read as whole Go slices, and the file is closed:
//
//	f, err := h5io.Create("out.h5")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	if err := f.WriteDoubles("temperature", []float64{1.5, 2.5, 3.5}, 3); err != nil {
//	    return err
//	}
//
// Files use superblock version 2, version 2 object headers and contiguous
// storage, and are readable by the HDF5 library 1.10 and later.
package h5io

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/scigolib/h5io/internal/core"
	h5log "github.com/scigolib/h5io/internal/log"
	"github.com/scigolib/h5io/internal/writer"
)

// File is an open HDF5 file.
//
// A File is not safe for concurrent use.
type File struct {
	path   string
	mode   Mode
	logger zerolog.Logger

	sb     *core.Superblock
	reader io.ReaderAt
	osFile *os.File          // read-only handle (ModeReadOnly)
	fw     *writer.FileWriter // writable handle (all other modes)

	links map[string]uint64
	open  map[*Dataset]struct{}
	dirty bool

	closed bool
}

// Open opens or creates an HDF5 file.
//
// Parameters:
//   - filename: Path to the file
//   - mode: ModeReadOnly and ModeReadWrite open an existing file;
//     ModeTruncate and ModeExclusive create a new one
//   - opts: WithLogger, WithAtomicCreate
//
// Returns:
//   - *File: Handle to the file, to be closed with Close
//   - error: ErrNotHDF5, ErrUnsupported or ErrChecksum for unreadable files,
//     or the underlying I/O error
//
// Example:
//
//	f, err := h5io.Open("data.h5", h5io.ModeReadWrite)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
func Open(filename string, mode Mode, opts ...FileOption) (*File, error) {
	cfg := defaultFileConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	f := &File{
		path:   filename,
		mode:   mode,
		logger: cfg.logger.With().Str(h5log.FieldFile, filename).Logger(),
		links:  make(map[string]uint64),
		open:   make(map[*Dataset]struct{}),
	}

	if cfg.atomic && !mode.creates() {
		return nil, fmt.Errorf("%w: atomic create needs a create mode, got %s", ErrUnsupported, mode)
	}

	var err error
	switch mode {
	case ModeReadOnly:
		err = f.openReadOnly()
	case ModeReadWrite:
		err = f.openReadWrite()
	case ModeTruncate, ModeExclusive:
		err = f.create(cfg.atomic)
	default:
		return nil, fmt.Errorf("invalid open mode: %d", mode)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Debug().
		Str("mode", mode.String()).
		Int("datasets", len(f.links)).
		Msg("opened file")
	return f, nil
}

// Create creates a new file, truncating any existing one. It is
// Open(filename, ModeTruncate, opts...).
func Create(filename string, opts ...FileOption) (*File, error) {
	return Open(filename, ModeTruncate, opts...)
}

func (f *File) openReadOnly() error {
	osFile, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if err := f.loadRoot(osFile); err != nil {
		_ = osFile.Close()
		return err
	}

	f.osFile = osFile
	f.reader = osFile
	return nil
}

func (f *File) openReadWrite() error {
	fw, err := writer.OpenFileWriter(f.path)
	if err != nil {
		return err
	}

	if err := f.loadRoot(fw); err != nil {
		_ = fw.Abort()
		return err
	}

	// Files written by other tools may reserve space past the last byte.
	fw.Allocator().AdvanceTo(f.sb.EndOfFile)
	// Bytes past the recorded end of file, left by an aborted session, are
	// covered by the superblock of the next metadata write.
	if fw.EndOfFile() != f.sb.EndOfFile {
		f.dirty = true
	}

	f.fw = fw
	f.reader = fw
	return nil
}

func (f *File) create(atomic bool) error {
	mode := writer.ModeTruncate
	switch {
	case atomic:
		if f.mode == ModeExclusive {
			if _, err := os.Stat(f.path); err == nil {
				return fmt.Errorf("failed to create file: %w", os.ErrExist)
			}
		}
		mode = writer.ModeAtomic
	case f.mode == ModeExclusive:
		mode = writer.ModeExclusive
	}

	fw, err := writer.NewFileWriter(f.path, mode, core.SuperblockV2Size)
	if err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			return fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return err
	}

	f.fw = fw
	f.reader = fw
	f.dirty = true
	f.logger.Debug().Str("writer", fw.Mode().String()).Msg("creating file")

	// Write a valid empty file right away so a crash before Close still
	// leaves something HDF5 tools can open.
	if err := f.writeMetadata(); err != nil {
		if abortErr := fw.Abort(); abortErr != nil {
			f.logger.Warn().Err(abortErr).Msg("failed to remove partially created file")
		}
		return err
	}
	return nil
}

// loadRoot reads the superblock and the root group links.
func (f *File) loadRoot(r io.ReaderAt) error {
	sb, err := core.ReadSuperblock(r)
	if err != nil {
		return fmt.Errorf("failed to read superblock: %w", err)
	}

	root, err := core.ReadObjectHeader(r, sb.RootGroup, sb)
	if err != nil {
		return fmt.Errorf("failed to read root group: %w", err)
	}

	links, err := core.GroupLinks(root, sb)
	if err != nil {
		return fmt.Errorf("failed to read root group links: %w", err)
	}

	f.sb = sb
	for _, l := range links {
		f.links[l.Name] = l.Address
	}
	return nil
}

// writeMetadata writes a fresh root group header and then the superblock
// that points at it. Nothing is written if no dataset was added.
func (f *File) writeMetadata() error {
	if !f.dirty {
		return nil
	}

	links := make([]core.Link, 0, len(f.links))
	for name, addr := range f.links {
		links = append(links, core.Link{Name: name, Address: addr})
	}

	root, err := core.NewGroupHeader(links)
	if err != nil {
		return fmt.Errorf("failed to build root group: %w", err)
	}

	rootAddr, err := f.fw.Allocate(root.Size())
	if err != nil {
		return fmt.Errorf("failed to allocate root group: %w", err)
	}
	if err := root.WriteTo(f.fw, rootAddr); err != nil {
		return fmt.Errorf("failed to write root group: %w", err)
	}

	alloc := f.fw.Allocator()
	if err := alloc.ValidateNoOverlaps(); err != nil {
		return fmt.Errorf("file space is inconsistent: %w", err)
	}

	eof := f.fw.EndOfFile()
	if err := f.fw.Extend(eof); err != nil {
		return err
	}

	sb := core.NewSuperblock(rootAddr, eof)
	if err := sb.WriteTo(f.fw); err != nil {
		return fmt.Errorf("failed to write superblock: %w", err)
	}

	f.sb = sb
	f.dirty = false

	f.logger.Debug().
		Uint64("root", rootAddr).
		Uint64("eof", eof).
		Uint64("allocated", alloc.Allocated()).
		Int("blocks", len(alloc.Blocks())).
		Int("datasets", len(links)).
		Msg("wrote metadata")
	return nil
}

// endOfFile returns the first address past the file's contents. Writable
// files include the space allocated since the last metadata write.
func (f *File) endOfFile() uint64 {
	if f.fw != nil {
		return f.fw.EndOfFile()
	}
	return f.sb.EndOfFile
}

// Flush writes pending metadata and syncs the file to stable storage.
// On a read-only file it does nothing.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if f.fw == nil {
		return nil
	}

	if err := f.writeMetadata(); err != nil {
		return err
	}
	return f.fw.Flush()
}

// Close closes every dataset still open on the file, writes pending
// metadata and releases the file. Closing twice is a no-op.
//
// For a file created with WithAtomicCreate the file appears at its path
// here. If writing metadata fails, the temporary file is discarded.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	for ds := range f.open {
		ds.closed = true
	}
	f.open = nil

	if f.osFile != nil {
		return f.osFile.Close()
	}

	if err := f.writeMetadata(); err != nil {
		if abortErr := f.fw.Abort(); abortErr != nil {
			f.logger.Warn().Err(abortErr).Msg("failed to release file after metadata error")
		}
		return err
	}

	if err := f.fw.Flush(); err != nil {
		if abortErr := f.fw.Abort(); abortErr != nil {
			f.logger.Warn().Err(abortErr).Msg("failed to release file after sync error")
		}
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.fw.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	f.logger.Debug().Msg("closed file")
	return nil
}

// Abort closes the file without writing pending metadata. A file created
// by this handle is removed; with WithAtomicCreate nothing ever appears at
// the path. An existing file opened with ModeReadWrite keeps the datasets
// of its last Flush or Close. Aborting a closed file is a no-op.
func (f *File) Abort() error {
	if f.closed {
		return nil
	}
	f.closed = true

	for ds := range f.open {
		ds.closed = true
	}
	f.open = nil

	if f.osFile != nil {
		return f.osFile.Close()
	}

	if err := f.fw.Abort(); err != nil {
		return fmt.Errorf("failed to abort file: %w", err)
	}

	f.logger.Debug().Bool("created", f.fw.Created()).Msg("aborted file")
	return nil
}

// Path returns the file name passed to Open.
func (f *File) Path() string {
	return f.path
}

// Mode returns the mode the file was opened with.
func (f *File) Mode() Mode {
	return f.mode
}

// Datasets returns the dataset names in sorted order.
func (f *File) Datasets() []string {
	names := make([]string, 0, len(f.links))
	for name := range f.links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a dataset with the given name exists.
func (f *File) Has(name string) bool {
	key, err := normalizeName(name)
	if err != nil {
		return false
	}
	_, ok := f.links[key]
	return ok
}

// normalizeName validates a dataset name and strips a leading "/".
// Datasets live in the root group, so no other "/" is allowed.
func normalizeName(name string) (string, error) {
	key := strings.TrimPrefix(name, "/")

	switch {
	case key == "":
		return "", fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	case strings.Contains(key, "/"):
		return "", fmt.Errorf("%w: %q: nested groups are not supported", ErrInvalidName, name)
	case strings.ContainsRune(key, 0):
		return "", fmt.Errorf("%w: %q contains NUL", ErrInvalidName, name)
	case !utf8.ValidString(key):
		return "", fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidName, name)
	case len(key) > core.MaxLinkNameLength:
		return "", fmt.Errorf("%w: name is %d bytes, max %d", ErrInvalidName, len(key), core.MaxLinkNameLength)
	case key == "." || key == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return key, nil
}

func (f *File) checkWritable() error {
	if f.closed {
		return ErrClosed
	}
	if f.fw == nil {
		return ErrReadOnly
	}
	return nil
}
