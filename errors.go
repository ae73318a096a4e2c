package h5io

import (
	"errors"

	"github.com/scigolib/h5io/internal/core"
)

// Errors returned by this package. They are wrapped with context; match
// them with errors.Is.
var (
	// ErrNotHDF5 is returned when a file lacks a valid HDF5 signature.
	ErrNotHDF5 = core.ErrNotHDF5

	// ErrUnsupported is returned for valid HDF5 content this package cannot
	// handle, such as chunked storage or superblock version 0.
	ErrUnsupported = core.ErrUnsupported

	// ErrChecksum is returned when a metadata checksum does not match.
	ErrChecksum = core.ErrChecksum

	// ErrCorrupt is returned for structurally invalid metadata.
	ErrCorrupt = core.ErrCorrupt

	ErrNotFound      = errors.New("dataset not found")
	ErrExists        = errors.New("dataset already exists")
	ErrReadOnly      = errors.New("file is read-only")
	ErrClosed        = errors.New("handle is closed")
	ErrTypeMismatch  = errors.New("datatype mismatch")
	ErrShapeMismatch = errors.New("element count does not match dataspace")
	ErrInvalidName   = errors.New("invalid dataset name")
	ErrInvalidSpace  = errors.New("invalid dataspace")
)
