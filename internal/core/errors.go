// Package core encodes and decodes the HDF5 on-disk structures this module
// reads and writes: the superblock, version 2 object headers and the header
// messages that describe groups and contiguous datasets.
package core

import "errors"

// Structural errors. Callers match them with errors.Is.
var (
	// ErrNotHDF5 reports a missing or damaged file signature.
	ErrNotHDF5 = errors.New("not an HDF5 file")

	// ErrUnsupported reports a valid HDF5 feature this package does not handle.
	ErrUnsupported = errors.New("unsupported HDF5 feature")

	// ErrChecksum reports a metadata checksum mismatch.
	ErrChecksum = errors.New("metadata checksum mismatch")

	// ErrCorrupt reports structurally invalid metadata.
	ErrCorrupt = errors.New("corrupt HDF5 metadata")
)
