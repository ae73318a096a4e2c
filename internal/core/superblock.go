package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/scigolib/h5io/internal/utils"
)

// HDF5 file signature and superblock versions.
const (
	Signature = "\x89HDF\r\n\x1a\n"
	Version0  = 0
	Version1  = 1
	Version2  = 2
	Version3  = 3
)

// SuperblockV2Size is the encoded size of a version 2 superblock with
// 8-byte offsets.
const SuperblockV2Size = 48

// Superblock represents the HDF5 file superblock containing file-level metadata.
type Superblock struct {
	Version        uint8
	OffsetSize     uint8
	LengthSize     uint8
	Flags          uint8
	BaseAddress    uint64
	SuperExtension uint64
	EndOfFile      uint64
	RootGroup      uint64
	Endianness     binary.ByteOrder
}

// NewSuperblock returns the version 2 superblock this package writes:
// little-endian, 8-byte offsets and lengths, no extension.
func NewSuperblock(rootGroup, endOfFile uint64) *Superblock {
	return &Superblock{
		Version:        Version2,
		OffsetSize:     8,
		LengthSize:     8,
		BaseAddress:    0,
		SuperExtension: utils.UndefinedAddress,
		EndOfFile:      endOfFile,
		RootGroup:      rootGroup,
		Endianness:     binary.LittleEndian,
	}
}

// ReadSuperblock reads and validates the superblock at offset 0.
//
// Versions 2 and 3 are supported and their lookup3 checksum is verified.
// Versions 0 and 1 (symbol-table root groups) return ErrUnsupported.
func ReadSuperblock(r io.ReaderAt) (*Superblock, error) {
	prefix := make([]byte, 12)
	n, err := r.ReadAt(prefix, 0)
	if n < len(prefix) {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file too small to contain a superblock", ErrNotHDF5)
		}
		return nil, utils.WrapError("superblock read failed", err)
	}

	if string(prefix[:8]) != Signature {
		return nil, fmt.Errorf("%w: invalid signature % x", ErrNotHDF5, prefix[:8])
	}

	version := prefix[8]
	switch version {
	case Version2, Version3:
	case Version0, Version1:
		return nil, fmt.Errorf("%w: superblock version %d", ErrUnsupported, version)
	default:
		return nil, fmt.Errorf("%w: unknown superblock version %d", ErrNotHDF5, version)
	}

	offsetSize, lengthSize := prefix[9], prefix[10]
	if !validFieldSize(offsetSize) || !validFieldSize(lengthSize) {
		return nil, fmt.Errorf("%w: invalid sizes offset=%d length=%d", ErrCorrupt, offsetSize, lengthSize)
	}

	total := 12 + 4*int(offsetSize) + 4
	buf, err := utils.ReadBytes(r, 0, total)
	if err != nil {
		return nil, utils.WrapError("superblock read failed", err)
	}

	stored := binary.LittleEndian.Uint32(buf[total-4:])
	if !utils.VerifyLookup3(buf[:total-4], stored) {
		return nil, fmt.Errorf("superblock: %w", ErrChecksum)
	}

	sb := &Superblock{
		Version:    version,
		OffsetSize: offsetSize,
		LengthSize: lengthSize,
		Flags:      prefix[11],
		Endianness: binary.LittleEndian,
	}

	pos := 12
	next := func() uint64 {
		v := utils.DecodeUint(buf[pos:], int(offsetSize), binary.LittleEndian)
		pos += int(offsetSize)
		return v
	}
	sb.BaseAddress = next()
	sb.SuperExtension = next()
	sb.EndOfFile = next()
	sb.RootGroup = next()

	if sb.BaseAddress != 0 {
		return nil, fmt.Errorf("%w: non-zero base address %d", ErrUnsupported, sb.BaseAddress)
	}

	return sb, nil
}

// Encode serializes a version 2 superblock including its checksum.
// Only 8-byte offsets and lengths are written.
func (sb *Superblock) Encode() ([]byte, error) {
	if sb.Version != Version2 {
		return nil, fmt.Errorf("%w: writing superblock version %d", ErrUnsupported, sb.Version)
	}
	if sb.OffsetSize != 8 || sb.LengthSize != 8 {
		return nil, fmt.Errorf("%w: writing offset size %d, length size %d", ErrUnsupported, sb.OffsetSize, sb.LengthSize)
	}

	buf := make([]byte, SuperblockV2Size)
	copy(buf[0:8], Signature)
	buf[8] = sb.Version
	buf[9] = sb.OffsetSize
	buf[10] = sb.LengthSize
	buf[11] = sb.Flags

	binary.LittleEndian.PutUint64(buf[12:20], sb.BaseAddress)
	binary.LittleEndian.PutUint64(buf[20:28], sb.SuperExtension)
	binary.LittleEndian.PutUint64(buf[28:36], sb.EndOfFile)
	binary.LittleEndian.PutUint64(buf[36:44], sb.RootGroup)
	binary.LittleEndian.PutUint32(buf[44:48], utils.Lookup3(buf[:44]))

	return buf, nil
}

// WriteTo writes the encoded superblock at offset 0.
func (sb *Superblock) WriteTo(w io.WriterAt) error {
	buf, err := sb.Encode()
	if err != nil {
		return err
	}
	if _, err := w.WriteAt(buf, 0); err != nil {
		return utils.WrapError("superblock write failed", err)
	}
	return nil
}

// readOffset decodes an address field using the file's offset width.
func (sb *Superblock) readOffset(buf []byte) uint64 {
	return utils.DecodeUint(buf, int(sb.OffsetSize), binary.LittleEndian)
}

// readLength decodes a length field using the file's length width.
func (sb *Superblock) readLength(buf []byte) uint64 {
	return utils.DecodeUint(buf, int(sb.LengthSize), binary.LittleEndian)
}

// IsUndefined reports whether addr is the undefined address for this file.
func (sb *Superblock) IsUndefined(addr uint64) bool {
	return utils.IsUndefined(addr, int(sb.OffsetSize))
}

func validFieldSize(s uint8) bool {
	return s == 2 || s == 4 || s == 8
}
