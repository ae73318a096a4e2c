package core

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataLayoutClass represents the storage layout type.
type DataLayoutClass uint8

// Data layout class constants define how dataset data is stored.
const (
	LayoutCompact    DataLayoutClass = 0 // Raw data stored in the object header.
	LayoutContiguous DataLayoutClass = 1 // Raw data stored in one block.
	LayoutChunked    DataLayoutClass = 2 // Raw data stored in chunks.
	LayoutVirtual    DataLayoutClass = 3 // Data mapped from other datasets.
)

// DataLayoutMessage represents HDF5 data layout message.
type DataLayoutMessage struct {
	Version     uint8
	Class       DataLayoutClass
	DataAddress uint64 // Contiguous only.
	DataSize    uint64 // Bytes of raw data.
	CompactData []byte // Compact only.
}

// EncodeContiguousLayout encodes a version 3 contiguous layout message.
func EncodeContiguousLayout(address, size uint64) []byte {
	buf := make([]byte, 18)
	buf[0] = 3
	buf[1] = byte(LayoutContiguous)
	binary.LittleEndian.PutUint64(buf[2:10], address)
	binary.LittleEndian.PutUint64(buf[10:18], size)
	return buf
}

// EncodeCompactLayout encodes a version 3 compact layout message holding
// data inline.
func EncodeCompactLayout(data []byte) ([]byte, error) {
	if len(data) > math.MaxUint16 {
		return nil, fmt.Errorf("compact data of %d bytes exceeds %d", len(data), math.MaxUint16)
	}
	buf := make([]byte, 4+len(data))
	buf[0] = 3
	buf[1] = byte(LayoutCompact)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(data))) //nolint:gosec // G115: checked above
	copy(buf[4:], data)
	return buf, nil
}

// ParseDataLayoutMessage parses version 3 and 4 layout messages with
// compact or contiguous storage. Chunked and virtual layouts return
// ErrUnsupported.
func ParseDataLayoutMessage(data []byte, sb *Superblock) (*DataLayoutMessage, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: data layout message too short", ErrCorrupt)
	}

	msg := &DataLayoutMessage{
		Version: data[0],
		Class:   DataLayoutClass(data[1]),
	}
	if msg.Version != 3 && msg.Version != 4 {
		return nil, fmt.Errorf("%w: data layout version %d", ErrUnsupported, msg.Version)
	}

	body := data[2:]
	switch msg.Class {
	case LayoutCompact:
		if len(body) < 2 {
			return nil, fmt.Errorf("%w: compact layout too short", ErrCorrupt)
		}
		n := int(binary.LittleEndian.Uint16(body[0:2]))
		if len(body) < 2+n {
			return nil, fmt.Errorf("%w: compact layout holds %d of %d bytes", ErrCorrupt, len(body)-2, n)
		}
		msg.CompactData = body[2 : 2+n]
		msg.DataSize = uint64(n)

	case LayoutContiguous:
		need := int(sb.OffsetSize) + int(sb.LengthSize)
		if len(body) < need {
			return nil, fmt.Errorf("%w: contiguous layout too short", ErrCorrupt)
		}
		msg.DataAddress = sb.readOffset(body)
		msg.DataSize = sb.readLength(body[sb.OffsetSize:])

	case LayoutChunked:
		return nil, fmt.Errorf("%w: chunked storage", ErrUnsupported)
	case LayoutVirtual:
		return nil, fmt.Errorf("%w: virtual storage", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: layout class %d", ErrCorrupt, msg.Class)
	}

	return msg, nil
}
