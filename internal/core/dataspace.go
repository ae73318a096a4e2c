package core

import (
	"encoding/binary"
	"fmt"
)

// DataspaceType represents the type of dataspace.
type DataspaceType uint8

// Dataspace type constants define the dimensionality of datasets.
const (
	DataspaceScalar DataspaceType = 0 // Scalar (single value).
	DataspaceSimple DataspaceType = 1 // Simple (N-dimensional array).
	DataspaceNull   DataspaceType = 2 // Null (no data).
)

// MaxRank is the largest number of dimensions HDF5 allows.
const MaxRank = 32

// DataspaceMessage represents HDF5 dataspace message.
type DataspaceMessage struct {
	Version    uint8
	Type       DataspaceType
	Dimensions []uint64
	MaxDims    []uint64 // Present only for resizable datasets.
}

// Rank returns the number of dimensions; 0 for scalar and null spaces.
func (ds *DataspaceMessage) Rank() int {
	return len(ds.Dimensions)
}

// EncodeDataspaceMessage encodes a version 2 dataspace message. Empty dims
// encode a scalar dataspace. Maximum dimensions equal the current ones and
// are not stored.
func EncodeDataspaceMessage(dims []uint64) ([]byte, error) {
	if len(dims) > MaxRank {
		return nil, fmt.Errorf("rank %d exceeds maximum %d", len(dims), MaxRank)
	}

	buf := make([]byte, 4+8*len(dims))
	buf[0] = 2
	buf[1] = byte(len(dims))
	buf[2] = 0
	if len(dims) == 0 {
		buf[3] = byte(DataspaceScalar)
		return buf, nil
	}
	buf[3] = byte(DataspaceSimple)

	for i, d := range dims {
		binary.LittleEndian.PutUint64(buf[4+8*i:], d)
	}
	return buf, nil
}

// ParseDataspaceMessage parses a version 1 or 2 dataspace message.
// Dimension sizes are stored with the file's length width.
func ParseDataspaceMessage(data []byte, sb *Superblock) (*DataspaceMessage, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: dataspace message too short", ErrCorrupt)
	}

	ds := &DataspaceMessage{Version: data[0]}
	rank := int(data[1])
	flags := data[2]

	if rank > MaxRank {
		return nil, fmt.Errorf("%w: dataspace rank %d", ErrCorrupt, rank)
	}

	var offset int
	switch ds.Version {
	case 1:
		// version, rank, flags, reserved(1), reserved(4)
		offset = 8
		if rank == 0 {
			ds.Type = DataspaceScalar
		} else {
			ds.Type = DataspaceSimple
		}
	case 2:
		offset = 4
		ds.Type = DataspaceType(data[3])
		if ds.Type > DataspaceNull {
			return nil, fmt.Errorf("%w: dataspace type %d", ErrCorrupt, ds.Type)
		}
		if ds.Type != DataspaceSimple && rank != 0 {
			return nil, fmt.Errorf("%w: %d dimensions on a non-simple dataspace", ErrCorrupt, rank)
		}
	default:
		return nil, fmt.Errorf("%w: dataspace version %d", ErrUnsupported, ds.Version)
	}

	if rank == 0 {
		return ds, nil
	}

	width := int(sb.LengthSize)
	count := rank
	if flags&0x01 != 0 {
		count *= 2
	}
	if need := offset + count*width; len(data) < need {
		return nil, fmt.Errorf("%w: dataspace message is %d bytes, need %d", ErrCorrupt, len(data), need)
	}

	ds.Dimensions = make([]uint64, rank)
	for i := range ds.Dimensions {
		ds.Dimensions[i] = sb.readLength(data[offset:])
		offset += width
	}

	if flags&0x01 != 0 {
		ds.MaxDims = make([]uint64, rank)
		for i := range ds.MaxDims {
			ds.MaxDims[i] = sb.readLength(data[offset:])
			offset += width
		}
	}

	return ds, nil
}
