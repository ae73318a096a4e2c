package core

import (
	"encoding/binary"
	"fmt"

	"github.com/scigolib/h5io/internal/utils"
)

// Flags for LinkInfoMessage.
const (
	LinkInfoTrackCreationOrder uint8 = 0x01
	LinkInfoIndexCreationOrder uint8 = 0x02
)

// LinkInfoMessage represents the Link Info message (type 0x0002). It marks
// a "new style" group and locates dense link storage when present.
type LinkInfoMessage struct {
	Version          uint8
	Flags            uint8
	MaxCreationOrder uint64

	FractalHeapAddress        uint64
	NameBTreeAddress          uint64
	CreationOrderBTreeAddress uint64
}

// EncodeLinkInfo encodes a version 0 link info message for a group with
// compact link storage and no creation order tracking.
func EncodeLinkInfo() []byte {
	buf := make([]byte, 18)
	binary.LittleEndian.PutUint64(buf[2:10], utils.UndefinedAddress)
	binary.LittleEndian.PutUint64(buf[10:18], utils.UndefinedAddress)
	return buf
}

// ParseLinkInfoMessage parses a version 0 link info message.
func ParseLinkInfoMessage(data []byte, sb *Superblock) (*LinkInfoMessage, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: link info message too short", ErrCorrupt)
	}

	lim := &LinkInfoMessage{
		Version:                   data[0],
		Flags:                     data[1],
		CreationOrderBTreeAddress: utils.UndefinedAddress,
	}
	if lim.Version != 0 {
		return nil, fmt.Errorf("%w: link info version %d", ErrUnsupported, lim.Version)
	}

	need := 2 + 2*int(sb.OffsetSize)
	if lim.Flags&LinkInfoTrackCreationOrder != 0 {
		need += 8
	}
	if lim.Flags&LinkInfoIndexCreationOrder != 0 {
		need += int(sb.OffsetSize)
	}
	if len(data) < need {
		return nil, fmt.Errorf("%w: link info message is %d bytes, need %d", ErrCorrupt, len(data), need)
	}

	pos := 2
	if lim.Flags&LinkInfoTrackCreationOrder != 0 {
		lim.MaxCreationOrder = binary.LittleEndian.Uint64(data[pos:])
		pos += 8
	}
	lim.FractalHeapAddress = sb.readOffset(data[pos:])
	pos += int(sb.OffsetSize)
	lim.NameBTreeAddress = sb.readOffset(data[pos:])
	pos += int(sb.OffsetSize)
	if lim.Flags&LinkInfoIndexCreationOrder != 0 {
		lim.CreationOrderBTreeAddress = sb.readOffset(data[pos:])
	}

	return lim, nil
}

// IsDense reports whether links are kept in a fractal heap rather than as
// link messages in the object header.
func (lim *LinkInfoMessage) IsDense(sb *Superblock) bool {
	return !sb.IsUndefined(lim.FractalHeapAddress)
}
