package core

import (
	"encoding/binary"
	"fmt"
)

// GroupInfoMessage represents the Group Info message (type 0x000A).
// All fields are storage hints; zero means the library default.
type GroupInfoMessage struct {
	Version           uint8
	Flags             uint8
	MaxCompact        uint16
	MinDense          uint16
	EstimatedEntries  uint16
	EstimatedNameSize uint16
}

// EncodeGroupInfo encodes a version 0 group info message with default
// storage hints.
func EncodeGroupInfo() []byte {
	return []byte{0, 0}
}

// ParseGroupInfoMessage parses a version 0 group info message.
func ParseGroupInfoMessage(data []byte) (*GroupInfoMessage, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: group info message too short", ErrCorrupt)
	}

	gi := &GroupInfoMessage{Version: data[0], Flags: data[1]}
	if gi.Version != 0 {
		return nil, fmt.Errorf("%w: group info version %d", ErrUnsupported, gi.Version)
	}

	pos := 2
	if gi.Flags&0x01 != 0 {
		if len(data) < pos+4 {
			return nil, fmt.Errorf("%w: group info link phase change values missing", ErrCorrupt)
		}
		gi.MaxCompact = binary.LittleEndian.Uint16(data[pos:])
		gi.MinDense = binary.LittleEndian.Uint16(data[pos+2:])
		pos += 4
	}
	if gi.Flags&0x02 != 0 {
		if len(data) < pos+4 {
			return nil, fmt.Errorf("%w: group info estimates missing", ErrCorrupt)
		}
		gi.EstimatedEntries = binary.LittleEndian.Uint16(data[pos:])
		gi.EstimatedNameSize = binary.LittleEndian.Uint16(data[pos+2:])
	}
	return gi, nil
}
