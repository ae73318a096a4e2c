package core

import (
	"encoding/binary"
	"fmt"
)

// Space allocation times.
const (
	AllocTimeEarly       uint8 = 1
	AllocTimeLate        uint8 = 2
	AllocTimeIncremental uint8 = 3
)

// Fill value write times.
const (
	FillTimeOnAlloc uint8 = 0
	FillTimeNever   uint8 = 1
	FillTimeIfSet   uint8 = 2
)

// FillValueMessage represents the fill value message (type 0x0005).
type FillValueMessage struct {
	Version   uint8
	AllocTime uint8
	FillTime  uint8
	Defined   bool
	Value     []byte
}

// EncodeFillValue encodes a version 3 fill value message with early
// allocation and write-if-set fill. Storage is allocated when the dataset
// is created. A nil value leaves the fill value undefined.
func EncodeFillValue(value []byte) []byte {
	flags := AllocTimeEarly | FillTimeIfSet<<2
	if value == nil {
		return []byte{3, flags}
	}

	buf := make([]byte, 6+len(value))
	buf[0] = 3
	buf[1] = flags | 0x20
	binary.LittleEndian.PutUint32(buf[2:6], uint32(len(value))) //nolint:gosec // G115: fill values are element sized
	copy(buf[6:], value)
	return buf
}

// ParseFillValueMessage parses versions 1 through 3.
func ParseFillValueMessage(data []byte) (*FillValueMessage, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: fill value message too short", ErrCorrupt)
	}

	msg := &FillValueMessage{Version: data[0]}
	var pos int

	switch msg.Version {
	case 1, 2:
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: fill value message too short", ErrCorrupt)
		}
		msg.AllocTime = data[1]
		msg.FillTime = data[2]
		msg.Defined = data[3] != 0
		pos = 4
		// Version 2 omits the size when the value is undefined.
		if msg.Version == 2 && !msg.Defined {
			return msg, nil
		}

	case 3:
		flags := data[1]
		msg.AllocTime = flags & 0x03
		msg.FillTime = (flags >> 2) & 0x03
		if flags&0x10 != 0 {
			return msg, nil
		}
		msg.Defined = flags&0x20 != 0
		pos = 2
		if !msg.Defined {
			return msg, nil
		}

	default:
		return nil, fmt.Errorf("%w: fill value version %d", ErrUnsupported, msg.Version)
	}

	if len(data) < pos+4 {
		return nil, fmt.Errorf("%w: fill value size missing", ErrCorrupt)
	}
	size := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if len(data) < pos+size {
		return nil, fmt.Errorf("%w: fill value truncated", ErrCorrupt)
	}
	if size > 0 {
		msg.Value = data[pos : pos+size]
	}
	return msg, nil
}
