package core

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/scigolib/h5io/internal/utils"
)

// LinkType defines the type of link (hard, soft, external).
type LinkType uint8

// Link types.
const (
	LinkTypeHard     LinkType = 0  // Hard link: direct reference to object
	LinkTypeSoft     LinkType = 1  // Soft link: symbolic path to object
	LinkTypeExternal LinkType = 64 // External link: reference to object in another file
)

// String returns the string representation of the link type.
func (lt LinkType) String() string {
	switch lt {
	case LinkTypeHard:
		return "Hard"
	case LinkTypeSoft:
		return "Soft"
	case LinkTypeExternal:
		return "External"
	default:
		return fmt.Sprintf("Unknown(%d)", lt)
	}
}

// Character sets for link names.
const (
	CharSetASCII uint8 = 0
	CharSetUTF8  uint8 = 1
)

// Link message flags.
const (
	LinkFlagSizeOfLengthMask uint8 = 0x03 // Bits 0-1: size of length field (0=1, 1=2, 2=4, 3=8 bytes)
	LinkFlagCreationOrderBit uint8 = 0x04 // Bit 2: creation order field present
	LinkFlagLinkTypeFieldBit uint8 = 0x08 // Bit 3: link type field present
	LinkFlagCharSetBit       uint8 = 0x10 // Bit 4: link name character set field present
)

// LinkMessage represents a link message (type 0x0006).
type LinkMessage struct {
	Version       uint8
	Flags         uint8
	Type          LinkType
	CreationOrder uint64
	CharSet       uint8
	Name          string

	// ObjectAddress is set for hard links.
	ObjectAddress uint64
	// Value holds the soft link path or external link data.
	Value []byte
}

// MaxLinkNameLength is the longest name whose hard link message still fits
// the 16-bit message size of a v2 object header.
const MaxLinkNameLength = 65535 - 1 - 1 - 1 - 2 - 8

// EncodeHardLink encodes a version 1 hard link message pointing at address.
// Non-ASCII names are tagged as UTF-8.
func EncodeHardLink(name string, address uint64) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("link name cannot be empty")
	}
	if !utf8.ValidString(name) {
		return nil, fmt.Errorf("link name is not valid UTF-8")
	}
	if len(name) > MaxLinkNameLength {
		return nil, fmt.Errorf("link name length %d exceeds %d", len(name), MaxLinkNameLength)
	}

	var flags uint8
	lenWidth := 1
	if len(name) > 0xFF {
		flags |= 1
		lenWidth = 2
	}

	ascii := true
	for i := 0; i < len(name); i++ {
		if name[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if !ascii {
		flags |= LinkFlagCharSetBit
	}

	size := 2 + lenWidth + len(name) + 8
	if !ascii {
		size++
	}
	buf := make([]byte, size)
	buf[0] = 1
	buf[1] = flags
	pos := 2
	if !ascii {
		buf[pos] = CharSetUTF8
		pos++
	}
	utils.EncodeUint(buf[pos:], uint64(len(name)), lenWidth, binary.LittleEndian)
	pos += lenWidth
	pos += copy(buf[pos:], name)
	binary.LittleEndian.PutUint64(buf[pos:], address)

	return buf, nil
}

// ParseLinkMessage parses a version 1 link message.
func ParseLinkMessage(data []byte, sb *Superblock) (*LinkMessage, error) {
	if len(data) < 3 {
		return nil, fmt.Errorf("%w: link message too short", ErrCorrupt)
	}

	lm := &LinkMessage{
		Version: data[0],
		Flags:   data[1],
	}
	if lm.Version != 1 {
		return nil, fmt.Errorf("%w: link message version %d", ErrUnsupported, lm.Version)
	}

	pos := 2
	need := func(n int) error {
		if pos+n > len(data) {
			return fmt.Errorf("%w: link message truncated", ErrCorrupt)
		}
		return nil
	}

	if lm.Flags&LinkFlagLinkTypeFieldBit != 0 {
		if err := need(1); err != nil {
			return nil, err
		}
		lm.Type = LinkType(data[pos])
		pos++
	}
	if lm.Flags&LinkFlagCreationOrderBit != 0 {
		if err := need(8); err != nil {
			return nil, err
		}
		lm.CreationOrder = binary.LittleEndian.Uint64(data[pos:])
		pos += 8
	}
	if lm.Flags&LinkFlagCharSetBit != 0 {
		if err := need(1); err != nil {
			return nil, err
		}
		lm.CharSet = data[pos]
		pos++
	}

	lenWidth := 1 << (lm.Flags & LinkFlagSizeOfLengthMask)
	if err := need(lenWidth); err != nil {
		return nil, err
	}
	nameLen := utils.DecodeUint(data[pos:], lenWidth, binary.LittleEndian)
	pos += lenWidth
	if nameLen == 0 || nameLen > uint64(len(data)-pos) {
		return nil, fmt.Errorf("%w: link name length %d", ErrCorrupt, nameLen)
	}
	lm.Name = string(data[pos : pos+int(nameLen)])
	pos += int(nameLen)

	switch lm.Type {
	case LinkTypeHard:
		if err := need(int(sb.OffsetSize)); err != nil {
			return nil, err
		}
		lm.ObjectAddress = sb.readOffset(data[pos:])
	case LinkTypeSoft, LinkTypeExternal:
		if err := need(2); err != nil {
			return nil, err
		}
		n := int(binary.LittleEndian.Uint16(data[pos:]))
		pos += 2
		if err := need(n); err != nil {
			return nil, err
		}
		lm.Value = data[pos : pos+n]
	default:
		// User-defined link types carry opaque data and are skipped by callers.
		lm.Value = data[pos:]
	}

	return lm, nil
}

// IsHard reports whether the link references an object in this file.
func (lm *LinkMessage) IsHard() bool {
	return lm.Type == LinkTypeHard
}
