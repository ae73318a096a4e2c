package core

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/scigolib/h5io/internal/utils"
)

// MessageType identifies the type of message in an object header.
type MessageType uint16

// Message type constants identify different types of header messages.
const (
	MsgNil           MessageType = 0
	MsgDataspace     MessageType = 1
	MsgLinkInfo      MessageType = 2
	MsgDatatype      MessageType = 3
	MsgFillValueOld  MessageType = 4
	MsgFillValue     MessageType = 5
	MsgLinkMessage   MessageType = 6
	MsgDataLayout    MessageType = 8
	MsgGroupInfo     MessageType = 10
	MsgFilters       MessageType = 11
	MsgAttribute     MessageType = 12
	MsgContinuation  MessageType = 16
	MsgSymbolTable   MessageType = 17
	MsgModTime       MessageType = 18
	MsgAttributeInfo MessageType = 21
)

// String returns the message type name used in diagnostics.
func (t MessageType) String() string {
	switch t {
	case MsgNil:
		return "NIL"
	case MsgDataspace:
		return "Dataspace"
	case MsgLinkInfo:
		return "LinkInfo"
	case MsgDatatype:
		return "Datatype"
	case MsgFillValueOld:
		return "FillValueOld"
	case MsgFillValue:
		return "FillValue"
	case MsgLinkMessage:
		return "Link"
	case MsgDataLayout:
		return "DataLayout"
	case MsgGroupInfo:
		return "GroupInfo"
	case MsgFilters:
		return "FilterPipeline"
	case MsgAttribute:
		return "Attribute"
	case MsgContinuation:
		return "Continuation"
	case MsgSymbolTable:
		return "SymbolTable"
	case MsgModTime:
		return "ModificationTime"
	case MsgAttributeInfo:
		return "AttributeInfo"
	default:
		return fmt.Sprintf("Message(%d)", uint16(t))
	}
}

// Object header v2 flag bits.
const (
	HeaderFlagChunkSizeMask   uint8 = 0x03
	HeaderFlagTrackAttrOrder  uint8 = 0x04
	HeaderFlagIndexAttrOrder  uint8 = 0x08
	HeaderFlagAttrPhaseChange uint8 = 0x10
	HeaderFlagStoreTimes      uint8 = 0x20
)

const (
	headerSignature       = "OHDR"
	continuationSignature = "OCHK"
	checksumSize          = 4

	// maxContinuations bounds the continuation chain so a cyclic chain in a
	// damaged file cannot loop forever.
	maxContinuations = 1024
)

// ObjectHeader represents a parsed version 2 object header.
type ObjectHeader struct {
	Address  uint64
	Version  uint8
	Flags    uint8
	Messages []*HeaderMessage
}

// HeaderMessage represents a single message within an object header.
type HeaderMessage struct {
	Type  MessageType
	Flags uint8
	// Offset is the file address of the message data.
	Offset uint64
	Data   []byte
}

// Find returns the first message of type t, or nil.
func (oh *ObjectHeader) Find(t MessageType) *HeaderMessage {
	for _, msg := range oh.Messages {
		if msg.Type == t {
			return msg
		}
	}
	return nil
}

// FindAll returns every message of type t in header order.
func (oh *ObjectHeader) FindAll(t MessageType) []*HeaderMessage {
	var out []*HeaderMessage
	for _, msg := range oh.Messages {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

// ReadObjectHeader reads the version 2 object header at address, following
// continuation blocks. Checksums of the header chunk and of every
// continuation block are verified. NIL and continuation messages are not
// included in the result.
func ReadObjectHeader(r io.ReaderAt, address uint64, sb *Superblock) (*ObjectHeader, error) {
	prefix, err := utils.ReadBytes(r, address, 6)
	if err != nil {
		return nil, utils.WrapErrorAt("object header read failed", address, err)
	}

	if string(prefix[0:4]) != headerSignature {
		if prefix[0] == 1 {
			return nil, fmt.Errorf("%w: version 1 object header at %d", ErrUnsupported, address)
		}
		return nil, fmt.Errorf("%w: invalid object header signature % x at %d", ErrCorrupt, prefix[0:4], address)
	}

	oh := &ObjectHeader{
		Address: address,
		Version: prefix[4],
		Flags:   prefix[5],
	}
	if oh.Version != 2 {
		return nil, fmt.Errorf("%w: object header version %d", ErrUnsupported, oh.Version)
	}

	fixed := 6
	if oh.Flags&HeaderFlagStoreTimes != 0 {
		fixed += 16
	}
	if oh.Flags&HeaderFlagAttrPhaseChange != 0 {
		fixed += 4
	}
	sizeWidth := 1 << (oh.Flags & HeaderFlagChunkSizeMask)

	head, err := utils.ReadBytes(r, address, fixed+sizeWidth)
	if err != nil {
		return nil, utils.WrapErrorAt("object header read failed", address, err)
	}
	chunkSize := utils.DecodeUint(head[fixed:], sizeWidth, binary.LittleEndian)

	prelude := uint64(fixed + sizeWidth)
	chunk, err := readChecksummedBlock(r, address, prelude+chunkSize+checksumSize)
	if err != nil {
		return nil, err
	}

	pending, err := oh.parseMessages(chunk[prelude:len(chunk)-checksumSize], address+prelude, sb)
	if err != nil {
		return nil, err
	}

	for hops := 0; len(pending) > 0; hops++ {
		if hops >= maxContinuations {
			return nil, fmt.Errorf("%w: too many continuation blocks", ErrCorrupt)
		}
		cont := pending[0]
		pending = pending[1:]

		block, err := readChecksummedBlock(r, cont.address, cont.length)
		if err != nil {
			return nil, err
		}
		if string(block[0:4]) != continuationSignature {
			return nil, fmt.Errorf("%w: invalid continuation signature at %d", ErrCorrupt, cont.address)
		}

		more, err := oh.parseMessages(block[4:len(block)-checksumSize], cont.address+4, sb)
		if err != nil {
			return nil, err
		}
		pending = append(pending, more...)
	}

	return oh, nil
}

type continuation struct {
	address uint64
	length  uint64
}

// readChecksummedBlock reads size bytes at address and verifies the
// trailing lookup3 checksum.
func readChecksummedBlock(r io.ReaderAt, address, size uint64) ([]byte, error) {
	if size < 8 || size > 1<<32 {
		return nil, fmt.Errorf("%w: implausible header block size %d at %d", ErrCorrupt, size, address)
	}

	block, err := utils.ReadBytes(r, address, int(size))
	if err != nil {
		return nil, utils.WrapErrorAt("object header block read failed", address, err)
	}

	body := block[:len(block)-checksumSize]
	stored := binary.LittleEndian.Uint32(block[len(block)-checksumSize:])
	if !utils.VerifyLookup3(body, stored) {
		return nil, fmt.Errorf("object header at %d: %w", address, ErrChecksum)
	}
	return block, nil
}

// parseMessages decodes the messages in one chunk and returns the
// continuation blocks it references.
func (oh *ObjectHeader) parseMessages(data []byte, base uint64, sb *Superblock) ([]continuation, error) {
	msgHeader := 4
	if oh.Flags&HeaderFlagTrackAttrOrder != 0 {
		msgHeader += 2
	}

	var conts []continuation
	pos := 0
	for len(data)-pos >= msgHeader {
		msgType := MessageType(data[pos])
		size := int(binary.LittleEndian.Uint16(data[pos+1 : pos+3]))
		flags := data[pos+3]
		pos += msgHeader

		if pos+size > len(data) {
			return nil, fmt.Errorf("%w: message %s of %d bytes overruns header chunk", ErrCorrupt, msgType, size)
		}
		body := data[pos : pos+size]
		offset := base + uint64(pos)
		pos += size

		switch msgType {
		case MsgNil:
			continue
		case MsgContinuation:
			need := int(sb.OffsetSize) + int(sb.LengthSize)
			if len(body) < need {
				return nil, fmt.Errorf("%w: continuation message too short", ErrCorrupt)
			}
			conts = append(conts, continuation{
				address: sb.readOffset(body),
				length:  sb.readLength(body[sb.OffsetSize:]),
			})
			continue
		}

		oh.Messages = append(oh.Messages, &HeaderMessage{
			Type:   msgType,
			Flags:  flags,
			Offset: offset,
			Data:   body,
		})
	}

	// Fewer bytes than a message header remain: that is a gap, not a message.
	return conts, nil
}
