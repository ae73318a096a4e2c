package core

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/scigolib/h5io/internal/utils"
)

// Message flag bits.
const (
	MsgFlagConstant uint8 = 0x01
	MsgFlagShared   uint8 = 0x02
)

// ObjectHeaderWriter builds a version 2 object header.
type ObjectHeaderWriter struct {
	// Flags holds the optional-field bits. The chunk size width bits are
	// chosen by Encode.
	Flags    uint8
	Messages []MessageWriter
}

// MessageWriter represents a message that can be written to an object header.
type MessageWriter struct {
	Type  MessageType
	Flags uint8
	Data  []byte
}

// NewObjectHeaderWriter returns a writer with no optional fields.
func NewObjectHeaderWriter(messages ...MessageWriter) *ObjectHeaderWriter {
	return &ObjectHeaderWriter{Messages: messages}
}

// Add appends a message.
func (ohw *ObjectHeaderWriter) Add(t MessageType, flags uint8, data []byte) {
	ohw.Messages = append(ohw.Messages, MessageWriter{Type: t, Flags: flags, Data: data})
}

func (ohw *ObjectHeaderWriter) messageBytes() uint64 {
	var total uint64
	for _, msg := range ohw.Messages {
		total += 4 + uint64(len(msg.Data))
	}
	return total
}

// chunkSizeWidth returns the flag code and byte width of the chunk 0 size
// field needed to hold n.
func chunkSizeWidth(n uint64) (uint8, int) {
	switch {
	case n <= math.MaxUint8:
		return 0, 1
	case n <= math.MaxUint16:
		return 1, 2
	case n <= math.MaxUint32:
		return 2, 4
	default:
		return 3, 8
	}
}

// Size returns the encoded size of the header in bytes.
//
// Layout:
//   - "OHDR" signature, version and flags: 6 bytes
//   - chunk 0 size: 1, 2, 4 or 8 bytes
//   - messages: 4-byte header plus data each
//   - lookup3 checksum: 4 bytes
func (ohw *ObjectHeaderWriter) Size() uint64 {
	msgs := ohw.messageBytes()
	_, width := chunkSizeWidth(msgs)
	return 6 + uint64(width) + msgs + checksumSize
}

// Encode serializes the header including its checksum.
func (ohw *ObjectHeaderWriter) Encode() ([]byte, error) {
	if ohw.Flags&(HeaderFlagStoreTimes|HeaderFlagAttrPhaseChange|HeaderFlagTrackAttrOrder) != 0 {
		return nil, fmt.Errorf("%w: optional object header fields on write", ErrUnsupported)
	}
	if len(ohw.Messages) == 0 {
		return nil, fmt.Errorf("object header needs at least one message")
	}

	msgs := ohw.messageBytes()
	code, width := chunkSizeWidth(msgs)

	buf := make([]byte, ohw.Size())
	copy(buf[0:4], headerSignature)
	buf[4] = 2
	buf[5] = (ohw.Flags &^ HeaderFlagChunkSizeMask) | code
	utils.EncodeUint(buf[6:], msgs, width, binary.LittleEndian)

	pos := 6 + width
	for i, msg := range ohw.Messages {
		if len(msg.Data) > math.MaxUint16 {
			return nil, fmt.Errorf("message %d (%s) is %d bytes, max %d", i, msg.Type, len(msg.Data), math.MaxUint16)
		}
		if msg.Type > math.MaxUint8 {
			return nil, fmt.Errorf("message %d has type %d, which does not fit a v2 header", i, msg.Type)
		}

		buf[pos] = byte(msg.Type)
		binary.LittleEndian.PutUint16(buf[pos+1:pos+3], uint16(len(msg.Data))) //nolint:gosec // G115: checked above
		buf[pos+3] = msg.Flags
		pos += 4
		pos += copy(buf[pos:], msg.Data)
	}

	binary.LittleEndian.PutUint32(buf[pos:], utils.Lookup3(buf[:pos]))
	return buf, nil
}

// WriteTo encodes the header and writes it at address.
// The caller must have allocated Size() bytes there.
func (ohw *ObjectHeaderWriter) WriteTo(w io.WriterAt, address uint64) error {
	buf, err := ohw.Encode()
	if err != nil {
		return err
	}

	//nolint:gosec // G115: HDF5 addresses fit in int64 for io.WriterAt interface
	if _, err := w.WriteAt(buf, int64(address)); err != nil {
		return utils.WrapErrorAt("object header write failed", address, err)
	}
	return nil
}
