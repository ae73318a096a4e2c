package core

import (
	"encoding/binary"
	"fmt"
)

// DatatypeClass represents HDF5 datatype class.
type DatatypeClass uint8

// Datatype class constants identify different HDF5 data types for datasets.
const (
	DatatypeFixed     DatatypeClass = 0  // Fixed-point (integers).
	DatatypeFloat     DatatypeClass = 1  // Floating-point.
	DatatypeTime      DatatypeClass = 2  // Time.
	DatatypeString    DatatypeClass = 3  // String.
	DatatypeBitfield  DatatypeClass = 4  // Bitfield.
	DatatypeOpaque    DatatypeClass = 5  // Opaque.
	DatatypeCompound  DatatypeClass = 6  // Compound.
	DatatypeReference DatatypeClass = 7  // Reference.
	DatatypeEnum      DatatypeClass = 8  // Enumerated.
	DatatypeVarLen    DatatypeClass = 9  // Variable-length.
	DatatypeArray     DatatypeClass = 10 // Array.
)

// String returns the class name.
func (c DatatypeClass) String() string {
	names := [...]string{
		"fixed-point", "floating-point", "time", "string", "bitfield",
		"opaque", "compound", "reference", "enum", "variable-length", "array",
	}
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// DatatypeMessage represents HDF5 datatype message.
type DatatypeMessage struct {
	Class         DatatypeClass
	Version       uint8
	Size          uint32
	ClassBitField uint32
	Properties    []byte
}

// Bit field flags shared by the fixed-point and floating-point classes.
const (
	bitBigEndian uint32 = 0x01
	bitSigned    uint32 = 0x08 // fixed-point only
)

// EncodeFixedPoint encodes a fixed-point datatype message of size bytes.
func EncodeFixedPoint(size uint32, signed bool, order binary.ByteOrder) []byte {
	var bits uint32
	if order == binary.BigEndian {
		bits |= bitBigEndian
	}
	if signed {
		bits |= bitSigned
	}

	buf := make([]byte, 12)
	putClassHeader(buf, DatatypeFixed, bits, size)
	binary.LittleEndian.PutUint16(buf[8:10], 0)              // bit offset
	binary.LittleEndian.PutUint16(buf[10:12], uint16(size*8)) //nolint:gosec // G115: size is 1..8
	return buf
}

// floatLayout describes the IEEE 754 bit layout of a floating-point type.
type floatLayout struct {
	signBit  uint8
	expLoc   uint8
	expSize  uint8
	mantSize uint8
	bias     uint32
}

var ieeeLayouts = map[uint32]floatLayout{
	4: {signBit: 31, expLoc: 23, expSize: 8, mantSize: 23, bias: 127},
	8: {signBit: 63, expLoc: 52, expSize: 11, mantSize: 52, bias: 1023},
}

// EncodeFloat encodes an IEEE 754 floating-point datatype message. Only
// sizes 4 and 8 are defined.
func EncodeFloat(size uint32, order binary.ByteOrder) ([]byte, error) {
	layout, ok := ieeeLayouts[size]
	if !ok {
		return nil, fmt.Errorf("%w: %d-byte floating point", ErrUnsupported, size)
	}

	// Mantissa normalization 2 (implied leading one) in bits 4-5, sign
	// location in bits 8-15.
	bits := uint32(0x20) | uint32(layout.signBit)<<8
	if order == binary.BigEndian {
		bits |= bitBigEndian
	}

	buf := make([]byte, 20)
	putClassHeader(buf, DatatypeFloat, bits, size)
	binary.LittleEndian.PutUint16(buf[8:10], 0)
	binary.LittleEndian.PutUint16(buf[10:12], uint16(size*8)) //nolint:gosec // G115: size is 4 or 8
	buf[12] = layout.expLoc
	buf[13] = layout.expSize
	buf[14] = 0 // mantissa location
	buf[15] = layout.mantSize
	binary.LittleEndian.PutUint32(buf[16:20], layout.bias)
	return buf, nil
}

func putClassHeader(buf []byte, class DatatypeClass, bits, size uint32) {
	buf[0] = byte(class) | 1<<4
	buf[1] = byte(bits)
	buf[2] = byte(bits >> 8)
	buf[3] = byte(bits >> 16)
	binary.LittleEndian.PutUint32(buf[4:8], size)
}

// ParseDatatypeMessage parses a datatype message from header message data.
func ParseDatatypeMessage(data []byte) (*DatatypeMessage, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: datatype message too short", ErrCorrupt)
	}

	classAndVersion := binary.LittleEndian.Uint32(data[0:4])

	return &DatatypeMessage{
		Class:         DatatypeClass(classAndVersion & 0x0F),
		Version:       uint8((classAndVersion >> 4) & 0x0F), //nolint:gosec // G115: 4-bit field
		ClassBitField: (classAndVersion >> 8) & 0x00FFFFFF,
		Size:          binary.LittleEndian.Uint32(data[4:8]),
		Properties:    data[8:],
	}, nil
}

// ByteOrder returns the element byte order.
func (dt *DatatypeMessage) ByteOrder() binary.ByteOrder {
	if dt.ClassBitField&bitBigEndian != 0 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// IsSigned reports whether a fixed-point type is signed.
func (dt *DatatypeMessage) IsSigned() bool {
	return dt.Class == DatatypeFixed && dt.ClassBitField&bitSigned != 0
}

// Validate checks that the type is a plain numeric type this package can
// decode: a fixed-point type of 1, 2, 4 or 8 bytes at bit offset 0 with full
// precision, or an IEEE 754 single or double.
func (dt *DatatypeMessage) Validate() error {
	switch dt.Class {
	case DatatypeFixed:
		switch dt.Size {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("%w: %d-byte integer", ErrUnsupported, dt.Size)
		}
		if len(dt.Properties) < 4 {
			return fmt.Errorf("%w: fixed-point properties too short", ErrCorrupt)
		}
		offset := binary.LittleEndian.Uint16(dt.Properties[0:2])
		precision := binary.LittleEndian.Uint16(dt.Properties[2:4])
		if offset != 0 || uint32(precision) != dt.Size*8 {
			return fmt.Errorf("%w: integer with bit offset %d, precision %d", ErrUnsupported, offset, precision)
		}
		return nil

	case DatatypeFloat:
		layout, ok := ieeeLayouts[dt.Size]
		if !ok {
			return fmt.Errorf("%w: %d-byte floating point", ErrUnsupported, dt.Size)
		}
		if len(dt.Properties) < 12 {
			return fmt.Errorf("%w: floating-point properties too short", ErrCorrupt)
		}
		p := dt.Properties
		if dt.ClassBitField&0x40 != 0 {
			return fmt.Errorf("%w: VAX floating-point byte order", ErrUnsupported)
		}
		if p[4] != layout.expLoc || p[5] != layout.expSize || p[6] != 0 || p[7] != layout.mantSize ||
			binary.LittleEndian.Uint32(p[8:12]) != layout.bias {
			return fmt.Errorf("%w: non-IEEE floating-point layout", ErrUnsupported)
		}
		return nil

	default:
		return fmt.Errorf("%w: %s datatype", ErrUnsupported, dt.Class)
	}
}

// String returns a short description such as "int32" or "float64 (BE)".
func (dt *DatatypeMessage) String() string {
	var s string
	switch dt.Class {
	case DatatypeFixed:
		if dt.IsSigned() {
			s = fmt.Sprintf("int%d", dt.Size*8)
		} else {
			s = fmt.Sprintf("uint%d", dt.Size*8)
		}
	case DatatypeFloat:
		s = fmt.Sprintf("float%d", dt.Size*8)
	default:
		return fmt.Sprintf("%s(%d bytes)", dt.Class, dt.Size)
	}
	if dt.ByteOrder() == binary.BigEndian {
		s += " (BE)"
	}
	return s
}
