package h5io

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/scigolib/h5io/internal/core"
)

// Datatype represents an HDF5 numeric element type.
type Datatype int

const (
	// Int8 represents 8-bit signed integer type.
	Int8 Datatype = iota
	// Int16 represents 16-bit signed integer type.
	Int16
	// Int32 represents 32-bit signed integer type (H5T_NATIVE_INT).
	Int32
	// Int64 represents 64-bit signed integer type.
	Int64
	// Uint8 represents 8-bit unsigned integer type.
	Uint8
	// Uint16 represents 16-bit unsigned integer type.
	Uint16
	// Uint32 represents 32-bit unsigned integer type.
	Uint32
	// Uint64 represents 64-bit unsigned integer type.
	Uint64
	// Float32 represents 32-bit floating point type.
	Float32
	// Float64 represents 64-bit floating point type (H5T_NATIVE_DOUBLE).
	Float64
)

var datatypeNames = map[Datatype]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

// Aliases accepted by ParseDatatype in addition to the canonical names.
var datatypeAliases = map[string]Datatype{
	"int":    Int32,
	"double": Float64,
	"float":  Float32,
}

// String returns the lower-case type name, e.g. "int32".
func (d Datatype) String() string {
	if name, ok := datatypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Datatype(%d)", int(d))
}

// Size returns the element size in bytes, or 0 for an unknown type.
func (d Datatype) Size() uint32 {
	if h, ok := datatypeRegistry[d]; ok {
		return h.elemSize()
	}
	return 0
}

// ParseDatatype maps a type name ("int32", "float64", or the C-style
// aliases "int", "float" and "double") to a Datatype.
func ParseDatatype(name string) (Datatype, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for dt, n := range datatypeNames {
		if n == name {
			return dt, nil
		}
	}
	if dt, ok := datatypeAliases[name]; ok {
		return dt, nil
	}
	return 0, fmt.Errorf("%w: unknown datatype %q", ErrUnsupported, name)
}

func lookupHandler(d Datatype) (datatypeHandler, error) {
	h, ok := datatypeRegistry[d]
	if !ok {
		return nil, fmt.Errorf("%w: datatype %d", ErrUnsupported, int(d))
	}
	return h, nil
}

// datatypeFromMessage maps a parsed datatype message to a Datatype and the
// element byte order.
func datatypeFromMessage(msg *core.DatatypeMessage) (Datatype, binary.ByteOrder, error) {
	if err := msg.Validate(); err != nil {
		return 0, nil, err
	}

	for dt, h := range datatypeRegistry {
		if h.class() == msg.Class && h.elemSize() == msg.Size && h.signed() == msg.IsSigned() {
			return dt, msg.ByteOrder(), nil
		}
	}
	return 0, nil, fmt.Errorf("%w: %s", ErrUnsupported, msg)
}
