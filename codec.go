package h5io

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/scigolib/h5io/internal/core"
)

// datatypeHandler converts between Go slices and raw HDF5 element bytes.
type datatypeHandler interface {
	class() core.DatatypeClass
	elemSize() uint32
	signed() bool

	// message encodes the datatype message for the given byte order.
	message(order binary.ByteOrder) ([]byte, error)
	// encode converts a []T into raw bytes and returns the element count.
	encode(data any, order binary.ByteOrder) ([]byte, uint64, error)
	// length returns the number of elements in dst, which must be a []T.
	length(dst any) (int, error)
	// decode fills dst[start:], a []T, from raw bytes holding whole
	// elements.
	decode(raw []byte, order binary.ByteOrder, dst any, start int) error
	// fill sets every element of dst to the decoded elem, or to zero when
	// elem is nil.
	fill(dst any, elem []byte, order binary.ByteOrder) error
	// alloc returns a new []T of length n.
	alloc(n int) any
	// sliceType names the Go slice type, e.g. "[]int32".
	sliceType() string
}

type numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// sliceHandler is the datatypeHandler for one Go element type.
type sliceHandler[T numeric] struct {
	cls    core.DatatypeClass
	size   uint32
	sign   bool
	put    func(order binary.ByteOrder, b []byte, v T)
	get    func(order binary.ByteOrder, b []byte) T
	goName string
}

func (h *sliceHandler[T]) class() core.DatatypeClass { return h.cls }
func (h *sliceHandler[T]) elemSize() uint32          { return h.size }
func (h *sliceHandler[T]) signed() bool              { return h.sign }
func (h *sliceHandler[T]) sliceType() string         { return "[]" + h.goName }
func (h *sliceHandler[T]) alloc(n int) any           { return make([]T, n) }

func (h *sliceHandler[T]) message(order binary.ByteOrder) ([]byte, error) {
	if h.cls == core.DatatypeFloat {
		return core.EncodeFloat(h.size, order)
	}
	return core.EncodeFixedPoint(h.size, h.sign, order), nil
}

func (h *sliceHandler[T]) encode(data any, order binary.ByteOrder) ([]byte, uint64, error) {
	values, ok := data.([]T)
	if !ok {
		return nil, 0, fmt.Errorf("%w: need %s, got %T", ErrTypeMismatch, h.sliceType(), data)
	}

	buf := make([]byte, len(values)*int(h.size))
	for i, v := range values {
		h.put(order, buf[i*int(h.size):], v)
	}
	return buf, uint64(len(values)), nil
}

func (h *sliceHandler[T]) values(dst any) ([]T, error) {
	values, ok := dst.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: need %s, got %T", ErrTypeMismatch, h.sliceType(), dst)
	}
	return values, nil
}

func (h *sliceHandler[T]) length(dst any) (int, error) {
	values, err := h.values(dst)
	return len(values), err
}

func (h *sliceHandler[T]) decode(raw []byte, order binary.ByteOrder, dst any, start int) error {
	values, err := h.values(dst)
	if err != nil {
		return err
	}

	n := len(raw) / int(h.size)
	if start < 0 || start > len(values) || n > len(values)-start {
		return fmt.Errorf("%w: %d elements at %d exceed buffer of %d", ErrShapeMismatch, n, start, len(values))
	}

	out := values[start : start+n]
	for i := range out {
		out[i] = h.get(order, raw[i*int(h.size):])
	}
	return nil
}

func (h *sliceHandler[T]) fill(dst any, elem []byte, order binary.ByteOrder) error {
	values, err := h.values(dst)
	if err != nil {
		return err
	}

	var v T
	if elem != nil {
		if len(elem) != int(h.size) {
			return fmt.Errorf("%w: fill value is %d bytes, element is %d", ErrCorrupt, len(elem), h.size)
		}
		v = h.get(order, elem)
	}
	for i := range values {
		values[i] = v
	}
	return nil
}

// datatypeRegistry maps each Datatype constant to its handler.
var datatypeRegistry map[Datatype]datatypeHandler

func init() {
	datatypeRegistry = map[Datatype]datatypeHandler{
		Int8: &sliceHandler[int8]{
			cls: core.DatatypeFixed, size: 1, sign: true, goName: "int8",
			put: func(_ binary.ByteOrder, b []byte, v int8) { b[0] = byte(v) },
			get: func(_ binary.ByteOrder, b []byte) int8 { return int8(b[0]) },
		},
		Int16: &sliceHandler[int16]{
			cls: core.DatatypeFixed, size: 2, sign: true, goName: "int16",
			put: func(o binary.ByteOrder, b []byte, v int16) { o.PutUint16(b, uint16(v)) }, //nolint:gosec // G115: bit pattern
			get: func(o binary.ByteOrder, b []byte) int16 { return int16(o.Uint16(b)) },    //nolint:gosec // G115: bit pattern
		},
		Int32: &sliceHandler[int32]{
			cls: core.DatatypeFixed, size: 4, sign: true, goName: "int32",
			put: func(o binary.ByteOrder, b []byte, v int32) { o.PutUint32(b, uint32(v)) }, //nolint:gosec // G115: bit pattern
			get: func(o binary.ByteOrder, b []byte) int32 { return int32(o.Uint32(b)) },    //nolint:gosec // G115: bit pattern
		},
		Int64: &sliceHandler[int64]{
			cls: core.DatatypeFixed, size: 8, sign: true, goName: "int64",
			put: func(o binary.ByteOrder, b []byte, v int64) { o.PutUint64(b, uint64(v)) }, //nolint:gosec // G115: bit pattern
			get: func(o binary.ByteOrder, b []byte) int64 { return int64(o.Uint64(b)) },    //nolint:gosec // G115: bit pattern
		},
		Uint8: &sliceHandler[uint8]{
			cls: core.DatatypeFixed, size: 1, goName: "uint8",
			put: func(_ binary.ByteOrder, b []byte, v uint8) { b[0] = v },
			get: func(_ binary.ByteOrder, b []byte) uint8 { return b[0] },
		},
		Uint16: &sliceHandler[uint16]{
			cls: core.DatatypeFixed, size: 2, goName: "uint16",
			put: func(o binary.ByteOrder, b []byte, v uint16) { o.PutUint16(b, v) },
			get: func(o binary.ByteOrder, b []byte) uint16 { return o.Uint16(b) },
		},
		Uint32: &sliceHandler[uint32]{
			cls: core.DatatypeFixed, size: 4, goName: "uint32",
			put: func(o binary.ByteOrder, b []byte, v uint32) { o.PutUint32(b, v) },
			get: func(o binary.ByteOrder, b []byte) uint32 { return o.Uint32(b) },
		},
		Uint64: &sliceHandler[uint64]{
			cls: core.DatatypeFixed, size: 8, goName: "uint64",
			put: func(o binary.ByteOrder, b []byte, v uint64) { o.PutUint64(b, v) },
			get: func(o binary.ByteOrder, b []byte) uint64 { return o.Uint64(b) },
		},
		Float32: &sliceHandler[float32]{
			cls: core.DatatypeFloat, size: 4, goName: "float32",
			put: func(o binary.ByteOrder, b []byte, v float32) { o.PutUint32(b, math.Float32bits(v)) },
			get: func(o binary.ByteOrder, b []byte) float32 { return math.Float32frombits(o.Uint32(b)) },
		},
		Float64: &sliceHandler[float64]{
			cls: core.DatatypeFloat, size: 8, goName: "float64",
			put: func(o binary.ByteOrder, b []byte, v float64) { o.PutUint64(b, math.Float64bits(v)) },
			get: func(o binary.ByteOrder, b []byte) float64 { return math.Float64frombits(o.Uint64(b)) },
		},
	}
}
