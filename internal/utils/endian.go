package utils

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReaderAt is a simplified interface for io.ReaderAt.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

// ReadBytes reads exactly n bytes at the given file address.
func ReadBytes(r ReaderAt, address uint64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d", n)
	}
	buf := make([]byte, n)
	if err := ReadInto(r, address, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadInto fills buf with the bytes at the given file address. A short
// read returns io.ErrUnexpectedEOF.
func ReadInto(r ReaderAt, address uint64, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	//nolint:gosec // G115: HDF5 addresses fit in int64 for io.ReaderAt interface
	got, err := r.ReadAt(buf, int64(address))
	if got == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return WrapErrorAt(fmt.Sprintf("read of %d bytes failed", len(buf)), address, err)
}

// DecodeUint reads an unsigned integer of 1, 2, 4 or 8 bytes.
// Other widths are decoded byte by byte in the given order.
func DecodeUint(buf []byte, size int, order binary.ByteOrder) uint64 {
	switch size {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	case 8:
		return order.Uint64(buf)
	}

	var v uint64
	if order == binary.BigEndian {
		for i := 0; i < size; i++ {
			v = v<<8 | uint64(buf[i])
		}
		return v
	}
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

// EncodeUint writes value into buf using size bytes.
func EncodeUint(buf []byte, value uint64, size int, order binary.ByteOrder) {
	switch size {
	case 1:
		buf[0] = byte(value)
	case 2:
		order.PutUint16(buf, uint16(value)) //nolint:gosec // G115: truncation to field width is the encoding
	case 4:
		order.PutUint32(buf, uint32(value)) //nolint:gosec // G115: truncation to field width is the encoding
	case 8:
		order.PutUint64(buf, value)
	default:
		for i := 0; i < size; i++ {
			shift := uint(i) * 8
			if order == binary.BigEndian {
				shift = uint(size-1-i) * 8
			}
			buf[i] = byte(value >> shift)
		}
	}
}

// UndefinedAddress is the all-ones address HDF5 uses for "not present".
const UndefinedAddress = ^uint64(0)

// IsUndefined reports whether addr is the undefined address for the given
// offset width.
func IsUndefined(addr uint64, offsetSize int) bool {
	if offsetSize >= 8 {
		return addr == UndefinedAddress
	}
	return addr == (uint64(1)<<(uint(offsetSize)*8))-1
}
