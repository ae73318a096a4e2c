package utils

import (
	"fmt"
	"math"
)

// CheckMultiplyOverflow checks if multiplying two uint64 values would overflow.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil
	}

	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}

	return nil
}

// SafeMultiply multiplies two uint64 values, failing instead of wrapping.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// ElementCount returns the product of dims. An empty dims slice is a scalar
// and counts as one element.
func ElementCount(dims []uint64) (uint64, error) {
	total := uint64(1)
	for i, d := range dims {
		if d == 0 {
			return 0, fmt.Errorf("dimension %d cannot be 0", i)
		}
		next, err := SafeMultiply(total, d)
		if err != nil {
			return 0, fmt.Errorf("element count overflow at dimension %d: %w", i, err)
		}
		total = next
	}
	return total, nil
}

// ByteCount returns ElementCount(dims) * elemSize, checked for overflow and
// for fitting in an int so the data can be held in a single slice.
func ByteCount(dims []uint64, elemSize uint32) (uint64, error) {
	n, err := ElementCount(dims)
	if err != nil {
		return 0, err
	}
	size, err := SafeMultiply(n, uint64(elemSize))
	if err != nil {
		return 0, fmt.Errorf("data size overflow: %w", err)
	}
	if size > math.MaxInt {
		return 0, fmt.Errorf("data size %d exceeds addressable memory", size)
	}
	return size, nil
}
