package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup3KnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint32
	}{
		{"empty", nil, 0xdeadbeef},
		{"four score", []byte("Four score and seven years ago"), 0x17770551},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup3(tt.input))
		})
	}
}

func TestLookup3BlockBoundaries(t *testing.T) {
	// Lengths around the 12-byte block size take different code paths.
	seen := make(map[uint32]int)
	for n := 1; n <= 37; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i*7 + 1)
		}
		sum := Lookup3(data)
		prev, dup := seen[sum]
		require.Falsef(t, dup, "length %d collides with length %d", n, prev)
		seen[sum] = n

		assert.Equal(t, sum, Lookup3(data), "hash must be deterministic")
	}
}

func TestLookup3DetectsSingleBitFlip(t *testing.T) {
	data := []byte("OHDR\x02\x00\x18\x01\x00\x08\x00")
	orig := Lookup3(data)

	for i := range data {
		flipped := append([]byte(nil), data...)
		flipped[i] ^= 0x01
		assert.NotEqualf(t, orig, Lookup3(flipped), "flip at byte %d not detected", i)
	}
}

func TestVerifyLookup3(t *testing.T) {
	data := []byte("HDF5 superblock")
	sum := Lookup3(data)

	assert.True(t, VerifyLookup3(data, sum))
	assert.False(t, VerifyLookup3(data, sum+1))
}
