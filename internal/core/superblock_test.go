package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	h5test "github.com/scigolib/h5io/internal/testing"
	"github.com/scigolib/h5io/internal/utils"
)

func TestSuperblockEncodeLayout(t *testing.T) {
	sb := NewSuperblock(48, 4096)

	buf, err := sb.Encode()
	require.NoError(t, err)
	require.Len(t, buf, SuperblockV2Size)

	assert.Equal(t, Signature, string(buf[0:8]))
	assert.Equal(t, []byte{2, 8, 8, 0}, buf[8:12])
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(buf[12:20]))
	assert.Equal(t, utils.UndefinedAddress, binary.LittleEndian.Uint64(buf[20:28]))
	assert.Equal(t, uint64(4096), binary.LittleEndian.Uint64(buf[28:36]))
	assert.Equal(t, uint64(48), binary.LittleEndian.Uint64(buf[36:44]))
	assert.Equal(t, utils.Lookup3(buf[:44]), binary.LittleEndian.Uint32(buf[44:48]))
}

func TestSuperblockRoundTrip(t *testing.T) {
	f := h5test.NewMemFile(nil)
	require.NoError(t, NewSuperblock(120, 999).WriteTo(f))

	sb, err := ReadSuperblock(f)
	require.NoError(t, err)
	assert.Equal(t, uint8(Version2), sb.Version)
	assert.Equal(t, uint8(8), sb.OffsetSize)
	assert.Equal(t, uint8(8), sb.LengthSize)
	assert.Equal(t, uint64(120), sb.RootGroup)
	assert.Equal(t, uint64(999), sb.EndOfFile)
	assert.True(t, sb.IsUndefined(sb.SuperExtension))
	assert.Equal(t, binary.LittleEndian, sb.Endianness)
}

func TestReadSuperblockV3(t *testing.T) {
	buf, err := NewSuperblock(48, 200).Encode()
	require.NoError(t, err)
	buf[8] = Version3
	buf[11] = 0x05 // file consistency flags written by SWMR-capable writers
	binary.LittleEndian.PutUint32(buf[44:], utils.Lookup3(buf[:44]))

	sb, err := ReadSuperblock(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, uint8(Version3), sb.Version)
	assert.Equal(t, uint8(0x05), sb.Flags)
}

func TestReadSuperblockFourByteOffsets(t *testing.T) {
	buf := make([]byte, 12+16+4)
	copy(buf, Signature)
	buf[8], buf[9], buf[10] = 2, 4, 4
	binary.LittleEndian.PutUint32(buf[12:], 0)
	binary.LittleEndian.PutUint32(buf[16:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(buf[20:], 500)
	binary.LittleEndian.PutUint32(buf[24:], 32)
	binary.LittleEndian.PutUint32(buf[28:], utils.Lookup3(buf[:28]))

	sb, err := ReadSuperblock(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, uint64(32), sb.RootGroup)
	assert.Equal(t, uint64(500), sb.EndOfFile)
	assert.True(t, sb.IsUndefined(sb.SuperExtension))
}

func TestReadSuperblockErrors(t *testing.T) {
	valid, err := NewSuperblock(48, 100).Encode()
	require.NoError(t, err)

	mutate := func(f func([]byte)) []byte {
		b := append([]byte(nil), valid...)
		f(b)
		return b
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrNotHDF5},
		{"short", valid[:10], ErrNotHDF5},
		{"bad signature", mutate(func(b []byte) { b[1] = 'X' }), ErrNotHDF5},
		{"version 0", mutate(func(b []byte) { b[8] = 0 }), ErrUnsupported},
		{"unknown version", mutate(func(b []byte) { b[8] = 9 }), ErrNotHDF5},
		{"bad offset size", mutate(func(b []byte) { b[9] = 3 }), ErrCorrupt},
		{"checksum", mutate(func(b []byte) { b[30] ^= 0x01 }), ErrChecksum},
		{"truncated body", valid[:40], nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSuperblock(bytes.NewReader(tt.data))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestReadSuperblockIOError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := ReadSuperblock(h5test.FailingReaderAt{Err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSuperblockEncodeRejectsOtherVersions(t *testing.T) {
	sb := NewSuperblock(48, 48)
	sb.Version = Version0
	_, err := sb.Encode()
	assert.ErrorIs(t, err, ErrUnsupported)

	sb = NewSuperblock(48, 48)
	sb.OffsetSize = 4
	_, err = sb.Encode()
	assert.ErrorIs(t, err, ErrUnsupported)
}
