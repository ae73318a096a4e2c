package h5io

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarSpace(t *testing.T) {
	s := ScalarSpace()
	assert.True(t, s.IsScalar())
	assert.Equal(t, 0, s.Rank())
	assert.Empty(t, s.Dims())
	assert.Equal(t, uint64(1), s.Elements())
	assert.Equal(t, "scalar", s.String())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestSimpleSpace(t *testing.T) {
	tests := []struct {
		name     string
		dims     []uint64
		elements uint64
		str      string
	}{
		{"1d", []uint64{5}, 5, "5"},
		{"2d", []uint64{3, 4}, 12, "3x4"},
		{"3d", []uint64{2, 3, 4}, 24, "2x3x4"},
		{"ones", []uint64{1, 1, 1, 1}, 1, "1x1x1x1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := SimpleSpace(tt.dims...)
			require.NoError(t, err)
			assert.False(t, s.IsScalar())
			assert.Equal(t, len(tt.dims), s.Rank())
			assert.Equal(t, tt.dims, s.Dims())
			assert.Equal(t, tt.elements, s.Elements())
			assert.Equal(t, tt.str, s.String())
		})
	}
}

func TestSimpleSpace_CopiesDims(t *testing.T) {
	dims := []uint64{2, 2}
	s, err := SimpleSpace(dims...)
	require.NoError(t, err)

	dims[0] = 7
	assert.Equal(t, []uint64{2, 2}, s.Dims())

	got := s.Dims()
	got[1] = 9
	assert.Equal(t, []uint64{2, 2}, s.Dims())
}

func TestSimpleSpace_Invalid(t *testing.T) {
	tooMany := make([]uint64, MaxRank+1)
	for i := range tooMany {
		tooMany[i] = 1
	}
	maxRank := tooMany[:MaxRank]

	tests := []struct {
		name    string
		dims    []uint64
		wantErr bool
	}{
		{"no dims", nil, true},
		{"zero dim", []uint64{3, 0}, true},
		{"over max rank", tooMany, true},
		{"overflow", []uint64{math.MaxUint64, 2}, true},
		{"max rank", maxRank, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SimpleSpace(tt.dims...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSpace)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateDataset_ByteOverflow(t *testing.T) {
	// Element count fits but the byte size does not.
	s, err := SimpleSpace(math.MaxUint64 / 4)
	require.NoError(t, err)

	f, err := Create(filepath.Join(t.TempDir(), "overflow.h5"))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.CreateDataset("huge", Float64, s)
	assert.ErrorIs(t, err, ErrInvalidSpace)
}
