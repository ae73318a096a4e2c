package h5io

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteInts_Shapes(t *testing.T) {
	tests := []struct {
		name string
		data []int32
		dims []uint64
	}{
		{"scalar", []int32{42}, nil},
		{"vector", []int32{1, 2, 3, 4}, []uint64{4}},
		{"matrix", []int32{1, 2, 3, 4, 5, 6}, []uint64{2, 3}},
		{"cube", []int32{1, 2, 3, 4, 5, 6, 7, 8}, []uint64{2, 2, 2}},
	}

	filename := filepath.Join(t.TempDir(), "ints.h5")
	f, err := Create(filename)
	require.NoError(t, err)
	for _, tt := range tests {
		require.NoError(t, f.WriteInts(tt.name, tt.data, tt.dims...), tt.name)
	}
	require.NoError(t, f.Close())

	f, err = Open(filename, ModeReadOnly)
	require.NoError(t, err)
	defer f.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]int32, len(tt.data))
			require.NoError(t, f.ReadInts(tt.name, got))
			assert.Equal(t, tt.data, got)

			ds, err := f.OpenDataset(tt.name)
			require.NoError(t, err)
			defer ds.Close()
			assert.Equal(t, len(tt.dims), ds.Rank())
			assert.Equal(t, Int32, ds.Datatype())
		})
	}
}

func TestWriteDoubles_Scalar(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "doubles.h5")
	require.NoError(t, createWith(filename, func(f *File) error {
		return f.WriteDoubles("pi", []float64{3.14159})
	}))

	got := make([]float64, 1)
	require.NoError(t, ReadDoublesFile(filename, "pi", got))
	assert.Equal(t, []float64{3.14159}, got)
}

func TestWriteInts_Errors(t *testing.T) {
	f, err := Create(filepath.Join(t.TempDir(), "wrap_errors.h5"))
	require.NoError(t, err)
	defer f.Close()

	assert.ErrorIs(t, f.WriteInts("scalar", []int32{1, 2}), ErrShapeMismatch)
	assert.ErrorIs(t, f.WriteInts("short", []int32{1, 2}, 3), ErrShapeMismatch)
	assert.ErrorIs(t, f.WriteInts("zero", []int32{}, 0), ErrInvalidSpace)
	assert.ErrorIs(t, f.WriteInts("", []int32{1}), ErrInvalidName)
	assert.Empty(t, f.Datasets(), "failed writes must not create datasets")

	require.NoError(t, f.WriteInts("v", []int32{1}))
	assert.ErrorIs(t, f.WriteInts("v", []int32{2}), ErrExists)
	assert.Empty(t, f.open, "wrappers must close their datasets")
}

func TestReadWrappers_Errors(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "read_errors.h5")
	require.NoError(t, createWith(filename, func(f *File) error {
		if err := f.WriteInts("i", []int32{1, 2}, 2); err != nil {
			return err
		}
		return f.WriteDoubles("d", []float64{1, 2}, 2)
	}))

	f, err := Open(filename, ModeReadOnly)
	require.NoError(t, err)
	defer f.Close()

	assert.ErrorIs(t, f.ReadInts("missing", make([]int32, 2)), ErrNotFound)
	assert.ErrorIs(t, f.ReadInts("d", make([]int32, 2)), ErrTypeMismatch)
	assert.ErrorIs(t, f.ReadDoubles("i", make([]float64, 2)), ErrTypeMismatch)
	assert.ErrorIs(t, f.ReadDoubles("d", make([]float64, 3)), ErrShapeMismatch)
	assert.Empty(t, f.open)
}

func TestWriteFileHelpers(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "helpers.h5")

	// The path helpers open an existing file, like mode 0 of the C API.
	assert.Error(t, WriteIntsFile(filename, "x", []int32{1}))

	require.NoError(t, createWith(filename, func(*File) error { return nil }))
	require.NoError(t, WriteIntsFile(filename, "ints", []int32{5, 6, 7}, 3))
	require.NoError(t, WriteDoublesFile(filename, "doubles", []float64{0.25, 0.5}, 1, 2))

	ints := make([]int32, 3)
	require.NoError(t, ReadIntsFile(filename, "ints", ints))
	assert.Equal(t, []int32{5, 6, 7}, ints)

	doubles := make([]float64, 2)
	require.NoError(t, ReadDoublesFile(filename, "doubles", doubles))
	assert.Equal(t, []float64{0.25, 0.5}, doubles)

	// A failed write still closes and keeps the file valid.
	assert.ErrorIs(t, WriteIntsFile(filename, "ints", []int32{1}), ErrExists)
	require.NoError(t, ReadIntsFile(filename, "ints", ints))
}
