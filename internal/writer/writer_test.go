package writer

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileWriter(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name          string
		filename      string
		mode          CreateMode
		setupExisting bool
		wantErr       bool
	}{
		{"create new file truncate mode", "t1.h5", ModeTruncate, false, false},
		{"create new file exclusive mode", "t2.h5", ModeExclusive, false, false},
		{"truncate existing file", "t3.h5", ModeTruncate, true, false},
		{"exclusive mode fails on existing", "t4.h5", ModeExclusive, true, true},
		{"invalid mode", "t5.h5", CreateMode(42), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.filename)

			if tt.setupExisting {
				require.NoError(t, os.WriteFile(path, []byte("existing content"), 0o644))
			}

			w, err := NewFileWriter(path, tt.mode, 48)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, w)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, uint64(48), w.EndOfFile())
			assert.True(t, w.Created())
			assert.Equal(t, tt.mode, w.Mode())
			require.NoError(t, w.Close())

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, int64(48), info.Size(), "Close must extend the file to its end-of-file address")
		})
	}
}

func TestFileWriter_WriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rw.h5")

	w, err := NewFileWriter(path, ModeTruncate, 48)
	require.NoError(t, err)
	defer w.Close()

	data := []byte("dataset payload")
	addr, err := w.WriteAtWithAllocation(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(48), addr)
	assert.Equal(t, uint64(48+len(data)), w.EndOfFile())

	buf := make([]byte, len(data))
	n, err := w.ReadAt(buf, int64(addr))
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, buf)

	_, err = w.WriteAtWithAllocation(nil)
	assert.Error(t, err)

	n, err = w.WriteAt(nil, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFileWriter_Extend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extend.h5")

	w, err := NewFileWriter(path, ModeTruncate, 0)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Extend(1024))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), info.Size())

	// Never shrinks.
	require.NoError(t, w.Extend(10))
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), info.Size())
}

func TestFileWriter_Closed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.h5")

	w, err := NewFileWriter(path, ModeTruncate, 48)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "second Close is a no-op")

	_, err = w.Allocate(10)
	assert.ErrorIs(t, err, ErrWriterClosed)
	_, err = w.WriteAt([]byte{1}, 0)
	assert.ErrorIs(t, err, ErrWriterClosed)
	_, err = w.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrWriterClosed)
	assert.ErrorIs(t, w.Flush(), ErrWriterClosed)
	assert.ErrorIs(t, w.Extend(100), ErrWriterClosed)
}

func TestFileWriter_AbortRemovesCreatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abort.h5")

	w, err := NewFileWriter(path, ModeExclusive, 48)
	require.NoError(t, err)
	_, err = w.WriteAtWithAllocation([]byte("partial"))
	require.NoError(t, err)

	require.NoError(t, w.Abort())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.h5")
	require.NoError(t, os.WriteFile(path, make([]byte, 200), 0o644))

	w, err := OpenFileWriter(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), w.EndOfFile())
	assert.False(t, w.Created())

	addr, err := w.WriteAtWithAllocation([]byte("tail"))
	require.NoError(t, err)
	assert.Equal(t, uint64(200), addr)

	// Abort on an opened file only closes it.
	require.NoError(t, w.Abort())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(204), info.Size())

	_, err = OpenFileWriter(filepath.Join(t.TempDir(), "missing.h5"))
	assert.Error(t, err)
}

func TestFileWriter_Atomic(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("atomic create is unix-only")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "atomic.h5")
	require.NoError(t, os.WriteFile(path, []byte("old contents"), 0o644))

	t.Run("abort keeps target", func(t *testing.T) {
		w, err := NewFileWriter(path, ModeAtomic, 48)
		require.NoError(t, err)
		_, err = w.WriteAtWithAllocation([]byte("new contents"))
		require.NoError(t, err)
		require.NoError(t, w.Abort())

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "old contents", string(got))
	})

	t.Run("close replaces target", func(t *testing.T) {
		w, err := NewFileWriter(path, ModeAtomic, 0)
		require.NoError(t, err)
		assert.Equal(t, "atomic", w.Mode().String())
		_, err = w.WriteAtWithAllocation([]byte("new contents"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new contents", string(got))
	})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files may be left behind")
}
