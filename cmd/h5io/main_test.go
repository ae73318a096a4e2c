package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5io"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func sampleFile(t *testing.T) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "sample.h5")

	f, err := h5io.Create(filename)
	require.NoError(t, err)
	require.NoError(t, f.WriteDoubles("matrix", []float64{1.5, 2, 3, 4, 5, 6.25}, 2, 3))
	require.NoError(t, f.WriteInts("step", []int32{42}))
	require.NoError(t, f.Close())
	return filename
}

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no args", nil, exitUsage},
		{"unknown command", []string{"frobnicate"}, exitUsage},
		{"bad global flag", []string{"-nope"}, exitUsage},
		{"bad log level", []string{"-log-level", "loud", "ls", "x.h5"}, exitUsage},
		{"help", []string{"-h"}, exitOK},
		{"subcommand help", []string{"ls", "-h"}, exitOK},
		{"ls without file", []string{"ls"}, exitUsage},
		{"cat without name", []string{"cat", "x.h5"}, exitUsage},
		{"write without manifest", []string{"write", "x.h5"}, exitUsage},
		{"atomic without create", []string{"write", "-atomic", "-manifest", "m.yaml", "x.h5"}, exitUsage},
		{"hexdump bad length", []string{"hexdump", "-length", "0", "x.h5"}, exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRun_List(t *testing.T) {
	filename := sampleFile(t)

	code, out, _ := runCLI(t, "ls", filename)
	require.Equal(t, exitOK, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"NAME", "TYPE", "SHAPE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"matrix", "float64", "2x3"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"step", "int32", "scalar"}, strings.Fields(lines[2]))
}

func TestRun_ListMissingFile(t *testing.T) {
	code, _, stderr := runCLI(t, "ls", filepath.Join(t.TempDir(), "missing.h5"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "h5io ls:")
}

func TestRun_Cat(t *testing.T) {
	filename := sampleFile(t)

	code, out, _ := runCLI(t, "cat", filename, "matrix")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "1.5\n2\n3\n4\n5\n6.25\n", out)

	code, out, _ = runCLI(t, "cat", filename, "/step")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "42\n", out)

	code, _, stderr := runCLI(t, "cat", filename, "nope")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "not found")
}

func TestRun_WriteCreate(t *testing.T) {
	manifest := writeManifest(t, `
datasets:
  - name: counts
    type: int32
    dims: [2, 2]
    data: [1, 2, 3, 4]
  - name: ratio
    type: double
    data: 0.5
`)
	filename := filepath.Join(t.TempDir(), "out.h5")

	code, _, stderr := runCLI(t, "write", "-create", "-manifest", manifest, filename)
	require.Equal(t, exitOK, code, stderr)

	got := make([]int32, 4)
	require.NoError(t, h5io.ReadIntsFile(filename, "counts", got))
	assert.Equal(t, []int32{1, 2, 3, 4}, got)

	ratio := make([]float64, 1)
	require.NoError(t, h5io.ReadDoublesFile(filename, "ratio", ratio))
	assert.Equal(t, []float64{0.5}, ratio)
}

func TestRun_WriteAtomic(t *testing.T) {
	manifest := writeManifest(t, "datasets:\n  - {name: v, type: uint8, dims: [3], data: [1, 2, 3]}\n")
	filename := filepath.Join(t.TempDir(), "atomic.h5")

	code, _, stderr := runCLI(t, "write", "-create", "-atomic", "-manifest", manifest, filename)
	if code == exitError && strings.Contains(stderr, "unsupported") {
		t.Skip("atomic create not supported on this platform")
	}
	require.Equal(t, exitOK, code, stderr)

	code, out, _ := runCLI(t, "cat", filename, "v")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestRun_WriteAppendIsAllOrNothing(t *testing.T) {
	filename := sampleFile(t)
	manifest := writeManifest(t, `
datasets:
  - {name: fresh, type: int16, data: 7}
  - {name: step, type: int32, data: 1}
`)

	code, _, stderr := runCLI(t, "write", "-manifest", manifest, filename)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "already exists")

	code, out, _ := runCLI(t, "ls", filename)
	require.Equal(t, exitOK, code)
	assert.NotContains(t, out, "fresh")
}

func TestRun_WriteInvalidManifest(t *testing.T) {
	manifest := writeManifest(t, "datasets:\n  - {name: v, type: int32, dims: [2], data: [1]}\n")
	filename := filepath.Join(t.TempDir(), "never.h5")

	code, _, stderr := runCLI(t, "write", "-create", "-manifest", manifest, filename)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "datasets[0].data")

	_, err := os.Stat(filename)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Hexdump(t *testing.T) {
	filename := sampleFile(t)

	code, out, _ := runCLI(t, "hexdump", "-length", "16", filename)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "00000000: 89 48 44 46 0d 0a 1a 0a  02 08 08 00")
	assert.Contains(t, out, "|.HDF")

	code, _, _ = runCLI(t, "hexdump", "-offset", "1000000", filename)
	assert.Equal(t, exitUsage, code)
}

func TestWriteHex(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHex(&buf, []byte("ABCDEFGHIJKLMNOPQR"), 0x10))

	want := "00000010: 41 42 43 44 45 46 47 48  49 4a 4b 4c 4d 4e 4f 50  |ABCDEFGHIJKLMNOP|\n" +
		"00000020: 51 52                                             |QR|\n"
	assert.Equal(t, want, buf.String())
}
