package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func runHexdump(args []string, stdout, stderr io.Writer) (err error) {
	fs := newFlagSet("hexdump", "FILE", stderr)
	offset := fs.Int64("offset", 0, "Offset in file to start dumping from")
	length := fs.Int("length", 128, "Number of bytes to dump")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected FILE, got %d arguments", fs.NArg())
	}
	if *length < 1 {
		return usagef("invalid length: %d", *length)
	}

	file := fs.Arg(0)
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer closeInto(&err, f.Close)

	fileInfo, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}
	fileSize := fileInfo.Size()

	if *offset < 0 || *offset >= fileSize {
		return usagef("invalid offset: %d (file size: %d)", *offset, fileSize)
	}

	remaining := fileSize - *offset
	readLength := int64(*length)
	if readLength > remaining {
		readLength = remaining
		fmt.Fprintf(stderr, "warning: requested length %d exceeds available bytes (%d), dumping %d bytes\n",
			*length, remaining, readLength)
	}

	buf := make([]byte, readLength)
	n, err := f.ReadAt(buf, *offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read error after %d of %d bytes: %w", n, readLength, err)
	}

	fmt.Fprintf(stdout, "Dumping %d bytes at offset 0x%x (%d) of %s (size: %d bytes):\n",
		n, *offset, *offset, file, fileSize)
	return writeHex(stdout, buf[:n], *offset)
}

// writeHex writes data in the classic 16-bytes-per-line layout with an
// ASCII column, labelling lines from base.
func writeHex(w io.Writer, data []byte, base int64) error {
	line := make([]byte, 0, 80)
	for i := 0; i < len(data); i += 16 {
		chunk := data[i:min(i+16, len(data))]

		line = fmt.Appendf(line[:0], "%08x: ", base+int64(i))
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				line = fmt.Appendf(line, "%02x ", chunk[j])
			} else {
				line = append(line, "   "...)
			}
			if j == 7 {
				line = append(line, ' ')
			}
		}
		line = append(line, " |"...)

		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				line = append(line, b)
			} else {
				line = append(line, '.')
			}
		}
		line = append(line, "|\n"...)

		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}
