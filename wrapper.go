package h5io

import (
	"errors"
	"fmt"
)

// WriteInts creates dataset name as Int32 with the given dimensions and
// writes data to it. With no dims the dataset is scalar and data must
// hold exactly one value.
//
// Example:
//
//	// 2x3 matrix, row-major
//	err := f.WriteInts("counts", []int32{1, 2, 3, 4, 5, 6}, 2, 3)
func (f *File) WriteInts(name string, data []int32, dims ...uint64) error {
	return writeSlice(f, name, Int32, data, dims)
}

// WriteDoubles is WriteInts for Float64 data.
func (f *File) WriteDoubles(name string, data []float64, dims ...uint64) error {
	return writeSlice(f, name, Float64, data, dims)
}

// ReadInts reads the Int32 dataset name into dst, which must hold exactly
// the dataset's element count.
func (f *File) ReadInts(name string, dst []int32) error {
	return readSlice(f, name, dst)
}

// ReadDoubles reads the Float64 dataset name into dst.
func (f *File) ReadDoubles(name string, dst []float64) error {
	return readSlice(f, name, dst)
}

// WriteIntsFile opens an existing file read-write, writes an Int32 dataset
// and closes the file.
func WriteIntsFile(filename, name string, data []int32, dims ...uint64) error {
	return withFile(filename, ModeReadWrite, func(f *File) error {
		return f.WriteInts(name, data, dims...)
	})
}

// WriteDoublesFile opens an existing file read-write, writes a Float64
// dataset and closes the file.
func WriteDoublesFile(filename, name string, data []float64, dims ...uint64) error {
	return withFile(filename, ModeReadWrite, func(f *File) error {
		return f.WriteDoubles(name, data, dims...)
	})
}

// ReadIntsFile opens filename read-only and reads an Int32 dataset.
func ReadIntsFile(filename, name string, dst []int32) error {
	return withFile(filename, ModeReadOnly, func(f *File) error {
		return f.ReadInts(name, dst)
	})
}

// ReadDoublesFile opens filename read-only and reads a Float64 dataset.
func ReadDoublesFile(filename, name string, dst []float64) error {
	return withFile(filename, ModeReadOnly, func(f *File) error {
		return f.ReadDoubles(name, dst)
	})
}

func writeSlice[T any](f *File, name string, dtype Datatype, data []T, dims []uint64) (err error) {
	var space *Dataspace
	if len(dims) == 0 {
		space = ScalarSpace()
	} else {
		space, err = SimpleSpace(dims...)
		if err != nil {
			return err
		}
	}
	defer closeInto(&err, space.Close)

	if uint64(len(data)) != space.Elements() {
		return fmt.Errorf("dataset %q: %w: %d values for dataspace %s",
			name, ErrShapeMismatch, len(data), space)
	}

	ds, err := f.CreateDataset(name, dtype, space)
	if err != nil {
		return err
	}
	defer closeInto(&err, ds.Close)

	return ds.Write(data)
}

func readSlice[T any](f *File, name string, dst []T) (err error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return err
	}
	defer closeInto(&err, ds.Close)

	return ds.Read(dst)
}

func withFile(filename string, mode Mode, fn func(*File) error) (err error) {
	f, err := Open(filename, mode)
	if err != nil {
		return err
	}
	defer closeInto(&err, f.Close)

	return fn(f)
}

// closeInto runs closeFn and joins its error into *err.
func closeInto(err *error, closeFn func() error) {
	if cerr := closeFn(); cerr != nil {
		*err = errors.Join(*err, cerr)
	}
}
