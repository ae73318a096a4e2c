package h5io

import (
	"encoding/binary"
	"fmt"

	"github.com/scigolib/h5io/internal/core"
	h5log "github.com/scigolib/h5io/internal/log"
	"github.com/scigolib/h5io/internal/utils"
)

// Dataset is a named array of elements of one Datatype stored in a File.
type Dataset struct {
	file    *File
	name    string
	dtype   Datatype
	handler datatypeHandler
	order   binary.ByteOrder
	space   *Dataspace

	// Contiguous storage; compact datasets keep their bytes in compact.
	address uint64
	size    uint64
	compact []byte
	// allocated is false for contiguous datasets whose storage was never
	// written by the creating library.
	allocated bool
	fill      []byte

	closed bool
}

// CreateDataset creates a dataset in the root group and reserves its
// storage. The name may carry a single leading "/".
//
// Parameters:
//   - name: Dataset name, unique within the file
//   - dtype: Element type (Int32, Float64, ...)
//   - space: Shape, from ScalarSpace or SimpleSpace
//
// Returns:
//   - *Dataset: Handle for writing data, to be closed with Close
//   - error: ErrInvalidName, ErrExists, ErrReadOnly, ErrClosed,
//     ErrInvalidSpace or ErrUnsupported
//
// Example:
//
//	space, _ := h5io.SimpleSpace(2, 3)
//	ds, err := f.CreateDataset("matrix", h5io.Float64, space)
//	if err != nil {
//	    return err
//	}
//	defer ds.Close()
//	err = ds.Write([]float64{1, 2, 3, 4, 5, 6})
func (f *File) CreateDataset(name string, dtype Datatype, space *Dataspace) (*Dataset, error) {
	if err := f.checkWritable(); err != nil {
		return nil, err
	}

	key, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if _, ok := f.links[key]; ok {
		return nil, fmt.Errorf("dataset %q: %w", key, ErrExists)
	}

	if space == nil {
		return nil, fmt.Errorf("%w: nil dataspace", ErrInvalidSpace)
	}
	if space.closed {
		return nil, fmt.Errorf("dataspace: %w", ErrClosed)
	}

	handler, err := lookupHandler(dtype)
	if err != nil {
		return nil, err
	}

	size, err := utils.ByteCount(space.dims, handler.elemSize())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpace, err)
	}

	typeMsg, err := handler.message(binary.LittleEndian)
	if err != nil {
		return nil, err
	}

	dataAddr, err := f.fw.Allocate(size)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate data for %q: %w", key, err)
	}

	header, err := core.NewDatasetHeader(space.dims, typeMsg, dataAddr, size)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset header: %w", err)
	}

	headerAddr, err := f.fw.Allocate(header.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate dataset header: %w", err)
	}
	if err := header.WriteTo(f.fw, headerAddr); err != nil {
		return nil, fmt.Errorf("failed to write dataset header: %w", err)
	}

	f.links[key] = headerAddr
	f.dirty = true

	f.logger.Debug().
		Str(h5log.FieldDataset, key).
		Str("type", dtype.String()).
		Str("shape", space.String()).
		Uint64("header", headerAddr).
		Uint64("data", dataAddr).
		Msg("created dataset")

	ds := &Dataset{
		file:      f,
		name:      key,
		dtype:     dtype,
		handler:   handler,
		order:     binary.LittleEndian,
		space:     &Dataspace{dims: space.Dims(), elements: space.elements},
		address:   dataAddr,
		size:      size,
		allocated: true,
	}
	f.open[ds] = struct{}{}
	return ds, nil
}

// OpenDataset opens an existing dataset by name.
// ErrNotFound is returned when no such dataset exists.
func (f *File) OpenDataset(name string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}

	key, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	addr, ok := f.links[key]
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", key, ErrNotFound)
	}

	oh, err := core.ReadObjectHeader(f.reader, addr, f.sb)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", key, err)
	}
	info, err := core.ReadDatasetInfo(oh, f.sb)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", key, err)
	}

	dtype, order, err := datatypeFromMessage(info.Datatype)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", key, err)
	}
	handler := datatypeRegistry[dtype]

	space, err := newSpace(info.Dataspace.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", key, err)
	}

	size, err := utils.ByteCount(space.dims, handler.elemSize())
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", key, err)
	}

	ds := &Dataset{
		file:    f,
		name:    key,
		dtype:   dtype,
		handler: handler,
		order:   order,
		space:   space,
		size:    size,
	}

	switch info.Layout.Class {
	case core.LayoutCompact:
		if uint64(len(info.Layout.CompactData)) != size {
			return nil, fmt.Errorf("dataset %q: %w: compact data is %d bytes, expected %d",
				key, ErrCorrupt, len(info.Layout.CompactData), size)
		}
		ds.compact = info.Layout.CompactData
		ds.allocated = true
	default:
		ds.address = info.Layout.DataAddress
		ds.allocated = !f.sb.IsUndefined(ds.address)
		if ds.allocated && info.Layout.DataSize < size {
			return nil, fmt.Errorf("dataset %q: %w: storage is %d bytes, expected %d",
				key, ErrCorrupt, info.Layout.DataSize, size)
		}
		if eof := f.endOfFile(); ds.allocated && (ds.address > eof || size > eof-ds.address) {
			return nil, fmt.Errorf("dataset %q: %w: %d bytes at address %d run past end of file %d",
				key, ErrCorrupt, size, ds.address, eof)
		}
	}

	if info.FillValue != nil && info.FillValue.Defined && uint64(len(info.FillValue.Value)) == uint64(handler.elemSize()) {
		ds.fill = info.FillValue.Value
	}

	f.open[ds] = struct{}{}
	return ds, nil
}

// Name returns the dataset name without a leading "/".
func (ds *Dataset) Name() string { return ds.name }

// Datatype returns the element type.
func (ds *Dataset) Datatype() Datatype { return ds.dtype }

// Dataspace returns a copy of the dataset's shape.
func (ds *Dataset) Dataspace() *Dataspace {
	return &Dataspace{dims: ds.space.Dims(), elements: ds.space.elements}
}

// Dims returns the dimensions. A scalar dataset has none.
func (ds *Dataset) Dims() []uint64 { return ds.space.Dims() }

// Rank returns the number of dimensions.
func (ds *Dataset) Rank() int { return ds.space.Rank() }

// Elements returns the number of elements.
func (ds *Dataset) Elements() uint64 { return ds.space.elements }

// Size returns the data size in bytes.
func (ds *Dataset) Size() uint64 { return ds.size }

// ByteOrder returns the byte order of the stored elements.
func (ds *Dataset) ByteOrder() binary.ByteOrder { return ds.order }

// Write writes the whole dataset. data must be a slice of the Go type
// matching the datatype ([]int32 for Int32, []float64 for Float64, ...)
// holding exactly Elements() values in row-major order.
func (ds *Dataset) Write(data any) error {
	if err := ds.check(); err != nil {
		return err
	}
	if err := ds.file.checkWritable(); err != nil {
		return err
	}
	if ds.compact != nil || !ds.allocated {
		return fmt.Errorf("dataset %q: %w: writing to storage that is compact or not allocated", ds.name, ErrUnsupported)
	}

	buf, n, err := ds.handler.encode(data, ds.order)
	if err != nil {
		return fmt.Errorf("dataset %q: %w", ds.name, err)
	}
	if n != ds.space.elements {
		return fmt.Errorf("dataset %q: %w: got %d elements, dataspace %s holds %d",
			ds.name, ErrShapeMismatch, n, ds.space, ds.space.elements)
	}

	if err := ds.file.fw.WriteAtAddress(buf, ds.address); err != nil {
		return fmt.Errorf("failed to write dataset %q: %w", ds.name, err)
	}
	return nil
}

// Read reads the whole dataset into dst, a slice of the matching Go type
// with exactly Elements() values.
func (ds *Dataset) Read(dst any) error {
	if err := ds.check(); err != nil {
		return err
	}

	n, err := ds.handler.length(dst)
	if err != nil {
		return fmt.Errorf("dataset %q: %w", ds.name, err)
	}
	if uint64(n) != ds.space.elements {
		return fmt.Errorf("dataset %q: %w: buffer holds %d elements, dataset has %d",
			ds.name, ErrShapeMismatch, n, ds.space.elements)
	}
	return ds.readInto(dst)
}

// ReadAll reads the whole dataset into a newly allocated slice of the
// matching Go type, e.g. []float64 for a Float64 dataset.
func (ds *Dataset) ReadAll() (any, error) {
	if err := ds.check(); err != nil {
		return nil, err
	}

	n := ds.space.elements
	if n > uint64(maxInt) {
		return nil, fmt.Errorf("dataset %q: %w: %d elements", ds.name, ErrUnsupported, n)
	}
	dst := ds.handler.alloc(int(n))
	if err := ds.readInto(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

const maxInt = int(^uint(0) >> 1)

// readChunkSize bounds the scratch buffer of contiguous reads. It is a
// multiple of every element size.
const readChunkSize = 1 << 20

// readInto decodes the stored elements into dst, already checked to hold
// Elements() values.
func (ds *Dataset) readInto(dst any) error {
	if ds.compact != nil {
		if err := ds.handler.decode(ds.compact, ds.order, dst, 0); err != nil {
			return fmt.Errorf("dataset %q: %w", ds.name, err)
		}
		return nil
	}

	if !ds.allocated {
		// Unallocated storage reads as the fill value, or zeros.
		if err := ds.handler.fill(dst, ds.fill, ds.order); err != nil {
			return fmt.Errorf("dataset %q: %w", ds.name, err)
		}
		return nil
	}

	elem := uint64(ds.handler.elemSize())
	buf := make([]byte, min(ds.size, readChunkSize))
	for off := uint64(0); off < ds.size; {
		k := min(ds.size-off, readChunkSize)
		if err := utils.ReadInto(ds.file.reader, ds.address+off, buf[:k]); err != nil {
			return fmt.Errorf("failed to read dataset %q: %w", ds.name, err)
		}
		if err := ds.handler.decode(buf[:k], ds.order, dst, int(off/elem)); err != nil {
			return fmt.Errorf("dataset %q: %w", ds.name, err)
		}
		off += k
	}
	return nil
}

func (ds *Dataset) check() error {
	if ds.closed || ds.file.closed {
		return ErrClosed
	}
	return nil
}

// Close releases the dataset. Closing twice is a no-op; any other use
// after Close returns ErrClosed.
func (ds *Dataset) Close() error {
	if ds.closed {
		return nil
	}
	ds.closed = true
	if ds.file.open != nil {
		delete(ds.file.open, ds)
	}
	return nil
}
