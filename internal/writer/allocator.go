// Package writer provides the file access layer used to lay out HDF5
// metadata and raw data: an end-of-file space allocator and a FileWriter
// that owns the underlying handle.
package writer

import (
	"fmt"
	"math"
	"sort"
)

// Block is an allocated region of the file.
type Block struct {
	Offset uint64
	Size   uint64
}

// End returns the first address past the block.
func (b Block) End() uint64 {
	return b.Offset + b.Size
}

// Allocator hands out file space at the end of the file.
//
// Space is never reclaimed. A rewritten object header gets a fresh block and
// the old one stays orphaned, which every HDF5 reader tolerates.
//
// Not safe for concurrent use.
type Allocator struct {
	blocks     []Block
	nextOffset uint64
}

// NewAllocator creates an allocator whose first block starts at
// initialOffset. For a new file this is the superblock size; for a reopened
// file it is the end-of-file address recorded in the superblock.
func NewAllocator(initialOffset uint64) *Allocator {
	return &Allocator{
		blocks:     make([]Block, 0, 8),
		nextOffset: initialOffset,
	}
}

// Allocate reserves size bytes at the current end of file and returns the
// block's address.
//
// Example:
//
//	addr, err := alloc.Allocate(uint64(len(header)))
//	if err != nil {
//	    return err
//	}
func (a *Allocator) Allocate(size uint64) (uint64, error) {
	if size == 0 {
		return 0, fmt.Errorf("cannot allocate zero bytes")
	}
	if a.nextOffset > math.MaxInt64-size {
		return 0, fmt.Errorf("allocation of %d bytes at %d exceeds maximum file size", size, a.nextOffset)
	}

	addr := a.nextOffset
	a.blocks = append(a.blocks, Block{Offset: addr, Size: size})
	a.nextOffset = addr + size

	return addr, nil
}

// AdvanceTo moves the end of file forward to offset. It never moves it
// back, so space already handed out stays reserved.
func (a *Allocator) AdvanceTo(offset uint64) {
	if offset > a.nextOffset {
		a.nextOffset = offset
	}
}

// EndOfFile returns the address where the next allocation will start.
func (a *Allocator) EndOfFile() uint64 {
	return a.nextOffset
}

// Allocated returns the total number of bytes handed out by this allocator.
func (a *Allocator) Allocated() uint64 {
	var total uint64
	for _, b := range a.blocks {
		total += b.Size
	}
	return total
}

// Blocks returns a copy of all blocks sorted by offset.
func (a *Allocator) Blocks() []Block {
	blocks := make([]Block, len(a.blocks))
	copy(blocks, a.blocks)

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Offset < blocks[j].Offset
	})

	return blocks
}

// ValidateNoOverlaps returns an error if any two blocks overlap.
func (a *Allocator) ValidateNoOverlaps() error {
	blocks := a.Blocks()

	for i := 0; i+1 < len(blocks); i++ {
		if blocks[i].End() > blocks[i+1].Offset {
			return fmt.Errorf("overlap detected: block at %d (size %d) overlaps block at %d",
				blocks[i].Offset, blocks[i].Size, blocks[i+1].Offset)
		}
	}

	return nil
}
