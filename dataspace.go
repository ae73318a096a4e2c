package h5io

import (
	"fmt"
	"strings"

	"github.com/scigolib/h5io/internal/core"
	"github.com/scigolib/h5io/internal/utils"
)

// MaxRank is the largest number of dimensions a dataspace may have.
const MaxRank = core.MaxRank

// Dataspace describes the shape of a dataset: a scalar or a simple
// N-dimensional array with fixed dimensions.
type Dataspace struct {
	dims     []uint64
	elements uint64
	closed   bool
}

// ScalarSpace returns a rank-0 dataspace holding one element.
func ScalarSpace() *Dataspace {
	return &Dataspace{elements: 1}
}

// SimpleSpace returns a dataspace with the given dimensions in row-major
// order. At least one and at most MaxRank dimensions are required; every
// dimension must be positive.
//
// Example:
//
//	space, err := h5io.SimpleSpace(3, 4) // 3x4 matrix
//	if err != nil {
//	    return err
//	}
//	defer space.Close()
func SimpleSpace(dims ...uint64) (*Dataspace, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: simple dataspace needs at least one dimension (use ScalarSpace)", ErrInvalidSpace)
	}
	if len(dims) > MaxRank {
		return nil, fmt.Errorf("%w: rank %d exceeds maximum %d", ErrInvalidSpace, len(dims), MaxRank)
	}

	n, err := utils.ElementCount(dims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpace, err)
	}

	return &Dataspace{
		dims:     append([]uint64(nil), dims...),
		elements: n,
	}, nil
}

// newSpace builds a dataspace from dims read from a file; empty dims mean
// scalar.
func newSpace(dims []uint64) (*Dataspace, error) {
	if len(dims) == 0 {
		return ScalarSpace(), nil
	}
	return SimpleSpace(dims...)
}

// Rank returns the number of dimensions, 0 for a scalar.
func (s *Dataspace) Rank() int {
	return len(s.dims)
}

// Dims returns a copy of the dimensions. A scalar has none.
func (s *Dataspace) Dims() []uint64 {
	return append([]uint64(nil), s.dims...)
}

// Elements returns the number of elements.
func (s *Dataspace) Elements() uint64 {
	return s.elements
}

// IsScalar reports whether the dataspace is rank 0.
func (s *Dataspace) IsScalar() bool {
	return len(s.dims) == 0
}

// String returns "scalar" or the dimensions joined by "x", e.g. "3x4".
func (s *Dataspace) String() string {
	if s.IsScalar() {
		return "scalar"
	}
	parts := make([]string, len(s.dims))
	for i, d := range s.dims {
		parts[i] = fmt.Sprint(d)
	}
	return strings.Join(parts, "x")
}

// Close releases the dataspace. Closing twice is a no-op; a closed
// dataspace cannot be used to create datasets.
func (s *Dataspace) Close() error {
	s.closed = true
	return nil
}
