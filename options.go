package h5io

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Mode selects how Open obtains the file.
type Mode int

const (
	// ModeReadOnly opens an existing file for reading.
	ModeReadOnly Mode = iota

	// ModeReadWrite opens an existing file for reading and appending datasets.
	ModeReadWrite

	// ModeTruncate creates a new file, overwriting any existing one.
	ModeTruncate

	// ModeExclusive creates a new file, failing if it already exists.
	ModeExclusive
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeReadOnly:
		return "read-only"
	case ModeReadWrite:
		return "read-write"
	case ModeTruncate:
		return "truncate"
	case ModeExclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) creates() bool {
	return m == ModeTruncate || m == ModeExclusive
}

// FileOption configures Open and Create.
type FileOption func(*fileConfig)

type fileConfig struct {
	logger zerolog.Logger
	atomic bool
}

func defaultFileConfig() *fileConfig {
	return &fileConfig{logger: zerolog.Nop()}
}

// WithLogger sets the logger used for debug events and cleanup warnings.
// The default discards everything.
func WithLogger(logger zerolog.Logger) FileOption {
	return func(cfg *fileConfig) {
		cfg.logger = logger
	}
}

// WithAtomicCreate makes a newly created file appear at its path only when
// Close succeeds. Until then all writes go to a temporary file in the same
// directory, and a failed or abandoned creation leaves any existing file
// untouched.
//
// Only valid with ModeTruncate and ModeExclusive. Not available on Windows.
//
// Example:
//
//	f, err := h5io.Create("results.h5", h5io.WithAtomicCreate())
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
func WithAtomicCreate() FileOption {
	return func(cfg *fileConfig) {
		cfg.atomic = true
	}
}
