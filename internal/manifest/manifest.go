// Package manifest loads YAML descriptions of datasets to write into an
// HDF5 file.
//
//	datasets:
//	  - name: temperature
//	    type: float64
//	    dims: [2, 3]
//	    data: [1.5, 2, 3, 4, 5, 6]
//	  - name: step
//	    type: int32
//	    data: 42
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scigolib/h5io"
	"github.com/scigolib/h5io/internal/utils"
)

// Manifest is a list of datasets to create.
type Manifest struct {
	Datasets []Entry `yaml:"datasets"`
}

// Entry describes one dataset. Without dims the dataset is scalar.
type Entry struct {
	Name string   `yaml:"name"`
	Type string   `yaml:"type"`
	Dims []uint64 `yaml:"dims,omitempty"`
	Data Values   `yaml:"data"`
}

// Values holds the literal text of each data element so integers keep
// full 64-bit precision until the dataset type is known.
type Values []string

// UnmarshalYAML accepts a sequence of scalars or a single scalar.
func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = Values{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(Values, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: data elements must be scalars", item.Line)
			}
			out = append(out, item.Value)
		}
		*v = out
		return nil
	default:
		return fmt.Errorf("line %d: data must be a scalar or a list", node.Line)
	}
}

// Load reads and validates a manifest file. Only .yaml and .yml files are
// accepted.
func Load(path string) (*Manifest, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported manifest format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- manifest paths are provided by the operator via CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest with strict field checking and validates it.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest is empty")
		}
		return nil, fmt.Errorf("strict manifest parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("manifest contains multiple documents or trailing content")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every entry: a usable name, a known type, dims that
// match the number of values, and values that fit the type.
func (m *Manifest) Validate() error {
	v := &validator{}

	if len(m.Datasets) == 0 {
		v.add("datasets", "at least one dataset is required")
	}

	seen := make(map[string]int, len(m.Datasets))
	for i, e := range m.Datasets {
		field := fmt.Sprintf("datasets[%d]", i)

		name := strings.TrimPrefix(e.Name, "/")
		switch {
		case name == "":
			v.add(field+".name", "must not be empty")
		case strings.Contains(name, "/"):
			v.add(field+".name", fmt.Sprintf("%q: nested groups are not supported", e.Name))
		default:
			if j, dup := seen[name]; dup {
				v.add(field+".name", fmt.Sprintf("%q already used by datasets[%d]", e.Name, j))
			}
			seen[name] = i
		}

		dtype, err := h5io.ParseDatatype(e.Type)
		if err != nil {
			v.add(field+".type", fmt.Sprintf("unknown type %q", e.Type))
			continue
		}

		if len(e.Dims) > h5io.MaxRank {
			v.add(field+".dims", fmt.Sprintf("rank %d exceeds maximum %d", len(e.Dims), h5io.MaxRank))
			continue
		}
		want, err := utils.ElementCount(e.Dims)
		if err != nil {
			v.add(field+".dims", err.Error())
			continue
		}
		if uint64(len(e.Data)) != want {
			v.add(field+".data", fmt.Sprintf("has %d values, dims %v need %d", len(e.Data), e.Dims, want))
			continue
		}

		if _, err := convert(dtype, e.Data); err != nil {
			v.add(field+".data", err.Error())
		}
	}

	return v.err()
}

// Apply creates and writes every dataset of m in f, stopping at the first
// failure.
func (m *Manifest) Apply(f *h5io.File) error {
	for i, e := range m.Datasets {
		if err := apply(f, e); err != nil {
			return fmt.Errorf("datasets[%d] %q: %w", i, e.Name, err)
		}
	}
	return nil
}

func apply(f *h5io.File, e Entry) (err error) {
	dtype, err := h5io.ParseDatatype(e.Type)
	if err != nil {
		return err
	}
	data, err := convert(dtype, e.Data)
	if err != nil {
		return err
	}

	var space *h5io.Dataspace
	if len(e.Dims) == 0 {
		space = h5io.ScalarSpace()
	} else if space, err = h5io.SimpleSpace(e.Dims...); err != nil {
		return err
	}
	defer space.Close()

	ds, err := f.CreateDataset(e.Name, dtype, space)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return ds.Write(data)
}
