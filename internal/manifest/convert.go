package manifest

import (
	"fmt"
	"strconv"

	"github.com/scigolib/h5io"
)

// convert parses values into the Go slice type matching dtype.
func convert(dtype h5io.Datatype, values Values) (any, error) {
	switch dtype {
	case h5io.Int8:
		return parseSigned[int8](values, 8)
	case h5io.Int16:
		return parseSigned[int16](values, 16)
	case h5io.Int32:
		return parseSigned[int32](values, 32)
	case h5io.Int64:
		return parseSigned[int64](values, 64)
	case h5io.Uint8:
		return parseUnsigned[uint8](values, 8)
	case h5io.Uint16:
		return parseUnsigned[uint16](values, 16)
	case h5io.Uint32:
		return parseUnsigned[uint32](values, 32)
	case h5io.Uint64:
		return parseUnsigned[uint64](values, 64)
	case h5io.Float32:
		return parseFloat[float32](values, 32)
	case h5io.Float64:
		return parseFloat[float64](values, 64)
	default:
		return nil, fmt.Errorf("unsupported type %s", dtype)
	}
}

func parseSigned[T int8 | int16 | int32 | int64](values Values, bits int) ([]T, error) {
	out := make([]T, len(values))
	for i, s := range values {
		v, err := strconv.ParseInt(s, 0, bits)
		if err != nil {
			return nil, fmt.Errorf("value %d (%q): not an int%d", i, s, bits)
		}
		out[i] = T(v)
	}
	return out, nil
}

func parseUnsigned[T uint8 | uint16 | uint32 | uint64](values Values, bits int) ([]T, error) {
	out := make([]T, len(values))
	for i, s := range values {
		v, err := strconv.ParseUint(s, 0, bits)
		if err != nil {
			return nil, fmt.Errorf("value %d (%q): not a uint%d", i, s, bits)
		}
		out[i] = T(v)
	}
	return out, nil
}

func parseFloat[T float32 | float64](values Values, bits int) ([]T, error) {
	out := make([]T, len(values))
	for i, s := range values {
		v, err := parseYAMLFloat(s, bits)
		if err != nil {
			return nil, fmt.Errorf("value %d (%q): not a float%d", i, s, bits)
		}
		out[i] = T(v)
	}
	return out, nil
}

// parseYAMLFloat accepts the YAML spellings of infinity and NaN in
// addition to Go float syntax.
func parseYAMLFloat(s string, bits int) (float64, error) {
	switch s {
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		s = "+Inf"
	case "-.inf", "-.Inf", "-.INF":
		s = "-Inf"
	case ".nan", ".NaN", ".NAN":
		s = "NaN"
	}
	return strconv.ParseFloat(s, bits)
}
