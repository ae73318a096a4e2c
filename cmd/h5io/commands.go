package main

import (
	"fmt"
	"io"
	"reflect"
	"text/tabwriter"

	"github.com/scigolib/h5io"
	"github.com/scigolib/h5io/internal/log"
	"github.com/scigolib/h5io/internal/manifest"
)

func openOptions() []h5io.FileOption {
	return []h5io.FileOption{h5io.WithLogger(log.WithComponent("h5io"))}
}

func runList(args []string, stdout, stderr io.Writer) (err error) {
	fs := newFlagSet("ls", "FILE", stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected FILE, got %d arguments", fs.NArg())
	}

	f, err := h5io.Open(fs.Arg(0), h5io.ModeReadOnly, openOptions()...)
	if err != nil {
		return err
	}
	defer closeInto(&err, f.Close)

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tSHAPE")
	for _, name := range f.Datasets() {
		ds, err := f.OpenDataset(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, ds.Datatype(), ds.Dataspace())
		if err := ds.Close(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runCat(args []string, stdout, stderr io.Writer) (err error) {
	fs := newFlagSet("cat", "FILE NAME", stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return usagef("expected FILE NAME, got %d arguments", fs.NArg())
	}

	f, err := h5io.Open(fs.Arg(0), h5io.ModeReadOnly, openOptions()...)
	if err != nil {
		return err
	}
	defer closeInto(&err, f.Close)

	ds, err := f.OpenDataset(fs.Arg(1))
	if err != nil {
		return err
	}
	defer closeInto(&err, ds.Close)

	data, err := ds.ReadAll()
	if err != nil {
		return err
	}

	values := reflect.ValueOf(data)
	for i := 0; i < values.Len(); i++ {
		if _, err := fmt.Fprintln(stdout, values.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func runWrite(args []string, _, stderr io.Writer) (err error) {
	fs := newFlagSet("write", "FILE", stderr)
	create := fs.Bool("create", false, "create the file, replacing any existing one")
	atomic := fs.Bool("atomic", false, "with -create: publish the file only if every dataset is written")
	manifestPath := fs.String("manifest", "", "YAML manifest describing the datasets (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected FILE, got %d arguments", fs.NArg())
	}
	if *manifestPath == "" {
		return usagef("-manifest is required")
	}
	if *atomic && !*create {
		return usagef("-atomic requires -create")
	}

	m, err := manifest.Load(*manifestPath)
	if err != nil {
		return err
	}

	logger := log.WithComponent("cli")
	filename := fs.Arg(0)

	opts := openOptions()
	mode := h5io.ModeReadWrite
	if *create {
		mode = h5io.ModeTruncate
		if *atomic {
			opts = append(opts, h5io.WithAtomicCreate())
		}
	}

	f, err := h5io.Open(filename, mode, opts...)
	if err != nil {
		return err
	}

	// A manifest is applied completely or not at all.
	if err := m.Apply(f); err != nil {
		if aerr := f.Abort(); aerr != nil {
			logger.Warn().Err(aerr).Str(log.FieldFile, filename).Msg("failed to abort after write error")
		}
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info().
		Str(log.FieldFile, filename).
		Str(log.FieldManifest, *manifestPath).
		Int("datasets", len(m.Datasets)).
		Msg("wrote manifest")
	return nil
}

// closeInto runs closeFn and keeps its error if no earlier one occurred.
func closeInto(err *error, closeFn func() error) {
	if cerr := closeFn(); cerr != nil && *err == nil {
		*err = cerr
	}
}
