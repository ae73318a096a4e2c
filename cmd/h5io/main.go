// Package main provides the h5io command: list, print, write and hex-dump
// HDF5 files.
//
// Usage:
//
//	h5io [-log-level LEVEL] <command> [flags] <args>
//
// Commands:
//
//	ls FILE                                         list datasets
//	cat FILE NAME                                   print dataset values, one per line
//	write [-create] [-atomic] -manifest M.yaml FILE write datasets from a YAML manifest
//	hexdump [-offset N] [-length N] FILE            dump raw bytes
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/scigolib/h5io/internal/log"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// usageError marks errors caused by bad command-line input.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type command struct {
	name    string
	summary string
	run     func(args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"ls", "list datasets", runList},
	{"cat", "print dataset values", runCat},
	{"write", "write datasets from a YAML manifest", runWrite},
	{"hexdump", "dump raw bytes", runHexdump},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("h5io", flag.ContinueOnError)
	global.SetOutput(stderr)
	logLevel := global.String("log-level", "", "log level (debug, info, warn, error); defaults to $LOG_LEVEL or info")
	global.Usage = func() { printUsage(global) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if err := log.Configure(log.Config{Level: *logLevel, Output: stderr, Console: true}); err != nil {
		fmt.Fprintf(stderr, "h5io: %v\n", err)
		return exitUsage
	}

	if global.NArg() == 0 {
		printUsage(global)
		return exitUsage
	}

	name, rest := global.Arg(0), global.Args()[1:]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}

		logger := log.WithComponent("cli")
		logger.Debug().Str(log.FieldCommand, name).Strs("args", rest).Msg("running command")

		err := cmd.run(rest, stdout, stderr)
		var uerr *usageError
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, flag.ErrHelp):
			return exitOK
		case errors.As(err, &uerr):
			fmt.Fprintf(stderr, "h5io %s: %v\n", name, err)
			return exitUsage
		default:
			logger.Error().Err(err).Str(log.FieldCommand, name).Msg("command failed")
			fmt.Fprintf(stderr, "h5io %s: %v\n", name, err)
			return exitError
		}
	}

	fmt.Fprintf(stderr, "h5io: unknown command %q\n", name)
	printUsage(global)
	return exitUsage
}

func printUsage(global *flag.FlagSet) {
	w := global.Output()
	fmt.Fprintln(w, "Usage: h5io [flags] <command> [command flags] <args>")
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w, "Flags:")
	global.PrintDefaults()
}

// newFlagSet returns a subcommand flag set that reports errors instead of
// exiting.
func newFlagSet(name, args string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: h5io %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args and turns flag errors into usage errors.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usagef("%v", err)
	}
	return nil
}
