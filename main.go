// Command ima runs IMA assembly programs: fetch-decode-execute in release
// mode, or drive the single-step REPL in debug mode.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"ima"
	"ima/parser"
)

func main() {
	os.Exit(run())
}

func run() int {
	debug := flag.Bool("d", false, "run under the single-step debugger")
	stats := flag.Bool("s", false, "print cycle count on exit")
	writeNewLines := flag.Bool("r", false, "emit a trailing newline after WINT/WFLOAT/WSTR")
	stackSize := flag.Int("p", 10000, "stack size in words")
	heapSize := flag.Int("t", 10000, "heap size in words")
	flag.Parse()

	ima.Log.SetLevel(logrus.InfoLevel)

	opts := ima.Options{
		Path:          flag.Arg(0),
		StackSize:     *stackSize,
		HeapSize:      *heapSize,
		WriteNewLines: *writeNewLines,
		Debug:         *debug,
		Stats:         *stats,
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "usage: ima [-d] [-s] [-r] [-p N] [-t N] <file.ima>")
		return 1
	}

	ima.Log.WithFields(logrus.Fields{
		"file":           opts.Path,
		"stack_size":     opts.StackSize,
		"heap_size":      opts.HeapSize,
		"debug":          opts.Debug,
		"stats":          opts.Stats,
		"write_newlines": opts.WriteNewLines,
	}).Info("starting ima")

	source, err := os.ReadFile(opts.Path)
	if err != nil {
		msg := fmt.Sprintf("[Ima Error]: %s", err)
		ima.Log.Error(msg)
		fmt.Fprintln(os.Stderr, msg)
		return 1
	}

	var prog ima.Program
	if opts.Debug {
		lines, err := parser.ParseDebug(string(source))
		if err != nil {
			msg := fmt.Sprintf("[Parser Error]: %s", err)
			ima.Log.Error(msg)
			fmt.Fprintln(os.Stderr, msg)
			return 1
		}
		prog = ima.NewDebugProgram(lines)
	} else {
		code, err := parser.Parse(string(source))
		if err != nil {
			msg := fmt.Sprintf("[Parser Error]: %s", err)
			ima.Log.Error(msg)
			fmt.Fprintln(os.Stderr, msg)
			return 1
		}
		prog = ima.NewReleaseProgram(code)
	}

	m := ima.NewMachine(prog, opts, os.Stdin, os.Stdout)

	if opts.Debug {
		if err := ima.RunDebugREPL(m, os.Stdin, os.Stdout); err != nil && !errors.Is(err, ima.ErrQuit) {
			ima.Log.Error(err.Error())
			fmt.Fprintf(os.Stderr, "%s\n", err)
			m.Stdout.Flush()
			return 1
		}
		m.Stdout.Flush()
		if opts.Stats {
			ima.Log.WithField("cycles", m.Cycles).Info("cycle count")
			fmt.Fprintf(os.Stdout, "cycles: %d\n", m.Cycles)
		}
		return 0
	}

	runErr := m.Run()
	m.Stdout.Flush()
	if opts.Stats {
		ima.Log.WithField("cycles", m.Cycles).Info("cycle count")
		fmt.Fprintf(os.Stdout, "cycles: %d\n", m.Cycles)
	}
	if runErr != nil {
		ima.Log.Error(runErr.Error())
		fmt.Fprintf(os.Stderr, "%s\n", runErr)
		return 1
	}
	// HALT and ERROR are both normal termination states (spec.md §6): only
	// a parser/loader/execution failure surfaced above exits non-zero.
	return 0
}
