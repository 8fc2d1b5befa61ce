package ima

import (
	"bufio"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Log is the package-level logger for ambient machine lifecycle events
// (construction, termination, cycle-count summaries). The main package may
// swap its formatter/output but should not replace the logger itself.
var Log = logrus.New()

// ControlFlow is the machine's absorbing state machine: Continue is the
// only non-terminal state; Halt and Error are both reached only via their
// respective opcodes and are undone only by Reset.
type ControlFlow int

const (
	Continue ControlFlow = iota
	Halt
	Error
)

// Options configures a Machine at construction time, matching the CLI
// surface in spec.md §6.
type Options struct {
	Path          string
	StackSize     int
	HeapSize      int
	WriteNewLines bool
	Debug         bool
	Stats         bool
}

// DefaultOptions mirrors the original's default stack/heap sizing.
func DefaultOptions() Options {
	return Options{StackSize: 10000, HeapSize: 10000}
}

// Validate reports whether o carries everything required to run: right now
// that's just the positional source file argument.
func (o Options) Validate() error {
	if o.Path == "" {
		return errors.New("no source file given")
	}
	return nil
}

// Machine is the IMA interpreter (C10): registers, flags, memory, and a
// Program, plus the bookkeeping the machine loop needs (cycle counter,
// start time, write-mode).
type Machine struct {
	Registers *Registers
	Flags     Flags
	Memory    *Memory
	Program   Program

	SP, GB, LB StackAddr

	ControlFlow ControlFlow
	Cycles      uint64

	WriteNewLines bool
	startTime     time.Time

	Stdin  *bufio.Reader
	Stdout *bufio.Writer
}

// NewMachine constructs a Machine ready to run prog, with the given
// options and I/O streams.
func NewMachine(prog Program, opts Options, stdin io.Reader, stdout io.Writer) *Machine {
	m := &Machine{
		Registers:     NewRegisters(),
		Flags:         NewFlags(),
		Memory:        NewMemory(opts.StackSize, opts.HeapSize),
		Program:       prog,
		WriteNewLines: opts.WriteNewLines,
		startTime:     time.Now(),
		Stdin:         bufio.NewReader(stdin),
		Stdout:        bufio.NewWriter(stdout),
	}
	Log.WithFields(logrus.Fields{
		"stack_size": opts.StackSize,
		"heap_size":  opts.HeapSize,
	}).Info("machine constructed")
	return m
}

// Reset returns the machine to its initial state: Continue control flow,
// cleared registers/memory/flags, SP/GB/LB zeroed, program PC rewound.
func (m *Machine) Reset() {
	m.Registers = NewRegisters()
	m.Flags = NewFlags()
	m.Memory.Clear()
	m.SP, m.GB, m.LB = 0, 0, 0
	m.ControlFlow = Continue
	m.Cycles = 0
	m.startTime = time.Now()
	m.Program.Reset()
}

// Run executes the release-mode fetch-decode-execute loop until Halt,
// Error, or a NoMoreInstructions failure.
func (m *Machine) Run() error {
	for {
		instr, ok := m.Program.Fetch()
		if !ok {
			return ErrNoMoreInstructions
		}
		m.Program.IncrementPC()
		if err := m.step(instr); err != nil {
			return err
		}
		switch m.ControlFlow {
		case Halt, Error:
			return nil
		}
	}
}

// RunUntilBreakpoint executes instructions until the control flow leaves
// Continue or the PC lands on a breakpoint, whichever first. A breakpoint
// present on the very first instruction is ignored so repeated calls (the
// `c` REPL command) always make progress.
func (m *Machine) RunUntilBreakpoint() error {
	dbg, isDebug := m.Program.(*DebugProgram)
	for {
		instr, ok := m.Program.Fetch()
		if !ok {
			return ErrNoMoreInstructions
		}
		m.Program.IncrementPC()
		if err := m.step(instr); err != nil {
			return err
		}
		if m.ControlFlow != Continue {
			return nil
		}
		if isDebug && dbg.IsBreakpoint() {
			return nil
		}
	}
}

// step fetches operand-resolution cost before execution (so cost and
// branch decisions both see the pre-execution flag state), dispatches to
// Execute, and accumulates the cycle counter regardless of outcome.
func (m *Machine) step(instr *Instruction) error {
	pre := m.Flags
	m.Cycles += uint64(Cost(*instr, pre))
	err := m.Execute(instr)
	if err != nil {
		if ee, ok := err.(*ExecutionError); ok {
			ee.Line = instr.SrcLine
			ee.Instruction = instr
		}
	}
	return err
}

// cp installs the comparison flags for a just-produced/just-read value,
// the "CP" shorthand used throughout spec.md §4.6: int/float compare
// against zero, pointers compare against Null.
func (m *Machine) cp(v Word) {
	switch v.Kind {
	case KindInt:
		m.Flags.SetCmpInt(0, v.Int)
	case KindFloat:
		m.Flags.SetCmpFloat(0, v.Float)
	case KindMemAddr:
		m.Flags.SetCmpPtr(NullPtr(), v.Ptr)
	}
}

