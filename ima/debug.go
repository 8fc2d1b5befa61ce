package ima

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kr/pretty"
)

// ErrQuit is returned by RunDebugREPL when the user issues the `q` command.
var ErrQuit = fmt.Errorf("quit")

// RunDebugREPL drives the single-step debugger described in SPEC_FULL.md
// §4.9/§6: read one command line, dispatch on its first character, loop.
// Execution errors during `c`/`d`/`x` are rendered to out and the REPL
// continues rather than terminating, unlike release mode, where any
// execution error ends the run.
func RunDebugREPL(m *Machine, in io.Reader, out io.Writer) error {
	dbg, ok := m.Program.(*DebugProgram)
	if !ok {
		return fmt.Errorf("debug REPL requires a DebugProgram")
	}
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "(ima) ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return DebugIoError{Err: err}
			}
			return nil
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd := line[0]
		arg := strings.TrimSpace(line[1:])

		switch cmd {
		case 'd':
			m.Reset()
			runToBreakpoint(m, out)
		case 'c':
			runToBreakpoint(m, out)
		case 'a':
			n, ok := parseLineArg(arg, out)
			if ok {
				dbg.SetBreakpoint(CodeAddr(n))
			}
		case 'e':
			n, ok := parseLineArg(arg, out)
			if ok {
				dbg.RemoveBreakpoint(CodeAddr(n))
			}
		case 's':
			if err := dbg.DisplayInst(out); err != nil {
				return DebugIoError{Err: err}
			}
		case 'x':
			singleStep(m, out)
		case 'i', 'p':
			if err := dbg.DisplayProgram(out, 1); err != nil {
				return DebugIoError{Err: err}
			}
		case 'l':
			step, ok := parseLineArg(arg, out)
			if !ok {
				continue
			}
			if err := dbg.DisplayProgram(out, step); err != nil {
				return DebugIoError{Err: err}
			}
		case 'r':
			displayRegisters(m, out)
		case 'm':
			a, b, ok := parseTwoArgs(arg, out)
			if ok {
				if err := m.Memory.DisplayStack(a, b, out, m.SP); err != nil {
					return DebugIoError{Err: err}
				}
			}
		case 'b':
			n, ok := parseLineArg(arg, out)
			if !ok {
				continue
			}
			reg := RegisterIndex(n)
			ptrWord := m.Registers.Get(reg)
			if ptrWord.Kind != KindMemAddr || ptrWord.Ptr.Kind != PointerHeap {
				fmt.Fprintf(out, "R%d does not hold a heap pointer\n", n)
				continue
			}
			if err := m.Memory.DisplayBlock(ptrWord.Ptr.Value, out, n); err != nil {
				return DebugIoError{Err: err}
			}
		case 'q':
			return ErrQuit
		default:
			fmt.Fprintf(out, "unrecognized command %q\n", line)
		}
	}
}

func parseLineArg(arg string, out io.Writer) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(out, "expected an integer argument, got %q\n", arg)
		return 0, false
	}
	return n, true
}

func parseTwoArgs(arg string, out io.Writer) (uint32, uint32, bool) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		fmt.Fprintf(out, "expected two integer arguments, got %q\n", arg)
		return 0, 0, false
	}
	a, errA := strconv.ParseUint(fields[0], 10, 32)
	b, errB := strconv.ParseUint(fields[1], 10, 32)
	if errA != nil || errB != nil {
		fmt.Fprintf(out, "expected two integer arguments, got %q\n", arg)
		return 0, 0, false
	}
	return uint32(a), uint32(b), true
}

func runToBreakpoint(m *Machine, out io.Writer) {
	if err := m.RunUntilBreakpoint(); err != nil {
		Log.Warn(err.Error())
		fmt.Fprintf(out, "%s\n", err)
	}
}

func singleStep(m *Machine, out io.Writer) {
	instr, ok := m.Program.Fetch()
	if !ok {
		fmt.Fprintf(out, "%s\n", ErrNoMoreInstructions)
		return
	}
	m.Program.IncrementPC()
	if err := m.step(instr); err != nil {
		Log.Warn(err.Error())
		fmt.Fprintf(out, "%s\n", err)
	}
}

// displayRegisters renders the `r` command's combined dump: the register
// file in its native two-column layout, followed by a pretty-printed
// summary of the scalar machine state (SP/GB/LB/flags/cycles) that doesn't
// warrant its own bespoke formatter.
func displayRegisters(m *Machine, out io.Writer) {
	if err := m.Registers.Display(out); err != nil {
		fmt.Fprintf(out, "error writing registers: %s\n", err)
		return
	}
	fmt.Fprintf(out, "flags: %s\n", m.Flags.Display())
	pretty.Fprintf(out, "SP=%v GB=%v LB=%v cycles=%v\n", m.SP, m.GB, m.LB, m.Cycles)
}
