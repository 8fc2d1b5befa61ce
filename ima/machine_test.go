package ima_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"ima"
	"ima/parser"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func runRelease(t *testing.T, source string, opts ima.Options, stdin string) (*ima.Machine, string, error) {
	t.Helper()
	code, err := parser.Parse(source)
	assert(t, err == nil, "parse error: %s", err)

	var out bytes.Buffer
	m := ima.NewMachine(ima.NewReleaseProgram(code), opts, strings.NewReader(stdin), &out)
	err = m.Run()
	return m, out.String(), err
}

var helloSource = `
WSTR "Hello, World!"
HALT
`

func TestHelloWorld(t *testing.T) {
	m, out, err := runRelease(t, helloSource, ima.DefaultOptions(), "")
	assert(t, err == nil, "run error: %s", err)
	assert(t, out == "Hello, World!", "unexpected output: %q", out)
	assert(t, m.ControlFlow == ima.Halt, "expected Halt, got %v", m.ControlFlow)
	assert(t, m.Cycles == 43, "expected 43 cycles, got %d", m.Cycles)
}

var arithmeticSource = `
LOAD #3, R1
LOAD #4, R2
ADD R2, R1
WINT
WNL
HALT
`

func TestArithmetic(t *testing.T) {
	_, out, err := runRelease(t, arithmeticSource, ima.DefaultOptions(), "")
	assert(t, err == nil, "run error: %s", err)
	assert(t, out == "7\n", "unexpected output: %q", out)
}

var loopSource = `
LOAD #3, R1
loop: WINT
SUB #1, R1
CMP #-1, R1
BNE loop
HALT
`

func TestLoopNoNewlines(t *testing.T) {
	_, out, err := runRelease(t, loopSource, ima.DefaultOptions(), "")
	assert(t, err == nil, "run error: %s", err)
	assert(t, out == "3210", "unexpected output: %q", out)
}

func TestLoopWithNewlines(t *testing.T) {
	opts := ima.DefaultOptions()
	opts.WriteNewLines = true
	_, out, err := runRelease(t, loopSource, opts, "")
	assert(t, err == nil, "run error: %s", err)
	assert(t, out == "3\n2\n1\n0\n", "unexpected output: %q", out)
}

var callSource = `
LOAD #10, R0
LOAD #5, R1
PUSH R1
BSR sub
SUBSP #1
HALT
sub: LOAD -2(LB), R2
ADD R2, R0
RTS
`

func TestCallReturn(t *testing.T) {
	m, _, err := runRelease(t, callSource, ima.DefaultOptions(), "")
	assert(t, err == nil, "run error: %s", err)
	assert(t, m.Registers.Get(0).Int == 15, "expected R0=15, got %v", m.Registers.Get(0))
	assert(t, m.SP == 0, "expected SP restored to 0, got %d", m.SP)
	assert(t, m.LB == 0, "expected LB restored to 0, got %d", m.LB)
}

var heapSource = `
LOAD #5, R2
NEW R2, R3
LOAD #42, R4
STORE R4, 0(R3)
LOAD 0(R3), R5
DEL R3
LOAD R5, R1
WINT
HALT
`

func TestHeapAllocateStoreFree(t *testing.T) {
	_, out, err := runRelease(t, heapSource, ima.DefaultOptions(), "")
	assert(t, err == nil, "run error: %s", err)
	assert(t, out == "42", "unexpected output: %q", out)
}

var nullDerefSource = `
LOAD #null, R1
LOAD 0(R1), R2
`

func TestNullDereferenceIsFatal(t *testing.T) {
	_, _, err := runRelease(t, nullDerefSource, ima.DefaultOptions(), "")
	assert(t, err != nil, "expected an execution error")
	assert(t, strings.Contains(err.Error(), "Invalid memory address"), "unexpected error: %s", err)
	assert(t, strings.Contains(err.Error(), "Null"), "expected Null in error: %s", err)
}

var pushPopSource = `
LOAD #7, R1
PUSH R1
POP R2
HALT
`

func TestPushPopRoundTrip(t *testing.T) {
	m, _, err := runRelease(t, pushPopSource, ima.DefaultOptions(), "")
	assert(t, err == nil, "run error: %s", err)
	assert(t, m.Registers.Get(1).Int == m.Registers.Get(2).Int, "push/pop did not round-trip: R1=%v R2=%v",
		m.Registers.Get(1), m.Registers.Get(2))
	assert(t, m.SP == 0, "expected SP restored to 0 after balanced push/pop, got %d", m.SP)
}

// TestCycleCostIsAlwaysPositive backs property 8 (cycle monotonicity): the
// counter only ever advances by Cost(instr, flags), so as long as Cost never
// returns zero or negative for any instruction/flag combination, Cycles is
// necessarily non-decreasing step over step.
func TestCycleCostIsAlwaysPositive(t *testing.T) {
	code, err := parser.Parse(loopSource + arithmeticSource + callSource)
	assert(t, err == nil, "parse error: %s", err)

	var allFlags []ima.Flags
	for _, eq := range []bool{true, false} {
		for _, ov := range []bool{true, false} {
			f := ima.NewFlags()
			f.EQ, f.NE = eq, !eq
			f.OV = ov
			allFlags = append(allFlags, f)
		}
	}

	for _, instr := range code {
		for _, flags := range allFlags {
			cost := ima.Cost(instr, flags)
			assert(t, cost > 0, "non-positive cost %d for %s under flags %s", cost, instr, flags.Display())
		}
	}
}
