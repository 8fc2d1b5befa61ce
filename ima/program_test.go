package ima_test

import (
	"testing"

	"ima"
)

func TestDebugProgramSkipsToNextInstruction(t *testing.T) {
	instr := ima.Instruction{Op: ima.OpHalt}
	lines := []ima.SourceLine{
		{Comment: "just a comment"},
		{Labels: []string{"start"}},
		{Instruction: &instr},
	}
	p := ima.NewDebugProgram(lines)
	assert(t, p.PC() == 2, "expected PC to skip forward to the first instruction-bearing line, got %d", p.PC())

	fetched, ok := p.Fetch()
	assert(t, ok, "expected Fetch to find an instruction")
	assert(t, fetched.Op == ima.OpHalt, "expected HALT, got %s", fetched.Op)
}

func TestDebugProgramBreakpointToggle(t *testing.T) {
	instr := ima.Instruction{Op: ima.OpHalt}
	lines := []ima.SourceLine{{Instruction: &instr}}
	p := ima.NewDebugProgram(lines)

	assert(t, !p.IsBreakpoint(), "expected no breakpoint initially")
	p.SetBreakpoint(0)
	assert(t, p.IsBreakpoint(), "expected breakpoint to be set")
	p.RemoveBreakpoint(0)
	assert(t, !p.IsBreakpoint(), "expected breakpoint to be cleared")
}

func TestReleaseProgramFetchPastEndFails(t *testing.T) {
	p := ima.NewReleaseProgram(nil)
	_, ok := p.Fetch()
	assert(t, !ok, "expected Fetch on an empty program to fail")
}
