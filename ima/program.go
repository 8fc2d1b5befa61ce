package ima

import (
	"fmt"
	"io"
)

// CodeAddr is a resolved program-counter value.
type CodeAddr = uint32

// Program is the capability boundary between the release and debug
// program representations (C8/§9 design notes): fetch, increment, and set
// the PC without the executor caring which representation backs it.
type Program interface {
	PC() CodeAddr
	Fetch() (*Instruction, bool)
	IncrementPC()
	SetPC(CodeAddr)
	Reset()
}

// ReleaseProgram is a flat instruction sequence; every index holds an
// instruction, so PC arithmetic is trivial.
type ReleaseProgram struct {
	Code []Instruction
	pc   CodeAddr
}

func NewReleaseProgram(code []Instruction) *ReleaseProgram {
	return &ReleaseProgram{Code: code}
}

func (p *ReleaseProgram) PC() CodeAddr { return p.pc }

func (p *ReleaseProgram) Fetch() (*Instruction, bool) {
	if int(p.pc) >= len(p.Code) {
		return nil, false
	}
	return &p.Code[p.pc], true
}

func (p *ReleaseProgram) IncrementPC() { p.pc++ }
func (p *ReleaseProgram) SetPC(n CodeAddr) { p.pc = n }
func (p *ReleaseProgram) Reset()          { p.pc = 0 }

// SourceLine is one line of debug-mode source: zero or more labels, an
// optional instruction, and an optional trailing comment.
type SourceLine struct {
	Labels      []string
	Instruction *Instruction
	Comment     string
}

// DebugLine pairs a SourceLine with its breakpoint flag.
type DebugLine struct {
	Line       SourceLine
	Breakpoint bool
}

// DebugProgram is the full source-line sequence kept for the stepping
// debugger: label-only and comment-only lines are retained so line numbers
// in diagnostics and breakpoints stay meaningful, but the PC always skips
// forward to the next instruction-bearing line.
type DebugProgram struct {
	Lines []DebugLine
	pc    CodeAddr
}

func NewDebugProgram(lines []SourceLine) *DebugProgram {
	p := &DebugProgram{Lines: make([]DebugLine, len(lines))}
	for i, l := range lines {
		p.Lines[i] = DebugLine{Line: l}
	}
	p.pc = p.firstInstructionLine(0)
	return p
}

func (p *DebugProgram) firstInstructionLine(from CodeAddr) CodeAddr {
	at := from
	for int(at) < len(p.Lines) && p.Lines[at].Line.Instruction == nil {
		at++
	}
	return at
}

func (p *DebugProgram) PC() CodeAddr { return p.pc }

func (p *DebugProgram) Fetch() (*Instruction, bool) {
	if int(p.pc) >= len(p.Lines) {
		return nil, false
	}
	return p.Lines[p.pc].Line.Instruction, p.Lines[p.pc].Line.Instruction != nil
}

func (p *DebugProgram) IncrementPC() { p.pc = p.firstInstructionLine(p.pc + 1) }
func (p *DebugProgram) SetPC(n CodeAddr) { p.pc = p.firstInstructionLine(n) }
func (p *DebugProgram) Reset()          { p.pc = p.firstInstructionLine(0) }

// IsBreakpoint reports whether the current PC sits on a breakpoint.
func (p *DebugProgram) IsBreakpoint() bool {
	if int(p.pc) >= len(p.Lines) {
		return false
	}
	return p.Lines[p.pc].Breakpoint
}

// SetBreakpoint and RemoveBreakpoint both walk forward from n until they
// find an instruction-bearing line, then toggle its flag. They exit
// silently if n runs past the end of the program.
func (p *DebugProgram) SetBreakpoint(n CodeAddr)    { p.toggleBreakpoint(n, true) }
func (p *DebugProgram) RemoveBreakpoint(n CodeAddr) { p.toggleBreakpoint(n, false) }

func (p *DebugProgram) toggleBreakpoint(n CodeAddr, on bool) {
	at := n
	for int(at) < len(p.Lines) {
		if p.Lines[at].Line.Instruction != nil {
			p.Lines[at].Breakpoint = on
			return
		}
		at++
	}
}

// DisplayInst writes the `s` debug command's single-line view.
func (p *DebugProgram) DisplayInst(w io.Writer) error {
	instr, ok := p.Fetch()
	if !ok {
		return nil
	}
	_, err := fmt.Fprintf(w, "%d: %s\n", p.pc, instr)
	return err
}

// DisplayProgram writes the `i`/`p`/`l N` debug command's listing: up to ten
// lines starting at the current PC, stepping by step, marking the PC row
// and breakpoints.
func (p *DebugProgram) DisplayProgram(w io.Writer, step int) error {
	if step <= 0 {
		step = 1
	}
	shown := 0
	at := int(p.pc)
	for at < len(p.Lines) && shown < 10 {
		dl := p.Lines[at]
		marker := "   "
		if CodeAddr(at) == p.pc {
			marker = "-->"
		}
		bp := "  "
		if dl.Breakpoint {
			bp = "**"
		}
		labels := ""
		for _, l := range dl.Line.Labels {
			labels += l + ": "
		}
		instrStr := ""
		if dl.Line.Instruction != nil {
			instrStr = dl.Line.Instruction.String()
		}
		comment := ""
		if dl.Line.Comment != "" {
			comment = " ; " + dl.Line.Comment
		}
		if _, err := fmt.Fprintf(w, "%s %s %d: %s%s%s\n", marker, bp, at, labels, instrStr, comment); err != nil {
			return err
		}
		shown++
		at += step
	}
	return nil
}

