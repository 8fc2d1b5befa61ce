package parser_test

import (
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

var arithmeticSource = `
LOAD #3, R1
LOAD #4, R2
ADD R2, R1
WINT
WNL
HALT
`

func TestParseProducesExpectedOpcodes(t *testing.T) {
	code, err := parser.Parse(arithmeticSource)
	assert(t, err == nil, "parse error: %s", err)
	want := []ima.Opcode{ima.OpLoad, ima.OpLoad, ima.OpAdd, ima.OpWint, ima.OpWnl, ima.OpHalt}
	assert(t, len(code) == len(want), "expected %d instructions, got %d", len(want), len(code))
	for i, op := range want {
		assert(t, code[i].Op == op, "instruction %d: expected %s, got %s", i, op, code[i].Op)
	}
}

// TestParseIsLeftInverseOfDisplay backs testable property 1: reparsing a
// program's own stringified instruction stream yields an equivalent stream,
// for syntax that round-trips through Instruction.String() (labels are
// display-erased, so this is checked on a label-free program).
func TestParseIsLeftInverseOfDisplay(t *testing.T) {
	code, err := parser.Parse(arithmeticSource)
	assert(t, err == nil, "parse error: %s", err)

	var sb strings.Builder
	for _, instr := range code {
		sb.WriteString(instr.String())
		sb.WriteString("\n")
	}

	reparsed, err := parser.Parse(sb.String())
	assert(t, err == nil, "reparse error: %s", err)
	assert(t, len(reparsed) == len(code), "instruction count changed: %d vs %d", len(code), len(reparsed))
	for i := range code {
		assert(t, reparsed[i].Op == code[i].Op, "instruction %d: opcode changed across round-trip", i)
		assert(t, reparsed[i].Dval == code[i].Dval, "instruction %d: dval changed across round-trip", i)
		assert(t, reparsed[i].Reg == code[i].Reg, "instruction %d: register changed across round-trip", i)
	}
}

func TestParseDebugKeepsCommentAndLabelOnlyLines(t *testing.T) {
	source := "; a comment\nstart:\nLOAD #1, R0 ; load one\nHALT\n"
	lines, err := parser.ParseDebug(source)
	assert(t, err == nil, "parse error: %s", err)
	assert(t, len(lines) == 5, "expected 5 source lines (including the trailing blank), got %d", len(lines))
	assert(t, lines[0].Comment == "a comment", "expected comment preserved, got %q", lines[0].Comment)
	assert(t, lines[0].Instruction == nil, "comment-only line should have no instruction")
	assert(t, len(lines[1].Labels) == 1 && lines[1].Labels[0] == "start", "expected label 'start', got %v", lines[1].Labels)
	assert(t, lines[1].Instruction == nil, "label-only line should have no instruction")
	assert(t, lines[2].Instruction != nil && lines[2].Instruction.Op == ima.OpLoad, "expected LOAD instruction on line 3")
	assert(t, lines[2].Comment == "load one", "expected trailing comment preserved, got %q", lines[2].Comment)
}

func TestScanLabelsRejectsDuplicates(t *testing.T) {
	source := "a: LOAD #1, R0\na: LOAD #2, R0\n"
	_, err := parser.Parse(source)
	assert(t, err != nil, "expected a duplicate-label error")
	assert(t, strings.Contains(err.Error(), "duplicate label"), "unexpected error: %s", err)
}

func TestParseDADRForms(t *testing.T) {
	d, ok := parser.ParseDADR("-3(SP, R4)")
	assert(t, ok, "expected -3(SP, R4) to parse")
	assert(t, d.Displaced, "expected displaced DADR")
	assert(t, d.Base.Kind == ima.BaseSP, "expected SP base")
	assert(t, d.ImmOffset == -3, "expected immediate offset -3, got %d", d.ImmOffset)

	d2, ok := parser.ParseDADR("0(R3)")
	assert(t, ok, "expected 0(R3) to parse")
	assert(t, !d2.Displaced, "expected plain DADR")
	assert(t, d2.Base.Kind == ima.BaseR && d2.Base.Index == 3, "expected base register R3")
}

func TestParseImmediateForms(t *testing.T) {
	w, ok := parser.ParseImmediate("#null")
	assert(t, ok, "expected #null to parse")
	assert(t, w.Kind == ima.KindMemAddr, "expected a MemAddr word for #null")

	w, ok = parser.ParseImmediate("#-7")
	assert(t, ok, "expected #-7 to parse")
	assert(t, w.Kind == ima.KindInt && w.Int == -7, "expected Int(-7), got %v", w)

	w, ok = parser.ParseImmediate("#3.5")
	assert(t, ok, "expected #3.5 to parse")
	assert(t, w.Kind == ima.KindFloat && w.Float == 3.5, "expected Float(3.5), got %v", w)
}
