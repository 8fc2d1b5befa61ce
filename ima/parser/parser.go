package parser

import (
	"strings"

	"github.com/pkg/errors"

	"ima"
)

// splitOpcodeArgs splits an Assembly token's text into its opcode mnemonic
// and the raw (unsplit) argument string.
func splitOpcodeArgs(text string) (opcode, args string) {
	text = strings.TrimSpace(text)
	i := strings.IndexAny(text, " \t")
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i+1:])
}

// Parse lexes and parses release-mode assembly source into the flat
// instruction sequence a ReleaseProgram runs, per SPEC_FULL.md §4.8's
// two-pass design: lex every line, scan labels, then parse only the lines
// that carry assembly text.
func Parse(source string) ([]ima.Instruction, error) {
	rawLines := strings.Split(source, "\n")
	lines := make([][]Token, len(rawLines))
	for i, raw := range rawLines {
		lines[i] = LexLine(raw)
	}

	labels, err := ScanLabels(lines, false)
	if err != nil {
		return nil, err
	}

	var out []ima.Instruction
	for i, toks := range lines {
		for _, t := range toks {
			if t.Kind != TokAssembly {
				continue
			}
			opcodeStr, argsStr := splitOpcodeArgs(t.Text)
			instr, err := ParseInstruction(opcodeStr, argsStr, labels, i+1)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", i+1)
			}
			out = append(out, instr)
		}
	}
	return out, nil
}

// ParseDebug lexes and parses source into one ima.SourceLine per input
// line, preserving label-only and comment-only lines so the debugger can
// single-step through source the way it reads on the page.
func ParseDebug(source string) ([]ima.SourceLine, error) {
	rawLines := strings.Split(source, "\n")
	lines := make([][]Token, len(rawLines))
	for i, raw := range rawLines {
		lines[i] = LexLine(raw)
	}

	labels, err := ScanLabels(lines, true)
	if err != nil {
		return nil, err
	}

	out := make([]ima.SourceLine, len(lines))
	for i, toks := range lines {
		var sl ima.SourceLine
		for _, t := range toks {
			switch t.Kind {
			case TokLabel:
				sl.Labels = append(sl.Labels, t.Text)
			case TokComment:
				sl.Comment = t.Text
			case TokAssembly:
				opcodeStr, argsStr := splitOpcodeArgs(t.Text)
				instr, err := ParseInstruction(opcodeStr, argsStr, labels, i+1)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", i+1)
				}
				sl.Instruction = &instr
			}
		}
		out[i] = sl
	}
	return out, nil
}
