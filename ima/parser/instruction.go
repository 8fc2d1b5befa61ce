package parser

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"ima"
)

// splitArgs splits an operand list on top-level commas, respecting
// parentheses (for DADRs like `-3(SP, R4)`) and double-quoted strings
// (for WSTR).
func splitArgs(s string) []string {
	var args []string
	depth := 0
	inQuote := false
	start := 0
	runes := []rune(s)
	for i, c := range runes {
		switch {
		case c == '"':
			if inQuote && i+1 < len(runes) && runes[i+1] == '"' {
				continue
			}
			inQuote = !inQuote
		case inQuote:
			// inside a string literal, ignore structural characters
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			args = append(args, strings.TrimSpace(string(runes[start:i])))
			start = i + 1
		}
	}
	last := strings.TrimSpace(string(runes[start:]))
	if last != "" || len(args) > 0 {
		args = append(args, last)
	}
	return args
}

// parseWstrLiteral strips the surrounding quotes from a WSTR argument and
// unescapes doubled internal quotes.
func parseWstrLiteral(s string) (string, bool) {
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return "", false
	}
	body := s[1 : len(s)-1]
	return strings.ReplaceAll(body, `""`, `"`), true
}

func parseImm(s string) (uint32, error) {
	if !strings.HasPrefix(s, "#") {
		return 0, errors.Errorf("expected #N immediate, got %q", s)
	}
	n, err := strconv.ParseUint(s[1:], 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing immediate %q", s)
	}
	return uint32(n), nil
}

func needDval(op string, args []string, labels LabelMap) (ima.DVAL, error) {
	if len(args) < 1 {
		return ima.DVAL{}, errors.Errorf("%s requires a value operand", op)
	}
	return ParseDVAL(args[0], labels)
}

func needReg(op string, arg string) (ima.RegisterIndex, error) {
	idx, ok := ParseRegisterIndex(strings.TrimSpace(arg))
	if !ok {
		return 0, errors.Errorf("%s: %q is not a valid register", op, arg)
	}
	return idx, nil
}

func needDadr(op string, arg string) (ima.DADR, error) {
	d, ok := ParseDADR(strings.TrimSpace(arg))
	if !ok {
		return ima.DADR{}, errors.Errorf("%s: %q is not a valid address operand", op, arg)
	}
	return d, nil
}

// twoArg ops sharing the `dval, Rm` shape.
var dvalRegOps = map[ima.Opcode]bool{
	ima.OpLoad: true, ima.OpCmp: true, ima.OpAdd: true, ima.OpSub: true,
	ima.OpMul: true, ima.OpOpp: true, ima.OpQuo: true, ima.OpRem: true,
	ima.OpDiv: true, ima.OpFma: true, ima.OpFloat: true, ima.OpInt: true,
	ima.OpNew: true,
}

var regOnlyOps = map[ima.Opcode]bool{
	ima.OpPush: true, ima.OpPop: true, ima.OpDel: true, ima.OpShl: true, ima.OpShr: true,
	ima.OpSeq: true, ima.OpSgt: true, ima.OpSge: true, ima.OpSov: true,
	ima.OpSne: true, ima.OpSlt: true, ima.OpSle: true,
}

var branchOps = map[ima.Opcode]bool{
	ima.OpBra: true, ima.OpBeq: true, ima.OpBge: true, ima.OpBgt: true,
	ima.OpBle: true, ima.OpBlt: true, ima.OpBne: true, ima.OpBov: true, ima.OpBsr: true,
}

var impliedOps = map[ima.Opcode]bool{
	ima.OpSetRoundNearest: true, ima.OpSetRoundUpward: true,
	ima.OpSetRoundDownward: true, ima.OpSetRoundTowardZero: true,
	ima.OpRts: true, ima.OpRint: true, ima.OpRfloat: true, ima.OpRutf8: true,
	ima.OpWint: true, ima.OpWfloat: true, ima.OpWfloatx: true, ima.OpWnl: true,
	ima.OpWutf8: true, ima.OpHalt: true, ima.OpError: true, ima.OpClk: true, ima.OpSclk: true,
}

var impOps = map[ima.Opcode]bool{
	ima.OpAddsp: true, ima.OpSubsp: true, ima.OpTsto: true,
}

// ParseInstruction builds an ima.Instruction from an opcode mnemonic and
// its raw argument string (already comment/label-stripped), per the
// per-opcode arity table in SPEC_FULL.md §4.8 (grounded on the original's
// parser/instruction.rs match).
func ParseInstruction(opcodeStr, argsStr string, labels LabelMap, lineNo int) (ima.Instruction, error) {
	op, ok := ima.OpcodeFromString(strings.ToUpper(opcodeStr))
	if !ok {
		return ima.Instruction{}, errors.Errorf("unknown instruction %q", opcodeStr)
	}
	var args []string
	if strings.TrimSpace(argsStr) != "" {
		args = splitArgs(argsStr)
	}
	instr := ima.Instruction{Op: op, SrcLine: lineNo}

	switch {
	case op == ima.OpStore:
		if len(args) != 2 {
			return instr, errors.Errorf("STORE requires Rm, dadr")
		}
		reg, err := needReg("STORE", args[0])
		if err != nil {
			return instr, err
		}
		dadr, err := needDadr("STORE", args[1])
		if err != nil {
			return instr, err
		}
		instr.Reg, instr.Dadr = reg, dadr

	case op == ima.OpLea:
		if len(args) != 2 {
			return instr, errors.Errorf("LEA requires dadr, Rm")
		}
		dadr, err := needDadr("LEA", args[0])
		if err != nil {
			return instr, err
		}
		reg, err := needReg("LEA", args[1])
		if err != nil {
			return instr, err
		}
		instr.Dadr, instr.Reg = dadr, reg

	case op == ima.OpPea:
		if len(args) != 1 {
			return instr, errors.Errorf("PEA requires a dadr")
		}
		dadr, err := needDadr("PEA", args[0])
		if err != nil {
			return instr, err
		}
		instr.Dadr = dadr

	case dvalRegOps[op]:
		if len(args) != 2 {
			return instr, errors.Errorf("%s requires dval, Rm", op)
		}
		dval, err := ParseDVAL(args[0], labels)
		if err != nil {
			return instr, errors.Wrapf(err, "%s operand 1", op)
		}
		reg, err := needReg(op.String(), args[1])
		if err != nil {
			return instr, err
		}
		instr.Dval, instr.Reg = dval, reg

	case regOnlyOps[op]:
		if len(args) != 1 {
			return instr, errors.Errorf("%s requires a register", op)
		}
		reg, err := needReg(op.String(), args[0])
		if err != nil {
			return instr, err
		}
		instr.Reg = reg

	case branchOps[op]:
		if len(args) != 1 {
			return instr, errors.Errorf("%s requires a target", op)
		}
		dval, err := needDval(op.String(), args, labels)
		if err != nil {
			return instr, err
		}
		instr.Dval = dval

	case impOps[op]:
		if len(args) != 1 {
			return instr, errors.Errorf("%s requires an immediate", op)
		}
		n, err := parseImm(args[0])
		if err != nil {
			return instr, err
		}
		instr.Imm = n

	case op == ima.OpWstr:
		if len(args) != 1 {
			return instr, errors.Errorf("WSTR requires a string literal")
		}
		str, ok := parseWstrLiteral(args[0])
		if !ok {
			return instr, errors.Errorf("WSTR: %q is not a valid string literal", args[0])
		}
		instr.Str = str

	case impliedOps[op]:
		if len(args) != 0 {
			return instr, errors.Errorf("%s takes no operands", op)
		}

	default:
		return instr, errors.Errorf("instruction %q not handled by parser", opcodeStr)
	}

	return instr, nil
}
