package ima

// dadrCost and dvalCost give the operand-resolution cost component of an
// instruction's total cycle cost; the table is normative and must match
// the source values exactly.
func dadrCost(d DADR) int {
	if d.Displaced {
		return 5
	}
	return 4
}

func dvalCost(d DVAL) int {
	switch d.Kind {
	case DVALDadr:
		return dadrCost(d.Dadr)
	case DVALRegister:
		return 0
	default: // Immediate or Label
		return 2
	}
}

func condCost(taken bool) int {
	if taken {
		return 5
	}
	return 4
}

func flagCost(set bool) int {
	if set {
		return 3
	}
	return 2
}

// Cost computes the cycle cost of executing instr, given the flag state as
// it stood *before* execution (branches and set-from-flag opcodes key off
// the pre-execution flags, per spec.md §4.6/§4.9).
func Cost(instr Instruction, pre Flags) int {
	switch instr.Op {
	case OpAdd:
		return 2 + dvalCost(instr.Dval)
	case OpAddsp:
		return 4
	case OpBeq:
		return dvalCost(instr.Dval) + condCost(pre.EQ)
	case OpBge:
		return dvalCost(instr.Dval) + condCost(pre.GE)
	case OpBgt:
		return dvalCost(instr.Dval) + condCost(pre.GT)
	case OpBle:
		return dvalCost(instr.Dval) + condCost(pre.LE)
	case OpBlt:
		return dvalCost(instr.Dval) + condCost(pre.LT)
	case OpBne:
		return dvalCost(instr.Dval) + condCost(pre.NE)
	case OpBov:
		return dvalCost(instr.Dval) + condCost(pre.OV)
	case OpBra:
		return 5 + dvalCost(instr.Dval)
	case OpBsr:
		return 9 + dvalCost(instr.Dval)
	case OpClk:
		return 16
	case OpCmp:
		return 2 + dvalCost(instr.Dval)
	case OpDel:
		return 16
	case OpDiv:
		return 40 + dvalCost(instr.Dval)
	case OpError:
		return 1
	case OpFloat:
		return 4 + dvalCost(instr.Dval)
	case OpFma:
		return 21 + dvalCost(instr.Dval)
	case OpHalt:
		return 1
	case OpInt:
		return 4 + dvalCost(instr.Dval)
	case OpLea:
		return dadrCost(instr.Dadr)
	case OpLoad:
		return 2 + dvalCost(instr.Dval)
	case OpMul:
		return 20 + dvalCost(instr.Dval)
	case OpNew:
		return 16 + dvalCost(instr.Dval)
	case OpOpp:
		return 2 + dvalCost(instr.Dval)
	case OpPea:
		return 4 + dadrCost(instr.Dadr)
	case OpPop:
		return 2
	case OpPush:
		return 4
	case OpQuo:
		return 40 + dvalCost(instr.Dval)
	case OpRem:
		return 40 + dvalCost(instr.Dval)
	case OpRts:
		return 8
	case OpSeq:
		return flagCost(pre.EQ)
	case OpSetRoundDownward, OpSetRoundNearest, OpSetRoundTowardZero, OpSetRoundUpward:
		return 20
	case OpSge:
		return flagCost(pre.GE)
	case OpSgt:
		return flagCost(pre.GT)
	case OpShl:
		return 2
	case OpShr:
		return 2
	case OpSle:
		return flagCost(pre.LE)
	case OpSlt:
		return flagCost(pre.LT)
	case OpSov:
		return flagCost(pre.OV)
	case OpSne:
		return flagCost(pre.NE)
	case OpStore:
		return 2 + dadrCost(instr.Dadr)
	case OpSub:
		return 2 + dvalCost(instr.Dval)
	case OpSubsp:
		return 4
	case OpTsto:
		return 4
	case OpWfloat:
		return 16
	case OpWfloatx:
		return 16
	case OpWint:
		return 16
	case OpWnl:
		return 14
	case OpWstr:
		return 16 + len(instr.Str)*2
	case OpWutf8:
		return 16
	case OpRint:
		return 16
	case OpRfloat:
		return 16
	case OpRutf8:
		return 16
	case OpSclk:
		return 2
	default:
		return 1
	}
}
