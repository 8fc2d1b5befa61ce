package ima

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

var epoch2001 = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// Execute dispatches and runs a single instruction against the machine
// state. It never advances the PC itself (the caller does that around
// fetch), and it never touches the cycle counter (step() does that).
func (m *Machine) Execute(instr *Instruction) error {
	switch instr.Op {
	case OpLoad:
		return m.execLoad(instr)
	case OpStore:
		return m.execStore(instr)
	case OpPush:
		return m.execPush(instr)
	case OpPop:
		return m.execPop(instr)
	case OpLea:
		return m.execLea(instr)
	case OpPea:
		return m.execPea(instr)
	case OpNew:
		return m.execNew(instr)
	case OpDel:
		return m.execDel(instr)
	case OpCmp:
		return m.execCmp(instr)
	case OpAdd:
		return m.execAdd(instr)
	case OpSub:
		return m.execSub(instr)
	case OpMul:
		return m.execMul(instr)
	case OpOpp:
		return m.execOpp(instr)
	case OpQuo:
		return m.execQuo(instr)
	case OpRem:
		return m.execRem(instr)
	case OpDiv:
		return m.execDiv(instr)
	case OpFma:
		return m.execFma(instr)
	case OpShl:
		return m.execShl(instr)
	case OpShr:
		return m.execShr(instr)
	case OpSeq:
		m.Registers.Set(instr.Reg, WordBool(m.Flags.EQ))
		return nil
	case OpSgt:
		m.Registers.Set(instr.Reg, WordBool(m.Flags.GT))
		return nil
	case OpSge:
		m.Registers.Set(instr.Reg, WordBool(m.Flags.GE))
		return nil
	case OpSov:
		m.Registers.Set(instr.Reg, WordBool(m.Flags.OV))
		return nil
	case OpSne:
		m.Registers.Set(instr.Reg, WordBool(m.Flags.NE))
		return nil
	case OpSlt:
		m.Registers.Set(instr.Reg, WordBool(m.Flags.LT))
		return nil
	case OpSle:
		m.Registers.Set(instr.Reg, WordBool(m.Flags.LE))
		return nil
	case OpFloat:
		return m.execFloat(instr)
	case OpInt:
		return m.execInt(instr)
	case OpSetRoundNearest, OpSetRoundUpward, OpSetRoundDownward, OpSetRoundTowardZero:
		return nil // documented no-op
	case OpBra:
		return m.execBranch(instr, true)
	case OpBeq:
		return m.execBranch(instr, m.Flags.EQ)
	case OpBge:
		return m.execBranch(instr, m.Flags.GE)
	case OpBgt:
		return m.execBranch(instr, m.Flags.GT)
	case OpBle:
		return m.execBranch(instr, m.Flags.LE)
	case OpBlt:
		return m.execBranch(instr, m.Flags.LT)
	case OpBne:
		return m.execBranch(instr, m.Flags.NE)
	case OpBov:
		return m.execBranch(instr, m.Flags.OV)
	case OpBsr:
		return m.execBsr(instr)
	case OpRts:
		return m.execRts()
	case OpAddsp:
		sp, ok := m.SP.Offset(int32(instr.Imm))
		if !ok {
			return &ExecutionError{Cause: StackOverflow{}}
		}
		m.SP = sp
		return nil
	case OpSubsp:
		sp, ok := m.SP.Offset(-int32(instr.Imm))
		if !ok {
			return &ExecutionError{Cause: StackUnderflow{}}
		}
		m.SP = sp
		return nil
	case OpTsto:
		m.Flags.SetOV(m.SP.AsIndex()+int(instr.Imm) > m.Memory.StackSize())
		return nil
	case OpRint:
		return m.execRint()
	case OpRfloat:
		return m.execRfloat()
	case OpRutf8:
		return m.execRutf8()
	case OpWint:
		return m.execWint()
	case OpWfloat:
		return m.execWfloat(false)
	case OpWfloatx:
		return m.execWfloatx()
	case OpWstr:
		return m.execWstr(instr)
	case OpWnl:
		return m.writeFlush("\n")
	case OpWutf8:
		return m.execWutf8()
	case OpHalt:
		m.ControlFlow = Halt
		return nil
	case OpError:
		m.ControlFlow = Error
		return nil
	case OpClk:
		elapsed := time.Since(m.startTime)
		m.Registers.Set(0, WordFloat(float32(elapsed.Seconds())))
		return nil
	case OpSclk:
		secs := int64(time.Since(epoch2001).Seconds())
		m.Registers.Set(1, WordInt(int32(secs)))
		return nil
	default:
		return fmt.Errorf("unimplemented opcode %s", instr.Op)
	}
}

func (m *Machine) execLoad(instr *Instruction) error {
	v, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	m.cp(v)
	m.Registers.Set(instr.Reg, v)
	return nil
}

func (m *Machine) execStore(instr *Instruction) error {
	addr, err := m.GetDadr(instr.Dadr)
	if err != nil {
		return err
	}
	v := m.Registers.Get(instr.Reg)
	m.cp(v)
	return m.Memory.Set(addr, v)
}

func (m *Machine) execPush(instr *Instruction) error {
	v := m.Registers.Get(instr.Reg)
	m.cp(v)
	sp, ok := m.SP.Offset(1)
	if !ok {
		return &ExecutionError{Cause: StackOverflow{}}
	}
	m.SP = sp
	return m.Memory.SetStack(m.SP, v)
}

func (m *Machine) execPop(instr *Instruction) error {
	v, ok := m.Memory.GetStack(m.SP)
	if !ok {
		return &ExecutionError{Cause: InvalidMemoryAddress{Ptr: StackPtr(uint32(m.SP))}}
	}
	m.cp(v)
	m.Registers.Set(instr.Reg, v)
	sp, ok := m.SP.Offset(-1)
	if !ok {
		return &ExecutionError{Cause: StackUnderflow{}}
	}
	m.SP = sp
	return nil
}

func (m *Machine) execLea(instr *Instruction) error {
	addr, err := m.GetDadr(instr.Dadr)
	if err != nil {
		return err
	}
	m.Registers.Set(instr.Reg, WordMemAddr(addr))
	return nil
}

func (m *Machine) execPea(instr *Instruction) error {
	addr, err := m.GetDadr(instr.Dadr)
	if err != nil {
		return err
	}
	sp, ok := m.SP.Offset(1)
	if !ok {
		return &ExecutionError{Cause: StackOverflow{}}
	}
	m.SP = sp
	return m.Memory.SetStack(m.SP, WordMemAddr(addr))
}

func (m *Machine) execNew(instr *Instruction) error {
	v, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	if v.Kind != KindInt {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindInt, Found: v.Kind}}
	}
	var ptr Pointer
	if v.Int < 0 {
		m.Flags.SetOV(true)
		ptr = NullPtr()
	} else if addr, ok := m.Memory.Allocate(int(v.Int)); ok {
		ptr = HeapPtr(addr)
	} else {
		m.Flags.SetOV(true)
		ptr = NullPtr()
	}
	m.Registers.Set(instr.Reg, WordMemAddr(ptr))
	return nil
}

func (m *Machine) execDel(instr *Instruction) error {
	v := m.Registers.Get(instr.Reg)
	if v.Kind != KindMemAddr || v.Ptr.Kind != PointerHeap {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindMemAddr, Found: v.Kind}}
	}
	if !m.Memory.Free(v.Ptr.Value) {
		m.Flags.SetOV(true)
	}
	return nil
}

func (m *Machine) execCmp(instr *Instruction) error {
	v1, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	v2 := m.Registers.Get(instr.Reg)
	switch {
	case v1.Kind == KindFloat && v2.Kind == KindFloat:
		m.Flags.SetCmpFloat(v1.Float, v2.Float)
	case v1.Kind == KindInt && v2.Kind == KindInt:
		m.Flags.SetCmpInt(v1.Int, v2.Int)
	case v1.Kind == KindMemAddr && v2.Kind == KindMemAddr:
		m.Flags.SetCmpPtr(v1.Ptr, v2.Ptr)
	default:
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Compare", Operands: []Kind{v1.Kind, v2.Kind}}}}
	}
	return nil
}

func (m *Machine) execAdd(instr *Instruction) error {
	v1, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	v2 := m.Registers.Get(instr.Reg)
	switch {
	case v1.Kind == KindFloat && v2.Kind == KindFloat:
		res := v1.Float + v2.Float
		m.Flags.SetOV(math.IsInf(float64(res), 0))
		m.Flags.SetCmpFloat(0, res)
		m.Registers.Set(instr.Reg, WordFloat(res))
	case v1.Kind == KindInt && v2.Kind == KindInt:
		res, ov := addOverflow(v1.Int, v2.Int)
		m.Flags.SetOV(ov)
		m.Flags.SetCmpInt(0, res)
		m.Registers.Set(instr.Reg, WordInt(res))
	default:
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Add", Operands: []Kind{v1.Kind, v2.Kind}}}}
	}
	return nil
}

func (m *Machine) execSub(instr *Instruction) error {
	v1 := m.Registers.Get(instr.Reg)
	v2, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	switch {
	case v1.Kind == KindFloat && v2.Kind == KindFloat:
		res := v1.Float - v2.Float
		m.Flags.SetOV(math.IsInf(float64(res), 0))
		m.Flags.SetCmpFloat(0, res)
		m.Registers.Set(instr.Reg, WordFloat(res))
	case v1.Kind == KindInt && v2.Kind == KindInt:
		res, ov := subOverflow(v1.Int, v2.Int)
		m.Flags.SetOV(ov)
		m.Flags.SetCmpInt(0, res)
		m.Registers.Set(instr.Reg, WordInt(res))
	default:
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Substract", Operands: []Kind{v1.Kind, v2.Kind}}}}
	}
	return nil
}

func (m *Machine) execMul(instr *Instruction) error {
	v1, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	v2 := m.Registers.Get(instr.Reg)
	switch {
	case v1.Kind == KindFloat && v2.Kind == KindFloat:
		res := v1.Float * v2.Float
		m.Flags.SetOV(math.IsInf(float64(res), 0))
		m.Flags.SetCmpFloat(0, res)
		m.Registers.Set(instr.Reg, WordFloat(res))
	case v1.Kind == KindInt && v2.Kind == KindInt:
		res, ov := mulOverflow(v1.Int, v2.Int)
		m.Flags.SetOV(ov)
		m.Flags.SetCmpInt(0, res)
		m.Registers.Set(instr.Reg, WordInt(res))
	default:
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Multiply", Operands: []Kind{v1.Kind, v2.Kind}}}}
	}
	return nil
}

func (m *Machine) execOpp(instr *Instruction) error {
	v, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	switch v.Kind {
	case KindFloat:
		res := -v.Float
		m.Flags.SetCmpFloat(0, res)
		m.Registers.Set(instr.Reg, WordFloat(res))
	case KindInt:
		res, ov := negOverflow(v.Int)
		m.Flags.SetOV(ov)
		m.Flags.SetCmpInt(0, res)
		m.Registers.Set(instr.Reg, WordInt(res))
	default:
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Opposite", Operands: []Kind{v.Kind}}}}
	}
	return nil
}

func (m *Machine) execQuo(instr *Instruction) error {
	v1 := m.Registers.Get(instr.Reg)
	v2, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	if v1.Kind != KindInt || v2.Kind != KindInt {
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Quotient", Operands: []Kind{v1.Kind, v2.Kind}}}}
	}
	if v2.Int == 0 {
		m.Flags.SetOV(true)
		return nil
	}
	res := v1.Int / v2.Int
	m.Flags.SetCmpInt(0, res)
	m.Registers.Set(instr.Reg, WordInt(res))
	return nil
}

func (m *Machine) execRem(instr *Instruction) error {
	v1 := m.Registers.Get(instr.Reg)
	v2, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	if v1.Kind != KindInt || v2.Kind != KindInt {
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Remainder", Operands: []Kind{v1.Kind, v2.Kind}}}}
	}
	if v2.Int == 0 {
		m.Flags.SetOV(true)
		return nil
	}
	res := v1.Int % v2.Int
	m.Flags.SetCmpInt(0, res)
	m.Registers.Set(instr.Reg, WordInt(res))
	return nil
}

func (m *Machine) execDiv(instr *Instruction) error {
	v1 := m.Registers.Get(instr.Reg)
	v2, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	if v1.Kind != KindFloat || v2.Kind != KindFloat {
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Divide", Operands: []Kind{v1.Kind, v2.Kind}}}}
	}
	res := v1.Float / v2.Float
	m.Flags.SetOV(math.IsInf(float64(res), 0))
	m.Flags.SetCmpFloat(0, res)
	m.Registers.Set(instr.Reg, WordFloat(res))
	return nil
}

func (m *Machine) execFma(instr *Instruction) error {
	v1, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	v2 := m.Registers.Get(instr.Reg)
	v3 := m.Registers.Get(0)
	if v1.Kind != KindFloat || v2.Kind != KindFloat || v3.Kind != KindFloat {
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Fused multiply-add", Operands: []Kind{v1.Kind, v2.Kind, v3.Kind}}}}
	}
	res := v1.Float*v2.Float + v3.Float
	m.Flags.SetOV(math.IsInf(float64(res), 0))
	m.Flags.SetCmpFloat(0, res)
	m.Registers.Set(instr.Reg, WordFloat(res))
	return nil
}

func (m *Machine) execShl(instr *Instruction) error {
	v := m.Registers.Get(instr.Reg)
	if v.Kind != KindInt {
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Shift left", Operands: []Kind{v.Kind}}}}
	}
	res := v.Int << 1
	// A shift-by-1 never reaches the 32-bit width, so overflow is always
	// false here - but OV is still unconditionally (re)set to that value.
	m.Flags.SetOV(false)
	m.Flags.SetCmpInt(0, res)
	m.Registers.Set(instr.Reg, WordInt(res))
	return nil
}

func (m *Machine) execShr(instr *Instruction) error {
	v := m.Registers.Get(instr.Reg)
	if v.Kind != KindInt {
		return &ExecutionError{Cause: InvalidOperation{Op: OperationType{Op: "Shift right", Operands: []Kind{v.Kind}}}}
	}
	res := v.Int >> 1
	m.Flags.SetCmpInt(0, res)
	m.Registers.Set(instr.Reg, WordInt(res))
	return nil
}

func (m *Machine) execFloat(instr *Instruction) error {
	v, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	if v.Kind != KindInt {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindInt, Found: v.Kind}}
	}
	m.Registers.Set(instr.Reg, WordFloat(float32(v.Int)))
	return nil
}

func (m *Machine) execInt(instr *Instruction) error {
	v, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	if v.Kind != KindFloat {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindFloat, Found: v.Kind}}
	}
	m.Registers.Set(instr.Reg, WordInt(int32(v.Float)))
	return nil
}

func (m *Machine) execBranch(instr *Instruction, taken bool) error {
	if !taken {
		return nil
	}
	v, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	if v.Kind != KindCodeAddr {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindCodeAddr, Found: v.Kind}}
	}
	m.Program.SetPC(v.CodeAddr)
	return nil
}

func (m *Machine) execBsr(instr *Instruction) error {
	v, err := m.GetDval(instr.Dval)
	if err != nil {
		return err
	}
	if v.Kind != KindCodeAddr {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindCodeAddr, Found: v.Kind}}
	}
	returnAddr := m.Program.PC()
	sp, ok := m.SP.Offset(2)
	if !ok {
		return &ExecutionError{Cause: StackOverflow{}}
	}
	sub1, _ := sp.Offset(-1)
	if err := m.Memory.SetStack(sub1, WordCodeAddr(returnAddr)); err != nil {
		return err
	}
	if err := m.Memory.SetStack(sp, WordMemAddr(StackPtr(uint32(m.LB)))); err != nil {
		return err
	}
	m.LB = sp
	m.SP = sp
	m.Program.SetPC(v.CodeAddr)
	return nil
}

func (m *Machine) execRts() error {
	oldLB := m.LB
	retAddrIdx, ok := oldLB.Offset(-1)
	if !ok {
		return &ExecutionError{Cause: StackUnderflow{}}
	}
	retVal, ok := m.Memory.GetStack(retAddrIdx)
	if !ok {
		return &ExecutionError{Cause: InvalidMemoryAddress{Ptr: StackPtr(uint32(retAddrIdx))}}
	}
	if retVal.Kind != KindCodeAddr {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindCodeAddr, Found: retVal.Kind}}
	}
	newSP, ok := oldLB.Offset(-2)
	if !ok {
		return &ExecutionError{Cause: StackUnderflow{}}
	}
	lbVal, ok := m.Memory.GetStack(oldLB)
	if !ok {
		return &ExecutionError{Cause: InvalidMemoryAddress{Ptr: StackPtr(uint32(oldLB))}}
	}
	if lbVal.Kind != KindMemAddr || lbVal.Ptr.Kind != PointerStack {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindMemAddr, Found: lbVal.Kind}}
	}
	m.Program.SetPC(retVal.CodeAddr)
	m.SP = newSP
	m.LB = StackAddr(lbVal.Ptr.Value)
	return nil
}

func (m *Machine) execRint() error {
	line, err := m.Stdin.ReadString('\n')
	if err != nil && line == "" {
		return &ExecutionError{Cause: FailedToReadInput{Err: err}}
	}
	n, perr := strconv.ParseInt(strings.TrimSpace(line), 10, 32)
	if perr != nil {
		m.Flags.SetOV(true)
		return nil
	}
	m.Flags.SetCmpInt(0, int32(n))
	m.Registers.Set(1, WordInt(int32(n)))
	return nil
}

func (m *Machine) execRfloat() error {
	line, err := m.Stdin.ReadString('\n')
	if err != nil && line == "" {
		return &ExecutionError{Cause: FailedToReadInput{Err: err}}
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(line), 32)
	if perr != nil {
		m.Flags.SetOV(true)
		return nil
	}
	m.Flags.SetCmpFloat(0, float32(f))
	m.Registers.Set(1, WordFloat(float32(f)))
	return nil
}

func (m *Machine) execRutf8() error {
	var buf [4]byte
	if _, err := io.ReadFull(m.Stdin, buf[:]); err != nil {
		return &ExecutionError{Cause: FailedToReadInput{Err: err}}
	}
	v := int32(binary.NativeEndian.Uint32(buf[:]))
	m.Registers.Set(1, WordInt(v))
	return nil
}

func (m *Machine) execWint() error {
	v := m.Registers.Get(1)
	if v.Kind != KindInt {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindInt, Found: v.Kind}}
	}
	return m.writeFlush(strconv.FormatInt(int64(v.Int), 10))
}

func (m *Machine) execWfloat(hex bool) error {
	v := m.Registers.Get(1)
	if v.Kind != KindFloat {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindFloat, Found: v.Kind}}
	}
	var s string
	if hex {
		s = fmt.Sprintf("%x", v.Float)
	} else {
		s = strconv.FormatFloat(float64(v.Float), 'g', -1, 32)
	}
	return m.writeFlush(s)
}

func (m *Machine) execWfloatx() error { return m.execWfloat(true) }

func (m *Machine) execWstr(instr *Instruction) error { return m.writeFlush(instr.Str) }

func (m *Machine) execWutf8() error {
	v := m.Registers.Get(1)
	if v.Kind != KindInt {
		return &ExecutionError{Cause: InvalidDataType{Expected: KindInt, Found: v.Kind}}
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v.Int))
	if _, err := m.Stdout.Write(buf[:]); err != nil {
		return &ExecutionError{Cause: FailedToWriteIO{Err: err}}
	}
	return flushErr(m.Stdout)
}

// writeFlush writes s, appends a newline when the machine is in
// write-newlines mode, and always flushes (matching the original's
// per-write-instruction flush behavior).
func (m *Machine) writeFlush(s string) error {
	if _, err := m.Stdout.WriteString(s); err != nil {
		return &ExecutionError{Cause: FailedToWriteIO{Err: err}}
	}
	if m.WriteNewLines && s != "\n" {
		if _, err := m.Stdout.WriteString("\n"); err != nil {
			return &ExecutionError{Cause: FailedToWriteIO{Err: err}}
		}
	}
	return flushErr(m.Stdout)
}

func flushErr(w interface{ Flush() error }) error {
	if err := w.Flush(); err != nil {
		return &ExecutionError{Cause: FailedToWriteIO{Err: err}}
	}
	return nil
}

func addOverflow(a, b int32) (int32, bool) {
	r := int64(a) + int64(b)
	return int32(r), r < math.MinInt32 || r > math.MaxInt32
}

func subOverflow(a, b int32) (int32, bool) {
	r := int64(a) - int64(b)
	return int32(r), r < math.MinInt32 || r > math.MaxInt32
}

func mulOverflow(a, b int32) (int32, bool) {
	r := int64(a) * int64(b)
	return int32(r), r < math.MinInt32 || r > math.MaxInt32
}

func negOverflow(a int32) (int32, bool) {
	if a == math.MinInt32 {
		return a, true
	}
	return -a, false
}
