package ima

import (
	"fmt"
	"strconv"
	"strings"
)

// BaseRegisterKind selects which pointer register a DADR's base names.
type BaseRegisterKind int

const (
	BaseSP BaseRegisterKind = iota
	BaseGB
	BaseLB
	BaseR
)

// BaseRegister is the register named as the base of an address operand:
// SP, GB, LB, or a general register Rn (which must hold a MemAddr).
type BaseRegister struct {
	Kind  BaseRegisterKind
	Index RegisterIndex // meaningful only when Kind == BaseR
}

func (b BaseRegister) String() string {
	switch b.Kind {
	case BaseSP:
		return "SP"
	case BaseGB:
		return "GB"
	case BaseLB:
		return "LB"
	default:
		return b.Index.String()
	}
}

// DADR is an address operand (C6): either a plain offset from a base
// register, or an offset additionally displaced by an integer-valued
// register.
type DADR struct {
	Displaced    bool
	Base         BaseRegister
	RegOffset    RegisterIndex // meaningful only when Displaced
	ImmOffset    int32
}

func (d DADR) String() string {
	if d.Displaced {
		return fmt.Sprintf("%d(%s, %s)", d.ImmOffset, d.Base, d.RegOffset)
	}
	return fmt.Sprintf("%d(%s)", d.ImmOffset, d.Base)
}

// resolveBase returns the StackAddr-space pointer value of a DADR's base
// register before any offset is applied.
func (m *Machine) resolveBase(b BaseRegister) (Pointer, error) {
	switch b.Kind {
	case BaseSP:
		return StackPtr(uint32(m.SP)), nil
	case BaseGB:
		return StackPtr(uint32(m.GB)), nil
	case BaseLB:
		return StackPtr(uint32(m.LB)), nil
	default:
		v := m.Registers.Get(b.Index)
		if v.Kind != KindMemAddr {
			return Pointer{}, &ExecutionError{Cause: InvalidDataType{Expected: KindMemAddr, Found: v.Kind}}
		}
		return v.Ptr, nil
	}
}

// GetDadr resolves a DADR operand to its effective Pointer.
func (m *Machine) GetDadr(d DADR) (Pointer, error) {
	base, err := m.resolveBase(d.Base)
	if err != nil {
		return Pointer{}, err
	}
	offset := d.ImmOffset
	if d.Displaced {
		rv := m.Registers.Get(d.RegOffset)
		if rv.Kind != KindInt {
			return Pointer{}, &ExecutionError{Cause: InvalidDataType{Expected: KindInt, Found: rv.Kind}}
		}
		offset += rv.Int
	}
	addr, ok := base.Offset(offset)
	if !ok {
		return Pointer{}, &ExecutionError{Cause: InvalidMemoryAddress{Ptr: base}}
	}
	return addr, nil
}

// DVALKind selects how a value operand is resolved.
type DVALKind int

const (
	DVALDadr DVALKind = iota
	DVALRegister
	DVALImmediate
	DVALLabel
)

// DVAL is a value operand (C6): dereferenced memory, a register, an
// immediate word, or a resolved label (already a CodeAddr at parse time).
type DVAL struct {
	Kind  DVALKind
	Dadr  DADR
	Reg   RegisterIndex
	Imm   Word
	Label uint32
}

func (d DVAL) String() string {
	switch d.Kind {
	case DVALDadr:
		return d.Dadr.String()
	case DVALRegister:
		return d.Reg.String()
	case DVALLabel:
		return "label"
	default:
		if d.Imm.Kind == KindFloat {
			s := strconv.FormatFloat(float64(d.Imm.Float), 'f', -1, 32)
			if !strings.Contains(s, ".") {
				s += ".0"
			}
			return "#" + s
		}
		return "#" + d.Imm.String()
	}
}

// GetDval resolves a DVAL operand to a Word.
func (m *Machine) GetDval(d DVAL) (Word, error) {
	switch d.Kind {
	case DVALDadr:
		addr, err := m.GetDadr(d.Dadr)
		if err != nil {
			return Word{}, err
		}
		v, ok := m.Memory.Get(addr)
		if !ok {
			return Word{}, &ExecutionError{Cause: InvalidMemoryAddress{Ptr: addr}}
		}
		return v, nil
	case DVALRegister:
		return m.Registers.Get(d.Reg), nil
	case DVALLabel:
		return WordCodeAddr(d.Label), nil
	default:
		return d.Imm, nil
	}
}
