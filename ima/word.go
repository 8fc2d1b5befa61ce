// Package ima implements the machine model, instruction set, and assembler
// for a pedagogical stack/register abstract machine used to teach compiler
// code generation.
package ima

import "fmt"

// Kind tags the variant held by a Word, and doubles as the DataTypeFlag
// used in InvalidDataType errors.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindCodeAddr
	KindMemAddr
	KindUndefined
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindCodeAddr:
		return "CodeAddr"
	case KindMemAddr:
		return "MemAddr"
	default:
		return "Undefined"
	}
}

// Word is the tagged 32-bit datum that every register and memory cell
// holds. Exactly one of its value fields is meaningful, selected by Kind.
type Word struct {
	Kind     Kind
	Int      int32
	Float    float32
	CodeAddr uint32
	Ptr      Pointer
}

func WordInt(i int32) Word         { return Word{Kind: KindInt, Int: i} }
func WordFloat(f float32) Word     { return Word{Kind: KindFloat, Float: f} }
func WordCodeAddr(a uint32) Word   { return Word{Kind: KindCodeAddr, CodeAddr: a} }
func WordMemAddr(p Pointer) Word   { return Word{Kind: KindMemAddr, Ptr: p} }
func WordUndefined() Word          { return Word{Kind: KindUndefined} }
func WordBool(b bool) Word {
	if b {
		return WordInt(1)
	}
	return WordInt(0)
}

func (w Word) String() string {
	switch w.Kind {
	case KindInt:
		return fmt.Sprintf("%d", w.Int)
	case KindFloat:
		return fmt.Sprintf("%g", w.Float)
	case KindCodeAddr:
		return fmt.Sprintf("@ Code %d", w.CodeAddr)
	case KindMemAddr:
		return w.Ptr.String()
	default:
		return "<Undefined>"
	}
}

// PointerKind selects the memory space a Pointer addresses.
type PointerKind int

const (
	PointerStack PointerKind = iota
	PointerHeap
	PointerNull
)

// Pointer is Stack(u31), Heap(u31), or Null. The top bit of the 32-bit wire
// encoding selects stack vs heap; PointerFromWire and Wire convert to and
// from that encoding, and the interpreter never stores pointers in it.
type Pointer struct {
	Kind  PointerKind
	Value uint32
}

func StackPtr(v uint32) Pointer { return Pointer{Kind: PointerStack, Value: v} }
func HeapPtr(v uint32) Pointer  { return Pointer{Kind: PointerHeap, Value: v} }
func NullPtr() Pointer          { return Pointer{Kind: PointerNull} }

func (p Pointer) String() string {
	switch p.Kind {
	case PointerStack:
		return fmt.Sprintf("@ Stack %d", p.Value)
	case PointerHeap:
		return fmt.Sprintf("@ Heap %d", p.Value)
	default:
		return "Null"
	}
}

func (p Pointer) Equal(o Pointer) bool {
	if p.Kind != o.Kind {
		return false
	}
	if p.Kind == PointerNull {
		return true
	}
	return p.Value == o.Value
}

// PointerFromWire decodes the external 32-bit representation: top bit 0
// selects the stack, top bit 1 selects the heap (with the bit masked off).
func PointerFromWire(v uint32) Pointer {
	if v&0x8000_0000 == 0 {
		return StackPtr(v)
	}
	return HeapPtr(v & 0x7FFF_FFFF)
}

// Wire encodes the pointer back to its external 32-bit display form.
func (p Pointer) Wire() uint32 {
	switch p.Kind {
	case PointerStack:
		return p.Value
	case PointerHeap:
		return p.Value | 0x8000_0000
	default:
		return 0x8000_0000
	}
}

// Offset moves the pointer by delta words, staying within its own space.
// Offsetting Null, or moving past the 31-bit address range, is an error
// surfaced by the caller as InvalidMemoryAddress.
func (p Pointer) Offset(delta int32) (Pointer, bool) {
	if p.Kind == PointerNull {
		return p, false
	}
	signed := int64(p.Value) + int64(delta)
	if signed < 0 || signed > 0x7FFF_FFFF {
		return p, false
	}
	return Pointer{Kind: p.Kind, Value: uint32(signed)}, true
}

// StackAddr is the restricted pointer type held by SP, GB, and LB: always a
// stack-space index, never heap or null.
type StackAddr uint32

func (a StackAddr) Offset(delta int32) (StackAddr, bool) {
	signed := int64(a) + int64(delta)
	if signed < 0 || signed > 0x7FFF_FFFF {
		return a, false
	}
	return StackAddr(signed), true
}

func (a StackAddr) AsIndex() int { return int(a) }
