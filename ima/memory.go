package ima

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Memory is the split stack+heap address space (C4). The stack is a dense
// vector of Words initialized Undefined; the heap is a sparse vector where
// a nil cell means unallocated.
type Memory struct {
	Stack []Word
	Heap  []*Word
	Alloc Allocator
}

// NewMemory allocates a stack of stackSize words and a heap of heapSize
// cells, both backed by a LinearAllocator.
func NewMemory(stackSize, heapSize int) *Memory {
	stack := make([]Word, stackSize)
	for i := range stack {
		stack[i] = WordUndefined()
	}
	return &Memory{
		Stack: stack,
		Heap:  make([]*Word, heapSize),
		Alloc: NewLinearAllocator(),
	}
}

func (m *Memory) Get(p Pointer) (Word, bool) {
	switch p.Kind {
	case PointerStack:
		return m.GetStack(StackAddr(p.Value))
	case PointerHeap:
		return m.GetHeap(p.Value)
	default:
		return Word{}, false
	}
}

func (m *Memory) GetStack(at StackAddr) (Word, bool) {
	i := at.AsIndex()
	if i < 0 || i >= len(m.Stack) {
		return Word{}, false
	}
	return m.Stack[i], true
}

func (m *Memory) GetHeap(at uint32) (Word, bool) {
	if int(at) >= len(m.Heap) {
		return Word{}, false
	}
	cell := m.Heap[at]
	if cell == nil {
		return Word{}, false
	}
	return *cell, true
}

func (m *Memory) Set(p Pointer, v Word) error {
	switch p.Kind {
	case PointerStack:
		return m.SetStack(StackAddr(p.Value), v)
	case PointerHeap:
		return m.SetHeap(p.Value, v)
	default:
		return &ExecutionError{Cause: InvalidMemoryAddress{Ptr: p}}
	}
}

func (m *Memory) SetStack(at StackAddr, v Word) error {
	i := at.AsIndex()
	if i < 0 || i >= len(m.Stack) {
		return &ExecutionError{Cause: StackOverflow{}}
	}
	m.Stack[i] = v
	return nil
}

func (m *Memory) SetHeap(at uint32, v Word) error {
	if int(at) >= len(m.Heap) || m.Heap[at] == nil {
		return &ExecutionError{Cause: InvalidMemoryAddress{Ptr: HeapPtr(at)}}
	}
	*m.Heap[at] = v
	return nil
}

func (m *Memory) StackSize() int { return len(m.Stack) }

func (m *Memory) Allocate(size int) (uint32, bool) { return m.Alloc.Allocate(m.Heap, size) }

func (m *Memory) Free(ptr uint32) bool { return m.Alloc.Free(m.Heap, ptr) }

func (m *Memory) BlockOf(ptr uint32) (uint32, int, bool) { return m.Alloc.GetBlock(ptr) }

// Clear resets the stack to Undefined and the heap to fully unallocated,
// per Reset() semantics of the machine.
func (m *Memory) Clear() {
	for i := range m.Stack {
		m.Stack[i] = WordUndefined()
	}
	for i := range m.Heap {
		if start, _, ok := m.Alloc.GetBlock(uint32(i)); ok {
			m.Alloc.Free(m.Heap, start)
		}
		m.Heap[i] = nil
	}
}

// DisplayStack writes the `m A B` debug dump: stack cells from end down to
// start (reverse order), marking the current SP.
func (m *Memory) DisplayStack(start, end uint32, w io.Writer, sp StackAddr) error {
	last := end
	if int(last) >= len(m.Stack) {
		last = uint32(len(m.Stack) - 1)
	}
	for i := int(last); i >= int(start); i-- {
		marker := "     "
		if sp == StackAddr(i) {
			marker = "SP ->"
		}
		if _, err := fmt.Fprintf(w, "%s %-3d| %s\n", marker, i, m.Stack[i]); err != nil {
			return errors.Wrap(err, "writing stack display")
		}
	}
	return nil
}

// DisplayBlock writes the `b N` debug dump: the live block containing
// pointer, marking the register-holding cell.
func (m *Memory) DisplayBlock(pointer uint32, w io.Writer, register int) error {
	start, size, ok := m.Alloc.GetBlock(pointer)
	if !ok {
		_, err := fmt.Fprintf(w, "Invalid pointer %d\n", pointer)
		return errors.Wrap(err, "writing block display")
	}
	if _, err := fmt.Fprintf(w, "Block at %d of size %d:\n", start, size); err != nil {
		return errors.Wrap(err, "writing block display")
	}
	for i := start; i < start+uint32(size); i++ {
		marker := "      "
		if pointer == i {
			marker = fmt.Sprintf("R%d -> ", register)
		}
		cell := m.Heap[i]
		if cell == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s%-3d| %s\n", marker, i, cell.String()); err != nil {
			return errors.Wrap(err, "writing block display")
		}
	}
	return nil
}
