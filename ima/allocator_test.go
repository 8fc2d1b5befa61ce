package ima_test

import (
	"testing"

	"ima"
)

// TestHeapBlocksAreDisjointAndStable backs properties 3 and 4: every address
// within a live block resolves back to that block's (start, size), and two
// live blocks never share a cell.
func TestHeapBlocksAreDisjointAndStable(t *testing.T) {
	mem := ima.NewMemory(10, 32)

	start1, ok := mem.Allocate(5)
	assert(t, ok, "expected first allocation to succeed")
	start2, ok := mem.Allocate(7)
	assert(t, ok, "expected second allocation to succeed")

	for addr := start1; addr < start1+5; addr++ {
		s, size, ok := mem.BlockOf(addr)
		assert(t, ok, "expected addr %d to resolve to a live block", addr)
		assert(t, s == start1 && size == 5, "addr %d resolved to (%d,%d), want (%d,5)", addr, s, size, start1)
	}
	for addr := start2; addr < start2+7; addr++ {
		s, size, ok := mem.BlockOf(addr)
		assert(t, ok, "expected addr %d to resolve to a live block", addr)
		assert(t, s == start2 && size == 7, "addr %d resolved to (%d,%d), want (%d,7)", addr, s, size, start2)
	}

	assert(t, start1+5 <= start2 || start2+7 <= start1, "blocks overlap: [%d,%d) and [%d,%d)",
		start1, start1+5, start2, start2+7)
}

// TestFreeThenRefreeFails backs property 5 at the memory level: freeing a
// live pointer succeeds and drops its block; freeing the same pointer again
// fails (the failure DEL reports by setting OV).
func TestFreeThenRefreeFails(t *testing.T) {
	mem := ima.NewMemory(10, 16)

	start, ok := mem.Allocate(4)
	assert(t, ok, "expected allocation to succeed")

	assert(t, mem.Free(start), "expected first free to succeed")
	_, _, ok = mem.BlockOf(start)
	assert(t, !ok, "expected freed block to no longer resolve")

	assert(t, !mem.Free(start), "expected re-free of the same pointer to fail")
}
