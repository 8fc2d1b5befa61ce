package ima

// Allocator is the pluggable heap allocation policy (C5). Memory delegates
// all allocation concerns here so the occupancy invariant — every cell of
// a live block is Some(_), every cell outside any live block is None — is
// maintained in one place.
type Allocator interface {
	// Allocate scans heap for size contiguous unallocated (nil) cells,
	// marks them Some(Undefined), and returns their starting index.
	Allocate(heap []*Word, size int) (uint32, bool)
	// Free releases a previously-allocated block, restoring its cells to
	// nil (unallocated). Reports false if start is not a live block.
	Free(heap []*Word, start uint32) bool
	// GetBlock returns the (start, size) of the live block containing ptr,
	// if any.
	GetBlock(ptr uint32) (start uint32, size int, ok bool)
}

// LinearAllocator is an O(n) first-fit allocator: it scans linearly from
// the start of the heap, restarting its scan immediately past any occupied
// cell it encounters, until it finds a run of `size` free cells.
type LinearAllocator struct {
	allocations map[uint32]int
}

func NewLinearAllocator() *LinearAllocator {
	return &LinearAllocator{allocations: make(map[uint32]int)}
}

func (a *LinearAllocator) Allocate(heap []*Word, size int) (uint32, bool) {
	ptr := 0
	for {
		available := 0
		for ptr+available < len(heap) && heap[ptr+available] == nil {
			available++
			if available == size {
				for i := ptr; i < ptr+size; i++ {
					u := WordUndefined()
					heap[i] = &u
				}
				a.allocations[uint32(ptr)] = size
				return uint32(ptr), true
			}
		}
		if ptr+available >= len(heap) {
			return 0, false
		}
		// heap[ptr+available] is occupied; restart just past it.
		ptr = ptr + available + 1
		if ptr >= len(heap) {
			return 0, false
		}
	}
}

func (a *LinearAllocator) Free(heap []*Word, start uint32) bool {
	size, ok := a.allocations[start]
	if !ok {
		return false
	}
	delete(a.allocations, start)
	for i := int(start); i < int(start)+size; i++ {
		heap[i] = nil
	}
	return true
}

func (a *LinearAllocator) GetBlock(ptr uint32) (uint32, int, bool) {
	for start, size := range a.allocations {
		if ptr >= start && ptr < start+uint32(size) {
			return start, size, true
		}
	}
	return 0, 0, false
}
