// Package stack implements picox's stack/bump allocator: two bump
// pointers carved out of one heap, growing toward each other. There is
// no individual free, only Clear (full reset) or Rewind (restore a
// prior (begin, end) mark pair).
//
// Grounded on the picox C library's xstack_allocator.c.
package stack

import (
	"github.com/maskedw/picox-sub001/xerr"
	"github.com/maskedw/picox-sub001/xlog"
)

// Allocator is a two-ended bump allocator over a caller-supplied heap.
type Allocator struct {
	heap      []byte
	start     int // heap offset after alignment round-up
	capacity  int
	alignment int
	begin     int // offset, grows up from start
	end       int // offset, grows down from start+capacity
	growUp    bool
}

// New rounds heap's usable region to alignment on both ends, matching
// xsalloc_init. alignment must be a power of two.
func New(heap []byte, alignment int) *Allocator {
	xlog.Assert(isPowerOfTwo(alignment), "isPowerOfTwo(alignment)", "stack.New: alignment must be a power of two")
	start := roundUp(0, alignment)
	usable := len(heap) - start
	xlog.Assert(usable >= alignment, "usable >= alignment", "stack.New: heap too small")
	end := roundDown(usable, alignment)

	a := &Allocator{
		heap:      heap,
		start:     start,
		capacity:  end,
		alignment: alignment,
	}
	a.Clear()
	return a
}

// Clear resets both bump pointers to their initial marks and restores
// upward growth.
func (a *Allocator) Clear() {
	a.begin = 0
	a.end = a.capacity
	a.growUp = true
}

// SetGrowDown switches growth direction for subsequent Allocate calls.
// Changing direction does not invalidate existing allocations.
func (a *Allocator) SetGrowDown(down bool) {
	a.growUp = !down
}

// Reserve returns the number of bytes still available between the two
// bump pointers.
func (a *Allocator) Reserve() int {
	return a.end - a.begin
}

// Capacity returns the total usable byte count.
func (a *Allocator) Capacity() int { return a.capacity }

// Allocate carves n (rounded up to alignment) bytes from whichever end
// is currently growing and returns the slice. Precondition: Reserve()
// can satisfy the rounded request.
func (a *Allocator) Allocate(n int) []byte {
	xlog.Assert(n > 0, "n > 0", "stack.Allocate: zero-size request")
	size := roundUp(n, a.alignment)
	xlog.Assert(a.Reserve() >= size, "a.Reserve() >= size", "stack.Allocate: out of space")

	var off int
	if a.growUp {
		off = a.begin
		a.begin += size
	} else {
		a.end -= size
		off = a.end
	}
	return a.heap[a.start+off : a.start+off+size]
}

// Mark is a saved (begin, end) pair suitable for Rewind.
type Mark struct {
	begin, end int
}

// Save captures the current bump positions.
func (a *Allocator) Save() Mark {
	return Mark{a.begin, a.end}
}

// Rewind restores a prior (begin, end) mark pair. Both offsets must be
// aligned, in range, and satisfy end >= begin.
func (a *Allocator) Rewind(m Mark) error {
	if m.begin%a.alignment != 0 || m.end%a.alignment != 0 {
		return xerr.Wrap(xerr.Invalid, "stack.Rewind: mark not aligned")
	}
	if m.end < m.begin {
		return xerr.Wrap(xerr.Invalid, "stack.Rewind: end < begin")
	}
	if m.begin < 0 || m.end > a.capacity {
		return xerr.Wrap(xerr.Range, "stack.Rewind: mark out of range")
	}
	a.begin, a.end = m.begin, m.end
	return nil
}

func roundUp(n, alignment int) int {
	if alignment <= 0 {
		return n
	}
	return (n + alignment - 1) &^ (alignment - 1)
}

func roundDown(n, alignment int) int {
	if alignment <= 0 {
		return n
	}
	return n &^ (alignment - 1)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
