// Package fixed implements picox's fixed-block allocator: a pool of
// equal-size blocks carved out of one heap, with a singly-linked free
// list threaded through the blocks themselves, zero per-block header
// overhead, O(1) allocate/deallocate.
//
// Grounded on the picox C library's xfixed_allocator.c. The
// C original stores each free block's "next" pointer in the block's
// own first machine word; Go's []byte backing array has no address we
// may legally reinterpret as a pointer, so the free list is threaded
// as little-endian uint32 block indices written into the block bytes
// instead (design note §9: "explicit index-based linkage in a managed
// array").
package fixed

import (
	"encoding/binary"

	"github.com/maskedw/picox-sub001/xlog"
)

const noFree = ^uint32(0)

// Allocator manages a fixed-block pool over a caller-supplied heap.
type Allocator struct {
	heap      []byte
	start     int // offset into heap, rounded up to alignment
	blockSize int
	alignment int
	numBlocks int
	remain    int
	free      uint32 // index of head of free list, noFree if empty
}

// New rounds heap's usable start up to alignment, rounds blockSize up
// to alignment, and threads a free list through every resulting block.
// alignment must be a power of two; blockSize and the usable heap
// region (after rounding) must be non-zero.
func New(heap []byte, blockSize, alignment int) *Allocator {
	xlog.Assert(len(heap) > 0, "len(heap) > 0", "fixed.New: empty heap")
	xlog.Assert(blockSize > 0, "blockSize > 0", "fixed.New: zero block size")
	xlog.Assert(isPowerOfTwo(alignment), "isPowerOfTwo(alignment)", "fixed.New: alignment must be a power of two")

	start := roundUp(0, alignment)
	usable := len(heap) - start
	bs := roundUp(blockSize, alignment)
	xlog.Assert(usable >= bs, "usable >= bs", "fixed.New: heap too small for one block")

	a := &Allocator{
		heap:      heap,
		start:     start,
		blockSize: bs,
		alignment: alignment,
		numBlocks: usable / bs,
	}
	a.Clear()
	return a
}

// Clear rebuilds the free list from scratch; every previously returned
// pointer becomes invalid.
func (a *Allocator) Clear() {
	a.remain = a.numBlocks
	for i := 0; i < a.numBlocks; i++ {
		next := uint32(i + 1)
		if i == a.numBlocks-1 {
			next = noFree
		}
		binary.LittleEndian.PutUint32(a.blockAt(i), next)
	}
	if a.numBlocks > 0 {
		a.free = 0
	} else {
		a.free = noFree
	}
}

func (a *Allocator) blockAt(index int) []byte {
	off := a.start + index*a.blockSize
	return a.heap[off : off+a.blockSize]
}

// Allocate pops the free-list head. Precondition: RemainBlocks() > 0.
func (a *Allocator) Allocate() []byte {
	xlog.Assert(a.remain > 0, "a.remain > 0", "fixed.Allocate: pool exhausted")
	idx := a.free
	a.free = binary.LittleEndian.Uint32(a.blockAt(int(idx)))
	a.remain--
	return a.blockAt(int(idx))
}

// Deallocate pushes block back onto the free list. Precondition: block
// was returned by Allocate on this instance and not already freed. A
// violated precondition is a caller bug, not a recoverable error: it
// asserts rather than returning.
func (a *Allocator) Deallocate(block []byte) {
	idx := a.indexOf(block)
	binary.LittleEndian.PutUint32(a.blockAt(idx), a.free)
	a.free = uint32(idx)
	a.remain++
}

func (a *Allocator) indexOf(block []byte) int {
	xlog.Assert(len(block) > 0, "len(block) > 0", "fixed.Deallocate: nil block")
	off := blockOffset(a.heap, block)
	rel := off - a.start
	xlog.Assert(rel >= 0 && rel%a.blockSize == 0, "rel >= 0 && rel%a.blockSize == 0", "fixed.Deallocate: block not on a block boundary")
	idx := rel / a.blockSize
	xlog.Assert(idx >= 0 && idx < a.numBlocks, "idx >= 0 && idx < a.numBlocks", "fixed.Deallocate: block out of range")
	return idx
}

// blockOffset recovers the byte offset of block within heap using
// slice header arithmetic rather than pointer comparison: safe,
// bounds-checked Go in place of the C original's raw pointer subtraction.
func blockOffset(heap, block []byte) int {
	return cap(heap) - cap(block)
}

// NumBlocks returns the total block count.
func (a *Allocator) NumBlocks() int { return a.numBlocks }

// RemainBlocks returns the number of blocks currently free. Invariant:
// Allocated()+RemainBlocks() == NumBlocks() always holds.
func (a *Allocator) RemainBlocks() int { return a.remain }

// Allocated returns the number of blocks currently checked out.
func (a *Allocator) Allocated() int { return a.numBlocks - a.remain }

// BlockSize returns the (alignment-rounded) size of one block.
func (a *Allocator) BlockSize() int { return a.blockSize }

func roundUp(n, alignment int) int {
	if alignment <= 0 {
		return n
	}
	return (n + alignment - 1) &^ (alignment - 1)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
