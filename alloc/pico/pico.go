// Package pico implements picox's variable-size free-list allocator:
// first-fit over an address-ordered free list, with the allocated
// block's own size stored in a header immediately before the returned
// slice so Deallocate needs no caller-supplied size.
//
// Grounded on the picox C library's xpico_allocator.c. The C
// original threads the free list through the chunks themselves (the
// chunk's "next" pointer lives at the chunk's own address) and stores
// the allocation size in a header immediately before the returned
// pointer. Go's []byte heap can't carry raw pointers, so both the free
// list and the size header are threaded as little-endian offsets/sizes
// written into the heap bytes (design note §9).
package pico

import (
	"encoding/binary"

	"github.com/maskedw/picox-sub001/xerr"
	"github.com/maskedw/picox-sub001/xlog"
)

// noFree marks the end of the free list.
const noFree = ^uint32(0)

// chunkHeaderSize is the space reserved at the start of every chunk for
// its header. The header itself is 8 bytes: a little-endian uint32
// offset (relative to Allocator.start) of the next free chunk, then a
// uint32 total size of this chunk in bytes.
const chunkHeaderSize = 16

// Allocator is a first-fit, address-ordered free-list allocator over a
// caller-supplied heap.
type Allocator struct {
	heap       []byte
	start      int // offset after alignment round-up
	capacity   int
	reserve    int
	alignment  int
	headerSize int // per-allocation size-header footprint, >= chunkHeaderSize
	free       uint32
}

// New rounds heap's usable start to alignment (a power of two, at
// least 8) and installs one free chunk spanning the whole capacity.
func New(heap []byte, alignment int) *Allocator {
	xlog.Assert(isPowerOfTwo(alignment), "isPowerOfTwo(alignment)", "pico.New: alignment must be a power of two")
	xlog.Assert(alignment >= 8, "alignment >= 8", "pico.New: alignment must be >= pointer alignment")

	start := roundUp(0, alignment)
	usable := len(heap) - start
	xlog.Assert(usable > chunkHeaderSize, "usable > chunkHeaderSize", "pico.New: heap too small")

	a := &Allocator{
		heap:       heap,
		start:      start,
		capacity:   usable,
		alignment:  alignment,
		headerSize: roundUp(chunkHeaderSize, alignment),
	}
	a.Clear()
	return a
}

// Clear discards all outstanding allocations and reinstalls a single
// free chunk spanning the whole heap.
func (a *Allocator) Clear() {
	a.reserve = a.capacity
	a.free = 0
	a.writeChunk(0, noFree, uint32(a.capacity))
}

func (a *Allocator) writeChunk(off int, next, size uint32) {
	b := a.heap[a.start+off:]
	binary.LittleEndian.PutUint32(b[0:4], next)
	binary.LittleEndian.PutUint32(b[4:8], size)
}

func (a *Allocator) readChunkNext(off int) uint32 {
	return binary.LittleEndian.Uint32(a.heap[a.start+off:])
}

func (a *Allocator) readChunkSize(off int) uint32 {
	return binary.LittleEndian.Uint32(a.heap[a.start+off+4:])
}

// Capacity returns the total usable byte count.
func (a *Allocator) Capacity() int { return a.capacity }

// Reserve returns the number of bytes currently free (sum of free
// chunk sizes).
func (a *Allocator) Reserve() int { return a.reserve }

// Allocate carves size bytes (plus per-allocation header overhead,
// first-fit over the free list) and returns the payload slice, or an
// error if no free chunk is large enough.
func (a *Allocator) Allocate(size int) ([]byte, error) {
	xlog.Assert(size > 0, "size > 0", "pico.Allocate: zero-size request")

	total := roundUp(size+a.headerSize, a.alignment)

	off, ok := a.allocateChunk(uint32(total))
	if !ok {
		return nil, xerr.Wrap(xerr.NoMemory, "pico.Allocate: no chunk large enough for %d bytes", total)
	}
	a.writeChunk(off, 0, uint32(total)) // reuse the header to stash size
	a.reserve -= total
	payload := a.start + off + a.headerSize
	return a.heap[payload : payload+total-a.headerSize], nil
}

// allocateChunk pops (or shrinks) the first free chunk >= size,
// returning its offset.
func (a *Allocator) allocateChunk(size uint32) (int, bool) {
	prevIsHead := true
	prevOff := 0
	cur := a.free

	for cur != noFree {
		curSize := a.readChunkSize(int(cur))
		if curSize >= size {
			next := a.readChunkNext(int(cur))
			remaining := curSize - size
			if remaining == 0 {
				if prevIsHead {
					a.free = next
				} else {
					a.writeChunk(prevOff, next, a.readChunkSize(prevOff))
				}
			} else {
				newOff := int(cur) + int(size)
				a.writeChunk(newOff, next, remaining)
				if prevIsHead {
					a.free = uint32(newOff)
				} else {
					a.writeChunk(prevOff, uint32(newOff), a.readChunkSize(prevOff))
				}
			}
			return int(cur), true
		}
		prevOff = int(cur)
		prevIsHead = false
		cur = a.readChunkNext(int(cur))
	}
	return 0, false
}

// Deallocate returns a previously allocated slice to the heap,
// recovering its size from the header and coalescing with adjacent
// free neighbours. Precondition: ptr was returned by Allocate on this
// instance and not already freed. A violated precondition is a caller
// bug, not a recoverable error: it asserts rather than returning.
func (a *Allocator) Deallocate(ptr []byte) {
	if len(ptr) == 0 {
		return
	}
	payloadOff := blockOffset(a.heap, ptr) - a.start
	blkOff := payloadOff - a.headerSize
	xlog.Assert(blkOff >= 0 && blkOff < a.capacity, "blkOff >= 0 && blkOff < a.capacity", "pico.Deallocate: pointer out of range")
	size := a.readChunkSize(blkOff)
	a.insertFree(blkOff, size)
	a.reserve += int(size)
}

// insertFree walks the address-ordered free list to find blk's
// insertion point and coalesces with either neighbour whose
// address+size meets blk exactly.
func (a *Allocator) insertFree(blk int, size uint32) {
	if a.free == noFree || blk < int(a.free) {
		// Insert before the current head (or as the only entry).
		if a.free != noFree && blk+int(size) == int(a.free) {
			mergedSize := size + a.readChunkSize(int(a.free))
			next := a.readChunkNext(int(a.free))
			a.writeChunk(blk, next, mergedSize)
		} else {
			a.writeChunk(blk, a.free, size)
		}
		a.free = uint32(blk)
		return
	}

	prev := int(a.free)
	for {
		next := a.readChunkNext(prev)
		prevSize := a.readChunkSize(prev)

		if next == noFree || blk < int(next) {
			mergedWithPrev := prev+int(prevSize) == blk
			if mergedWithPrev {
				size += prevSize
				blk = prev
			}
			// Merge with next if blk+size reaches it exactly.
			if next != noFree && blk+int(size) == int(next) {
				size += a.readChunkSize(int(next))
				next = a.readChunkNext(int(next))
			}
			a.writeChunk(blk, next, size)
			if !mergedWithPrev {
				// blk is a new node; splice it in after prev.
				a.writeChunk(prev, uint32(blk), prevSize)
			}
			return
		}
		prev = next
	}
}

// WalkHeap calls fn for every free chunk in address order, reporting
// its size. Diagnostic only.
func (a *Allocator) WalkHeap(fn func(off, size int)) {
	cur := a.free
	for cur != noFree {
		fn(int(cur), int(a.readChunkSize(int(cur))))
		cur = a.readChunkNext(int(cur))
	}
}

// FreeChunkCount returns the number of distinct free chunks, mostly
// useful for tests asserting coalescing behavior.
func (a *Allocator) FreeChunkCount() int {
	n := 0
	a.WalkHeap(func(int, int) { n++ })
	return n
}

func blockOffset(heap, block []byte) int {
	return cap(heap) - cap(block)
}

func roundUp(n, alignment int) int {
	if alignment <= 0 {
		return n
	}
	return (n + alignment - 1) &^ (alignment - 1)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
