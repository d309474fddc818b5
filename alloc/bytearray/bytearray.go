// Package bytearray implements picox's bounded growable byte buffer:
// a Vec<u8>-shaped container. No other package in this module uses it;
// ramfs content chunks come from alloc/pico instead.
//
// Grounded on the picox C library's xbyte_array.h. Two
// construction modes survive: Borrow wraps a fixed-capacity buffer that
// asserts rather than grows, Owned starts from nothing and doubles its
// capacity on overflow the way the C original's realloc-backed mode
// does.
package bytearray

import "github.com/maskedw/picox-sub001/xlog"

// Array is a growable byte buffer with borrow or owned-heap semantics.
type Array struct {
	data   []byte
	borrow bool // true: Borrow mode, capacity is fixed and never grows
}

// Borrow wraps buf as a fixed-capacity array: Size starts at 0,
// Capacity is len(buf), and any operation that would grow past
// Capacity is a caller bug (it asserts, matching the C original's
// "no auto-grow for borrowed memory").
func Borrow(buf []byte) *Array {
	return &Array{data: buf[:0:len(buf)], borrow: true}
}

// Owned returns an empty array that grows on demand, doubling capacity
// whenever an operation would overflow it.
func Owned() *Array {
	return &Array{}
}

// Size returns the number of bytes currently stored.
func (a *Array) Size() int { return len(a.data) }

// Capacity returns the number of bytes storable without growing.
func (a *Array) Capacity() int { return cap(a.data) }

// Empty reports whether Size() == 0.
func (a *Array) Empty() bool { return len(a.data) == 0 }

// Full reports whether Size() == Capacity().
func (a *Array) Full() bool { return len(a.data) == cap(a.data) }

// Data returns the backing slice; valid until the next mutating call.
func (a *Array) Data() []byte { return a.data }

// At returns the byte at index. Precondition: index < Size().
func (a *Array) At(index int) byte {
	xlog.Assert(index < len(a.data), "index < len(a.data)", "bytearray.At: index out of range")
	return a.data[index]
}

// Clear empties the array without releasing its backing storage.
func (a *Array) Clear() {
	a.data = a.data[:0]
}

// Reserve grows capacity to at least n, doubling as needed. A no-op in
// Borrow mode if n already fits; otherwise it asserts.
func (a *Array) Reserve(n int) {
	if n <= cap(a.data) {
		return
	}
	xlog.Assert(!a.borrow, "!a.borrow", "bytearray.Reserve: borrowed buffer cannot grow")
	newCap := cap(a.data) * 2
	if newCap < n {
		newCap = n
	}
	grown := make([]byte, len(a.data), newCap)
	copy(grown, a.data)
	a.data = grown
}

// ShrinkToFit releases any spare capacity beyond Size(). A no-op in
// Borrow mode.
func (a *Array) ShrinkToFit() {
	if a.borrow || cap(a.data) == len(a.data) {
		return
	}
	shrunk := make([]byte, len(a.data))
	copy(shrunk, a.data)
	a.data = shrunk
}

// PushBack appends one byte, growing if needed.
func (a *Array) PushBack(b byte) {
	a.PushBackN([]byte{b})
}

// PopBack removes and returns the last byte. Precondition: !Empty().
func (a *Array) PopBack() byte {
	xlog.Assert(len(a.data) > 0, "len(a.data) > 0", "bytearray.PopBack: empty array")
	b := a.data[len(a.data)-1]
	a.data = a.data[:len(a.data)-1]
	return b
}

// PopBackN removes the last n bytes. Precondition: n <= Size().
func (a *Array) PopBackN(n int) {
	xlog.Assert(n <= len(a.data), "n <= len(a.data)", "bytearray.PopBackN: n exceeds size")
	a.data = a.data[:len(a.data)-n]
}

// PushBackN appends src, growing if needed.
func (a *Array) PushBackN(src []byte) {
	a.Reserve(len(a.data) + len(src))
	a.data = append(a.data, src...)
}

// Fill sets every stored byte to v.
func (a *Array) Fill(v byte) {
	for i := range a.data {
		a.data[i] = v
	}
}

// InsertN inserts src at index, growing if needed. Precondition:
// index <= Size().
func (a *Array) InsertN(index int, src []byte) {
	xlog.Assert(index <= len(a.data), "index <= len(a.data)", "bytearray.InsertN: index out of range")
	a.Reserve(len(a.data) + len(src))
	a.data = a.data[:len(a.data)+len(src)]
	copy(a.data[index+len(src):], a.data[index:len(a.data)-len(src)])
	copy(a.data[index:], src)
}

// EraseN removes n bytes starting at index. Precondition:
// index+n <= Size().
func (a *Array) EraseN(index, n int) {
	xlog.Assert(index+n <= len(a.data), "index+n <= len(a.data)", "bytearray.EraseN: range out of bounds")
	copy(a.data[index:], a.data[index+n:])
	a.data = a.data[:len(a.data)-n]
}
