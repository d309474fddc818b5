package xstream

import (
	"io"

	"github.com/maskedw/picox-sub001/xerr"
)

// MemStream wraps a byte slice as a Stream. Reads are bounded by the
// logical size (len(buf)); writes grow size up to capacity and then
// fail silently (zero bytes written, no error) per spec. Seek is
// bounded to [0, capacity].
type MemStream struct {
	buf      []byte // logical content, len(buf) == size
	capacity int
	pos      int
	lastErr  error
}

// NewMemStream wraps mem: the first size bytes are the initial
// readable content, capacity bounds how far size may grow via Write or
// Seek. If cap(mem) is smaller than capacity, mem is copied into a new
// buffer of that capacity.
func NewMemStream(mem []byte, size, capacity int) *MemStream {
	if cap(mem) < capacity {
		grown := make([]byte, capacity)
		copy(grown, mem)
		mem = grown
	}
	return &MemStream{buf: mem[:size:capacity], capacity: capacity}
}

func (m *MemStream) Read(dst []byte) (int, error) {
	if m.pos >= len(m.buf) {
		m.lastErr = io.EOF
		return 0, io.EOF
	}
	n := copy(dst, m.buf[m.pos:])
	m.pos += n
	return n, nil
}

func (m *MemStream) Write(src []byte) (int, error) {
	if m.pos > m.capacity {
		return 0, nil
	}
	room := m.capacity - m.pos
	n := len(src)
	if n > room {
		n = room
	}
	if m.pos+n > len(m.buf) {
		grown := m.buf[:m.pos:m.capacity]
		m.buf = append(grown, make([]byte, m.pos+n-len(grown))...)
	}
	copy(m.buf[m.pos:m.pos+n], src[:n])
	m.pos += n
	return n, nil
}

func (m *MemStream) Seek(offset int64, whence Whence) (int64, error) {
	var base int64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = int64(m.pos)
	case SeekEnd:
		base = int64(len(m.buf))
	default:
		m.lastErr = xerr.Invalid
		return 0, xerr.Invalid
	}
	newPos := base + offset
	if newPos < 0 || newPos > int64(m.capacity) {
		m.lastErr = xerr.Range
		return 0, xerr.Range
	}
	m.pos = int(newPos)
	return newPos, nil
}

func (m *MemStream) Tell() (int64, error) { return int64(m.pos), nil }
func (m *MemStream) Flush() error         { return nil }
func (m *MemStream) Close() error         { return nil }

// ErrorString reports the last error Read or Seek observed, or "" if
// the stream has never failed.
func (m *MemStream) ErrorString() string {
	if m.lastErr == nil {
		return ""
	}
	return m.lastErr.Error()
}

// Bytes returns the current logical content.
func (m *MemStream) Bytes() []byte { return m.buf }
