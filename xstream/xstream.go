// Package xstream provides the polymorphic byte-stream abstraction the
// rest of picox is built on: a single interface any backend (memory,
// file, serial port) can satisfy, plus a line-reader and printf-style
// adapters layered on top of it.
//
// Where the C original hangs a vtable of function pointers off a tagged
// struct, Go interface satisfaction does the same job for free: Stream
// below is io.Reader + io.Writer, a Close with io.Closer's signature, a
// Seek taking this package's Whence (so not io.Seeker), and the
// operations the stdlib doesn't name (Tell, Flush, ErrorString).
package xstream

import (
	"fmt"
	"io"

	"github.com/maskedw/picox-sub001/xerr"
)

// Whence selects the reference point for Seek, matching io.SeekStart
// et al numerically so backends may embed the stdlib constants directly.
type Whence int

const (
	SeekSet Whence = iota
	SeekCur
	SeekEnd
)

// Stream is the picox vtable: read, write, seek, tell, flush, close,
// error-string. This package supplies no default implementations;
// NotSupported below is the error value for a Read/Write/Seek/Tell that
// a backend does not support.
type Stream interface {
	io.Reader
	io.Writer

	// Seek repositions the stream per whence and returns the new
	// absolute offset. Whether seeking past the end is permitted is
	// backend-defined (MemStream allows it up to its capacity, romfs
	// rejects it); where it is, a subsequent Write fills the gap with
	// backend-defined bytes.
	Seek(offset int64, whence Whence) (int64, error)

	// Tell returns the current position.
	Tell() (int64, error)

	// Flush forces any buffered bytes downstream.
	Flush() error

	// Close flushes then releases backend resources. Idempotent.
	Close() error

	// ErrorString returns a human-readable description of the last
	// error this stream observed, or "" if none has occurred yet.
	ErrorString() string
}

// NotSupported is returned by a Stream method a given backend omits,
// mirroring the C vtable's "unset pointer defaults to NOT_SUPPORTED".
var NotSupported = xerr.NotSupported

// Printf formats per fmt and writes the result to s, the idiomatic
// collapse of picox's printf_to_stream family onto fmt.Fprintf now that
// the stream already satisfies io.Writer.
func Printf(s Stream, format string, args ...any) (int, error) {
	return fmt.Fprintf(s, format, args...)
}

// Puts writes str followed by a newline.
func Puts(s Stream, str string) (int, error) {
	n, err := io.WriteString(s, str)
	if err != nil {
		return n, err
	}
	m, err := io.WriteString(s, "\n")
	return n + m, err
}

// Putc writes a single byte.
func Putc(s Stream, c byte) error {
	_, err := s.Write([]byte{c})
	return err
}

// Gets reads one line, stopping at '\n' or EOF and stripping a trailing
// '\r'. overflow reports whether the line was truncated to fit max
// bytes; the returned line never exceeds max bytes whether or not it
// overflowed. io.EOF with an empty line and no bytes read signals a
// clean end of stream.
func Gets(s Stream, max int) (line string, overflow bool, err error) {
	buf := make([]byte, 0, max)
	one := make([]byte, 1)
	for {
		n, rerr := s.Read(one)
		if n == 1 {
			c := one[0]
			if c == '\n' {
				return string(buf), false, nil
			}
			if c == '\r' {
				continue
			}
			if len(buf) >= max {
				overflow = true
				// The caller already has a full buffer; discard the
				// rest of the line up to '\n' or EOF so the next Gets
				// call starts at the next line.
				if err := drainLine(s); err != nil && err != io.EOF {
					return string(buf), true, err
				}
				return string(buf), true, nil
			}
			buf = append(buf, c)
			continue
		}
		if rerr == io.EOF || rerr == nil {
			if len(buf) == 0 {
				return "", false, io.EOF
			}
			return string(buf), false, nil
		}
		return string(buf), overflow, rerr
	}
}

func drainLine(s Stream) error {
	one := make([]byte, 1)
	for {
		n, err := s.Read(one)
		if n == 1 && one[0] == '\n' {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return io.EOF
		}
	}
}
