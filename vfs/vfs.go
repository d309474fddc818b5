// Package vfs implements picox's virtual filesystem facade: a single
// Backend vtable (spec §4.4) plus generic composite operations
// (CopyFile, CopyTree, RmTree, MakeDirs, WalkTree) built on top of it.
//
// Grounded on rclone's fs.Fs/fs.Object interface-as-vtable pattern
// (backend/union/union.go, backend/memory/memory.go): one Go interface
// per backend capability takes the place of the C original's struct of
// function pointers. There is no capability query: a backend that lacks
// an operation (romfs's writes, for instance) returns an error from it.
package vfs

import (
	"io"
	"time"

	"github.com/maskedw/picox-sub001/xerr"
	"github.com/maskedw/picox-sub001/xstream"
)

// NameMax bounds a single path component (spec §3, §6).
const NameMax = 255

// OpenFlag is the bitmask produced by ParseMode, forwarded verbatim to
// Backend.Open.
type OpenFlag int

const (
	FlagRead OpenFlag = 1 << iota
	FlagWrite
	FlagCreate
	FlagTruncate
	FlagAppend
)

// ParseMode translates a textual open mode (spec §6: r, r+, w, w+, a,
// a+, with an ignored trailing "b") into an OpenFlag bitmask.
func ParseMode(mode string) (OpenFlag, error) {
	m := mode
	if len(m) > 0 && m[len(m)-1] == 'b' {
		m = m[:len(m)-1]
	}
	switch m {
	case "r":
		return FlagRead, nil
	case "r+":
		return FlagRead | FlagWrite, nil
	case "w":
		return FlagWrite | FlagCreate | FlagTruncate, nil
	case "w+":
		return FlagRead | FlagWrite | FlagCreate | FlagTruncate, nil
	case "a":
		return FlagWrite | FlagCreate | FlagAppend, nil
	case "a+":
		return FlagRead | FlagWrite | FlagCreate | FlagAppend, nil
	default:
		return 0, xerr.Wrap(xerr.Invalid, "vfs.ParseMode: unrecognized mode %q", mode)
	}
}

// FileMode classifies a Stat entry; spec §4.4's XSTAT_MODE_TYPEMASK
// collapsed to a two-value Go enum since picox has no other file
// types (no symlinks, no devices).
type FileMode uint8

const (
	ModeRegular FileMode = iota
	ModeDirectory
)

func (m FileMode) IsRegular() bool  { return m == ModeRegular }
func (m FileMode) IsDirectory() bool { return m == ModeDirectory }

// Stat describes one filesystem entry.
type Stat struct {
	ModTime time.Time
	Size    int64
	Mode    FileMode
}

// DirEnt is one entry returned by ReadDir.
type DirEnt struct {
	Name string
}

// Backend is the per-filesystem vtable picox dispatches through. File
// and directory handles are opaque `any` values scoped to the backend
// that produced them, matching the C original's `void* m_fs` handle
// shape without requiring a shared base struct.
type Backend interface {
	Name() string

	Open(path string, flag OpenFlag) (any, error)
	Close(h any) error
	Read(h any, p []byte) (int, error)
	Write(h any, p []byte) (int, error)
	Seek(h any, offset int64, whence xstream.Whence) (int64, error)
	Tell(h any) (int64, error)
	Flush(h any) error

	Mkdir(path string) error
	OpenDir(path string) (any, error)
	ReadDir(h any) (DirEnt, error)
	CloseDir(h any) error

	Chdir(path string) error
	Getwd() (string, error)

	Remove(path string) error
	Rename(oldpath, newpath string) error
	Stat(path string) (Stat, error)
	Utime(path string, mtime time.Time) error

	// ErrorString returns a human-readable description of the last
	// error observed on h (a handle returned by Open or OpenDir), or ""
	// if none has occurred yet. It is the vtable's error-string slot
	// (spec §4.2), needed so *File satisfies xstream.Stream.
	ErrorString(h any) string
}

// File is an open file handle bound to the backend that produced it.
// It satisfies xstream.Stream directly, so the stream-adapter
// composite ops (Gets, Puts, Printf, ...) operate on a *File with no
// further wrapping.
type File struct {
	backend Backend
	handle  any
}

var _ xstream.Stream = (*File)(nil)

// Dir is an open directory handle bound to the backend that produced
// it.
type Dir struct {
	backend Backend
	handle  any
}

// Open opens path on b per flag.
func Open(b Backend, path string, flag OpenFlag) (*File, error) {
	h, err := b.Open(path, flag)
	if err != nil {
		return nil, err
	}
	return &File{backend: b, handle: h}, nil
}

func Close(f *File) error { return f.backend.Close(f.handle) }

func (f *File) Read(p []byte) (int, error)  { return f.backend.Read(f.handle, p) }
func (f *File) Write(p []byte) (int, error) { return f.backend.Write(f.handle, p) }
func (f *File) Seek(offset int64, whence xstream.Whence) (int64, error) {
	return f.backend.Seek(f.handle, offset, whence)
}
func (f *File) Tell() (int64, error) { return f.backend.Tell(f.handle) }
func (f *File) Flush() error         { return f.backend.Flush(f.handle) }
func (f *File) Close() error         { return Close(f) }
func (f *File) ErrorString() string  { return f.backend.ErrorString(f.handle) }

// Read, Write, Seek, Tell, Flush, ErrorString are free functions
// mirroring the C facade (xvfs_read et al) for callers that prefer not
// to use the method set directly.
func Read(f *File, p []byte) (int, error)  { return f.Read(p) }
func Write(f *File, p []byte) (int, error) { return f.Write(p) }
func Seek(f *File, offset int64, whence xstream.Whence) (int64, error) {
	return f.Seek(offset, whence)
}
func Tell(f *File) (int64, error) { return f.Tell() }
func Flush(f *File) error         { return f.Flush() }
func ErrorString(f *File) string  { return f.ErrorString() }

func Mkdir(b Backend, path string) error { return b.Mkdir(path) }

func OpenDir(b Backend, path string) (*Dir, error) {
	h, err := b.OpenDir(path)
	if err != nil {
		return nil, err
	}
	return &Dir{backend: b, handle: h}, nil
}

// ReadDir returns the next entry, or io.EOF once exhausted.
func ReadDir(d *Dir) (DirEnt, error) { return d.backend.ReadDir(d.handle) }

func CloseDir(d *Dir) error { return d.backend.CloseDir(d.handle) }

func Chdir(b Backend, path string) error    { return b.Chdir(path) }
func Getwd(b Backend) (string, error)       { return b.Getwd() }
func Remove(b Backend, path string) error   { return b.Remove(path) }
func Rename(b Backend, oldpath, newpath string) error {
	return b.Rename(oldpath, newpath)
}
func StatPath(b Backend, path string) (Stat, error) { return b.Stat(path) }
func Utime(b Backend, path string, mtime time.Time) error {
	return b.Utime(path, mtime)
}

// Exists reports whether path names any entry, mapping a not-found
// error to false rather than propagating it (spec §4.4).
func Exists(b Backend, path string) bool {
	_, err := b.Stat(path)
	return err == nil
}

// IsDirectory reports whether path exists and is a directory.
func IsDirectory(b Backend, path string) bool {
	st, err := b.Stat(path)
	return err == nil && st.Mode.IsDirectory()
}

// IsRegular reports whether path exists and is a regular file.
func IsRegular(b Backend, path string) bool {
	st, err := b.Stat(path)
	return err == nil && st.Mode.IsRegular()
}

// CopyFile copies src to dst on the same backend, opening both and
// streaming through a scratch buffer (spec §4.4: "on error the partial
// destination remains").
func CopyFile(b Backend, src, dst string) error {
	in, err := Open(b, src, FlagRead)
	if err != nil {
		return err
	}
	defer Close(in)

	out, err := Open(b, dst, FlagWrite|FlagCreate|FlagTruncate)
	if err != nil {
		return err
	}
	defer Close(out)

	return CopyFile2(in, out)
}

// CopyFile2 copies from src to dst through a scratch buffer, both
// already open. Used by CopyFile and by callers bridging two distinct
// backends (e.g. union's cross-FS rename fallback).
func CopyFile2(src, dst *File) error {
	buf := make([]byte, 32*1024)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// CopyTree recursively copies the directory tree rooted at src to dst.
// dst must not already exist.
func CopyTree(b Backend, src, dst string) error {
	if Exists(b, dst) {
		return xerr.Wrap(xerr.Exist, "vfs.CopyTree: destination %q exists", dst)
	}
	if err := Mkdir(b, dst); err != nil {
		return err
	}

	d, err := OpenDir(b, src)
	if err != nil {
		return err
	}
	defer CloseDir(d)

	for {
		ent, err := ReadDir(d)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		childSrc := joinPath(src, ent.Name)
		childDst := joinPath(dst, ent.Name)

		st, err := b.Stat(childSrc)
		if err != nil {
			return err
		}
		if st.Mode.IsDirectory() {
			if err := CopyTree(b, childSrc, childDst); err != nil {
				return err
			}
		} else {
			if err := CopyFile(b, childSrc, childDst); err != nil {
				return err
			}
		}
	}
}

// RmTree removes path and everything beneath it via a post-order walk:
// every entry is removed before the directory holding it.
func RmTree(b Backend, path string) error {
	st, err := b.Stat(path)
	if err != nil {
		return err
	}
	if st.Mode.IsDirectory() {
		d, err := OpenDir(b, path)
		if err != nil {
			return err
		}
		var names []string
		for {
			ent, err := ReadDir(d)
			if err == io.EOF {
				break
			}
			if err != nil {
				CloseDir(d)
				return err
			}
			names = append(names, ent.Name)
		}
		if err := CloseDir(d); err != nil {
			return err
		}
		for _, name := range names {
			if err := RmTree(b, joinPath(path, name)); err != nil {
				return err
			}
		}
	}
	return Remove(b, path)
}

// MakeDirs walks path component by component from root, calling Mkdir
// on each. If the final component already exists, that is tolerated
// iff existOK.
func MakeDirs(b Backend, path string, existOK bool) error {
	if path == "" || path == "/" {
		return nil
	}
	var built string
	components := splitPath(path)
	for i, c := range components {
		built += "/" + c
		err := Mkdir(b, built)
		if err == nil {
			continue
		}
		if xerr.CodeOf(err) == xerr.CodeOf(xerr.Exist) {
			last := i == len(components)-1
			if last && !existOK {
				return err
			}
			continue
		}
		return err
	}
	return nil
}

// TreeWalker is called once per entry during WalkTree. Returning false
// aborts the traversal; WalkTree then returns nil (spec §4.4: "walker
// returning false aborts").
type TreeWalker func(path string, st Stat, ent DirEnt) bool

// WalkTree performs a pre-order traversal of the tree rooted at path,
// invoking walker for every entry found (not for path itself).
func WalkTree(b Backend, path string, walker TreeWalker) error {
	aborted, err := walkTree(b, path, walker)
	_ = aborted
	return err
}

func walkTree(b Backend, path string, walker TreeWalker) (bool, error) {
	d, err := OpenDir(b, path)
	if err != nil {
		return false, err
	}
	defer CloseDir(d)

	for {
		ent, err := ReadDir(d)
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		childPath := joinPath(path, ent.Name)
		st, err := b.Stat(childPath)
		if err != nil {
			return false, err
		}
		if !walker(childPath, st, ent) {
			return false, nil
		}
		if st.Mode.IsDirectory() {
			cont, err := walkTree(b, childPath, walker)
			if err != nil {
				return false, err
			}
			if !cont {
				return false, nil
			}
		}
	}
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func splitPath(path string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				out = append(out, path[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// Gets, Putc, Puts, Printf, Vprintf are stream-adapter composite ops
// (spec §4.4) built on xstream now that *File satisfies xstream.Stream.
func Gets(f *File, max int) (string, bool, error) { return xstream.Gets(f, max) }
func Putc(f *File, c byte) error                  { return xstream.Putc(f, c) }
func Puts(f *File, s string) (int, error)         { return xstream.Puts(f, s) }
func Printf(f *File, format string, args ...any) (int, error) {
	return xstream.Printf(f, format, args...)
}
func Vprintf(f *File, format string, args []any) (int, error) {
	return xstream.Printf(f, format, args...)
}
