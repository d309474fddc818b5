// Package romfs implements picox's read-only packed-image filesystem
// (spec §4.6.2, §6 "ROM FS image format"): a fixed magic header
// followed by a root directory record, directory entries stored
// contiguously after their record, file content stored contiguously
// in the image. Every mutating operation returns xerr.Access or
// xerr.NotSupported; there is nothing to write through.
//
// Grounded on rclone's read-only backend posture (backend/memory
// before its write paths are reached) and on the fixed-offset,
// little-endian struct decode style common to archive-image readers:
// the image is parsed by indexing directly into the byte slice with
// encoding/binary, never copied into an intermediate tree.
package romfs

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/maskedw/picox-sub001/vfs"
	"github.com/maskedw/picox-sub001/vfs/xpath"
	"github.com/maskedw/picox-sub001/xerr"
	"github.com/maskedw/picox-sub001/xstream"
)

// Magic identifies a picox ROM FS image.
const Magic = "PXRF"

// Version is the only image format version this reader understands.
const Version uint32 = 1

// NameMax bounds a component name as stored in the image, independent
// of vfs.NameMax (an image is built once, offline, so its own naming
// budget is a property of the image format, not of the runtime vtable).
const NameMax = 63

const (
	headerSize  = 4 + 4 + 4 // magic + version + root offset
	nameField   = NameMax + 1
	entrySize   = nameField + 4 + 4 + 8 + 4 // name, type+pad, sizeOrChild, mtime, contentOffset
)

type entryType uint8

const (
	typeFile entryType = 0
	typeDir  entryType = 1
)

type dirEntry struct {
	name              string
	typ               entryType
	sizeOrChildOffset uint32
	mtime             time.Time
	contentOffset     uint32
}

// FS is a read-only filesystem over a packed image.
type FS struct {
	image []byte
	cwd   string
}

// Open parses image's header and returns a ready-to-use read-only
// filesystem. image is not copied; the caller must keep it alive and
// must not mutate it afterward.
func Open(image []byte) (*FS, error) {
	if len(image) < headerSize {
		return nil, xerr.Wrap(xerr.Broken, "romfs.Open: image too small for header")
	}
	if string(image[0:4]) != Magic {
		return nil, xerr.Wrap(xerr.Broken, "romfs.Open: bad magic")
	}
	version := binary.LittleEndian.Uint32(image[4:8])
	if version != Version {
		return nil, xerr.Wrap(xerr.Broken, "romfs.Open: unsupported image version %d", version)
	}
	return &FS{image: image, cwd: "/"}, nil
}

var _ vfs.Backend = (*FS)(nil)

func (fs *FS) Name() string { return "romfs" }

func (fs *FS) rootOffset() int {
	return int(binary.LittleEndian.Uint32(fs.image[8:12]))
}

func (fs *FS) readEntry(off int) dirEntry {
	b := fs.image[off : off+entrySize]
	nameBytes := b[0:nameField]
	n := 0
	for n < len(nameBytes) && nameBytes[n] != 0 {
		n++
	}
	typ := entryType(b[nameField])
	sizeOrChild := binary.LittleEndian.Uint32(b[nameField+4 : nameField+8])
	mtimeSec := int64(binary.LittleEndian.Uint64(b[nameField+8 : nameField+16]))
	contentOff := binary.LittleEndian.Uint32(b[nameField+16 : nameField+20])
	return dirEntry{
		name:              string(nameBytes[:n]),
		typ:               typ,
		sizeOrChildOffset: sizeOrChild,
		mtime:             time.Unix(mtimeSec, 0),
		contentOffset:     contentOff,
	}
}

// findInDir scans the directory record at dirOff for an entry named
// name. dirOff points at the record's entry-count field.
func (fs *FS) findInDir(dirOff int, name string) (dirEntry, bool) {
	count := binary.LittleEndian.Uint32(fs.image[dirOff : dirOff+4])
	base := dirOff + 4
	for i := 0; i < int(count); i++ {
		e := fs.readEntry(base + i*entrySize)
		if e.name == name {
			return e, true
		}
	}
	return dirEntry{}, false
}

func (fs *FS) resolveEntry(path string) (dirEntry, error) {
	canon, err := xpath.Resolve(fs.cwd, path)
	if err != nil {
		return dirEntry{}, err
	}
	if canon == "/" {
		return dirEntry{typ: typeDir, sizeOrChildOffset: uint32(fs.rootOffset())}, nil
	}

	dirOff := fs.rootOffset()
	comps := xpath.Split(canon)
	var e dirEntry
	for i, c := range comps {
		var ok bool
		e, ok = fs.findInDir(dirOff, c)
		if !ok {
			return dirEntry{}, xerr.Wrap(xerr.NoEntry, "romfs: %q not found", path)
		}
		if i < len(comps)-1 {
			if e.typ != typeDir {
				return dirEntry{}, xerr.Wrap(xerr.Invalid, "romfs: %q is not a directory", path)
			}
			dirOff = int(e.sizeOrChildOffset)
		}
	}
	return e, nil
}

type fileHandle struct {
	entry   dirEntry
	pos     int
	lastErr error
}

// fail records err as the handle's last error and returns it.
func (fh *fileHandle) fail(err error) error {
	fh.lastErr = err
	return err
}

type dirHandle struct {
	dirOff int
	index  int
}

func (fs *FS) Open(path string, flag vfs.OpenFlag) (any, error) {
	if flag&(vfs.FlagWrite|vfs.FlagCreate|vfs.FlagTruncate|vfs.FlagAppend) != 0 {
		return nil, xerr.Wrap(xerr.Access, "romfs: %q is read-only", path)
	}
	e, err := fs.resolveEntry(path)
	if err != nil {
		return nil, err
	}
	if e.typ != typeFile {
		return nil, xerr.Wrap(xerr.Invalid, "romfs: %q is a directory", path)
	}
	return &fileHandle{entry: e}, nil
}

func (fs *FS) Close(h any) error {
	_ = h.(*fileHandle)
	return nil
}

func (fs *FS) Read(h any, p []byte) (int, error) {
	fh := h.(*fileHandle)
	size := int(fh.entry.sizeOrChildOffset)
	if fh.pos >= size {
		return 0, io.EOF
	}
	avail := size - fh.pos
	n := len(p)
	if n > avail {
		n = avail
	}
	start := int(fh.entry.contentOffset) + fh.pos
	copy(p[:n], fs.image[start:start+n])
	fh.pos += n
	return n, nil
}

func (fs *FS) Write(h any, p []byte) (int, error) {
	fh, _ := h.(*fileHandle)
	err := xerr.Wrap(xerr.Access, "romfs: write not supported")
	if fh != nil {
		return 0, fh.fail(err)
	}
	return 0, err
}

// Seek repositions within the file per whence. Seeking past the end of
// the entry is forbidden (REDESIGN FLAGS, per spec §9): unlike ramfs, a
// read-only packed image has no room to grow a file into, so there is
// no gap to fill and no destination for an out-of-range position.
func (fs *FS) Seek(h any, offset int64, whence xstream.Whence) (int64, error) {
	fh := h.(*fileHandle)
	var base int64
	switch whence {
	case xstream.SeekSet:
		base = 0
	case xstream.SeekCur:
		base = int64(fh.pos)
	case xstream.SeekEnd:
		base = int64(fh.entry.sizeOrChildOffset)
	default:
		return 0, fh.fail(xerr.Invalid)
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, fh.fail(xerr.Wrap(xerr.Range, "romfs: seek before start"))
	}
	if newPos > int64(fh.entry.sizeOrChildOffset) {
		return 0, fh.fail(xerr.Wrap(xerr.NotSupported, "romfs: seek past end of file"))
	}
	fh.pos = int(newPos)
	return newPos, nil
}

func (fs *FS) Tell(h any) (int64, error) {
	return int64(h.(*fileHandle).pos), nil
}

func (fs *FS) Flush(h any) error {
	_ = h.(*fileHandle)
	return nil
}

func (fs *FS) ErrorString(h any) string {
	fh, ok := h.(*fileHandle)
	if !ok || fh.lastErr == nil {
		return ""
	}
	return fh.lastErr.Error()
}

func (fs *FS) Mkdir(path string) error {
	return xerr.Wrap(xerr.NotSupported, "romfs: mkdir not supported")
}

func (fs *FS) OpenDir(path string) (any, error) {
	e, err := fs.resolveEntry(path)
	if err != nil {
		return nil, err
	}
	if e.typ != typeDir {
		return nil, xerr.Wrap(xerr.Invalid, "romfs: %q is not a directory", path)
	}
	return &dirHandle{dirOff: int(e.sizeOrChildOffset)}, nil
}

func (fs *FS) ReadDir(h any) (vfs.DirEnt, error) {
	dh := h.(*dirHandle)
	count := binary.LittleEndian.Uint32(fs.image[dh.dirOff : dh.dirOff+4])
	if dh.index >= int(count) {
		return vfs.DirEnt{}, io.EOF
	}
	e := fs.readEntry(dh.dirOff + 4 + dh.index*entrySize)
	dh.index++
	return vfs.DirEnt{Name: e.name}, nil
}

func (fs *FS) CloseDir(h any) error {
	_ = h.(*dirHandle)
	return nil
}

func (fs *FS) Chdir(path string) error {
	e, err := fs.resolveEntry(path)
	if err != nil {
		return err
	}
	if e.typ != typeDir {
		return xerr.Wrap(xerr.Invalid, "romfs: %q is not a directory", path)
	}
	canon, err := xpath.Resolve(fs.cwd, path)
	if err != nil {
		return err
	}
	fs.cwd = canon
	return nil
}

func (fs *FS) Getwd() (string, error) {
	return fs.cwd, nil
}

func (fs *FS) Remove(path string) error {
	return xerr.Wrap(xerr.NotSupported, "romfs: remove not supported")
}

func (fs *FS) Rename(oldpath, newpath string) error {
	return xerr.Wrap(xerr.NotSupported, "romfs: rename not supported")
}

func (fs *FS) Stat(path string) (vfs.Stat, error) {
	e, err := fs.resolveEntry(path)
	if err != nil {
		return vfs.Stat{}, err
	}
	if e.typ == typeDir {
		return vfs.Stat{Mode: vfs.ModeDirectory}, nil
	}
	return vfs.Stat{ModTime: e.mtime, Size: int64(e.sizeOrChildOffset), Mode: vfs.ModeRegular}, nil
}

func (fs *FS) Utime(path string, mtime time.Time) error {
	return xerr.Wrap(xerr.NotSupported, "romfs: utime not supported")
}
