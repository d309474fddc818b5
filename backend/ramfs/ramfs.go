// Package ramfs implements picox's in-RAM tree filesystem (spec
// §4.6.1): a tree of directory and file nodes allocated from one
// alloc/pico.Allocator per filesystem instance. A directory holds its
// children in an xlist; a file holds its content as a list of
// fixed-size chunks plus a logical byte count, so seeking past the
// current size and writing there produces a read-as-zero gap without
// any special-casing (freshly allocated chunks are zeroed up front).
//
// Grounded on backend/memory/memory.go's bucketsInfo/objectData
// tree-of-maps shape, adapted from memory's flat bucket namespace to a
// real directory tree (picox needs nested directories, not an
// object-storage-style flat key space) and from memory's
// sync.RWMutex-guarded access to unguarded access: §5 mandates "no
// internal locking", the caller serializes access externally.
package ramfs

import (
	"io"
	"time"

	"github.com/maskedw/picox-sub001/alloc/pico"
	"github.com/maskedw/picox-sub001/vfs"
	"github.com/maskedw/picox-sub001/vfs/xpath"
	"github.com/maskedw/picox-sub001/xerr"
	"github.com/maskedw/picox-sub001/xlist"
	"github.com/maskedw/picox-sub001/xstream"
)

const defaultChunkSize = 256

type kind int

const (
	kindFile kind = iota
	kindDir
)

// node is one tree entry. Every node (other than root) is linked into
// its parent's children list via link; link.Value == node.
type node struct {
	name   string
	kind   kind
	mtime  time.Time
	parent *node
	link   *xlist.Node[*node]

	children *xlist.List[*node] // kindDir only

	chunks    [][]byte // kindFile only
	size      int
	chunkSize int
}

// FS is one RAM filesystem instance.
type FS struct {
	alloc     *pico.Allocator
	chunkSize int
	root      *node
	cwd       string
}

// New creates a filesystem backed by heap, allocating file content in
// chunkSize-byte pieces from a dedicated pico.Allocator over heap. A
// nil heap is not accepted: callers wanting a freestanding instance
// pass make([]byte, size) themselves, matching spec §6's "backing
// memory or null to malloc" configuration surface collapsed onto a
// caller-supplied slice (Go has no implicit malloc-on-nil backend).
func New(heap []byte, chunkSize int) *FS {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	root := &node{name: "", kind: kindDir, children: xlist.New[*node](), mtime: time.Now()}
	return &FS{
		alloc:     pico.New(heap, 8),
		chunkSize: chunkSize,
		root:      root,
		cwd:       "/",
	}
}

var _ vfs.Backend = (*FS)(nil)

func (fs *FS) Name() string { return "ramfs" }

func (fs *FS) findChild(dir *node, name string) *node {
	for n := dir.children.Front(); n != dir.children.End(); n = n.Next() {
		if n.Value.name == name {
			return n.Value
		}
	}
	return nil
}

// resolveParent canonicalizes path and walks the tree down to (but not
// including) its final component, returning the parent directory node
// and the final component's name.
func (fs *FS) resolveParent(path string) (*node, string, error) {
	canon, err := xpath.Resolve(fs.cwd, path)
	if err != nil {
		return nil, "", err
	}
	comps := xpath.Split(canon)
	if len(comps) == 0 {
		return nil, "", xerr.Wrap(xerr.Invalid, "ramfs: %q has no parent", path)
	}
	dir := fs.root
	for _, c := range comps[:len(comps)-1] {
		child := fs.findChild(dir, c)
		if child == nil {
			return nil, "", xerr.Wrap(xerr.NoEntry, "ramfs: %q not found", path)
		}
		if child.kind != kindDir {
			return nil, "", xerr.Wrap(xerr.Invalid, "ramfs: %q is not a directory", path)
		}
		dir = child
	}
	return dir, comps[len(comps)-1], nil
}

// resolveNode canonicalizes path and walks the tree down to the named
// node itself, or returns xerr.NoEntry.
func (fs *FS) resolveNode(path string) (*node, error) {
	canon, err := xpath.Resolve(fs.cwd, path)
	if err != nil {
		return nil, err
	}
	if canon == "/" {
		return fs.root, nil
	}
	dir := fs.root
	comps := xpath.Split(canon)
	for i, c := range comps {
		child := fs.findChild(dir, c)
		if child == nil {
			return nil, xerr.Wrap(xerr.NoEntry, "ramfs: %q not found", path)
		}
		if i < len(comps)-1 && child.kind != kindDir {
			return nil, xerr.Wrap(xerr.Invalid, "ramfs: %q is not a directory", path)
		}
		dir = child
	}
	return dir, nil
}

type fileHandle struct {
	node    *node
	pos     int
	flag    vfs.OpenFlag
	lastErr error
}

type dirHandle struct {
	node   *node
	cursor *xlist.Node[*node]
}

func (fs *FS) Open(path string, flag vfs.OpenFlag) (any, error) {
	parent, name, err := fs.resolveParent(path)
	if err != nil {
		return nil, err
	}

	n := fs.findChild(parent, name)
	if n != nil {
		if n.kind != kindFile {
			return nil, xerr.Wrap(xerr.Invalid, "ramfs: %q is a directory", path)
		}
		if flag&vfs.FlagTruncate != 0 {
			fs.freeChunks(n)
			n.size = 0
		}
	} else {
		if flag&vfs.FlagCreate == 0 {
			return nil, xerr.Wrap(xerr.NoEntry, "ramfs: %q not found", path)
		}
		n = &node{name: name, kind: kindFile, parent: parent, chunkSize: fs.chunkSize, mtime: time.Now()}
		n.link = xlist.NewNode(n)
		parent.children.PushBack(n.link)
	}

	fh := &fileHandle{node: n, flag: flag}
	if flag&vfs.FlagAppend != 0 {
		fh.pos = n.size
	}
	return fh, nil
}

func (fs *FS) freeChunks(n *node) {
	for _, c := range n.chunks {
		fs.alloc.Deallocate(c)
	}
	n.chunks = nil
}

func (fs *FS) Close(h any) error {
	_ = h.(*fileHandle)
	return nil
}

func (fs *FS) Read(h any, p []byte) (int, error) {
	fh := h.(*fileHandle)
	if fh.flag&vfs.FlagRead == 0 {
		return 0, fh.fail(xerr.Wrap(xerr.Access, "ramfs: file not opened for read"))
	}
	n, err := fh.node.readAt(fh.pos, p)
	fh.pos += n
	if err != nil && err != io.EOF {
		fh.lastErr = err
	}
	return n, err
}

func (fs *FS) Write(h any, p []byte) (int, error) {
	fh := h.(*fileHandle)
	if fh.flag&vfs.FlagWrite == 0 {
		return 0, fh.fail(xerr.Wrap(xerr.Access, "ramfs: file not opened for write"))
	}
	n, err := fh.node.writeAt(fs, fh.pos, p)
	fh.pos += n
	fh.node.mtime = time.Now()
	if err != nil {
		fh.lastErr = err
	}
	return n, err
}

func (fs *FS) Seek(h any, offset int64, whence xstream.Whence) (int64, error) {
	fh := h.(*fileHandle)
	var base int64
	switch whence {
	case xstream.SeekSet:
		base = 0
	case xstream.SeekCur:
		base = int64(fh.pos)
	case xstream.SeekEnd:
		base = int64(fh.node.size)
	default:
		return 0, fh.fail(xerr.Invalid)
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, fh.fail(xerr.Wrap(xerr.Range, "ramfs: seek before start"))
	}
	fh.pos = int(newPos)
	return newPos, nil
}

// fail records err as the handle's last error and returns it, so a
// later ErrorString call can report what went wrong.
func (fh *fileHandle) fail(err error) error {
	fh.lastErr = err
	return err
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

func (n *node) ensureChunks(fs *FS, uptoIndex int) error {
	for len(n.chunks) <= uptoIndex {
		buf, err := fs.alloc.Allocate(n.chunkOr(fs))
		if err != nil {
			return xerr.Wrap(xerr.NoMemory, "ramfs: out of space for file content")
		}
		for i := range buf {
			buf[i] = 0
		}
		n.chunks = append(n.chunks, buf)
	}
	return nil
}

// chunkOr returns n's own chunk size, falling back to fs's default for
// nodes created before chunkSize was set (defensive only; New always
// sets it).
func (n *node) chunkOr(fs *FS) int {
	if n.chunkSize > 0 {
		return n.chunkSize
	}
	return fs.chunkSize
}

func (n *node) writeAt(fs *FS, pos int, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	cs := n.chunkOr(fs)
	endIndex := (pos + len(p) - 1) / cs
	if err := n.ensureChunks(fs, endIndex); err != nil {
		return 0, err
	}
	written := 0
	for written < len(p) {
		cur := pos + written
		idx := cur / cs
		off := cur % cs
		chunk := n.chunks[idx]
		room := cs - off
		toCopy := len(p) - written
		if toCopy > room {
			toCopy = room
		}
		copy(chunk[off:off+toCopy], p[written:written+toCopy])
		written += toCopy
	}
	if pos+written > n.size {
		n.size = pos + written
	}
	return written, nil
}

func (n *node) readAt(pos int, p []byte) (int, error) {
	if pos >= n.size {
		return 0, io.EOF
	}
	avail := n.size - pos
	toRead := len(p)
	if toRead > avail {
		toRead = avail
	}
	cs := n.chunkSize
	read := 0
	for read < toRead {
		cur := pos + read
		idx := cur / cs
		off := cur % cs
		chunk := n.chunks[idx]
		room := cs - off
		want := toRead - read
		if want > room {
			want = room
		}
		copy(p[read:read+want], chunk[off:off+want])
		read += want
	}
	return read, nil
}

func (fs *FS) Mkdir(path string) error {
	parent, name, err := fs.resolveParent(path)
	if err != nil {
		return err
	}
	if fs.findChild(parent, name) != nil {
		return xerr.Wrap(xerr.Exist, "ramfs: %q already exists", path)
	}
	n := &node{name: name, kind: kindDir, parent: parent, children: xlist.New[*node](), mtime: time.Now()}
	n.link = xlist.NewNode(n)
	parent.children.PushBack(n.link)
	return nil
}

func (fs *FS) OpenDir(path string) (any, error) {
	n, err := fs.resolveNode(path)
	if err != nil {
		return nil, err
	}
	if n.kind != kindDir {
		return nil, xerr.Wrap(xerr.Invalid, "ramfs: %q is not a directory", path)
	}
	return &dirHandle{node: n, cursor: n.children.Front()}, nil
}

func (fs *FS) ReadDir(h any) (vfs.DirEnt, error) {
	dh := h.(*dirHandle)
	if dh.cursor == dh.node.children.End() {
		return vfs.DirEnt{}, io.EOF
	}
	ent := vfs.DirEnt{Name: dh.cursor.Value.name}
	dh.cursor = dh.cursor.Next()
	return ent, nil
}

func (fs *FS) CloseDir(h any) error {
	_ = h.(*dirHandle)
	return nil
}

func (fs *FS) Chdir(path string) error {
	n, err := fs.resolveNode(path)
	if err != nil {
		return err
	}
	if n.kind != kindDir {
		return xerr.Wrap(xerr.Invalid, "ramfs: %q is not a directory", path)
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
	n, err := fs.resolveNode(path)
	if err != nil {
		return err
	}
	if n == fs.root {
		return xerr.Wrap(xerr.Access, "ramfs: cannot remove root")
	}
	if n.kind == kindDir && !n.children.Empty() {
		return xerr.Wrap(xerr.Exist, "ramfs: %q is not empty", path)
	}
	if n.kind == kindFile {
		fs.freeChunks(n)
	}
	xlist.Unlink(n.link)
	return nil
}

func (fs *FS) Rename(oldpath, newpath string) error {
	n, err := fs.resolveNode(oldpath)
	if err != nil {
		return err
	}
	if n == fs.root {
		return xerr.Wrap(xerr.Access, "ramfs: cannot rename root")
	}
	newParent, newName, err := fs.resolveParent(newpath)
	if err != nil {
		return err
	}
	if fs.findChild(newParent, newName) != nil {
		return xerr.Wrap(xerr.Exist, "ramfs: %q already exists", newpath)
	}
	xlist.Unlink(n.link)
	n.name = newName
	n.parent = newParent
	newParent.children.PushBack(n.link)
	return nil
}

func (fs *FS) Stat(path string) (vfs.Stat, error) {
	n, err := fs.resolveNode(path)
	if err != nil {
		return vfs.Stat{}, err
	}
	mode := vfs.ModeRegular
	size := int64(n.size)
	if n.kind == kindDir {
		mode = vfs.ModeDirectory
		size = 0
	}
	return vfs.Stat{ModTime: n.mtime, Size: size, Mode: mode}, nil
}

func (fs *FS) Utime(path string, mtime time.Time) error {
	n, err := fs.resolveNode(path)
	if err != nil {
		return err
	}
	n.mtime = mtime
	return nil
}
