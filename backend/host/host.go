// Package host implements a thin POSIX passthrough backend over os.*.
// §4.1 row D lists "pluggable backends (in-RAM tree, ROM image, host
// POSIX)" but only ramfs/romfs/union get full treatment elsewhere;
// this backend fills that gap so the union FS has something real to
// mount alongside ramfs and romfs in an embedded Linux or hosted-test
// environment.
//
// Grounded on backend/local/local.go's os.Open/os.Stat/os.Mkdir
// wrapping into the fs.Fs vtable, adapted down to picox's smaller
// vtable. No xattrs, no hashing, no metadata system: those belong to
// rclone's remote-sync domain, not picox's embedded one.
package host

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/maskedw/picox-sub001/vfs"
	"github.com/maskedw/picox-sub001/vfs/xpath"
	"github.com/maskedw/picox-sub001/xerr"
	"github.com/maskedw/picox-sub001/xstream"
)

// FS roots picox paths at a directory in the host filesystem: the
// picox path "/" maps to Root, "/foo" to filepath.Join(Root, "foo").
type FS struct {
	Root string
	cwd  string
}

// New returns a backend rooted at root, which must already exist.
func New(root string) (*FS, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, translateErr(err)
	}
	if !info.IsDir() {
		return nil, xerr.Wrap(xerr.Invalid, "host.New: %q is not a directory", root)
	}
	return &FS{Root: root, cwd: "/"}, nil
}

var _ vfs.Backend = (*FS)(nil)

func (h *FS) Name() string { return "host" }

func (h *FS) hostPath(path string) (string, error) {
	canon, err := xpath.Resolve(h.cwd, path)
	if err != nil {
		return "", err
	}
	return filepath.Join(h.Root, filepath.FromSlash(canon)), nil
}

func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return xerr.Wrap(xerr.NoEntry, "%v", err)
	case os.IsExist(err):
		return xerr.Wrap(xerr.Exist, "%v", err)
	case os.IsPermission(err):
		return xerr.Wrap(xerr.Access, "%v", err)
	default:
		return xerr.Wrap(xerr.IO, "%v", err)
	}
}

type fileHandle struct {
	f       *os.File
	lastErr error
}

func (fh *fileHandle) fail(err error) error {
	fh.lastErr = err
	return err
}

func (h *FS) Open(path string, flag vfs.OpenFlag) (any, error) {
	hp, err := h.hostPath(path)
	if err != nil {
		return nil, err
	}

	var osFlag int
	switch {
	case flag&vfs.FlagRead != 0 && flag&vfs.FlagWrite != 0:
		osFlag = os.O_RDWR
	case flag&vfs.FlagWrite != 0:
		osFlag = os.O_WRONLY
	default:
		osFlag = os.O_RDONLY
	}
	if flag&vfs.FlagCreate != 0 {
		osFlag |= os.O_CREATE
	}
	if flag&vfs.FlagTruncate != 0 {
		osFlag |= os.O_TRUNC
	}
	if flag&vfs.FlagAppend != 0 {
		osFlag |= os.O_APPEND
	}

	f, err := os.OpenFile(hp, osFlag, 0o644)
	if err != nil {
		return nil, translateErr(err)
	}
	return &fileHandle{f: f}, nil
}

func (h *FS) Close(hdl any) error {
	fh := hdl.(*fileHandle)
	return fh.fail(translateErr(fh.f.Close()))
}

func (h *FS) Read(hdl any, p []byte) (int, error) {
	fh := hdl.(*fileHandle)
	n, err := fh.f.Read(p)
	if err == io.EOF {
		return n, io.EOF
	}
	return n, fh.fail(translateErr(err))
}

func (h *FS) Write(hdl any, p []byte) (int, error) {
	fh := hdl.(*fileHandle)
	n, err := fh.f.Write(p)
	return n, fh.fail(translateErr(err))
}

func (h *FS) Seek(hdl any, offset int64, whence xstream.Whence) (int64, error) {
	fh := hdl.(*fileHandle)
	var osWhence int
	switch whence {
	case xstream.SeekSet:
		osWhence = io.SeekStart
	case xstream.SeekCur:
		osWhence = io.SeekCurrent
	case xstream.SeekEnd:
		osWhence = io.SeekEnd
	default:
		return 0, fh.fail(xerr.Invalid)
	}
	n, err := fh.f.Seek(offset, osWhence)
	return n, fh.fail(translateErr(err))
}

func (h *FS) Tell(hdl any) (int64, error) {
	return hdl.(*fileHandle).f.Seek(0, io.SeekCurrent)
}

func (h *FS) Flush(hdl any) error {
	fh := hdl.(*fileHandle)
	return fh.fail(translateErr(fh.f.Sync()))
}

func (h *FS) ErrorString(hdl any) string {
	fh, ok := hdl.(*fileHandle)
	if !ok || fh.lastErr == nil {
		return ""
	}
	return fh.lastErr.Error()
}

func (h *FS) Mkdir(path string) error {
	hp, err := h.hostPath(path)
	if err != nil {
		return err
	}
	return translateErr(os.Mkdir(hp, 0o755))
}

type dirHandle struct {
	entries []os.DirEntry
	index   int
}

func (h *FS) OpenDir(path string) (any, error) {
	hp, err := h.hostPath(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(hp)
	if err != nil {
		return nil, translateErr(err)
	}
	return &dirHandle{entries: entries}, nil
}

func (h *FS) ReadDir(hdl any) (vfs.DirEnt, error) {
	dh := hdl.(*dirHandle)
	if dh.index >= len(dh.entries) {
		return vfs.DirEnt{}, io.EOF
	}
	ent := dh.entries[dh.index]
	dh.index++
	return vfs.DirEnt{Name: ent.Name()}, nil
}

func (h *FS) CloseDir(hdl any) error {
	_ = hdl.(*dirHandle)
	return nil
}

func (h *FS) Chdir(path string) error {
	hp, err := h.hostPath(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(hp)
	if err != nil {
		return translateErr(err)
	}
	if !info.IsDir() {
		return xerr.Wrap(xerr.Invalid, "host: %q is not a directory", path)
	}
	canon, err := xpath.Resolve(h.cwd, path)
	if err != nil {
		return err
	}
	h.cwd = canon
	return nil
}

func (h *FS) Getwd() (string, error) { return h.cwd, nil }

func (h *FS) Remove(path string) error {
	hp, err := h.hostPath(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(hp)
	if err != nil {
		return translateErr(err)
	}
	if info.IsDir() {
		entries, err := os.ReadDir(hp)
		if err != nil {
			return translateErr(err)
		}
		if len(entries) > 0 {
			return xerr.Wrap(xerr.Exist, "host: %q is not empty", path)
		}
	}
	return translateErr(os.Remove(hp))
}

func (h *FS) Rename(oldpath, newpath string) error {
	oldHP, err := h.hostPath(oldpath)
	if err != nil {
		return err
	}
	newHP, err := h.hostPath(newpath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(newHP); err == nil {
		return xerr.Wrap(xerr.Exist, "host: %q already exists", newpath)
	}
	return translateErr(os.Rename(oldHP, newHP))
}

func (h *FS) Stat(path string) (vfs.Stat, error) {
	hp, err := h.hostPath(path)
	if err != nil {
		return vfs.Stat{}, err
	}
	info, err := os.Stat(hp)
	if err != nil {
		return vfs.Stat{}, translateErr(err)
	}
	mode := vfs.ModeRegular
	if info.IsDir() {
		mode = vfs.ModeDirectory
	}
	return vfs.Stat{ModTime: info.ModTime(), Size: info.Size(), Mode: mode}, nil
}

func (h *FS) Utime(path string, mtime time.Time) error {
	hp, err := h.hostPath(path)
	if err != nil {
		return err
	}
	return translateErr(chtimes(hp, mtime))
}
