// Package union implements picox's mount-table filesystem (spec
// §4.6.3): an intrusive list of mount records, each pairing a path in
// the union namespace with a backend and a backend-relative base
// path. Every call taking a path computes its canonical form, finds
// the mount record with the longest prefix match, strips that prefix,
// prepends the mount's realpath, and forwards to the backend's vtable.
//
// Adapted from rclone's backend/union/union.go: rclone mounts several
// equally-valid upstream remotes behind one Fs and picks among them
// with a policy.Policy (epall/epmfs/ff, one per action category).
// picox never has more than one backend valid for a given path, so
// that whole policy-selection layer collapses to the single
// deterministic longest-prefix resolver below; there is no policy
// interface left to satisfy. What survives, rewritten for this
// domain: the Errors aggregation type (errors.go, kept materially
// as-is since it owes nothing to upstream-specific concerns) and the
// overall Fs-as-dispatcher shape.
package union

import (
	"strings"
	"time"

	"github.com/maskedw/picox-sub001/vfs"
	"github.com/maskedw/picox-sub001/vfs/xpath"
	"github.com/maskedw/picox-sub001/xerr"
	"github.com/maskedw/picox-sub001/xlist"
	"github.com/maskedw/picox-sub001/xstream"
)

// MountPoint pairs a path in the union namespace with the backend that
// serves it and the backend-relative path to forward to.
type MountPoint struct {
	Path     string
	Backend  vfs.Backend
	RealPath string

	link *xlist.Node[*MountPoint]
}

// FS is the union (mount-table) backend. The zero value is not ready
// for use; call New.
type FS struct {
	mounts *xlist.List[*MountPoint]
	cwd    string
}

// New returns an empty union filesystem with no mounts. The first
// Mount call must target "/".
func New() *FS {
	return &FS{mounts: xlist.New[*MountPoint](), cwd: "/"}
}

var _ vfs.Backend = (*FS)(nil)

func (u *FS) Name() string { return "union" }

// Mount registers backend at path, forwarding paths under it to
// backend with realpath prepended. path must be "/" for the first
// mount, or an existing directory in the already-assembled tree for
// any subsequent one (spec §4.6.3).
func (u *FS) Mount(path string, backend vfs.Backend, realpath string) error {
	canon, err := xpath.Resolve(u.cwd, path)
	if err != nil {
		return err
	}

	if u.mounts.Empty() {
		if canon != "/" {
			return xerr.Wrap(xerr.Invalid, "union.Mount: first mount must be at /, got %q", path)
		}
	} else if !vfs.IsDirectory(u, canon) {
		return xerr.Wrap(xerr.NoEntry, "union.Mount: %q is not an existing directory", path)
	}

	mp := &MountPoint{Path: canon, Backend: backend, RealPath: realpath}
	mp.link = xlist.NewNode(mp)
	u.mounts.PushBack(mp.link)
	return nil
}

// Unmount removes the mount record at path. It fails with xerr.Busy if
// any descendant mount still exists (spec §4.6.3, §4.7). Open file and
// directory handles on the mount are not tracked and do not block it.
func (u *FS) Unmount(path string) error {
	canon, err := xpath.Resolve(u.cwd, path)
	if err != nil {
		return err
	}

	var target *MountPoint
	for n := u.mounts.Front(); n != u.mounts.End(); n = n.Next() {
		mp := n.Value
		switch {
		case mp.Path == canon:
			target = mp
		case isStrictDescendant(canon, mp.Path):
			return xerr.Wrap(xerr.Busy, "union.Unmount: %q has descendant mount %q", path, mp.Path)
		}
	}
	if target == nil {
		return xerr.Wrap(xerr.NoEntry, "union.Unmount: %q is not a mount point", path)
	}
	xlist.Unlink(target.link)
	return nil
}

func isStrictDescendant(parent, path string) bool {
	if parent == path {
		return false
	}
	if parent == "/" {
		return true
	}
	return strings.HasPrefix(path, parent+"/")
}

func isPrefixMount(mountPath, canon string) bool {
	return mountPath == "/" || mountPath == canon || strings.HasPrefix(canon, mountPath+"/")
}

// resolve finds the longest-prefix mount covering path and returns the
// backend-relative path to forward.
func (u *FS) resolve(path string) (*MountPoint, string, error) {
	canon, err := xpath.Resolve(u.cwd, path)
	if err != nil {
		return nil, "", err
	}

	var best *MountPoint
	for n := u.mounts.Front(); n != u.mounts.End(); n = n.Next() {
		mp := n.Value
		if !isPrefixMount(mp.Path, canon) {
			continue
		}
		if best == nil || len(mp.Path) > len(best.Path) {
			best = mp
		}
	}
	if best == nil {
		return nil, "", xerr.Wrap(xerr.NoEntry, "union: no mount covers %q", path)
	}

	rel := strings.TrimPrefix(strings.TrimPrefix(canon, best.Path), "/")
	base := strings.TrimSuffix(best.RealPath, "/")
	switch {
	case rel == "" && base == "":
		return best, "/", nil
	case rel == "":
		return best, base, nil
	case base == "":
		return best, "/" + rel, nil
	default:
		return best, base + "/" + rel, nil
	}
}

type fileHandle struct {
	mp     *MountPoint
	handle any
}

type dirHandle struct {
	mp     *MountPoint
	handle any
}

func (u *FS) Open(path string, flag vfs.OpenFlag) (any, error) {
	mp, rel, err := u.resolve(path)
	if err != nil {
		return nil, err
	}
	h, err := mp.Backend.Open(rel, flag)
	if err != nil {
		return nil, err
	}
	return &fileHandle{mp: mp, handle: h}, nil
}

func (u *FS) Close(h any) error {
	fh := h.(*fileHandle)
	return fh.mp.Backend.Close(fh.handle)
}

func (u *FS) Read(h any, p []byte) (int, error) {
	fh := h.(*fileHandle)
	return fh.mp.Backend.Read(fh.handle, p)
}

func (u *FS) Write(h any, p []byte) (int, error) {
	fh := h.(*fileHandle)
	return fh.mp.Backend.Write(fh.handle, p)
}

func (u *FS) Seek(h any, offset int64, whence xstream.Whence) (int64, error) {
	fh := h.(*fileHandle)
	return fh.mp.Backend.Seek(fh.handle, offset, whence)
}

func (u *FS) Tell(h any) (int64, error) {
	fh := h.(*fileHandle)
	return fh.mp.Backend.Tell(fh.handle)
}

func (u *FS) Flush(h any) error {
	fh := h.(*fileHandle)
	return fh.mp.Backend.Flush(fh.handle)
}

func (u *FS) ErrorString(h any) string {
	fh, ok := h.(*fileHandle)
	if !ok {
		return ""
	}
	return fh.mp.Backend.ErrorString(fh.handle)
}

func (u *FS) Mkdir(path string) error {
	mp, rel, err := u.resolve(path)
	if err != nil {
		return err
	}
	return mp.Backend.Mkdir(rel)
}

func (u *FS) OpenDir(path string) (any, error) {
	mp, rel, err := u.resolve(path)
	if err != nil {
		return nil, err
	}
	h, err := mp.Backend.OpenDir(rel)
	if err != nil {
		return nil, err
	}
	return &dirHandle{mp: mp, handle: h}, nil
}

func (u *FS) ReadDir(h any) (vfs.DirEnt, error) {
	dh := h.(*dirHandle)
	return dh.mp.Backend.ReadDir(dh.handle)
}

func (u *FS) CloseDir(h any) error {
	dh := h.(*dirHandle)
	return dh.mp.Backend.CloseDir(dh.handle)
}

func (u *FS) Chdir(path string) error {
	if !vfs.IsDirectory(u, path) {
		return xerr.Wrap(xerr.NoEntry, "union.Chdir: %q is not a directory", path)
	}
	canon, err := xpath.Resolve(u.cwd, path)
	if err != nil {
		return err
	}
	u.cwd = canon
	return nil
}

func (u *FS) Getwd() (string, error) { return u.cwd, nil }

func (u *FS) Remove(path string) error {
	mp, rel, err := u.resolve(path)
	if err != nil {
		return err
	}
	return mp.Backend.Remove(rel)
}

// Rename relinks within a single backend when both paths resolve to
// the same mount; otherwise it falls back to CopyFile2 + Remove (spec
// §4.6.3: "cross-FS rename falls back to copyfile + remove"). The
// copy and the two closes are independent failure points, so their
// errors are aggregated with Errors rather than reporting only the
// first one and hiding the rest.
func (u *FS) Rename(oldpath, newpath string) error {
	oldMP, oldRel, err := u.resolve(oldpath)
	if err != nil {
		return err
	}
	newMP, newRel, err := u.resolve(newpath)
	if err != nil {
		return err
	}

	if oldMP == newMP {
		return oldMP.Backend.Rename(oldRel, newRel)
	}
	if vfs.Exists(u, newpath) {
		return xerr.Wrap(xerr.Exist, "union.Rename: %q already exists", newpath)
	}

	src, err := vfs.Open(u, oldpath, vfs.FlagRead)
	if err != nil {
		return err
	}

	dst, err := vfs.Open(u, newpath, vfs.FlagWrite|vfs.FlagCreate|vfs.FlagTruncate)
	if err != nil {
		_ = vfs.Close(src)
		return err
	}

	errs := Errors{
		vfs.CopyFile2(src, dst),
		vfs.Close(src),
		vfs.Close(dst),
	}
	if err := errs.Err(); err != nil {
		return err
	}
	return u.Remove(oldpath)
}

func (u *FS) Stat(path string) (vfs.Stat, error) {
	mp, rel, err := u.resolve(path)
	if err != nil {
		return vfs.Stat{}, err
	}
	return mp.Backend.Stat(rel)
}

func (u *FS) Utime(path string, mtime time.Time) error {
	mp, rel, err := u.resolve(path)
	if err != nil {
		return err
	}
	return mp.Backend.Utime(rel, mtime)
}
