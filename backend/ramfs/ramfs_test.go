package ramfs_test

import (
	"io"
	"testing"

	"github.com/maskedw/picox-sub001/backend/ramfs"
	"github.com/maskedw/picox-sub001/vfs"
	"github.com/maskedw/picox-sub001/xerr"
	"github.com/maskedw/picox-sub001/xstream"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T) *ramfs.FS {
	t.Helper()
	return ramfs.New(make([]byte, 64*1024), 32)
}

func TestMkdirAndStat(t *testing.T) {
	fs := newFS(t)
	require.NoError(t, fs.Mkdir("/foo"))

	st, err := fs.Stat("/foo")
	require.NoError(t, err)
	require.True(t, st.Mode.IsDirectory())

	require.ErrorIs(t, fs.Mkdir("/foo"), xerr.Exist)
}

func TestWriteReadRoundTrip(t *testing.T) {
	fs := newFS(t)
	h, err := fs.Open("/a.txt", vfs.FlagWrite|vfs.FlagCreate)
	require.NoError(t, err)

	n, err := fs.Write(h, []byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.NoError(t, fs.Close(h))

	h2, err := fs.Open("/a.txt", vfs.FlagRead)
	require.NoError(t, err)
	buf := make([]byte, 32)
	n, err = fs.Read(h2, buf)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(buf[:n]))
}

func TestSeekPastEndReadsZero(t *testing.T) {
	fs := newFS(t)
	h, err := fs.Open("/a.txt", vfs.FlagWrite|vfs.FlagCreate)
	require.NoError(t, err)

	_, err = fs.Seek(h, 40, xstream.SeekSet)
	require.NoError(t, err)
	_, err = fs.Write(h, []byte("X"))
	require.NoError(t, err)

	h2, err := fs.Open("/a.txt", vfs.FlagRead)
	require.NoError(t, err)
	buf := make([]byte, 41)
	n, err := fs.Read(h2, buf)
	require.NoError(t, err)
	require.Equal(t, 41, n)
	for _, b := range buf[:40] {
		require.Equal(t, byte(0), b)
	}
	require.Equal(t, byte('X'), buf[40])
}

func TestErrorStringReportsLastFailure(t *testing.T) {
	fs := newFS(t)
	h, err := fs.Open("/a.txt", vfs.FlagWrite|vfs.FlagCreate)
	require.NoError(t, err)
	require.Equal(t, "", fs.ErrorString(h))

	_, err = fs.Seek(h, -1, xstream.SeekSet)
	require.ErrorIs(t, err, xerr.Range)
	require.NotEqual(t, "", fs.ErrorString(h))
}

func TestRemoveNonEmptyDirIsExist(t *testing.T) {
	fs := newFS(t)
	require.NoError(t, fs.Mkdir("/foo"))
	h, err := fs.Open("/foo/bar.txt", vfs.FlagWrite|vfs.FlagCreate)
	require.NoError(t, err)
	require.NoError(t, fs.Close(h))

	require.ErrorIs(t, fs.Remove("/foo"), xerr.Exist)
	require.NoError(t, fs.Remove("/foo/bar.txt"))
	require.NoError(t, fs.Remove("/foo"))
}

func TestRenameRelinksAcrossDirectories(t *testing.T) {
	fs := newFS(t)
	require.NoError(t, fs.Mkdir("/foo"))
	require.NoError(t, fs.Mkdir("/bar"))
	h, err := fs.Open("/foo/a.txt", vfs.FlagWrite|vfs.FlagCreate)
	require.NoError(t, err)
	require.NoError(t, fs.Close(h))

	require.NoError(t, fs.Rename("/foo/a.txt", "/bar/b.txt"))
	require.False(t, vfs.Exists(fs, "/foo/a.txt"))
	require.True(t, vfs.Exists(fs, "/bar/b.txt"))
}

func TestReadDirEnumeratesChildren(t *testing.T) {
	fs := newFS(t)
	require.NoError(t, fs.Mkdir("/foo"))
	for _, name := range []string{"/foo/a", "/foo/b", "/foo/c"} {
		h, err := fs.Open(name, vfs.FlagWrite|vfs.FlagCreate)
		require.NoError(t, err)
		require.NoError(t, fs.Close(h))
	}

	d, err := vfs.OpenDir(fs, "/foo")
	require.NoError(t, err)
	var names []string
	for {
		ent, err := vfs.ReadDir(d)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, ent.Name)
	}
	require.ElementsMatch(t, []string{"a", "b", "c"}, names)
}

func TestCopyTreeAndRmTree(t *testing.T) {
	fs := newFS(t)
	require.NoError(t, fs.Mkdir("/src"))
	h, err := fs.Open("/src/file.txt", vfs.FlagWrite|vfs.FlagCreate)
	require.NoError(t, err)
	_, err = fs.Write(h, []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, fs.Close(h))

	require.NoError(t, vfs.CopyTree(fs, "/src", "/dst"))
	require.True(t, vfs.Exists(fs, "/dst/file.txt"))

	require.NoError(t, vfs.RmTree(fs, "/src"))
	require.False(t, vfs.Exists(fs, "/src"))
}

func TestMakeDirsExistOK(t *testing.T) {
	fs := newFS(t)
	require.NoError(t, vfs.MakeDirs(fs, "/a/b/c", false))
	require.True(t, vfs.IsDirectory(fs, "/a/b/c"))

	require.Error(t, vfs.MakeDirs(fs, "/a/b/c", false))
	require.NoError(t, vfs.MakeDirs(fs, "/a/b/c", true))
}
