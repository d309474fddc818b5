package romfs_test

import (
	"io"
	"testing"
	"time"

	"github.com/maskedw/picox-sub001/backend/romfs"
	"github.com/maskedw/picox-sub001/vfs"
	"github.com/maskedw/picox-sub001/xerr"
	"github.com/maskedw/picox-sub001/xstream"
	"github.com/stretchr/testify/require"
)

func buildSample(t *testing.T) *romfs.FS {
	t.Helper()
	now := time.Unix(1_700_000_000, 0)
	root := romfs.NewDir("",
		romfs.NewFile("hello.txt", []byte("hello world"), now),
		romfs.NewDir("sub",
			romfs.NewFile("nested.bin", []byte{1, 2, 3, 4}, now),
		),
	)
	image, err := romfs.Build(root)
	require.NoError(t, err)

	fs, err := romfs.Open(image)
	require.NoError(t, err)
	return fs
}

func TestOpenRejectsBadMagic(t *testing.T) {
	_, err := romfs.Open([]byte("not an image"))
	require.ErrorIs(t, err, xerr.Broken)
}

func TestReadFileContent(t *testing.T) {
	fs := buildSample(t)
	h, err := fs.Open("/hello.txt", vfs.FlagRead)
	require.NoError(t, err)

	buf := make([]byte, 32)
	n, err := fs.Read(h, buf)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(buf[:n]))

	n, err = fs.Read(h, buf)
	require.Equal(t, io.EOF, err)
	require.Equal(t, 0, n)
}

func TestNestedDirectory(t *testing.T) {
	fs := buildSample(t)
	h, err := fs.Open("/sub/nested.bin", vfs.FlagRead)
	require.NoError(t, err)
	buf := make([]byte, 4)
	n, err := fs.Read(h, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, buf[:n])
}

func TestReadDirEnumeratesRoot(t *testing.T) {
	fs := buildSample(t)
	d, err := vfs.OpenDir(fs, "/")
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
	require.ElementsMatch(t, []string{"hello.txt", "sub"}, names)
}

func TestWriteIsAccessDenied(t *testing.T) {
	fs := buildSample(t)
	_, err := fs.Open("/hello.txt", vfs.FlagWrite)
	require.ErrorIs(t, err, xerr.Access)
}

func TestMkdirRemoveRenameUtimeNotSupported(t *testing.T) {
	fs := buildSample(t)
	require.ErrorIs(t, fs.Mkdir("/new"), xerr.NotSupported)
	require.ErrorIs(t, fs.Remove("/hello.txt"), xerr.NotSupported)
	require.ErrorIs(t, fs.Rename("/hello.txt", "/moved.txt"), xerr.NotSupported)
	require.ErrorIs(t, fs.Utime("/hello.txt", time.Now()), xerr.NotSupported)
}

func TestSeekPastEndIsNotSupported(t *testing.T) {
	fs := buildSample(t)
	h, err := fs.Open("/hello.txt", vfs.FlagRead)
	require.NoError(t, err)

	_, err = fs.Seek(h, int64(len("hello world")+1), xstream.SeekSet)
	require.ErrorIs(t, err, xerr.NotSupported)
	require.NotEqual(t, "", fs.ErrorString(h))

	pos, err := fs.Seek(h, int64(len("hello world")), xstream.SeekSet)
	require.NoError(t, err)
	require.EqualValues(t, len("hello world"), pos)
}

func TestStatReportsSizeAndMode(t *testing.T) {
	fs := buildSample(t)
	st, err := fs.Stat("/hello.txt")
	require.NoError(t, err)
	require.True(t, st.Mode.IsRegular())
	require.EqualValues(t, len("hello world"), st.Size)

	st, err = fs.Stat("/sub")
	require.NoError(t, err)
	require.True(t, st.Mode.IsDirectory())
}
