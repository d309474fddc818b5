package xstream_test

import (
	"io"
	"testing"

	"github.com/maskedw/picox-sub001/xstream"
	"github.com/stretchr/testify/require"
)

func TestMemStreamReadWrite(t *testing.T) {
	ms := xstream.NewMemStream([]byte("hello"), 5, 10)
	buf := make([]byte, 5)
	n, err := ms.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))

	_, err = ms.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestMemStreamWriteGrowsWithinCapacity(t *testing.T) {
	ms := xstream.NewMemStream(make([]byte, 0), 0, 8)
	n, err := ms.Write([]byte("abcdefgh12"))
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, "abcdefgh", string(ms.Bytes()))
}

func TestGetsBoundary(t *testing.T) {
	ms := xstream.NewMemStream([]byte("ab\r\ncd\n"), 7, 7)

	line, overflow, err := xstream.Gets(ms, 16)
	require.NoError(t, err)
	require.False(t, overflow)
	require.Equal(t, "ab", line)

	line, overflow, err = xstream.Gets(ms, 16)
	require.NoError(t, err)
	require.False(t, overflow)
	require.Equal(t, "cd", line)

	_, _, err = xstream.Gets(ms, 16)
	require.ErrorIs(t, err, io.EOF)
}

func TestGetsOverflow(t *testing.T) {
	ms := xstream.NewMemStream([]byte("abcdef\n"), 7, 7)
	line, overflow, err := xstream.Gets(ms, 4)
	require.NoError(t, err)
	require.True(t, overflow)
	require.Equal(t, "abcd", line)
}

func TestErrorStringReflectsLastFailure(t *testing.T) {
	ms := xstream.NewMemStream([]byte("hi"), 2, 2)
	require.Equal(t, "", ms.ErrorString())

	buf := make([]byte, 2)
	_, err := ms.Read(buf)
	require.NoError(t, err)
	_, err = ms.Read(buf)
	require.ErrorIs(t, err, io.EOF)
	require.NotEqual(t, "", ms.ErrorString())
}

func TestPrintfPuts(t *testing.T) {
	ms := xstream.NewMemStream(make([]byte, 0), 0, 64)
	_, err := xstream.Printf(ms, "n=%d", 7)
	require.NoError(t, err)
	_, err = xstream.Puts(ms, "!")
	require.NoError(t, err)
	require.Equal(t, "n=7!\n", string(ms.Bytes()))
}
