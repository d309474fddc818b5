package xpath_test

import (
	"testing"

	"github.com/maskedw/picox-sub001/vfs/xpath"
	"github.com/maskedw/picox-sub001/xerr"
	"github.com/stretchr/testify/require"
)

func TestResolveDotDotWalk(t *testing.T) {
	got, err := xpath.Resolve("/foo/bar", "../baz/./qux/")
	require.NoError(t, err)
	require.Equal(t, "/foo/baz/qux", got)
}

func TestResolveRoot(t *testing.T) {
	got, err := xpath.Resolve("/foo/bar", "/")
	require.NoError(t, err)
	require.Equal(t, "/", got)
}

func TestResolvePastRootIsNoEntry(t *testing.T) {
	_, err := xpath.Resolve("/foo/bar", "../../..")
	require.ErrorIs(t, err, xerr.NoEntry)
}

func TestResolveIsIdempotent(t *testing.T) {
	once, err := xpath.Resolve("/foo/bar", "../baz/./qux/")
	require.NoError(t, err)
	twice, err := xpath.Resolve("/whatever", once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestResolveCollapsesSlashes(t *testing.T) {
	got, err := xpath.Resolve("/", "foo///bar//")
	require.NoError(t, err)
	require.Equal(t, "/foo/bar", got)
}

func TestHelpers(t *testing.T) {
	require.Equal(t, "bar.bin", xpath.Base("foo/bar.bin"))
	require.Equal(t, ".bin", xpath.Suffix("foo/bar.bin"))
	require.Equal(t, "", xpath.Suffix("foo/bar"))
	require.Equal(t, ".gz", xpath.Suffix("foo/bar.tar.gz"))
	require.Equal(t, "bar", xpath.Stem("foo/bar.bin"))
	require.Equal(t, "/foo", xpath.Dir("/foo/bar.bin"))
	require.Equal(t, "/", xpath.Dir("/bar.bin"))
}
