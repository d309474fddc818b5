package xlist_test

import (
	"testing"

	"github.com/maskedw/picox-sub001/xlist"
	"github.com/stretchr/testify/require"
)

func TestPushPopBack(t *testing.T) {
	l := xlist.New[int]()
	require.True(t, l.Empty())

	n := xlist.NewNode(42)
	l.PushBack(n)
	require.Equal(t, 1, l.Size())

	got := l.PopBack()
	require.Equal(t, n, got)
	require.Equal(t, 42, got.Value)
	require.True(t, l.Empty())
}

func TestSizeMatchesForeach(t *testing.T) {
	l := xlist.New[string]()
	for _, v := range []string{"a", "b", "c"} {
		l.PushBack(xlist.NewNode(v))
	}

	count := 0
	l.Each(func(n *xlist.Node[string]) bool {
		count++
		return true
	})
	require.Equal(t, l.Size(), count)
	require.Equal(t, 3, count)
}

func TestUnlinkDuringIteration(t *testing.T) {
	l := xlist.New[int]()
	nodes := make([]*xlist.Node[int], 0, 3)
	for i := 0; i < 3; i++ {
		n := xlist.NewNode(i)
		nodes = append(nodes, n)
		l.PushBack(n)
	}

	var seen []int
	l.Each(func(n *xlist.Node[int]) bool {
		seen = append(seen, n.Value)
		xlist.Unlink(n)
		return true
	})

	require.Equal(t, []int{0, 1, 2}, seen)
	require.True(t, l.Empty())
}

func TestSplice(t *testing.T) {
	a := xlist.New[int]()
	b := xlist.New[int]()
	a.PushBack(xlist.NewNode(1))
	a.PushBack(xlist.NewNode(2))
	b.PushBack(xlist.NewNode(3))

	b.SpliceBack(a)
	require.True(t, a.Empty())

	var got []int
	b.Each(func(n *xlist.Node[int]) bool {
		got = append(got, n.Value)
		return true
	})
	require.Equal(t, []int{3, 1, 2}, got)
}

func TestReplace(t *testing.T) {
	l := xlist.New[int]()
	n1 := xlist.NewNode(1)
	n2 := xlist.NewNode(2)
	l.PushBack(n1)

	n3 := xlist.NewNode(3)
	xlist.Replace(n1, n3)
	l.PushBack(n2)

	var got []int
	l.Each(func(n *xlist.Node[int]) bool {
		got = append(got, n.Value)
		return true
	})
	require.Equal(t, []int{3, 2}, got)
}

func TestSwap(t *testing.T) {
	a := xlist.New[int]()
	b := xlist.New[int]()
	a.PushBack(xlist.NewNode(1))
	b.PushBack(xlist.NewNode(2))
	b.PushBack(xlist.NewNode(3))

	a.Swap(b)
	require.Equal(t, 2, a.Size())
	require.Equal(t, 1, b.Size())
}
