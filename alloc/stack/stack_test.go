package stack_test

import (
	"testing"

	"github.com/maskedw/picox-sub001/alloc/stack"
	"github.com/stretchr/testify/require"
)

func TestAllocateAndClear(t *testing.T) {
	heap := make([]byte, 256)
	a := stack.New(heap, 8)
	cap0 := a.Capacity()

	buf := a.Allocate(40)
	require.Len(t, buf, 40)
	require.Less(t, a.Reserve(), cap0)

	a.Clear()
	require.Equal(t, cap0, a.Reserve())
}

func TestRewindRestoresMark(t *testing.T) {
	heap := make([]byte, 256)
	a := stack.New(heap, 8)

	mark := a.Save()
	a.Allocate(32)
	a.Allocate(16)
	require.NoError(t, a.Rewind(mark))
	require.Equal(t, a.Capacity(), a.Reserve())
}

func TestGrowDownward(t *testing.T) {
	heap := make([]byte, 256)
	a := stack.New(heap, 8)
	a.SetGrowDown(true)

	before := a.Reserve()
	a.Allocate(32)
	require.Less(t, a.Reserve(), before)
}
