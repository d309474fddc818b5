package fixed_test

import (
	"testing"

	"github.com/maskedw/picox-sub001/alloc/fixed"
	"github.com/stretchr/testify/require"
)

func TestExhaustionAndLIFOReuse(t *testing.T) {
	heap := make([]byte, 256)
	a := fixed.New(heap, 32, 8)
	require.Equal(t, 8, a.NumBlocks())

	blocks := make([][]byte, 8)
	for i := range blocks {
		blocks[i] = a.Allocate()
	}
	require.Equal(t, 0, a.RemainBlocks())

	third := blocks[2]
	a.Deallocate(third)
	require.Equal(t, 1, a.RemainBlocks())

	got := a.Allocate()
	require.Equal(t, &third[0], &got[0])

	a.Clear()
	require.Equal(t, 8, a.RemainBlocks())
}

func TestAllocatedPlusRemainInvariant(t *testing.T) {
	heap := make([]byte, 512)
	a := fixed.New(heap, 16, 8)

	var live [][]byte
	for i := 0; i < 10; i++ {
		live = append(live, a.Allocate())
		require.Equal(t, a.NumBlocks(), a.Allocated()+a.RemainBlocks())
	}
	for _, b := range live {
		a.Deallocate(b)
		require.Equal(t, a.NumBlocks(), a.Allocated()+a.RemainBlocks())
	}
}

func TestDeallocateRejectsMisaligned(t *testing.T) {
	heap := make([]byte, 256)
	a := fixed.New(heap, 32, 8)
	b := a.Allocate()
	require.Panics(t, func() { a.Deallocate(b[1:]) })
}
