package pico_test

import (
	"testing"

	"github.com/maskedw/picox-sub001/alloc/pico"
	"github.com/stretchr/testify/require"
)

func TestAllocateDeallocateCoalesces(t *testing.T) {
	heap := make([]byte, 4096)
	a := pico.New(heap, 8)

	A, err := a.Allocate(100)
	require.NoError(t, err)
	B, err := a.Allocate(100)
	require.NoError(t, err)
	C, err := a.Allocate(100)
	require.NoError(t, err)

	a.Deallocate(A)
	a.Deallocate(C)
	a.Deallocate(B)

	require.Equal(t, 1, a.FreeChunkCount())
	require.Equal(t, a.Capacity(), a.Reserve())
}

func TestReserveInvariant(t *testing.T) {
	heap := make([]byte, 2048)
	a := pico.New(heap, 8)

	blocks := make([][]byte, 0, 8)
	for i := 0; i < 4; i++ {
		b, err := a.Allocate(32)
		require.NoError(t, err)
		blocks = append(blocks, b)
	}

	sum := 0
	a.WalkHeap(func(off, size int) { sum += size })
	require.Equal(t, a.Reserve(), sum)

	for _, b := range blocks {
		a.Deallocate(b)
	}
	require.Equal(t, a.Capacity(), a.Reserve())
	require.Equal(t, 1, a.FreeChunkCount())
}

func TestAllocateContentIsUsable(t *testing.T) {
	heap := make([]byte, 1024)
	a := pico.New(heap, 8)

	buf, err := a.Allocate(16)
	require.NoError(t, err)
	copy(buf, []byte("0123456789abcdef"))
	require.Equal(t, "0123456789abcdef", string(buf))
}

func TestOutOfMemory(t *testing.T) {
	heap := make([]byte, 64)
	a := pico.New(heap, 8)
	_, err := a.Allocate(1000)
	require.Error(t, err)
}

func TestDeallocateRejectsOutOfRange(t *testing.T) {
	heap := make([]byte, 1024)
	a := pico.New(heap, 8)
	foreign := make([]byte, 1, 2000) // never came from heap's backing array
	require.Panics(t, func() { a.Deallocate(foreign) })
}
