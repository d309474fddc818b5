package bytearray_test

import (
	"testing"

	"github.com/maskedw/picox-sub001/alloc/bytearray"
	"github.com/stretchr/testify/require"
)

func TestInsertErase(t *testing.T) {
	a := bytearray.Borrow(make([]byte, 8))
	a.PushBackN([]byte("ABC"))
	require.Equal(t, "ABC", string(a.Data()))

	a.InsertN(1, []byte("XY"))
	require.Equal(t, "AXYBC", string(a.Data()))
	require.Equal(t, 5, a.Size())

	a.EraseN(2, 2)
	require.Equal(t, "AXC", string(a.Data()))
	require.Equal(t, 3, a.Size())
}

func TestOwnedGrows(t *testing.T) {
	a := bytearray.Owned()
	for i := 0; i < 100; i++ {
		a.PushBack(byte(i))
	}
	require.Equal(t, 100, a.Size())
	require.GreaterOrEqual(t, a.Capacity(), 100)
}

func TestPushPopBack(t *testing.T) {
	a := bytearray.Owned()
	a.PushBack('a')
	a.PushBack('b')
	require.Equal(t, byte('b'), a.PopBack())
	require.Equal(t, 1, a.Size())
}

func TestShrinkToFit(t *testing.T) {
	a := bytearray.Owned()
	a.PushBackN(make([]byte, 100))
	a.PopBackN(90)
	require.Equal(t, 10, a.Size())
	a.ShrinkToFit()
	require.Equal(t, 10, a.Capacity())
}
