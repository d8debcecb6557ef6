package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmrtk/dlmalloc/internal/heap"
)

// Freeing the lowest-address block last must still promote it to
// FREE_LIST_HEAD, per the insert-time head-update design note.
func TestInsertFree_UpdatesHeadForLowAddressBlock(t *testing.T) {
	h, _ := newTestHeap(t, 65536)

	a, err := h.Allocate(10) // lowest address
	require.NoError(t, err)
	b, err := h.Allocate(10)
	require.NoError(t, err)
	c, err := h.Allocate(10)
	require.NoError(t, err)

	// Free b and c first so a is still allocated (and thus not in the
	// free list) while other free blocks exist ahead of it in memory.
	h.Free(c)
	h.Free(b)

	headBefore := h.FreeListHead()
	require.NotEqual(t, a-heap.AllocHeaderSize, headBefore)

	h.Free(a)
	require.NoError(t, h.CheckInvariants())

	aBlock := a - heap.AllocHeaderSize
	require.Equal(t, aBlock, h.FreeListHead(), "freeing the lowest-address block must promote it to head")
}

// Many equal-size free blocks must still form a valid, acyclic size list.
func TestSizeList_HandlesEqualSizes(t *testing.T) {
	h, _ := newTestHeap(t, 65536)

	var ptrs []uint32
	for i := 0; i < 10; i++ {
		p, err := h.Allocate(20) // every block the same size class
		require.NoError(t, err)
		ptrs = append(ptrs, p)
	}
	// Free every other block so each freed block keeps allocated
	// neighbors and none of them coalesce.
	for i := 0; i < len(ptrs); i += 2 {
		h.Free(ptrs[i])
	}

	require.NoError(t, h.CheckInvariants())

	// A request of the common size class must still succeed and
	// terminate (no infinite loop on the SMALLER descent).
	_, err := h.Allocate(10)
	require.NoError(t, err)
	require.NoError(t, h.CheckInvariants())
}

// Freeing interior blocks in an arbitrary, non-monotonic order must keep
// both orderings consistent throughout.
func TestFree_ArbitraryOrderKeepsInvariants(t *testing.T) {
	h, _ := newTestHeap(t, 65536)

	var ptrs []uint32
	for i := 0; i < 6; i++ {
		p, err := h.Allocate(uint32(20 + i*5))
		require.NoError(t, err)
		ptrs = append(ptrs, p)
	}

	order := []int{3, 0, 5, 1, 4, 2}
	for _, idx := range order {
		h.Free(ptrs[idx])
		require.NoError(t, h.CheckInvariants())
	}
}
