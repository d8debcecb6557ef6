package heap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmrtk/dlmalloc/internal/heap"
)

func TestCheckInvariants_PassesOnFreshHeap(t *testing.T) {
	h, _ := newTestHeap(t, 65536)
	assert.NoError(t, h.CheckInvariants())
}

func TestCheckInvariants_DetectsMissedCoalesce(t *testing.T) {
	h, mem := newTestHeap(t, 256)

	a, err := h.Allocate(10)
	require.NoError(t, err)
	b, err := h.Allocate(10)
	require.NoError(t, err)

	h.Free(a)
	h.Free(b)
	require.NoError(t, h.CheckInvariants())

	// Manually split the now-coalesced single free block back into two
	// address-adjacent free blocks without going through the allocator,
	// simulating a missed-coalesce bug, and confirm CheckInvariants
	// catches it. Both halves are linked into the address and size lists,
	// so only the no-adjacent-free invariant is broken.
	head := h.FreeListHead()
	total, _ := mem.ReadUint32Le(head)
	half := total / 2
	second := head + half
	mem.WriteUint32Le(head, half)
	mem.WriteUint32Le(head+4, second)
	mem.WriteUint32Le(head+8, heap.Nil)
	mem.WriteUint32Le(head+12, heap.Nil)
	mem.WriteUint32Le(head+16, second)
	mem.WriteUint32Le(second, half)
	mem.WriteUint32Le(second+4, heap.Nil)
	mem.WriteUint32Le(second+8, head)
	mem.WriteUint32Le(second+12, head)
	mem.WriteUint32Le(second+16, heap.Nil)

	err = h.CheckInvariants()
	require.Error(t, err)
	var invErr *heap.InvariantError
	require.ErrorAs(t, err, &invErr)
}
