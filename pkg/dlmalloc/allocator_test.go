package dlmalloc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmrtk/dlmalloc/pkg/dlmalloc"
)

func newTestAllocator(t *testing.T) *dlmalloc.Allocator {
	t.Helper()
	a, err := dlmalloc.New(context.Background(), dlmalloc.NewConfig().WithMemoryPages(1).WithQuantum(64))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestAllocator_AllocateFreeRoundTrip(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(64)
	require.NoError(t, err)
	require.NoError(t, a.Free(p))
	require.NoError(t, a.CheckInvariants())
}

func TestAllocator_ZeroedAllocateAfterFree(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(32)
	require.NoError(t, err)
	a.MemCopy(p, 0, p) // no-op copy, just exercises the wiring
	require.NoError(t, a.Free(p))

	q, err := a.ZeroedAllocate(32)
	require.NoError(t, err)
	require.NoError(t, a.Free(q))
}

func TestAllocator_MemMoveSecureBetweenAllocations(t *testing.T) {
	a := newTestAllocator(t)

	src, err := a.Allocate(16)
	require.NoError(t, err)
	dst, err := a.Allocate(16)
	require.NoError(t, err)

	a.MemMoveSecure(src, 16, dst)

	require.NoError(t, a.Free(src))
	require.NoError(t, a.Free(dst))
}

func TestAllocator_LeaksReportsOutstandingAllocations(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(10)
	require.NoError(t, err)

	leaks := a.Leaks()
	require.Len(t, leaks, 1)
	assert.Equal(t, p, leaks[0].Pointer)

	require.NoError(t, a.Free(p))
	assert.Empty(t, a.Leaks())
}

func TestAllocator_StatsTracksAllocsAndFrees(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(10)
	require.NoError(t, err)
	require.NoError(t, a.Free(p))

	stats, err := a.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Allocs)
	assert.EqualValues(t, 1, stats.Frees)
}
