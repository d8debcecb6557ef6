package heap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmrtk/dlmalloc/internal/heap"
)

func TestMemCopy_CopiesBytes(t *testing.T) {
	mem := heap.NewSliceMemory(make([]byte, 64))
	mem.Write(0, []byte("hello world"))

	heap.MemCopy(mem, 0, 11, 32)

	got, ok := mem.Read(32, 11)
	require.True(t, ok)
	assert.Equal(t, "hello world", string(got))

	// Source must be untouched.
	src, ok := mem.Read(0, 11)
	require.True(t, ok)
	assert.Equal(t, "hello world", string(src))
}

func TestMemMoveSecure_CopiesThenZeroesSource(t *testing.T) {
	mem := heap.NewSliceMemory(make([]byte, 64))
	mem.Write(0, []byte("secretdata!"))

	heap.MemMoveSecure(mem, 0, 11, 32)

	got, ok := mem.Read(32, 11)
	require.True(t, ok)
	assert.Equal(t, "secretdata!", string(got))

	src, ok := mem.Read(0, 11)
	require.True(t, ok)
	for _, b := range src {
		assert.Zero(t, b)
	}
}
