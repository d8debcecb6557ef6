package wasm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmrtk/dlmalloc/internal/heap"
	"github.com/wasmrtk/dlmalloc/internal/wasm"
)

func newTestRuntime(t *testing.T) *wasm.Runtime {
	t.Helper()
	r, err := wasm.NewRuntime(context.Background(), &wasm.Config{
		MemoryPages: 1,
		HeapConfig:  &heap.Config{HeapOffset: 0, Quantum: 64},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func TestNewRuntime_DefaultConfigExportsOnePageOfMemory(t *testing.T) {
	r, err := wasm.NewRuntime(context.Background(), nil)
	require.NoError(t, err)
	defer r.Close(context.Background())

	assert.EqualValues(t, 65536, r.Memory().Size())
	require.NoError(t, r.CheckInvariants())
}

func TestRuntime_AllocateAndFreeRoundTrip(t *testing.T) {
	r := newTestRuntime(t)

	p, err := r.Allocate(100)
	require.NoError(t, err)

	require.NoError(t, r.WriteToMemoryAt(p, []byte("hello host memory")))
	got, err := r.ReadFromMemory(p, 17)
	require.NoError(t, err)
	assert.Equal(t, "hello host memory", string(got))

	r.Free(p)
	require.NoError(t, r.CheckInvariants())

	stats, err := r.GetMemoryStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Allocs)
	assert.EqualValues(t, 1, stats.Frees)
	assert.EqualValues(t, 65536, stats.Size)
}

func TestRuntime_MemoryNeverGrowsPastExportedPages(t *testing.T) {
	r := newTestRuntime(t)

	ok := r.Memory().Write(r.Memory().Size(), []byte{1})
	assert.False(t, ok, "writing past the exported page boundary must fail")
}

func TestRuntime_ReadFromMemory_OutOfBounds(t *testing.T) {
	r := newTestRuntime(t)

	_, err := r.ReadFromMemory(r.Memory().Size()-4, 100)
	require.Error(t, err)
	var wasmErr *wasm.WASMError
	require.ErrorAs(t, err, &wasmErr)
	assert.Equal(t, wasm.ErrCodeOutOfBounds, wasmErr.Code)
}
