package wasm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmrtk/dlmalloc/internal/wasm"
)

func TestMemoryDebugger_LogsAllocAndFree(t *testing.T) {
	r := newTestRuntime(t)
	var buf bytes.Buffer
	d := wasm.NewMemoryDebugger(wasm.NewHeapAllocator(r), wasm.DebugInfo, &buf)

	p, err := d.Allocate(50)
	require.NoError(t, err)
	require.NoError(t, d.Free(p))

	assert.Contains(t, buf.String(), "[alloc]")
	assert.Contains(t, buf.String(), "[free]")
}

func TestMemoryDebugger_LogsFailureAtErrorLevel(t *testing.T) {
	r := newTestRuntime(t)
	var buf bytes.Buffer
	d := wasm.NewMemoryDebugger(wasm.NewHeapAllocator(r), wasm.DebugError, &buf)

	_, err := d.Allocate(1 << 30)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "[alloc] FAILED")
}

func TestMemoryDebugger_ReportLeaks(t *testing.T) {
	r := newTestRuntime(t)
	d := wasm.NewMemoryDebugger(wasm.NewHeapAllocator(r), wasm.DebugOff, nil)

	p, err := d.Allocate(20)
	require.NoError(t, err)

	leaks := d.ReportLeaks()
	require.Len(t, leaks, 1)
	assert.Equal(t, p, leaks[0].Pointer)

	require.NoError(t, d.Free(p))
	assert.Empty(t, d.ReportLeaks())
}

func TestMemoryDebugger_ZeroedAllocateIsTrackedForLeaks(t *testing.T) {
	r := newTestRuntime(t)
	d := wasm.NewMemoryDebugger(wasm.NewHeapAllocator(r), wasm.DebugOff, nil)

	p, err := d.ZeroedAllocate(20)
	require.NoError(t, err)

	leaks := d.ReportLeaks()
	require.Len(t, leaks, 1)
	assert.Equal(t, p, leaks[0].Pointer)

	require.NoError(t, d.Free(p))
	assert.Empty(t, d.ReportLeaks())
}

func TestMemoryDebugger_VerboseRunsInvariantsOnEveryMutation(t *testing.T) {
	r := newTestRuntime(t)
	d := wasm.NewMemoryDebugger(wasm.NewHeapAllocator(r), wasm.DebugVerbose, nil)

	p, err := d.Allocate(30)
	require.NoError(t, err)
	require.NoError(t, d.Free(p))
}
