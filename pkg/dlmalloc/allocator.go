package dlmalloc

import (
	"context"

	"github.com/wasmrtk/dlmalloc/internal/heap"
	"github.com/wasmrtk/dlmalloc/internal/wasm"
)

// Allocator is the public handle over a hosted heap. Its methods mirror
// the allocator's laws directly: Allocate/ZeroedAllocate/Reallocate/
// Free/ClearAndFree/MemCopy/MemMoveSecure. Every allocation-class call
// flows through a wasm.HeapAllocator wrapped in a wasm.MemoryDebugger, so
// Leaks() and the debug log see every call uniformly, not just a subset.
type Allocator struct {
	runtime  *wasm.Runtime
	debugger *wasm.MemoryDebugger
}

// New builds an Allocator: it exports fixed-size wazero host memory per
// cfg and lays the heap out over it. Pass nil for NewConfig()'s defaults.
func New(ctx context.Context, cfg *Config) (*Allocator, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	r, err := wasm.NewRuntime(ctx, cfg.wasmConfig())
	if err != nil {
		return nil, err
	}

	return &Allocator{
		runtime:  r,
		debugger: wasm.NewMemoryDebugger(wasm.NewHeapAllocator(r), cfg.debugLevel, nil),
	}, nil
}

// Allocate returns a pointer to a payload of at least n bytes.
func (a *Allocator) Allocate(n uint32) (uint32, error) {
	return a.debugger.Allocate(n)
}

// ZeroedAllocate returns a pointer to a zero-filled payload of at least
// n bytes.
func (a *Allocator) ZeroedAllocate(n uint32) (uint32, error) {
	return a.debugger.ZeroedAllocate(n)
}

// Reallocate resizes the allocation at ptr to hold at least n bytes,
// preserving min(old, new) bytes of payload, and returns the (possibly
// unchanged) pointer.
func (a *Allocator) Reallocate(ptr, n uint32) (uint32, error) {
	return a.debugger.Reallocate(ptr, n)
}

// Free releases the allocation at ptr back to the heap.
func (a *Allocator) Free(ptr uint32) error {
	return a.debugger.Free(ptr)
}

// ClearAndFree zeroes the allocation's payload before releasing it.
func (a *Allocator) ClearAndFree(ptr uint32) error {
	return a.debugger.ClearAndFree(ptr)
}

// MemCopy copies n bytes from src to dst within the hosted memory.
func (a *Allocator) MemCopy(src, n, dst uint32) {
	heap.MemCopy(a.runtime.Heap().Memory(), src, n, dst)
}

// MemMoveSecure copies n bytes from src to dst, then zeroes the source.
func (a *Allocator) MemMoveSecure(src, n, dst uint32) {
	heap.MemMoveSecure(a.runtime.Heap().Memory(), src, n, dst)
}

// Stats returns allocation/free counters and memory usage.
func (a *Allocator) Stats() (*wasm.MemoryStats, error) {
	return a.runtime.GetMemoryStats()
}

// Leaks reports every allocation not yet freed.
func (a *Allocator) Leaks() []*wasm.AllocationInfo {
	return a.debugger.ReportLeaks()
}

// CheckInvariants runs the allocator's debug-build invariant assertions.
func (a *Allocator) CheckInvariants() error {
	return a.runtime.CheckInvariants()
}

// Close releases the hosted wazero runtime.
func (a *Allocator) Close(ctx context.Context) error {
	return a.runtime.Close(ctx)
}
