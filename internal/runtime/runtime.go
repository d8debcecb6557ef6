// Package runtime hosts the backing memory and the allocator built on top
// of it. It intentionally has **no dependency** on internal/wasm so that
// we avoid import cycles (wasm -> runtime). internal/wasm.Runtime holds
// a *runtime.Runtime and delegates its allocation surface and stats to
// it; other packages just need the allocation and stats surface.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wasmrtk/dlmalloc/internal/heap"
)

// Runtime owns a backing heap.Memory plus the *heap.Heap allocator built
// on top of it, and tracks cleanup hooks to run on Close.
type Runtime struct {
	mu sync.Mutex // serializes calls into h; the allocator has no internal locking of its own

	mem heap.Memory
	h   *heap.Heap

	memoryUsage  atomic.Uint64
	memoryAllocs atomic.Uint64
	memoryFrees  atomic.Uint64

	cleanup []func() error
}

// New wraps mem as a fresh heap using cfg (nil selects heap.DefaultConfig).
func New(mem heap.Memory, cfg *heap.Config) (*Runtime, error) {
	h, err := heap.New(mem, cfg)
	if err != nil {
		return nil, err
	}
	return &Runtime{mem: mem, h: h}, nil
}

// AddCleanup registers a func that will run when Close() is invoked.
func (r *Runtime) AddCleanup(f func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanup = append(r.cleanup, f)
}

// Close executes all registered cleanup funcs.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last error
	for _, f := range r.cleanup {
		if err := f(); err != nil {
			last = err
		}
	}
	return last
}

// Heap returns the underlying allocator, for packages that need direct
// access (internal/wasm's bounds checker and HeapAllocator.GetStats, in
// particular).
func (r *Runtime) Heap() *heap.Heap { return r.h }

// Memory stats ---------------------------------------------------------

type MemStats struct {
	Usage  uint64
	Allocs uint64
	Frees  uint64
}

func (r *Runtime) Stats() MemStats {
	return MemStats{
		Usage:  r.memoryUsage.Load(),
		Allocs: r.memoryAllocs.Load(),
		Frees:  r.memoryFrees.Load(),
	}
}

// Allocation surface -----------------------------------------------------
//
// These delegate to the heap under r.mu, which is the "external
// serialization" spec.md's Non-goals call for: the allocator itself never
// locks internally.

func (r *Runtime) Allocate(n uint32) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.h.Allocate(n)
	if err != nil {
		return 0, err
	}
	r.memoryAllocs.Add(1)
	r.memoryUsage.Add(uint64(n))
	return p, nil
}

func (r *Runtime) ZeroedAllocate(n uint32) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.h.ZeroedAllocate(n)
	if err != nil {
		return 0, err
	}
	r.memoryAllocs.Add(1)
	r.memoryUsage.Add(uint64(n))
	return p, nil
}

func (r *Runtime) Reallocate(ptr, n uint32) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.h.Reallocate(ptr, n)
}

func (r *Runtime) Free(ptr uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.h.Free(ptr)
	r.memoryFrees.Add(1)
}

func (r *Runtime) ClearAndFree(ptr uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.h.ClearAndFree(ptr)
	r.memoryFrees.Add(1)
}

// Read copies size bytes starting at ptr out of the backing memory.
func (r *Runtime) Read(ptr, size uint32) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.mem.Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("runtime: read out of bounds: ptr=%d size=%d mem=%d", ptr, size, r.mem.Size())
	}
	return out, nil
}

// Write copies data into the backing memory starting at ptr.
func (r *Runtime) Write(ptr uint32, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.mem.Write(ptr, data) {
		return fmt.Errorf("runtime: write out of bounds: ptr=%d len=%d mem=%d", ptr, len(data), r.mem.Size())
	}
	return nil
}

// CheckInvariants runs the allocator's debug-build invariant assertions
// (spec §7) under the runtime's lock.
func (r *Runtime) CheckInvariants() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.h.CheckInvariants()
}
