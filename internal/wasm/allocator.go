package wasm

import (
	"context"
	"fmt"

	"github.com/wasmrtk/dlmalloc/internal/errors"
)

// AllocatorError represents an allocator-related failure raised at the
// wasm host boundary, wrapping the underlying heap error and classifying
// it into the numeric Errno that would cross a guest ABI boundary.
type AllocatorError struct {
	Op      string
	Size    uint32
	Message string
	Errno   *errors.Errno
	Context map[string]interface{}
}

func (e *AllocatorError) Error() string {
	return fmt.Sprintf("allocator error [%s] errno=%d: %s (size=%d)", e.Op, e.Errno.Code(), e.Message, e.Size)
}

func (e *AllocatorError) Unwrap() error {
	if err, ok := e.Context["error"].(error); ok {
		return err
	}
	return nil
}

// AllocatorInterface is the host-facing allocation surface exposed over
// hosted WASM linear memory. A single implementation backs it: the
// best-fit, address/size doubly-linked-list heap in internal/heap.
type AllocatorInterface interface {
	Allocate(ctx context.Context, size uint32) (uint32, error)
	ZeroedAllocate(ctx context.Context, size uint32) (uint32, error)
	Reallocate(ctx context.Context, address, newSize uint32) (uint32, error)
	Deallocate(ctx context.Context, address uint32) error
	ClearAndDeallocate(ctx context.Context, address uint32) error
	GetStats() map[string]interface{}
	CheckInvariants() error
}

// HeapAllocator adapts a *Runtime's heap to AllocatorInterface.
type HeapAllocator struct {
	runtime *Runtime
}

// NewHeapAllocator wraps r's heap as an AllocatorInterface.
func NewHeapAllocator(r *Runtime) *HeapAllocator {
	return &HeapAllocator{runtime: r}
}

func (a *HeapAllocator) Allocate(ctx context.Context, size uint32) (uint32, error) {
	p, err := a.runtime.Allocate(size)
	if err != nil {
		return 0, &AllocatorError{Op: "allocate", Size: size, Message: err.Error(), Errno: ErrnoFor(err), Context: map[string]interface{}{"error": err}}
	}
	return p, nil
}

func (a *HeapAllocator) ZeroedAllocate(ctx context.Context, size uint32) (uint32, error) {
	p, err := a.runtime.ZeroedAllocate(size)
	if err != nil {
		return 0, &AllocatorError{Op: "zeroed_allocate", Size: size, Message: err.Error(), Errno: ErrnoFor(err), Context: map[string]interface{}{"error": err}}
	}
	return p, nil
}

func (a *HeapAllocator) Reallocate(ctx context.Context, address, newSize uint32) (uint32, error) {
	p, err := a.runtime.Reallocate(address, newSize)
	if err != nil {
		return 0, &AllocatorError{Op: "reallocate", Size: newSize, Message: err.Error(), Errno: ErrnoFor(err), Context: map[string]interface{}{"error": err}}
	}
	return p, nil
}

func (a *HeapAllocator) Deallocate(ctx context.Context, address uint32) error {
	a.runtime.Free(address)
	return nil
}

func (a *HeapAllocator) ClearAndDeallocate(ctx context.Context, address uint32) error {
	a.runtime.ClearAndFree(address)
	return nil
}

// CheckInvariants runs the allocator's debug-build invariant assertions.
func (a *HeapAllocator) CheckInvariants() error {
	return a.runtime.CheckInvariants()
}

// GetStats returns allocator statistics keyed the way the host's debug
// and metrics tooling expects to read them.
func (a *HeapAllocator) GetStats() map[string]interface{} {
	stats, err := a.runtime.GetMemoryStats()
	if err != nil {
		return map[string]interface{}{"error": err.Error(), "errno": ErrnoFor(err).Code()}
	}
	return map[string]interface{}{
		"allocations": stats.Allocs,
		"frees":       stats.Frees,
		"memorySize":  stats.Size,
		"capacity":    stats.Capacity,
		"heapSize":    a.runtime.Heap().HeapSize(),
		"quantum":     a.runtime.Heap().Quantum(),
	}
}
