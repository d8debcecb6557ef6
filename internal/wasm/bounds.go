package wasm

import (
	"fmt"
	"math"
	"sync/atomic"
)

// BoundsError represents a bounds-related violation against the hosted
// linear memory or the heap laid out over it.
type BoundsError struct {
	Type    string
	Address uint32
	Size    uint32
	Limit   uint32
	Message string
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("bounds error [%s]: %s (addr=0x%x, size=%d, limit=0x%x)",
		e.Type, e.Message, e.Address, e.Size, e.Limit)
}

// BoundsChecker validates that a read/write/allocation request stays
// within the runtime's hosted memory, without relying on the underlying
// heap.Memory implementation to catch it first.
type BoundsChecker struct {
	runtime *Runtime

	checksPerformed atomic.Uint64
	violationsFound atomic.Uint64
}

// NewBoundsChecker returns a checker bound to r's hosted memory.
func NewBoundsChecker(r *Runtime) *BoundsChecker {
	return &BoundsChecker{runtime: r}
}

// CheckAccess validates that [addr, addr+size) lies within the hosted
// memory's current size, and that addr+size does not overflow uint32.
func (b *BoundsChecker) CheckAccess(addr, size uint32) error {
	b.checksPerformed.Add(1)

	limit := b.runtime.Memory().Size()

	if size > math.MaxUint32-addr {
		b.violationsFound.Add(1)
		return &BoundsError{Type: "overflow", Address: addr, Size: size, Limit: limit, Message: "address+size overflows uint32"}
	}
	if addr+size > limit {
		b.violationsFound.Add(1)
		return &BoundsError{Type: "out_of_bounds", Address: addr, Size: size, Limit: limit, Message: "access exceeds hosted memory size"}
	}
	return nil
}

// CheckPointer validates that ptr lies within the heap's managed range,
// which is a prerequisite the heap's own block-header reads assume but
// do not themselves verify for arbitrary caller-supplied pointers.
func (b *BoundsChecker) CheckPointer(ptr uint32) error {
	b.checksPerformed.Add(1)

	h := b.runtime.Heap()
	start := h.HeapOffset()
	end := start + h.HeapSize()

	if ptr < start || ptr >= end {
		b.violationsFound.Add(1)
		return &BoundsError{Type: "invalid_pointer", Address: ptr, Limit: end, Message: "pointer outside heap range"}
	}
	return nil
}

// Stats returns running counters for diagnostics.
func (b *BoundsChecker) Stats() (checks, violations uint64) {
	return b.checksPerformed.Load(), b.violationsFound.Load()
}
