package wasm

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// DebugLevel defines the level of debug information a MemoryDebugger emits.
type DebugLevel int

const (
	// DebugOff disables all debug output and invariant checking.
	DebugOff DebugLevel = iota
	// DebugError only logs errors.
	DebugError
	// DebugInfo logs allocation/free events.
	DebugInfo
	// DebugVerbose also runs CheckInvariants after every mutation.
	DebugVerbose
)

// AllocationInfo records a single outstanding allocation for leak detection.
type AllocationInfo struct {
	Pointer uint32
	Size    uint32
}

// AllocationTracker tracks live allocations so a debugger can report leaks.
type AllocationTracker struct {
	mu          sync.Mutex
	allocations map[uint32]*AllocationInfo

	totalAllocations atomic.Uint64
	totalFrees       atomic.Uint64
}

// NewAllocationTracker returns an empty tracker.
func NewAllocationTracker() *AllocationTracker {
	return &AllocationTracker{allocations: make(map[uint32]*AllocationInfo)}
}

func (t *AllocationTracker) recordAlloc(ptr, size uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allocations[ptr] = &AllocationInfo{Pointer: ptr, Size: size}
	t.totalAllocations.Add(1)
}

func (t *AllocationTracker) recordFree(ptr uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.allocations, ptr)
	t.totalFrees.Add(1)
}

// Leaks returns every allocation that has not yet been freed.
func (t *AllocationTracker) Leaks() []*AllocationInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	leaks := make([]*AllocationInfo, 0, len(t.allocations))
	for _, info := range t.allocations {
		leaks = append(leaks, info)
	}
	return leaks
}

// MemoryDebugger wraps an AllocatorInterface with logging, leak tracking,
// and optional invariant checking on every mutation. Wrapping the
// interface rather than *Runtime directly means the same debugger works
// against any AllocatorInterface implementation, not just HeapAllocator.
type MemoryDebugger struct {
	alloc  AllocatorInterface
	level  DebugLevel
	output io.Writer

	tracker *AllocationTracker

	debugCallsCount atomic.Uint64
}

// NewMemoryDebugger wraps alloc with debugging at the given level,
// logging to out (os.Stderr if nil).
func NewMemoryDebugger(alloc AllocatorInterface, level DebugLevel, out io.Writer) *MemoryDebugger {
	if out == nil {
		out = os.Stderr
	}
	return &MemoryDebugger{
		alloc:   alloc,
		level:   level,
		output:  out,
		tracker: NewAllocationTracker(),
	}
}

func (d *MemoryDebugger) logf(format string, args ...interface{}) {
	if d.level < DebugInfo {
		return
	}
	fmt.Fprintf(d.output, format+"\n", args...)
}

func (d *MemoryDebugger) logErrorf(format string, args ...interface{}) {
	if d.level < DebugError {
		return
	}
	fmt.Fprintf(d.output, format+"\n", args...)
}

// Allocate allocates n bytes, logging and tracking the result.
func (d *MemoryDebugger) Allocate(n uint32) (uint32, error) {
	d.debugCallsCount.Add(1)
	p, err := d.alloc.Allocate(context.Background(), n)
	if err != nil {
		d.logErrorf("[alloc] FAILED size=%d: %v", n, err)
		return 0, err
	}
	d.tracker.recordAlloc(p, n)
	d.logf("[alloc] ptr=%d size=%d", p, n)
	if d.level >= DebugVerbose {
		if ierr := d.alloc.CheckInvariants(); ierr != nil {
			return p, ierr
		}
	}
	return p, nil
}

// ZeroedAllocate allocates n zero-filled bytes, logging and tracking the
// result the same way Allocate does.
func (d *MemoryDebugger) ZeroedAllocate(n uint32) (uint32, error) {
	d.debugCallsCount.Add(1)
	p, err := d.alloc.ZeroedAllocate(context.Background(), n)
	if err != nil {
		d.logErrorf("[zeroed_alloc] FAILED size=%d: %v", n, err)
		return 0, err
	}
	d.tracker.recordAlloc(p, n)
	d.logf("[zeroed_alloc] ptr=%d size=%d", p, n)
	if d.level >= DebugVerbose {
		if ierr := d.alloc.CheckInvariants(); ierr != nil {
			return p, ierr
		}
	}
	return p, nil
}

// Reallocate resizes the allocation at ptr to n bytes, logging and
// re-tracking it under whatever pointer it ends up at (reallocation may
// move the payload).
func (d *MemoryDebugger) Reallocate(ptr, n uint32) (uint32, error) {
	d.debugCallsCount.Add(1)
	p, err := d.alloc.Reallocate(context.Background(), ptr, n)
	if err != nil {
		d.logErrorf("[realloc] FAILED ptr=%d size=%d: %v", ptr, n, err)
		return 0, err
	}
	d.tracker.recordFree(ptr)
	d.tracker.recordAlloc(p, n)
	d.logf("[realloc] ptr=%d size=%d -> ptr=%d", ptr, n, p)
	if d.level >= DebugVerbose {
		if ierr := d.alloc.CheckInvariants(); ierr != nil {
			return p, ierr
		}
	}
	return p, nil
}

// Free frees ptr, logging and untracking it.
func (d *MemoryDebugger) Free(ptr uint32) error {
	d.debugCallsCount.Add(1)
	if err := d.alloc.Deallocate(context.Background(), ptr); err != nil {
		d.logErrorf("[free] FAILED ptr=%d: %v", ptr, err)
		return err
	}
	d.tracker.recordFree(ptr)
	d.logf("[free] ptr=%d", ptr)
	if d.level >= DebugVerbose {
		return d.alloc.CheckInvariants()
	}
	return nil
}

// ClearAndFree zeroes the allocation's payload before releasing it,
// logging and untracking it the same way Free does.
func (d *MemoryDebugger) ClearAndFree(ptr uint32) error {
	d.debugCallsCount.Add(1)
	if err := d.alloc.ClearAndDeallocate(context.Background(), ptr); err != nil {
		d.logErrorf("[clear_and_free] FAILED ptr=%d: %v", ptr, err)
		return err
	}
	d.tracker.recordFree(ptr)
	d.logf("[clear_and_free] ptr=%d", ptr)
	if d.level >= DebugVerbose {
		return d.alloc.CheckInvariants()
	}
	return nil
}

// ReportLeaks logs and returns every allocation never freed.
func (d *MemoryDebugger) ReportLeaks() []*AllocationInfo {
	leaks := d.tracker.Leaks()
	for _, l := range leaks {
		d.logf("[leak] ptr=%d size=%d", l.Pointer, l.Size)
	}
	return leaks
}
