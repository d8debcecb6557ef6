package wasm

import (
	"context"
	"fmt"
	goruntime "runtime"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmrtk/dlmalloc/internal/heap"
	"github.com/wasmrtk/dlmalloc/internal/runtime"
)

// Error codes identify the class of failure behind a *WASMError.
const (
	ErrCodeRuntimeInit    uint16 = 1
	ErrCodeMemoryNotInit  uint16 = 2
	ErrCodeMemoryExceeded uint16 = 3
	ErrCodeOutOfBounds    uint16 = 4
	ErrCodeWriteFailed    uint16 = 5
	ErrCodeReadFailed     uint16 = 6
	ErrCodeCloseFailed    uint16 = 7
)

// WASMError represents a host-memory or runtime-level failure.
type WASMError struct {
	Code    uint16
	Message string
	Context map[string]interface{}
	Stack   string
}

func (e *WASMError) Error() string {
	return fmt.Sprintf("wasm error %d: %s", e.Code, e.Message)
}

func (e *WASMError) Unwrap() error {
	if err, ok := e.Context["error"].(error); ok {
		return err
	}
	return nil
}

// NewWASMError creates a new WASMError with a captured stack trace.
func NewWASMError(code uint16, message string, context map[string]interface{}) *WASMError {
	const depth = 32
	var pcs [depth]uintptr
	n := goruntime.Callers(3, pcs[:])
	frames := goruntime.CallersFrames(pcs[:n])

	var stack string
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("\n%s\n\t%s:%d", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}

	return &WASMError{Code: code, Message: message, Context: context, Stack: stack}
}

// Config holds configuration for the hosted WASM linear memory and the
// heap allocator instantiated over it.
type Config struct {
	// MemoryPages sets the linear memory size in 64KiB pages. The memory
	// is exported fixed-size: it never grows past this.
	MemoryPages uint32
	// HeapConfig configures the allocator laid out over that memory. Nil
	// selects heap.DefaultConfig.
	HeapConfig *heap.Config
}

// DefaultConfig returns a Config sized for a single 64KiB page, matching
// the allocator's documented scenarios.
func DefaultConfig() *Config {
	return &Config{
		MemoryPages: 1,
		HeapConfig:  heap.DefaultConfig(),
	}
}

// MemoryStats mirrors heap/runtime usage counters alongside the raw
// linear memory size.
type MemoryStats struct {
	Usage    uint64
	Allocs   uint64
	Frees    uint64
	Size     uint32
	Capacity uint32
}

// Runtime owns the wazero engine hosting a fixed-size linear memory, and
// delegates all allocation and stats bookkeeping to an
// *internal/runtime.Runtime built over that memory. Runtime's own job is
// purely the wazero lifecycle (export memory, close the engine); it never
// touches *heap.Heap directly.
type Runtime struct {
	Engine wazero.Runtime
	Config *Config

	memory api.Memory
	rt     *runtime.Runtime
}

// NewRuntime builds a wazero runtime, exports host-owned fixed-size
// memory sized by cfg.MemoryPages, and hands it to a fresh
// internal/runtime.Runtime. No guest module is compiled or instantiated:
// the memory is created directly via wazero.HostModuleBuilder.ExportMemory,
// so the heap never has to contend with guest-driven Memory.Grow.
func NewRuntime(ctx context.Context, config *Config) (*Runtime, error) {
	if config == nil {
		config = DefaultConfig()
	}

	engine := wazero.NewRuntime(ctx)

	hostModule, err := engine.NewHostModuleBuilder("env").
		ExportMemory("memory", config.MemoryPages).
		Instantiate(ctx)
	if err != nil {
		_ = engine.Close(ctx)
		return nil, NewWASMError(ErrCodeRuntimeInit, "failed to export host memory", map[string]interface{}{"error": err})
	}

	memory := hostModule.Memory()
	if memory == nil {
		_ = engine.Close(ctx)
		return nil, NewWASMError(ErrCodeMemoryNotInit, "host module did not export memory", nil)
	}

	rt, err := runtime.New(memory, config.HeapConfig)
	if err != nil {
		_ = engine.Close(ctx)
		return nil, NewWASMError(ErrCodeRuntimeInit, "failed to initialize heap over host memory", map[string]interface{}{"error": err})
	}

	return &Runtime{
		Engine: engine,
		Config: config,
		memory: memory,
		rt:     rt,
	}, nil
}

// Heap returns the allocator laid out over the hosted memory.
func (r *Runtime) Heap() *heap.Heap { return r.rt.Heap() }

// Memory returns the underlying wazero memory, for bounds/debug helpers.
func (r *Runtime) Memory() api.Memory { return r.memory }

// Allocate, ZeroedAllocate, Reallocate, Free and ClearAndFree delegate to
// the internal/runtime.Runtime held in rt, which serializes access to the
// heap: the allocator itself holds no internal lock.

func (r *Runtime) Allocate(n uint32) (uint32, error) { return r.rt.Allocate(n) }

func (r *Runtime) ZeroedAllocate(n uint32) (uint32, error) { return r.rt.ZeroedAllocate(n) }

func (r *Runtime) Reallocate(ptr, n uint32) (uint32, error) { return r.rt.Reallocate(ptr, n) }

func (r *Runtime) Free(ptr uint32) { r.rt.Free(ptr) }

func (r *Runtime) ClearAndFree(ptr uint32) { r.rt.ClearAndFree(ptr) }

// GetMemoryStats returns memory usage statistics.
func (r *Runtime) GetMemoryStats() (*MemoryStats, error) {
	if r.memory == nil {
		return nil, NewWASMError(ErrCodeMemoryNotInit, "memory not initialized", nil)
	}

	s := r.rt.Stats()
	return &MemoryStats{
		Usage:    s.Usage,
		Allocs:   s.Allocs,
		Frees:    s.Frees,
		Size:     r.memory.Size(),
		Capacity: r.Config.MemoryPages * 65536,
	}, nil
}

// ReadFromMemory reads size bytes from ptr in the hosted memory.
func (r *Runtime) ReadFromMemory(ptr, size uint32) ([]byte, error) {
	if r.memory == nil {
		return nil, NewWASMError(ErrCodeMemoryNotInit, "memory not initialized", nil)
	}
	if ptr+size > r.memory.Size() {
		return nil, NewWASMError(ErrCodeOutOfBounds, "memory access out of bounds", nil)
	}
	data, ok := r.memory.Read(ptr, size)
	if !ok {
		return nil, NewWASMError(ErrCodeReadFailed, "failed to read from memory", nil)
	}
	return data, nil
}

// WriteToMemoryAt writes data into the hosted memory at ptr.
func (r *Runtime) WriteToMemoryAt(ptr uint32, data []byte) error {
	if r.memory == nil {
		return NewWASMError(ErrCodeMemoryNotInit, "memory not initialized", nil)
	}
	if !r.memory.Write(ptr, data) {
		return NewWASMError(ErrCodeWriteFailed, "failed to write to memory", nil)
	}
	return nil
}

// CheckInvariants runs the allocator's debug-build invariant assertions.
func (r *Runtime) CheckInvariants() error { return r.rt.CheckInvariants() }

// AddCleanup registers a func that runs when Close is invoked.
func (r *Runtime) AddCleanup(fn func() error) { r.rt.AddCleanup(fn) }

// Close runs registered cleanup funcs via the rt runtime, then
// closes the wazero engine.
func (r *Runtime) Close(ctx context.Context) error {
	rtErr := r.rt.Close(ctx)

	if r.Engine != nil {
		if err := r.Engine.Close(ctx); err != nil {
			return NewWASMError(ErrCodeCloseFailed, "failed to close runtime", map[string]interface{}{"error": err})
		}
	}
	return rtErr
}
