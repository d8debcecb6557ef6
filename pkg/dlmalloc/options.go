// Package dlmalloc is the public facade over the best-fit, address- and
// size-ordered free-list allocator in internal/heap, hosted on a wazero
// linear memory via internal/wasm.
package dlmalloc

import (
	"github.com/wasmrtk/dlmalloc/internal/heap"
	"github.com/wasmrtk/dlmalloc/internal/wasm"
)

// Config configures an Allocator. Build one with NewConfig and the
// With... methods, wazero-RuntimeConfig style. Its fields are unexported,
// so a Config{} literal has a zero quantum, which New rejects.
type Config struct {
	memoryPages uint32
	heapOffset  uint32
	quantum     uint32
	debugLevel  wasm.DebugLevel
}

// NewConfig returns a Config seeded with the allocator's documented
// defaults: one 64KiB page, heap at offset zero, 64-byte quantum.
func NewConfig() *Config {
	return &Config{
		memoryPages: 1,
		heapOffset:  heap.DefaultHeapOffset,
		quantum:     heap.DefaultQuantum,
		debugLevel:  wasm.DebugOff,
	}
}

// WithMemoryPages sets the number of 64KiB pages exported as host
// memory. The memory never grows past this.
func (c *Config) WithMemoryPages(pages uint32) *Config {
	c.memoryPages = pages
	return c
}

// WithHeapOffset sets the byte offset within memory where the heap begins.
func (c *Config) WithHeapOffset(offset uint32) *Config {
	c.heapOffset = offset
	return c
}

// WithQuantum sets the allocator's alignment and minimum block-size
// granularity. Must be a power of two no smaller than the free-block
// header size.
func (c *Config) WithQuantum(quantum uint32) *Config {
	c.quantum = quantum
	return c
}

// WithDebugLevel sets how verbosely the allocator logs and checks its
// own invariants.
func (c *Config) WithDebugLevel(level wasm.DebugLevel) *Config {
	c.debugLevel = level
	return c
}

func (c *Config) wasmConfig() *wasm.Config {
	return &wasm.Config{
		MemoryPages: c.memoryPages,
		HeapConfig: &heap.Config{
			HeapOffset: c.heapOffset,
			Quantum:    c.quantum,
		},
	}
}
