package heap

// Config configures a Heap at construction time.
type Config struct {
	// HeapOffset is the byte offset of the heap within the backing
	// memory. Default 0.
	HeapOffset uint32
	// Quantum is the minimum block size and alignment granularity. Must
	// be a power of two and at least HeaderSize. Default 64.
	Quantum uint32
}

// DefaultConfig returns the spec's default configuration.
func DefaultConfig() *Config {
	return &Config{HeapOffset: DefaultHeapOffset, Quantum: DefaultQuantum}
}

// Heap is a dlmalloc-style allocator over mem[HeapOffset : HeapOffset+Size].
// It is single-threaded: callers needing concurrent use must serialize
// externally (spec §5, §9).
type Heap struct {
	mem          Memory
	heapOffset   uint32
	heapSize     uint32
	quantum      uint32
	freeListHead uint32
}

func isPowerOfTwo(v uint32) bool { return v != 0 && v&(v-1) == 0 }

// New bootstraps mem as a fresh heap: one free block spanning the whole
// region, all links Nil, FREE_LIST_HEAD pointing at it (spec §4.1). The
// usable heap size is mem.Size()-HeapOffset rounded down to a multiple of
// Quantum; any remainder is simply never addressed.
func New(mem Memory, cfg *Config) (*Heap, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if !isPowerOfTwo(cfg.Quantum) {
		return nil, &ConfigError{Field: "Quantum", Value: cfg.Quantum, Message: "must be a power of two"}
	}
	if cfg.Quantum < HeaderSize {
		return nil, &ConfigError{Field: "Quantum", Value: cfg.Quantum, Message: "must be at least the 20-byte free-block header"}
	}
	total := mem.Size()
	if cfg.HeapOffset > total {
		return nil, &ConfigError{Field: "HeapOffset", Value: cfg.HeapOffset, Message: "exceeds memory size"}
	}

	usable := total - cfg.HeapOffset
	usable -= usable % cfg.Quantum
	if usable < cfg.Quantum {
		return nil, &ConfigError{Field: "HeapOffset", Value: cfg.HeapOffset, Message: "not enough room for a single quantum-sized block"}
	}

	h := &Heap{
		mem:        mem,
		heapOffset: cfg.HeapOffset,
		heapSize:   usable,
		quantum:    cfg.Quantum,
	}
	h.Init()
	return h, nil
}

// Init resets the heap to a single free block spanning its whole region
// (spec §4.1). Safe to call on a heap with no live allocations.
func (h *Heap) Init() {
	h.freeListHead = h.heapOffset
	h.setBlockSize(h.heapOffset, h.heapSize)
	h.setNext(h.heapOffset, Nil)
	h.setPrev(h.heapOffset, Nil)
	h.setSmaller(h.heapOffset, Nil)
	h.setLarger(h.heapOffset, Nil)
}

// HeapOffset returns the configured heap offset.
func (h *Heap) HeapOffset() uint32 { return h.heapOffset }

// HeapSize returns the usable heap size in bytes.
func (h *Heap) HeapSize() uint32 { return h.heapSize }

// Quantum returns the block quantum.
func (h *Heap) Quantum() uint32 { return h.quantum }

// FreeListHead returns the current FREE_LIST_HEAD, or Nil.
func (h *Heap) FreeListHead() uint32 { return h.freeListHead }

// Memory returns the backing memory the heap is laid out over, for
// callers that need direct access (bulk copy helpers, in particular).
func (h *Heap) Memory() Memory { return h.mem }

// alignedBlockSize rounds a requested payload size to a block size: add
// the 4-byte header, then round up to the next multiple of Quantum
// (spec §4.2). aligned(s) = s + ((Quantum - (s & mask)) & mask).
func (h *Heap) alignedBlockSize(requested uint32) uint32 {
	s := requested + AllocHeaderSize
	mask := h.quantum - 1
	rem := s & mask
	if rem != 0 {
		s += h.quantum - rem
	}
	return s
}

// Allocate reserves a payload region of at least n bytes and returns the
// payload pointer (spec §4.7).
func (h *Heap) Allocate(n uint32) (uint32, error) {
	s := h.alignedBlockSize(n)
	b, err := h.search(s)
	if err != nil {
		if oom, ok := err.(*OutOfMemoryError); ok {
			oom.Requested = n
		}
		return 0, err
	}

	if h.blockSize(b) == s {
		h.removeFree(b)
	} else {
		h.split(b, s)
	}
	return b + AllocHeaderSize, nil
}

// ZeroedAllocate allocates n bytes and zeroes the entire payload region
// (block size minus the 4-byte header), not the header itself (spec
// §4.11 — corrected from the source's header-clobbering behavior).
func (h *Heap) ZeroedAllocate(n uint32) (uint32, error) {
	ptr, err := h.Allocate(n)
	if err != nil {
		return 0, err
	}
	h.zeroPayload(ptr)
	return ptr, nil
}

func (h *Heap) zeroPayload(ptr uint32) {
	blk := ptr - AllocHeaderSize
	payloadLen := h.blockSize(blk) - AllocHeaderSize
	h.mem.Write(ptr, make([]byte, payloadLen))
}

// Free returns the block backing ptr to the free pool and coalesces any
// address-adjacent free neighbors (spec §4.9).
func (h *Heap) Free(ptr uint32) {
	b := ptr - AllocHeaderSize
	size := h.blockSize(b)
	h.insertFree(b, size)
	h.coalesceSweep()
}

// ClearAndFree zeroes the payload region, then frees it (spec §4.11).
func (h *Heap) ClearAndFree(ptr uint32) {
	h.zeroPayload(ptr)
	h.Free(ptr)
}

// Reallocate resizes the allocation at ptr to hold newPayload bytes,
// preserving min(old, new) payload bytes (spec §4.10). If the size class
// is unchanged, ptr is returned as-is.
//
// This reuses the allocator's own free/allocate machinery: it frees the
// old block, allocates the new one, and copies the old payload across.
// The first 16 bytes are captured before the free, because free()
// immediately overwrites the freed block's 20-byte header — which
// includes those first 16 payload bytes — with free-list link fields.
func (h *Heap) Reallocate(ptr, newPayload uint32) (uint32, error) {
	oldBlock := ptr - AllocHeaderSize
	oldSize := h.blockSize(oldBlock)
	newSize := h.alignedBlockSize(newPayload)

	if newSize == oldSize {
		return ptr, nil
	}

	var saved [16]byte
	if head, ok := h.mem.Read(ptr, 16); ok {
		copy(saved[:], head)
	}

	// The tail is also captured before the free/allocate round-trip: the
	// new allocation's split-off remainder header can land inside the old
	// payload when the new block starts below the old one. The copy is
	// clamped to min(old,new)-20 bytes so it never runs past the new
	// payload's end (spec §9, "source quirks").
	tail := oldSize
	if newSize < tail {
		tail = newSize
	}
	var rest []byte
	if tail > HeaderSize {
		rest, _ = h.mem.Read(ptr+16, tail-HeaderSize)
	}

	h.Free(ptr)

	newPtr, err := h.Allocate(newPayload)
	if err != nil {
		return 0, err
	}

	h.mem.Write(newPtr, saved[:])
	if rest != nil {
		h.mem.Write(newPtr+16, rest)
	}

	return newPtr, nil
}
