package heap

// Nil is the sentinel "no such block" offset (spec §3.1).
const Nil uint32 = 0xFFFFFFFF

// Free-block header field offsets, relative to a block's start (spec §3.1).
const (
	fieldSize    = 0
	fieldNext    = 4
	fieldPrev    = 8
	fieldSmaller = 12
	fieldLarger  = 16
)

// HeaderSize is the full free-block header length: size + four links.
const HeaderSize = 20

// AllocHeaderSize is the header an allocated block carries: just the size
// field. The payload pointer returned to callers is always block+4.
const AllocHeaderSize = 4

// DefaultQuantum is the default block quantum (minimum block size and
// alignment granularity).
const DefaultQuantum = 64

// DefaultHeapOffset is the default byte offset of the heap within the
// backing buffer.
const DefaultHeapOffset = 0
