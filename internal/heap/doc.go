// Package heap implements a dlmalloc-style allocator over a single
// fixed-size, byte-addressable linear buffer. Free blocks carry an
// intrusive header combining an address-ordered doubly-linked list and a
// size-ordered doubly-linked list; allocation does a best-fit descent of
// the size list, and freeing coalesces address-adjacent free blocks.
//
// The package never grows its buffer and never synchronizes access: a
// *Heap is a single-threaded value, and callers needing concurrent use
// must serialize externally.
package heap
