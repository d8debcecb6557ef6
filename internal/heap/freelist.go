package heap

// search returns the smallest free block with size >= minSize, exploiting
// the size-ordered list (spec §4.3). It never mutates the heap.
func (h *Heap) search(minSize uint32) (uint32, error) {
	cur := h.freeListHead
	if cur == Nil {
		return Nil, &OutOfMemoryError{Aligned: minSize}
	}

	for {
		sz := h.blockSize(cur)
		if sz < minSize {
			lg := h.larger(cur)
			if lg == Nil {
				return Nil, &OutOfMemoryError{Aligned: minSize}
			}
			cur = lg
			continue
		}

		sm := h.smaller(cur)
		if sm == Nil {
			return cur, nil
		}
		if h.blockSize(sm) < minSize {
			return cur, nil
		}
		cur = sm
	}
}

// removeFree excises a free block from both orderings (spec §4.4). The
// block's own size and payload are left untouched; the caller overwrites
// them (via split, or by discarding the block into an allocation).
func (h *Heap) removeFree(off uint32) {
	nxt := h.next(off)
	prv := h.prev(off)
	sm := h.smaller(off)
	lg := h.larger(off)

	if off == h.freeListHead {
		h.freeListHead = nxt
	}

	h.patchField(nxt, fieldPrev, prv)
	h.patchField(prv, fieldNext, nxt)
	h.patchField(sm, fieldLarger, lg)
	h.patchField(lg, fieldSmaller, sm)
}

// insertFree inserts a free block of the given size at the given address
// into both orderings (spec §4.5), updating FREE_LIST_HEAD when necessary.
func (h *Heap) insertFree(off, size uint32) {
	h.setBlockSize(off, size)

	if h.freeListHead == Nil {
		h.freeListHead = off
		h.setNext(off, Nil)
		h.setPrev(off, Nil)
		h.setSmaller(off, Nil)
		h.setLarger(off, Nil)
		return
	}

	// Address traversal: find the first free block whose address exceeds
	// off; that is the new NEXT, the block before it is the new PREV.
	var prevAddr, nextAddr uint32 = Nil, Nil
	cur := h.freeListHead
	for cur != Nil && cur < off {
		prevAddr = cur
		cur = h.next(cur)
	}
	nextAddr = cur

	// Size traversal: descend from the head toward off's size class.
	var smallerN, largerN uint32 = Nil, Nil
	head := h.freeListHead
	if h.blockSize(head) < size {
		c := head
		for {
			lg := h.larger(c)
			if lg == Nil || h.blockSize(lg) >= size {
				smallerN, largerN = c, lg
				break
			}
			c = lg
		}
	} else {
		c := head
		for {
			sm := h.smaller(c)
			if sm == Nil || h.blockSize(sm) < size {
				largerN, smallerN = c, sm
				break
			}
			c = sm
		}
	}

	h.setNext(off, nextAddr)
	h.setPrev(off, prevAddr)
	h.setSmaller(off, smallerN)
	h.setLarger(off, largerN)

	h.patchField(nextAddr, fieldPrev, off)
	h.patchField(prevAddr, fieldNext, off)
	h.patchField(smallerN, fieldLarger, off)
	h.patchField(largerN, fieldSmaller, off)

	if off < h.freeListHead {
		h.freeListHead = off
	}
}

// split truncates free block off to size allocSize, inserting the
// remainder back into the free list (spec §4.6). Precondition: off is
// currently free, size(off) > allocSize.
func (h *Heap) split(off, allocSize uint32) {
	total := h.blockSize(off)
	h.removeFree(off)
	h.insertFree(off+allocSize, total-allocSize)
	h.setBlockSize(off, allocSize)
}

// mergeAdjacent merges two address-adjacent free blocks into one at b1's
// offset (spec §4.8) and returns that offset.
func (h *Heap) mergeAdjacent(b1, b2 uint32) uint32 {
	combined := h.blockSize(b1) + h.blockSize(b2)
	h.removeFree(b1)
	h.removeFree(b2)
	h.insertFree(b1, combined)
	return b1
}

// coalesceSweep walks the address list once, merging any address-adjacent
// free blocks it finds, re-examining a merged block before advancing
// (spec §4.9) so that a chain of adjacent free blocks fully collapses.
func (h *Heap) coalesceSweep() {
	cur := h.freeListHead
	for cur != Nil {
		nxt := h.next(cur)
		if nxt != Nil && cur+h.blockSize(cur) == nxt {
			cur = h.mergeAdjacent(cur, nxt)
			continue
		}
		cur = nxt
	}
}
