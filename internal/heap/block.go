package heap

// Field accessors read and write a single 20-byte free-block header field
// at a known block offset. Allocated blocks only ever have their size
// field touched through blockSize/setBlockSize.

func (h *Heap) blockSize(off uint32) uint32 {
	v, _ := h.mem.ReadUint32Le(off + fieldSize)
	return v
}

func (h *Heap) setBlockSize(off, size uint32) {
	h.mem.WriteUint32Le(off+fieldSize, size)
}

func (h *Heap) next(off uint32) uint32 {
	v, _ := h.mem.ReadUint32Le(off + fieldNext)
	return v
}

func (h *Heap) setNext(off, v uint32) {
	h.mem.WriteUint32Le(off+fieldNext, v)
}

func (h *Heap) prev(off uint32) uint32 {
	v, _ := h.mem.ReadUint32Le(off + fieldPrev)
	return v
}

func (h *Heap) setPrev(off, v uint32) {
	h.mem.WriteUint32Le(off+fieldPrev, v)
}

func (h *Heap) smaller(off uint32) uint32 {
	v, _ := h.mem.ReadUint32Le(off + fieldSmaller)
	return v
}

func (h *Heap) setSmaller(off, v uint32) {
	h.mem.WriteUint32Le(off+fieldSmaller, v)
}

func (h *Heap) larger(off uint32) uint32 {
	v, _ := h.mem.ReadUint32Le(off + fieldLarger)
	return v
}

func (h *Heap) setLarger(off, v uint32) {
	h.mem.WriteUint32Le(off+fieldLarger, v)
}

// patchField writes value into the field at fieldOffset of the block at
// blockOffset, unless blockOffset is Nil, in which case it is a no-op.
// This is the one seam insert/remove use to update up to four neighbor
// mirror fields (spec §9, "patch_pair").
func (h *Heap) patchField(blockOffset, fieldOffset, value uint32) {
	if blockOffset == Nil {
		return
	}
	h.mem.WriteUint32Le(blockOffset+fieldOffset, value)
}
