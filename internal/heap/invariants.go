package heap

// CheckInvariants verifies the six structural invariants of spec §3.4 and
// the quantified invariants of spec §8. It never mutates the heap. This
// is debug-build instrumentation (spec §7): the public API never calls
// it, because by contract these invariants cannot be violated by correct
// use of that API.
func (h *Heap) CheckInvariants() error {
	if err := h.checkTiling(); err != nil {
		return err
	}
	addrSet, addrOrder, err := h.walkAddressList()
	if err != nil {
		return err
	}
	sizeSet, err := h.walkSizeList()
	if err != nil {
		return err
	}
	if err := sameMembership(addrSet, sizeSet); err != nil {
		return err
	}
	return h.checkHead(addrOrder)
}

// checkTiling walks every block (free or allocated) by its size field and
// verifies the block sequence exactly tiles the heap region with no gaps
// or overlap, and that every block's size is a Quantum multiple >= Quantum
// (invariants 1 and 2).
func (h *Heap) checkTiling() error {
	end := h.heapOffset + h.heapSize
	cur := h.heapOffset
	var total uint32
	for cur < end {
		sz := h.blockSize(cur)
		if sz < h.quantum {
			return &InvariantError{Invariant: "2-alignment", Detail: "block smaller than the quantum"}
		}
		if sz%h.quantum != 0 {
			return &InvariantError{Invariant: "2-alignment", Detail: "block size is not a quantum multiple"}
		}
		total += sz
		cur += sz
	}
	if cur != end || total != h.heapSize {
		return &InvariantError{Invariant: "1-tiling", Detail: "blocks do not exactly tile the heap region"}
	}
	return nil
}

// walkAddressList follows NEXT from FREE_LIST_HEAD, verifying strictly
// increasing addresses (invariant 3), and returns the visited set plus
// the visit order.
func (h *Heap) walkAddressList() (map[uint32]bool, []uint32, error) {
	set := make(map[uint32]bool)
	var order []uint32
	cur := h.freeListHead
	last := uint32(0)
	first := true
	for cur != Nil {
		if !first && cur <= last {
			return nil, nil, &InvariantError{Invariant: "3-address-list", Detail: "addresses not strictly increasing"}
		}
		if set[cur] {
			return nil, nil, &InvariantError{Invariant: "3-address-list", Detail: "cycle detected"}
		}
		set[cur] = true
		order = append(order, cur)
		last = cur
		first = false
		cur = h.next(cur)
	}
	return set, order, nil
}

// walkSizeList follows LARGER from the smallest size-list node, verifying
// non-decreasing sizes (invariant 4), and returns the visited set. It
// locates the smallest-size node by descending SMALLER from the head.
func (h *Heap) walkSizeList() (map[uint32]bool, error) {
	set := make(map[uint32]bool)
	if h.freeListHead == Nil {
		return set, nil
	}

	start := h.freeListHead
	for {
		sm := h.smaller(start)
		if sm == Nil {
			break
		}
		start = sm
	}

	cur := start
	lastSize := uint32(0)
	first := true
	for cur != Nil {
		sz := h.blockSize(cur)
		if !first && sz < lastSize {
			return nil, &InvariantError{Invariant: "4-size-list", Detail: "sizes not non-decreasing"}
		}
		if set[cur] {
			return nil, &InvariantError{Invariant: "4-size-list", Detail: "cycle detected"}
		}
		set[cur] = true
		lastSize = sz
		first = false
		cur = h.larger(cur)
	}
	return set, nil
}

func sameMembership(a, b map[uint32]bool) error {
	if len(a) != len(b) {
		return &InvariantError{Invariant: "3/4-same-set", Detail: "address list and size list have different cardinality"}
	}
	for k := range a {
		if !b[k] {
			return &InvariantError{Invariant: "3/4-same-set", Detail: "address list and size list disagree on membership"}
		}
	}
	return nil
}

// checkHead verifies invariant 6 (FREE_LIST_HEAD is Nil or the
// smallest-address free block) and invariant 5 (no two free blocks are
// address-adjacent) using the strictly-increasing order walkAddressList
// already established.
func (h *Heap) checkHead(order []uint32) error {
	if h.freeListHead == Nil {
		if len(order) != 0 {
			return &InvariantError{Invariant: "6-head", Detail: "head is Nil but free blocks exist"}
		}
		return nil
	}
	if len(order) == 0 || order[0] != h.freeListHead {
		return &InvariantError{Invariant: "6-head", Detail: "head is not the smallest-address free block"}
	}
	// invariant 5: no two adjacent free blocks in address order.
	for i := 0; i+1 < len(order); i++ {
		a, b := order[i], order[i+1]
		if a+h.blockSize(a) >= b {
			return &InvariantError{Invariant: "5-no-adjacent-free", Detail: "two free blocks are address-adjacent and should have been coalesced"}
		}
	}
	return nil
}
