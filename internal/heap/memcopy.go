package heap

// MemCopy copies n bytes from src to dst within mem. The regions must not
// overlap (spec §6).
func MemCopy(mem Memory, src, n, dst uint32) {
	buf, ok := mem.Read(src, n)
	if !ok {
		return
	}
	mem.Write(dst, buf)
}

// MemMoveSecure copies n bytes from src to dst, then zeroes the source
// region (spec §6).
func MemMoveSecure(mem Memory, src, n, dst uint32) {
	buf, ok := mem.Read(src, n)
	if !ok {
		return
	}
	mem.Write(dst, buf)
	mem.Write(src, make([]byte, n))
}
