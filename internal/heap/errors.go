package heap

import "fmt"

// OutOfMemoryError is raised when the best-fit search cannot locate a free
// block large enough to satisfy a request (spec §4.3, §7).
type OutOfMemoryError struct {
	Requested uint32 // caller's requested payload size
	Aligned   uint32 // size after alignment (block size actually sought)
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("heap: out of memory (requested %d bytes, aligned to %d)", e.Requested, e.Aligned)
}

// ConfigError reports an invalid heap configuration (bad quantum, buffer
// too small for even one block, and similar setup mistakes).
type ConfigError struct {
	Field   string
	Value   uint32
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("heap: invalid config field %q=%d: %s", e.Field, e.Value, e.Message)
}

// InvariantError reports a structural invariant violation found by
// CheckInvariants. It should never occur via the public API (spec §7); it
// exists purely as debug-build instrumentation.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("heap: invariant violated (%s): %s", e.Invariant, e.Detail)
}
