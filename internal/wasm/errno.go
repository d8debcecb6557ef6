package wasm

import (
	"github.com/wasmrtk/dlmalloc/internal/errors"
	"github.com/wasmrtk/dlmalloc/internal/heap"
)

// ErrnoFor classifies err into the numeric Errno that crosses the
// host/guest boundary, the way a __call_reducer__-style ABI function
// must: only an integer status code crosses that boundary, not a Go
// error value.
func ErrnoFor(err error) *errors.Errno {
	if err == nil {
		return errors.NewErrno(0x0000)
	}
	switch err.(type) {
	case *heap.OutOfMemoryError:
		return errors.ErrOutOfMemory
	case *heap.ConfigError:
		return errors.ErrInvalidConfig
	case *heap.InvariantError:
		return errors.ErrInvariant
	case *BoundsError:
		return errors.ErrOutOfBounds
	default:
		return errors.ErrUnknown
	}
}
