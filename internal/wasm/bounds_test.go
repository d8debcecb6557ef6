package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmrtk/dlmalloc/internal/wasm"
)

func TestBoundsChecker_CheckAccess_WithinLimit(t *testing.T) {
	r := newTestRuntime(t)
	bc := wasm.NewBoundsChecker(r)

	require.NoError(t, bc.CheckAccess(0, 100))
}

func TestBoundsChecker_CheckAccess_ExceedsLimit(t *testing.T) {
	r := newTestRuntime(t)
	bc := wasm.NewBoundsChecker(r)

	err := bc.CheckAccess(r.Memory().Size()-4, 100)
	require.Error(t, err)
	var be *wasm.BoundsError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "out_of_bounds", be.Type)
}

func TestBoundsChecker_CheckAccess_AddressOverflow(t *testing.T) {
	r := newTestRuntime(t)
	bc := wasm.NewBoundsChecker(r)

	err := bc.CheckAccess(4294967290, 100)
	require.Error(t, err)
	var be *wasm.BoundsError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "overflow", be.Type)
}

func TestBoundsChecker_CheckPointer(t *testing.T) {
	r := newTestRuntime(t)
	bc := wasm.NewBoundsChecker(r)

	p, err := r.Allocate(10)
	require.NoError(t, err)
	require.NoError(t, bc.CheckPointer(p))

	require.Error(t, bc.CheckPointer(r.Memory().Size()+1000))

	checks, violations := bc.Stats()
	assert.EqualValues(t, 2, checks)
	assert.EqualValues(t, 1, violations)
}
