package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tracedRun(t *testing.T, program []byte) *Recorder {
	t.Helper()
	e := New(1_000_000)
	e.EnableTracing()
	require.NoError(t, e.Load(program))
	e.RunToEnd()
	return e.Trace()
}

// S6: two fresh engines produce identical step sequences and digests.
func TestTraceReproducibility(t *testing.T) {
	program := []byte{0x12, 0x13, 0x9E, 0x40}
	r1 := tracedRun(t, program)
	r2 := tracedRun(t, program)

	require.Equal(t, len(r1.Steps()), len(r2.Steps()))
	for i := range r1.Steps() {
		require.Equal(t, r1.Steps()[i], r2.Steps()[i], "step %d", i)
	}
	require.Equal(t, r1.InitialDigest(), r2.InitialDigest())
	require.Equal(t, r1.FinalDigest(), r2.FinalDigest())
	require.Equal(t, r1.Commitment(), r2.Commitment())
}

func TestTraceRecordsEveryDispatch(t *testing.T) {
	r := tracedRun(t, []byte{0x12, 0x13, 0x9E, 0x40})
	steps := r.Steps()
	require.Len(t, steps, 4)
	require.Equal(t, 0, steps[0].IP)
	require.Equal(t, PUSH2, steps[0].Op)
	require.EqualValues(t, 1, steps[0].GasAfter)
	require.Equal(t, ADD, steps[2].Op)
	require.EqualValues(t, 10, steps[2].GasAfter)
	require.Equal(t, RET, steps[3].Op)
	require.EqualValues(t, 11, steps[3].GasAfter)
}

func TestTraceStackDigestChains(t *testing.T) {
	r := tracedRun(t, []byte{0x12, 0x13, 0x9E, 0x40})
	steps := r.Steps()
	// Rolling digests never repeat across steps of this program.
	seen := make(map[[32]byte]bool)
	for _, s := range steps {
		require.False(t, seen[s.StackDigest])
		seen[s.StackDigest] = true
	}
}

func TestTraceDivergesOnDifferentPrograms(t *testing.T) {
	r1 := tracedRun(t, []byte{0x12, 0x13, 0x9E, 0x40})
	r2 := tracedRun(t, []byte{0x12, 0x13, 0x9F, 0x40})
	require.NotEqual(t, r1.Commitment(), r2.Commitment())
}

func TestMemoryDigestTracksWrites(t *testing.T) {
	// Same opcode count, but one program stores to a slot: the memory
	// digests must diverge at the store step.
	withStore := []byte{0x57, 0x01, 0x00, 0x11, 0x6D, 0x40}    // INITSLOT; PUSH1; STLOC0
	withoutStore := []byte{0x57, 0x01, 0x00, 0x11, 0x45, 0x40} // INITSLOT; PUSH1; DROP
	r1 := tracedRun(t, withStore)
	r2 := tracedRun(t, withoutStore)
	require.Len(t, r1.Steps(), 4)
	require.Len(t, r2.Steps(), 4)
	require.NotEqual(t, r1.Steps()[2].MemoryDigest, r2.Steps()[2].MemoryDigest)
}

func TestTraceOnFault(t *testing.T) {
	e := New(1_000_000)
	e.EnableTracing()
	require.NoError(t, e.Load([]byte{0x11, 0x10, 0xA1, 0x40}))
	report := e.RunToEnd()
	require.Equal(t, Faulted, report.State)
	// The two pushes dispatched; DIV faulted and recorded no step.
	require.Len(t, e.Trace().Steps(), 2)
	require.Equal(t, e.Trace().FinalDigest(), e.Trace().FinalDigest())
}

func TestTraceFinalDigestReflectsStack(t *testing.T) {
	r1 := tracedRun(t, []byte{0x12, 0x40}) // halts with [2]
	r2 := tracedRun(t, []byte{0x13, 0x40}) // halts with [3]
	require.NotEqual(t, r1.FinalDigest(), r2.FinalDigest())

	full := tracedRun(t, []byte{0x12, 0x40})
	require.Equal(t, r1.FinalDigest(), full.FinalDigest())
}
