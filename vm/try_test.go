package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

// TRY with a catch handler: THROW lands in the catch with the thrown item on
// the stack.
func TestThrowCaught(t *testing.T) {
	program := []byte{
		0x3B, 0x06, 0x00, // 0: TRY catch=+6 (-> 6), no finally
		0x15, // 3: PUSH5
		0x3A, // 4: THROW
		0x38, // 5: ABORT (skipped)
		0x40, // 6: RET (catch handler; thrown item on stack)
	}
	_, report := run(t, program, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Make(5)))
}

func TestThrowUnhandled(t *testing.T) {
	_, report := run(t, []byte{0x15, 0x3A, 0x40}, 1_000_000)
	requireFault(t, report, Unhandled)
}

// ENDTRY runs the finally handler and resumes at its continuation target.
func TestTryFinallyNormalExit(t *testing.T) {
	program := []byte{
		0x3B, 0x00, 0x08, // 0: TRY no catch, finally=+8 (-> 8)
		0x11,       // 3: PUSH1
		0x3D, 0x06, // 4: ENDTRY -> 10
		0x38, // 6: ABORT (unreachable)
		0x38, // 7: ABORT (unreachable)
		0x12, // 8: PUSH2 (finally)
		0x3F, // 9: ENDFINALLY -> continue at 10
		0x40, // 10: RET
	}
	e, report := run(t, program, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.Len(t, e.EvalStack(), 2)
	require.True(t, e.EvalStack()[0].Equals(stackitem.Make(1)))
	require.True(t, e.EvalStack()[1].Equals(stackitem.Make(2)))
}

// A throw in a called frame unwinds into the caller's catch handler.
func TestThrowUnwindsFrames(t *testing.T) {
	program := []byte{
		0x3B, 0x07, 0x00, // 0: TRY catch=+7 (-> 7)
		0x34, 0x06, // 3: CALL -> 9
		0x38, // 5: ABORT (skipped by unwind)
		0x38, // 6: ABORT
		0x40, // 7: RET (catch handler)
		0x38, // 8: ABORT
		0x16, // 9: PUSH6 (callee)
		0x3A, // 10: THROW
	}
	e, report := run(t, program, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Make(6)))
	require.Equal(t, 0, e.InvocationDepth())
}

// Faults are not catchable; only THROW is.
func TestFaultNotCaughtByTry(t *testing.T) {
	program := []byte{
		0x3B, 0x07, 0x00, // 0: TRY catch=+7
		0x11, 0x10, // 3: PUSH1 PUSH0
		0xA1, // 5: DIV -> DivisionByZero
		0x38, // 6: ABORT
		0x40, // 7: RET (catch, never reached)
	}
	_, report := run(t, program, 1_000_000)
	requireFault(t, report, DivisionByZero)
}

func TestEndTryOutsideRegion(t *testing.T) {
	_, report := run(t, []byte{0x3D, 0x01, 0x40}, 1_000_000)
	requireFault(t, report, InvalidOperation)
}

func TestEndFinallyOutsideHandler(t *testing.T) {
	_, report := run(t, []byte{0x3F, 0x40}, 1_000_000)
	requireFault(t, report, InvalidOperation)
}

func TestTryWithoutHandlers(t *testing.T) {
	_, report := run(t, []byte{0x3B, 0x00, 0x00, 0x40}, 1_000_000)
	requireFault(t, report, InvalidScript)
}

// Nested try: an inner region without a catch is skipped by the unwind.
func TestNestedTryUnwind(t *testing.T) {
	program := []byte{
		0x3B, 0x0B, 0x00, // 0: TRY catch=+11 (-> 11)
		0x3B, 0x00, 0x09, // 3: TRY finally=+9 (-> 12) -- no catch
		0x17, // 6: PUSH7
		0x3A, // 7: THROW
		0x38, // 8: ABORT
		0x38, // 9: ABORT
		0x38, // 10: ABORT
		0x40, // 11: RET (outer catch)
		0x3F, // 12: ENDFINALLY (inner finally, skipped by unwind)
	}
	_, report := run(t, program, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Make(7)))
}

// TRY_L takes 4-byte offsets.
func TestTryLong(t *testing.T) {
	program := []byte{
		0x3C, 0x0B, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // 0: TRY_L catch=+11
		0x15, // 9: PUSH5
		0x3A, // 10: THROW
		0x40, // 11: RET (catch)
	}
	_, report := run(t, program, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Make(5)))
}
