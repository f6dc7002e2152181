package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

func run(t *testing.T, program []byte, gasLimit int64) (*Engine, TerminationReport) {
	t.Helper()
	e := New(gasLimit)
	require.NoError(t, e.Load(program))
	report := e.RunToEnd()
	return e, report
}

func requireFault(t *testing.T, report TerminationReport, kind FaultKind) {
	t.Helper()
	require.Equal(t, Faulted, report.State)
	require.NotNil(t, report.Fault)
	require.Equal(t, kind, report.Fault.Kind, "got %v", report.Fault)
}

// S1: PUSH2 PUSH3 ADD RET halts with Integer(5) and gas 11.
func TestAddition(t *testing.T) {
	_, report := run(t, []byte{0x12, 0x13, 0x9E, 0x40}, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.EqualValues(t, 11, report.GasConsumed)
	require.NotNil(t, report.Result)
	require.True(t, report.Result.Equals(stackitem.Make(5)))
}

// S2: division by zero faults with DivisionByZero.
func TestDivisionByZero(t *testing.T) {
	_, report := run(t, []byte{0x11, 0x10, 0xA1, 0x40}, 1_000_000)
	requireFault(t, report, DivisionByZero)
}

// S3: JMP with a missing offset faults with InvalidScript.
func TestJumpTruncation(t *testing.T) {
	_, report := run(t, []byte{0x22}, 1_000_000)
	requireFault(t, report, InvalidScript)
}

// S4: a self-targeting CALL with depth cap 4 performs 4 successful calls and
// faults on the 5th.
func TestInvocationDepthExhaustion(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxInvocationDepth = 4
	e := NewWithOptions(1_000_000, Options{Limits: limits})
	require.NoError(t, e.Load([]byte{0x34, 0x00}))

	for i := 0; i < 4; i++ {
		require.NoError(t, e.Step(), "call %d", i+1)
		require.Equal(t, Running, e.State())
		require.Equal(t, i+2, e.InvocationDepth())
	}
	err := e.Step()
	require.Error(t, err)
	require.Equal(t, Faulted, e.State())
	require.Equal(t, InvocationDepthExceeded, e.LastFault().Kind)
}

// S5: a negative allocation size faults with InvalidOperation.
func TestNegativeAllocation(t *testing.T) {
	_, report := run(t, []byte{0x0F, 0xC3}, 1_000_000)
	requireFault(t, report, InvalidOperation)
}

func TestRunOffEndHalts(t *testing.T) {
	// No RET: the pc running past the end behaves as RET.
	_, report := run(t, []byte{0x12, 0x13, 0x9E}, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Make(5)))
}

func TestOutOfGas(t *testing.T) {
	// A self-targeting JMP loops forever; the gas limit must stop it.
	e, report := run(t, []byte{0x22, 0x00}, 50)
	requireFault(t, report, OutOfGas)
	require.Greater(t, e.GasConsumed(), int64(50))
	// Terminal states are frozen: further steps are no-ops.
	require.NoError(t, e.Step())
	require.Equal(t, Faulted, e.State())
}

func TestUnknownOpcode(t *testing.T) {
	_, report := run(t, []byte{0x42}, 1_000_000)
	requireFault(t, report, InvalidScript)
}

func TestOversizedProgramRejected(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxProgramLen = 4
	e := NewWithOptions(1_000_000, Options{Limits: limits})
	err := e.Load(make([]byte, 5))
	require.Error(t, err)
}

func TestJumpOutOfRange(t *testing.T) {
	_, report := run(t, []byte{0x22, 0x70}, 1_000_000)
	requireFault(t, report, InvalidScript)
}

func TestConditionalJumps(t *testing.T) {
	// PUSH1 JMPIF +3 -> skips ABORT, then PUSH7 RET.
	program := []byte{0x11, 0x24, 0x03, 0x38, 0x17, 0x40}
	_, report := run(t, program, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Make(7)))

	// PUSH0 JMPIF +3 -> does not jump, hits ABORT.
	program = []byte{0x10, 0x24, 0x03, 0x38, 0x17, 0x40}
	_, report = run(t, program, 1_000_000)
	requireFault(t, report, InvalidOperation)
}

func TestRelationalJump(t *testing.T) {
	// PUSH2 PUSH3 JMPLT +3 -> 2 < 3 jumps over ABORT.
	program := []byte{0x12, 0x13, 0x30, 0x03, 0x38, 0x10, 0x40}
	_, report := run(t, program, 1_000_000)
	require.Equal(t, Halt, report.State)
}

func TestCallAndReturn(t *testing.T) {
	// CALL +4; PUSH2 RET / target: PUSH1 RET -> stack [1 2], top 2.
	program := []byte{
		0x34, 0x04, // 0: CALL -> 4
		0x12, // 2: PUSH2
		0x40, // 3: RET
		0x11, // 4: PUSH1
		0x40, // 5: RET
	}
	e, report := run(t, program, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.Len(t, e.EvalStack(), 2)
	require.True(t, report.Result.Equals(stackitem.Make(2)))
}

func TestCallA(t *testing.T) {
	// PUSHA +7 CALLA; target pushes 9.
	program := []byte{
		0x0A, 0x07, 0x00, 0x00, 0x00, // 0: PUSHA -> 7
		0x36, // 5: CALLA
		0x40, // 6: RET
		0x19, // 7: PUSH9
		0x40, // 8: RET
	}
	_, report := run(t, program, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Make(9)))
}

func TestCallAWithoutPointer(t *testing.T) {
	_, report := run(t, []byte{0x11, 0x36}, 1_000_000)
	requireFault(t, report, InvalidType)
}

func TestAssert(t *testing.T) {
	_, report := run(t, []byte{0x11, 0x39, 0x10, 0x40}, 1_000_000)
	require.Equal(t, Halt, report.State)

	_, report = run(t, []byte{0x10, 0x39, 0x40}, 1_000_000)
	requireFault(t, report, InvalidOperation)
}

func TestSyscallWithoutHost(t *testing.T) {
	_, report := run(t, []byte{0x41, 0x01, 0x02, 0x03, 0x04}, 1_000_000)
	requireFault(t, report, UnknownSyscall)
}

func TestStackOverflow(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxStackDepth = 8
	e := NewWithOptions(1_000_000, Options{Limits: limits})
	// PUSH1 DUP JMP -2: pushes forever.
	require.NoError(t, e.Load([]byte{0x11, 0x4A, 0x22, 0xFE}))
	report := e.RunToEnd()
	requireFault(t, report, StackOverflow)
	require.LessOrEqual(t, len(e.EvalStack()), 8)
}

func TestStackUnderflow(t *testing.T) {
	_, report := run(t, []byte{0x9E, 0x40}, 1_000_000) // ADD on empty stack
	requireFault(t, report, StackUnderflow)
}

func TestGasMonotonicity(t *testing.T) {
	e := New(1_000_000)
	require.NoError(t, e.Load([]byte{0x12, 0x13, 0x9E, 0x40}))
	var total int64
	for e.State() == Running {
		before := e.GasConsumed()
		require.NoError(t, e.Step())
		require.GreaterOrEqual(t, e.GasConsumed(), before)
		total = e.GasConsumed()
	}
	require.EqualValues(t, 11, total)
}

func TestStepIsNoOpBeforeLoad(t *testing.T) {
	e := New(1000)
	require.NoError(t, e.Step())
	require.Equal(t, NoneState, e.State())
}

func TestPushIntWidths(t *testing.T) {
	// PUSHINT16 -2 (0xFFFE little-endian).
	_, report := run(t, []byte{0x01, 0xFE, 0xFF, 0x40}, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Make(-2)))

	// Truncated PUSHINT32.
	_, report = run(t, []byte{0x02, 0x01, 0x02}, 1_000_000)
	requireFault(t, report, InvalidScript)
}

func TestPushData(t *testing.T) {
	program := []byte{0x0C, 0x05, 'h', 'e', 'l', 'l', 'o', 0x40}
	_, report := run(t, program, 1_000_000)
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.ByteString("hello")))

	// Truncated payload.
	_, report = run(t, []byte{0x0C, 0x05, 'h', 'i'}, 1_000_000)
	requireFault(t, report, InvalidScript)
}

func TestPushDataOverCap(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxByteLen = 4
	e := NewWithOptions(1_000_000, Options{Limits: limits})
	require.NoError(t, e.Load([]byte{0x0C, 0x05, 'h', 'e', 'l', 'l', 'o', 0x40}))
	report := e.RunToEnd()
	requireFault(t, report, InvalidScript)
}

func TestBreakpoint(t *testing.T) {
	e := New(1_000_000)
	require.NoError(t, e.Load([]byte{0x12, 0x13, 0x9E, 0x40}))
	e.AddBreakpoint(2)
	require.NoError(t, e.Step())
	require.NoError(t, e.Step())
	require.Equal(t, Break, e.State())
	// Break is not terminal and not produced by normal dispatch.
	e.Resume()
	report := e.RunToEnd()
	require.Equal(t, Halt, report.State)
	require.EqualValues(t, 11, report.GasConsumed)
}
