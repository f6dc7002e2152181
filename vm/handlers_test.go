package vm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

// evalOps loads the engine with primed stack items and a program, then runs
// to the end.
func evalOps(t *testing.T, primed []stackitem.Item, program []byte) (*Engine, TerminationReport) {
	t.Helper()
	e := New(1_000_000)
	require.NoError(t, e.Load(program))
	for _, item := range primed {
		require.NoError(t, e.Push(item))
	}
	return e, e.RunToEnd()
}

func ints(vs ...int64) []stackitem.Item {
	out := make([]stackitem.Item, len(vs))
	for i, v := range vs {
		out[i] = stackitem.Make(v)
	}
	return out
}

func TestStackManipulation(t *testing.T) {
	cases := []struct {
		name    string
		primed  []stackitem.Item
		program []byte
		want    []int64 // bottom first
	}{
		{"DEPTH", ints(5, 6), []byte{0x43, 0x40}, []int64{5, 6, 2}},
		{"DROP", ints(1, 2), []byte{0x45, 0x40}, []int64{1}},
		{"NIP", ints(1, 2), []byte{0x46, 0x40}, []int64{2}},
		{"XDROP1", ints(1, 2, 3), []byte{0x11, 0x48, 0x40}, []int64{1, 3}},
		{"CLEAR", ints(1, 2), []byte{0x49, 0x40}, nil},
		{"DUP", ints(4), []byte{0x4A, 0x40}, []int64{4, 4}},
		{"OVER", ints(1, 2), []byte{0x4B, 0x40}, []int64{1, 2, 1}},
		{"PICK2", ints(7, 8, 9), []byte{0x12, 0x4D, 0x40}, []int64{7, 8, 9, 7}},
		{"TUCK", ints(1, 2), []byte{0x4E, 0x40}, []int64{2, 1, 2}},
		{"SWAP", ints(1, 2), []byte{0x50, 0x40}, []int64{2, 1}},
		{"ROT", ints(1, 2, 3), []byte{0x51, 0x40}, []int64{2, 3, 1}},
		{"ROLL2", ints(1, 2, 3), []byte{0x12, 0x52, 0x40}, []int64{2, 3, 1}},
		{"REVERSE3", ints(1, 2, 3), []byte{0x53, 0x40}, []int64{3, 2, 1}},
		{"REVERSE4", ints(1, 2, 3, 4), []byte{0x54, 0x40}, []int64{4, 3, 2, 1}},
		{"REVERSEN2", ints(1, 2, 3), []byte{0x12, 0x55, 0x40}, []int64{1, 3, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, report := evalOps(t, tc.primed, tc.program)
			require.Equal(t, Halt, report.State)
			require.Len(t, e.EvalStack(), len(tc.want))
			for i, v := range tc.want {
				require.True(t, e.EvalStack()[i].Equals(stackitem.Make(v)),
					"slot %d: want %d, got %v", i, v, e.EvalStack()[i])
			}
		})
	}
}

func TestStackCountFaults(t *testing.T) {
	// PICK with index >= depth underflows.
	_, report := evalOps(t, ints(1), []byte{0x12, 0x4D, 0x40})
	requireFault(t, report, StackUnderflow)

	// ROLL with a negative count is invalid.
	_, report = evalOps(t, ints(1, 2), []byte{0x0F, 0x52, 0x40})
	requireFault(t, report, InvalidOperation)
}

func TestSlots(t *testing.T) {
	// INITSLOT 2 locals, 1 arg; arg0 <- 42; LDARG0 STLOC0 LDLOC0 LDLOC1 RET.
	program := []byte{
		0x57, 0x02, 0x01, // INITSLOT 2 1
		0x74, // LDARG0
		0x6D, // STLOC0
		0x66, // LDLOC0
		0x67, // LDLOC1
		0x40, // RET
	}
	e, report := evalOps(t, ints(42), program)
	require.Equal(t, Halt, report.State)
	require.Len(t, e.EvalStack(), 2)
	require.True(t, e.EvalStack()[0].Equals(stackitem.Make(42)))
	require.True(t, report.Result.Equals(stackitem.Null{}))
}

func TestStaticSlots(t *testing.T) {
	// INITSSLOT 1; PUSH5 STSFLD0; CALL reads it back from the callee frame.
	program := []byte{
		0x56, 0x01, // 0: INITSSLOT 1
		0x15,       // 2: PUSH5
		0x5F,       // 3: STSFLD0
		0x34, 0x03, // 4: CALL -> 7
		0x40, // 6: RET
		0x58, // 7: LDSFLD0
		0x40, // 8: RET
	}
	_, report := evalOps(t, nil, program)
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Make(5)))
}

func TestSlotFaults(t *testing.T) {
	// LDLOC0 without INITSLOT.
	_, report := evalOps(t, nil, []byte{0x66, 0x40})
	requireFault(t, report, InvalidOperation)

	// INITSSLOT twice.
	_, report = evalOps(t, nil, []byte{0x56, 0x01, 0x56, 0x01, 0x40})
	requireFault(t, report, InvalidOperation)

	// Indexed store out of range: INITSLOT 1 0; STLOC 5.
	_, report = evalOps(t, ints(1), []byte{0x57, 0x01, 0x00, 0x73, 0x05, 0x40})
	requireFault(t, report, InvalidOperation)
}

func TestSplice(t *testing.T) {
	// NEWBUFFER 3 -> zero-filled.
	e, report := evalOps(t, nil, []byte{0x13, 0x88, 0x40})
	require.Equal(t, Halt, report.State)
	buf, ok := report.Result.(*stackitem.Buffer)
	require.True(t, ok)
	require.Equal(t, []byte{0, 0, 0}, buf.Bytes())
	_ = e

	// CAT of two strings.
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.ByteString("ab"), stackitem.ByteString("cd")},
		[]byte{0x8B, 0x40})
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.ByteString("abcd")))

	// SUBSTR index 1 len 2.
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.ByteString("hello")},
		[]byte{0x11, 0x12, 0x8C, 0x40})
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.ByteString("el")))

	// SUBSTR out of range.
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.ByteString("hi")},
		[]byte{0x11, 0x12, 0x8C, 0x40})
	requireFault(t, report, InvalidOperation)

	// LEFT 2, RIGHT 2.
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.ByteString("hello")},
		[]byte{0x12, 0x8D, 0x40})
	require.True(t, report.Result.Equals(stackitem.ByteString("he")))
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.ByteString("hello")},
		[]byte{0x12, 0x8E, 0x40})
	require.True(t, report.Result.Equals(stackitem.ByteString("lo")))

	// LEFT beyond length faults.
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.ByteString("x")},
		[]byte{0x12, 0x8D, 0x40})
	requireFault(t, report, InvalidOperation)
}

func TestMemcpy(t *testing.T) {
	// dst is a 4-byte Buffer pushed directly; MEMCPY(dst, 1, "ab", 0, 2).
	e := New(1_000_000)
	require.NoError(t, e.Load([]byte{0x89, 0x40}))
	dst := stackitem.NewBuffer(make([]byte, 4))
	require.NoError(t, e.Push(dst))
	require.NoError(t, e.Push(stackitem.Make(1)))          // dst index
	require.NoError(t, e.Push(stackitem.ByteString("ab"))) // src
	require.NoError(t, e.Push(stackitem.Make(0)))          // src index
	require.NoError(t, e.Push(stackitem.Make(2)))          // count
	report := e.RunToEnd()
	require.Equal(t, Halt, report.State)
	require.Equal(t, []byte{0, 'a', 'b', 0}, dst.Bytes())
}

func TestArithmeticEdges(t *testing.T) {
	// Truncated division: -7 / 2 == -3, -7 % 2 == -1.
	_, report := evalOps(t, ints(-7, 2), []byte{0xA1, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(-3)))
	_, report = evalOps(t, ints(-7, 2), []byte{0xA2, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(-1)))

	// MOD by zero.
	_, report = evalOps(t, ints(5, 0), []byte{0xA2, 0x40})
	requireFault(t, report, DivisionByZero)

	// POW negative exponent.
	_, report = evalOps(t, ints(2, -1), []byte{0xA3, 0x40})
	requireFault(t, report, InvalidOperation)

	// POW result overflow.
	_, report = evalOps(t, ints(2, 300), []byte{0xA3, 0x40})
	requireFault(t, report, InvalidOperation)

	// SQRT.
	_, report = evalOps(t, ints(16), []byte{0xA4, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(4)))
	_, report = evalOps(t, ints(-1), []byte{0xA4, 0x40})
	requireFault(t, report, InvalidOperation)

	// MODMUL, MODPOW.
	_, report = evalOps(t, ints(7, 6, 5), []byte{0xA5, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(2)))
	_, report = evalOps(t, ints(3, 4, 5), []byte{0xA6, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(1)))
	_, report = evalOps(t, ints(3, 4, 0), []byte{0xA6, 0x40})
	requireFault(t, report, DivisionByZero)

	// MODPOW with exponent -1 is the modular inverse: 3^-1 mod 7 == 5.
	_, report = evalOps(t, ints(3, -1, 7), []byte{0xA6, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(5)))

	// SHL/SHR and their caps.
	_, report = evalOps(t, ints(1, 8), []byte{0xA8, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(256)))
	_, report = evalOps(t, ints(-16, 2), []byte{0xA9, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(-4)))
	_, report = evalOps(t, ints(1, -1), []byte{0xA8, 0x40})
	requireFault(t, report, InvalidOperation)
	_, report = evalOps(t, ints(1, 257), []byte{0xA8, 0x40})
	requireFault(t, report, InvalidOperation)

	// Addition overflow past 32 bytes faults.
	huge := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.NewBigInteger(huge), stackitem.Make(1)},
		[]byte{0x9E, 0x40})
	requireFault(t, report, InvalidOperation)
}

func TestComparisonsAndLogic(t *testing.T) {
	_, report := evalOps(t, ints(2, 3), []byte{0xB5, 0x40}) // LT
	require.True(t, report.Result.Equals(stackitem.Bool(true)))

	// Boolean coerces to 0/1 in numeric comparison.
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.Bool(true), stackitem.Make(1)},
		[]byte{0xB3, 0x40}) // NUMEQUAL
	require.True(t, report.Result.Equals(stackitem.Bool(true)))

	// Non-numeric operand faults.
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.NewArray(nil), stackitem.Make(1)},
		[]byte{0xB5, 0x40})
	requireFault(t, report, InvalidType)

	// MIN/MAX/WITHIN.
	_, report = evalOps(t, ints(3, 5), []byte{0xB9, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(3)))
	_, report = evalOps(t, ints(3, 5), []byte{0xBA, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(5)))
	_, report = evalOps(t, ints(3, 1, 5), []byte{0xBB, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(true)))
	_, report = evalOps(t, ints(5, 1, 5), []byte{0xBB, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(false)))

	// NOT/BOOLAND/BOOLOR/NZ.
	_, report = evalOps(t, []stackitem.Item{stackitem.Null{}}, []byte{0xAA, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(true)))
	_, report = evalOps(t, ints(1, 0), []byte{0xAB, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(false)))
	_, report = evalOps(t, ints(1, 0), []byte{0xAC, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(true)))
	_, report = evalOps(t, ints(-3), []byte{0xB1, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(true)))
}

func TestBitwise(t *testing.T) {
	_, report := evalOps(t, ints(0b1100, 0b1010), []byte{0x91, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(0b1000)))
	_, report = evalOps(t, ints(0b1100, 0b1010), []byte{0x92, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(0b1110)))
	_, report = evalOps(t, ints(0b1100, 0b1010), []byte{0x93, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(0b0110)))
	_, report = evalOps(t, ints(0), []byte{0x90, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(-1)))
}

func TestEqualAcrossVariants(t *testing.T) {
	// EQUAL between Array and Struct of identical content is false.
	a := stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})
	s := stackitem.NewStruct([]stackitem.Item{stackitem.Make(1)})
	_, report := evalOps(t, []stackitem.Item{a, s}, []byte{0x97, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(false)))

	// Deep equality of same-variant compounds is true.
	a2 := stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})
	a3 := stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})
	_, report = evalOps(t, []stackitem.Item{a2, a3}, []byte{0x97, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(true)))

	// NOTEQUAL mirror.
	_, report = evalOps(t, ints(1, 2), []byte{0x98, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(true)))
}

func TestCompoundOps(t *testing.T) {
	// NEWARRAY 2 -> [Null Null]; SIZE == 2.
	_, report := evalOps(t, nil, []byte{0x12, 0xC3, 0xCA, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(2)))

	// PACK 2 of (1, 2): top of stack becomes element 0.
	e, _ := evalOps(t, ints(1, 2), []byte{0x12, 0xC0, 0x40})
	arr := e.EvalStack()[0].(*stackitem.Array)
	require.True(t, arr.Items()[0].Equals(stackitem.Make(2)))
	require.True(t, arr.Items()[1].Equals(stackitem.Make(1)))

	// UNPACK inverts PACK.
	e, report = evalOps(t, ints(1, 2), []byte{0x12, 0xC0, 0xC1, 0x40})
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Make(2))) // count
	require.True(t, e.EvalStack()[0].Equals(stackitem.Make(1)))
	require.True(t, e.EvalStack()[1].Equals(stackitem.Make(2)))

	// PACKMAP of one pair; PICKITEM reads it back.
	e = New(1_000_000)
	require.NoError(t, e.Load([]byte{0x11, 0xBE, 0x0C, 0x01, 'k', 0xCE, 0x40}))
	require.NoError(t, e.Push(stackitem.ByteString("v")))
	require.NoError(t, e.Push(stackitem.ByteString("k")))
	report = e.RunToEnd()
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.ByteString("v")))
}

func TestSetItemSemantics(t *testing.T) {
	// SETITEM on index == length is a fault, never an append.
	arr := stackitem.NewArray([]stackitem.Item{stackitem.Make(0)})
	_, report := evalOps(t,
		[]stackitem.Item{arr, stackitem.Make(1), stackitem.Make(9)},
		[]byte{0xD0, 0x40})
	requireFault(t, report, InvalidOperation)

	// In-range SETITEM mutates the shared container.
	arr2 := stackitem.NewArray([]stackitem.Item{stackitem.Make(0)})
	_, report = evalOps(t,
		[]stackitem.Item{arr2, stackitem.Make(0), stackitem.Make(9)},
		[]byte{0xD0, 0x40})
	require.Equal(t, Halt, report.State)
	require.True(t, arr2.Items()[0].Equals(stackitem.Make(9)))

	// SETITEM on a Buffer writes a byte; out-of-range value faults.
	buf := stackitem.NewBuffer(make([]byte, 2))
	_, report = evalOps(t,
		[]stackitem.Item{buf, stackitem.Make(1), stackitem.Make(200)},
		[]byte{0xD0, 0x40})
	require.Equal(t, Halt, report.State)
	require.Equal(t, byte(200), buf.Bytes()[1])

	buf2 := stackitem.NewBuffer(make([]byte, 2))
	_, report = evalOps(t,
		[]stackitem.Item{buf2, stackitem.Make(0), stackitem.Make(300)},
		[]byte{0xD0, 0x40})
	requireFault(t, report, InvalidOperation)
}

func TestAppendCopiesCompoundChildren(t *testing.T) {
	// APPEND deep-copies a compound child, so self-append cannot build a
	// cycle and later mutation of the original is invisible.
	inner := stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})
	outer := stackitem.NewArray(nil)
	_, report := evalOps(t, []stackitem.Item{outer, inner}, []byte{0xCF, 0x40})
	require.Equal(t, Halt, report.State)
	require.Equal(t, 1, outer.Len())
	inner.Append(stackitem.Make(2))
	require.Equal(t, 1, outer.Items()[0].(*stackitem.Array).Len())
}

func TestSelfAppendStaysAcyclic(t *testing.T) {
	arr := stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})
	_, report := evalOps(t, []stackitem.Item{arr, arr}, []byte{0xCF, 0x40})
	require.Equal(t, Halt, report.State)
	require.Equal(t, 2, arr.Len())
	// The inserted child is a copy, not the container itself.
	child := arr.Items()[1].(*stackitem.Array)
	require.Equal(t, 1, child.Len())
}

func TestMapMutation(t *testing.T) {
	m := stackitem.NewMap()
	// SETITEM inserts, HASKEY sees it, REMOVE deletes it.
	_, report := evalOps(t,
		[]stackitem.Item{m, stackitem.ByteString("k"), stackitem.Make(7)},
		[]byte{0xD0, 0x40})
	require.Equal(t, Halt, report.State)
	require.Equal(t, 1, m.Len())

	_, report = evalOps(t,
		[]stackitem.Item{m, stackitem.ByteString("k")},
		[]byte{0xCB, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(true)))

	_, report = evalOps(t,
		[]stackitem.Item{m, stackitem.ByteString("k")},
		[]byte{0xD2, 0x40})
	require.Equal(t, Halt, report.State)
	require.Equal(t, 0, m.Len())

	// Compound map keys are invalid.
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.NewMap(), stackitem.NewArray(nil), stackitem.Make(1)},
		[]byte{0xD0, 0x40})
	requireFault(t, report, InvalidType)
}

func TestKeysValuesPopItemReverse(t *testing.T) {
	m := stackitem.NewMap()
	m.Set(stackitem.Make(1), stackitem.ByteString("a"))
	m.Set(stackitem.Make(2), stackitem.ByteString("b"))
	_, report := evalOps(t, []stackitem.Item{m}, []byte{0xCC, 0x40})
	keys := report.Result.(*stackitem.Array)
	require.Equal(t, 2, keys.Len())
	require.True(t, keys.Items()[0].Equals(stackitem.Make(1)))

	arr := stackitem.NewArray(ints(1, 2, 3))
	_, report = evalOps(t, []stackitem.Item{arr}, []byte{0xD4, 0x40})
	require.True(t, report.Result.Equals(stackitem.Make(3)))
	require.Equal(t, 2, arr.Len())

	arr2 := stackitem.NewArray(ints(1, 2, 3))
	_, report = evalOps(t, []stackitem.Item{arr2}, []byte{0xD1, 0x40})
	require.Equal(t, Halt, report.State)
	require.True(t, arr2.Items()[0].Equals(stackitem.Make(3)))
}

func TestItemCapOnAllocation(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxItems = 4
	e := NewWithOptions(1_000_000, Options{Limits: limits})
	require.NoError(t, e.Load([]byte{0x15, 0xC3, 0x40})) // NEWARRAY 5
	report := e.RunToEnd()
	requireFault(t, report, InvalidOperation)
}

func TestTypeOps(t *testing.T) {
	_, report := evalOps(t, []stackitem.Item{stackitem.Null{}}, []byte{0xD8, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(true)))

	// ISTYPE Integer (tag 0x21).
	_, report = evalOps(t, ints(5), []byte{0xD9, 0x21, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(true)))
	_, report = evalOps(t, ints(5), []byte{0xD9, 0x28, 0x40})
	require.True(t, report.Result.Equals(stackitem.Bool(false)))

	// ISTYPE with an invalid tag is a script error.
	_, report = evalOps(t, ints(5), []byte{0xD9, 0x77, 0x40})
	requireFault(t, report, InvalidScript)

	// CONVERT Integer -> ByteString (tag 0x28).
	_, report = evalOps(t, ints(256), []byte{0xDB, 0x28, 0x40})
	require.True(t, report.Result.Equals(stackitem.ByteString{0x00, 0x01}))

	// CONVERT Null -> Integer faults.
	_, report = evalOps(t, []stackitem.Item{stackitem.Null{}}, []byte{0xDB, 0x21, 0x40})
	requireFault(t, report, InvalidType)
}

func TestAbortAssertMsg(t *testing.T) {
	_, report := evalOps(t, []stackitem.Item{stackitem.ByteString("boom")}, []byte{0xE0, 0x40})
	requireFault(t, report, InvalidOperation)

	_, report = evalOps(t,
		[]stackitem.Item{stackitem.Bool(true), stackitem.ByteString("msg")},
		[]byte{0xE1, 0x40})
	require.Equal(t, Halt, report.State)

	_, report = evalOps(t,
		[]stackitem.Item{stackitem.Bool(false), stackitem.ByteString("msg")},
		[]byte{0xE1, 0x40})
	requireFault(t, report, InvalidOperation)
}

func TestCryptoOps(t *testing.T) {
	// SHA256("") is the well-known empty-input digest.
	_, report := evalOps(t, []stackitem.Item{stackitem.ByteString{}}, []byte{0xF0, 0x40})
	require.Equal(t, Halt, report.State)
	digest, err := stackitem.ToBytes(report.Result)
	require.NoError(t, err)
	require.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		hexOf(digest))

	_, report = evalOps(t, []stackitem.Item{stackitem.ByteString{}}, []byte{0xF1, 0x40})
	rip, err := stackitem.ToBytes(report.Result)
	require.NoError(t, err)
	require.Len(t, rip, 20)
	require.Equal(t, "9c1185a5c5e9fc54612808977ee8f548b2258d31", hexOf(rip))

	_, report = evalOps(t, []stackitem.Item{stackitem.ByteString("x")}, []byte{0xF2, 0x40})
	h160, err := stackitem.ToBytes(report.Result)
	require.NoError(t, err)
	require.Len(t, h160, 20)

	// CHECKSIG with garbage inputs verifies false, never faults.
	_, report = evalOps(t,
		[]stackitem.Item{stackitem.ByteString("msg"), stackitem.ByteString("sig"), stackitem.ByteString("pub")},
		[]byte{0xF3, 0x40})
	require.Equal(t, Halt, report.State)
	require.True(t, report.Result.Equals(stackitem.Bool(false)))
	require.EqualValues(t, 32768+1, report.GasConsumed)
}

func hexOf(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2)
	for _, v := range b {
		out = append(out, digits[v>>4], digits[v&0xF])
	}
	return string(out)
}
