package rpc

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r3e-network/neo-zkvm/codec"
	"github.com/r3e-network/neo-zkvm/interop"
	"github.com/r3e-network/neo-zkvm/stackitem"
	"github.com/r3e-network/neo-zkvm/storage"
	"github.com/r3e-network/neo-zkvm/zk"
)

func dispatchJSON(t *testing.T, s *Server, method string, params interface{}) Response {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return s.dispatch(&Request{ID: 1, Method: method, Params: raw})
}

func TestRunMethod(t *testing.T) {
	s := NewServer(zk.ExecutionBackend{})
	resp := dispatchJSON(t, s, "run", ExecParams{
		Program:  []byte{0x12, 0x13, 0x9E, 0x40},
		GasLimit: 1_000_000,
	})
	require.Empty(t, resp.Error)
	result := resp.Result.(*RunResult)
	require.Equal(t, "Halt", result.State)
	require.EqualValues(t, 11, result.GasConsumed)
	require.Len(t, []byte(result.Public), zk.PublicValuesSize)
}

func TestRunMethodWithArgs(t *testing.T) {
	args, err := codec.MarshalItems([]stackitem.Item{stackitem.Make(4)})
	require.NoError(t, err)

	// DEPTH RET over one primed argument.
	s := NewServer(zk.ExecutionBackend{})
	resp := dispatchJSON(t, s, "run", ExecParams{
		Program:  []byte{0x43, 0x40},
		Args:     args,
		GasLimit: 1_000_000,
	})
	require.Empty(t, resp.Error)
	require.Equal(t, "Halt", resp.Result.(*RunResult).State)
}

func TestRunMethodReportsFault(t *testing.T) {
	s := NewServer(zk.ExecutionBackend{})
	resp := dispatchJSON(t, s, "run", ExecParams{
		Program:  []byte{0x11, 0x10, 0xA1, 0x40},
		GasLimit: 1_000_000,
	})
	require.Empty(t, resp.Error)
	result := resp.Result.(*RunResult)
	require.Equal(t, "Fault", result.State)
	require.Equal(t, "DivisionByZero", result.Fault)
}

func TestProveAndVerifyMethods(t *testing.T) {
	s := NewServer(zk.ExecutionBackend{})
	resp := dispatchJSON(t, s, "prove", ExecParams{
		Program:  []byte{0x12, 0x13, 0x9E, 0x40},
		GasLimit: 1_000_000,
	})
	require.Empty(t, resp.Error)
	proved := resp.Result.(*ProveResult)

	tuple, err := zk.DecodePublicValues(proved.Public)
	require.NoError(t, err)

	verifyResp := dispatchJSON(t, s, "verify", VerifyParams{
		Proof:       proved.Proof,
		Public:      proved.Public,
		ProgramHash: tuple.ProgramHash[:],
		InputHash:   tuple.InputHash[:],
		OutputHash:  tuple.OutputHash[:],
		GasConsumed: tuple.GasConsumed,
		Success:     tuple.Success,
	})
	require.Empty(t, verifyResp.Error)
	require.True(t, verifyResp.Result.(map[string]bool)["valid"])

	// A mismatched claimed gas is rejected.
	verifyResp = dispatchJSON(t, s, "verify", VerifyParams{
		Proof:       proved.Proof,
		Public:      proved.Public,
		ProgramHash: tuple.ProgramHash[:],
		InputHash:   tuple.InputHash[:],
		OutputHash:  tuple.OutputHash[:],
		GasConsumed: tuple.GasConsumed + 1,
		Success:     tuple.Success,
	})
	require.False(t, verifyResp.Result.(map[string]bool)["valid"])
}

// A server constructed over a shared tracked store keeps state across run
// requests and reports the post-state root.
func TestRunMethodWithSharedStorage(t *testing.T) {
	store := storage.NewTrackedStore()
	s := NewServerWithStorage(zk.ExecutionBackend{}, store)

	var program []byte
	emitSyscall := func(name string) {
		var id [4]byte
		binary.LittleEndian.PutUint32(id[:], interop.ID(name))
		program = append(program, 0x41)
		program = append(program, id[:]...)
	}
	emitSyscall(interop.NameStorageGetContext)
	program = append(program, 0x0C, 0x01, 'k') // PUSHDATA1 "k"
	program = append(program, 0x0C, 0x01, 'v') // PUSHDATA1 "v"
	emitSyscall(interop.NameStoragePut)
	program = append(program, 0x40) // RET

	resp := dispatchJSON(t, s, "run", ExecParams{Program: program, GasLimit: 1_000_000})
	require.Empty(t, resp.Error)
	result := resp.Result.(*RunResult)
	require.Equal(t, "Halt", result.State)
	require.Len(t, []byte(result.StateRoot), 32)
	require.Len(t, store.Changes(), 1)

	// The same write again leaves the root unchanged but extends the log.
	resp = dispatchJSON(t, s, "run", ExecParams{Program: program, GasLimit: 1_000_000})
	require.Empty(t, resp.Error)
	require.Equal(t, result.StateRoot, resp.Result.(*RunResult).StateRoot)
	require.Len(t, store.Changes(), 2)
}

func TestUnknownMethod(t *testing.T) {
	s := NewServer(zk.ExecutionBackend{})
	resp := s.dispatch(&Request{ID: 3, Method: "bogus"})
	require.NotEmpty(t, resp.Error)
}
