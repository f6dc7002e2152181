package zk

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/ripemd160"

	"github.com/r3e-network/neo-zkvm/interop"
	"github.com/r3e-network/neo-zkvm/native"
	"github.com/r3e-network/neo-zkvm/stackitem"
	"github.com/r3e-network/neo-zkvm/storage"
	"github.com/r3e-network/neo-zkvm/vm"
)

// GuestResult is one deterministic guest execution: the committed tuple, the
// engine report and the full trace.
type GuestResult struct {
	Public PublicValues
	Report vm.TerminationReport
	Trace  *vm.Recorder
}

// scriptHash derives the storage namespace of a program the way HASH160
// does: RIPEMD-160 over SHA-256.
func scriptHash(program []byte) [20]byte {
	sh := sha256.Sum256(program)
	h := ripemd160.New()
	h.Write(sh[:])
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ExecuteGuest is the re-executor: a fresh engine over a fresh in-memory
// store with tracing always on. It contains no source of non-determinism
// (no clock, no randomness, no iteration-order dependence), so the committed
// tuple is a pure function of the input. Proofs are always about this pure
// execution; host frontends with persistent state go through
// ExecuteWithStorage instead.
func ExecuteGuest(input *GuestInput) (*GuestResult, error) {
	return ExecuteWithStorage(input, storage.NewMemoryStore())
}

// ExecuteWithStorage runs the same engine over a caller-supplied storage
// backend. This is the host-side entry point: the result is deterministic in
// (input, starting state), and the tuple it reports commits the execution
// over that state, not the pure-guest execution a proof would bind.
func ExecuteWithStorage(input *GuestInput, store storage.Backend) (*GuestResult, error) {
	public := PublicValues{ProgramHash: ProgramHash(input.Program)}
	inputHash, err := InputHash(input.Arguments, input.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("guest input hash: %w", err)
	}
	public.InputHash = inputHash

	host := interop.NewHost(store, native.NewRegistry(), scriptHash(input.Program))
	engine := vm.NewWithOptions(int64(input.GasLimit), vm.Options{Syscalls: host})
	engine.EnableTracing()

	result := &GuestResult{Trace: engine.Trace()}
	if err := engine.Load(input.Program); err != nil {
		// The tuple is still committed on a load fault, with success false.
		public.OutputHash, err = OutputHash(nil, 0, false)
		if err != nil {
			return nil, err
		}
		result.Public = public
		result.Report = vm.TerminationReport{State: vm.Faulted}
		return result, nil
	}
	for _, arg := range input.Arguments {
		// Arguments are copied so one execution can never leak mutations
		// into another run over the same input.
		if err := engine.Push(stackitem.DeepCopy(arg)); err != nil {
			return nil, fmt.Errorf("guest argument push: %w", err)
		}
	}

	report := engine.RunToEnd()
	success := report.State == vm.Halt
	public.GasConsumed = uint64(report.GasConsumed)
	public.Success = success
	var top = report.Result
	if !success {
		// Fault detail stays out of the commitment; only the bit survives.
		top = nil
	}
	outputHash, err := OutputHash(top, public.GasConsumed, success)
	if err != nil {
		return nil, fmt.Errorf("guest output hash: %w", err)
	}
	public.OutputHash = outputHash

	result.Public = public
	result.Report = report
	return result, nil
}

// RunGuest is the channel form of the re-executor: it decodes a GuestInput
// from the input stream and writes the encoded public tuple, verbatim, to
// the commitment stream.
func RunGuest(in io.Reader, commit io.Writer) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	input, err := DecodeGuestInput(raw)
	if err != nil {
		return err
	}
	result, err := ExecuteGuest(input)
	if err != nil {
		return err
	}
	_, err = commit.Write(result.Public.Encode())
	return err
}
