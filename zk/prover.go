package zk

import (
	"crypto/sha256"
	"fmt"

	"github.com/r3e-network/neo-zkvm/log"
)

// Backend is the opaque proving interface. A SNARK system (e.g. an SP1 or
// Groth16 bridge) plugs in here; the core only requires that VerifyProof
// accepts exactly the public bytes Prove emitted.
type Backend interface {
	// Prove executes the guest over input and returns the proof bytes and
	// the committed public bytes.
	Prove(input *GuestInput) (proof []byte, public []byte, err error)
	// VerifyProof checks proof against the committed public bytes.
	VerifyProof(proof, public []byte) bool
}

// Proof is a host-side proof envelope: the backend's proof bytes plus the
// decoded public tuple they commit to.
type Proof struct {
	ProofBytes  []byte
	PublicBytes []byte
	Tuple       PublicValues
}

// Prover runs the guest through a backend and checks the committed public
// bytes against its own re-execution before handing the proof out.
type Prover struct {
	backend Backend
}

// NewProver wraps a proving backend.
func NewProver(backend Backend) *Prover {
	return &Prover{backend: backend}
}

// Prove produces a proof envelope. The backend's committed public bytes must
// decode to exactly the tuple of the host's own guest execution, byte for
// byte, or the proof is rejected here.
func (p *Prover) Prove(input *GuestInput) (*Proof, error) {
	proofBytes, publicBytes, err := p.backend.Prove(input)
	if err != nil {
		return nil, fmt.Errorf("proving backend: %w", err)
	}
	tuple, err := DecodePublicValues(publicBytes)
	if err != nil {
		return nil, fmt.Errorf("committed public values: %w", err)
	}
	expected, err := ExecuteGuest(input)
	if err != nil {
		return nil, err
	}
	if tuple != expected.Public {
		return nil, fmt.Errorf("backend committed %+v, host executed %+v", tuple, expected.Public)
	}
	log.Debug(log.ProveMonitoring, "proof produced",
		"gas", tuple.GasConsumed, "success", tuple.Success)
	return &Proof{ProofBytes: proofBytes, PublicBytes: publicBytes, Tuple: tuple}, nil
}

const executionProofDomain = "neo-zkvm/execution-proof/v1"

// ExecutionBackend is the in-tree reference backend: it re-executes the
// guest and emits a commitment binding the trace to the public bytes. It
// attests integrity of the envelope, not computational soundness; swap in
// a SNARK backend for that.
type ExecutionBackend struct{}

func (ExecutionBackend) Prove(input *GuestInput) ([]byte, []byte, error) {
	result, err := ExecuteGuest(input)
	if err != nil {
		return nil, nil, err
	}
	public := result.Public.Encode()
	commitment := result.Trace.Commitment()
	proof := make([]byte, 0, 64)
	proof = append(proof, commitment[:]...)
	proof = append(proof, bindProof(commitment[:], public)...)
	return proof, public, nil
}

func (ExecutionBackend) VerifyProof(proof, public []byte) bool {
	if len(proof) != 64 {
		return false
	}
	expected := bindProof(proof[:32], public)
	for i, b := range expected {
		if proof[32+i] != b {
			return false
		}
	}
	return true
}

func bindProof(commitment, public []byte) []byte {
	h := sha256.New()
	h.Write([]byte(executionProofDomain))
	h.Write(commitment)
	h.Write(public)
	return h.Sum(nil)
}
