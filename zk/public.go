// Package zk binds VM executions to zero-knowledge proofs: the canonical
// public tuple, the guest re-executor and the host-side prover/verifier pair
// around a pluggable proving backend.
package zk

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/r3e-network/neo-zkvm/codec"
	"github.com/r3e-network/neo-zkvm/stackitem"
)

// PublicValuesSize is the fixed byte size of an encoded tuple:
// three 32-byte digests, a u64 and a success byte.
const PublicValuesSize = 32 + 32 + 32 + 8 + 1

// PublicValues is the single public commitment binding a proof to an
// execution. Two independent executions on the same inputs produce the same
// tuple byte for byte.
type PublicValues struct {
	ProgramHash [32]byte
	InputHash   [32]byte
	OutputHash  [32]byte
	GasConsumed uint64
	Success     bool
}

// Encode produces the fixed 105-byte layout.
func (p PublicValues) Encode() []byte {
	out := make([]byte, 0, PublicValuesSize)
	out = append(out, p.ProgramHash[:]...)
	out = append(out, p.InputHash[:]...)
	out = append(out, p.OutputHash[:]...)
	var gas [8]byte
	binary.LittleEndian.PutUint64(gas[:], p.GasConsumed)
	out = append(out, gas[:]...)
	if p.Success {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out
}

// DecodePublicValues parses the fixed layout, rejecting any size or flag
// deviation.
func DecodePublicValues(b []byte) (PublicValues, error) {
	var p PublicValues
	if len(b) != PublicValuesSize {
		return p, fmt.Errorf("public values are %d bytes, want %d", len(b), PublicValuesSize)
	}
	copy(p.ProgramHash[:], b[0:32])
	copy(p.InputHash[:], b[32:64])
	copy(p.OutputHash[:], b[64:96])
	p.GasConsumed = binary.LittleEndian.Uint64(b[96:104])
	switch b[104] {
	case 0:
		p.Success = false
	case 1:
		p.Success = true
	default:
		return p, fmt.Errorf("invalid success flag %#x", b[104])
	}
	return p, nil
}

// ProgramHash hashes the raw program bytes.
func ProgramHash(program []byte) [32]byte {
	return sha256.Sum256(program)
}

// InputHash hashes the canonical encoding of (arguments, gas_limit).
func InputHash(arguments []stackitem.Item, gasLimit uint64) ([32]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf)
	if err := enc.EncodeItems(arguments); err != nil {
		return [32]byte{}, err
	}
	if err := enc.EncodeU64(gasLimit); err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(buf.Bytes()), nil
}

// OutputHash hashes the canonical encoding of (top_stack_value_or_none,
// gas_consumed, success). No fault detail enters the hash, only the success
// bit.
func OutputHash(result stackitem.Item, gasConsumed uint64, success bool) ([32]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf)
	if result == nil {
		buf.WriteByte(0)
	} else {
		buf.WriteByte(1)
		if err := enc.EncodeItem(result); err != nil {
			return [32]byte{}, err
		}
	}
	if err := enc.EncodeU64(gasConsumed); err != nil {
		return [32]byte{}, err
	}
	if success {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return sha256.Sum256(buf.Bytes()), nil
}
