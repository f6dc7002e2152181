package zk

import (
	"bytes"
	"fmt"

	"github.com/r3e-network/neo-zkvm/codec"
	"github.com/r3e-network/neo-zkvm/stackitem"
)

// GuestInput is the typed input of one proved execution: the program, the
// initial stack arguments and the gas limit.
type GuestInput struct {
	Program   []byte
	Arguments []stackitem.Item
	GasLimit  uint64
}

// Encode marshals the input for the host/guest boundary: u32-length-prefixed
// program, canonical argument sequence, u64 gas limit.
func (in *GuestInput) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf)
	if err := enc.EncodeBytes(in.Program); err != nil {
		return nil, err
	}
	if err := enc.EncodeItems(in.Arguments); err != nil {
		return nil, err
	}
	if err := enc.EncodeU64(in.GasLimit); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeGuestInput parses an encoded input, rejecting trailing bytes.
func DecodeGuestInput(b []byte) (*GuestInput, error) {
	dec := codec.NewDecoder(bytes.NewReader(b))
	program, err := dec.DecodeBytes()
	if err != nil {
		return nil, fmt.Errorf("guest input program: %w", err)
	}
	arguments, err := dec.DecodeItems()
	if err != nil {
		return nil, fmt.Errorf("guest input arguments: %w", err)
	}
	gasLimit, err := dec.DecodeU64()
	if err != nil {
		return nil, fmt.Errorf("guest input gas limit: %w", err)
	}
	if dec.Len() != 0 {
		return nil, fmt.Errorf("guest input has %d trailing bytes", dec.Len())
	}
	return &GuestInput{Program: program, Arguments: arguments, GasLimit: gasLimit}, nil
}
