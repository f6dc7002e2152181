package rpc

import (
	"github.com/r3e-network/neo-zkvm/codec"
	"github.com/r3e-network/neo-zkvm/stackitem"
)

// decodeArgs parses a canonical argument sequence as produced by
// codec.MarshalItems.
func decodeArgs(b []byte) ([]stackitem.Item, error) {
	return codec.UnmarshalItems(b)
}
