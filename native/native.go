// Package native implements the built-in contract registry: deterministic,
// side-effect-free helpers addressable by 20-byte hash through the
// System.Contract.Call syscall.
package native

import (
	"fmt"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

// MaxInputSize bounds any byte argument of a native method.
const MaxInputSize = 1 << 20

// Contract is one native contract.
type Contract interface {
	Hash() [20]byte
	Invoke(method string, args []stackitem.Item) (stackitem.Item, error)
}

// Registry resolves native contracts by hash. Registration happens before
// the engine loads a program; entries are read-only at runtime.
type Registry struct {
	contracts map[[20]byte]Contract
}

// NewRegistry creates a registry with the standard contracts installed.
func NewRegistry() *Registry {
	r := &Registry{contracts: make(map[[20]byte]Contract)}
	r.Register(StdLib{})
	r.Register(CryptoLib{})
	return r
}

// Register installs a contract under its hash.
func (r *Registry) Register(c Contract) {
	r.contracts[c.Hash()] = c
}

// InvokeNative dispatches a method call to the contract with the given hash.
// It satisfies the engine's NativeInvoker trait.
func (r *Registry) InvokeNative(hash [20]byte, method string, args []stackitem.Item) (stackitem.Item, error) {
	c, ok := r.contracts[hash]
	if !ok {
		return nil, fmt.Errorf("unknown native contract %x", hash)
	}
	return c.Invoke(method, args)
}

func byteArg(args []stackitem.Item, i int) ([]byte, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("missing argument %d", i)
	}
	b, err := stackitem.ToBytes(args[i])
	if err != nil {
		return nil, fmt.Errorf("argument %d is not byte-like", i)
	}
	if len(b) > MaxInputSize {
		return nil, fmt.Errorf("argument %d of %d bytes exceeds %d", i, len(b), MaxInputSize)
	}
	return b, nil
}
