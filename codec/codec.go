// Package codec implements the canonical byte encoding of stack values: one
// tag byte per variant followed by length-prefixed payloads, with compound
// variants as length-prefixed sequences of child encodings and map entries in
// insertion order. The encoding is total and deterministic; it backs the
// trace digests, the public-input tuple and host/guest argument marshalling.
package codec

import (
	"bytes"
	"fmt"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

const (
	// MaxByteLen bounds any decoded byte payload.
	MaxByteLen = 1 << 20
	// MaxItems bounds the child count of any decoded compound.
	MaxItems = 2048
	// MaxNesting bounds decoder recursion.
	MaxNesting = 64
)

// Marshal encodes a single stack value canonically.
func Marshal(item stackitem.Item) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	encoder := NewEncoder(buffer)

	if err := encoder.EncodeItem(item); err != nil {
		return nil, fmt.Errorf("encoding failed: %w", err)
	}
	return buffer.Bytes(), nil
}

// MustMarshal runs Marshal and panics on error. Only for values already
// validated by the engine.
func MustMarshal(item stackitem.Item) []byte {
	b, err := Marshal(item)
	if err != nil {
		panic(err)
	}
	return b
}

// Unmarshal decodes a single canonical stack value, rejecting trailing bytes.
func Unmarshal(inp []byte) (stackitem.Item, error) {
	decoder := NewDecoder(bytes.NewReader(inp))
	item, err := decoder.DecodeItem()
	if err != nil {
		return nil, fmt.Errorf("decoding failed: %w", err)
	}
	if decoder.Len() != 0 {
		return nil, fmt.Errorf("decoding failed: %d trailing bytes", decoder.Len())
	}
	return item, nil
}

// MarshalItems encodes a u32-count-prefixed sequence of stack values.
func MarshalItems(items []stackitem.Item) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	encoder := NewEncoder(buffer)
	if err := encoder.EncodeItems(items); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// UnmarshalItems decodes a u32-count-prefixed sequence of stack values.
func UnmarshalItems(inp []byte) ([]stackitem.Item, error) {
	decoder := NewDecoder(bytes.NewReader(inp))
	items, err := decoder.DecodeItems()
	if err != nil {
		return nil, fmt.Errorf("decoding failed: %w", err)
	}
	if decoder.Len() != 0 {
		return nil, fmt.Errorf("decoding failed: %d trailing bytes", decoder.Len())
	}
	return items, nil
}
