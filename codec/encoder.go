package codec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

// Encoder writes canonical stack-value encodings to an io.Writer.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates a new encoder with the given writer.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) writeByte(b byte) error {
	_, err := e.w.Write([]byte{b})
	return err
}

// EncodeU32 writes a little-endian uint32.
func (e *Encoder) EncodeU32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := e.w.Write(buf[:])
	return err
}

// EncodeU64 writes a little-endian uint64.
func (e *Encoder) EncodeU64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := e.w.Write(buf[:])
	return err
}

// EncodeBytes writes a u32 length prefix followed by the payload.
func (e *Encoder) EncodeBytes(b []byte) error {
	if len(b) > MaxByteLen {
		return fmt.Errorf("byte payload of %d exceeds %d", len(b), MaxByteLen)
	}
	if err := e.EncodeU32(uint32(len(b))); err != nil {
		return err
	}
	_, err := e.w.Write(b)
	return err
}

// EncodeItem writes the canonical encoding of a single stack value.
func (e *Encoder) EncodeItem(item stackitem.Item) error {
	if err := e.writeByte(byte(item.Type())); err != nil {
		return err
	}
	switch it := item.(type) {
	case stackitem.Null:
		return nil
	case stackitem.Bool:
		if it {
			return e.writeByte(1)
		}
		return e.writeByte(0)
	case *stackitem.BigInteger:
		return e.EncodeBytes(stackitem.IntToBytes(it.Big()))
	case stackitem.ByteString:
		return e.EncodeBytes(it)
	case *stackitem.Buffer:
		return e.EncodeBytes(it.Bytes())
	case *stackitem.Array:
		return e.encodeChildren(it.Items())
	case *stackitem.Struct:
		return e.encodeChildren(it.Items())
	case *stackitem.Map:
		elems := it.Elements()
		if len(elems) > MaxItems {
			return fmt.Errorf("map of %d entries exceeds %d", len(elems), MaxItems)
		}
		if err := e.EncodeU32(uint32(len(elems))); err != nil {
			return err
		}
		for _, el := range elems {
			if err := e.EncodeItem(el.Key); err != nil {
				return err
			}
			if err := e.EncodeItem(el.Value); err != nil {
				return err
			}
		}
		return nil
	case stackitem.Pointer:
		return e.EncodeU32(uint32(it.Position()))
	}
	return fmt.Errorf("unencodable stack item %v", item.Type())
}

func (e *Encoder) encodeChildren(items []stackitem.Item) error {
	if len(items) > MaxItems {
		return fmt.Errorf("compound of %d items exceeds %d", len(items), MaxItems)
	}
	if err := e.EncodeU32(uint32(len(items))); err != nil {
		return err
	}
	for _, child := range items {
		if err := e.EncodeItem(child); err != nil {
			return err
		}
	}
	return nil
}

// EncodeItems writes a u32 count followed by each item's encoding.
func (e *Encoder) EncodeItems(items []stackitem.Item) error {
	if err := e.EncodeU32(uint32(len(items))); err != nil {
		return err
	}
	for _, item := range items {
		if err := e.EncodeItem(item); err != nil {
			return err
		}
	}
	return nil
}
