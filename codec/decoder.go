package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

// Decoder reads canonical stack-value encodings from a byte reader. Every
// read is bounds-checked and the payload, item-count and nesting limits are
// enforced, so arbitrary input maps to an error, never a panic.
type Decoder struct {
	r *bytes.Reader
}

// NewDecoder creates a new decoder over the given reader.
func NewDecoder(r *bytes.Reader) *Decoder {
	return &Decoder{r: r}
}

// Len returns the number of unread bytes.
func (d *Decoder) Len() int { return d.r.Len() }

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	return b, nil
}

// DecodeU32 reads a little-endian uint32.
func (d *Decoder) DecodeU32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// DecodeU64 reads a little-endian uint64.
func (d *Decoder) DecodeU64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// DecodeBytes reads a u32-length-prefixed payload.
func (d *Decoder) DecodeBytes() ([]byte, error) {
	n, err := d.DecodeU32()
	if err != nil {
		return nil, err
	}
	if n > MaxByteLen {
		return nil, fmt.Errorf("byte payload of %d exceeds %d", n, MaxByteLen)
	}
	if int(n) > d.r.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	return b, nil
}

// DecodeItem reads one canonical stack value.
func (d *Decoder) DecodeItem() (stackitem.Item, error) {
	return d.decodeItem(0)
}

func (d *Decoder) decodeItem(depth int) (stackitem.Item, error) {
	if depth > MaxNesting {
		return nil, fmt.Errorf("nesting depth exceeds %d", MaxNesting)
	}
	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch stackitem.Type(tag) {
	case stackitem.AnyT:
		return stackitem.Null{}, nil
	case stackitem.BooleanT:
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		switch b {
		case 0:
			return stackitem.Bool(false), nil
		case 1:
			return stackitem.Bool(true), nil
		}
		return nil, fmt.Errorf("invalid boolean payload %#x", b)
	case stackitem.IntegerT:
		b, err := d.DecodeBytes()
		if err != nil {
			return nil, err
		}
		if len(b) > stackitem.MaxIntSize {
			return nil, stackitem.ErrIntegerTooBig
		}
		return stackitem.NewBigInteger(stackitem.FromBytes(b)), nil
	case stackitem.ByteArrayT:
		b, err := d.DecodeBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.ByteString(b), nil
	case stackitem.BufferT:
		b, err := d.DecodeBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewBuffer(b), nil
	case stackitem.ArrayT:
		items, err := d.decodeChildren(depth)
		if err != nil {
			return nil, err
		}
		return stackitem.NewArray(items), nil
	case stackitem.StructT:
		items, err := d.decodeChildren(depth)
		if err != nil {
			return nil, err
		}
		return stackitem.NewStruct(items), nil
	case stackitem.MapT:
		n, err := d.DecodeU32()
		if err != nil {
			return nil, err
		}
		if n > MaxItems {
			return nil, fmt.Errorf("map of %d entries exceeds %d", n, MaxItems)
		}
		m := stackitem.NewMap()
		for i := uint32(0); i < n; i++ {
			key, err := d.decodeItem(depth + 1)
			if err != nil {
				return nil, err
			}
			if !stackitem.IsValidKey(key) {
				return nil, fmt.Errorf("invalid map key of type %v", key.Type())
			}
			value, err := d.decodeItem(depth + 1)
			if err != nil {
				return nil, err
			}
			m.Set(key, value)
		}
		return m, nil
	case stackitem.PointerT:
		pos, err := d.DecodeU32()
		if err != nil {
			return nil, err
		}
		return stackitem.NewPointer(int(pos)), nil
	}
	return nil, fmt.Errorf("unknown stack item tag %#x", tag)
}

func (d *Decoder) decodeChildren(depth int) ([]stackitem.Item, error) {
	n, err := d.DecodeU32()
	if err != nil {
		return nil, err
	}
	if n > MaxItems {
		return nil, fmt.Errorf("compound of %d items exceeds %d", n, MaxItems)
	}
	items := make([]stackitem.Item, 0, minInt(int(n), 64))
	for i := uint32(0); i < n; i++ {
		child, err := d.decodeItem(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, child)
	}
	return items, nil
}

// DecodeItems reads a u32-count-prefixed sequence of stack values.
func (d *Decoder) DecodeItems() ([]stackitem.Item, error) {
	n, err := d.DecodeU32()
	if err != nil {
		return nil, err
	}
	if n > MaxItems {
		return nil, fmt.Errorf("sequence of %d items exceeds %d", n, MaxItems)
	}
	items := make([]stackitem.Item, 0, minInt(int(n), 64))
	for i := uint32(0); i < n; i++ {
		item, err := d.DecodeItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
