package stackitem

import (
	"math/big"
)

// ToInteger coerces item to an integer. Integer and Boolean convert directly;
// ByteString and Buffer decode as little-endian two's complement bounded by
// MaxIntSize. Every other variant is a conversion error.
func ToInteger(item Item) (*big.Int, error) {
	switch it := item.(type) {
	case *BigInteger:
		return it.Big(), nil
	case Bool:
		return it.Big(), nil
	case ByteString:
		return bytesToInt(it)
	case *Buffer:
		return bytesToInt(it.data)
	}
	return nil, ErrInvalidConversion
}

func bytesToInt(b []byte) (*big.Int, error) {
	if len(b) > MaxIntSize {
		return nil, ErrIntegerTooBig
	}
	return FromBytes(b), nil
}

// ToBytes returns the byte representation of a byte-like, boolean or integer
// item. Integers minimize to little-endian two's complement.
func ToBytes(item Item) ([]byte, error) {
	switch it := item.(type) {
	case ByteString:
		return it, nil
	case *Buffer:
		return it.data, nil
	case *BigInteger:
		return IntToBytes(it.Big()), nil
	case Bool:
		if it {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	}
	return nil, ErrInvalidConversion
}

// Convert implements the CONVERT lattice: identity succeeds for every valid
// target type except AnyT, which is always rejected (so Null converts to nothing);
// Integer↔ByteString, Boolean↔Integer, byte-like/Integer→Buffer,
// Buffer→ByteString and Array↔Struct convert; everything else fails.
// Buffer↔ByteString conversions copy the payload, never alias it.
func Convert(item Item, typ Type) (Item, error) {
	if !typ.IsValid() || typ == AnyT {
		return nil, ErrInvalidConversion
	}
	if item.Type() == typ {
		return item, nil
	}
	switch typ {
	case IntegerT:
		switch item.(type) {
		case Bool, ByteString, *Buffer:
			v, err := ToInteger(item)
			if err != nil {
				return nil, err
			}
			return NewBigInteger(v), nil
		}
	case BooleanT:
		if _, ok := item.(*BigInteger); ok {
			return Bool(item.Bool()), nil
		}
	case ByteArrayT:
		switch it := item.(type) {
		case *BigInteger:
			return ByteString(IntToBytes(it.Big())), nil
		case *Buffer:
			cp := make([]byte, len(it.data))
			copy(cp, it.data)
			return ByteString(cp), nil
		}
	case BufferT:
		switch it := item.(type) {
		case ByteString:
			cp := make([]byte, len(it))
			copy(cp, it)
			return NewBuffer(cp), nil
		case *BigInteger:
			return NewBuffer(IntToBytes(it.Big())), nil
		}
	case ArrayT:
		if st, ok := item.(*Struct); ok {
			items := make([]Item, len(st.items))
			copy(items, st.items)
			return NewArray(items), nil
		}
	case StructT:
		if arr, ok := item.(*Array); ok {
			items := make([]Item, len(arr.items))
			copy(items, arr.items)
			return NewStruct(items), nil
		}
	}
	return nil, ErrInvalidConversion
}

// IsCompound reports whether item is an Array, Struct or Map.
func IsCompound(item Item) bool {
	switch item.(type) {
	case *Array, *Struct, *Map:
		return true
	}
	return false
}

// DeepCopy clones item recursively. Buffers copy their payload; compound
// children are cloned. Used by the engine's copy-at-insert policy, which is
// what makes reference cycles unconstructible.
func DeepCopy(item Item) Item {
	switch it := item.(type) {
	case *Buffer:
		cp := make([]byte, len(it.data))
		copy(cp, it.data)
		return NewBuffer(cp)
	case *Array:
		items := make([]Item, len(it.items))
		for i := range it.items {
			items[i] = DeepCopy(it.items[i])
		}
		return NewArray(items)
	case *Struct:
		items := make([]Item, len(it.items))
		for i := range it.items {
			items[i] = DeepCopy(it.items[i])
		}
		return NewStruct(items)
	case *Map:
		m := NewMap()
		for _, el := range it.elems {
			m.elems = append(m.elems, MapElement{Key: DeepCopy(el.Key), Value: DeepCopy(el.Value)})
		}
		return m
	case *BigInteger:
		return NewBigInteger(new(big.Int).Set(it.value))
	}
	return item
}

// Count returns the total number of items contained in item, itself included.
func Count(item Item) int {
	n := 1
	switch it := item.(type) {
	case *Array:
		for _, c := range it.items {
			n += Count(c)
		}
	case *Struct:
		for _, c := range it.items {
			n += Count(c)
		}
	case *Map:
		for _, el := range it.elems {
			n += Count(el.Key) + Count(el.Value)
		}
	}
	return n
}
