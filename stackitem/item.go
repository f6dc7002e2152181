// Package stackitem implements the typed value model of the VM evaluation
// stack: a closed sum of nine variants with total equality and the conversion
// rules shared by the interpreter, the canonical codec and the native
// contracts.
package stackitem

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
)

// Type is the tag byte of a stack item variant. The values double as the
// type immediates of ISTYPE/CONVERT and as the canonical encoding tags.
type Type byte

const (
	AnyT       Type = 0x00
	PointerT   Type = 0x10
	BooleanT   Type = 0x20
	IntegerT   Type = 0x21
	ByteArrayT Type = 0x28
	BufferT    Type = 0x30
	ArrayT     Type = 0x40
	StructT    Type = 0x41
	MapT       Type = 0x48
)

func (t Type) String() string {
	switch t {
	case AnyT:
		return "Null"
	case PointerT:
		return "Pointer"
	case BooleanT:
		return "Boolean"
	case IntegerT:
		return "Integer"
	case ByteArrayT:
		return "ByteString"
	case BufferT:
		return "Buffer"
	case ArrayT:
		return "Array"
	case StructT:
		return "Struct"
	case MapT:
		return "Map"
	default:
		return fmt.Sprintf("Type(%#x)", byte(t))
	}
}

// IsValid reports whether t names a constructible variant.
func (t Type) IsValid() bool {
	switch t {
	case AnyT, PointerT, BooleanT, IntegerT, ByteArrayT, BufferT, ArrayT, StructT, MapT:
		return true
	}
	return false
}

var (
	// ErrInvalidConversion is returned when an item cannot be represented in
	// the requested variant.
	ErrInvalidConversion = errors.New("invalid conversion")
	// ErrIntegerTooBig is returned when a value exceeds MaxIntSize bytes of
	// two's complement.
	ErrIntegerTooBig = errors.New("integer is too big")
)

// MaxIntSize is the byte width bound of the Integer variant.
const MaxIntSize = 32

var (
	minInteger = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), MaxIntSize*8-1))
	maxInteger = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), MaxIntSize*8-1), big.NewInt(1))
)

// CheckIntegerSize reports whether v fits in MaxIntSize bytes of two's
// complement.
func CheckIntegerSize(v *big.Int) bool {
	return v.Cmp(minInteger) >= 0 && v.Cmp(maxInteger) <= 0
}

// Item is a value on the evaluation stack.
type Item interface {
	// Type returns the variant tag.
	Type() Type
	// Bool converts the item to a boolean using the total conversion rules.
	Bool() bool
	// Equals implements structural equality. Integer and Boolean compare via
	// integer coercion; byte-likes compare by content; compound items are
	// equal only when of the same variant with equal ordered children.
	Equals(other Item) bool
}

// Null is the nil-valued stack item.
type Null struct{}

func (Null) Type() Type { return AnyT }
func (Null) Bool() bool { return false }
func (Null) Equals(other Item) bool {
	_, ok := other.(Null)
	return ok
}
func (Null) String() string { return "Null" }

// Bool is the Boolean stack item.
type Bool bool

func (Bool) Type() Type   { return BooleanT }
func (b Bool) Bool() bool { return bool(b) }
func (b Bool) Equals(other Item) bool {
	switch o := other.(type) {
	case Bool:
		return b == o
	case *BigInteger:
		return b.Big().Cmp(o.Big()) == 0
	}
	return false
}
func (b Bool) String() string { return fmt.Sprintf("Boolean(%t)", bool(b)) }

// Big returns the 0/1 integer coercion of the boolean.
func (b Bool) Big() *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// BigInteger is the arbitrary-precision Integer stack item, bounded to
// MaxIntSize bytes at every widening boundary by the engine.
type BigInteger struct {
	value *big.Int
}

// NewBigInteger wraps v without copying. The caller must not mutate v
// afterwards.
func NewBigInteger(v *big.Int) *BigInteger {
	return &BigInteger{value: v}
}

// Make is a shorthand for small constants.
func Make(v int64) *BigInteger {
	return &BigInteger{value: big.NewInt(v)}
}

func (i *BigInteger) Big() *big.Int { return i.value }
func (i *BigInteger) Type() Type    { return IntegerT }
func (i *BigInteger) Bool() bool    { return i.value.Sign() != 0 }
func (i *BigInteger) Equals(other Item) bool {
	switch o := other.(type) {
	case *BigInteger:
		return i.value.Cmp(o.value) == 0
	case Bool:
		return i.value.Cmp(o.Big()) == 0
	}
	return false
}
func (i *BigInteger) String() string { return fmt.Sprintf("Integer(%s)", i.value) }

// ByteString is the immutable byte sequence stack item.
type ByteString []byte

func (ByteString) Type() Type   { return ByteArrayT }
func (s ByteString) Bool() bool { return anyNonZero(s) }
func (s ByteString) Equals(other Item) bool {
	return byteLikeEquals(s, other)
}
func (s ByteString) String() string { return fmt.Sprintf("ByteString(%x)", []byte(s)) }

// Buffer is the mutable byte sequence stack item. Copies on the stack alias
// the same payload.
type Buffer struct {
	data []byte
}

// NewBuffer wraps data without copying.
func NewBuffer(data []byte) *Buffer { return &Buffer{data: data} }

func (b *Buffer) Bytes() []byte { return b.data }
func (b *Buffer) Len() int      { return len(b.data) }
func (*Buffer) Type() Type      { return BufferT }
func (b *Buffer) Bool() bool    { return anyNonZero(b.data) }
func (b *Buffer) Equals(other Item) bool {
	return byteLikeEquals(b.data, other)
}
func (b *Buffer) String() string { return fmt.Sprintf("Buffer(%x)", b.data) }

func byteLikeEquals(data []byte, other Item) bool {
	switch o := other.(type) {
	case ByteString:
		return bytes.Equal(data, o)
	case *Buffer:
		return bytes.Equal(data, o.data)
	}
	return false
}

func anyNonZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return true
		}
	}
	return false
}

// Array is the ordered compound stack item.
type Array struct {
	items []Item
}

// NewArray wraps items without copying.
func NewArray(items []Item) *Array { return &Array{items: items} }

func (a *Array) Items() []Item      { return a.items }
func (a *Array) Len() int           { return len(a.items) }
func (*Array) Type() Type           { return ArrayT }
func (*Array) Bool() bool           { return true }
func (a *Array) Append(item Item)   { a.items = append(a.items, item) }
func (a *Array) Clear()             { a.items = a.items[:0] }
func (a *Array) Reverse()           { reverseItems(a.items) }
func (a *Array) Set(i int, it Item) { a.items[i] = it }
func (a *Array) Remove(i int)       { a.items = append(a.items[:i], a.items[i+1:]...) }
func (a *Array) Equals(other Item) bool {
	o, ok := other.(*Array)
	return ok && itemsEqual(a.items, o.items)
}
func (a *Array) String() string { return fmt.Sprintf("Array[%d]", len(a.items)) }

// Struct is an ordered compound distinguished from Array for copy and
// equality purposes.
type Struct struct {
	items []Item
}

// NewStruct wraps items without copying.
func NewStruct(items []Item) *Struct { return &Struct{items: items} }

func (s *Struct) Items() []Item      { return s.items }
func (s *Struct) Len() int           { return len(s.items) }
func (*Struct) Type() Type           { return StructT }
func (*Struct) Bool() bool           { return true }
func (s *Struct) Append(item Item)   { s.items = append(s.items, item) }
func (s *Struct) Clear()             { s.items = s.items[:0] }
func (s *Struct) Reverse()           { reverseItems(s.items) }
func (s *Struct) Set(i int, it Item) { s.items[i] = it }
func (s *Struct) Remove(i int)       { s.items = append(s.items[:i], s.items[i+1:]...) }
func (s *Struct) Equals(other Item) bool {
	o, ok := other.(*Struct)
	return ok && itemsEqual(s.items, o.items)
}
func (s *Struct) String() string { return fmt.Sprintf("Struct[%d]", len(s.items)) }

func itemsEqual(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

func reverseItems(items []Item) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

// MapElement is a single key/value entry of a Map.
type MapElement struct {
	Key   Item
	Value Item
}

// Map is the insertion-ordered mapping stack item. Keys are restricted to
// primitive variants.
type Map struct {
	elems []MapElement
}

// NewMap creates an empty map.
func NewMap() *Map { return &Map{} }

func (m *Map) Elements() []MapElement { return m.elems }
func (m *Map) Len() int               { return len(m.elems) }
func (*Map) Type() Type               { return MapT }
func (*Map) Bool() bool               { return true }
func (m *Map) Clear()                 { m.elems = m.elems[:0] }

// IsValidKey reports whether item may be used as a map key.
func IsValidKey(item Item) bool {
	switch item.(type) {
	case Null, Bool, *BigInteger, ByteString, *Buffer:
		return true
	}
	return false
}

// Index returns the position of key, or -1.
func (m *Map) Index(key Item) int {
	for i := range m.elems {
		if m.elems[i].Key.Equals(key) {
			return i
		}
	}
	return -1
}

// Set inserts or updates the value for key, preserving insertion order.
func (m *Map) Set(key, value Item) {
	if i := m.Index(key); i >= 0 {
		m.elems[i].Value = value
		return
	}
	m.elems = append(m.elems, MapElement{Key: key, Value: value})
}

// Remove deletes key if present.
func (m *Map) Remove(key Item) {
	if i := m.Index(key); i >= 0 {
		m.elems = append(m.elems[:i], m.elems[i+1:]...)
	}
}

func (m *Map) Equals(other Item) bool {
	o, ok := other.(*Map)
	if !ok || len(m.elems) != len(o.elems) {
		return false
	}
	for i := range m.elems {
		if !m.elems[i].Key.Equals(o.elems[i].Key) || !m.elems[i].Value.Equals(o.elems[i].Value) {
			return false
		}
	}
	return true
}
func (m *Map) String() string { return fmt.Sprintf("Map[%d]", len(m.elems)) }

// Pointer is an absolute program address produced by PUSHA and consumed by
// CALLA.
type Pointer struct {
	pos int
}

// NewPointer creates a pointer to the given absolute position.
func NewPointer(pos int) Pointer { return Pointer{pos: pos} }

func (p Pointer) Position() int { return p.pos }
func (Pointer) Type() Type      { return PointerT }
func (Pointer) Bool() bool      { return true }
func (p Pointer) Equals(other Item) bool {
	o, ok := other.(Pointer)
	return ok && p.pos == o.pos
}
func (p Pointer) String() string { return fmt.Sprintf("Pointer(%d)", p.pos) }
