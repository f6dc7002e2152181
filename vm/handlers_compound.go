package vm

import (
	"math/big"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

// Compound family (0xBE-0xD4). Element counts are bounded by MaxItems and
// compound children are deep-copied at insertion (see insertCompound).
func (e *Engine) opCompound(op Opcode, operand []byte) error {
	switch op {
	case PACKMAP:
		n, err := e.popCount(e.limits.MaxItems)
		if err != nil {
			return err
		}
		m := stackitem.NewMap()
		for i := 0; i < n; i++ {
			key, err := e.Pop()
			if err != nil {
				return err
			}
			if !stackitem.IsValidKey(key) {
				return faultf(InvalidType, "%v is not a valid map key", key.Type())
			}
			value, err := e.Pop()
			if err != nil {
				return err
			}
			m.Set(key, insertCompound(value))
		}
		return e.Push(m)

	case PACK, PACKSTRUCT:
		n, err := e.popCount(e.limits.MaxItems)
		if err != nil {
			return err
		}
		items := make([]stackitem.Item, n)
		for i := 0; i < n; i++ {
			item, err := e.Pop()
			if err != nil {
				return err
			}
			items[i] = insertCompound(item)
		}
		if op == PACK {
			return e.Push(stackitem.NewArray(items))
		}
		return e.Push(stackitem.NewStruct(items))

	case UNPACK:
		item, err := e.Pop()
		if err != nil {
			return err
		}
		var items []stackitem.Item
		switch it := item.(type) {
		case *stackitem.Array:
			items = it.Items()
		case *stackitem.Struct:
			items = it.Items()
		case *stackitem.Map:
			for _, el := range it.Elements() {
				if err := e.Push(el.Value); err != nil {
					return err
				}
				if err := e.Push(el.Key); err != nil {
					return err
				}
			}
			return e.pushInt(big.NewInt(int64(it.Len())))
		default:
			return faultf(InvalidType, "UNPACK of %v", item.Type())
		}
		for i := len(items) - 1; i >= 0; i-- {
			if err := e.Push(items[i]); err != nil {
				return err
			}
		}
		return e.pushInt(big.NewInt(int64(len(items))))

	case NEWARRAY0:
		return e.Push(stackitem.NewArray(nil))

	case NEWARRAY, NEWSTRUCT:
		n, err := e.popCount(e.limits.MaxItems)
		if err != nil {
			return err
		}
		items := make([]stackitem.Item, n)
		for i := range items {
			items[i] = stackitem.Null{}
		}
		if op == NEWARRAY {
			return e.Push(stackitem.NewArray(items))
		}
		return e.Push(stackitem.NewStruct(items))

	case NEWARRAYT:
		typ := stackitem.Type(operand[0])
		if !typ.IsValid() {
			return faultf(InvalidScript, "NEWARRAY_T with unknown type %#x", operand[0])
		}
		n, err := e.popCount(e.limits.MaxItems)
		if err != nil {
			return err
		}
		items := make([]stackitem.Item, n)
		for i := range items {
			items[i] = defaultOfType(typ)
		}
		return e.Push(stackitem.NewArray(items))

	case NEWSTRUCT0:
		return e.Push(stackitem.NewStruct(nil))

	case NEWMAP:
		return e.Push(stackitem.NewMap())

	case SIZE:
		item, err := e.Pop()
		if err != nil {
			return err
		}
		var n int
		switch it := item.(type) {
		case stackitem.ByteString:
			n = len(it)
		case *stackitem.Buffer:
			n = it.Len()
		case *stackitem.Array:
			n = it.Len()
		case *stackitem.Struct:
			n = it.Len()
		case *stackitem.Map:
			n = it.Len()
		default:
			return faultf(InvalidType, "SIZE of %v", item.Type())
		}
		return e.pushInt(big.NewInt(int64(n)))

	case HASKEY:
		key, err := e.Pop()
		if err != nil {
			return err
		}
		container, err := e.Pop()
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *stackitem.Map:
			if !stackitem.IsValidKey(key) {
				return faultf(InvalidType, "%v is not a valid map key", key.Type())
			}
			return e.pushBool(c.Index(key) >= 0)
		case *stackitem.Array:
			idx, err := indexOf(key, e.limits.MaxItems)
			if err != nil {
				return err
			}
			return e.pushBool(idx < c.Len())
		case *stackitem.Struct:
			idx, err := indexOf(key, e.limits.MaxItems)
			if err != nil {
				return err
			}
			return e.pushBool(idx < c.Len())
		case stackitem.ByteString:
			idx, err := indexOf(key, e.limits.MaxByteLen)
			if err != nil {
				return err
			}
			return e.pushBool(idx < len(c))
		case *stackitem.Buffer:
			idx, err := indexOf(key, e.limits.MaxByteLen)
			if err != nil {
				return err
			}
			return e.pushBool(idx < c.Len())
		}
		return faultf(InvalidType, "HASKEY on %v", container.Type())

	case KEYS:
		container, err := e.Pop()
		if err != nil {
			return err
		}
		m, ok := container.(*stackitem.Map)
		if !ok {
			return faultf(InvalidType, "KEYS on %v", container.Type())
		}
		keys := make([]stackitem.Item, 0, m.Len())
		for _, el := range m.Elements() {
			keys = append(keys, el.Key)
		}
		return e.Push(stackitem.NewArray(keys))

	case VALUES:
		container, err := e.Pop()
		if err != nil {
			return err
		}
		var src []stackitem.Item
		switch c := container.(type) {
		case *stackitem.Array:
			src = c.Items()
		case *stackitem.Struct:
			src = c.Items()
		case *stackitem.Map:
			for _, el := range c.Elements() {
				src = append(src, el.Value)
			}
		default:
			return faultf(InvalidType, "VALUES on %v", container.Type())
		}
		values := make([]stackitem.Item, len(src))
		copy(values, src)
		return e.Push(stackitem.NewArray(values))

	case PICKITEM:
		key, err := e.Pop()
		if err != nil {
			return err
		}
		container, err := e.Pop()
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *stackitem.Array:
			idx, err := indexInRange(key, c.Len())
			if err != nil {
				return err
			}
			return e.Push(c.Items()[idx])
		case *stackitem.Struct:
			idx, err := indexInRange(key, c.Len())
			if err != nil {
				return err
			}
			return e.Push(c.Items()[idx])
		case *stackitem.Map:
			if !stackitem.IsValidKey(key) {
				return faultf(InvalidType, "%v is not a valid map key", key.Type())
			}
			i := c.Index(key)
			if i < 0 {
				return faultf(InvalidOperation, "missing map key")
			}
			return e.Push(c.Elements()[i].Value)
		case stackitem.ByteString:
			idx, err := indexInRange(key, len(c))
			if err != nil {
				return err
			}
			return e.pushInt(big.NewInt(int64(c[idx])))
		case *stackitem.Buffer:
			idx, err := indexInRange(key, c.Len())
			if err != nil {
				return err
			}
			return e.pushInt(big.NewInt(int64(c.Bytes()[idx])))
		}
		return faultf(InvalidType, "PICKITEM on %v", container.Type())

	case APPEND:
		item, err := e.Pop()
		if err != nil {
			return err
		}
		container, err := e.Pop()
		if err != nil {
			return err
		}
		item = insertCompound(item)
		switch c := container.(type) {
		case *stackitem.Array:
			if c.Len() >= e.limits.MaxItems {
				return faultf(InvalidOperation, "array at item cap %d", e.limits.MaxItems)
			}
			c.Append(item)
		case *stackitem.Struct:
			if c.Len() >= e.limits.MaxItems {
				return faultf(InvalidOperation, "struct at item cap %d", e.limits.MaxItems)
			}
			c.Append(item)
		default:
			return faultf(InvalidType, "APPEND to %v", container.Type())
		}
		if e.recorder != nil {
			e.recorder.NoteItemWrite(byte(APPEND), nil, item)
		}
		return nil

	case SETITEM:
		value, err := e.Pop()
		if err != nil {
			return err
		}
		key, err := e.Pop()
		if err != nil {
			return err
		}
		container, err := e.Pop()
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *stackitem.Array:
			idx, err := indexInRange(key, c.Len())
			if err != nil {
				return err
			}
			c.Set(idx, insertCompound(value))
		case *stackitem.Struct:
			idx, err := indexInRange(key, c.Len())
			if err != nil {
				return err
			}
			c.Set(idx, insertCompound(value))
		case *stackitem.Map:
			if !stackitem.IsValidKey(key) {
				return faultf(InvalidType, "%v is not a valid map key", key.Type())
			}
			if c.Index(key) < 0 && c.Len() >= e.limits.MaxItems {
				return faultf(InvalidOperation, "map at item cap %d", e.limits.MaxItems)
			}
			c.Set(key, insertCompound(value))
		case *stackitem.Buffer:
			idx, err := indexInRange(key, c.Len())
			if err != nil {
				return err
			}
			v, err := stackitem.ToInteger(value)
			if err != nil || !v.IsInt64() || v.Int64() < 0 || v.Int64() > 255 {
				return faultf(InvalidOperation, "buffer byte value out of [0, 255]")
			}
			c.Bytes()[idx] = byte(v.Int64())
			if e.recorder != nil {
				e.recorder.NoteBufferWrite(idx, c.Bytes()[idx:idx+1])
			}
			return nil
		default:
			return faultf(InvalidType, "SETITEM on %v", container.Type())
		}
		if e.recorder != nil {
			e.recorder.NoteItemWrite(byte(SETITEM), key, value)
		}
		return nil

	case REVERSEITEMS:
		container, err := e.Pop()
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *stackitem.Array:
			c.Reverse()
		case *stackitem.Struct:
			c.Reverse()
		case *stackitem.Buffer:
			b := c.Bytes()
			for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
				b[i], b[j] = b[j], b[i]
			}
			if e.recorder != nil {
				e.recorder.NoteBufferWrite(0, b)
			}
		default:
			return faultf(InvalidType, "REVERSEITEMS on %v", container.Type())
		}
		return nil

	case REMOVE:
		key, err := e.Pop()
		if err != nil {
			return err
		}
		container, err := e.Pop()
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *stackitem.Array:
			idx, err := indexInRange(key, c.Len())
			if err != nil {
				return err
			}
			c.Remove(idx)
		case *stackitem.Struct:
			idx, err := indexInRange(key, c.Len())
			if err != nil {
				return err
			}
			c.Remove(idx)
		case *stackitem.Map:
			if !stackitem.IsValidKey(key) {
				return faultf(InvalidType, "%v is not a valid map key", key.Type())
			}
			c.Remove(key)
		default:
			return faultf(InvalidType, "REMOVE on %v", container.Type())
		}
		if e.recorder != nil {
			e.recorder.NoteItemWrite(byte(REMOVE), key, nil)
		}
		return nil

	case CLEARITEMS:
		container, err := e.Pop()
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *stackitem.Array:
			c.Clear()
		case *stackitem.Struct:
			c.Clear()
		case *stackitem.Map:
			c.Clear()
		default:
			return faultf(InvalidType, "CLEARITEMS on %v", container.Type())
		}
		if e.recorder != nil {
			e.recorder.NoteItemWrite(byte(CLEARITEMS), nil, nil)
		}
		return nil

	case POPITEM:
		container, err := e.Pop()
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *stackitem.Array:
			if c.Len() == 0 {
				return faultf(InvalidOperation, "POPITEM on empty array")
			}
			last := c.Items()[c.Len()-1]
			c.Remove(c.Len() - 1)
			return e.Push(last)
		case *stackitem.Struct:
			if c.Len() == 0 {
				return faultf(InvalidOperation, "POPITEM on empty struct")
			}
			last := c.Items()[c.Len()-1]
			c.Remove(c.Len() - 1)
			return e.Push(last)
		}
		return faultf(InvalidType, "POPITEM on %v", container.Type())
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}

func defaultOfType(typ stackitem.Type) stackitem.Item {
	switch typ {
	case stackitem.BooleanT:
		return stackitem.Bool(false)
	case stackitem.IntegerT:
		return stackitem.Make(0)
	case stackitem.ByteArrayT:
		return stackitem.ByteString(nil)
	default:
		return stackitem.Null{}
	}
}

// indexOf validates a non-negative index item bounded by max.
func indexOf(key stackitem.Item, max int) (int, error) {
	v, err := stackitem.ToInteger(key)
	if err != nil {
		return 0, faultf(InvalidType, "%v is not an index", key.Type())
	}
	if v.Sign() < 0 {
		return 0, faultf(InvalidOperation, "negative index %s", v)
	}
	if !v.IsInt64() || v.Int64() > int64(max) {
		return 0, faultf(InvalidOperation, "index %s exceeds %d", v, max)
	}
	return int(v.Int64()), nil
}

// indexInRange additionally requires index < length. An index equal to the
// length is a fault, never an implicit append.
func indexInRange(key stackitem.Item, length int) (int, error) {
	idx, err := indexOf(key, length)
	if err != nil {
		return 0, err
	}
	if idx >= length {
		return 0, faultf(InvalidOperation, "index %d out of [0, %d)", idx, length)
	}
	return idx, nil
}
