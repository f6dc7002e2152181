package vm

import "github.com/r3e-network/neo-zkvm/stackitem"

// Splice family (0x88-0x8E). Every range is validated before any slice is
// taken; results that are byte sequences come back as Buffers.
func (e *Engine) opSplice(op Opcode) error {
	switch op {
	case NEWBUFFER:
		n, err := e.popCount(e.limits.MaxByteLen)
		if err != nil {
			return err
		}
		return e.Push(stackitem.NewBuffer(make([]byte, n)))

	case MEMCPY:
		count, err := e.popCount(e.limits.MaxByteLen)
		if err != nil {
			return err
		}
		srcIndex, err := e.popCount(e.limits.MaxByteLen)
		if err != nil {
			return err
		}
		src, err := e.popBytes()
		if err != nil {
			return err
		}
		dstIndex, err := e.popCount(e.limits.MaxByteLen)
		if err != nil {
			return err
		}
		dstItem, err := e.Pop()
		if err != nil {
			return err
		}
		dst, ok := dstItem.(*stackitem.Buffer)
		if !ok {
			return faultf(InvalidType, "MEMCPY destination is %v, not Buffer", dstItem.Type())
		}
		if srcIndex+count > len(src) {
			return faultf(InvalidOperation, "MEMCPY source range [%d, %d) out of %d", srcIndex, srcIndex+count, len(src))
		}
		if dstIndex+count > dst.Len() {
			return faultf(InvalidOperation, "MEMCPY destination range [%d, %d) out of %d", dstIndex, dstIndex+count, dst.Len())
		}
		copy(dst.Bytes()[dstIndex:dstIndex+count], src[srcIndex:srcIndex+count])
		if e.recorder != nil {
			e.recorder.NoteBufferWrite(dstIndex, dst.Bytes()[dstIndex:dstIndex+count])
		}
		return nil

	case CAT:
		b, err := e.popBytes()
		if err != nil {
			return err
		}
		a, err := e.popBytes()
		if err != nil {
			return err
		}
		if len(a)+len(b) > e.limits.MaxByteLen {
			return faultf(InvalidOperation, "CAT result of %d bytes exceeds %d", len(a)+len(b), e.limits.MaxByteLen)
		}
		out := make([]byte, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		return e.Push(stackitem.NewBuffer(out))

	case SUBSTR:
		count, err := e.popCount(e.limits.MaxByteLen)
		if err != nil {
			return err
		}
		index, err := e.popCount(e.limits.MaxByteLen)
		if err != nil {
			return err
		}
		src, err := e.popBytes()
		if err != nil {
			return err
		}
		if index+count > len(src) {
			return faultf(InvalidOperation, "SUBSTR range [%d, %d) out of %d", index, index+count, len(src))
		}
		out := make([]byte, count)
		copy(out, src[index:index+count])
		return e.Push(stackitem.NewBuffer(out))

	case LEFT:
		count, err := e.popCount(e.limits.MaxByteLen)
		if err != nil {
			return err
		}
		src, err := e.popBytes()
		if err != nil {
			return err
		}
		if count > len(src) {
			return faultf(InvalidOperation, "LEFT count %d out of %d", count, len(src))
		}
		out := make([]byte, count)
		copy(out, src[:count])
		return e.Push(stackitem.NewBuffer(out))

	case RIGHT:
		count, err := e.popCount(e.limits.MaxByteLen)
		if err != nil {
			return err
		}
		src, err := e.popBytes()
		if err != nil {
			return err
		}
		if count > len(src) {
			return faultf(InvalidOperation, "RIGHT count %d out of %d", count, len(src))
		}
		out := make([]byte, count)
		copy(out, src[len(src)-count:])
		return e.Push(stackitem.NewBuffer(out))
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}
