package vm

import "math/big"

// Stack-manipulation family (0x43-0x55). Count operands come from the stack
// and must be non-negative and within the current depth.
func (e *Engine) opStack(op Opcode) error {
	switch op {
	case DEPTH:
		return e.pushInt(big.NewInt(int64(len(e.estack))))

	case DROP:
		_, err := e.Pop()
		return err

	case NIP:
		top, err := e.Pop()
		if err != nil {
			return err
		}
		if _, err := e.Pop(); err != nil {
			return err
		}
		return e.Push(top)

	case XDROP:
		n, err := e.popCount(e.limits.MaxStackDepth)
		if err != nil {
			return err
		}
		if n >= len(e.estack) {
			return newFault(StackUnderflow)
		}
		idx := len(e.estack) - 1 - n
		e.estack = append(e.estack[:idx], e.estack[idx+1:]...)
		return nil

	case CLEAR:
		e.estack = e.estack[:0]
		return nil

	case DUP:
		top, err := e.peek(0)
		if err != nil {
			return err
		}
		return e.Push(top)

	case OVER:
		item, err := e.peek(1)
		if err != nil {
			return err
		}
		return e.Push(item)

	case PICK:
		n, err := e.popCount(e.limits.MaxStackDepth)
		if err != nil {
			return err
		}
		item, err := e.peek(n)
		if err != nil {
			return err
		}
		return e.Push(item)

	case TUCK:
		if len(e.estack) < 2 {
			return newFault(StackUnderflow)
		}
		top := e.estack[len(e.estack)-1]
		if err := e.Push(top); err != nil {
			return err
		}
		// estack grew by one; the original top-2 position shifted.
		e.estack[len(e.estack)-3], e.estack[len(e.estack)-2] = top, e.estack[len(e.estack)-3]
		return nil

	case SWAP:
		if len(e.estack) < 2 {
			return newFault(StackUnderflow)
		}
		l := len(e.estack)
		e.estack[l-1], e.estack[l-2] = e.estack[l-2], e.estack[l-1]
		return nil

	case ROT:
		if len(e.estack) < 3 {
			return newFault(StackUnderflow)
		}
		l := len(e.estack)
		third := e.estack[l-3]
		copy(e.estack[l-3:], e.estack[l-2:])
		e.estack[l-1] = third
		return nil

	case ROLL:
		n, err := e.popCount(e.limits.MaxStackDepth)
		if err != nil {
			return err
		}
		if n >= len(e.estack) {
			return newFault(StackUnderflow)
		}
		if n == 0 {
			return nil
		}
		idx := len(e.estack) - 1 - n
		item := e.estack[idx]
		copy(e.estack[idx:], e.estack[idx+1:])
		e.estack[len(e.estack)-1] = item
		return nil

	case REVERSE3:
		return e.reverseTop(3)
	case REVERSE4:
		return e.reverseTop(4)
	case REVERSEN:
		n, err := e.popCount(e.limits.MaxStackDepth)
		if err != nil {
			return err
		}
		return e.reverseTop(n)
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}

func (e *Engine) reverseTop(n int) error {
	if n > len(e.estack) {
		return newFault(StackUnderflow)
	}
	top := e.estack[len(e.estack)-n:]
	for i, j := 0, len(top)-1; i < j; i, j = i+1, j-1 {
		top[i], top[j] = top[j], top[i]
	}
	return nil
}
