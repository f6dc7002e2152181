package vm

import (
	"encoding/binary"
	"errors"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

// maxTryDepth bounds try nesting per frame.
const maxTryDepth = 16

func signedOffset(operand []byte) int {
	if len(operand) == 1 {
		return int(int8(operand[0]))
	}
	return int(int32(binary.LittleEndian.Uint32(operand)))
}

func (e *Engine) checkJumpTarget(frame *Frame, target int) error {
	if target < 0 || target >= len(frame.program) {
		return faultf(InvalidScript, "jump target %d out of [0, %d)", target, len(frame.program))
	}
	return nil
}

// Flow-control family (0x21-0x41).
func (e *Engine) opFlow(frame *Frame, op Opcode, opIP int, operand []byte) error {
	switch op {
	case NOP:
		return nil

	case JMP, JMPL:
		return e.jump(frame, opIP, signedOffset(operand))

	case JMPIF, JMPIFL, JMPIFNOT, JMPIFNOTL:
		cond, err := e.popBool()
		if err != nil {
			return err
		}
		if op == JMPIFNOT || op == JMPIFNOTL {
			cond = !cond
		}
		if cond {
			return e.jump(frame, opIP, signedOffset(operand))
		}
		return nil

	case JMPEQ, JMPEQL, JMPNE, JMPNEL, JMPGT, JMPGTL, JMPGE, JMPGEL, JMPLT, JMPLTL, JMPLE, JMPLEL:
		b, err := e.popInt()
		if err != nil {
			return err
		}
		a, err := e.popInt()
		if err != nil {
			return err
		}
		c := a.Cmp(b)
		var taken bool
		switch op {
		case JMPEQ, JMPEQL:
			taken = c == 0
		case JMPNE, JMPNEL:
			taken = c != 0
		case JMPGT, JMPGTL:
			taken = c > 0
		case JMPGE, JMPGEL:
			taken = c >= 0
		case JMPLT, JMPLTL:
			taken = c < 0
		case JMPLE, JMPLEL:
			taken = c <= 0
		}
		if taken {
			return e.jump(frame, opIP, signedOffset(operand))
		}
		return nil

	case CALL, CALLL:
		target := opIP + signedOffset(operand)
		if err := e.checkJumpTarget(frame, target); err != nil {
			return err
		}
		return e.call(target)

	case CALLA:
		item, err := e.Pop()
		if err != nil {
			return err
		}
		ptr, ok := item.(stackitem.Pointer)
		if !ok {
			return faultf(InvalidType, "CALLA needs a Pointer, got %v", item.Type())
		}
		if err := e.checkJumpTarget(frame, ptr.Position()); err != nil {
			return err
		}
		return e.call(ptr.Position())

	case ABORT:
		return faultf(InvalidOperation, "ABORT")

	case ASSERT:
		cond, err := e.popBool()
		if err != nil {
			return err
		}
		if !cond {
			return faultf(InvalidOperation, "assertion failed")
		}
		return nil

	case THROW:
		item, err := e.Pop()
		if err != nil {
			return err
		}
		return e.throw(item)

	case TRY, TRYL:
		var catchOffset, finallyOffset int
		if op == TRY {
			catchOffset = int(int8(operand[0]))
			finallyOffset = int(int8(operand[1]))
		} else {
			catchOffset = int(int32(binary.LittleEndian.Uint32(operand[:4])))
			finallyOffset = int(int32(binary.LittleEndian.Uint32(operand[4:])))
		}
		if catchOffset == 0 && finallyOffset == 0 {
			return faultf(InvalidScript, "TRY with neither catch nor finally")
		}
		if len(frame.tryStack) >= maxTryDepth {
			return faultf(InvalidOperation, "try nesting exceeds %d", maxTryDepth)
		}
		tc := tryContext{}
		if catchOffset != 0 {
			tc.catchIP = opIP + catchOffset
			if err := e.checkJumpTarget(frame, tc.catchIP); err != nil {
				return err
			}
			tc.hasCatch = true
		}
		if finallyOffset != 0 {
			tc.finallyIP = opIP + finallyOffset
			if err := e.checkJumpTarget(frame, tc.finallyIP); err != nil {
				return err
			}
			tc.hasFinally = true
		}
		frame.tryStack = append(frame.tryStack, tc)
		return nil

	case ENDTRY, ENDTRYL:
		if len(frame.tryStack) == 0 {
			return faultf(InvalidOperation, "ENDTRY outside a protected region")
		}
		target := opIP + signedOffset(operand)
		if err := e.checkJumpTarget(frame, target); err != nil {
			return err
		}
		tc := &frame.tryStack[len(frame.tryStack)-1]
		if tc.state == tryFinally {
			return faultf(InvalidOperation, "ENDTRY inside a finally handler")
		}
		if tc.hasFinally {
			tc.state = tryFinally
			tc.endIP = target
			frame.pc = tc.finallyIP
			return nil
		}
		frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
		frame.pc = target
		return nil

	case ENDFINALLY:
		if len(frame.tryStack) == 0 {
			return faultf(InvalidOperation, "ENDFINALLY outside a protected region")
		}
		tc := frame.tryStack[len(frame.tryStack)-1]
		if tc.state != tryFinally {
			return faultf(InvalidOperation, "ENDFINALLY outside a finally handler")
		}
		frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
		frame.pc = tc.endIP
		return nil

	case RET:
		e.returnFromFrame()
		return nil

	case SYSCALL:
		id := binary.LittleEndian.Uint32(operand)
		if e.syscalls == nil {
			return faultf(UnknownSyscall, "syscall %#x with no host hook", id)
		}
		if err := e.syscalls.Syscall(e, id); err != nil {
			var f *Fault
			if errors.As(err, &f) {
				return f
			}
			return faultf(InvalidOperation, "syscall %#x: %v", id, err)
		}
		return nil
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}

func (e *Engine) jump(frame *Frame, opIP, offset int) error {
	target := opIP + offset
	if err := e.checkJumpTarget(frame, target); err != nil {
		return err
	}
	frame.pc = target
	return nil
}

// call pushes a new invocation frame at target, enforcing the depth cap. The
// entry frame is free: a cap of n admits n nested calls.
func (e *Engine) call(target int) error {
	if len(e.istack) > e.limits.MaxInvocationDepth {
		return faultf(InvocationDepthExceeded, "invocation depth %d at cap %d", len(e.istack), e.limits.MaxInvocationDepth)
	}
	e.istack = append(e.istack, newFrame(e.program, target))
	return nil
}

// throw unwinds to the nearest protected region with a catch handler still in
// its body, popping any frames above it. Finally handlers of regions skipped
// by the unwind do not run; only THROW is catchable, every other fault
// freezes the engine.
func (e *Engine) throw(item stackitem.Item) error {
	for fi := len(e.istack) - 1; fi >= 0; fi-- {
		frame := e.istack[fi]
		for ti := len(frame.tryStack) - 1; ti >= 0; ti-- {
			tc := &frame.tryStack[ti]
			if tc.state == tryBody && tc.hasCatch {
				tc.state = tryCatch
				frame.tryStack = frame.tryStack[:ti+1]
				e.istack = e.istack[:fi+1]
				frame.pc = tc.catchIP
				return e.Push(item)
			}
		}
	}
	return faultf(Unhandled, "uncaught exception")
}
