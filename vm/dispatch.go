package vm

import "github.com/r3e-network/neo-zkvm/stackitem"

// execute dispatches one decoded opcode to its family handler. Operands were
// already read by the safe decoder; frame.pc points past them, so jump
// handlers overwrite it relative to opIP.
func (e *Engine) execute(frame *Frame, op Opcode, opIP int, operand []byte) error {
	switch {
	case op <= PUSH16:
		return e.opPushConst(frame, op, opIP, operand)
	case op >= NOP && op <= SYSCALL:
		return e.opFlow(frame, op, opIP, operand)
	case op >= DEPTH && op <= REVERSEN:
		return e.opStack(op)
	case op >= INITSSLOT && op <= STARG:
		return e.opSlot(frame, op, operand)
	case op >= NEWBUFFER && op <= RIGHT:
		return e.opSplice(op)
	case op >= INVERT && op <= NOTEQUAL:
		return e.opBitwise(op)
	case op >= SIGN && op <= WITHIN:
		return e.opArithmetic(op)
	case op >= PACKMAP && op <= POPITEM:
		return e.opCompound(op, operand)
	case op >= ISNULL && op <= ASSERTMSG:
		return e.opType(op, operand)
	case op >= SHA256 && op <= CHECKSIG:
		return e.opCrypto(op)
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}

// insertCompound applies the copy-at-insert policy: a compound child entering
// a container is deep-copied, which makes reference cycles unconstructible.
// The policy must hold identically on host and guest.
func insertCompound(item stackitem.Item) stackitem.Item {
	if stackitem.IsCompound(item) {
		return stackitem.DeepCopy(item)
	}
	return item
}
