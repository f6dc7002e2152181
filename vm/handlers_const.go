package vm

import (
	"math/big"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

// Constant family (0x00-0x20): integer, data and pointer pushes.
func (e *Engine) opPushConst(frame *Frame, op Opcode, opIP int, operand []byte) error {
	switch {
	case op >= PUSHINT8 && op <= PUSHINT256:
		v := stackitem.FromBytes(operand)
		if !stackitem.CheckIntegerSize(v) {
			return faultf(InvalidOperation, "pushed integer exceeds %d bytes", stackitem.MaxIntSize)
		}
		return e.Push(stackitem.NewBigInteger(v))
	case op == PUSHT:
		return e.pushBool(true)
	case op == PUSHF:
		return e.pushBool(false)
	case op == PUSHA:
		offset := int(int32(uint32(operand[0]) | uint32(operand[1])<<8 | uint32(operand[2])<<16 | uint32(operand[3])<<24))
		target := opIP + offset
		if target < 0 || target >= len(frame.program) {
			return faultf(InvalidScript, "pointer target %d out of [0, %d)", target, len(frame.program))
		}
		return e.Push(stackitem.NewPointer(target))
	case op == PUSHNULL:
		return e.Push(stackitem.Null{})
	case op >= PUSHDATA1 && op <= PUSHDATA4:
		data := make([]byte, len(operand))
		copy(data, operand)
		return e.Push(stackitem.ByteString(data))
	case op == PUSHM1:
		return e.Push(stackitem.Make(-1))
	case op >= PUSH0 && op <= PUSH16:
		return e.Push(stackitem.NewBigInteger(big.NewInt(int64(op - PUSH0))))
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}
