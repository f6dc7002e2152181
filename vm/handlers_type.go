package vm

import (
	"github.com/r3e-network/neo-zkvm/stackitem"
)

// Type family (0xD8-0xE1) plus the message-carrying abort/assert forms.
func (e *Engine) opType(op Opcode, operand []byte) error {
	switch op {
	case ISNULL:
		item, err := e.Pop()
		if err != nil {
			return err
		}
		_, isNull := item.(stackitem.Null)
		return e.pushBool(isNull)

	case ISTYPE:
		typ := stackitem.Type(operand[0])
		if !typ.IsValid() || typ == stackitem.AnyT {
			return faultf(InvalidScript, "ISTYPE with invalid type %#x", operand[0])
		}
		item, err := e.Pop()
		if err != nil {
			return err
		}
		return e.pushBool(item.Type() == typ)

	case CONVERT:
		typ := stackitem.Type(operand[0])
		item, err := e.Pop()
		if err != nil {
			return err
		}
		converted, err := stackitem.Convert(item, typ)
		if err != nil {
			return faultf(InvalidType, "cannot convert %v to %v", item.Type(), typ)
		}
		return e.Push(converted)

	case ABORTMSG:
		msg, err := e.popBytes()
		if err != nil {
			return err
		}
		// The message is diagnostic only; it never reaches a digest.
		return faultf(InvalidOperation, "ABORT: %s", msg)

	case ASSERTMSG:
		msg, err := e.popBytes()
		if err != nil {
			return err
		}
		cond, err := e.popBool()
		if err != nil {
			return err
		}
		if !cond {
			return faultf(InvalidOperation, "assertion failed: %s", msg)
		}
		return nil
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}

// Crypto family (0xF0-0xF3): delegated to the engine's crypto hooks.
func (e *Engine) opCrypto(op Opcode) error {
	switch op {
	case SHA256:
		data, err := e.popBytes()
		if err != nil {
			return err
		}
		return e.Push(stackitem.ByteString(e.crypto.Sha256(data)))

	case RIPEMD160:
		data, err := e.popBytes()
		if err != nil {
			return err
		}
		return e.Push(stackitem.ByteString(e.crypto.Ripemd160(data)))

	case HASH160:
		data, err := e.popBytes()
		if err != nil {
			return err
		}
		return e.Push(stackitem.ByteString(e.crypto.Ripemd160(e.crypto.Sha256(data))))

	case CHECKSIG:
		pubkey, err := e.popBytes()
		if err != nil {
			return err
		}
		signature, err := e.popBytes()
		if err != nil {
			return err
		}
		message, err := e.popBytes()
		if err != nil {
			return err
		}
		return e.pushBool(e.crypto.CheckSig(message, signature, pubkey))
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}
