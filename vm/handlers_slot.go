package vm

import "github.com/r3e-network/neo-zkvm/stackitem"

// Slot family (0x56-0x81). Static slots are allocated once per program and
// shared across frames; local and argument slots belong to the frame that
// ran INITSLOT.
func (e *Engine) opSlot(frame *Frame, op Opcode, operand []byte) error {
	switch {
	case op == INITSSLOT:
		if e.staticsInit {
			return faultf(InvalidOperation, "INITSSLOT ran twice")
		}
		n := int(operand[0])
		e.statics = nullSlots(n)
		e.staticsInit = true
		return nil

	case op == INITSLOT:
		if frame.local != nil || frame.argument != nil {
			return faultf(InvalidOperation, "INITSLOT ran twice in one frame")
		}
		localCount, argCount := int(operand[0]), int(operand[1])
		if localCount == 0 && argCount == 0 {
			return faultf(InvalidOperation, "INITSLOT with no slots")
		}
		frame.local = nullSlots(localCount)
		frame.argument = make([]stackitem.Item, argCount)
		for i := 0; i < argCount; i++ {
			item, err := e.Pop()
			if err != nil {
				return err
			}
			frame.argument[i] = item
		}
		return nil

	case op >= LDSFLD0 && op <= LDSFLD:
		return e.loadSlot(e.statics, slotIndex(op, LDSFLD0, operand))
	case op >= STSFLD0 && op <= STSFLD:
		return e.storeSlot(e.statics, slotIndex(op, STSFLD0, operand), slotStatic)
	case op >= LDLOC0 && op <= LDLOC:
		return e.loadSlot(frame.local, slotIndex(op, LDLOC0, operand))
	case op >= STLOC0 && op <= STLOC:
		return e.storeSlot(frame.local, slotIndex(op, STLOC0, operand), slotLocal)
	case op >= LDARG0 && op <= LDARG:
		return e.loadSlot(frame.argument, slotIndex(op, LDARG0, operand))
	case op >= STARG0 && op <= STARG:
		return e.storeSlot(frame.argument, slotIndex(op, STARG0, operand), slotArgument)
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}

// Slot kind tags for the trace write set.
const (
	slotStatic byte = iota + 1
	slotLocal
	slotArgument
)

func nullSlots(n int) []stackitem.Item {
	slots := make([]stackitem.Item, n)
	for i := range slots {
		slots[i] = stackitem.Null{}
	}
	return slots
}

// slotIndex resolves the fixed-index forms (base+0..base+5) and the indexed
// form (base+6, trailing index byte).
func slotIndex(op, base Opcode, operand []byte) int {
	if op < base+Opcode(slotFastCount) {
		return int(op - base)
	}
	return int(operand[0])
}

func (e *Engine) loadSlot(slots []stackitem.Item, index int) error {
	if index >= len(slots) {
		return faultf(InvalidOperation, "slot index %d out of %d", index, len(slots))
	}
	return e.Push(slots[index])
}

func (e *Engine) storeSlot(slots []stackitem.Item, index int, kind byte) error {
	if index >= len(slots) {
		return faultf(InvalidOperation, "slot index %d out of %d", index, len(slots))
	}
	item, err := e.Pop()
	if err != nil {
		return err
	}
	slots[index] = item
	if e.recorder != nil {
		e.recorder.NoteSlotWrite(kind, index, item)
	}
	return nil
}
