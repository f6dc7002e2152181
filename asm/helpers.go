package asm

import "github.com/r3e-network/neo-zkvm/vm"

func operandSize(op vm.Opcode) int {
	size, _ := op.OperandSize()
	return size
}

func pushIntWidth(op vm.Opcode) int {
	return operandSize(op)
}

// longForm maps a short branch encoding to its 4-byte twin. Long forms map
// to themselves.
func longForm(op vm.Opcode) vm.Opcode {
	switch op {
	case vm.JMP, vm.JMPIF, vm.JMPIFNOT, vm.JMPEQ, vm.JMPNE, vm.JMPGT, vm.JMPGE, vm.JMPLT, vm.JMPLE:
		return op + 1
	case vm.CALL:
		return vm.CALLL
	case vm.TRY:
		return vm.TRYL
	case vm.ENDTRY:
		return vm.ENDTRYL
	}
	return op
}
