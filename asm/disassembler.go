package asm

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/r3e-network/neo-zkvm/stackitem"
	"github.com/r3e-network/neo-zkvm/vm"
)

// Instruction is one decoded instruction of a listing.
type Instruction struct {
	IP      int
	Op      vm.Opcode
	Operand []byte
	// Target is the absolute address of a relative-target instruction, -1
	// otherwise.
	Target int
}

// Disassemble decodes a program into a linear instruction listing. Truncated
// immediates terminate the listing with an error describing the offset.
func Disassemble(program []byte) ([]Instruction, error) {
	var out []Instruction
	ip := 0
	for ip < len(program) {
		op := vm.Opcode(program[ip])
		if !op.IsValid() {
			return out, fmt.Errorf("unknown opcode %#x at %d", program[ip], ip)
		}
		size, sizePrefix := op.OperandSize()
		next := ip + 1
		if sizePrefix > 0 {
			if next+sizePrefix > len(program) {
				return out, fmt.Errorf("truncated length prefix at %d", ip)
			}
			var n int
			switch sizePrefix {
			case 1:
				n = int(program[next])
			case 2:
				n = int(binary.LittleEndian.Uint16(program[next:]))
			case 4:
				n = int(binary.LittleEndian.Uint32(program[next:]))
			}
			next += sizePrefix
			size = n
		}
		if next+size > len(program) {
			return out, fmt.Errorf("truncated immediate at %d", ip)
		}
		ins := Instruction{IP: ip, Op: op, Operand: program[next : next+size], Target: -1}
		if t, ok := branchTarget(ins); ok {
			ins.Target = t
		}
		out = append(out, ins)
		ip = next + size
	}
	return out, nil
}

func branchTarget(ins Instruction) (int, bool) {
	switch ins.Op {
	case vm.JMP, vm.JMPIF, vm.JMPIFNOT, vm.JMPEQ, vm.JMPNE, vm.JMPGT, vm.JMPGE, vm.JMPLT, vm.JMPLE,
		vm.CALL, vm.ENDTRY:
		return ins.IP + int(int8(ins.Operand[0])), true
	case vm.JMPL, vm.JMPIFL, vm.JMPIFNOTL, vm.JMPEQL, vm.JMPNEL, vm.JMPGTL, vm.JMPGEL, vm.JMPLTL, vm.JMPLEL,
		vm.CALLL, vm.ENDTRYL, vm.PUSHA:
		return ins.IP + int(int32(binary.LittleEndian.Uint32(ins.Operand))), true
	}
	return 0, false
}

// Format renders one instruction as a listing line: its offset, mnemonic and
// operands, with branch targets as absolute offsets. The assembler does not
// read this form back.
func (ins Instruction) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d: %s", ins.IP, ins.Op)
	switch {
	case ins.Target >= 0 && ins.Op != vm.TRY && ins.Op != vm.TRYL:
		fmt.Fprintf(&sb, " %d", ins.Target)
	case ins.Op == vm.TRY:
		fmt.Fprintf(&sb, " %d %d", ins.IP+int(int8(ins.Operand[0])), ins.IP+int(int8(ins.Operand[1])))
	case ins.Op == vm.TRYL:
		c := ins.IP + int(int32(binary.LittleEndian.Uint32(ins.Operand[:4])))
		f := ins.IP + int(int32(binary.LittleEndian.Uint32(ins.Operand[4:])))
		fmt.Fprintf(&sb, " %d %d", c, f)
	case ins.Op >= vm.PUSHINT8 && ins.Op <= vm.PUSHINT256:
		fmt.Fprintf(&sb, " %s", stackitem.FromBytes(ins.Operand))
	case ins.Op >= vm.PUSHDATA1 && ins.Op <= vm.PUSHDATA4:
		fmt.Fprintf(&sb, " 0x%s", hex.EncodeToString(ins.Operand))
	case len(ins.Operand) > 0:
		for _, b := range ins.Operand {
			fmt.Fprintf(&sb, " %d", b)
		}
	}
	return sb.String()
}

// Listing renders a whole program.
func Listing(program []byte) (string, error) {
	instructions, err := Disassemble(program)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, ins := range instructions {
		sb.WriteString(ins.Format())
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
