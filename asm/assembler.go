// Package asm assembles and disassembles the byte program format: one
// mnemonic per line, labels for jump/call/try targets, integer and string
// immediates.
package asm

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/r3e-network/neo-zkvm/stackitem"
	"github.com/r3e-network/neo-zkvm/vm"
)

// Assembler turns mnemonic source into a byte program. Supported syntax:
//
//	LABEL:              define a label at the current offset
//	JMP LABEL           label reference (long form is emitted)
//	JMP -2              numeric relative offset (short form)
//	PUSH 300            optimal integer push
//	PUSHDATA "text"     byte-string push, shortest encoding
//	PUSHDATA 0xdeadbeef hex payload
//	; or #              comment to end of line
type Assembler struct {
	labels  map[string]int
	pending []pendingRef
}

type pendingRef struct {
	offset int // position of the opcode byte
	at     int // position of the 4-byte slot to patch
	label  string
	line   int
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{labels: make(map[string]int)}
}

// Assemble compiles source to bytecode.
func (a *Assembler) Assemble(source string) ([]byte, error) {
	var bytecode []byte
	for lineNum, raw := range strings.Split(source, "\n") {
		line := raw
		if i := strings.IndexAny(line, ";#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, ":") {
			label := strings.TrimSuffix(line, ":")
			if _, dup := a.labels[label]; dup {
				return nil, fmt.Errorf("duplicate label %q at line %d", label, lineNum+1)
			}
			a.labels[label] = len(bytecode)
			continue
		}
		var err error
		bytecode, err = a.assembleLine(bytecode, line, lineNum+1)
		if err != nil {
			return nil, err
		}
	}
	if err := a.resolveLabels(bytecode); err != nil {
		return nil, err
	}
	return bytecode, nil
}

func (a *Assembler) assembleLine(bytecode []byte, line string, lineNum int) ([]byte, error) {
	fields := splitOperands(line)
	mnemonic := strings.ToUpper(fields[0])
	operands := fields[1:]

	switch mnemonic {
	case "PUSH":
		if len(operands) != 1 {
			return nil, fmt.Errorf("PUSH needs one integer at line %d", lineNum)
		}
		n, ok := new(big.Int).SetString(operands[0], 0)
		if !ok {
			return nil, fmt.Errorf("PUSH operand %q is not an integer at line %d", operands[0], lineNum)
		}
		return appendPushInt(bytecode, n, lineNum)
	case "PUSHDATA":
		if len(operands) != 1 {
			return nil, fmt.Errorf("PUSHDATA needs one operand at line %d", lineNum)
		}
		data, err := parseDataLiteral(operands[0], lineNum)
		if err != nil {
			return nil, err
		}
		return appendPushData(bytecode, data)
	}

	op, ok := vm.FromMnemonic(mnemonic)
	if !ok {
		return nil, fmt.Errorf("unknown opcode %q at line %d", mnemonic, lineNum)
	}
	switch op {
	case vm.PUSHINT8, vm.PUSHINT16, vm.PUSHINT32, vm.PUSHINT64, vm.PUSHINT128, vm.PUSHINT256:
		n, err := intOperand(operands, lineNum)
		if err != nil {
			return nil, err
		}
		width := pushIntWidth(op)
		le := intToWidth(n, width)
		if le == nil {
			return nil, fmt.Errorf("%s operand %s does not fit %d bytes at line %d", mnemonic, n, width, lineNum)
		}
		return append(append(bytecode, byte(op)), le...), nil

	case vm.PUSHDATA1, vm.PUSHDATA2, vm.PUSHDATA4:
		if len(operands) != 1 {
			return nil, fmt.Errorf("%s needs one operand at line %d", mnemonic, lineNum)
		}
		data, err := parseDataLiteral(operands[0], lineNum)
		if err != nil {
			return nil, err
		}
		return appendPushDataSized(bytecode, op, data, lineNum)

	case vm.JMP, vm.JMPIF, vm.JMPIFNOT, vm.JMPEQ, vm.JMPNE, vm.JMPGT, vm.JMPGE, vm.JMPLT, vm.JMPLE,
		vm.JMPL, vm.JMPIFL, vm.JMPIFNOTL, vm.JMPEQL, vm.JMPNEL, vm.JMPGTL, vm.JMPGEL, vm.JMPLTL, vm.JMPLEL,
		vm.CALL, vm.CALLL, vm.ENDTRY, vm.ENDTRYL, vm.PUSHA:
		return a.appendBranch(bytecode, op, operands, lineNum)

	case vm.TRY, vm.TRYL:
		return a.appendTry(bytecode, op, operands, lineNum)

	case vm.SYSCALL:
		n, err := intOperand(operands, lineNum)
		if err != nil {
			return nil, err
		}
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(n.Uint64()))
		return append(append(bytecode, byte(op)), buf[:]...), nil

	case vm.INITSLOT:
		if len(operands) != 2 {
			return nil, fmt.Errorf("INITSLOT needs two counts at line %d", lineNum)
		}
		locals, ok1 := new(big.Int).SetString(operands[0], 0)
		args, ok2 := new(big.Int).SetString(operands[1], 0)
		if !ok1 || !ok2 || !locals.IsUint64() || !args.IsUint64() || locals.Uint64() > 255 || args.Uint64() > 255 {
			return nil, fmt.Errorf("INITSLOT counts out of range at line %d", lineNum)
		}
		return append(bytecode, byte(op), byte(locals.Uint64()), byte(args.Uint64())), nil
	}

	// Remaining opcodes with a single u8 immediate.
	if size := operandSize(op); size == 1 {
		n, err := intOperand(operands, lineNum)
		if err != nil {
			return nil, err
		}
		if !n.IsUint64() || n.Uint64() > 255 {
			return nil, fmt.Errorf("%s operand out of range at line %d", mnemonic, lineNum)
		}
		return append(bytecode, byte(op), byte(n.Uint64())), nil
	} else if size > 0 {
		return nil, fmt.Errorf("%s needs an immediate at line %d", mnemonic, lineNum)
	}

	if len(operands) != 0 {
		return nil, fmt.Errorf("%s takes no operand at line %d", mnemonic, lineNum)
	}
	return append(bytecode, byte(op)), nil
}

// appendBranch emits a relative-target opcode. A label reference always uses
// the long encoding so the fixup slot is four bytes.
func (a *Assembler) appendBranch(bytecode []byte, op vm.Opcode, operands []string, lineNum int) ([]byte, error) {
	if len(operands) != 1 {
		return nil, fmt.Errorf("%s needs one target at line %d", op, lineNum)
	}
	if n, ok := new(big.Int).SetString(operands[0], 0); ok {
		width := operandSize(op)
		le := intToWidth(n, width)
		if le == nil {
			return nil, fmt.Errorf("%s offset %s does not fit %d bytes at line %d", op, n, width, lineNum)
		}
		return append(append(bytecode, byte(op)), le...), nil
	}
	long := longForm(op)
	offset := len(bytecode)
	bytecode = append(bytecode, byte(long), 0, 0, 0, 0)
	a.pending = append(a.pending, pendingRef{offset: offset, at: offset + 1, label: operands[0], line: lineNum})
	return bytecode, nil
}

func (a *Assembler) appendTry(bytecode []byte, op vm.Opcode, operands []string, lineNum int) ([]byte, error) {
	if len(operands) != 2 {
		return nil, fmt.Errorf("TRY needs catch and finally targets at line %d", lineNum)
	}
	offset := len(bytecode)
	bytecode = append(bytecode, byte(vm.TRYL), 0, 0, 0, 0, 0, 0, 0, 0)
	for i, operand := range operands {
		at := offset + 1 + i*4
		if n, ok := new(big.Int).SetString(operand, 0); ok {
			binary.LittleEndian.PutUint32(bytecode[at:], uint32(int32(n.Int64())))
			continue
		}
		a.pending = append(a.pending, pendingRef{offset: offset, at: at, label: operand, line: lineNum})
	}
	return bytecode, nil
}

func (a *Assembler) resolveLabels(bytecode []byte) error {
	for _, ref := range a.pending {
		target, ok := a.labels[ref.label]
		if !ok {
			return fmt.Errorf("undefined label %q at line %d", ref.label, ref.line)
		}
		binary.LittleEndian.PutUint32(bytecode[ref.at:], uint32(int32(target-ref.offset)))
	}
	a.pending = a.pending[:0]
	return nil
}

func splitOperands(line string) []string {
	var fields []string
	var cur strings.Builder
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inString = !inString
			cur.WriteByte(c)
		case (c == ' ' || c == '\t') && !inString:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

func parseDataLiteral(s string, lineNum int) ([]byte, error) {
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2 {
		return []byte(s[1 : len(s)-1]), nil
	}
	if strings.HasPrefix(s, "0x") {
		data, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid hex literal at line %d: %v", lineNum, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("operand %q is neither a string nor hex at line %d", s, lineNum)
}

func intOperand(operands []string, lineNum int) (*big.Int, error) {
	if len(operands) != 1 {
		return nil, fmt.Errorf("expected one integer operand at line %d", lineNum)
	}
	n, ok := new(big.Int).SetString(operands[0], 0)
	if !ok {
		return nil, fmt.Errorf("operand %q is not an integer at line %d", operands[0], lineNum)
	}
	return n, nil
}

// appendPushInt emits the shortest encoding of n.
func appendPushInt(bytecode []byte, n *big.Int, lineNum int) ([]byte, error) {
	if n.IsInt64() {
		v := n.Int64()
		switch {
		case v == -1:
			return append(bytecode, byte(vm.PUSHM1)), nil
		case v >= 0 && v <= 16:
			return append(bytecode, byte(vm.PUSH0)+byte(v)), nil
		}
	}
	for _, c := range []struct {
		op    vm.Opcode
		width int
	}{
		{vm.PUSHINT8, 1}, {vm.PUSHINT16, 2}, {vm.PUSHINT32, 4},
		{vm.PUSHINT64, 8}, {vm.PUSHINT128, 16}, {vm.PUSHINT256, 32},
	} {
		if le := intToWidth(n, c.width); le != nil {
			return append(append(bytecode, byte(c.op)), le...), nil
		}
	}
	return nil, fmt.Errorf("integer %s exceeds 32 bytes at line %d", n, lineNum)
}

// appendPushData emits the shortest PUSHDATA encoding.
func appendPushData(bytecode []byte, data []byte) ([]byte, error) {
	switch {
	case len(data) <= 0xFF:
		return appendPushDataSized(bytecode, vm.PUSHDATA1, data, 0)
	case len(data) <= 0xFFFF:
		return appendPushDataSized(bytecode, vm.PUSHDATA2, data, 0)
	default:
		return appendPushDataSized(bytecode, vm.PUSHDATA4, data, 0)
	}
}

func appendPushDataSized(bytecode []byte, op vm.Opcode, data []byte, lineNum int) ([]byte, error) {
	switch op {
	case vm.PUSHDATA1:
		if len(data) > 0xFF {
			return nil, fmt.Errorf("PUSHDATA1 payload of %d bytes at line %d", len(data), lineNum)
		}
		bytecode = append(bytecode, byte(op), byte(len(data)))
	case vm.PUSHDATA2:
		if len(data) > 0xFFFF {
			return nil, fmt.Errorf("PUSHDATA2 payload of %d bytes at line %d", len(data), lineNum)
		}
		bytecode = append(bytecode, byte(op))
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], uint16(len(data)))
		bytecode = append(bytecode, buf[:]...)
	default:
		bytecode = append(bytecode, byte(op))
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(len(data)))
		bytecode = append(bytecode, buf[:]...)
	}
	return append(bytecode, data...), nil
}

// intToWidth encodes n as width bytes of little-endian two's complement, or
// nil when it does not fit.
func intToWidth(n *big.Int, width int) []byte {
	le := stackitem.IntToBytes(n)
	if len(le) > width {
		return nil
	}
	out := make([]byte, width)
	copy(out, le)
	if n.Sign() < 0 {
		for i := len(le); i < width; i++ {
			out[i] = 0xFF
		}
	}
	return out
}
