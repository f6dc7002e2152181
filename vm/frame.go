package vm

import (
	"encoding/binary"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

type tryState byte

const (
	tryBody tryState = iota
	tryCatch
	tryFinally
)

// tryContext is one active protected region of a frame.
type tryContext struct {
	catchIP   int
	finallyIP int
	// endIP is where control resumes after the finally handler; set by
	// ENDTRY when the region is left normally.
	endIP      int
	hasCatch   bool
	hasFinally bool
	state      tryState
}

// Frame is one invocation record: the program, its program counter and the
// slot sequences of the call. The return address lives implicitly in the
// caller frame's pc, which was already advanced past the CALL operand.
type Frame struct {
	program []byte
	pc      int

	local    []stackitem.Item
	argument []stackitem.Item
	// Static slots are not held here: the engine owns them and LD/STSFLD
	// use them directly, shared across all frames of the program.
	tryStack []tryContext
}

func newFrame(program []byte, pc int) *Frame {
	return &Frame{program: program, pc: pc}
}

// IP returns the current program counter.
func (f *Frame) IP() int { return f.pc }

// Program returns the byte program of the frame.
func (f *Frame) Program() []byte { return f.program }

// atEnd reports whether the pc ran past the program, which behaves as RET.
func (f *Frame) atEnd() bool { return f.pc >= len(f.program) }

// The four bounds-checked immediate reads. Each fails with InvalidScript
// when fewer bytes remain than required.

func (f *Frame) readU8() (byte, error) {
	if f.pc+1 > len(f.program) {
		return 0, faultf(InvalidScript, "truncated u8 immediate")
	}
	v := f.program[f.pc]
	f.pc++
	return v, nil
}

func (f *Frame) readI8() (int8, error) {
	v, err := f.readU8()
	return int8(v), err
}

func (f *Frame) readU16LE() (uint16, error) {
	if f.pc+2 > len(f.program) {
		return 0, faultf(InvalidScript, "truncated u16 immediate")
	}
	v := binary.LittleEndian.Uint16(f.program[f.pc:])
	f.pc += 2
	return v, nil
}

func (f *Frame) readI32LE() (int32, error) {
	if f.pc+4 > len(f.program) {
		return 0, faultf(InvalidScript, "truncated i32 immediate")
	}
	v := binary.LittleEndian.Uint32(f.program[f.pc:])
	f.pc += 4
	return int32(v), nil
}

func (f *Frame) readBytes(n int) ([]byte, error) {
	if n < 0 || f.pc+n > len(f.program) {
		return nil, faultf(InvalidScript, "truncated %d-byte immediate", n)
	}
	b := f.program[f.pc : f.pc+n]
	f.pc += n
	return b, nil
}
