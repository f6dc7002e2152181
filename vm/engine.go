// Package vm implements the deterministic stack-based execution core: a
// single-threaded interpreter that decodes a byte-coded program and drives it
// to a terminal state under strict resource accounting, optionally emitting
// an execution trace whose digests bind every observable state transition.
package vm

import (
	"errors"
	"math/big"

	"github.com/r3e-network/neo-zkvm/log"
	"github.com/r3e-network/neo-zkvm/stackitem"
)

// State is the execution state of the engine. Halt and Faulted are terminal.
type State byte

const (
	// NoneState is the state before a program is loaded.
	NoneState State = iota
	// Running means Step will dispatch the next opcode.
	Running
	// Halt is the successful terminal state.
	Halt
	// Faulted is the failed terminal state; the engine exposes the fault.
	Faulted
	// Break is entered at a breakpoint; Resume returns to Running.
	Break
)

func (s State) String() string {
	switch s {
	case NoneState:
		return "None"
	case Running:
		return "Running"
	case Halt:
		return "Halt"
	case Faulted:
		return "Fault"
	case Break:
		return "Break"
	default:
		return "Unknown"
	}
}

// SyscallHandler is the host hook behind the SYSCALL opcode. It reads and
// writes the evaluation stack directly through the engine's exported
// accessors, under the engine's invariants.
type SyscallHandler interface {
	Syscall(e *Engine, id uint32) error
}

// NativeInvoker is the native-contract registry trait. Entries must be
// deterministic and side-effect-free aside from storage access.
type NativeInvoker interface {
	InvokeNative(hash [20]byte, method string, args []stackitem.Item) (stackitem.Item, error)
}

// Options carries the optional capabilities and caps of an engine. Zero
// values select the defaults.
type Options struct {
	Limits   Limits
	Crypto   CryptoHooks
	Syscalls SyscallHandler
}

// Engine is the interpreter state machine. One instance owns all mutable
// state of one execution; nothing is shared through globals.
type Engine struct {
	limits Limits

	state       State
	program     []byte
	estack      []stackitem.Item
	istack      []*Frame
	statics     []stackitem.Item
	staticsInit bool

	gasConsumed int64
	gasLimit    int64

	fault    *Fault
	recorder *Recorder

	crypto   CryptoHooks
	syscalls SyscallHandler

	breakpoints map[int]bool
	steps       int
}

// TerminationReport summarizes a finished execution.
type TerminationReport struct {
	State       State
	GasConsumed int64
	Steps       int
	// Fault is set when State is Faulted.
	Fault *Fault
	// Result is the top of the evaluation stack at termination, or nil.
	Result stackitem.Item
}

// New creates an engine with the default limits and crypto hooks.
func New(gasLimit int64) *Engine {
	return NewWithOptions(gasLimit, Options{})
}

// NewWithOptions creates an engine with explicit caps and capabilities. All
// caps are fixed for the lifetime of the instance.
func NewWithOptions(gasLimit int64, opts Options) *Engine {
	limits := opts.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}
	crypto := opts.Crypto
	if crypto == nil {
		crypto = StandardCrypto()
	}
	return &Engine{
		limits:   limits,
		gasLimit: gasLimit,
		crypto:   crypto,
		syscalls: opts.Syscalls,
		state:    NoneState,
	}
}

// Limits returns the engine's caps.
func (e *Engine) Limits() Limits { return e.limits }

// State returns the current execution state.
func (e *Engine) State() State { return e.state }

// GasConsumed returns the gas charged so far.
func (e *Engine) GasConsumed() int64 { return e.gasConsumed }

// GasLimit returns the gas limit of the execution.
func (e *Engine) GasLimit() int64 { return e.gasLimit }

// LastFault returns the fault that terminated the execution, or nil.
func (e *Engine) LastFault() *Fault { return e.fault }

// Steps returns the number of dispatched opcodes.
func (e *Engine) Steps() int { return e.steps }

// Load validates and loads a program, creating the entry invocation frame at
// pc 0 and moving the engine to Running. It resets any previous execution.
func (e *Engine) Load(program []byte) error {
	if len(program) > e.limits.MaxProgramLen {
		return faultf(InvalidScript, "program of %d bytes exceeds %d", len(program), e.limits.MaxProgramLen)
	}
	e.program = program
	e.estack = e.estack[:0]
	e.istack = e.istack[:0]
	e.statics = nil
	e.staticsInit = false
	e.gasConsumed = 0
	e.fault = nil
	e.steps = 0
	e.istack = append(e.istack, newFrame(program, 0))
	e.state = Running
	if e.recorder != nil {
		e.recorder.reset()
		e.recorder.recordInitial(e.estack)
	}
	return nil
}

// EnableTracing attaches a fresh trace recorder. Always on in the guest path.
func (e *Engine) EnableTracing() {
	e.recorder = NewRecorder(e.limits.TraceTopK)
}

// Trace returns the attached recorder, or nil when tracing is off.
func (e *Engine) Trace() *Recorder { return e.recorder }

// Context returns the active invocation frame, or nil.
func (e *Engine) Context() *Frame {
	if len(e.istack) == 0 {
		return nil
	}
	return e.istack[len(e.istack)-1]
}

// InvocationDepth returns the number of frames on the invocation stack.
func (e *Engine) InvocationDepth() int { return len(e.istack) }

// EvalStack returns the evaluation stack, bottom first. Callers must not
// mutate it.
func (e *Engine) EvalStack() []stackitem.Item { return e.estack }

// Top returns the top of the evaluation stack without popping.
func (e *Engine) Top() (stackitem.Item, bool) {
	if len(e.estack) == 0 {
		return nil, false
	}
	return e.estack[len(e.estack)-1], true
}

// AddBreakpoint arms a breakpoint at the given instruction pointer.
func (e *Engine) AddBreakpoint(ip int) {
	if e.breakpoints == nil {
		e.breakpoints = make(map[int]bool)
	}
	e.breakpoints[ip] = true
}

// RemoveBreakpoint disarms a breakpoint.
func (e *Engine) RemoveBreakpoint(ip int) {
	delete(e.breakpoints, ip)
}

// Resume moves a Break engine back to Running.
func (e *Engine) Resume() {
	if e.state == Break {
		e.state = Running
	}
}

// Step dispatches exactly one opcode. It is a no-op unless the state is
// Running. A returned error is always a *Fault and the engine is frozen in
// the Faulted state.
func (e *Engine) Step() error {
	if e.state != Running {
		return nil
	}
	frame := e.istack[len(e.istack)-1]
	if frame.atEnd() {
		// Running past the end of the program behaves as RET.
		e.returnFromFrame()
		return nil
	}

	opIP := frame.pc
	op := Opcode(frame.program[opIP])
	frame.pc++
	ins := instructions[op]
	if ins == nil {
		return e.setFault(faultf(InvalidScript, "unknown opcode %#x", byte(op)), opIP)
	}

	e.gasConsumed += ins.price
	if e.gasConsumed > e.gasLimit {
		return e.setFault(faultf(OutOfGas, "%s needs %d, consumed %d of %d", ins.name, ins.price, e.gasConsumed-ins.price, e.gasLimit), opIP)
	}

	operand, err := e.readOperand(frame, ins)
	if err != nil {
		return e.setFault(err, opIP)
	}

	log.Trace(log.VMMonitoring, "dispatch", "ip", opIP, "op", ins.name, "gas", e.gasConsumed)

	if err := e.execute(frame, op, opIP, operand); err != nil {
		return e.setFault(err, opIP)
	}
	e.steps++

	if e.recorder != nil {
		e.recorder.record(opIP, op, e.gasConsumed, e.estack)
	}
	if e.state == Halt && e.recorder != nil {
		e.recorder.recordFinal(e.estack)
	}
	if e.state == Running && e.breakpoints != nil {
		if cur := e.Context(); cur != nil && e.breakpoints[cur.pc] {
			e.state = Break
		}
	}
	return nil
}

// RunToEnd drives the engine until a terminal state and returns the report.
// A Break state also stops the loop; RunToEnd does not resume it.
func (e *Engine) RunToEnd() TerminationReport {
	for e.state == Running {
		if err := e.Step(); err != nil {
			break
		}
	}
	report := TerminationReport{
		State:       e.state,
		GasConsumed: e.gasConsumed,
		Steps:       e.steps,
		Fault:       e.fault,
	}
	if top, ok := e.Top(); ok {
		report.Result = top
	}
	return report
}

func (e *Engine) readOperand(frame *Frame, ins *instruction) ([]byte, error) {
	if ins.sizePrefix > 0 {
		var n int
		switch ins.sizePrefix {
		case 1:
			v, err := frame.readU8()
			if err != nil {
				return nil, err
			}
			n = int(v)
		case 2:
			v, err := frame.readU16LE()
			if err != nil {
				return nil, err
			}
			n = int(v)
		case 4:
			v, err := frame.readI32LE()
			if err != nil {
				return nil, err
			}
			n = int(uint32(v))
		}
		if n > e.limits.MaxByteLen {
			return nil, faultf(InvalidScript, "data of %d bytes exceeds %d", n, e.limits.MaxByteLen)
		}
		return frame.readBytes(n)
	}
	if ins.size > 0 {
		return frame.readBytes(ins.size)
	}
	return nil, nil
}

// setFault freezes the engine in the Faulted state. Terminal states are
// never left.
func (e *Engine) setFault(err error, ip int) error {
	var f *Fault
	if !errors.As(err, &f) {
		f = faultf(InvalidOperation, "%v", err)
	}
	if f.IP == 0 {
		f.IP = ip
	}
	e.fault = f
	e.state = Faulted
	if e.recorder != nil {
		e.recorder.recordFinal(e.estack)
	}
	log.Debug(log.VMMonitoring, "fault", "kind", f.Kind.String(), "ip", f.IP)
	return f
}

func (e *Engine) returnFromFrame() {
	e.istack = e.istack[:len(e.istack)-1]
	if len(e.istack) == 0 {
		e.state = Halt
		if e.recorder != nil {
			e.recorder.recordFinal(e.estack)
		}
	}
}

// Stack helpers. Every push is depth-checked before any allocation becomes
// observable; every pop distinguishes underflow from type errors.

// Push places an item on the evaluation stack, enforcing the depth cap.
func (e *Engine) Push(item stackitem.Item) error {
	if len(e.estack) >= e.limits.MaxStackDepth {
		return faultf(StackOverflow, "stack depth %d at cap", len(e.estack))
	}
	e.estack = append(e.estack, item)
	return nil
}

// Pop removes and returns the top of the evaluation stack.
func (e *Engine) Pop() (stackitem.Item, error) {
	if len(e.estack) == 0 {
		return nil, newFault(StackUnderflow)
	}
	item := e.estack[len(e.estack)-1]
	e.estack[len(e.estack)-1] = nil
	e.estack = e.estack[:len(e.estack)-1]
	return item, nil
}

func (e *Engine) peek(n int) (stackitem.Item, error) {
	if n < 0 || n >= len(e.estack) {
		return nil, newFault(StackUnderflow)
	}
	return e.estack[len(e.estack)-1-n], nil
}

func (e *Engine) popInt() (*big.Int, error) {
	item, err := e.Pop()
	if err != nil {
		return nil, err
	}
	v, err := stackitem.ToInteger(item)
	if err != nil {
		return nil, faultf(InvalidType, "%v is not numeric", item.Type())
	}
	return v, nil
}

// popCount pops a non-negative count bounded by max, for allocation and
// indexing opcodes.
func (e *Engine) popCount(max int) (int, error) {
	v, err := e.popInt()
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 {
		return 0, faultf(InvalidOperation, "negative count %s", v)
	}
	if !v.IsInt64() || v.Int64() > int64(max) {
		return 0, faultf(InvalidOperation, "count %s exceeds %d", v, max)
	}
	return int(v.Int64()), nil
}

func (e *Engine) popBool() (bool, error) {
	item, err := e.Pop()
	if err != nil {
		return false, err
	}
	return item.Bool(), nil
}

func (e *Engine) popBytes() ([]byte, error) {
	item, err := e.Pop()
	if err != nil {
		return nil, err
	}
	switch it := item.(type) {
	case stackitem.ByteString:
		return it, nil
	case *stackitem.Buffer:
		return it.Bytes(), nil
	}
	return nil, faultf(InvalidType, "%v is not byte-like", item.Type())
}

// pushInt bound-checks a possibly widened integer before pushing.
func (e *Engine) pushInt(v *big.Int) error {
	if !stackitem.CheckIntegerSize(v) {
		return faultf(InvalidOperation, "integer result exceeds %d bytes", stackitem.MaxIntSize)
	}
	return e.Push(stackitem.NewBigInteger(v))
}

func (e *Engine) pushBool(v bool) error {
	return e.Push(stackitem.Bool(v))
}
