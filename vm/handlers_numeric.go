package vm

import (
	"math/big"
)

// Bitwise family (0x90-0x98). INVERT/AND/OR/XOR are integer operations;
// EQUAL/NOTEQUAL use structural equality across all variants.
func (e *Engine) opBitwise(op Opcode) error {
	switch op {
	case INVERT:
		a, err := e.popInt()
		if err != nil {
			return err
		}
		return e.pushInt(new(big.Int).Not(a))

	case AND, OR, XOR:
		b, err := e.popInt()
		if err != nil {
			return err
		}
		a, err := e.popInt()
		if err != nil {
			return err
		}
		r := new(big.Int)
		switch op {
		case AND:
			r.And(a, b)
		case OR:
			r.Or(a, b)
		case XOR:
			r.Xor(a, b)
		}
		return e.pushInt(r)

	case EQUAL, NOTEQUAL:
		b, err := e.Pop()
		if err != nil {
			return err
		}
		a, err := e.Pop()
		if err != nil {
			return err
		}
		eq := a.Equals(b)
		if op == NOTEQUAL {
			eq = !eq
		}
		return e.pushBool(eq)
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}

// Arithmetic family (0x99-0xBB). Division and modulo truncate toward zero
// with the modulo sign following the dividend (Go's Quo/Rem semantics).
// Every result that could widen past MaxIntSize is bound-checked by pushInt.
func (e *Engine) opArithmetic(op Opcode) error {
	switch op {
	case SIGN:
		a, err := e.popInt()
		if err != nil {
			return err
		}
		return e.pushInt(big.NewInt(int64(a.Sign())))

	case ABS:
		a, err := e.popInt()
		if err != nil {
			return err
		}
		return e.pushInt(new(big.Int).Abs(a))

	case NEGATE:
		a, err := e.popInt()
		if err != nil {
			return err
		}
		return e.pushInt(new(big.Int).Neg(a))

	case INC:
		a, err := e.popInt()
		if err != nil {
			return err
		}
		return e.pushInt(new(big.Int).Add(a, big.NewInt(1)))

	case DEC:
		a, err := e.popInt()
		if err != nil {
			return err
		}
		return e.pushInt(new(big.Int).Sub(a, big.NewInt(1)))

	case ADD, SUB, MUL, DIV, MOD:
		b, err := e.popInt()
		if err != nil {
			return err
		}
		a, err := e.popInt()
		if err != nil {
			return err
		}
		r := new(big.Int)
		switch op {
		case ADD:
			r.Add(a, b)
		case SUB:
			r.Sub(a, b)
		case MUL:
			r.Mul(a, b)
		case DIV:
			if b.Sign() == 0 {
				return newFault(DivisionByZero)
			}
			r.Quo(a, b)
		case MOD:
			if b.Sign() == 0 {
				return newFault(DivisionByZero)
			}
			r.Rem(a, b)
		}
		return e.pushInt(r)

	case POW:
		exp, err := e.popInt()
		if err != nil {
			return err
		}
		base, err := e.popInt()
		if err != nil {
			return err
		}
		if exp.Sign() < 0 {
			return faultf(InvalidOperation, "POW with negative exponent %s", exp)
		}
		if !exp.IsInt64() || exp.Int64() > int64(e.limits.MaxShift)*8 {
			return faultf(InvalidOperation, "POW exponent %s too large", exp)
		}
		r := new(big.Int).Exp(base, exp, nil)
		return e.pushInt(r)

	case SQRT:
		a, err := e.popInt()
		if err != nil {
			return err
		}
		if a.Sign() < 0 {
			return faultf(InvalidOperation, "SQRT of negative %s", a)
		}
		return e.pushInt(new(big.Int).Sqrt(a))

	case MODMUL:
		m, err := e.popInt()
		if err != nil {
			return err
		}
		b, err := e.popInt()
		if err != nil {
			return err
		}
		a, err := e.popInt()
		if err != nil {
			return err
		}
		if m.Sign() == 0 {
			return newFault(DivisionByZero)
		}
		r := new(big.Int).Mul(a, b)
		return e.pushInt(r.Rem(r, m))

	case MODPOW:
		m, err := e.popInt()
		if err != nil {
			return err
		}
		exp, err := e.popInt()
		if err != nil {
			return err
		}
		base, err := e.popInt()
		if err != nil {
			return err
		}
		if m.Sign() == 0 {
			return newFault(DivisionByZero)
		}
		if exp.Cmp(big.NewInt(-1)) == 0 {
			r := new(big.Int).ModInverse(base, new(big.Int).Abs(m))
			if r == nil {
				return faultf(InvalidOperation, "%s has no inverse modulo %s", base, m)
			}
			return e.pushInt(r)
		}
		if exp.Sign() < 0 {
			return faultf(InvalidOperation, "MODPOW with negative exponent %s", exp)
		}
		return e.pushInt(new(big.Int).Exp(base, exp, m))

	case SHL, SHR:
		count, err := e.popInt()
		if err != nil {
			return err
		}
		a, err := e.popInt()
		if err != nil {
			return err
		}
		if count.Sign() < 0 {
			return faultf(InvalidOperation, "shift by negative count %s", count)
		}
		if !count.IsInt64() || count.Int64() > int64(e.limits.MaxShift) {
			return faultf(InvalidOperation, "shift count %s exceeds %d", count, e.limits.MaxShift)
		}
		n := uint(count.Int64())
		if op == SHL {
			return e.pushInt(new(big.Int).Lsh(a, n))
		}
		return e.pushInt(new(big.Int).Rsh(a, n))

	case NOT:
		v, err := e.popBool()
		if err != nil {
			return err
		}
		return e.pushBool(!v)

	case BOOLAND, BOOLOR:
		b, err := e.popBool()
		if err != nil {
			return err
		}
		a, err := e.popBool()
		if err != nil {
			return err
		}
		if op == BOOLAND {
			return e.pushBool(a && b)
		}
		return e.pushBool(a || b)

	case NZ:
		a, err := e.popInt()
		if err != nil {
			return err
		}
		return e.pushBool(a.Sign() != 0)

	case NUMEQUAL, NUMNOTEQUAL, LT, LE, GT, GE:
		b, err := e.popInt()
		if err != nil {
			return err
		}
		a, err := e.popInt()
		if err != nil {
			return err
		}
		c := a.Cmp(b)
		switch op {
		case NUMEQUAL:
			return e.pushBool(c == 0)
		case NUMNOTEQUAL:
			return e.pushBool(c != 0)
		case LT:
			return e.pushBool(c < 0)
		case LE:
			return e.pushBool(c <= 0)
		case GT:
			return e.pushBool(c > 0)
		default:
			return e.pushBool(c >= 0)
		}

	case MIN, MAX:
		b, err := e.popInt()
		if err != nil {
			return err
		}
		a, err := e.popInt()
		if err != nil {
			return err
		}
		r := a
		if (op == MIN) == (a.Cmp(b) > 0) {
			r = b
		}
		return e.pushInt(new(big.Int).Set(r))

	case WITHIN:
		upper, err := e.popInt()
		if err != nil {
			return err
		}
		lower, err := e.popInt()
		if err != nil {
			return err
		}
		x, err := e.popInt()
		if err != nil {
			return err
		}
		return e.pushBool(x.Cmp(lower) >= 0 && x.Cmp(upper) < 0)
	}
	return faultf(InvalidScript, "unknown opcode %#x", byte(op))
}
