// Expression lowering. lowerInst is the three-address factory: it
// takes one STR or JCC request over a possibly nested expression,
// flattens the operands through lowerExp, maps the operator onto the
// REIL opcode set (or hands off to a synthesis routine), and emits the
// result. Every subexpression ends up in a constant or a named value.

package reilgen

import (
	"fmt"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reil"
)

// binOpMap is positional over bil.BinOpKind. reil.None marks operators
// that are synthesized or unsupported.
var binOpMap = [...]reil.Op{
	bil.Plus:     reil.Add,
	bil.Minus:    reil.Sub,
	bil.Times:    reil.Mul,
	bil.Divide:   reil.Div,
	bil.Mod:      reil.Mod,
	bil.LShift:   reil.Shl,
	bil.RShift:   reil.Shr,
	bil.ARShift:  reil.None,
	bil.LRotate:  reil.None,
	bil.RRotate:  reil.None,
	bil.LogicAnd: reil.And,
	bil.LogicOr:  reil.Or,
	bil.BitAnd:   reil.And,
	bil.BitOr:    reil.Or,
	bil.Xor:      reil.Xor,
	bil.Eq:       reil.Eq,
	bil.Neq:      reil.None,
	bil.Gt:       reil.None,
	bil.Lt:       reil.Lt,
	bil.Ge:       reil.None,
	bil.Le:       reil.None,
	bil.SDivide:  reil.Sdiv,
	bil.SMod:     reil.Smod,
}

var unOpMap = [...]reil.Op{
	bil.Neg: reil.Neg,
	bil.Not: reil.Not,
}

// lowerExp reduces an expression to a leaf. Returns nil when the
// expression already is one (Temp or Constant); otherwise evaluates an
// operation, cast or memory load into a fresh temporary and returns that
// temporary. Other forms are rejected.
func (t *Translator) lowerExp(exp bil.Exp) (bil.Exp, error) {
	switch e := exp.(type) {
	case bil.Temp, bil.Constant:
		return nil, nil
	case bil.BinOp, bil.UnOp, bil.Cast:
		return t.lowerInst(reil.Str, 0, nil, exp)
	case bil.Mem:
		// a load lands in a fresh temporary of the load width
		dst := bil.Temp{Typ: e.Typ, Name: slotName(t.temps.alloc())}
		return t.lowerInst(reil.Str, 0, dst, exp)
	}
	return nil, fmt.Errorf("%w: cannot flatten %s", ErrInvalidExpression, exp)
}

// lowerInst lowers one STR or JCC request. c is the requested
// destination (nil to allocate a temporary, a Mem to store); exp is the
// value expression. Returns the leaf that holds the result.
func (t *Translator) lowerInst(op reil.Op, flags reil.Flags, c bil.Exp, exp bil.Exp) (bil.Exp, error) {
	if exp == nil {
		return nil, fmt.Errorf("%w: missing value expression", ErrInvalidExpression)
	}
	if op != reil.Str && op != reil.Jcc {
		return nil, fmt.Errorf("%w: %s cannot drive expression lowering", ErrInvalidExpression, op)
	}

	inst := reil.Inst{Op: op, Flags: flags}
	var a, b bil.Exp

	if mem, ok := c.(bil.Mem); ok {
		// destination is memory, the request becomes a store
		if inst.Op != reil.Str {
			return nil, fmt.Errorf("%w: %s with memory destination", ErrInvalidExpression, inst.Op)
		}
		inst.Op = reil.Stm

		addr, err := t.lowerExp(mem.Addr)
		if err != nil {
			return nil, err
		}
		if addr != nil {
			c = addr
		} else {
			c = mem.Addr
		}

		val, err := t.lowerExp(exp)
		if err != nil {
			return nil, err
		}
		if val != nil {
			exp = val
		}
	}

	if inst.Op == reil.Str && c != nil {
		if _, ok := c.(bil.Temp); !ok {
			return nil, fmt.Errorf("%w: STR destination must be a value", ErrInvalidExpression)
		}
	}
	if inst.Op == reil.Stm {
		switch c.(type) {
		case bil.Temp, bil.Constant:
		default:
			return nil, fmt.Errorf("%w: STM address must be a leaf", ErrInvalidExpression)
		}
	}

	binaryLogic := false
	var synth bil.BinOpKind = -1
	var castExp *bil.Cast

	switch e := exp.(type) {
	case bil.BinOp:
		if inst.Op != reil.Str {
			return nil, fmt.Errorf("%w: %s over a binary operation", ErrInvalidExpression, inst.Op)
		}
		inst.Op = binOpMap[e.Op]

		switch e.Op {
		case bil.LogicAnd, bil.LogicOr:
			binaryLogic = true
		case bil.ARShift, bil.Neq, bil.Le:
			synth = e.Op
		default:
			if inst.Op == reil.None {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperator, e.Op)
			}
		}
		a, b = e.Lhs, e.Rhs

	case bil.UnOp:
		if inst.Op != reil.Str {
			return nil, fmt.Errorf("%w: %s over a unary operation", ErrInvalidExpression, inst.Op)
		}
		inst.Op = unOpMap[e.Op]
		a = e.E

	case bil.Cast:
		if inst.Op != reil.Str {
			return nil, fmt.Errorf("%w: %s over a cast", ErrInvalidExpression, inst.Op)
		}
		castExp = &e
		a = e.E

	case bil.Mem:
		if inst.Op != reil.Str {
			return nil, fmt.Errorf("%w: %s over a memory load", ErrInvalidExpression, inst.Op)
		}
		inst.Op = reil.Ldm

		addr, err := t.lowerExp(e.Addr)
		if err != nil {
			return nil, err
		}
		if addr != nil {
			a = addr
		} else {
			a = e.Addr
		}

	case bil.Temp, bil.Constant:
		a = exp

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidExpression, exp)
	}

	// flatten nested operands
	if a != nil {
		leaf, err := t.lowerExp(a)
		if err != nil {
			return nil, err
		}
		if leaf != nil {
			a = leaf
		}
	}
	if b != nil {
		leaf, err := t.lowerExp(b)
		if err != nil {
			return nil, err
		}
		if leaf != nil {
			b = leaf
		}
	}

	if a == nil {
		return nil, fmt.Errorf("%w: missing operand", ErrInvalidExpression)
	}

	if binaryLogic {
		if w, ok := leafWidth(a); !ok || w != bil.W1 {
			return nil, fmt.Errorf("%w: logic operand is not 1 bit wide", ErrInvalidExpression)
		}
		if w, ok := leafWidth(b); b != nil && (!ok || w != bil.W1) {
			return nil, fmt.Errorf("%w: logic operand is not 1 bit wide", ErrInvalidExpression)
		}
	}

	if c == nil {
		// allocate the result temporary; its width comes from the cast
		// target if present, else from the first operand
		var typ bil.Width
		if castExp != nil {
			typ = castExp.Typ
		} else if w, ok := leafWidth(a); ok {
			typ = w
		} else {
			return nil, fmt.Errorf("%w: no width for result", ErrInvalidExpression)
		}
		c = bil.Temp{Typ: typ, Name: slotName(t.temps.alloc())}
	}

	var err error
	if inst.A, err = t.convertOperand(a); err != nil {
		return nil, err
	}
	if inst.B, err = t.convertOperand(b); err != nil {
		return nil, err
	}
	if inst.C, err = t.convertOperand(c); err != nil {
		return nil, err
	}

	if castExp != nil {
		if inst, err = t.lowerCast(castExp.Kind, inst); err != nil {
			return nil, err
		}
	}

	switch synth {
	case bil.ARShift:
		if inst, err = t.lowerARShift(inst); err != nil {
			return nil, err
		}
	case bil.Neq:
		if inst, err = t.lowerNeq(inst); err != nil {
			return nil, err
		}
	case bil.Le:
		if inst, err = t.lowerLe(inst); err != nil {
			return nil, err
		}
	}

	t.emit(inst)
	return c, nil
}

// leafWidth reports the declared width of a leaf expression.
func leafWidth(e bil.Exp) (bil.Width, bool) {
	switch exp := e.(type) {
	case bil.Temp:
		return exp.Typ, true
	case bil.Constant:
		return exp.Typ, true
	case bil.Relative:
		return exp.Typ, true
	}
	return 0, false
}
