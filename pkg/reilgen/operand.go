// Operand conversion: BIL leaf expressions become typed REIL operands.
// Reading the EFLAGS pseudo-register triggers a one-shot expansion of
// the architecture's flag bits.

package reilgen

import (
	"fmt"
	"strings"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reil"
)

// sizeOfWidth converts a BIL width to a REIL operand size.
func sizeOfWidth(w bil.Width) (reil.Size, error) {
	switch w {
	case bil.W1:
		return reil.U1, nil
	case bil.W8:
		return reil.U8, nil
	case bil.W16:
		return reil.U16, nil
	case bil.W32:
		return reil.U32, nil
	case bil.W64:
		return reil.U64, nil
	}
	return 0, fmt.Errorf("%w: width %d", ErrInvalidOperandSize, int(w))
}

// widthOfSize converts a REIL operand size back to a BIL width.
func widthOfSize(s reil.Size) (bil.Width, error) {
	switch s {
	case reil.U1:
		return bil.W1, nil
	case reil.U8:
		return bil.W8, nil
	case reil.U16:
		return bil.W16, nil
	case reil.U32:
		return bil.W32, nil
	case reil.U64:
		return bil.W64, nil
	}
	return 0, fmt.Errorf("%w: size %d", ErrInvalidOperandSize, int(s))
}

// eflagsReg is the pseudo-register whose reads expand to flag bits.
const eflagsReg = "R_EFLAGS"

// convertOperand turns a leaf expression into a REIL operand. A nil
// expression yields the absent operand.
func (t *Translator) convertOperand(e bil.Exp) (reil.Arg, error) {
	if e == nil {
		return reil.NoneArg(), nil
	}

	switch exp := e.(type) {
	case bil.Constant:
		size, err := sizeOfWidth(exp.Typ)
		if err != nil {
			return reil.Arg{}, err
		}
		return reil.ConstArg(size, exp.Val), nil

	case bil.Relative:
		size, err := sizeOfWidth(exp.Typ)
		if err != nil {
			return reil.Arg{}, err
		}
		return reil.ConstArg(size, exp.Val), nil

	case bil.Temp:
		size, err := sizeOfWidth(exp.Typ)
		if err != nil {
			return reil.Arg{}, err
		}

		name := exp.Name
		if !strings.HasPrefix(name, "R_") && !strings.HasPrefix(name, "V_") {
			// lifter-private temporary, rename into our namespace
			name = t.tempName(name)
		}

		var arg reil.Arg
		if strings.HasPrefix(name, "R_") {
			arg = reil.RegArg(size, name)
		} else {
			arg = reil.TempArg(size, name)
		}

		if arg.Name == eflagsReg {
			if err := t.expandFlags(); err != nil {
				return reil.Arg{}, err
			}
		}
		return arg, nil
	}

	return reil.Arg{}, fmt.Errorf("%w: %s is not a leaf operand", ErrInvalidExpression, e)
}

// expandFlags materializes EFLAGS from its constituent flag bits by
// running the architecture helper's statements through the statement
// lowerer. The guard keeps EFLAGS reads during that expansion from
// recursing.
func (t *Translator) expandFlags() error {
	if t.flagex == nil || t.expandingFlags {
		return nil
	}

	stmts := t.flagex.SetFlagBits(
		bil.Temp{Typ: bil.W1, Name: "R_CF"},
		bil.Temp{Typ: bil.W1, Name: "R_PF"},
		bil.Temp{Typ: bil.W1, Name: "R_AF"},
		bil.Temp{Typ: bil.W1, Name: "R_ZF"},
		bil.Temp{Typ: bil.W1, Name: "R_SF"},
		bil.Temp{Typ: bil.W1, Name: "R_OF"},
	)

	t.expandingFlags = true
	defer func() { t.expandingFlags = false }()

	for _, s := range stmts {
		if err := t.processStmt(s, 0); err != nil {
			return err
		}
	}
	return nil
}
