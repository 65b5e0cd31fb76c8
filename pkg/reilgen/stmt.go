// Statement lowering: dispatch on the BIL statement kind and drive the
// expression lowerer. Jump targets are resolved here; labels emit
// nothing and are only consulted during resolution.

package reilgen

import (
	"fmt"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reil"
)

// specialFlags maps a Special annotation to instruction flags.
func specialFlags(tag string) reil.Flags {
	switch tag {
	case "call":
		return reil.OptCall
	case "ret":
		return reil.OptRet
	}
	return 0
}

// processStmt lowers one statement with the flags computed by the block
// driver for its position.
func (t *Translator) processStmt(s bil.Stmt, flags reil.Flags) error {
	switch st := s.(type) {
	case bil.Label:
		if t.stmtTrace != nil {
			addr, inum := t.raw.Addr, t.instCount
			if flags&reil.OptAsmEnd != 0 {
				// tail label, belongs to the next instruction
				addr, inum = t.raw.Addr+uint64(t.raw.Size), 0
			}
			fmt.Fprintf(t.stmtTrace, "// BAP label %s at 0x%x.%.2d\n", st.Name, addr, inum)
		}
		return nil

	case bil.Move:
		_, err := t.lowerInst(reil.Str, flags, st.Lhs, st.Rhs)
		return err

	case bil.Jmp:
		if flags&reil.OptCall == 0 {
			flags |= reil.OptBBEnd
		}

		target := st.Target
		if name, ok := target.(bil.Name); ok {
			addr, err := t.resolveLabel(name.Label)
			if err != nil {
				return err
			}
			target = bil.Constant{Typ: bil.W32, Val: addr}
		}

		_, err := t.lowerInst(reil.Jcc, flags, target, bil.Constant{Typ: bil.W1, Val: 1})
		return err

	case bil.CJmp:
		target := st.TTarget
		if name, ok := target.(bil.Name); ok {
			addr, err := t.resolveLabel(name.Label)
			if err != nil {
				return err
			}
			target = bil.Constant{Typ: bil.W32, Val: addr}
		}

		cond := st.Cond
		if _, ok := cond.(bil.Temp); !ok {
			// evaluate the condition into a 1-bit scratch value
			spilled, err := t.lowerInst(reil.Str, 0, t.scratchTemp(bil.W1), cond)
			if err != nil {
				return err
			}
			cond = spilled
		}

		if err := t.checkCJmpFalseTarget(st.FTarget); err != nil {
			return err
		}

		_, err := t.lowerInst(reil.Jcc, flags|reil.OptBBEnd, target, cond)
		return err

	case bil.Call, bil.Return:
		return fmt.Errorf("%w: %s", ErrUnimplementedStatement, s)

	case bil.Special, bil.Comment, bil.ExpStmt, bil.VarDecl:
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnimplementedStatement, s)
}

// checkCJmpFalseTarget verifies the lifter's convention that the false
// target of a conditional jump is the label of the next statement.
func (t *Translator) checkCJmpFalseTarget(target bil.Exp) error {
	name, ok := target.(bil.Name)
	if !ok {
		return fmt.Errorf("%w: false target is %s", ErrUnexpectedFalseTarget, target)
	}

	next := t.curStmt + 1
	if t.block == nil || next >= len(t.block.IR) {
		return fmt.Errorf("%w: no statement after cjmp", ErrUnexpectedFalseTarget)
	}

	label, ok := t.block.IR[next].(bil.Label)
	if !ok {
		return fmt.Errorf("%w: next statement is %s", ErrUnexpectedFalseTarget, t.block.IR[next])
	}
	if label.Name != name.Label {
		return fmt.Errorf("%w: %q does not match label %q", ErrUnexpectedFalseTarget, name.Label, label.Name)
	}
	return nil
}
