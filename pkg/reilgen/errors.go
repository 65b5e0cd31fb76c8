// Translation error kinds. All are fatal to the current machine
// instruction: lowering stops, already-emitted instructions stand, and
// the next Translate call starts from a clean state.

package reilgen

import "errors"

var (
	// ErrInvalidExpression indicates an expression form that cannot
	// appear at this point of the lowering.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrInvalidOperandSize indicates a width outside {1,8,16,32,64}.
	ErrInvalidOperandSize = errors.New("invalid operand size")

	// ErrUnsupportedOperator indicates an operator with no REIL
	// lowering (rotates, unsigned GT/GE).
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrInvalidSignedCast indicates a signed cast whose destination
	// width is not strictly greater than its source width.
	ErrInvalidSignedCast = errors.New("invalid signed cast")

	// ErrUnresolvedLabel indicates a symbolic jump target that is
	// neither a pc_0x address nor a label of the current block.
	ErrUnresolvedLabel = errors.New("unresolved label")

	// ErrUnexpectedFalseTarget indicates a conditional jump whose
	// false target is not the label of the following statement.
	ErrUnexpectedFalseTarget = errors.New("unexpected cjmp false target")

	// ErrMidInstructionLabel indicates a label between statements of a
	// machine instruction rather than at the block tail.
	ErrMidInstructionLabel = errors.New("label in the middle of an instruction")

	// ErrUnimplementedStatement indicates a statement kind belonging
	// to a higher-level IR (Call, Return).
	ErrUnimplementedStatement = errors.New("unimplemented statement")

	// ErrLifterFailure indicates the lifter produced no block or an
	// invalid instruction size.
	ErrLifterFailure = errors.New("lifter failure")
)
