// Operator and cast synthesis. ARSHIFT, NEQ, LE and the signed/high
// casts have no REIL opcode; each is expressed as a short sequence of
// REIL primitives with bit-exact semantics. The helper sequences are
// emitted here and the rewritten final instruction is returned for the
// caller to emit, so the caller's destination and flags always land on
// the last instruction of the sequence.

package reilgen

import (
	"fmt"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reil"
)

// scratchArg allocates a fresh scratch operand of the given size.
func (t *Translator) scratchArg(size reil.Size) (reil.Arg, error) {
	w, err := widthOfSize(size)
	if err != nil {
		return reil.Arg{}, err
	}
	return t.convertOperand(t.scratchTemp(w))
}

// lowerARShift expands an arithmetic right shift:
// build an all-ones-or-zero word from the sign bit, shift it into the
// vacated high bits, and OR with the logical right shift of the source.
func (t *Translator) lowerARShift(inst reil.Inst) (reil.Inst, error) {
	sizeDst := inst.C.Size
	sizeSrc := inst.A.Size

	// sign bit of the source
	t0, err := t.scratchArg(sizeSrc)
	if err != nil {
		return reil.Inst{}, err
	}
	t.emit(reil.Inst{Op: reil.And, A: inst.A, B: reil.ConstArg(sizeSrc, sizeSrc.SignMask()), C: t0})

	// 1 iff the sign bit is clear
	t1, err := t.scratchArg(reil.U1)
	if err != nil {
		return reil.Inst{}, err
	}
	t.emit(reil.Inst{Op: reil.Eq, A: t0, B: reil.ConstArg(t0.Size, 0), C: t1})

	// widen to the destination size
	t2, err := t.scratchArg(sizeDst)
	if err != nil {
		return reil.Inst{}, err
	}
	t.emit(reil.Inst{Op: reil.Or, A: t1, B: reil.ConstArg(sizeDst, 0), C: t2})

	// 0 for positive values, all ones for negative
	t3, err := t.scratchArg(sizeDst)
	if err != nil {
		return reil.Inst{}, err
	}
	t.emit(reil.Inst{Op: reil.Sub, A: t2, B: reil.ConstArg(sizeDst, 1), C: t3})

	// left shift that positions the fill mask
	t4, err := t.scratchArg(sizeDst)
	if err != nil {
		return reil.Inst{}, err
	}
	t.emit(reil.Inst{Op: reil.Sub, A: reil.ConstArg(sizeDst, sizeDst.Bits()), B: inst.B, C: t4})

	// high-bits fill mask
	t5, err := t.scratchArg(sizeDst)
	if err != nil {
		return reil.Inst{}, err
	}
	t.emit(reil.Inst{Op: reil.Shl, A: t3, B: t4, C: t5})

	// low bits of the result
	t6, err := t.scratchArg(sizeDst)
	if err != nil {
		return reil.Inst{}, err
	}
	t.emit(reil.Inst{Op: reil.Shr, A: inst.A, B: inst.B, C: t6})

	inst.Op = reil.Or
	inst.A = t5
	inst.B = t6
	return inst, nil
}

// lowerNeq expands not-equal as the complement of EQ.
func (t *Translator) lowerNeq(inst reil.Inst) (reil.Inst, error) {
	tmp, err := t.scratchArg(inst.C.Size)
	if err != nil {
		return reil.Inst{}, err
	}
	t.emit(reil.Inst{Op: reil.Eq, A: inst.A, B: inst.B, C: tmp})

	inst.Op = reil.Not
	inst.A = tmp
	inst.B = reil.NoneArg()
	return inst, nil
}

// lowerLe expands less-or-equal as EQ ORed with LT.
func (t *Translator) lowerLe(inst reil.Inst) (reil.Inst, error) {
	t0, err := t.scratchArg(inst.C.Size)
	if err != nil {
		return reil.Inst{}, err
	}
	t.emit(reil.Inst{Op: reil.Eq, A: inst.A, B: inst.B, C: t0})

	t1, err := t.scratchArg(inst.C.Size)
	if err != nil {
		return reil.Inst{}, err
	}
	t.emit(reil.Inst{Op: reil.Lt, A: inst.A, B: inst.B, C: t1})

	inst.Op = reil.Or
	inst.A = t0
	inst.B = t1
	return inst, nil
}

// lowerCast rewrites a STR over a cast expression into the REIL
// sequence for the cast kind.
func (t *Translator) lowerCast(kind bil.CastKind, inst reil.Inst) (reil.Inst, error) {
	switch kind {
	case bil.CastLow:
		// masking to the destination width keeps the low half
		inst.Op = reil.And
		inst.B = reil.ConstArg(inst.C.Size, inst.C.Size.Mask())
		return inst, nil

	case bil.CastHigh:
		tmp, err := t.scratchArg(inst.A.Size)
		if err != nil {
			return reil.Inst{}, err
		}
		t.emit(reil.Inst{Op: reil.Shr, A: inst.A, B: reil.ConstArg(inst.A.Size, inst.A.Size.HighShift()), C: tmp})

		inst.Op = reil.And
		inst.A = tmp
		inst.B = reil.ConstArg(inst.C.Size, inst.C.Size.Mask())
		return inst, nil

	case bil.CastUnsigned:
		// widening through the 3-address form zero-extends
		inst.Op = reil.Or
		inst.B = reil.ConstArg(inst.C.Size, 0)
		return inst, nil

	case bil.CastSigned:
		sizeSrc := inst.A.Size
		sizeDst := inst.C.Size
		if sizeDst <= sizeSrc {
			return reil.Inst{}, fmt.Errorf("%w: %s to %s", ErrInvalidSignedCast, sizeSrc, sizeDst)
		}

		// sign bit of the source
		t0, err := t.scratchArg(sizeSrc)
		if err != nil {
			return reil.Inst{}, err
		}
		t.emit(reil.Inst{Op: reil.And, A: inst.A, B: reil.ConstArg(sizeSrc, sizeSrc.SignMask()), C: t0})

		// 1 iff the sign bit is clear
		t1, err := t.scratchArg(reil.U1)
		if err != nil {
			return reil.Inst{}, err
		}
		t.emit(reil.Inst{Op: reil.Eq, A: t0, B: reil.ConstArg(t0.Size, 0), C: t1})

		// widen to the destination size
		t2, err := t.scratchArg(sizeDst)
		if err != nil {
			return reil.Inst{}, err
		}
		t.emit(reil.Inst{Op: reil.Or, A: t1, B: reil.ConstArg(sizeDst, 0), C: t2})

		// 0 for positive values, all ones for negative
		t3, err := t.scratchArg(sizeDst)
		if err != nil {
			return reil.Inst{}, err
		}
		t.emit(reil.Inst{Op: reil.Sub, A: t2, B: reil.ConstArg(sizeDst, 1), C: t3})

		// keep only the extension bits
		t4, err := t.scratchArg(sizeDst)
		if err != nil {
			return reil.Inst{}, err
		}
		ext := sizeDst.Mask() &^ sizeSrc.Mask()
		t.emit(reil.Inst{Op: reil.And, A: t3, B: reil.ConstArg(sizeDst, ext), C: t4})

		// join the extension with the source value
		inst.Op = reil.Or
		inst.B = t4
		return inst, nil
	}

	return reil.Inst{}, fmt.Errorf("%w: unknown cast kind %d", ErrInvalidExpression, int(kind))
}
