// Package x86 provides the x86-specific collaborators the translator
// needs: materialization of the EFLAGS pseudo-register from its flag
// bits, and register operand tables for instructions the lifter cannot
// translate.
package x86

import "github.com/openreil/reilgen/pkg/bil"

// EFLAGS bit positions of the status flags.
const (
	cfBit = 0
	pfBit = 2
	afBit = 4
	zfBit = 6
	sfBit = 7
	ofBit = 11
)

// Flags implements reilgen.FlagExpander for x86.
type Flags struct{}

// SetFlagBits returns the statements that assemble R_EFLAGS from the
// six status flag registers: each flag is zero-extended to 32 bits,
// shifted to its position and ORed in.
func (Flags) SetFlagBits(cf, pf, af, zf, sf, of bil.Temp) []bil.Stmt {
	eflags := bil.Temp{Typ: bil.W32, Name: "R_EFLAGS"}

	bits := []struct {
		flag bil.Temp
		pos  uint64
	}{
		{cf, cfBit},
		{pf, pfBit},
		{af, afBit},
		{zf, zfBit},
		{sf, sfBit},
		{of, ofBit},
	}

	stmts := make([]bil.Stmt, 0, len(bits))
	for i, b := range bits {
		wide := bil.Exp(bil.Cast{Kind: bil.CastUnsigned, Typ: bil.W32, E: b.flag})
		if b.pos != 0 {
			wide = bil.BinOp{
				Op:  bil.LShift,
				Lhs: wide,
				Rhs: bil.Constant{Typ: bil.W32, Val: b.pos},
			}
		}
		if i == 0 {
			stmts = append(stmts, bil.Move{Lhs: eflags, Rhs: wide})
			continue
		}
		stmts = append(stmts, bil.Move{
			Lhs: eflags,
			Rhs: bil.BinOp{Op: bil.BitOr, Lhs: eflags, Rhs: wide},
		})
	}
	return stmts
}
