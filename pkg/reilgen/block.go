// The per-instruction block driver: resets translator state, pre-scans
// for untranslatable instructions, walks statements in order computing
// each one's flags, resolves labels, and guarantees at least one
// emitted instruction per machine instruction.

package reilgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reil"
)

// UnknownTag prefixes the Special annotation the lifter attaches to
// instructions it cannot translate.
const UnknownTag = "Unknown: "

// reset clears all per-machine-instruction state.
func (t *Translator) reset(block *bil.Block) {
	t.temps.reset()
	t.block = block
	t.curStmt = -1
	t.instCount = 0
	t.expandingFlags = false
}

// emit numbers the instruction, attaches the raw metadata and hands it
// to the sink. Disassembly text rides only on the first instruction of
// the machine instruction.
func (t *Translator) emit(inst reil.Inst) {
	inst.INum = t.instCount
	t.instCount++

	inst.Raw.Addr = t.raw.Addr
	inst.Raw.Size = t.raw.Size
	if inst.INum == 0 {
		inst.Raw.Mnemonic = t.raw.Mnemonic
		inst.Raw.Operands = t.raw.Operands
		inst.Raw.Data = t.raw.Data
	}

	if t.handler != nil {
		t.handler(inst)
	}
}

// tailFlags returns OptAsmEnd when no later statement of the block can
// emit an instruction, i.e. statement i is in the block's tail.
func tailFlags(stmts []bil.Stmt, i int) reil.Flags {
	for n := i + 1; n < len(stmts); n++ {
		switch stmts[n].(type) {
		case bil.Move, bil.Jmp, bil.CJmp:
			return 0
		}
	}
	return reil.OptAsmEnd
}

// Lower translates one lifted block to REIL, delivering each emitted
// instruction to handler in order. raw carries the machine-instruction
// metadata stamped onto every emitted instruction.
func (t *Translator) Lower(raw reil.Raw, block *bil.Block, handler Handler) error {
	t.reset(block)
	t.raw = raw
	t.handler = handler
	defer func() { t.handler = nil }()

	if isUnknownInsn(block) {
		fmt.Fprintf(t.diag, "WARNING: 0x%x was not translated\n", raw.Addr)
		return t.lowerUnknownInsn()
	}

	for i, s := range block.IR {
		t.curStmt = i

		flags := tailFlags(block.IR, i)
		if i+1 < len(block.IR) {
			if sp, ok := block.IR[i+1].(bil.Special); ok {
				flags |= specialFlags(sp.Tag)
			}
		}

		if t.stmtTrace != nil {
			fmt.Fprintf(t.stmtTrace, "%s\n", s)
		}

		if err := t.processStmt(s, flags); err != nil {
			return err
		}
	}

	if t.instCount == 0 {
		// every machine instruction yields at least one REIL instruction
		t.emit(reil.Inst{Op: reil.None, Flags: reil.OptAsmEnd})
	}
	return nil
}

// resolveLabel maps a symbolic jump target to an address. pc_0x labels
// carry their address; other labels must name the block's tail, which
// refers to the next machine instruction.
func (t *Translator) resolveLabel(name string) (uint64, error) {
	if rest, ok := strings.CutPrefix(name, "pc_0x"); ok {
		addr, err := strconv.ParseUint(rest, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad pc label %q", ErrUnresolvedLabel, name)
		}
		return addr, nil
	}

	if t.block == nil {
		return 0, fmt.Errorf("%w: no current block", ErrUnresolvedLabel)
	}

	for i, s := range t.block.IR {
		label, ok := s.(bil.Label)
		if !ok || label.Name != name {
			continue
		}

		if tailFlags(t.block.IR, i)&reil.OptAsmEnd == 0 {
			return 0, fmt.Errorf("%w: %q", ErrMidInstructionLabel, name)
		}

		// tail label, belongs to the next machine instruction
		addr := t.raw.Addr + uint64(t.raw.Size)
		if t.stmtTrace != nil {
			fmt.Fprintf(t.stmtTrace, "// %s -> 0x%x\n", name, addr)
		}
		return addr, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnresolvedLabel, name)
}

// isUnknownInsn reports whether the lifter marked the block as an
// instruction it could not translate.
func isUnknownInsn(block *bil.Block) bool {
	for _, s := range block.IR {
		if sp, ok := s.(bil.Special); ok && strings.HasPrefix(sp.Tag, UnknownTag) {
			return true
		}
	}
	return false
}

// lowerUnknownInsn emits UNK instructions recording which registers the
// untranslated instruction reads and writes, one instruction per
// register, source registers first.
func (t *Translator) lowerUnknownInsn() error {
	var srcs, dsts []bil.Temp
	if t.disasm != nil {
		srcs = t.disasm.ArgSrc(t.arch, t.raw.Data)
		dsts = t.disasm.ArgDst(t.arch, t.raw.Data)
	}

	if t.stmtTrace != nil {
		if len(srcs) > 0 {
			fmt.Fprintf(t.stmtTrace, "// src registers:")
			for _, r := range srcs {
				fmt.Fprintf(t.stmtTrace, " %s", r.Name)
			}
			fmt.Fprintln(t.stmtTrace)
		}
		if len(dsts) > 0 {
			fmt.Fprintf(t.stmtTrace, "// dst registers:")
			for _, r := range dsts {
				fmt.Fprintf(t.stmtTrace, " %s", r.Name)
			}
			fmt.Fprintln(t.stmtTrace)
		}
	}

	total := len(srcs) + len(dsts)
	if total == 0 {
		t.emit(reil.Inst{Op: reil.Unk, Flags: reil.OptAsmEnd})
		return nil
	}

	emitted := 0
	for _, r := range srcs {
		arg, err := t.convertOperand(r)
		if err != nil {
			return err
		}
		emitted++
		var flags reil.Flags
		if emitted == total {
			flags = reil.OptAsmEnd
		}
		t.emit(reil.Inst{Op: reil.Unk, A: arg, Flags: flags})
	}
	for _, r := range dsts {
		arg, err := t.convertOperand(r)
		if err != nil {
			return err
		}
		emitted++
		var flags reil.Flags
		if emitted == total {
			flags = reil.OptAsmEnd
		}
		t.emit(reil.Inst{Op: reil.Unk, C: arg, Flags: flags})
	}
	return nil
}
