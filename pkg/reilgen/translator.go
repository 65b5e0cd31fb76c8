// Package reilgen lowers lifted BIL blocks to REIL instructions. Each
// machine instruction is lifted to a block of tree-structured
// statements by an external Lifter; the translator flattens them into a
// linear stream of three-address REIL instructions, synthesizing the
// operators REIL lacks out of the ones it has, and delivers the stream
// to a caller-supplied handler.
//
// A Translator instance holds only per-machine-instruction state and
// resets it on every call; use one instance per instruction stream.
package reilgen

import (
	"fmt"
	"io"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reil"
)

// Arch selects the guest architecture the collaborators decode for.
type Arch int

const (
	ArchX86 Arch = iota
	ArchARM
)

func (a Arch) String() string {
	switch a {
	case ArchX86:
		return "x86"
	case ArchARM:
		return "arm"
	}
	return fmt.Sprintf("arch(%d)", int(a))
}

// Handler receives every emitted REIL instruction, in emission order.
// The instruction value is only valid for the duration of the call;
// copy what you keep.
type Handler func(reil.Inst)

// Lifter decodes one machine instruction into a BIL block.
type Lifter interface {
	Lift(arch Arch, data []byte, addr uint64) (*bil.Block, error)
}

// FlagExpander supplies the statements that assemble the architecture's
// flags pseudo-register from its individual flag bits.
type FlagExpander interface {
	SetFlagBits(cf, pf, af, zf, sf, of bil.Temp) []bil.Stmt
}

// Disasm reports the registers an untranslatable instruction reads and
// writes, for the UNK emission path.
type Disasm interface {
	ArgSrc(arch Arch, data []byte) []bil.Temp
	ArgDst(arch Arch, data []byte) []bil.Temp
}

// Option configures a Translator.
type Option func(*Translator)

// WithFlagExpander installs the flags-register expansion helper.
func WithFlagExpander(f FlagExpander) Option {
	return func(t *Translator) { t.flagex = f }
}

// WithDisasm installs the unknown-instruction register helper.
func WithDisasm(d Disasm) Option {
	return func(t *Translator) { t.disasm = d }
}

// WithDiagnostics directs warnings (untranslated instructions) to w.
func WithDiagnostics(w io.Writer) Option {
	return func(t *Translator) { t.diag = w }
}

// WithStmtTrace enables the statement trace (DBG_BAP) on w.
func WithStmtTrace(w io.Writer) Option {
	return func(t *Translator) { t.stmtTrace = w }
}

// WithTempTrace enables the temporary-allocation trace (DBG_TEMPREG) on w.
func WithTempTrace(w io.Writer) Option {
	return func(t *Translator) { t.tempTrace = w }
}

// Translator lowers BIL blocks to REIL. The zero value is not usable;
// construct with New.
type Translator struct {
	arch   Arch
	lifter Lifter
	flagex FlagExpander
	disasm Disasm

	diag      io.Writer
	stmtTrace io.Writer
	tempTrace io.Writer

	// state of the machine instruction being lowered
	handler        Handler
	block          *bil.Block
	curStmt        int
	temps          *tempAlloc
	instCount      uint
	expandingFlags bool
	raw            reil.Raw
}

// New creates a translator for one instruction stream.
func New(arch Arch, lifter Lifter, opts ...Option) *Translator {
	t := &Translator{
		arch:   arch,
		lifter: lifter,
		diag:   io.Discard,
		temps:  newTempAlloc(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.reset(nil)
	return t
}

// Translate lifts and lowers the machine instruction at addr, delivers
// the REIL stream to handler, and returns the number of bytes the
// instruction occupies. On error, instructions already delivered stand;
// the translator is clean for the next call.
func (t *Translator) Translate(addr uint64, data []byte, handler Handler) (int, error) {
	if t.lifter == nil {
		return 0, fmt.Errorf("%w: no lifter configured", ErrLifterFailure)
	}

	block, err := t.lifter.Lift(t.arch, data, addr)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLifterFailure, err)
	}
	if block == nil || block.InstSize <= 0 {
		return 0, fmt.Errorf("%w: no instruction at 0x%x", ErrLifterFailure, addr)
	}

	if t.stmtTrace != nil {
		fmt.Fprintf(t.stmtTrace, "// %.8x: %s %s ; len = %d\n",
			addr, block.Mnemonic, block.Operands, block.InstSize)
	}

	raw := reil.Raw{
		Addr:     addr,
		Size:     block.InstSize,
		Mnemonic: block.Mnemonic,
		Operands: block.Operands,
		Data:     data,
	}
	if err := t.Lower(raw, block, handler); err != nil {
		return block.InstSize, err
	}
	return block.InstSize, nil
}
