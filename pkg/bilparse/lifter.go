// Lifter adapter: serves parsed blocks by address so a parsed program
// can stand in for the machine-code lifter behind the translator.

package bilparse

import (
	"fmt"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reilgen"
)

// Lifter implements reilgen.Lifter over a parsed program.
type Lifter struct {
	byAddr map[uint64]*bil.Block
	order  []uint64
}

// NewLifter indexes a parsed program by instruction address.
func NewLifter(insns []Insn) *Lifter {
	l := &Lifter{byAddr: make(map[uint64]*bil.Block, len(insns))}
	for _, insn := range insns {
		if _, dup := l.byAddr[insn.Addr]; !dup {
			l.order = append(l.order, insn.Addr)
		}
		l.byAddr[insn.Addr] = insn.Block
	}
	return l
}

// Addrs returns the instruction addresses in program order.
func (l *Lifter) Addrs() []uint64 {
	return l.order
}

// Lift returns the block parsed for addr. The byte buffer is unused:
// the program text already carries the decoded form.
func (l *Lifter) Lift(arch reilgen.Arch, data []byte, addr uint64) (*bil.Block, error) {
	block, ok := l.byAddr[addr]
	if !ok {
		return nil, fmt.Errorf("no instruction at 0x%x", addr)
	}
	return block, nil
}
