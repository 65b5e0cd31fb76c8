// Register operand tables for untranslatable instructions. The lifter
// gives up on a handful of system instructions; this table records
// which registers they touch so the translator can still emit UNK
// instructions with operand information.

package x86

import (
	"bytes"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reilgen"
)

func reg32(name string) bil.Temp {
	return bil.Temp{Typ: bil.W32, Name: name}
}

func reg16(name string) bil.Temp {
	return bil.Temp{Typ: bil.W16, Name: name}
}

// unkInsn records the operand registers of one untranslatable opcode.
type unkInsn struct {
	opcode []byte
	src    []bil.Temp
	dst    []bil.Temp
}

var unkInsns = []unkInsn{
	// rdtsc
	{opcode: []byte{0x0f, 0x31}, dst: []bil.Temp{reg32("R_EDX"), reg32("R_EAX")}},
	// rdpmc
	{opcode: []byte{0x0f, 0x33}, src: []bil.Temp{reg32("R_ECX")}, dst: []bil.Temp{reg32("R_EDX"), reg32("R_EAX")}},
	// cpuid
	{opcode: []byte{0x0f, 0xa2}, src: []bil.Temp{reg32("R_EAX"), reg32("R_ECX")},
		dst: []bil.Temp{reg32("R_EAX"), reg32("R_EBX"), reg32("R_ECX"), reg32("R_EDX")}},
	// in eax, dx / out dx, eax
	{opcode: []byte{0xed}, src: []bil.Temp{reg16("R_DX")}, dst: []bil.Temp{reg32("R_EAX")}},
	{opcode: []byte{0xef}, src: []bil.Temp{reg16("R_DX"), reg32("R_EAX")}},
	// hlt
	{opcode: []byte{0xf4}},
}

// Regs implements reilgen.Disasm for x86.
type Regs struct{}

func lookup(data []byte) *unkInsn {
	for i := range unkInsns {
		insn := &unkInsns[i]
		if bytes.HasPrefix(data, insn.opcode) {
			return insn
		}
	}
	return nil
}

// ArgSrc returns the registers the instruction reads.
func (Regs) ArgSrc(arch reilgen.Arch, data []byte) []bil.Temp {
	if arch != reilgen.ArchX86 {
		return nil
	}
	if insn := lookup(data); insn != nil {
		return insn.src
	}
	return nil
}

// ArgDst returns the registers the instruction writes.
func (Regs) ArgDst(arch reilgen.Arch, data []byte) []bil.Temp {
	if arch != reilgen.ArchX86 {
		return nil
	}
	if insn := lookup(data); insn != nil {
		return insn.dst
	}
	return nil
}
