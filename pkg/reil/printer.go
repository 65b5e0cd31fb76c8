// Textual form of REIL instructions, in the classic
// "addr.inum opcode a, b, c" layout used by REIL dumps.

package reil

import (
	"fmt"
	"strings"
)

// String prints the operand as "name:size" or "value:size"; absent
// operands print as an empty string.
func (a Arg) String() string {
	switch a.Kind {
	case ArgNone:
		return ""
	case ArgConst:
		return fmt.Sprintf("%x:%s", a.Val, a.Size)
	default:
		return fmt.Sprintf("%s:%s", a.Name, a.Size)
	}
}

// String prints the instruction with its address, inum, opcode, operand
// list and any flag suffixes.
func (i Inst) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%.8x.%.2d %-4s", i.Raw.Addr, i.INum, i.Op)

	args := []Arg{i.A, i.B, i.C}
	first := true
	for _, a := range args {
		if first {
			sb.WriteByte(' ')
			first = false
		} else {
			sb.WriteString(", ")
		}
		if a.Kind == ArgNone {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(a.String())
	}

	if s := i.Flags.String(); s != "" {
		sb.WriteString(" ; ")
		sb.WriteString(s)
	}
	return sb.String()
}

// String prints set flags as a comma-separated list.
func (f Flags) String() string {
	var parts []string
	if f&OptCall != 0 {
		parts = append(parts, "CALL")
	}
	if f&OptRet != 0 {
		parts = append(parts, "RET")
	}
	if f&OptBBEnd != 0 {
		parts = append(parts, "BB_END")
	}
	if f&OptAsmEnd != 0 {
		parts = append(parts, "ASM_END")
	}
	return strings.Join(parts, ", ")
}
