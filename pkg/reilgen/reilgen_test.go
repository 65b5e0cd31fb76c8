// Shared helpers for translator tests: an instruction-capturing sink
// and a default raw header.

package reilgen

import (
	"testing"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reil"
)

// capture collects emitted instructions for inspection.
type capture struct {
	insts []reil.Inst
}

func (c *capture) handler() Handler {
	return func(inst reil.Inst) {
		c.insts = append(c.insts, inst)
	}
}

func testRaw() reil.Raw {
	return reil.Raw{Addr: 0x1000, Size: 5, Mnemonic: "mov", Operands: "eax, ebx"}
}

// lowerBlock runs the block driver over stmts and returns the emitted
// instructions, failing the test on error.
func lowerBlock(t *testing.T, tr *Translator, stmts ...bil.Stmt) []reil.Inst {
	t.Helper()
	var sink capture
	block := &bil.Block{IR: stmts, InstSize: 5, Mnemonic: "mov", Operands: "eax, ebx"}
	if err := tr.Lower(testRaw(), block, sink.handler()); err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	return sink.insts
}

// lowerBlockErr runs the block driver expecting failure and returns the
// error plus whatever was emitted before it.
func lowerBlockErr(t *testing.T, tr *Translator, stmts ...bil.Stmt) ([]reil.Inst, error) {
	t.Helper()
	var sink capture
	block := &bil.Block{IR: stmts, InstSize: 5, Mnemonic: "mov", Operands: "eax, ebx"}
	err := tr.Lower(testRaw(), block, sink.handler())
	if err == nil {
		t.Fatal("expected an error")
	}
	return sink.insts, err
}

func reg32(name string) bil.Temp {
	return bil.Temp{Typ: bil.W32, Name: name}
}

func const32(val uint64) bil.Constant {
	return bil.Constant{Typ: bil.W32, Val: val}
}

// checkStreamInvariants asserts inum monotonicity and ASM_END
// cardinality over the instructions of one machine instruction.
func checkStreamInvariants(t *testing.T, insts []reil.Inst) {
	t.Helper()
	if len(insts) == 0 {
		t.Fatal("no instructions emitted")
	}
	asmEnds := 0
	for i, inst := range insts {
		if inst.INum != uint(i) {
			t.Errorf("inst %d: inum = %d, want %d", i, inst.INum, i)
		}
		if inst.Flags&reil.OptAsmEnd != 0 {
			asmEnds++
			if i != len(insts)-1 {
				t.Errorf("ASM_END on inst %d of %d", i, len(insts))
			}
		}
	}
	if asmEnds != 1 {
		t.Errorf("ASM_END count = %d, want 1", asmEnds)
	}
}
