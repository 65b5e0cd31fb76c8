package reilgen

import (
	"errors"
	"testing"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reil"
)

// An unconditional jump to a pc label emits JCC with a constant-true
// condition and BB_END.
func TestJmpToAddress(t *testing.T) {
	tr := New(ArchX86, nil)
	insts := lowerBlock(t, tr, bil.Jmp{Target: bil.Name{Label: "pc_0x4010"}})

	if len(insts) != 1 {
		t.Fatalf("emitted %d instructions, want 1", len(insts))
	}
	inst := insts[0]
	if inst.Op != reil.Jcc {
		t.Fatalf("op = %s, want JCC", inst.Op)
	}
	if inst.A.Kind != reil.ArgConst || inst.A.Val != 1 || inst.A.Size != reil.U1 {
		t.Errorf("condition = %+v, want 1:1", inst.A)
	}
	if inst.C.Kind != reil.ArgConst || inst.C.Val != 0x4010 {
		t.Errorf("target = %+v, want 0x4010", inst.C)
	}
	if inst.Flags != reil.OptBBEnd|reil.OptAsmEnd {
		t.Errorf("flags = %s, want BB_END, ASM_END", inst.Flags)
	}
}

// An indirect jump keeps the register target in c.
func TestJmpIndirect(t *testing.T) {
	tr := New(ArchX86, nil)
	insts := lowerBlock(t, tr, bil.Jmp{Target: reg32("R_EAX")})

	inst := insts[0]
	if inst.Op != reil.Jcc {
		t.Fatalf("op = %s, want JCC", inst.Op)
	}
	if inst.C.Kind != reil.ArgReg || inst.C.Name != "R_EAX" {
		t.Errorf("target = %+v, want R_EAX", inst.C)
	}
}

// A jump annotated as a call carries CALL instead of BB_END.
func TestJmpAsCall(t *testing.T) {
	tr := New(ArchX86, nil)
	insts := lowerBlock(t, tr,
		bil.Jmp{Target: bil.Name{Label: "pc_0x2000"}},
		bil.Special{Tag: "call"},
	)

	inst := insts[0]
	if inst.Flags&reil.OptCall == 0 {
		t.Error("CALL flag missing")
	}
	if inst.Flags&reil.OptBBEnd != 0 {
		t.Error("BB_END must not be set on calls")
	}
	if inst.Flags&reil.OptAsmEnd == 0 {
		t.Error("ASM_END missing")
	}
}

// A ret-annotated jump carries RET alongside ASM_END.
func TestJmpAsRet(t *testing.T) {
	tr := New(ArchX86, nil)
	insts := lowerBlock(t, tr,
		bil.Jmp{Target: reg32("R_EAX")},
		bil.Special{Tag: "ret"},
	)

	inst := insts[0]
	if inst.Flags&reil.OptRet == 0 {
		t.Error("RET flag missing")
	}
	if inst.Flags&reil.OptAsmEnd == 0 {
		t.Error("ASM_END missing")
	}
}

// A conditional jump with the false label adjacent emits one JCC with
// the condition in a and both BB_END and ASM_END set.
func TestCJmpAdjacentFalseLabel(t *testing.T) {
	tr := New(ArchX86, nil)
	insts := lowerBlock(t, tr,
		bil.CJmp{
			Cond:    bil.Temp{Typ: bil.W1, Name: "V_00"},
			TTarget: bil.Name{Label: "pc_0x4020"},
			FTarget: bil.Name{Label: "L_2"},
		},
		bil.Label{Name: "L_2"},
	)

	if len(insts) != 1 {
		t.Fatalf("emitted %d instructions, want 1", len(insts))
	}
	inst := insts[0]
	if inst.Op != reil.Jcc {
		t.Fatalf("op = %s, want JCC", inst.Op)
	}
	if inst.A.Kind != reil.ArgTemp || inst.A.Name != "V_00" || inst.A.Size != reil.U1 {
		t.Errorf("condition = %+v, want V_00:1", inst.A)
	}
	if inst.C.Kind != reil.ArgConst || inst.C.Val != 0x4020 {
		t.Errorf("target = %+v, want 0x4020", inst.C)
	}
	if inst.Flags != reil.OptBBEnd|reil.OptAsmEnd {
		t.Errorf("flags = %s, want BB_END, ASM_END", inst.Flags)
	}
}

// A non-leaf condition is evaluated into a 1-bit scratch first.
func TestCJmpSpillsCondition(t *testing.T) {
	tr := New(ArchX86, nil)
	insts := lowerBlock(t, tr,
		bil.CJmp{
			Cond:    bil.BinOp{Op: bil.Eq, Lhs: reg32("R_EAX"), Rhs: const32(0)},
			TTarget: bil.Name{Label: "pc_0x4020"},
			FTarget: bil.Name{Label: "L_2"},
		},
		bil.Label{Name: "L_2"},
	)

	if len(insts) != 2 {
		t.Fatalf("emitted %d instructions, want 2", len(insts))
	}
	if insts[0].Op != reil.Eq {
		t.Errorf("first op = %s, want EQ", insts[0].Op)
	}
	jcc := insts[1]
	if jcc.Op != reil.Jcc {
		t.Fatalf("second op = %s, want JCC", jcc.Op)
	}
	if jcc.A != insts[0].C {
		t.Errorf("condition %+v does not reuse EQ result %+v", jcc.A, insts[0].C)
	}
	if jcc.A.Size != reil.U1 {
		t.Errorf("condition size = %s, want 1", jcc.A.Size)
	}
	checkStreamInvariants(t, insts)
}

// The false target must be the label of the following statement.
func TestCJmpFalseTargetMismatch(t *testing.T) {
	tr := New(ArchX86, nil)
	_, err := lowerBlockErr(t, tr,
		bil.CJmp{
			Cond:    bil.Temp{Typ: bil.W1, Name: "V_00"},
			TTarget: bil.Name{Label: "pc_0x4020"},
			FTarget: bil.Name{Label: "L_OTHER"},
		},
		bil.Label{Name: "L_2"},
	)
	if !errors.Is(err, ErrUnexpectedFalseTarget) {
		t.Errorf("err = %v, want ErrUnexpectedFalseTarget", err)
	}
}

func TestCJmpFalseTargetMissing(t *testing.T) {
	tr := New(ArchX86, nil)
	_, err := lowerBlockErr(t, tr,
		bil.CJmp{
			Cond:    bil.Temp{Typ: bil.W1, Name: "V_00"},
			TTarget: bil.Name{Label: "pc_0x4020"},
			FTarget: bil.Name{Label: "L_2"},
		},
	)
	if !errors.Is(err, ErrUnexpectedFalseTarget) {
		t.Errorf("err = %v, want ErrUnexpectedFalseTarget", err)
	}
}

// Call and Return statements belong to a higher-level IR.
func TestUnimplementedStatements(t *testing.T) {
	for _, s := range []bil.Stmt{
		bil.Call{Target: bil.Name{Label: "f"}},
		bil.Return{},
	} {
		tr := New(ArchX86, nil)
		_, err := lowerBlockErr(t, tr, s)
		if !errors.Is(err, ErrUnimplementedStatement) {
			t.Errorf("%T: err = %v, want ErrUnimplementedStatement", s, err)
		}
	}
}

// Comments, declarations and bare expressions emit nothing; the block
// still produces its NONE placeholder.
func TestQuietStatements(t *testing.T) {
	tr := New(ArchX86, nil)
	insts := lowerBlock(t, tr,
		bil.Comment{Text: "lifted from 0x1000"},
		bil.VarDecl{Name: "T_1", Typ: bil.W32},
		bil.ExpStmt{E: reg32("R_EAX")},
	)

	if len(insts) != 1 {
		t.Fatalf("emitted %d instructions, want 1", len(insts))
	}
	if insts[0].Op != reil.None {
		t.Errorf("op = %s, want NONE", insts[0].Op)
	}
	if insts[0].Flags != reil.OptAsmEnd {
		t.Errorf("flags = %s, want ASM_END", insts[0].Flags)
	}
}

// The CALL flag lands on the instruction emitted for the statement
// preceding the special annotation.
func TestCallFlagOnMove(t *testing.T) {
	tr := New(ArchX86, nil)
	insts := lowerBlock(t, tr,
		bil.Move{Lhs: reg32("R_EAX"), Rhs: const32(1)},
		bil.Special{Tag: "call"},
	)

	inst := insts[0]
	if inst.Flags&reil.OptCall == 0 {
		t.Error("CALL flag missing")
	}
	if inst.Flags&reil.OptAsmEnd == 0 {
		t.Error("CALL must ride on the ASM_END instruction")
	}
}
