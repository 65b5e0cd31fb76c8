package bil

import "testing"

func TestWidthBits(t *testing.T) {
	tests := []struct {
		w    Width
		bits uint64
	}{
		{W1, 1},
		{W8, 8},
		{W16, 16},
		{W32, 32},
		{W64, 64},
	}
	for _, tt := range tests {
		if got := tt.w.Bits(); got != tt.bits {
			t.Errorf("Bits(%s) = %d, want %d", tt.w, got, tt.bits)
		}
	}
}

func TestWidthMask(t *testing.T) {
	tests := []struct {
		w    Width
		mask uint64
	}{
		{W1, 0x1},
		{W8, 0xff},
		{W16, 0xffff},
		{W32, 0xffffffff},
		{W64, 0xffffffffffffffff},
	}
	for _, tt := range tests {
		if got := tt.w.Mask(); got != tt.mask {
			t.Errorf("Mask(%s) = %#x, want %#x", tt.w, got, tt.mask)
		}
	}
}

func TestWidthSignMask(t *testing.T) {
	tests := []struct {
		w    Width
		mask uint64
	}{
		{W1, 0x1},
		{W8, 0x80},
		{W16, 0x8000},
		{W32, 0x80000000},
		{W64, 0x8000000000000000},
	}
	for _, tt := range tests {
		if got := tt.w.SignMask(); got != tt.mask {
			t.Errorf("SignMask(%s) = %#x, want %#x", tt.w, got, tt.mask)
		}
	}
}

func TestWidthHighShift(t *testing.T) {
	tests := []struct {
		w     Width
		shift uint64
	}{
		{W16, 8},
		{W32, 16},
		{W64, 32},
	}
	for _, tt := range tests {
		if got := tt.w.HighShift(); got != tt.shift {
			t.Errorf("HighShift(%s) = %d, want %d", tt.w, got, tt.shift)
		}
	}
}

func TestStmtStrings(t *testing.T) {
	tests := []struct {
		stmt Stmt
		want string
	}{
		{
			Move{
				Lhs: Temp{Typ: W32, Name: "R_EAX"},
				Rhs: BinOp{Op: Plus, Lhs: Temp{Typ: W32, Name: "R_EAX"}, Rhs: Constant{Typ: W32, Val: 1}},
			},
			"R_EAX:32 = R_EAX:32 + 1:32",
		},
		{
			Move{
				Lhs: Mem{Typ: W32, Addr: Temp{Typ: W32, Name: "R_ESP"}},
				Rhs: Temp{Typ: W32, Name: "R_EAX"},
			},
			"mem[R_ESP:32]:32 = R_EAX:32",
		},
		{Jmp{Target: Name{Label: "pc_0x4010"}}, "jmp pc_0x4010"},
		{
			CJmp{
				Cond:    Temp{Typ: W1, Name: "V_00"},
				TTarget: Name{Label: "L_1"},
				FTarget: Name{Label: "L_2"},
			},
			"cjmp V_00:1, L_1, L_2",
		},
		{Label{Name: "L_2"}, "label L_2"},
		{Special{Tag: "call"}, `special "call"`},
		{VarDecl{Name: "T_1", Typ: W32}, "var T_1:32"},
	}
	for _, tt := range tests {
		if got := tt.stmt.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestExpStrings(t *testing.T) {
	tests := []struct {
		exp  Exp
		want string
	}{
		{Cast{Kind: CastSigned, Typ: W32, E: Temp{Typ: W8, Name: "R_AL"}}, "sx:32(R_AL:8)"},
		{Cast{Kind: CastLow, Typ: W8, E: Temp{Typ: W32, Name: "R_EAX"}}, "low:8(R_EAX:32)"},
		{UnOp{Op: Not, E: Temp{Typ: W32, Name: "R_EAX"}}, "~R_EAX:32"},
		{Constant{Typ: W32, Val: 0xff}, "0xff:32"},
		{Relative{Typ: W32, Val: 0x10}, "$+0x10:32"},
		{
			BinOp{
				Op:  Times,
				Lhs: BinOp{Op: Plus, Lhs: Temp{Typ: W32, Name: "R_EBX"}, Rhs: Constant{Typ: W32, Val: 2}},
				Rhs: Temp{Typ: W32, Name: "R_ECX"},
			},
			"(R_EBX:32 + 2:32) * R_ECX:32",
		},
	}
	for _, tt := range tests {
		if got := tt.exp.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
