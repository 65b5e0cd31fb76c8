// Textual form of BIL statements and expressions. The output is the
// same surface syntax that bilparse accepts, so printed statements
// round-trip.

package bil

import (
	"fmt"
	"strings"
)

// String returns the width as its bit count ("1", "8", ... "64").
func (w Width) String() string {
	return fmt.Sprintf("%d", w.Bits())
}

var binOpNames = map[BinOpKind]string{
	Plus:     "+",
	Minus:    "-",
	Times:    "*",
	Divide:   "/",
	Mod:      "%",
	LShift:   "<<",
	RShift:   ">>",
	ARShift:  ">>>",
	LRotate:  "<<<",
	RRotate:  ">>>$",
	LogicAnd: "&&",
	LogicOr:  "||",
	BitAnd:   "&",
	BitOr:    "|",
	Xor:      "^",
	Eq:       "==",
	Neq:      "!=",
	Gt:       ">",
	Lt:       "<",
	Ge:       ">=",
	Le:       "<=",
	SDivide:  "/$",
	SMod:     "%$",
}

// String returns the operator's surface spelling.
func (op BinOpKind) String() string {
	if s, ok := binOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("binop(%d)", int(op))
}

func (op UnOpKind) String() string {
	switch op {
	case Neg:
		return "-"
	case Not:
		return "~"
	}
	return fmt.Sprintf("unop(%d)", int(op))
}

func (k CastKind) String() string {
	switch k {
	case CastUnsigned:
		return "zx"
	case CastSigned:
		return "sx"
	case CastHigh:
		return "high"
	case CastLow:
		return "low"
	}
	return fmt.Sprintf("cast(%d)", int(k))
}

func (e Constant) String() string {
	if e.Val > 9 {
		return fmt.Sprintf("0x%x:%s", e.Val, e.Typ)
	}
	return fmt.Sprintf("%d:%s", e.Val, e.Typ)
}

func (e Temp) String() string {
	return fmt.Sprintf("%s:%s", e.Name, e.Typ)
}

func (e BinOp) String() string {
	return fmt.Sprintf("%s %s %s", parens(e.Lhs), e.Op, parens(e.Rhs))
}

func (e UnOp) String() string {
	return fmt.Sprintf("%s%s", e.Op, parens(e.E))
}

func (e Cast) String() string {
	return fmt.Sprintf("%s:%s(%s)", e.Kind, e.Typ, e.E)
}

func (e Mem) String() string {
	return fmt.Sprintf("mem[%s]:%s", e.Addr, e.Typ)
}

func (e Name) String() string {
	return e.Label
}

func (e Relative) String() string {
	return fmt.Sprintf("$+0x%x:%s", e.Val, e.Typ)
}

// parens wraps compound subexpressions so the printed form re-parses
// with the same shape.
func parens(e Exp) string {
	switch e.(type) {
	case BinOp, UnOp:
		return "(" + e.String() + ")"
	}
	return e.String()
}

func (s Move) String() string {
	return fmt.Sprintf("%s = %s", s.Lhs, s.Rhs)
}

func (s Jmp) String() string {
	return fmt.Sprintf("jmp %s", s.Target)
}

func (s CJmp) String() string {
	return fmt.Sprintf("cjmp %s, %s, %s", s.Cond, s.TTarget, s.FTarget)
}

func (s Label) String() string {
	return fmt.Sprintf("label %s", s.Name)
}

func (s Special) String() string {
	return fmt.Sprintf("special %q", s.Tag)
}

func (s Comment) String() string {
	return "# " + s.Text
}

func (s ExpStmt) String() string {
	return s.E.String()
}

func (s VarDecl) String() string {
	return fmt.Sprintf("var %s:%s", s.Name, s.Typ)
}

func (s Call) String() string {
	return fmt.Sprintf("call %s", s.Target)
}

func (s Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", s.Value)
}

// String prints the block's statements, one per line.
func (b *Block) String() string {
	var sb strings.Builder
	for _, s := range b.IR {
		sb.WriteString(s.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
