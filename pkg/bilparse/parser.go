// Recursive-descent parser for textual BIL. A program is a sequence of
// machine instructions, each an "insn" header line followed by
// statement lines.

package bilparse

import (
	"fmt"
	"strconv"

	"github.com/openreil/reilgen/pkg/bil"
	"github.com/openreil/reilgen/pkg/reilgen"
)

// Insn is one parsed machine instruction: its header plus the lifted
// block.
type Insn struct {
	Addr  uint64
	Block *bil.Block
}

// Parser parses textual BIL programs.
type Parser struct {
	lex  *Lexer
	cur  Token
	peek Token
}

// NewParser creates a parser over input.
func NewParser(input string) *Parser {
	p := &Parser{lex: NewLexer(input)}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s", p.cur.Line, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(typ TokenType, what string) (Token, error) {
	if p.cur.Type != typ {
		return Token{}, p.errorf("expected %s, got %q", what, p.cur.Literal)
	}
	tok := p.cur
	p.next()
	return tok, nil
}

func (p *Parser) skipNewlines() {
	for p.cur.Type == TokenNewline {
		p.next()
	}
}

// Parse reads a whole program.
func Parse(input string) ([]Insn, error) {
	return NewParser(input).Program()
}

// Program parses instruction headers and their statements until EOF.
func (p *Parser) Program() ([]Insn, error) {
	var insns []Insn
	var cur *Insn

	p.skipNewlines()
	for p.cur.Type != TokenEOF {
		if p.cur.Type == TokenIdent && p.cur.Literal == "insn" {
			insn, err := p.insnHeader()
			if err != nil {
				return nil, err
			}
			insns = append(insns, *insn)
			cur = &insns[len(insns)-1]
		} else {
			if cur == nil {
				return nil, p.errorf("statement before insn header")
			}
			stmt, err := p.statement()
			if err != nil {
				return nil, err
			}
			cur.Block.IR = append(cur.Block.IR, stmt)
		}

		if p.cur.Type != TokenEOF {
			if _, err := p.expect(TokenNewline, "end of line"); err != nil {
				return nil, err
			}
		}
		p.skipNewlines()
	}
	return insns, nil
}

// insnHeader parses: insn ADDR SIZE "mnemonic" "operands"
func (p *Parser) insnHeader() (*Insn, error) {
	p.next() // insn

	addrTok, err := p.expect(TokenInt, "instruction address")
	if err != nil {
		return nil, err
	}
	addr, err := parseInt(addrTok.Literal)
	if err != nil {
		return nil, p.errorf("bad address %q", addrTok.Literal)
	}

	sizeTok, err := p.expect(TokenInt, "instruction size")
	if err != nil {
		return nil, err
	}
	size, err := parseInt(sizeTok.Literal)
	if err != nil || size == 0 {
		return nil, p.errorf("bad size %q", sizeTok.Literal)
	}

	mnem, err := p.expect(TokenString, "mnemonic")
	if err != nil {
		return nil, err
	}
	ops, err := p.expect(TokenString, "operand text")
	if err != nil {
		return nil, err
	}

	return &Insn{
		Addr: addr,
		Block: &bil.Block{
			InstSize: int(size),
			Mnemonic: mnem.Literal,
			Operands: ops.Literal,
		},
	}, nil
}

func (p *Parser) statement() (bil.Stmt, error) {
	if p.cur.Type == TokenIdent {
		switch p.cur.Literal {
		case "label":
			p.next()
			name, err := p.expect(TokenIdent, "label name")
			if err != nil {
				return nil, err
			}
			return bil.Label{Name: name.Literal}, nil

		case "jmp":
			p.next()
			target, err := p.targetExp()
			if err != nil {
				return nil, err
			}
			return bil.Jmp{Target: target}, nil

		case "cjmp":
			p.next()
			cond, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenComma, "comma"); err != nil {
				return nil, err
			}
			tt, err := p.targetExp()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenComma, "comma"); err != nil {
				return nil, err
			}
			ft, err := p.targetExp()
			if err != nil {
				return nil, err
			}
			return bil.CJmp{Cond: cond, TTarget: tt, FTarget: ft}, nil

		case "special":
			p.next()
			tag, err := p.expect(TokenString, "special tag")
			if err != nil {
				return nil, err
			}
			return bil.Special{Tag: tag.Literal}, nil

		case "unknown":
			p.next()
			return bil.Special{Tag: reilgen.UnknownTag + "instruction"}, nil

		case "var":
			p.next()
			name, err := p.expect(TokenIdent, "variable name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenColon, "width"); err != nil {
				return nil, err
			}
			typ, err := p.width()
			if err != nil {
				return nil, err
			}
			return bil.VarDecl{Name: name.Literal, Typ: typ}, nil

		case "call":
			p.next()
			target, err := p.expression()
			if err != nil {
				return nil, err
			}
			return bil.Call{Target: target}, nil

		case "return":
			p.next()
			if p.cur.Type == TokenNewline || p.cur.Type == TokenEOF {
				return bil.Return{}, nil
			}
			value, err := p.expression()
			if err != nil {
				return nil, err
			}
			return bil.Return{Value: value}, nil
		}
	}

	// assignment or bare expression
	lhs, err := p.expression()
	if err != nil {
		return nil, err
	}
	if p.cur.Type == TokenAssign {
		p.next()
		rhs, err := p.expression()
		if err != nil {
			return nil, err
		}
		return bil.Move{Lhs: lhs, Rhs: rhs}, nil
	}
	return bil.ExpStmt{E: lhs}, nil
}

// targetExp parses a jump target: a bare identifier is a label
// reference, anything else is an address expression.
func (p *Parser) targetExp() (bil.Exp, error) {
	if p.cur.Type == TokenIdent && p.peek.Type != TokenColon && !isExpKeyword(p.cur.Literal) {
		name := p.cur.Literal
		p.next()
		return bil.Name{Label: name}, nil
	}
	return p.expression()
}

func isExpKeyword(s string) bool {
	switch s {
	case "mem", "low", "high", "sx", "zx":
		return true
	}
	return false
}

// Binary operator precedence, loosest first.
var precedence = map[TokenType]int{
	TokenOrOr:    1,
	TokenAndAnd:  2,
	TokenPipe:    3,
	TokenCaret:   4,
	TokenAmp:     5,
	TokenEq:      6,
	TokenNe:      6,
	TokenLt:      7,
	TokenLe:      7,
	TokenGt:      7,
	TokenGe:      7,
	TokenShl:     8,
	TokenShr:     8,
	TokenSar:     8,
	TokenRol:     8,
	TokenRor:     8,
	TokenPlus:    9,
	TokenMinus:   9,
	TokenStar:    10,
	TokenSlash:   10,
	TokenSDiv:    10,
	TokenPercent: 10,
	TokenSMod:    10,
}

var binOps = map[TokenType]bil.BinOpKind{
	TokenOrOr:    bil.LogicOr,
	TokenAndAnd:  bil.LogicAnd,
	TokenPipe:    bil.BitOr,
	TokenCaret:   bil.Xor,
	TokenAmp:     bil.BitAnd,
	TokenEq:      bil.Eq,
	TokenNe:      bil.Neq,
	TokenLt:      bil.Lt,
	TokenLe:      bil.Le,
	TokenGt:      bil.Gt,
	TokenGe:      bil.Ge,
	TokenShl:     bil.LShift,
	TokenShr:     bil.RShift,
	TokenSar:     bil.ARShift,
	TokenRol:     bil.LRotate,
	TokenRor:     bil.RRotate,
	TokenPlus:    bil.Plus,
	TokenMinus:   bil.Minus,
	TokenStar:    bil.Times,
	TokenSlash:   bil.Divide,
	TokenSDiv:    bil.SDivide,
	TokenPercent: bil.Mod,
	TokenSMod:    bil.SMod,
}

// expression parses with precedence climbing.
func (p *Parser) expression() (bil.Exp, error) {
	return p.binaryExp(0)
}

func (p *Parser) binaryExp(minPrec int) (bil.Exp, error) {
	lhs, err := p.unaryExp()
	if err != nil {
		return nil, err
	}

	for {
		prec, ok := precedence[p.cur.Type]
		if !ok || prec < minPrec {
			return lhs, nil
		}
		op := binOps[p.cur.Type]
		p.next()

		rhs, err := p.binaryExp(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = bil.BinOp{Op: op, Lhs: lhs, Rhs: rhs}
	}
}

func (p *Parser) unaryExp() (bil.Exp, error) {
	switch p.cur.Type {
	case TokenMinus:
		p.next()
		e, err := p.unaryExp()
		if err != nil {
			return nil, err
		}
		return bil.UnOp{Op: bil.Neg, E: e}, nil
	case TokenTilde:
		p.next()
		e, err := p.unaryExp()
		if err != nil {
			return nil, err
		}
		return bil.UnOp{Op: bil.Not, E: e}, nil
	}
	return p.primaryExp()
}

func (p *Parser) primaryExp() (bil.Exp, error) {
	switch p.cur.Type {
	case TokenLParen:
		p.next()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, "closing paren"); err != nil {
			return nil, err
		}
		return e, nil

	case TokenInt:
		val, err := parseInt(p.cur.Literal)
		if err != nil {
			return nil, p.errorf("bad integer %q", p.cur.Literal)
		}
		p.next()
		if _, err := p.expect(TokenColon, "constant width"); err != nil {
			return nil, err
		}
		typ, err := p.width()
		if err != nil {
			return nil, err
		}
		return bil.Constant{Typ: typ, Val: val & typ.Mask()}, nil

	case TokenDollar:
		// relative address: $+0x10:32
		p.next()
		if _, err := p.expect(TokenPlus, "'+' after '$'"); err != nil {
			return nil, err
		}
		valTok, err := p.expect(TokenInt, "relative offset")
		if err != nil {
			return nil, err
		}
		val, err := parseInt(valTok.Literal)
		if err != nil {
			return nil, p.errorf("bad offset %q", valTok.Literal)
		}
		if _, err := p.expect(TokenColon, "relative width"); err != nil {
			return nil, err
		}
		typ, err := p.width()
		if err != nil {
			return nil, err
		}
		return bil.Relative{Typ: typ, Val: val}, nil

	case TokenIdent:
		name := p.cur.Literal
		switch name {
		case "mem":
			p.next()
			if _, err := p.expect(TokenLBracket, "'['"); err != nil {
				return nil, err
			}
			addr, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRBracket, "']'"); err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenColon, "load width"); err != nil {
				return nil, err
			}
			typ, err := p.width()
			if err != nil {
				return nil, err
			}
			return bil.Mem{Typ: typ, Addr: addr}, nil

		case "low", "high", "sx", "zx":
			kind := castKind(name)
			p.next()
			if _, err := p.expect(TokenColon, "cast width"); err != nil {
				return nil, err
			}
			typ, err := p.width()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenLParen, "'('"); err != nil {
				return nil, err
			}
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRParen, "')'"); err != nil {
				return nil, err
			}
			return bil.Cast{Kind: kind, Typ: typ, E: e}, nil
		}

		p.next()
		if p.cur.Type == TokenColon {
			p.next()
			typ, err := p.width()
			if err != nil {
				return nil, err
			}
			return bil.Temp{Typ: typ, Name: name}, nil
		}
		return bil.Name{Label: name}, nil
	}

	return nil, p.errorf("unexpected token %q in expression", p.cur.Literal)
}

func castKind(name string) bil.CastKind {
	switch name {
	case "low":
		return bil.CastLow
	case "high":
		return bil.CastHigh
	case "sx":
		return bil.CastSigned
	}
	return bil.CastUnsigned
}

// width parses a width token (1, 8, 16, 32 or 64).
func (p *Parser) width() (bil.Width, error) {
	tok, err := p.expect(TokenInt, "width")
	if err != nil {
		return 0, err
	}
	switch tok.Literal {
	case "1":
		return bil.W1, nil
	case "8":
		return bil.W8, nil
	case "16":
		return bil.W16, nil
	case "32":
		return bil.W32, nil
	case "64":
		return bil.W64, nil
	}
	return 0, fmt.Errorf("line %d: invalid width %q", tok.Line, tok.Literal)
}

func parseInt(lit string) (uint64, error) {
	if len(lit) > 2 && (lit[:2] == "0x" || lit[:2] == "0X") {
		return strconv.ParseUint(lit[2:], 16, 64)
	}
	return strconv.ParseUint(lit, 10, 64)
}
