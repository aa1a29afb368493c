package expr

import (
	"fmt"

	"github.com/comalice/rfsm/value"
)

// Precedence table, lowest to highest, matching SPEC_FULL.md §4.5:
// assignment < or < and < comparisons < additive < multiplicative <
// unary < member/index.
func precedence(k tokenKind) int {
	switch k {
	case tokEq, tokQEq:
		return 1
	case tokOr:
		return 2
	case tokAnd:
		return 3
	case tokEqEq, tokNotEq, tokLe, tokGe, tokLt, tokGt:
		return 4
	case tokPlus, tokMinus:
		return 5
	case tokStar, tokSlash, tokColon, tokPercent:
		return 6
	default:
		return 0
	}
}

func rightAssoc(k tokenKind) bool { return k == tokEq || k == tokQEq }

type parser struct {
	sc   *scanner
	cur  token
	err  error
}

// Parse compiles a full expression-list source (";"-separated
// expressions) into a sequence of top-level AST roots.
func Parse(src string) ([]*node, error) {
	p := &parser{sc: newScanner(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	var out []*node
	for {
		if p.cur.kind == tokEOF {
			break
		}
		n, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if p.cur.kind == tokSemi {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("expr: unexpected trailing token")
	}
	return out, nil
}

// ParseOne compiles a single expression (used by conditions, <assign>
// expr attributes, etc. where no ";" list is expected).
func ParseOne(src string) (*node, error) {
	nodes, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return &node{kind: nLiteral, lit: value.Null()}, nil
	}
	return nodes[len(nodes)-1], nil
}

func (p *parser) advance() error {
	t, err := p.sc.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expect(k tokenKind, what string) error {
	if p.cur.kind != k {
		return fmt.Errorf("expr: expected %s", what)
	}
	return p.advance()
}

func (p *parser) parseExpr(minPrec int) (*node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec := precedence(p.cur.kind)
		if prec == 0 || prec < minPrec {
			break
		}
		op := p.cur.kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		nextMin := prec + 1
		if rightAssoc(op) {
			nextMin = prec
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		switch op {
		case tokEq:
			left = &node{kind: nAssign, left: left, right: right}
		case tokQEq:
			left = &node{kind: nDeclare, left: left, right: right}
		default:
			left = &node{kind: nBinary, op: op, left: left, right: right}
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (*node, error) {
	if p.cur.kind == tokBang {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &node{kind: nUnaryNot, left: inner}, nil
	}
	if p.cur.kind == tokMinus {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &node{kind: nBinary, op: tokMinus, left: &node{kind: nLiteral, lit: value.Integer(0)}, right: inner}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (*node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.kind {
		case tokDot:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind != tokIdent {
				return nil, fmt.Errorf("expr: expected identifier after '.'")
			}
			name := p.cur.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind == tokLParen {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				n = &node{kind: nCall, name: name, args: append([]*node{n}, args...)}
			} else {
				n = &node{kind: nMember, left: n, name: name}
			}
		case tokLBracket:
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			n = &node{kind: nIndex, left: n, right: idx}
		default:
			return n, nil
		}
	}
}

func (p *parser) parseArgs() ([]*node, error) {
	if err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	var args []*node
	if p.cur.kind == tokRParen {
		return args, p.advance()
	}
	for {
		a, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return args, p.expect(tokRParen, "')'")
}

func (p *parser) parsePrimary() (*node, error) {
	switch p.cur.kind {
	case tokNumber:
		t := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		if t.isInt {
			return &node{kind: nLiteral, lit: value.Integer(t.intv)}, nil
		}
		return &node{kind: nLiteral, lit: value.Double(t.num)}, nil
	case tokString:
		t := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &node{kind: nLiteral, lit: value.String(t.text)}, nil
	case tokTrue:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &node{kind: nLiteral, lit: value.Boolean(true)}, nil
	case tokFalse:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &node{kind: nLiteral, lit: value.Boolean(false)}, nil
	case tokNull:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &node{kind: nLiteral, lit: value.Null()}, nil
	case tokIdent:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokLParen {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &node{kind: nCall, name: name, args: args}, nil
		}
		return &node{kind: nIdent, name: name}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return n, p.expect(tokRParen, "')'")
	case tokLBracket:
		return p.parseArray()
	case tokLBrace:
		return p.parseMap()
	}
	return nil, fmt.Errorf("expr: unexpected token in expression")
}

func (p *parser) parseArray() (*node, error) {
	if err := p.expect(tokLBracket, "'['"); err != nil {
		return nil, err
	}
	n := &node{kind: nArray}
	if p.cur.kind == tokRBracket {
		return n, p.advance()
	}
	for {
		item, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n.args = append(n.args, item)
		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return n, p.expect(tokRBracket, "']'")
}

func (p *parser) parseMap() (*node, error) {
	if err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	n := &node{kind: nMapLit}
	if p.cur.kind == tokRBrace {
		return n, p.advance()
	}
	for {
		key, err := p.parseExpr(7) // above assignment/comparison, below nothing else needed before ':'
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokColon, "':'"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n.mapKeys = append(n.mapKeys, key)
		n.mapVals = append(n.mapVals, val)
		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return n, p.expect(tokRBrace, "'}'")
}
