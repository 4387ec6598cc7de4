package main

import (
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/benbjohnson/clari"
	"github.com/pkg/errors"
)

// Parser builds expressions from s-expressions such as
// (And (ULT x (bv 10 8)) (Not p)). Operators are named as they print.
//
// Literals are written as true, false, "string", (bv VALUE WIDTH),
// (fp32 VALUE) and (fp64 VALUE). Any other bare word names a symbol.
type Parser struct {
	f       *clari.Factory
	symbols map[string]*clari.Expr

	kinds     map[string]clari.OpKind
	roundings map[string]clari.Rounding
}

// NewParser returns a new instance of Parser resolving names against symbols.
func NewParser(f *clari.Factory, symbols map[string]*clari.Expr) *Parser {
	p := &Parser{
		f:         f,
		symbols:   symbols,
		kinds:     make(map[string]clari.OpKind),
		roundings: make(map[string]clari.Rounding),
	}
	for _, k := range clari.OpKinds() {
		p.kinds[k.String()] = k
	}
	for r := clari.RoundNearestTiesEven; r <= clari.RoundTowardZero; r++ {
		p.roundings[r.String()] = r
	}
	return p
}

// node is a parsed s-expression: an atom or a list.
type node struct {
	atom   string
	quoted bool
	list   []*node
	isList bool
}

// Parse builds the expression written in s.
func (p *Parser) Parse(s string) (*clari.Expr, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}

	n, rest, err := parseNode(tokens)
	if err != nil {
		return nil, err
	} else if len(rest) > 0 {
		return nil, errors.Wrapf(clari.ErrUsage, "unexpected trailing input: %s", strings.Join(rest, " "))
	}
	return p.build(n)
}

func tokenize(s string) ([]string, error) {
	var tokens []string
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(' || c == ')':
			tokens, i = append(tokens, string(c)), i+1
		case c == '"':
			j := i + 1
			for ; j < len(s) && s[j] != '"'; j++ {
				if s[j] == '\\' {
					j++
				}
			}
			if j >= len(s) {
				return nil, errors.Wrap(clari.ErrUsage, "unterminated string")
			}
			tokens, i = append(tokens, s[i:j+1]), j+1
		default:
			j := i
			for ; j < len(s) && !unicode.IsSpace(rune(s[j])) && s[j] != '(' && s[j] != ')'; j++ {
			}
			tokens, i = append(tokens, s[i:j]), j
		}
	}
	return tokens, nil
}

func parseNode(tokens []string) (*node, []string, error) {
	if len(tokens) == 0 {
		return nil, nil, errors.Wrap(clari.ErrUsage, "unexpected end of input")
	}

	switch tok := tokens[0]; tok {
	case ")":
		return nil, nil, errors.Wrap(clari.ErrUsage, "unexpected )")
	case "(":
		n := &node{isList: true}
		tokens = tokens[1:]
		for {
			if len(tokens) == 0 {
				return nil, nil, errors.Wrap(clari.ErrUsage, "missing )")
			} else if tokens[0] == ")" {
				return n, tokens[1:], nil
			}
			child, rest, err := parseNode(tokens)
			if err != nil {
				return nil, nil, err
			}
			n.list, tokens = append(n.list, child), rest
		}
	default:
		if strings.HasPrefix(tok, `"`) {
			s, err := strconv.Unquote(tok)
			if err != nil {
				return nil, nil, errors.Wrapf(clari.ErrUsage, "invalid string %s", tok)
			}
			return &node{atom: s, quoted: true}, tokens[1:], nil
		}
		return &node{atom: tok}, tokens[1:], nil
	}
}

func (p *Parser) build(n *node) (*clari.Expr, error) {
	if !n.isList {
		return p.buildAtom(n)
	} else if len(n.list) == 0 || n.list[0].isList || n.list[0].quoted {
		return nil, errors.Wrap(clari.ErrUsage, "expected operator name")
	}

	name, args := n.list[0].atom, n.list[1:]
	switch name {
	case "bv":
		return p.buildBV(args)
	case "fp32", "fp64":
		return p.buildFP(name, args)
	}

	kind, ok := p.kinds[name]
	if !ok || kind == clari.LITERAL || kind == clari.SYMBOL {
		return nil, errors.Wrapf(clari.ErrUsage, "unknown operator %q", name)
	}

	switch kind.Shape() {
	case clari.ShapeUnary:
		operands, err := p.buildAll(name, args, 1)
		if err != nil {
			return nil, err
		}
		return p.f.Unary(kind, operands[0])

	case clari.ShapeBinary:
		operands, err := p.buildAll(name, args, 2)
		if err != nil {
			return nil, err
		}
		return p.f.Binary(kind, operands[0], operands[1])

	case clari.ShapeFlat:
		operands, err := p.buildAll(name, args, -1)
		if err != nil {
			return nil, err
		}
		return p.f.Flat(kind, operands...)

	case clari.ShapeUIntBinary:
		if len(args) != 2 {
			return nil, errors.Wrapf(clari.ErrUsage, "%s: expected 2 arguments, got %d", name, len(args))
		}
		x, err := p.build(args[0])
		if err != nil {
			return nil, err
		}
		v, err := parseUint(args[1])
		if err != nil {
			return nil, err
		}
		return p.f.UIntBinary(kind, x, v)

	case clari.ShapeExtract:
		if len(args) != 3 {
			return nil, errors.Wrapf(clari.ErrUsage, "%s: expected 3 arguments, got %d", name, len(args))
		}
		high, err := parseUint(args[0])
		if err != nil {
			return nil, err
		}
		low, err := parseUint(args[1])
		if err != nil {
			return nil, err
		}
		x, err := p.build(args[2])
		if err != nil {
			return nil, err
		}
		return p.f.Extract(high, low, x)

	case clari.ShapeIf:
		operands, err := p.buildAll(name, args, 3)
		if err != nil {
			return nil, err
		}
		return p.f.If(operands[0], operands[1], operands[2])

	case clari.ShapeFPBinary:
		if len(args) != 3 || args[0].isList {
			return nil, errors.Wrapf(clari.ErrUsage, "%s: expected rounding and 2 arguments", name)
		}
		mode, ok := p.roundings[args[0].atom]
		if !ok {
			return nil, errors.Wrapf(clari.ErrUsage, "%s: unknown rounding %q", name, args[0].atom)
		}
		operands, err := p.buildAll(name, args[1:], 2)
		if err != nil {
			return nil, err
		}
		return p.f.FPBinary(kind, mode, operands[0], operands[1])

	case clari.ShapeFPConvert:
		if len(args) != 3 || args[0].isList {
			return nil, errors.Wrapf(clari.ErrUsage, "%s: expected rounding, argument and width", name)
		}
		mode, ok := p.roundings[args[0].atom]
		if !ok {
			return nil, errors.Wrapf(clari.ErrUsage, "%s: unknown rounding %q", name, args[0].atom)
		}
		x, err := p.build(args[1])
		if err != nil {
			return nil, err
		}
		width, err := parseUint(args[2])
		if err != nil {
			return nil, err
		}
		return p.f.FPConvert(kind, mode, x, width)

	case clari.ShapeTernary:
		operands, err := p.buildAll(name, args, 3)
		if err != nil {
			return nil, err
		}
		return p.f.Ternary(kind, operands[0], operands[1], operands[2])

	case clari.ShapeIndexOf:
		if len(args) != 4 {
			return nil, errors.Wrapf(clari.ErrUsage, "%s: expected 4 arguments, got %d", name, len(args))
		}
		operands, err := p.buildAll(name, args[:3], 3)
		if err != nil {
			return nil, err
		}
		width, err := parseUint(args[3])
		if err != nil {
			return nil, err
		}
		return p.f.IndexOf(operands[0], operands[1], operands[2], width)
	}
	return nil, errors.Wrapf(clari.ErrUnsupported, "operator %s", name)
}

// buildAll builds every argument. A non-negative n requires exactly n.
func (p *Parser) buildAll(name string, args []*node, n int) ([]*clari.Expr, error) {
	if n >= 0 && len(args) != n {
		return nil, errors.Wrapf(clari.ErrUsage, "%s: expected %d arguments, got %d", name, n, len(args))
	}
	operands := make([]*clari.Expr, len(args))
	for i, arg := range args {
		e, err := p.build(arg)
		if err != nil {
			return nil, err
		}
		operands[i] = e
	}
	return operands, nil
}

func (p *Parser) buildAtom(n *node) (*clari.Expr, error) {
	if n.quoted {
		return p.f.StringLit(n.atom), nil
	}
	switch n.atom {
	case "true":
		return p.f.True(), nil
	case "false":
		return p.f.False(), nil
	}
	if e, ok := p.symbols[n.atom]; ok {
		return e, nil
	}
	return nil, errors.Wrapf(clari.ErrUsage, "undeclared symbol %q", n.atom)
}

// buildBV builds (bv VALUE WIDTH). VALUE may use a 0x, 0o or 0b prefix.
func (p *Parser) buildBV(args []*node) (*clari.Expr, error) {
	if len(args) != 2 || args[0].isList {
		return nil, errors.Wrap(clari.ErrUsage, "bv: expected value and width")
	}
	v, ok := new(big.Int).SetString(args[0].atom, 0)
	if !ok {
		return nil, errors.Wrapf(clari.ErrUsage, "bv: invalid value %q", args[0].atom)
	}
	width, err := parseUint(args[1])
	if err != nil {
		return nil, err
	}

	switch width {
	case clari.Width8, clari.Width16, clari.Width32, clari.Width64:
		if v.IsUint64() {
			return p.f.BVLit(v.Uint64(), width)
		}
	}
	return p.f.BigIntLit(v, width)
}

func (p *Parser) buildFP(name string, args []*node) (*clari.Expr, error) {
	if len(args) != 1 || args[0].isList {
		return nil, errors.Wrapf(clari.ErrUsage, "%s: expected one value", name)
	}
	bitSize := 64
	if name == "fp32" {
		bitSize = 32
	}
	v, err := strconv.ParseFloat(args[0].atom, bitSize)
	if err != nil {
		return nil, errors.Wrapf(clari.ErrUsage, "%s: invalid value %q", name, args[0].atom)
	}
	if bitSize == 32 {
		return p.f.Float32Lit(float32(v)), nil
	}
	return p.f.Float64Lit(v), nil
}

func parseUint(n *node) (uint, error) {
	if n.isList {
		return 0, errors.Wrap(clari.ErrUsage, "expected integer")
	}
	v, err := strconv.ParseUint(n.atom, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(clari.ErrUsage, "invalid integer %q", n.atom)
	}
	return uint(v), nil
}
