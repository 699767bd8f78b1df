package expr

import (
	"fmt"
	"math"

	"github.com/scigolib/happi/internal/ndarray"
)

// node is one element of a parsed operation.
type node interface {
	eval(env map[string]*ndarray.Array) (*ndarray.Array, error)
}

type numberNode struct{ v float64 }

type refNode struct{ name string }

type unaryNode struct {
	op      string
	operand node
}

type binaryNode struct {
	op          string
	left, right node
}

type callNode struct {
	name string
	args []node
}

// Binding powers. Exponentiation binds tighter than unary minus on its
// left and is right associative: -2**2 == -4, 2**-1 == 0.5.
const (
	precAdditive = 1
	precMultiply = 2
	precUnary    = 3
	precPower    = 4
)

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type parser struct {
	toks []token
	pos  int
	// unknown collects identifiers that are neither functions nor constants.
	unknown []string
}

func parse(src string) (node, []string, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, nil, err
	}
	p := &parser{toks: toks}
	n, err := p.expression(0)
	if err != nil {
		return nil, p.unknown, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unknown, fmt.Errorf("unexpected %q at %d", t.text, t.pos)
	}
	return n, p.unknown, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) error {
	if t := p.next(); t.kind != kind {
		return fmt.Errorf("expected %s at %d, found %q", what, t.pos, t.text)
	}
	return nil
}

func (p *parser) expression(minPrec int) (node, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			return left, nil
		}
		prec := infixPrec(t.text)
		if prec < minPrec || prec == 0 {
			return left, nil
		}
		p.next()
		// ** is right associative; the others associate to the left.
		next := prec + 1
		if t.text == "**" {
			next = prec
		}
		right, err := p.expression(next)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.text, left: left, right: right}
	}
}

func infixPrec(op string) int {
	switch op {
	case "+", "-":
		return precAdditive
	case "*", "/":
		return precMultiply
	case "**":
		return precPower
	}
	return 0
}

func (p *parser) prefix() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &numberNode{v: t.num}, nil

	case tokRef:
		return &refNode{name: t.text}, nil

	case tokOp:
		if t.text != "-" && t.text != "+" {
			return nil, fmt.Errorf("unexpected operator %q at %d", t.text, t.pos)
		}
		operand, err := p.expression(precUnary)
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: t.text, operand: operand}, nil

	case tokLParen:
		n, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return n, nil

	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		if v, ok := constants[t.text]; ok {
			return &numberNode{v: v}, nil
		}
		p.unknown = append(p.unknown, t.text)
		return nil, fmt.Errorf("unknown name %q at %d", t.text, t.pos)

	case tokEOF:
		return nil, fmt.Errorf("unexpected end of operation")
	}
	return nil, fmt.Errorf("unexpected %q at %d", t.text, t.pos)
}

func (p *parser) call(name token) (node, error) {
	fn, ok := functions[name.text]
	if !ok {
		return nil, fmt.Errorf("unsupported function %q at %d", name.text, name.pos)
	}
	p.next() // (
	var args []node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.expression(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	if len(args) != fn.arity {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", name.text, fn.arity, len(args))
	}
	return &callNode{name: name.text, args: args}, nil
}
