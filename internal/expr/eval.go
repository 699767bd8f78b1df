package expr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/scigolib/happi/internal/ndarray"
)

type function struct {
	arity int
	unary func(float64) float64
	pair  func(float64, float64) float64
}

var functions = map[string]function{
	"sqrt":    {arity: 1, unary: math.Sqrt},
	"abs":     {arity: 1, unary: math.Abs},
	"exp":     {arity: 1, unary: math.Exp},
	"log":     {arity: 1, unary: math.Log},
	"log10":   {arity: 1, unary: math.Log10},
	"sin":     {arity: 1, unary: math.Sin},
	"cos":     {arity: 1, unary: math.Cos},
	"tan":     {arity: 1, unary: math.Tan},
	"arcsin":  {arity: 1, unary: math.Asin},
	"arccos":  {arity: 1, unary: math.Acos},
	"arctan":  {arity: 1, unary: math.Atan},
	"sinh":    {arity: 1, unary: math.Sinh},
	"cosh":    {arity: 1, unary: math.Cosh},
	"tanh":    {arity: 1, unary: math.Tanh},
	"floor":   {arity: 1, unary: math.Floor},
	"ceil":    {arity: 1, unary: math.Ceil},
	"arctan2": {arity: 2, pair: math.Atan2},
	"minimum": {arity: 2, pair: math.Min},
	"maximum": {arity: 2, pair: math.Max},
	"power":   {arity: 2, pair: math.Pow},
}

func (n *numberNode) eval(map[string]*ndarray.Array) (*ndarray.Array, error) {
	return ndarray.Scalar(n.v), nil
}

func (n *refNode) eval(env map[string]*ndarray.Array) (*ndarray.Array, error) {
	a, ok := env[n.name]
	if !ok || a == nil {
		return nil, fmt.Errorf("no data for quantity %q", n.name)
	}
	return a, nil
}

func (n *unaryNode) eval(env map[string]*ndarray.Array) (*ndarray.Array, error) {
	v, err := n.operand.eval(env)
	if err != nil {
		return nil, err
	}
	if n.op == "+" {
		return v, nil
	}
	out := v.Clone()
	floats.Scale(-1, out.Data)
	return out, nil
}

func (n *binaryNode) eval(env map[string]*ndarray.Array) (*ndarray.Array, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}

	if sameShape(l, r) {
		out := ndarray.Zeros(l.Shape...)
		switch n.op {
		case "+":
			floats.AddTo(out.Data, l.Data, r.Data)
			return out, nil
		case "-":
			floats.SubTo(out.Data, l.Data, r.Data)
			return out, nil
		case "*":
			floats.MulTo(out.Data, l.Data, r.Data)
			return out, nil
		case "/":
			floats.DivTo(out.Data, l.Data, r.Data)
			return out, nil
		}
	}
	return broadcast(l, r, binaryOps[n.op])
}

var binaryOps = map[string]func(float64, float64) float64{
	"+":  func(a, b float64) float64 { return a + b },
	"-":  func(a, b float64) float64 { return a - b },
	"*":  func(a, b float64) float64 { return a * b },
	"/":  func(a, b float64) float64 { return a / b },
	"**": math.Pow,
}

func (n *callNode) eval(env map[string]*ndarray.Array) (*ndarray.Array, error) {
	fn := functions[n.name]
	args := make([]*ndarray.Array, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if fn.arity == 1 {
		return args[0].Clone().Apply(fn.unary), nil
	}
	return broadcast(args[0], args[1], fn.pair)
}

// broadcast applies fn elementwise. Zero-dimensional operands are repeated
// over the other operand; otherwise shapes must match.
func broadcast(l, r *ndarray.Array, fn func(float64, float64) float64) (*ndarray.Array, error) {
	switch {
	case sameShape(l, r):
		out := ndarray.Zeros(l.Shape...)
		for i := range out.Data {
			out.Data[i] = fn(l.Data[i], r.Data[i])
		}
		return out, nil
	case isScalar(r):
		out := ndarray.Zeros(l.Shape...)
		s := r.Data[0]
		for i, x := range l.Data {
			out.Data[i] = fn(x, s)
		}
		return out, nil
	case isScalar(l):
		out := ndarray.Zeros(r.Shape...)
		s := l.Data[0]
		for i, x := range r.Data {
			out.Data[i] = fn(s, x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("operands could not be broadcast together with shapes %v %v", l.Shape, r.Shape)
}

func isScalar(a *ndarray.Array) bool {
	return len(a.Shape) == 0 && len(a.Data) == 1
}

func sameShape(a, b *ndarray.Array) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}
