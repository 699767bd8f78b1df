// Package ndarray provides the dense row-major float64 arrays the engine
// reads, reconstructs, reduces and returns.
package ndarray

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Array is a dense N-dimensional array stored in row-major (C) order:
// the last dimension varies fastest.
type Array struct {
	Shape []int
	Data  []float64
}

// Zeros returns a zero-filled array of the given shape.
func Zeros(shape ...int) *Array {
	return &Array{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, product(shape)),
	}
}

// FromSlice wraps data (not copied) with the given shape.
func FromSlice(data []float64, shape ...int) (*Array, error) {
	if n := product(shape); n != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, n, len(data))
	}
	return &Array{Shape: append([]int(nil), shape...), Data: data}, nil
}

// Scalar returns a zero-dimensional array holding v.
func Scalar(v float64) *Array {
	return &Array{Shape: []int{}, Data: []float64{v}}
}

// Size returns the number of elements.
func (a *Array) Size() int {
	return len(a.Data)
}

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int {
	return len(a.Shape)
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	return &Array{
		Shape: append([]int(nil), a.Shape...),
		Data:  append([]float64(nil), a.Data...),
	}
}

// Reshape returns an array sharing a's data with a new shape.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	return FromSlice(a.Data, shape...)
}

// At returns the element at the given multi-index.
func (a *Array) At(idx ...int) float64 {
	return a.Data[offset(idx, a.Shape)]
}

// Set stores v at the given multi-index.
func (a *Array) Set(v float64, idx ...int) {
	a.Data[offset(idx, a.Shape)] = v
}

// SumAxis sums along axis, keeping it with extent 1.
func (a *Array) SumAxis(axis int) *Array {
	outer, n, inner := split(a.Shape, axis)
	shape := append([]int(nil), a.Shape...)
	shape[axis] = 1
	out := Zeros(shape...)
	for o := 0; o < outer; o++ {
		dst := out.Data[o*inner : (o+1)*inner]
		for k := 0; k < n; k++ {
			base := (o*n + k) * inner
			floats.Add(dst, a.Data[base:base+inner])
		}
	}
	return out
}

// MeanAxis averages along axis, keeping it with extent 1.
func (a *Array) MeanAxis(axis int) *Array {
	out := a.SumAxis(axis)
	if n := a.Shape[axis]; n > 0 {
		floats.Scale(1/float64(n), out.Data)
	}
	return out
}

// Squeeze removes every dimension of extent 1. Data is shared.
func (a *Array) Squeeze() *Array {
	shape := make([]int, 0, len(a.Shape))
	for _, n := range a.Shape {
		if n != 1 {
			shape = append(shape, n)
		}
	}
	return &Array{Shape: shape, Data: a.Data}
}

// Apply replaces every element x by fn(x), in place, and returns a.
func (a *Array) Apply(fn func(float64) float64) *Array {
	for i, v := range a.Data {
		a.Data[i] = fn(v)
	}
	return a
}

// Log10 applies the base-10 logarithm in place. Non-positive values
// become -Inf or NaN.
func (a *Array) Log10() *Array {
	return a.Apply(math.Log10)
}

// ReplaceNaN replaces NaN elements by v in place.
func (a *Array) ReplaceNaN(v float64) *Array {
	for i, x := range a.Data {
		if math.IsNaN(x) {
			a.Data[i] = v
		}
	}
	return a
}

// Divide divides a in place by b, whose data is repeated over the leading
// elements of a (b covers the trailing part of a's shape, or is a scalar).
func (a *Array) Divide(b []float64) error {
	if len(b) == 0 || len(a.Data)%len(b) != 0 {
		return fmt.Errorf("cannot broadcast %d divisors over %d elements", len(b), len(a.Data))
	}
	for start := 0; start < len(a.Data); start += len(b) {
		floats.Div(a.Data[start:start+len(b)], b)
	}
	return nil
}

// Equal reports whether a and b have the same shape and bit-identical data.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Shape) != len(b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	for i := range a.Data {
		if math.Float64bits(a.Data[i]) != math.Float64bits(b.Data[i]) {
			return false
		}
	}
	return true
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func split(shape []int, axis int) (outer, n, inner int) {
	outer, inner = 1, 1
	for i, s := range shape {
		switch {
		case i < axis:
			outer *= s
		case i > axis:
			inner *= s
		}
	}
	return outer, shape[axis], inner
}

func offset(idx, shape []int) int {
	off := 0
	for i, n := range shape {
		off = off*n + idx[i]
	}
	return off
}
