package cylindrical

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/ndarray"
)

// Plane reconstructs the (x, r) half-plane at a fixed angle theta:
//
//	F(x, r) = sum_m cos(m*theta) Re_m(x, r) + sin(m*theta) Im_m(x, r)
type Plane struct {
	Theta float64
	Real  []axis.Range // Selection of the real parts in storage.
	Imag  []axis.Range // Selection of the imaginary parts in storage.
	shape []int
}

// NewPlane builds the plane reconstruction for a selection over the (x, r)
// axes of the complex data.
func NewPlane(theta float64, sel []axis.Range) (*Plane, error) {
	if len(sel) != 2 {
		return nil, fmt.Errorf("plane reconstruction needs an (x, r) selection, got %d axes", len(sel))
	}
	p := &Plane{
		Theta: theta,
		Real:  []axis.Range{sel[0], sel[1].Doubled(0)},
		Imag:  []axis.Range{sel[0], sel[1].Doubled(1)},
		shape: axis.Shape(sel),
	}
	return p, nil
}

// Shape returns the shape of reconstructed arrays.
func (p *Plane) Shape() []int {
	return append([]int(nil), p.shape...)
}

// Synthesize sums the requested modes of field into a new array and
// returns it with the number of modes actually added.
func (p *Plane) Synthesize(r Reader, field string, nmodes int, modes []int) (*ndarray.Array, int, error) {
	out := ndarray.Zeros(p.shape...)
	added := 0
	for _, m := range modes {
		if m < 0 || m >= nmodes {
			continue
		}
		re, err := p.read(r, field, m, p.Real)
		if err != nil {
			return nil, added, err
		}
		floats.AddScaled(out.Data, math.Cos(float64(m)*p.Theta), re.Data)
		if m > 0 {
			im, err := p.read(r, field, m, p.Imag)
			if err != nil {
				return nil, added, err
			}
			floats.AddScaled(out.Data, math.Sin(float64(m)*p.Theta), im.Data)
		}
		added++
	}
	return out, added, nil
}

func (p *Plane) read(r Reader, field string, m int, sel []axis.Range) (*ndarray.Array, error) {
	a, err := r.ReadMode(field, m, sel)
	if err != nil {
		return nil, err
	}
	if a.Size() != size(p.shape) {
		return nil, fmt.Errorf("%s: read %d values, expected shape %v", ModeName(field, m), a.Size(), p.shape)
	}
	return a, nil
}
