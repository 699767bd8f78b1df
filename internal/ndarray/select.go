package ndarray

import (
	"fmt"

	"github.com/scigolib/happi/internal/axis"
)

// Select extracts a hyperslab from row-major data of the given shape.
// The result has one dimension per range, of extent Range.Count(); single
// index ranges keep an extent-1 dimension.
func Select(data []float64, shape []int, sel []axis.Range) (*Array, error) {
	if len(sel) != len(shape) {
		return nil, fmt.Errorf("selection has %d dimensions, data has %d", len(sel), len(shape))
	}
	if product(shape) != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, product(shape), len(data))
	}
	for i, r := range sel {
		if r.Count() == 0 {
			return nil, fmt.Errorf("empty selection in dimension %d", i)
		}
		if r.Start < 0 || r.Last() >= shape[i] {
			return nil, fmt.Errorf("selection out of bounds in dimension %d: %d..%d of %d",
				i, r.Start, r.Last(), shape[i])
		}
	}

	out := Zeros(axis.Shape(sel)...)
	if out.Size() == 0 {
		return out, nil
	}

	idx := make([]int, len(sel))
	src := make([]int, len(sel))
	for k := range out.Data {
		for d := range sel {
			src[d] = sel[d].Start + idx[d]*sel[d].Step
		}
		out.Data[k] = data[offset(src, shape)]

		// Odometer increment, last dimension fastest.
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < out.Shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out, nil
}
