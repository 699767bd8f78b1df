package axis

// Range is the index selection applied to one dimension of raw storage:
// indices Start, Start+Step, ... strictly below Stop.
// Single marks a selection that addresses one index and is squeezed away.
type Range struct {
	Start  int
	Stop   int
	Step   int
	Single bool
}

// Full selects every step-th index of an axis of size n.
func Full(n, step int) Range {
	if step < 1 {
		step = 1
	}
	return Range{Start: 0, Stop: n, Step: step}
}

// Index selects the single index i.
func Index(i int) Range {
	return Range{Start: i, Stop: i + 1, Step: 1, Single: true}
}

// Span selects the inclusive index range [first, last] with the given step.
func Span(first, last, step int) Range {
	if step < 1 {
		step = 1
	}
	return Range{Start: first, Stop: last + 1, Step: step}
}

// Count returns the number of selected indices.
func (r Range) Count() int {
	if r.Stop <= r.Start || r.Step < 1 {
		return 0
	}
	return (r.Stop - r.Start + r.Step - 1) / r.Step
}

// Indices lists the selected indices in ascending order.
func (r Range) Indices() []int {
	idx := make([]int, 0, r.Count())
	for i := r.Start; i < r.Stop; i += r.Step {
		idx = append(idx, i)
	}
	return idx
}

// Last returns the last selected index.
func (r Range) Last() int {
	return r.Start + (r.Count()-1)*r.Step
}

// Doubled maps a selection over complex values onto storage where real and
// imaginary parts are interleaved: start, stop and step are doubled and
// offset (0 for the real part, 1 for the imaginary part) is added to the
// bounds. The number of selected elements is unchanged.
func (r Range) Doubled(offset int) Range {
	return Range{
		Start:  2*r.Start + offset,
		Stop:   2*r.Stop + offset,
		Step:   2 * r.Step,
		Single: r.Single,
	}
}

// Shape returns the extent of every range of a multi-axis selection.
func Shape(sel []Range) []int {
	shape := make([]int, len(sel))
	for i, r := range sel {
		shape[i] = r.Count()
	}
	return shape
}

// Pick returns the values at the selected indices.
func (r Range) Pick(values []float64) []float64 {
	out := make([]float64, 0, r.Count())
	for i := r.Start; i < r.Stop && i < len(values); i += r.Step {
		out = append(out, values[i])
	}
	return out
}
