// Package timestep indexes the recorded timesteps of one or more sources.
package timestep

import (
	"math"
	"sort"

	"github.com/scigolib/happi/internal/utils"
)

// Location addresses a recorded timestep: which source holds it and the
// frame index within that source.
type Location struct {
	Source int
	Frame  int
}

// Index maps timesteps to storage locations. It is built once and never
// mutated afterwards.
type Index struct {
	steps []int64
	loc   map[int64]Location
}

// New builds an index from the timestep list of every source, in source
// order. A timestep recorded by several sources resolves to the last one.
func New(sources ...[]int64) *Index {
	idx := &Index{loc: make(map[int64]Location)}
	for s, steps := range sources {
		for f, t := range steps {
			idx.loc[t] = Location{Source: s, Frame: f}
		}
	}
	idx.steps = make([]int64, 0, len(idx.loc))
	for t := range idx.loc {
		idx.steps = append(idx.steps, t)
	}
	sort.Slice(idx.steps, func(i, j int) bool { return idx.steps[i] < idx.steps[j] })
	return idx
}

// Lookup returns the location of timestep t.
func (x *Index) Lookup(t int64) (Location, bool) {
	l, ok := x.loc[t]
	return l, ok
}

// Timesteps returns the indexed timesteps in ascending order.
func (x *Index) Timesteps() []int64 {
	return append([]int64(nil), x.steps...)
}

// Len returns the number of indexed timesteps.
func (x *Index) Len() int {
	return len(x.steps)
}

// Selector restricts an index to the timestep nearest to one value, or to
// an inclusive range of values.
type Selector struct {
	Lo, Hi float64
	Range  bool
}

// Nearest selects the single timestep closest to t.
func Nearest(t float64) Selector { return Selector{Lo: t, Hi: t} }

// Between selects every timestep in [lo, hi].
func Between(lo, hi float64) Selector { return Selector{Lo: lo, Hi: hi, Range: true} }

// Select returns a new index restricted by sel. Ties of Nearest resolve to
// the earliest timestep. An empty result is a configuration error.
func (x *Index) Select(sel Selector) (*Index, error) {
	if len(x.steps) == 0 {
		return nil, utils.Errorf(utils.ErrConfiguration, "no timesteps recorded")
	}
	if sel.Lo < 0 || sel.Hi < 0 || math.IsNaN(sel.Lo) || math.IsNaN(sel.Hi) {
		return nil, utils.Errorf(utils.ErrConfiguration,
			"timesteps must be one or two non-negative numbers (got %g, %g)", sel.Lo, sel.Hi)
	}

	out := &Index{loc: make(map[int64]Location)}
	if !sel.Range {
		best := x.steps[0]
		for _, t := range x.steps[1:] {
			if math.Abs(float64(t)-sel.Lo) < math.Abs(float64(best)-sel.Lo) {
				best = t
			}
		}
		out.steps = []int64{best}
		out.loc[best] = x.loc[best]
		return out, nil
	}

	for _, t := range x.steps {
		if float64(t) >= sel.Lo && float64(t) <= sel.Hi {
			out.steps = append(out.steps, t)
			out.loc[t] = x.loc[t]
		}
	}
	if len(out.steps) == 0 {
		return nil, utils.Errorf(utils.ErrConfiguration, "no timestep in [%g, %g]", sel.Lo, sel.Hi)
	}
	return out, nil
}
