// Package axis resolves per-axis directives (subset, average, stride) into
// concrete index selections, output extents, units and bin sizes.
package axis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/scigolib/happi/internal/utils"
)

// Spec describes the native grid of one dimension of a diagnostic.
// It is immutable once read from source metadata.
type Spec struct {
	Type          string  // Axis label, e.g. "x", "r", "px", "ekin".
	Min           float64 // Lower edge of the first bin.
	Max           float64 // Upper edge of the last bin.
	Size          int     // Number of bins.
	Log           bool    // Bins are evenly spaced in log10.
	EdgesIncluded bool    // Outermost bins also collect out-of-range values.
}

// FieldSpec returns the spec of a regular grid whose n centers are
// offset, offset+spacing, ..., offset+(n-1)*spacing.
func FieldSpec(label string, offset, spacing float64, n int) Spec {
	return Spec{
		Type: label,
		Min:  offset - spacing/2,
		Max:  offset + (float64(n)-0.5)*spacing,
		Size: n,
	}
}

// Validate checks that the spec can produce edges and centers.
func (s Spec) Validate() error {
	if s.Size < 1 {
		return utils.Errorf(utils.ErrConfiguration, "axis %q: size must be positive (got %d)", s.Type, s.Size)
	}
	if !(s.Max > s.Min) {
		return utils.Errorf(utils.ErrConfiguration, "axis %q: max (%g) must exceed min (%g)", s.Type, s.Max, s.Min)
	}
	if s.Log && s.Min <= 0 {
		return utils.Errorf(utils.ErrConfiguration, "axis %q: log scale requires a positive min (got %g)", s.Type, s.Min)
	}
	return nil
}

// Edges returns the Size+1 bin edges, linearly or logarithmically spaced.
func (s Spec) Edges() []float64 {
	edges := make([]float64, s.Size+1)
	if s.Log {
		return floats.LogSpan(edges, s.Min, s.Max)
	}
	return floats.Span(edges, s.Min, s.Max)
}

// Centers returns the Size bin centers. For log axes the center is taken
// in log space.
func (s Spec) Centers() []float64 {
	centers := make([]float64, s.Size)
	if s.Log {
		lmin, lmax := math.Log10(s.Min), math.Log10(s.Max)
		step := (lmax - lmin) / float64(s.Size)
		for i := range centers {
			centers[i] = math.Pow(10, lmin+(float64(i)+0.5)*step)
		}
		return centers
	}
	step := (s.Max - s.Min) / float64(s.Size)
	for i := range centers {
		centers[i] = s.Min + (float64(i)+0.5)*step
	}
	return centers
}

// Widths returns the width of every bin.
func (s Spec) Widths() []float64 {
	edges := s.Edges()
	widths := make([]float64, s.Size)
	for i := range widths {
		widths[i] = edges[i+1] - edges[i]
	}
	return widths
}

// String formats the spec the way particle binning headers describe axes.
func (s Spec) String() string {
	str := fmt.Sprintf("%s from %g to %g in %d steps", s.Type, s.Min, s.Max, s.Size)
	if s.Log {
		str += " [ LOG SCALE ]"
	}
	if s.EdgesIncluded {
		str += " [ INCLUDING EDGES ]"
	}
	return str
}
