package axis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/scigolib/happi/internal/utils"
)

// TransformKind is the resolved intent for one axis.
type TransformKind int

const (
	// Keep retains the axis, optionally strided.
	Keep TransformKind = iota
	// Average reduces the selected bins to one value.
	Average
	// SliceSingle keeps a single bin; the axis is squeezed away.
	SliceSingle
	// SliceRange keeps a contiguous (possibly strided) range of bins.
	SliceRange
)

// String returns the transform name.
func (k TransformKind) String() string {
	switch k {
	case Keep:
		return "keep"
	case Average:
		return "average"
	case SliceSingle:
		return "slice"
	case SliceRange:
		return "range"
	default:
		return fmt.Sprintf("TransformKind(%d)", int(k))
	}
}

// Transform is exactly one resolved intent per axis.
type Transform struct {
	Kind   TransformKind
	Stride int // Keep and SliceRange.
	Index  int // SliceSingle.
	Start  int // SliceRange and Average: first bin.
	End    int // SliceRange and Average: last bin (inclusive).
}

// Request gathers the user directives for one axis.
// Subset and Average must not both be set.
type Request struct {
	Average *Directive
	Subset  *Directive
	Stride  int
}

// Resolved is the outcome of resolving one axis.
type Resolved struct {
	Spec      Spec
	Centers   []float64 // All bin centers of the native axis.
	Edges     []float64 // All bin edges of the native axis.
	Transform Transform
	Selection Range
	// BinSize is the coordinate span reduced by an Average transform.
	BinSize float64
	Units   string
	Info    string // Human-readable description of the subset or average.
}

// Retained reports whether the axis survives squeezing.
func (r Resolved) Retained() bool {
	return r.Transform.Kind == Keep || r.Transform.Kind == SliceRange
}

// Extent returns the pre-squeeze extent of the axis.
func (r Resolved) Extent() int {
	return r.Selection.Count()
}

// SelectedCenters returns the centers of the selected bins.
func (r Resolved) SelectedCenters() []float64 {
	return r.Selection.Pick(r.Centers)
}

// SelectedWidths returns the widths of the selected bins.
func (r Resolved) SelectedWidths() []float64 {
	widths := make([]float64, 0, r.Selection.Count())
	for _, i := range r.Selection.Indices() {
		widths = append(widths, r.Edges[i+1]-r.Edges[i])
	}
	return widths
}

// Resolve turns the directives of one axis into a transform, a selection
// and the associated bookkeeping.
//
// Rules:
//   - no directive: Keep(stride) over the full axis
//   - average "all": Average over the full axis, bin size = total span
//   - a number: nearest bin center (ties resolved to the lowest index)
//   - a [lo, hi] pair: every bin with lo <= center <= hi, ErrEmptySelection if none
//   - subset and average on the same axis: ErrConflictingAxisDirective
func Resolve(spec Spec, req Request) (Resolved, error) {
	if err := spec.Validate(); err != nil {
		return Resolved{}, err
	}
	if req.Average != nil && req.Subset != nil {
		return Resolved{}, utils.Errorf(utils.ErrConflictingAxisDirective,
			"`subset` not possible on the same axis as `average` (%s)", spec.Type)
	}

	res := Resolved{
		Spec:    spec,
		Centers: spec.Centers(),
		Edges:   spec.Edges(),
		Units:   Units(spec.Type),
	}
	label := spec.Type

	switch {
	case req.Average != nil:
		d := *req.Average
		if d.Kind == DirectiveAll {
			res.Transform = Transform{Kind: Average, Start: 0, End: spec.Size - 1}
			res.Selection = Full(spec.Size, 1)
			res.BinSize = res.Edges[spec.Size] - res.Edges[0]
			res.Info = "Averaging for all " + label
			return res, nil
		}
		first, last, err := matchBins(res.Centers, d, label)
		if err != nil {
			return Resolved{}, err
		}
		res.Transform = Transform{Kind: Average, Start: first, End: last}
		if first == last {
			res.Selection = Index(first)
			res.Info = fmt.Sprintf("Averaging at %s = %g", label, res.Centers[first])
		} else {
			res.Selection = Span(first, last, 1)
			res.Info = fmt.Sprintf("Averaging %s from %g to %g", label, res.Edges[first], res.Edges[last+1])
		}
		res.BinSize = res.Edges[last+1] - res.Edges[first]
		return res, nil

	case req.Subset != nil && req.Subset.Kind != DirectiveAll:
		d := *req.Subset
		first, last, err := matchBins(res.Centers, d, label)
		if err != nil {
			return Resolved{}, err
		}
		if first == last {
			res.Transform = Transform{Kind: SliceSingle, Index: first}
			res.Selection = Index(first)
			res.Info = fmt.Sprintf("Slicing at %s = %g", label, res.Centers[first])
			return res, nil
		}
		step := subsetStride(res.Centers, first, last, d.Step)
		res.Transform = Transform{Kind: SliceRange, Stride: step, Start: first, End: last}
		res.Selection = Span(first, last, step)
		res.Info = fmt.Sprintf("Subset %s from %g to %g", label, res.Edges[first], res.Edges[last+1])
		return res, nil
	}

	stride := req.Stride
	if stride < 1 {
		stride = 1
	}
	res.Transform = Transform{Kind: Keep, Stride: stride}
	res.Selection = Full(spec.Size, stride)
	return res, nil
}

// matchBins returns the inclusive index range designated by an At or
// Between directive.
func matchBins(centers []float64, d Directive, label string) (first, last int, err error) {
	if d.Kind == DirectiveAt {
		i := Nearest(centers, d.Lo)
		return i, i, nil
	}
	first, last = -1, -1
	for i, c := range centers {
		if c >= d.Lo && c <= d.Hi {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0, 0, utils.Errorf(utils.ErrEmptySelection,
			"no %s bin in [%g, %g] (axis spans %g to %g)", label, d.Lo, d.Hi, centers[0], centers[len(centers)-1])
	}
	return first, last, nil
}

// Nearest returns the index of the center closest to v. Equal distances
// resolve to the lowest index.
func Nearest(centers []float64, v float64) int {
	dist := make([]float64, len(centers))
	for i, c := range centers {
		dist[i] = math.Abs(c - v)
	}
	return floats.MinIdx(dist)
}

// subsetStride converts a coordinate step into an index stride.
func subsetStride(centers []float64, first, last int, step float64) int {
	if step <= 0 || last <= first {
		return 1
	}
	spacing := (centers[last] - centers[first]) / float64(last-first)
	if spacing <= 0 {
		return 1
	}
	n := int(math.Round(step / spacing))
	if n < 1 {
		return 1
	}
	return n
}
