package cylindrical

import (
	"fmt"
	"math"
	"sort"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/ndarray"
	"github.com/scigolib/happi/internal/utils"
)

// Target is one axis of a reconstructed box: points Start, Start+Step, ...
// strictly below Stop.
type Target struct {
	Start, Stop, Step float64
}

// Count returns the number of points, ceil((Stop-Start)/Step).
func (t Target) Count() int {
	if !(t.Step > 0) || !(t.Stop > t.Start) {
		return 0
	}
	return int(math.Ceil((t.Stop - t.Start) / t.Step))
}

// CheckTargets reports an empty target axis as ErrEmptyTargetGrid and an
// axis with more than utils.MaxSelectionElements points as ErrConfiguration.
func CheckTargets(targets [3]Target) error {
	for i, t := range targets {
		if t.Count() == 0 {
			return utils.Errorf(utils.ErrEmptyTargetGrid,
				"axis %c from %g to %g by %g has no point", "xyz"[i], t.Start, t.Stop, t.Step)
		}
		if n := (t.Stop - t.Start) / t.Step; n > utils.MaxSelectionElements {
			return utils.Errorf(utils.ErrConfiguration,
				"axis %c from %g to %g by %g has %.3g points (at most %d)", "xyz"[i], t.Start, t.Stop, t.Step, n, utils.MaxSelectionElements)
		}
	}
	return nil
}

// Points returns the point coordinates.
func (t Target) Points() []float64 {
	pts := make([]float64, t.Count())
	for i := range pts {
		pts[i] = t.Start + float64(i)*t.Step
	}
	return pts
}

// Spec returns the axis spec whose centers are the target points.
func (t Target) Spec(label string) axis.Spec {
	return axis.FieldSpec(label, t.Start, t.Step, t.Count())
}

// Native holds the coordinates of the stored (x, r) grid.
type Native struct {
	X []float64
	R []float64
}

// NativeAxes returns the stored grid positions. rawShape is the shape of a
// mode dataset; its r extent counts both real and imaginary parts.
func NativeAxes(offset, spacing []float64, rawShape []int) (Native, error) {
	if len(offset) < 2 || len(spacing) < 2 || len(rawShape) != 2 {
		return Native{}, utils.Errorf(utils.ErrConfiguration,
			"cylindrical data needs 2D grid metadata (offset %v, spacing %v, shape %v)", offset, spacing, rawShape)
	}
	n := Native{X: make([]float64, rawShape[0]), R: make([]float64, rawShape[1]/2)}
	for i := range n.X {
		n.X[i] = offset[0] + float64(i)*spacing[0]
	}
	for j := range n.R {
		n.R[j] = offset[1] + float64(j)*spacing[1]
	}
	return n, nil
}

// Geometry is the precomputed target box of a volume reconstruction:
// for every selected point its x coordinate, radius and angle.
type Geometry struct {
	Targets [3]Target
	Native  Native
	X       []float64
	Radius  []float64
	Theta   []float64
	shape   []int
}

// NewGeometry computes r = sqrt(y^2+z^2) and theta = atan2(z, y) over the
// (x, y, z) box, restricted to the selection, in row-major order.
func NewGeometry(targets [3]Target, sel []axis.Range, native Native) (*Geometry, error) {
	if err := CheckTargets(targets); err != nil {
		return nil, err
	}
	if len(sel) != 3 {
		return nil, fmt.Errorf("volume reconstruction needs an (x, y, z) selection, got %d axes", len(sel))
	}
	extents := make([]uint64, len(sel))
	for i, r := range sel {
		extents[i] = uint64(r.Count())
	}
	if _, err := utils.CountElements(extents); err != nil {
		return nil, utils.Errorf(utils.ErrConfiguration, "build3d box of %v points: %v", extents, err)
	}

	xs := sel[0].Pick(targets[0].Points())
	ys := sel[1].Pick(targets[1].Points())
	zs := sel[2].Pick(targets[2].Points())

	g := &Geometry{
		Targets: targets,
		Native:  native,
		shape:   []int{len(xs), len(ys), len(zs)},
	}
	n := len(xs) * len(ys) * len(zs)
	g.X = make([]float64, 0, n)
	g.Radius = make([]float64, 0, n)
	g.Theta = make([]float64, 0, n)
	for _, x := range xs {
		for _, y := range ys {
			for _, z := range zs {
				g.X = append(g.X, x)
				g.Radius = append(g.Radius, math.Hypot(y, z))
				g.Theta = append(g.Theta, math.Atan2(z, y))
			}
		}
	}
	return g, nil
}

// Shape returns the shape of reconstructed arrays.
func (g *Geometry) Shape() []int {
	return append([]int(nil), g.shape...)
}

// Synthesize interpolates every requested mode of field from the native
// grid onto the box, then sums cos(m*theta) Re_m + sin(m*theta) Im_m.
// Points outside the native grid get zero.
func (g *Geometry) Synthesize(r Reader, field string, nmodes int, modes []int) (*ndarray.Array, int, error) {
	out := ndarray.Zeros(g.shape...)
	added := 0
	nx, nr := len(g.Native.X), len(g.Native.R)

	for _, m := range modes {
		if m < 0 || m >= nmodes {
			continue
		}
		raw, err := r.ReadMode(field, m, nil)
		if err != nil {
			return nil, added, err
		}
		if len(raw.Shape) != 2 || raw.Shape[0] != nx || raw.Shape[1]/2 != nr {
			return nil, added, fmt.Errorf("%s: shape %v does not match native grid %dx%d",
				ModeName(field, m), raw.Shape, nx, 2*nr)
		}
		cols := raw.Shape[1]
		re := &grid{x: g.Native.X, r: g.Native.R, at: func(i, j int) float64 { return raw.Data[i*cols+2*j] }}
		im := &grid{x: g.Native.X, r: g.Native.R, at: func(i, j int) float64 { return raw.Data[i*cols+2*j+1] }}

		mf := float64(m)
		for k := range out.Data {
			out.Data[k] += math.Cos(mf*g.Theta[k]) * re.interpolate(g.X[k], g.Radius[k])
			if m > 0 {
				out.Data[k] += math.Sin(mf*g.Theta[k]) * im.interpolate(g.X[k], g.Radius[k])
			}
		}
		added++
	}
	return out, added, nil
}

// grid is a 2D regular-grid interpolant over ascending coordinates.
type grid struct {
	x, r []float64
	at   func(i, j int) float64
}

// interpolate returns the bilinear interpolation at (x, r), or 0 outside
// the grid.
func (g *grid) interpolate(x, r float64) float64 {
	i, tx, ok := locate(g.x, x)
	if !ok {
		return 0
	}
	j, tr, ok := locate(g.r, r)
	if !ok {
		return 0
	}
	v := (1 - tx) * (1 - tr) * g.at(i, j)
	if tx > 0 {
		v += tx * (1 - tr) * g.at(i+1, j)
	}
	if tr > 0 {
		v += (1 - tx) * tr * g.at(i, j+1)
		if tx > 0 {
			v += tx * tr * g.at(i+1, j+1)
		}
	}
	return v
}

// locate finds the cell [c[i], c[i+1]] holding v and the fractional
// position of v within it.
func locate(c []float64, v float64) (i int, t float64, ok bool) {
	n := len(c)
	if n == 0 || math.IsNaN(v) || v < c[0] || v > c[n-1] {
		return 0, 0, false
	}
	if n == 1 {
		return 0, 0, true
	}
	i = sort.SearchFloat64s(c, v) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	return i, (v - c[i]) / (c[i+1] - c[i]), true
}

func size(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
