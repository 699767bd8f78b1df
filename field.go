package happi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/cylindrical"
	"github.com/scigolib/happi/internal/expr"
	"github.com/scigolib/happi/internal/metrics"
	"github.com/scigolib/happi/internal/ndarray"
	"github.com/scigolib/happi/internal/source"
	"github.com/scigolib/happi/internal/timestep"
	"github.com/scigolib/happi/internal/utils"
)

// Dataset attributes of field diagnostics.
const (
	attrGridOffset  = "gridGlobalOffset"
	attrGridSpacing = "gridSpacing"
	attrTimeAverage = "time_average"
)

// quantityReader produces the pre-squeeze array of one quantity at one
// frame, by a direct read or a cylindrical reconstruction.
type quantityReader interface {
	read(frame source.Frame, name string) (*ndarray.Array, error)
}

type cartesianReader struct {
	sel []axis.Range
}

func (c cartesianReader) read(frame source.Frame, name string) (*ndarray.Array, error) {
	ds, err := frame.Dataset(name)
	if err != nil {
		return nil, err
	}
	return ds.Read(c.sel)
}

type polarReader struct {
	synth    cylindrical.Synthesizer
	table    cylindrical.ModeTable
	modes    []int
	geometry string
	metrics  *metrics.Collector
}

func (p polarReader) read(frame source.Frame, name string) (*ndarray.Array, error) {
	r := cylindrical.ReaderFunc(func(field string, m int, sel []axis.Range) (*ndarray.Array, error) {
		ds, err := frame.Dataset(cylindrical.ModeName(field, m))
		if err != nil {
			return nil, err
		}
		return ds.Read(sel)
	})
	out, n, err := p.synth.Synthesize(r, name, p.table[name], p.modes)
	p.metrics.ModesSynthesized(p.geometry, n)
	return out, err
}

// fieldEngine implements the field pipeline: read (or reconstruct), apply
// the operation, average, squeeze and optionally take log10.
type fieldEngine struct {
	d        *Diagnostic
	number   int
	op       *expr.Operation
	reader   quantityReader
	preShape []int
	offset   []float64
	spacing  []float64
	modes    []int
}

// NewField builds the field diagnostic number over sources, which hold
// the same diagnostic for successive restarts: a timestep recorded by
// several sources is read from the last one. operation combines the field
// names, e.g. "Ex" or "Ex**2+Ey**2". Fields stored as azimuthal modes
// ("Bz_mode_0", "Bz_mode_1", ...) are cylindrical and need WithTheta or
// WithBuild3D.
//
// Parameters:
//   - number: Field diagnostic number, as in Fields<number>.h5
//   - sources: Restarts of the diagnostic, oldest first
//   - operation: Expression over field names
//   - opts: Timestep selection, axis directives, reconstruction
//
// Returns:
//   - *Diagnostic: Never nil; invalid when construction failed
//   - error: Every construction problem, joined
//
// Example:
//
//	src := happi.NewMemorySource("Fields0.h5", nil)
//	src.AddFrame(0, nil).Put("Ex", arr, nil)
//	d, err := happi.NewField(0, []happi.Source{src}, "Ex", happi.WithSubset("x", []float64{2, 5}))
func NewField(number int, sources []Source, operation string, opts ...Option) (*Diagnostic, error) {
	s := newSettings(opts)
	d := newDiagnostic(source.LayoutFields.String(), source.KindFields.Prefix+strconv.Itoa(number), s)
	d.sources = sources
	if d.errs.Len() > 0 {
		return d.fail(nil)
	}
	eng, err := newFieldEngine(d, number, operation)
	if err != nil {
		return d.fail(err)
	}
	d.eng = eng
	return d.ready()
}

func newFieldEngine(d *Diagnostic, number int, operation string) (*fieldEngine, error) {
	s := d.settings
	if len(d.sources) == 0 {
		return nil, utils.Errorf(utils.ErrConfiguration, "no source for field diagnostic #%d", number)
	}

	names := commonFields(d.sources)
	steps := make([][]int64, len(d.sources))
	for i, src := range d.sources {
		steps[i] = source.Timesteps(src)
	}
	all := timestep.New(steps...)
	if all.Len() == 0 || len(names) == 0 {
		return nil, utils.Errorf(utils.ErrConfiguration, "no fields found in field diagnostic #%d", number)
	}
	d.index = all
	if s.timesteps != nil {
		selected, err := all.Select(*s.timesteps)
		if err != nil {
			return nil, err
		}
		d.index = selected
	}

	table := cylindrical.NewModeTable(names)
	available := names
	switch {
	case len(table) > 0:
		if (s.theta == nil) == (s.build3d == nil) {
			return nil, utils.Errorf(utils.ErrConfiguration,
				"in cylindrical geometry, one (and only one) of theta or build3d is required")
		}
		available = table.Fields()
		d.geometry = PolarPlane
		if s.build3d != nil {
			d.geometry = PolarVolume
		}
	case s.theta != nil || s.build3d != nil:
		return nil, utils.Errorf(utils.ErrConfiguration, "theta and build3d apply to cylindrical fields only")
	case len(s.modes) > 0:
		return nil, utils.Errorf(utils.ErrConfiguration, "modes apply to cylindrical fields only")
	}

	op, err := expr.Parse(operation, available)
	if err != nil {
		return nil, err
	}
	d.quantities = op.Names

	// Grid metadata comes from the first recorded frame.
	loc, _ := all.Lookup(all.Timesteps()[0])
	first := d.sources[loc.Source].Frames()[loc.Frame]
	rawShape, shape, offset, spacing, err := fieldGrid(first, names)
	if err != nil {
		return nil, err
	}

	f := &fieldEngine{d: d, number: number, op: op, offset: offset, spacing: spacing}
	specs, err := f.specs(shape)
	if err != nil {
		return nil, err
	}
	if err := d.resolveAxes(specs); err != nil {
		return nil, err
	}
	sel := d.selection()
	f.preShape = axis.Shape(sel)

	switch d.geometry {
	case Cartesian:
		f.reader = cartesianReader{sel: sel}
	case PolarPlane:
		plane, err := cylindrical.NewPlane(*s.theta, sel)
		if err != nil {
			return nil, utils.Errorf(utils.ErrConfiguration, "%v", err)
		}
		f.modes = cylindrical.Modes(table, op.Names, s.modes)
		f.reader = polarReader{synth: plane, table: table, modes: f.modes, geometry: d.geometry.String(), metrics: d.metrics}
	case PolarVolume:
		native, err := cylindrical.NativeAxes(offset, spacing, rawShape)
		if err != nil {
			return nil, err
		}
		geom, err := cylindrical.NewGeometry(*s.build3d, sel, native)
		if err != nil {
			return nil, err
		}
		f.modes = cylindrical.Modes(table, op.Names, s.modes)
		f.reader = polarReader{synth: geom, table: table, modes: f.modes, geometry: d.geometry.String(), metrics: d.metrics}
	}

	d.units, _ = expr.Replace(operation, op.Names, axis.FieldUnits)
	d.title = operation
	return f, nil
}

// specs returns the native axes: x, y, z for Cartesian fields and boxes,
// x, r for the cylindrical plane.
func (f *fieldEngine) specs(shape []int) ([]axis.Spec, error) {
	switch f.d.geometry {
	case PolarVolume:
		targets := *f.d.settings.build3d
		if err := cylindrical.CheckTargets(targets); err != nil {
			return nil, utils.WrapError("build3d", err)
		}
		var specs []axis.Spec
		for i, t := range targets {
			specs = append(specs, t.Spec(string("xyz"[i])))
		}
		return specs, nil
	case PolarPlane:
		if len(shape) != 2 {
			return nil, utils.Errorf(utils.ErrConfiguration, "cylindrical fields must be 2D (got shape %v)", shape)
		}
		shape = []int{shape[0], shape[1] / 2}
		return []axis.Spec{
			axis.FieldSpec("x", f.offset[0], f.spacing[0], shape[0]),
			axis.FieldSpec("r", f.offset[1], f.spacing[1], shape[1]),
		}, nil
	}
	if len(shape) > 3 {
		return nil, utils.Errorf(utils.ErrConfiguration, "fields have %d dimensions (at most 3)", len(shape))
	}
	specs := make([]axis.Spec, len(shape))
	for i, n := range shape {
		specs[i] = axis.FieldSpec(string("xyz"[i]), f.offset[i], f.spacing[i], n)
	}
	return specs, nil
}

func (f *fieldEngine) dataAt(_ int64, loc timestep.Location) (*ndarray.Array, error) {
	frame := f.d.sources[loc.Source].Frames()[loc.Frame]
	values := make(map[string]*ndarray.Array, len(f.op.Names))
	for _, name := range f.op.Names {
		a, err := f.reader.read(frame, name)
		if err != nil {
			return nil, utils.WrapError("field "+name, err)
		}
		if a, err = a.Reshape(f.preShape...); err != nil {
			return nil, utils.WrapError("field "+name, err)
		}
		values[name] = a
	}

	out, err := f.op.Eval(values)
	if err != nil {
		return nil, err
	}
	if out, err = out.Reshape(f.preShape...); err != nil {
		return nil, err
	}
	for i, a := range f.d.axes {
		if a.Transform.Kind == axis.Average {
			out = out.MeanAxis(i)
		}
	}
	out = out.Squeeze()
	if f.d.settings.dataLog {
		out.Log10()
	}
	return out, nil
}

func (f *fieldEngine) info() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Field diagnostic #%d: %s", f.number, f.d.title)
	if v, ok := f.d.sources[0].Attr(attrTimeAverage); ok {
		if tavg, ok := source.Float(v); ok && tavg > 1 {
			fmt.Fprintf(&b, "\n\tTime_average: %g timesteps", tavg)
		}
	}
	if anyPositive(f.offset) {
		fmt.Fprintf(&b, "\n\tGrid offset: %s", joinFloats(f.offset))
	}
	if cells := f.d.settings.grid.CellLength; len(cells) > 0 && !sameFloats(f.spacing, cells) {
		fmt.Fprintf(&b, "\n\tGrid spacing: %s", joinFloats(f.spacing))
	}
	switch f.d.geometry {
	case PolarPlane:
		fmt.Fprintf(&b, "\n\tReconstructed at theta = %g with modes %v", *f.d.settings.theta, f.modes)
	case PolarVolume:
		fmt.Fprintf(&b, "\n\tReconstructed on a %s box with modes %v", joinInts(axis.Shape(f.d.selection()), "x"), f.modes)
	}
	if sub := f.d.subsetInfo("\t", "Averaging"); sub != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimSuffix(sub, "\n"))
	}
	return b.String()
}

// commonFields returns the dataset names present in the first frame of
// every non-empty source.
func commonFields(sources []source.Source) []string {
	var names []string
	seen := false
	for _, src := range sources {
		frames := src.Frames()
		if len(frames) == 0 {
			continue
		}
		current := frames[0].Names()
		if !seen {
			names = current
			seen = true
			continue
		}
		present := make(map[string]bool, len(current))
		for _, n := range current {
			present[n] = true
		}
		kept := names[:0:0]
		for _, n := range names {
			if present[n] {
				kept = append(kept, n)
			}
		}
		names = kept
	}
	sort.Strings(names)
	return names
}

// fieldGrid reads the grid metadata of a frame: the shape of the first
// field, the element-wise smallest shape over all fields, and the grid
// offset and spacing. Missing offsets default to 0 and spacings to 1.
func fieldGrid(frame source.Frame, names []string) (raw, shape []int, offset, spacing []float64, err error) {
	var firstDS source.Dataset
	for _, name := range names {
		ds, err := frame.Dataset(name)
		if err != nil {
			return nil, nil, nil, nil, utils.WrapError("field "+name, err)
		}
		s := ds.Shape()
		if shape == nil {
			firstDS = ds
			raw = s
			shape = append([]int(nil), s...)
			continue
		}
		if len(s) != len(shape) {
			return nil, nil, nil, nil, utils.Errorf(utils.ErrConfiguration,
				"field %s has %d dimensions, %s has %d", name, len(s), firstDS.Name(), len(shape))
		}
		for i := range shape {
			if s[i] < shape[i] {
				shape[i] = s[i]
			}
		}
	}

	offset = make([]float64, len(raw))
	spacing = make([]float64, len(raw))
	for i := range spacing {
		spacing[i] = 1
	}
	if v, ok := firstDS.Attr(attrGridOffset); ok {
		if o, ok := source.Floats(v); ok {
			copy(offset, o)
		}
	}
	if v, ok := firstDS.Attr(attrGridSpacing); ok {
		if sp, ok := source.Floats(v); ok {
			copy(spacing, sp)
		}
	}
	return raw, shape, offset, spacing, nil
}

func anyPositive(v []float64) bool {
	for _, x := range v {
		if x > 0 {
			return true
		}
	}
	return false
}

func sameFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func joinFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

func joinInts(v []int, sep string) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, sep)
}
