package happi

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/metrics"
	"github.com/scigolib/happi/internal/ndarray"
	"github.com/scigolib/happi/internal/source"
	"github.com/scigolib/happi/internal/timestep"
	"github.com/scigolib/happi/internal/utils"
)

// Geometry is the reconstruction strategy of a diagnostic, chosen once at
// construction.
type Geometry int

const (
	// Cartesian reads quantities directly.
	Cartesian Geometry = iota
	// PolarPlane reconstructs cylindrical modes on the (x, r) half-plane at
	// a fixed angle.
	PolarPlane
	// PolarVolume reconstructs cylindrical modes on a Cartesian box.
	PolarVolume
)

// String returns the geometry name.
func (g Geometry) String() string {
	switch g {
	case Cartesian:
		return "cartesian"
	case PolarPlane:
		return "polar-plane"
	case PolarVolume:
		return "polar-volume"
	default:
		return fmt.Sprintf("Geometry(%d)", int(g))
	}
}

// engine computes the data of one recorded timestep. Field and particle
// binning diagnostics differ only by their engine.
type engine interface {
	dataAt(t int64, loc timestep.Location) (*ndarray.Array, error)
	info() string
}

// Diagnostic answers data queries over the timesteps of one or more
// sources. It is either valid or, when construction failed, permanently
// invalid: every query then returns ErrInvalidDiagnostic.
type Diagnostic struct {
	kind     string
	name     string
	geometry Geometry

	settings *settings
	logger   *slog.Logger
	metrics  *metrics.Collector
	errs     utils.ErrorList
	valid    bool

	sources []source.Source
	owned   bool

	index *timestep.Index
	axes  []axis.Resolved
	eng   engine

	quantities []string
	units      string
	title      string
}

func newDiagnostic(kind, name string, s *settings) *Diagnostic {
	return &Diagnostic{
		kind:     kind,
		name:     name,
		settings: s,
		logger:   s.logger.With(slog.String("diagnostic", name)),
		metrics:  s.metrics,
		errs:     s.errs,
	}
}

// fail records err, if any, after the option errors and returns the
// invalid diagnostic with every construction error joined.
func (d *Diagnostic) fail(err error) (*Diagnostic, error) {
	d.errs.Add(err)
	d.valid = false
	joined := d.errs.Err()
	d.logger.Debug("diagnostic not loaded", slog.Any("error", joined))
	return d, utils.WrapError("diagnostic "+d.name+" not loaded", joined)
}

// ready marks the diagnostic valid once every construction step succeeded.
func (d *Diagnostic) ready() (*Diagnostic, error) {
	d.valid = true
	for _, a := range d.axes {
		d.logger.Debug("axis resolved",
			slog.String("axis", a.Spec.Type),
			slog.String("transform", a.Transform.Kind.String()),
			slog.Int("extent", a.Extent()))
	}
	return d, nil
}

// Valid reports whether construction succeeded.
func (d *Diagnostic) Valid() bool {
	return d.valid
}

// Errors returns the construction errors of an invalid diagnostic.
func (d *Diagnostic) Errors() []string {
	return d.errs.Messages()
}

// Name returns a short name of the diagnostic, e.g. "Fields0".
func (d *Diagnostic) Name() string {
	return d.name
}

// Geometry returns the reconstruction strategy.
func (d *Diagnostic) Geometry() Geometry {
	return d.geometry
}

func (d *Diagnostic) invalid() error {
	return utils.Errorf(utils.ErrInvalidDiagnostic, "%s: %s", d.name, strings.Join(d.errs.Messages(), "; "))
}

// DataAtTime returns the data at timestep t. A timestep that is not among
// Timesteps() yields ErrMissingTimestep; the diagnostic stays usable.
// Repeated calls return identical arrays.
//
// Returns:
//   - *Array: Row-major values, shaped as Shape()
//   - error: ErrInvalidDiagnostic, ErrMissingTimestep or a read error
//
// Example:
//
//	for _, t := range d.Timesteps() {
//	    data, err := d.DataAtTime(t)
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(t, data.Shape, data.Data)
//	}
func (d *Diagnostic) DataAtTime(t int64) (*Array, error) {
	start := time.Now()
	if !d.valid {
		d.metrics.ObserveQuery(d.kind, d.geometry.String(), metrics.OutcomeInvalid, 0)
		return nil, d.invalid()
	}

	loc, ok := d.index.Lookup(t)
	if !ok {
		d.logger.Warn("timestep not found", slog.Int64("timestep", t))
		d.metrics.ObserveQuery(d.kind, d.geometry.String(), metrics.OutcomeMissingTimestep, 0)
		return nil, utils.Errorf(utils.ErrMissingTimestep, "timestep %d not found in %s", t, d.name)
	}

	out, err := d.eng.dataAt(t, loc)
	if err != nil {
		d.logger.Warn("cannot read timestep", slog.Int64("timestep", t), slog.Any("error", err))
		d.metrics.ObserveQuery(d.kind, d.geometry.String(), metrics.OutcomeError, 0)
		return nil, utils.WrapError(fmt.Sprintf("%s at timestep %d", d.name, t), err)
	}
	d.metrics.ObserveQuery(d.kind, d.geometry.String(), metrics.OutcomeOK, time.Since(start))
	return out, nil
}

// Timesteps returns the selected timesteps in ascending order.
func (d *Diagnostic) Timesteps() []int64 {
	if !d.valid {
		return nil
	}
	return d.index.Timesteps()
}

// Info describes the diagnostic: quantities, resolved axes and slicing.
func (d *Diagnostic) Info() string {
	if !d.valid {
		return strings.Join(d.errs.Messages(), "\n")
	}
	return d.eng.info()
}

// Axes describes the dimensions of the arrays returned by DataAtTime.
func (d *Diagnostic) Axes() []Axis {
	if !d.valid {
		return nil
	}
	var out []Axis
	for _, a := range d.axes {
		if !kept(a) {
			continue
		}
		out = append(out, Axis{
			Label:   a.Spec.Type,
			Centers: a.SelectedCenters(),
			Units:   a.Units,
			Log:     a.Spec.Log,
		})
	}
	return out
}

// AxesAt is Axes with the x axis shifted by the moving window position at
// timestep t. Without WithMovingWindow it equals Axes.
func (d *Diagnostic) AxesAt(t int64) ([]Axis, error) {
	axes := d.Axes()
	if !d.valid || !d.settings.moving {
		return axes, nil
	}
	moved, err := d.XMoved(t)
	if err != nil {
		return nil, err
	}
	for i := range axes {
		if axes[i].Label != "x" {
			continue
		}
		for j := range axes[i].Centers {
			axes[i].Centers[j] += moved
		}
	}
	return axes, nil
}

// Shape returns the shape of the arrays returned by DataAtTime.
func (d *Diagnostic) Shape() []int {
	if !d.valid {
		return nil
	}
	shape := []int{}
	for _, a := range d.axes {
		if kept(a) {
			shape = append(shape, a.Extent())
		}
	}
	return shape
}

// Quantities returns the quantities the operation references, longest
// name first.
func (d *Diagnostic) Quantities() []string {
	return append([]string(nil), d.quantities...)
}

// Units returns the units of the returned values, derived from the
// operation.
func (d *Diagnostic) Units() string {
	return d.units
}

// Title returns a human-readable name of the returned quantity.
func (d *Diagnostic) Title() string {
	return d.title
}

// XMoved returns how far the moving window had moved at timestep t, or 0
// when the source does not record it.
func (d *Diagnostic) XMoved(t int64) (float64, error) {
	if !d.valid {
		return 0, d.invalid()
	}
	loc, ok := d.index.Lookup(t)
	if !ok {
		return 0, utils.Errorf(utils.ErrMissingTimestep, "timestep %d not found in %s", t, d.name)
	}
	frame := d.sources[loc.Source].Frames()[loc.Frame]
	if v, ok := frame.Attr("x_moved"); ok {
		if moved, ok := source.Float(v); ok {
			return moved, nil
		}
	}
	return 0, nil
}

// Close releases the sources opened by OpenFields or OpenParticleBinning.
// Sources passed to NewField or NewParticleBinning stay open.
func (d *Diagnostic) Close() error {
	if !d.owned {
		return nil
	}
	var errs []error
	for _, s := range d.sources {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.sources = nil
	if d.valid {
		d.valid = false
		d.errs.Add(errors.New("diagnostic closed"))
	}
	return errors.Join(errs...)
}

// resolveAxes resolves every spec against the subset and average
// directives. Directives naming an unknown axis are configuration errors.
func (d *Diagnostic) resolveAxes(specs []axis.Spec) error {
	known := make(map[string]bool, len(specs))
	for _, sp := range specs {
		known[sp.Type] = true
	}
	var errs utils.ErrorList
	for _, directives := range []map[string]axis.Directive{d.settings.subset, d.settings.average} {
		for label := range directives {
			if !known[label] {
				errs.Add(utils.Errorf(utils.ErrConfiguration, "no axis %q (axes are %s)", label, labels(specs)))
			}
		}
	}
	if err := errs.Err(); err != nil {
		return err
	}

	d.axes = make([]axis.Resolved, len(specs))
	retained := 0
	for i, sp := range specs {
		req := axis.Request{Stride: d.settings.stride}
		if dir, ok := d.settings.average[sp.Type]; ok {
			req.Average = &dir
		}
		if dir, ok := d.settings.subset[sp.Type]; ok {
			req.Subset = &dir
		}
		res, err := axis.Resolve(sp, req)
		if err != nil {
			return err
		}
		d.axes[i] = res
		if res.Retained() {
			retained++
		}
	}
	if retained > d.settings.maxDims {
		return utils.Errorf(utils.ErrConfiguration,
			"cannot keep %d axes (at most %d); average or slice some of %s", retained, d.settings.maxDims, labels(specs))
	}
	return nil
}

// selection returns the storage selection of the resolved axes.
func (d *Diagnostic) selection() []axis.Range {
	sel := make([]axis.Range, len(d.axes))
	for i, a := range d.axes {
		sel[i] = a.Selection
	}
	return sel
}

// subsetInfo lists the subset and average descriptions, one per line.
// averaging names the reduction, e.g. "Slicing" for particle binning.
func (d *Diagnostic) subsetInfo(indent, averaging string) string {
	var b strings.Builder
	for _, a := range d.axes {
		if a.Info == "" {
			continue
		}
		b.WriteString(indent)
		b.WriteString(strings.Replace(a.Info, "Averaging", averaging, 1))
		b.WriteString("\n")
	}
	return b.String()
}

// kept reports whether the axis survives squeezing in the returned arrays.
func kept(a axis.Resolved) bool {
	return a.Retained() && a.Extent() > 1
}

func labels(specs []axis.Spec) string {
	names := make([]string, len(specs))
	for i, sp := range specs {
		names[i] = sp.Type
	}
	return strings.Join(names, ", ")
}
