package happi

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/expr"
	"github.com/scigolib/happi/internal/ndarray"
	"github.com/scigolib/happi/internal/source"
	"github.com/scigolib/happi/internal/timestep"
	"github.com/scigolib/happi/internal/utils"
)

// Root attributes of particle binning files.
const (
	attrAxisPrefix = "axis"
	attrOutput     = "output"
	attrSpecies    = "species"
)

var diagReference = regexp.MustCompile(`#(\d+)`)

// binning is the metadata of one particle binning diagnostic.
type binning struct {
	number  int
	output  string
	species []int
	tavg    int
	specs   []axis.Spec
}

// particleEngine implements the particle binning pipeline: read, replace
// NaN by 0, sum over averaged axes, squeeze, divide by the bin sizes, apply
// the operation and optionally take log10.
type particleEngine struct {
	d        *Diagnostic
	op       *expr.Operation
	diags    []binning
	sources  []source.Source
	indices  []*timestep.Index
	sel      []axis.Range
	binSizes []float64
}

// NewParticleBinning builds a particle binning diagnostic over sources,
// keyed by diagnostic number. operation is a diagnostic number ("3") or an
// expression over "#N" references ("#0/#1"). Every referenced diagnostic
// must have the same axes and timesteps. Values are normalized by the bin
// size so that they read as densities; WithGrid supplies the simulation
// mesh for that normalization.
//
// Example:
//
//	d, err := happi.NewParticleBinning(map[int]happi.Source{0: weight, 1: count}, "#0/#1",
//	    happi.WithSlice("x", "all"),
//	    happi.WithGrid([]float64{0.5}, []int{40}),
//	)
func NewParticleBinning(sources map[int]Source, operation string, opts ...Option) (*Diagnostic, error) {
	s := newSettings(opts)
	op, err := particleOperation(operation)
	d := newDiagnostic(source.LayoutParticleBinning.String(), particleName(op), s)
	if err != nil {
		return d.fail(err)
	}
	if d.errs.Len() > 0 {
		return d.fail(nil)
	}
	eng, err := newParticleEngine(d, sources, op)
	if err != nil {
		return d.fail(err)
	}
	d.eng = eng
	return d.ready()
}

// particleOperation turns a bare diagnostic number into "#N".
func particleOperation(operation string) (string, error) {
	op := strings.TrimSpace(operation)
	if n, err := strconv.Atoi(op); err == nil {
		if n < 0 {
			return op, utils.Errorf(utils.ErrConfiguration, "diagnostic number cannot be negative (got %d)", n)
		}
		return "#" + strconv.Itoa(n), nil
	}
	return op, nil
}

// particleName names the diagnostic after its operation, e.g.
// "ParticleBinning2" or "ParticleBinning(#0/#1)".
func particleName(op string) string {
	if m := diagReference.FindStringSubmatch(op); m != nil && m[0] == op {
		return source.KindParticleBinning.Prefix + m[1]
	}
	return source.KindParticleBinning.Prefix + "(" + op + ")"
}

// referencedDiagnostics returns the diagnostic numbers an operation
// references, ascending and without duplicates.
func referencedDiagnostics(op string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range diagReference.FindAllStringSubmatch(op, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func newParticleEngine(d *Diagnostic, sources map[int]Source, operation string) (*particleEngine, error) {
	s := d.settings
	available := make([]string, 0, len(sources))
	for n := range sources {
		available = append(available, "#"+strconv.Itoa(n))
	}
	sort.Strings(available)
	op, err := expr.Parse(operation, available)
	if err != nil {
		return nil, err
	}
	d.quantities = op.Names

	p := &particleEngine{d: d, op: op}
	for _, n := range referencedDiagnostics(operation) {
		src := sources[n]
		info, err := readBinning(n, src)
		if err != nil {
			return nil, err
		}
		if len(p.diags) > 0 && !sameSpecs(info.specs, p.diags[0].specs) {
			return nil, utils.Errorf(utils.ErrConfiguration,
				"in operation %q, diagnostics #%d and #%d must have the same axes", operation, n, p.diags[0].number)
		}

		idx := timestep.New(source.Timesteps(src))
		if idx.Len() == 0 {
			return nil, utils.Errorf(utils.ErrConfiguration, "particle binning #%d has no timestep", n)
		}
		if s.timesteps != nil {
			if idx, err = idx.Select(*s.timesteps); err != nil {
				return nil, err
			}
		}
		if len(p.indices) > 0 && !sameTimesteps(idx.Timesteps(), p.indices[0].Timesteps()) {
			return nil, utils.Errorf(utils.ErrConfiguration,
				"in operation %q, diagnostics #%d and #%d must have the same timesteps (%d and %d)",
				operation, n, p.diags[0].number, idx.Len(), p.indices[0].Len())
		}
		if err := checkHistogramShape(n, src, info.specs); err != nil {
			return nil, err
		}

		p.diags = append(p.diags, info)
		p.sources = append(p.sources, src)
		p.indices = append(p.indices, idx)
	}

	d.sources = p.sources
	d.index = p.indices[0]
	if err := d.resolveAxes(p.diags[0].specs); err != nil {
		return nil, err
	}
	p.sel = d.selection()
	p.binSizes = axis.BinSizes(d.axes, s.grid)

	titles := make(map[string]string, len(p.diags))
	units := make(map[string]string, len(p.diags))
	var axisUnits []string
	for _, a := range d.axes {
		if a.Retained() && a.Units != "L_r" {
			axisUnits = append(axisUnits, a.Units)
		}
	}
	for _, info := range p.diags {
		name := "#" + strconv.Itoa(info.number)
		title, u := axis.OutputUnits(info.output)
		if len(axisUnits) > 0 {
			u += " / ( " + strings.Join(axisUnits, " * ") + " )"
		}
		titles[name] = title
		units[name] = "( " + u + " )"
	}
	d.units, _ = expr.Replace(operation, op.Names, func(n string) string { return units[n] })
	d.title, _ = expr.Replace(operation, op.Names, func(n string) string { return titles[n] })
	return p, nil
}

// readBinning reads the root attributes of a particle binning source.
func readBinning(n int, src source.Source) (binning, error) {
	if src == nil {
		return binning{}, utils.Errorf(utils.ErrConfiguration, "no particle binning #%d", n)
	}
	info := binning{number: n, tavg: 1}
	for k := 0; ; k++ {
		v, ok := src.Attr(attrAxisPrefix + strconv.Itoa(k))
		if !ok {
			break
		}
		text, ok := source.String(v)
		if !ok {
			return binning{}, utils.Errorf(utils.ErrConfiguration, "particle binning #%d: axis%d is not a string", n, k)
		}
		spec, err := parseAxisAttr(text)
		if err != nil {
			return binning{}, utils.WrapError(fmt.Sprintf("particle binning #%d: axis%d", n, k), err)
		}
		info.specs = append(info.specs, spec)
	}
	if len(info.specs) == 0 {
		return binning{}, utils.Errorf(utils.ErrConfiguration, "particle binning #%d (%s) has no axis attributes", n, src.Path())
	}

	if v, ok := src.Attr(attrOutput); ok {
		info.output, _ = source.String(v)
	}
	if v, ok := src.Attr(attrTimeAverage); ok {
		if f, ok := source.Float(v); ok {
			info.tavg = int(f)
		}
	}
	if v, ok := src.Attr(attrSpecies); ok {
		info.species = parseSpecies(v)
	}
	return info, nil
}

// parseAxisAttr decodes "type min max size log edges_included".
func parseAxisAttr(text string) (axis.Spec, error) {
	fields := strings.Fields(text)
	if len(fields) < 6 {
		return axis.Spec{}, utils.Errorf(utils.ErrConfiguration,
			"%q: expected \"type min max size log edges\"", text)
	}
	lo, err1 := strconv.ParseFloat(fields[1], 64)
	hi, err2 := strconv.ParseFloat(fields[2], 64)
	size, err3 := strconv.Atoi(fields[3])
	logScale, err4 := strconv.Atoi(fields[4])
	edges, err5 := strconv.Atoi(fields[5])
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return axis.Spec{}, utils.Errorf(utils.ErrConfiguration, "%q: %v", text, err)
		}
	}
	spec := axis.Spec{
		Type:          fields[0],
		Min:           lo,
		Max:           hi,
		Size:          size,
		Log:           logScale != 0,
		EdgesIncluded: edges != 0,
	}
	return spec, spec.Validate()
}

func parseSpecies(v interface{}) []int {
	if text, ok := source.String(v); ok {
		var out []int
		for _, f := range strings.Fields(text) {
			if n, err := strconv.Atoi(f); err == nil {
				out = append(out, n)
			}
		}
		return out
	}
	if values, ok := source.Floats(v); ok {
		out := make([]int, len(values))
		for i, f := range values {
			out[i] = int(f)
		}
		return out
	}
	return nil
}

// checkHistogramShape verifies the first histogram against the axes.
func checkHistogramShape(n int, src source.Source, specs []axis.Spec) error {
	frames := src.Frames()
	if len(frames) == 0 {
		return nil
	}
	ds, err := frames[0].Dataset(source.HistogramName)
	if err != nil {
		return utils.WrapError(fmt.Sprintf("particle binning #%d", n), err)
	}
	shape := ds.Shape()
	ok := len(shape) == len(specs)
	for i := 0; ok && i < len(shape); i++ {
		ok = shape[i] == specs[i].Size
	}
	if !ok {
		return utils.Errorf(utils.ErrConfiguration,
			"particle binning #%d: histogram shape %v does not match its axes", n, shape)
	}
	return nil
}

func (p *particleEngine) dataAt(t int64, _ timestep.Location) (*ndarray.Array, error) {
	values := make(map[string]*ndarray.Array, len(p.diags))
	for i, info := range p.diags {
		loc, ok := p.indices[i].Lookup(t)
		if !ok {
			return nil, utils.Errorf(utils.ErrMissingTimestep, "timestep %d not found in particle binning #%d", t, info.number)
		}
		frame := p.sources[i].Frames()[loc.Frame]
		ds, err := frame.Dataset(source.HistogramName)
		if err != nil {
			return nil, utils.WrapError(fmt.Sprintf("particle binning #%d", info.number), err)
		}
		b, err := ds.Read(p.sel)
		if err != nil {
			return nil, utils.WrapError(fmt.Sprintf("particle binning #%d", info.number), err)
		}
		b.ReplaceNaN(0)
		for k, a := range p.d.axes {
			if a.Transform.Kind == axis.Average {
				b = b.SumAxis(k)
			}
		}
		b = b.Squeeze()
		if err := b.Divide(p.binSizes); err != nil {
			return nil, utils.WrapError(fmt.Sprintf("particle binning #%d", info.number), err)
		}
		values["#"+strconv.Itoa(info.number)] = b
	}

	out, err := p.op.Eval(values)
	if err != nil {
		return nil, err
	}
	if p.d.settings.dataLog {
		out.Log10()
	}
	return out, nil
}

func (p *particleEngine) info() string {
	var b strings.Builder
	for _, info := range p.diags {
		b.WriteString(info.describe())
		b.WriteString("\n")
	}
	if op := p.op.String(); len(op) > 2 {
		fmt.Fprintf(&b, "Operation : %s\n", op)
	}
	b.WriteString(p.d.subsetInfo("      ", "Slicing"))
	return b.String()
}

// describe returns the header, averaging and axes of one diagnostic.
func (b binning) describe() string {
	var s strings.Builder
	fmt.Fprintf(&s, "Diag#%d - %s of species # ", b.number, b.output)
	for _, sp := range b.species {
		fmt.Fprintf(&s, "%d ", sp)
	}
	s.WriteString("\n")
	if b.tavg > 1 {
		fmt.Fprintf(&s, "    Averaging over %d timesteps\n", b.tavg)
	}
	for _, a := range b.specs {
		fmt.Fprintf(&s, "    %s from %g to %g in %d steps ", a.Type, a.Min, a.Max, a.Size)
		if a.Log {
			s.WriteString(" [ LOG SCALE ] ")
		}
		if a.EdgesIncluded {
			s.WriteString(" [ INCLUDING EDGES ] ")
		}
		s.WriteString("\n")
	}
	return s.String()
}

func sameSpecs(a, b []axis.Spec) bool {
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

func sameTimesteps(a, b []int64) bool {
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
