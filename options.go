package happi

import (
	"fmt"
	"log/slog"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/cylindrical"
	"github.com/scigolib/happi/internal/metrics"
	"github.com/scigolib/happi/internal/timestep"
	"github.com/scigolib/happi/internal/utils"
)

// DefaultMaxDimensions is the number of axes a diagnostic may retain unless
// WithMaxDimensions says otherwise.
const DefaultMaxDimensions = 2

// Option configures a diagnostic at construction.
//
// Example:
//
//	diag, err := happi.OpenFields(dirs, 0, "Bz",
//	    happi.WithTheta(0),
//	    happi.WithModes(0, 1),
//	    happi.WithDataLog(true),
//	)
type Option func(*settings)

type settings struct {
	timesteps *timestep.Selector
	subset    map[string]axis.Directive
	average   map[string]axis.Directive
	stride    int
	dataLog   bool
	theta     *float64
	build3d   *[3]cylindrical.Target
	modes     []int
	grid      axis.Grid
	maxDims   int
	moving    bool
	logger    *slog.Logger
	metrics   *metrics.Collector
	errs      utils.ErrorList
}

func newSettings(opts []Option) *settings {
	s := &settings{
		subset:  make(map[string]axis.Directive),
		average: make(map[string]axis.Directive),
		stride:  1,
		maxDims: DefaultMaxDimensions,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// WithTimestep keeps only the recorded timestep nearest to t.
func WithTimestep(t float64) Option {
	return func(s *settings) {
		sel := timestep.Nearest(t)
		s.timesteps = &sel
	}
}

// WithTimesteps keeps only the recorded timesteps in [lo, hi].
func WithTimesteps(lo, hi float64) Option {
	return func(s *settings) {
		sel := timestep.Between(lo, hi)
		s.timesteps = &sel
	}
}

// WithSubset restricts axis label to a directive: a number (nearest bin),
// a [lo, hi] or [lo, hi, step] list, or a Directive.
func WithSubset(label string, directive interface{}) Option {
	return func(s *settings) {
		s.addDirective(s.subset, "subset", label, directive)
	}
}

// WithAverage averages axis label over a directive: "all", a number, a
// [lo, hi] list, or a Directive. Particle binning diagnostics sum instead
// of averaging, then normalize by the bin size.
func WithAverage(label string, directive interface{}) Option {
	return func(s *settings) {
		s.addDirective(s.average, "average", label, directive)
	}
}

// WithSlice is the particle binning name of WithAverage.
func WithSlice(label string, directive interface{}) Option {
	return WithAverage(label, directive)
}

func (s *settings) addDirective(into map[string]axis.Directive, kind, label string, directive interface{}) {
	d, err := axis.ParseDirective(directive)
	if err != nil {
		s.errs.Add(utils.WrapError(fmt.Sprintf("%s on axis %q", kind, label), err))
		return
	}
	into[label] = d
}

// WithStride keeps every n-th bin of the axes that are neither subset nor
// averaged.
func WithStride(n int) Option {
	return func(s *settings) {
		if n < 1 {
			s.errs.Add(utils.Errorf(utils.ErrConfiguration, "stride must be at least 1 (got %d)", n))
			return
		}
		s.stride = n
	}
}

// WithDataLog returns log10 of the data.
func WithDataLog(on bool) Option {
	return func(s *settings) { s.dataLog = on }
}

// WithTheta reconstructs cylindrical fields on the (x, r) half-plane at
// angle theta (radians). Exclusive with WithBuild3D.
func WithTheta(theta float64) Option {
	return func(s *settings) { s.theta = &theta }
}

// WithBuild3D reconstructs cylindrical fields on a Cartesian box. Each axis
// is given as {start, stop, step}; points stop short of stop. Exclusive with
// WithTheta. Retaining all three axes needs WithMaxDimensions(3).
//
// Parameters:
//   - x, y, z: {start, stop, step} of each box axis
//
// Example:
//
//	happi.WithBuild3D([3]float64{0, 20, 0.5}, [3]float64{-5, 5, 0.5}, [3]float64{-5, 5, 0.5})
func WithBuild3D(x, y, z [3]float64) Option {
	return func(s *settings) {
		s.build3d = &[3]cylindrical.Target{
			{Start: x[0], Stop: x[1], Step: x[2]},
			{Start: y[0], Stop: y[1], Step: y[2]},
			{Start: z[0], Stop: z[1], Step: z[2]},
		}
	}
}

// WithModes restricts cylindrical reconstructions to the given mode
// indices. Indices a field does not store contribute nothing. Without
// indices every stored mode is used.
func WithModes(modes ...int) Option {
	return func(s *settings) {
		if len(modes) == 0 {
			s.modes = nil
			return
		}
		for _, m := range modes {
			if m < 0 {
				s.errs.Add(utils.Errorf(utils.ErrConfiguration, "modes must be non-negative (got %d)", m))
				return
			}
		}
		s.modes = append([]int{}, modes...)
	}
}

// WithGrid describes the simulation mesh: cell length and number of cells
// along each spatial dimension. Particle binning uses it to turn counts
// into densities; fields use it to report non-default grid spacing.
func WithGrid(cellLength []float64, cellCount []int) Option {
	return func(s *settings) {
		s.grid = axis.Grid{
			CellLength: append([]float64(nil), cellLength...),
			CellCount:  append([]int(nil), cellCount...),
		}
	}
}

// WithMaxDimensions sets how many axes may remain after slicing and
// averaging (default 2).
func WithMaxDimensions(n int) Option {
	return func(s *settings) {
		if n < 1 {
			s.errs.Add(utils.Errorf(utils.ErrConfiguration, "max dimensions must be at least 1 (got %d)", n))
			return
		}
		s.maxDims = n
	}
}

// WithMovingWindow shifts the x axis by the distance the simulation window
// has moved, as recorded per timestep.
func WithMovingWindow(on bool) Option {
	return func(s *settings) { s.moving = on }
}

// WithLogger sets the logger; nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics records query metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) { s.metrics = m }
}
