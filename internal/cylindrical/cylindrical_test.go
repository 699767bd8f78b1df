package cylindrical

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/ndarray"
	"github.com/scigolib/happi/internal/utils"
)

// storedModes serves raw (x, 2*nr) mode arrays keyed by dataset name.
func storedModes(t *testing.T, raw map[string][]float64, shape []int) Reader {
	t.Helper()
	return ReaderFunc(func(field string, mode int, sel []axis.Range) (*ndarray.Array, error) {
		data, ok := raw[ModeName(field, mode)]
		if !ok {
			return nil, errors.New("missing " + ModeName(field, mode))
		}
		if sel == nil {
			return ndarray.FromSlice(append([]float64(nil), data...), shape...)
		}
		return ndarray.Select(data, shape, sel)
	})
}

func TestParseModeName(t *testing.T) {
	f, m, ok := ParseModeName("Bl_mode_12")
	require.True(t, ok)
	require.Equal(t, "Bl", f)
	require.Equal(t, 12, m)

	f, m, ok = ParseModeName("Rho_electron_mode_0")
	require.True(t, ok)
	require.Equal(t, "Rho_electron", f)
	require.Equal(t, 0, m)

	_, _, ok = ParseModeName("Bl")
	require.False(t, ok)
	_, _, ok = ParseModeName("_mode_1")
	require.False(t, ok)
}

func TestNewModeTable(t *testing.T) {
	table := NewModeTable([]string{"Bz_mode_0", "Bz_mode_1", "El_mode_0", "El_mode_2", "tmp"})
	require.Equal(t, ModeTable{"Bz": 2, "El": 1}, table)
	require.Equal(t, []string{"Bz", "El"}, table.Fields())
}

func TestModes(t *testing.T) {
	table := ModeTable{"Bz": 3, "El": 1}
	require.Equal(t, []int{0, 1, 2}, Modes(table, []string{"Bz", "El"}, nil))
	require.Equal(t, []int{0}, Modes(table, []string{"El"}, nil))
	require.Equal(t, []int{0, 1, 2}, Modes(table, []string{"Bz", "El"}, []int{}))
	require.Equal(t, []int{1, 7}, Modes(table, []string{"El"}, []int{1, 7}))
}

// Two x cells, two r cells: real parts at even columns, imaginary at odd.
var planeModes = map[string][]float64{
	"Bz_mode_0": {1, 100, 2, 100, 3, 100, 4, 100},
	"Bz_mode_1": {10, 7, 20, 7, 30, 7, 40, 7},
}

func TestPlane_ThetaZeroAddsRealParts(t *testing.T) {
	r := storedModes(t, planeModes, []int{2, 4})
	p, err := NewPlane(0, []axis.Range{axis.Full(2, 1), axis.Full(2, 1)})
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, p.Shape())

	got, added, err := p.Synthesize(r, "Bz", 2, Modes(ModeTable{"Bz": 2}, []string{"Bz"}, nil))
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, []float64{11, 22, 33, 44}, got.Data)
}

func TestPlane_QuarterTurn(t *testing.T) {
	r := storedModes(t, planeModes, []int{2, 4})
	p, err := NewPlane(math.Pi/2, []axis.Range{axis.Full(2, 1), axis.Full(2, 1)})
	require.NoError(t, err)

	got, _, err := p.Synthesize(r, "Bz", 2, []int{0, 1})
	require.NoError(t, err)
	// Mode 0 imaginary storage (100) is never read.
	require.InDeltaSlice(t, []float64{8, 9, 10, 11}, got.Data, 1e-9)
}

func TestPlane_OutOfRangeModesSkipped(t *testing.T) {
	r := storedModes(t, planeModes, []int{2, 4})
	p, err := NewPlane(0, []axis.Range{axis.Full(2, 1), axis.Full(2, 1)})
	require.NoError(t, err)

	got, added, err := p.Synthesize(r, "Bz", 2, []int{1, 5})
	require.NoError(t, err)
	require.Equal(t, 1, added)
	require.Equal(t, []float64{10, 20, 30, 40}, got.Data)
}

func TestPlane_SingleRadius(t *testing.T) {
	r := storedModes(t, planeModes, []int{2, 4})
	p, err := NewPlane(math.Pi/2, []axis.Range{axis.Full(2, 1), axis.Index(1)})
	require.NoError(t, err)
	require.Equal(t, axis.Range{Start: 2, Stop: 4, Step: 2, Single: true}, p.Real[1])
	require.Equal(t, axis.Range{Start: 3, Stop: 5, Step: 2, Single: true}, p.Imag[1])

	got, _, err := p.Synthesize(r, "Bz", 2, []int{0, 1})
	require.NoError(t, err)
	require.Equal(t, []int{2, 1}, got.Shape)
	require.InDeltaSlice(t, []float64{9, 11}, got.Data, 1e-9)
}

func TestTarget(t *testing.T) {
	tg := Target{Start: 0, Stop: 1, Step: 0.3}
	require.Equal(t, 4, tg.Count())
	require.InDeltaSlice(t, []float64{0, 0.3, 0.6, 0.9}, tg.Points(), 1e-12)
	require.Equal(t, 0, Target{Start: 1, Stop: 1, Step: 1}.Count())
	require.Equal(t, 0, Target{Start: 0, Stop: 1, Step: 0}.Count())

	spec := tg.Spec("y")
	require.InDeltaSlice(t, tg.Points(), spec.Centers(), 1e-12)
}

func TestNativeAxes(t *testing.T) {
	n, err := NativeAxes([]float64{1, 0}, []float64{0.5, 2}, []int{3, 6})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 1.5, 2}, n.X)
	require.Equal(t, []float64{0, 2, 4}, n.R)

	_, err = NativeAxes([]float64{0}, []float64{1}, []int{3})
	require.True(t, errors.Is(err, utils.ErrConfiguration))
}

// volumeModes stores, on a 2x2 native grid with X = R = {0, 1}:
// mode 0 real part 5, mode 1 real part r and imaginary part 3.
var volumeModes = map[string][]float64{
	"Ex_mode_0": {5, 0, 5, 0, 5, 0, 5, 0},
	"Ex_mode_1": {0, 3, 1, 3, 0, 3, 1, 3},
}

func volumeTargets() [3]Target {
	return [3]Target{
		{Start: 0, Stop: 2, Step: 1},
		{Start: -1, Stop: 2.5, Step: 1},
		{Start: 0, Stop: 1, Step: 1},
	}
}

func TestGeometry_Volume(t *testing.T) {
	native, err := NativeAxes([]float64{0, 0}, []float64{1, 1}, []int{2, 4})
	require.NoError(t, err)

	targets := volumeTargets()
	sel := []axis.Range{axis.Full(2, 1), axis.Full(4, 1), axis.Full(1, 1)}
	g, err := NewGeometry(targets, sel, native)
	require.NoError(t, err)
	require.Equal(t, []int{2, 4, 1}, g.Shape())
	require.InDelta(t, math.Pi, g.Theta[0], 1e-12)
	require.InDeltaSlice(t, []float64{1, 0, 1, 2}, g.Radius[:4], 1e-12)

	r := storedModes(t, volumeModes, []int{2, 4})
	got, added, err := g.Synthesize(r, "Ex", 2, []int{0, 1})
	require.NoError(t, err)
	require.Equal(t, 2, added)

	// On z = 0, F = 5 + cos(theta)*r = 5 + y inside the grid, 0 beyond r = 1.
	want := []float64{4, 5, 6, 0, 4, 5, 6, 0}
	require.InDeltaSlice(t, want, got.Data, 1e-12)
}

func TestGeometry_SelectionRestrictsPoints(t *testing.T) {
	native, err := NativeAxes([]float64{0, 0}, []float64{1, 1}, []int{2, 4})
	require.NoError(t, err)

	sel := []axis.Range{axis.Full(2, 1), axis.Index(2), axis.Full(1, 1)}
	g, err := NewGeometry(volumeTargets(), sel, native)
	require.NoError(t, err)
	require.Equal(t, []int{2, 1, 1}, g.Shape())

	got, _, err := g.Synthesize(storedModes(t, volumeModes, []int{2, 4}), "Ex", 2, []int{0, 1})
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{6, 6}, got.Data, 1e-12)
}

func TestGeometry_Errors(t *testing.T) {
	native := Native{X: []float64{0, 1}, R: []float64{0, 1}}
	targets := volumeTargets()
	targets[2] = Target{Start: 1, Stop: 0, Step: 1}

	_, err := NewGeometry(targets, []axis.Range{axis.Full(2, 1), axis.Full(4, 1), axis.Full(1, 1)}, native)
	require.True(t, errors.Is(err, utils.ErrEmptyTargetGrid))

	g, err := NewGeometry(volumeTargets(), []axis.Range{axis.Full(2, 1), axis.Full(4, 1), axis.Full(1, 1)}, native)
	require.NoError(t, err)
	_, _, err = g.Synthesize(storedModes(t, volumeModes, []int{1, 8}), "Ex", 1, []int{0})
	require.Error(t, err)
}

func TestGeometry_OversizedBox(t *testing.T) {
	native := Native{X: []float64{0, 1}, R: []float64{0, 1}}
	fine := Target{Start: 0, Stop: 1, Step: 1e-5}

	tests := []struct {
		name    string
		targets [3]Target
		sel     []axis.Range
	}{
		{"selected box", [3]Target{fine, fine, fine},
			[]axis.Range{axis.Full(100000, 1), axis.Full(100000, 1), axis.Full(100000, 1)}},
		{"single axis", [3]Target{{Start: 0, Stop: 1, Step: 1e-12}, volumeTargets()[1], volumeTargets()[2]},
			[]axis.Range{axis.Full(1, 1), axis.Full(4, 1), axis.Full(1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				_, err := NewGeometry(tt.targets, tt.sel, native)
				require.ErrorIs(t, err, utils.ErrConfiguration)
			})
		})
	}
}

func TestLocate(t *testing.T) {
	c := []float64{0, 1, 2}
	tests := []struct {
		v    float64
		i    int
		frac float64
		ok   bool
	}{
		{v: 0, i: 0, frac: 0, ok: true},
		{v: 1.5, i: 1, frac: 0.5, ok: true},
		{v: 2, i: 1, frac: 1, ok: true},
		{v: -0.1, ok: false},
		{v: 2.1, ok: false},
		{v: math.NaN(), ok: false},
	}
	for _, tt := range tests {
		i, frac, ok := locate(c, tt.v)
		require.Equal(t, tt.ok, ok, "v=%g", tt.v)
		if ok {
			require.Equal(t, tt.i, i)
			require.InDelta(t, tt.frac, frac, 1e-12)
		}
	}
}
