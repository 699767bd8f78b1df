package happi

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/happi/internal/source"
)

func TestGeometry_String(t *testing.T) {
	require.Equal(t, "cartesian", Cartesian.String())
	require.Equal(t, "polar-plane", PolarPlane.String())
	require.Equal(t, "polar-volume", PolarVolume.String())
	require.Equal(t, "Geometry(7)", Geometry(7).String())
}

func TestDiagnostic_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	d, err := NewField(2, []Source{modeSource(t)}, "Bz", WithTheta(0), WithMetrics(m))
	require.NoError(t, err)

	_, err = d.DataAtTime(0)
	require.NoError(t, err)
	_, err = d.DataAtTime(0)
	require.NoError(t, err)
	_, err = d.DataAtTime(3)
	require.ErrorIs(t, err, ErrMissingTimestep)

	expected := `
# HELP happi_queries_total Data queries by diagnostic and outcome.
# TYPE happi_queries_total counter
happi_queries_total{diagnostic="fields",outcome="missing_timestep"} 1
happi_queries_total{diagnostic="fields",outcome="ok"} 2
# HELP happi_modes_synthesized_total Azimuthal modes summed during cylindrical reconstructions.
# TYPE happi_modes_synthesized_total counter
happi_modes_synthesized_total{geometry="polar-plane"} 4
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"happi_queries_total", "happi_modes_synthesized_total"))

	n, err := testutil.GatherAndCount(reg, "happi_query_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestDiagnostic_InvalidQueriesAreCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, err := NewField(0, nil, "Ex", WithMetrics(NewMetrics(reg)))
	require.Error(t, err)

	_, err = d.DataAtTime(0)
	require.ErrorIs(t, err, ErrInvalidDiagnostic)

	expected := `
# HELP happi_queries_total Data queries by diagnostic and outcome.
# TYPE happi_queries_total counter
happi_queries_total{diagnostic="fields",outcome="invalid"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "happi_queries_total"))
}

func TestDiagnostic_LogsMissingTimestep(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	d, err := NewField(0, []Source{lineSource(t)}, "Ex", WithLogger(logger))
	require.NoError(t, err)
	require.Contains(t, buf.String(), "axis resolved")
	require.Contains(t, buf.String(), "transform=keep")

	buf.Reset()
	_, err = d.DataAtTime(7)
	require.Error(t, err)
	out := buf.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "timestep not found")
	require.Contains(t, out, "diagnostic=Fields0")
	require.Contains(t, out, "timestep=7")
}

func TestDiagnostic_InvalidInfoListsErrors(t *testing.T) {
	d, err := NewField(0, []Source{lineSource(t)}, "Ez", WithStride(-2))
	require.Error(t, err)
	require.Len(t, d.Errors(), 1)
	require.Contains(t, d.Info(), "stride must be at least 1")
	require.Empty(t, d.Shape())

	_, err = d.XMoved(0)
	require.ErrorIs(t, err, ErrInvalidDiagnostic)
}

func TestDiagnostic_CloseOwnedSources(t *testing.T) {
	src := lineSource(t)
	d, err := NewField(0, []Source{src}, "Ex")
	require.NoError(t, err)

	// Caller sources stay open.
	require.NoError(t, d.Close())
	require.False(t, src.Closed())
	require.True(t, d.Valid())

	d.owned = true
	require.NoError(t, d.Close())
	require.True(t, src.Closed())
	require.False(t, d.Valid())

	_, err = d.DataAtTime(0)
	require.ErrorIs(t, err, ErrInvalidDiagnostic)
}

func TestDiagnostic_XMovedDefaultsToZero(t *testing.T) {
	d, err := NewField(0, []Source{lineSource(t)}, "Ex", WithMovingWindow(true))
	require.NoError(t, err)

	moved, err := d.XMoved(100)
	require.NoError(t, err)
	require.Zero(t, moved)

	_, err = d.XMoved(1)
	require.ErrorIs(t, err, ErrMissingTimestep)

	axes, err := d.AxesAt(100)
	require.NoError(t, err)
	require.Equal(t, d.Axes(), axes)
}

func TestOpenFields_Errors(t *testing.T) {
	d, err := OpenFields(nil, 0, "Ex")
	require.ErrorIs(t, err, ErrConfiguration)
	require.False(t, d.Valid())

	d, err = OpenFields([]string{t.TempDir()}, 0, "Ex")
	require.ErrorIs(t, err, ErrSourceOpen)
	require.False(t, d.Valid())
	require.NoError(t, d.Close())
}

func TestFieldDiagnostics(t *testing.T) {
	numbers, err := FieldDiagnostics(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, numbers)
}

func TestMemorySourceAlias(t *testing.T) {
	src := NewMemorySource("inline", map[string]interface{}{"output": "density"})
	require.Equal(t, "inline", src.Path())
	var _ Source = src
	var _ source.Source = src
}
