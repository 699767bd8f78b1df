package source

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/scigolib/hdf5"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/utils"
)

func seq(n int, scale float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * scale
	}
	return out
}

// writeHistogramFile writes two 3x4 histograms at timesteps 100 and 0, plus
// a dataset that is not a frame.
func writeHistogramFile(t *testing.T) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "ParticleBinning0.h5")

	fw, err := hdf5.CreateForWrite(filename, hdf5.CreateTruncate)
	require.NoError(t, err)

	ds, err := fw.CreateDataset("/timestep00000100", hdf5.Float64, []uint64{3, 4})
	require.NoError(t, err)
	require.NoError(t, ds.Write(seq(12, 10)))
	require.NoError(t, ds.WriteAttribute("gridSpacing", []float64{0.5, 0.25}))

	ds, err = fw.CreateDataset("/timestep00000000", hdf5.Float64, []uint64{3, 4})
	require.NoError(t, err)
	require.NoError(t, ds.Write(seq(12, 1)))

	ds, err = fw.CreateDataset("/notes", hdf5.Float64, []uint64{2})
	require.NoError(t, err)
	require.NoError(t, ds.Write([]float64{1, 2}))

	require.NoError(t, fw.Close())
	return filename
}

func TestOpenHDF5_Histograms(t *testing.T) {
	s, err := OpenHDF5(writeHistogramFile(t), LayoutParticleBinning)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	require.Equal(t, []int64{0, 100}, Timesteps(s))

	frame := s.Frames()[1]
	require.Equal(t, []string{HistogramName}, frame.Names())

	ds, err := frame.Dataset(HistogramName)
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, ds.Shape())

	all, err := ds.Read(nil)
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, all.Shape)
	require.Equal(t, seq(12, 10), all.Data)

	spacing, ok := ds.Attr("gridSpacing")
	require.True(t, ok)
	got, ok := Floats(spacing)
	require.True(t, ok)
	require.Equal(t, []float64{0.5, 0.25}, got)

	_, ok = ds.Attr("missing")
	require.False(t, ok)

	_, err = frame.Dataset("missing")
	require.Error(t, err)
}

func TestHDF5Dataset_ReadSelections(t *testing.T) {
	s, err := OpenHDF5(writeHistogramFile(t), LayoutParticleBinning)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	ds, err := s.Frames()[0].Dataset(HistogramName)
	require.NoError(t, err)

	tests := []struct {
		name  string
		sel   []axis.Range
		shape []int
		want  []float64
	}{
		{
			name:  "single row",
			sel:   []axis.Range{axis.Index(1), axis.Full(4, 1)},
			shape: []int{1, 4},
			want:  []float64{4, 5, 6, 7},
		},
		{
			name:  "strided",
			sel:   []axis.Range{axis.Full(3, 2), axis.Full(4, 2)},
			shape: []int{2, 2},
			want:  []float64{0, 2, 8, 10},
		},
		{
			name:  "interleaved imaginary part",
			sel:   []axis.Range{axis.Span(0, 1, 1), axis.Full(2, 1).Doubled(1)},
			shape: []int{2, 2},
			want:  []float64{1, 3, 5, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ds.Read(tt.sel)
			require.NoError(t, err)
			require.Equal(t, tt.shape, got.Shape)
			require.Equal(t, tt.want, got.Data)
		})
	}

	_, err = ds.Read([]axis.Range{axis.Index(3), axis.Full(4, 1)})
	require.Error(t, err)
	_, err = ds.Read([]axis.Range{axis.Full(3, 1)})
	require.Error(t, err)
}

func TestOpenHDF5_Errors(t *testing.T) {
	_, err := OpenHDF5(filepath.Join(t.TempDir(), "missing.h5"), LayoutFields)
	require.True(t, errors.Is(err, utils.ErrSourceOpen))

	// A histogram file has no /data group.
	_, err = OpenHDF5(writeHistogramFile(t), LayoutFields)
	require.True(t, errors.Is(err, utils.ErrSourceOpen))
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		info    string
		want    []int
		wantErr bool
	}{
		{info: "Dataset: float64, 1D array [5], contiguous", want: []int{5}},
		{info: "Dataset: float64, 2D array [3 x 4], contiguous", want: []int{3, 4}},
		{info: "Dataset: float32, 3D array [2 3 4], chunked", want: []int{2, 3, 4}},
		{info: "Dataset: int32, scalar, compact", want: []int{}},
		{info: "Dataset: float64, null, compact", wantErr: true},
		{info: "Dataset: float64, 3D array [2 3], contiguous", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.info, func(t *testing.T) {
			got, err := parseShape(tt.info)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLayoutString(t *testing.T) {
	require.Equal(t, "fields", LayoutFields.String())
	require.Equal(t, "particle-binning", LayoutParticleBinning.String())
	require.Equal(t, "Layout(7)", Layout(7).String())
}
