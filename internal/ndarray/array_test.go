package ndarray

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/happi/internal/axis"
)

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestFromSlice_ShapeMismatch(t *testing.T) {
	_, err := FromSlice(seq(5), 2, 3)
	require.Error(t, err)

	a, err := FromSlice(seq(6), 2, 3)
	require.NoError(t, err)
	require.Equal(t, 5.0, a.At(1, 2))
	require.Equal(t, 2, a.Ndim())
}

func TestSumAndMeanAxis(t *testing.T) {
	a, err := FromSlice(seq(24), 2, 3, 4)
	require.NoError(t, err)

	tests := []struct {
		name  string
		axis  int
		shape []int
		first float64
	}{
		{name: "axis 0", axis: 0, shape: []int{1, 3, 4}, first: 0 + 12},
		{name: "axis 1", axis: 1, shape: []int{2, 1, 4}, first: 0 + 4 + 8},
		{name: "axis 2", axis: 2, shape: []int{2, 3, 1}, first: 0 + 1 + 2 + 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := a.SumAxis(tt.axis)
			require.Equal(t, tt.shape, sum.Shape)
			require.Equal(t, tt.first, sum.Data[0])

			mean := a.MeanAxis(tt.axis)
			require.Equal(t, tt.shape, mean.Shape)
			require.InDelta(t, tt.first/float64(a.Shape[tt.axis]), mean.Data[0], 1e-12)
		})
	}
}

func TestMeanAxis_Commutative(t *testing.T) {
	a, err := FromSlice(seq(24), 2, 3, 4)
	require.NoError(t, err)

	ab := a.MeanAxis(0).MeanAxis(2)
	ba := a.MeanAxis(2).MeanAxis(0)
	require.Equal(t, ab.Shape, ba.Shape)
	require.InDeltaSlice(t, ab.Data, ba.Data, 1e-12)
}

func TestSqueeze(t *testing.T) {
	a := Zeros(1, 4, 1, 3)
	require.Equal(t, []int{4, 3}, a.Squeeze().Shape)
	require.Equal(t, []int{}, Zeros(1, 1).Squeeze().Shape)
	require.Equal(t, 1, Zeros(1, 1).Squeeze().Size())
}

func TestLog10AndReplaceNaN(t *testing.T) {
	a, err := FromSlice([]float64{100, 1, 0, -1, math.NaN()}, 5)
	require.NoError(t, err)

	a.Log10()
	require.Equal(t, 2.0, a.Data[0])
	require.Equal(t, 0.0, a.Data[1])
	require.True(t, math.IsInf(a.Data[2], -1))
	require.True(t, math.IsNaN(a.Data[3]))

	a.ReplaceNaN(0)
	require.Equal(t, 0.0, a.Data[3])
	require.Equal(t, 0.0, a.Data[4])
}

func TestEqual(t *testing.T) {
	a, _ := FromSlice([]float64{1, math.NaN()}, 2)
	b := a.Clone()
	require.True(t, a.Equal(b))

	b.Data[0] = 2
	require.False(t, a.Equal(b))

	c, _ := FromSlice([]float64{1, math.NaN()}, 1, 2)
	require.False(t, a.Equal(c))
}

func TestSelect(t *testing.T) {
	data := seq(30) // shape 5 x 6

	tests := []struct {
		name  string
		sel   []axis.Range
		shape []int
		want  []float64
	}{
		{
			name:  "full",
			sel:   []axis.Range{axis.Full(5, 1), axis.Full(6, 1)},
			shape: []int{5, 6},
			want:  data,
		},
		{
			name:  "single row",
			sel:   []axis.Range{axis.Index(2), axis.Full(6, 1)},
			shape: []int{1, 6},
			want:  []float64{12, 13, 14, 15, 16, 17},
		},
		{
			name:  "strided columns",
			sel:   []axis.Range{axis.Span(1, 2, 1), axis.Full(6, 2)},
			shape: []int{2, 3},
			want:  []float64{6, 8, 10, 12, 14, 16},
		},
		{
			name:  "imaginary interleave",
			sel:   []axis.Range{axis.Index(0), axis.Full(3, 1).Doubled(1)},
			shape: []int{1, 3},
			want:  []float64{1, 3, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(data, []int{5, 6}, tt.sel)
			require.NoError(t, err)
			require.Equal(t, tt.shape, got.Shape)
			require.Equal(t, tt.want, got.Data)
		})
	}
}

func TestSelect_Errors(t *testing.T) {
	data := seq(6)
	_, err := Select(data, []int{2, 3}, []axis.Range{axis.Full(2, 1)})
	require.Error(t, err)

	_, err = Select(data, []int{2, 3}, []axis.Range{axis.Index(2), axis.Full(3, 1)})
	require.Error(t, err)

	_, err = Select(data, []int{3, 3}, []axis.Range{axis.Full(3, 1), axis.Full(3, 1)})
	require.Error(t, err)
}

func TestDivide(t *testing.T) {
	a, _ := FromSlice([]float64{2, 4, 6, 8, 10, 12}, 2, 3)
	require.NoError(t, a.Divide([]float64{2, 4, 6}))
	require.Equal(t, []float64{1, 1, 1, 4, 2.5, 2}, a.Data)

	require.NoError(t, a.Divide([]float64{0.5}))
	require.Equal(t, []float64{2, 2, 2, 8, 5, 4}, a.Data)

	require.Error(t, a.Divide([]float64{1, 2, 3, 4}))
}
