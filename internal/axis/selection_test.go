package axis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRange_Count(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		want int
	}{
		{name: "full", r: Full(10, 1), want: 10},
		{name: "strided", r: Full(10, 3), want: 4},
		{name: "single", r: Index(4), want: 1},
		{name: "span", r: Span(2, 5, 1), want: 4},
		{name: "strided span", r: Span(2, 9, 3), want: 3},
		{name: "empty", r: Range{Start: 3, Stop: 3, Step: 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.r.Count())
			require.Len(t, tt.r.Indices(), tt.want)
		})
	}
}

func TestRange_Doubled(t *testing.T) {
	tests := []struct {
		name string
		r    Range
	}{
		{name: "full", r: Full(8, 1)},
		{name: "full strided", r: Full(8, 3)},
		{name: "single", r: Index(5)},
		{name: "range", r: Span(1, 6, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := tt.r.Doubled(0)
			im := tt.r.Doubled(1)

			require.Equal(t, Range{Start: 2 * tt.r.Start, Stop: 2 * tt.r.Stop, Step: 2 * tt.r.Step, Single: tt.r.Single}, re)
			require.Equal(t, Range{Start: 2*tt.r.Start + 1, Stop: 2*tt.r.Stop + 1, Step: 2 * tt.r.Step, Single: tt.r.Single}, im)
			require.Equal(t, tt.r.Count(), re.Count())
			require.Equal(t, tt.r.Count(), im.Count())

			for k, i := range tt.r.Indices() {
				require.Equal(t, 2*i, re.Indices()[k])
				require.Equal(t, 2*i+1, im.Indices()[k])
			}
		})
	}
}

func TestShapeAndPick(t *testing.T) {
	sel := []Range{Full(4, 1), Index(2), Span(1, 5, 2)}
	require.Equal(t, []int{4, 1, 3}, Shape(sel))
	require.Equal(t, []float64{1, 3, 5}, Span(1, 5, 2).Pick([]float64{0, 1, 2, 3, 4, 5}))
}
