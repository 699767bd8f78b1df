package axis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustResolve(t *testing.T, spec Spec, req Request) Resolved {
	t.Helper()
	res, err := Resolve(spec, req)
	require.NoError(t, err)
	return res
}

func TestBinSizes_OuterProduct(t *testing.T) {
	axes := []Resolved{
		mustResolve(t, Spec{Type: "px", Min: 0, Max: 4, Size: 2}, Request{}),
		mustResolve(t, Spec{Type: "ekin", Min: 1, Max: 100, Size: 2, Log: true}, Request{}),
	}

	sizes := BinSizes(axes, Grid{})
	require.InDeltaSlice(t, []float64{2 * 9, 2 * 90, 2 * 9, 2 * 90}, sizes, 1e-9)
}

func TestBinSizes_NoRetainedAxis(t *testing.T) {
	axes := []Resolved{
		mustResolve(t, Spec{Type: "px", Min: 0, Max: 4, Size: 2}, Request{Average: ptr(All())}),
	}
	require.Equal(t, []float64{1}, BinSizes(axes, Grid{}))
}

func TestSpatialCoefficient(t *testing.T) {
	grid := Grid{CellLength: []float64{0.5, 0.25}, CellCount: []int{100, 40}}

	t.Run("spatial axis kept", func(t *testing.T) {
		axes := []Resolved{mustResolve(t, Spec{Type: "x", Min: 0, Max: 10, Size: 10}, Request{})}
		// x present (0.5), y missing (1/40).
		require.InDelta(t, 0.5/40, SpatialCoefficient(axes, grid), 1e-12)
	})

	t.Run("spatial axis averaged", func(t *testing.T) {
		axes := []Resolved{
			mustResolve(t, Spec{Type: "x", Min: 0, Max: 10, Size: 10}, Request{Average: ptr(Between(2, 5))}),
			mustResolve(t, Spec{Type: "y", Min: 0, Max: 10, Size: 5}, Request{}),
		}
		require.InDelta(t, 0.5/3*0.25, SpatialCoefficient(axes, grid), 1e-12)
	})

	t.Run("spatial axis sliced to one bin", func(t *testing.T) {
		wide := Spec{Type: "x", Min: 0, Max: 20, Size: 10}
		single := mustResolve(t, wide, Request{Subset: ptr(At(7))})
		require.Equal(t, SliceSingle, single.Transform.Kind)
		// One bin 2 wide: same coefficient as averaging over that bin.
		averaged := mustResolve(t, wide, Request{Average: ptr(At(7))})
		require.InDelta(t, 0.5/2/40, SpatialCoefficient([]Resolved{single}, grid), 1e-12)
		require.InDelta(t, SpatialCoefficient([]Resolved{averaged}, grid),
			SpatialCoefficient([]Resolved{single}, grid), 1e-12)
	})

	t.Run("no spatial axis", func(t *testing.T) {
		axes := []Resolved{mustResolve(t, Spec{Type: "px", Min: -1, Max: 1, Size: 4}, Request{})}
		require.InDelta(t, 1.0/4000, SpatialCoefficient(axes, grid), 1e-15)
	})

	t.Run("unknown grid", func(t *testing.T) {
		axes := []Resolved{mustResolve(t, Spec{Type: "x", Min: 0, Max: 10, Size: 10}, Request{})}
		require.InDelta(t, 1.0, SpatialCoefficient(axes, Grid{}), 1e-12)
	})
}
