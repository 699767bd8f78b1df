package axis

// Grid describes the simulation mesh used to turn binned counts into
// densities. The zero value means "unknown mesh": every cell length is 1
// and no dimension is considered missing.
type Grid struct {
	CellLength []float64 // Cell length along x, y, z.
	CellCount  []int     // Number of cells along x, y, z.
}

// Dims returns the number of spatial dimensions of the mesh.
func (g Grid) Dims() int {
	return len(g.CellLength)
}

func (g Grid) cellLength(dim int) float64 {
	if dim < 0 || dim >= len(g.CellLength) || g.CellLength[dim] == 0 {
		return 1
	}
	return g.CellLength[dim]
}

// SpatialCoefficient returns the factor relating one histogram bin to a
// density: the product of cell lengths of the spatial axes present, divided
// by the span of every averaged or sliced spatial axis and by the cell count of every
// mesh dimension absent from the histogram.
func SpatialCoefficient(axes []Resolved, grid Grid) float64 {
	coeff := 1.0
	present := make(map[int]bool)
	for _, a := range axes {
		dim := SpatialDim(a.Spec.Type)
		if dim < 0 {
			continue
		}
		present[dim] = true
		coeff *= grid.cellLength(dim)
		if !a.Retained() {
			if span := a.selectedSpan(); span != 0 {
				coeff /= span
			}
		}
	}
	for dim := 0; dim < grid.Dims() && dim < 3; dim++ {
		if present[dim] {
			continue
		}
		if dim < len(grid.CellCount) && grid.CellCount[dim] > 0 {
			coeff /= float64(grid.CellCount[dim])
		}
	}
	return coeff
}

// BinSizes returns the size of every output cell in row-major order over the
// retained axes: the outer product of their selected bin widths, divided by
// the spatial coefficient. With no retained axis it holds a single value.
func BinSizes(axes []Resolved, grid Grid) []float64 {
	sizes := []float64{1}
	for _, a := range axes {
		if !a.Retained() {
			continue
		}
		widths := a.SelectedWidths()
		next := make([]float64, 0, len(sizes)*len(widths))
		for _, s := range sizes {
			for _, w := range widths {
				next = append(next, s*w)
			}
		}
		sizes = next
	}
	coeff := SpatialCoefficient(axes, grid)
	for i := range sizes {
		sizes[i] /= coeff
	}
	return sizes
}

// selectedSpan returns the coordinate span covered by the selected bins.
func (r Resolved) selectedSpan() float64 {
	idx := r.Selection.Indices()
	if len(idx) == 0 {
		return 0
	}
	return r.Edges[idx[len(idx)-1]+1] - r.Edges[idx[0]]
}
