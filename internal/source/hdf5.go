package source

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/scigolib/hdf5"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/ndarray"
	"github.com/scigolib/happi/internal/utils"
)

// Layout selects how frames are laid out in an HDF5 file.
type Layout int

const (
	// LayoutFields stores one group per timestep under /data, named after
	// the timestep, holding one dataset per field.
	LayoutFields Layout = iota
	// LayoutParticleBinning stores one root dataset per timestep, named
	// "timestep<N>", and describes the histogram axes in root attributes.
	LayoutParticleBinning
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutFields:
		return "fields"
	case LayoutParticleBinning:
		return "particle-binning"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// HDF5 is a source backed by an open HDF5 file.
type HDF5 struct {
	path   string
	file   *hdf5.File
	attrs  map[string]interface{}
	frames []Frame
}

// OpenHDF5 opens path read-only and indexes its frames.
func OpenHDF5(filename string, layout Layout) (*HDF5, error) {
	f, err := hdf5.Open(filename)
	if err != nil {
		return nil, utils.Errorf(utils.ErrSourceOpen, "could not open %q: %v", filename, err)
	}

	s := &HDF5{path: filename, file: f}
	root := f.Root()
	s.attrs, err = groupAttrs(root)
	if err != nil {
		_ = f.Close()
		return nil, utils.Errorf(utils.ErrSourceOpen, "%s: reading attributes: %v", filename, err)
	}

	switch layout {
	case LayoutFields:
		err = s.indexFieldFrames(root)
	case LayoutParticleBinning:
		err = s.indexHistogramFrames(root)
	default:
		err = fmt.Errorf("unknown layout %v", layout)
	}
	if err != nil {
		_ = f.Close()
		return nil, utils.Errorf(utils.ErrSourceOpen, "%s: %v", filename, err)
	}

	sort.SliceStable(s.frames, func(i, j int) bool {
		return s.frames[i].Timestep() < s.frames[j].Timestep()
	})
	return s, nil
}

// Path returns the file name.
func (s *HDF5) Path() string { return s.path }

// Frames returns the frames ordered by timestep.
func (s *HDF5) Frames() []Frame { return s.frames }

// Attr returns a root attribute.
func (s *HDF5) Attr(name string) (interface{}, bool) {
	v, ok := s.attrs[name]
	return v, ok
}

// Close releases the file.
func (s *HDF5) Close() error {
	return s.file.Close()
}

func (s *HDF5) indexFieldFrames(root *hdf5.Group) error {
	data := childGroup(root, "data")
	if data == nil {
		return fmt.Errorf("no /data group")
	}
	for _, obj := range data.Children() {
		g, ok := obj.(*hdf5.Group)
		if !ok {
			continue
		}
		// Non-numeric entries such as "tmp" are not frames.
		t, err := strconv.ParseInt(baseName(g.Name()), 10, 64)
		if err != nil {
			continue
		}
		attrs, err := groupAttrs(g)
		if err != nil {
			return fmt.Errorf("timestep %d: %w", t, err)
		}
		fr := &h5Frame{timestep: t, attrs: attrs, datasets: make(map[string]*hdf5.Dataset)}
		for _, child := range g.Children() {
			if ds, ok := child.(*hdf5.Dataset); ok {
				fr.datasets[baseName(ds.Name())] = ds
			}
		}
		s.frames = append(s.frames, fr)
	}
	return nil
}

func (s *HDF5) indexHistogramFrames(root *hdf5.Group) error {
	for _, obj := range root.Children() {
		ds, ok := obj.(*hdf5.Dataset)
		if !ok {
			continue
		}
		name := baseName(ds.Name())
		if !strings.HasPrefix(name, "timestep") {
			continue
		}
		t, err := strconv.ParseInt(strings.TrimPrefix(name, "timestep"), 10, 64)
		if err != nil {
			continue
		}
		s.frames = append(s.frames, &h5Frame{
			timestep: t,
			datasets: map[string]*hdf5.Dataset{HistogramName: ds},
		})
	}
	return nil
}

type h5Frame struct {
	timestep int64
	attrs    map[string]interface{}
	datasets map[string]*hdf5.Dataset
}

func (f *h5Frame) Timestep() int64 { return f.timestep }

func (f *h5Frame) Names() []string {
	names := make([]string, 0, len(f.datasets))
	for n := range f.datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (f *h5Frame) Dataset(name string) (Dataset, error) {
	ds, ok := f.datasets[name]
	if !ok {
		return nil, fmt.Errorf("timestep %d: no dataset %q", f.timestep, name)
	}
	info, err := ds.Info()
	if err != nil {
		return nil, utils.WrapError("dataset "+name, err)
	}
	shape, err := parseShape(info)
	if err != nil {
		return nil, utils.WrapError("dataset "+name, err)
	}
	return &h5Dataset{name: name, ds: ds, shape: shape}, nil
}

func (f *h5Frame) Attr(name string) (interface{}, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

type h5Dataset struct {
	name  string
	ds    *hdf5.Dataset
	shape []int
}

func (d *h5Dataset) Name() string { return d.name }

func (d *h5Dataset) Shape() []int { return append([]int(nil), d.shape...) }

func (d *h5Dataset) Attr(name string) (interface{}, bool) {
	v, err := d.ds.ReadAttribute(name)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Read reads the selection as a hyperslab. When the hyperslab reader cannot
// serve it, the whole dataset is read and the selection applied in memory.
func (d *h5Dataset) Read(sel []axis.Range) (*ndarray.Array, error) {
	if sel == nil {
		sel = make([]axis.Range, len(d.shape))
		for i, n := range d.shape {
			sel[i] = axis.Full(n, 1)
		}
	}
	if len(sel) != len(d.shape) {
		return nil, fmt.Errorf("dataset %s: selection has %d dimensions, data has %d", d.name, len(sel), len(d.shape))
	}

	hs, err := hyperslab(sel, d.shape)
	if err != nil {
		return nil, utils.WrapError("dataset "+d.name, err)
	}
	if raw, err := d.ds.ReadHyperslab(hs); err == nil {
		if data, ok := Floats(raw); ok && len(data) == sizeOf(axis.Shape(sel)) {
			return ndarray.FromSlice(data, axis.Shape(sel)...)
		}
	}

	all, err := d.ds.Read()
	if err != nil {
		return nil, utils.WrapError("dataset "+d.name, err)
	}
	out, err := ndarray.Select(all, d.shape, sel)
	if err != nil {
		return nil, utils.WrapError("dataset "+d.name, err)
	}
	return out, nil
}

// hyperslab converts a selection into an HDF5 hyperslab, checking bounds.
func hyperslab(sel []axis.Range, shape []int) (*hdf5.HyperslabSelection, error) {
	n := len(sel)
	hs := &hdf5.HyperslabSelection{
		Start:  make([]uint64, n),
		Count:  make([]uint64, n),
		Stride: make([]uint64, n),
		Block:  make([]uint64, n),
	}
	dims := make([]uint64, n)
	for i, r := range sel {
		if r.Start < 0 || r.Step < 1 {
			return nil, fmt.Errorf("invalid selection %+v in dimension %d", r, i)
		}
		hs.Start[i] = uint64(r.Start)
		hs.Count[i] = uint64(r.Count())
		hs.Stride[i] = uint64(r.Step)
		hs.Block[i] = 1
		dims[i] = uint64(shape[i])
	}
	if err := utils.ValidateHyperslabBounds(hs.Start, hs.Count, hs.Stride, dims); err != nil {
		return nil, err
	}
	if _, err := utils.CountElements(hs.Count); err != nil {
		return nil, err
	}
	return hs, nil
}

var arrayInfo = regexp.MustCompile(`(\d+)D array \[([^\]]*)\]`)

// parseShape extracts the dimensions from a dataset description such as
// "Dataset: float64, 2D array [3 x 4], contiguous".
func parseShape(info string) ([]int, error) {
	m := arrayInfo.FindStringSubmatch(info)
	if m == nil {
		if strings.Contains(info, "scalar") {
			return []int{}, nil
		}
		return nil, fmt.Errorf("cannot determine shape from %q", info)
	}
	rank, _ := strconv.Atoi(m[1])
	fields := strings.FieldsFunc(m[2], func(r rune) bool { return r < '0' || r > '9' })
	if len(fields) != rank {
		return nil, fmt.Errorf("shape %q does not have %d dimensions", m[2], rank)
	}
	shape := make([]int, rank)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid dimension %q: %w", f, err)
		}
		shape[i] = n
	}
	return shape, nil
}

func groupAttrs(g *hdf5.Group) (map[string]interface{}, error) {
	attrs, err := g.Attributes()
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(attrs))
	for _, a := range attrs {
		v, err := a.ReadValue()
		if err != nil {
			// Attribute types the reader does not decode are not needed here.
			continue
		}
		out[a.Name] = v
	}
	return out, nil
}

func childGroup(g *hdf5.Group, name string) *hdf5.Group {
	for _, obj := range g.Children() {
		if c, ok := obj.(*hdf5.Group); ok && baseName(c.Name()) == name {
			return c
		}
	}
	return nil
}

func baseName(name string) string {
	return path.Base("/" + name)
}

func sizeOf(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
