package source

import (
	"fmt"
	"sort"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/ndarray"
)

// Memory is an in-memory source. Arrays handed to it are copied on every
// read, so callers never share storage with the engine.
type Memory struct {
	path   string
	attrs  map[string]interface{}
	frames []*MemoryFrame
	closed bool
}

// NewMemory returns an empty source with the given root attributes.
func NewMemory(name string, attrs map[string]interface{}) *Memory {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	return &Memory{path: name, attrs: attrs}
}

// AddFrame appends a frame for timestep t. Frames are reported ordered by
// timestep whatever the insertion order.
func (m *Memory) AddFrame(t int64, attrs map[string]interface{}) *MemoryFrame {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	f := &MemoryFrame{timestep: t, attrs: attrs, datasets: make(map[string]*memoryDataset)}
	m.frames = append(m.frames, f)
	sort.SliceStable(m.frames, func(i, j int) bool { return m.frames[i].timestep < m.frames[j].timestep })
	return f
}

// Path returns the name given at construction.
func (m *Memory) Path() string { return m.path }

// Frames returns the frames ordered by timestep.
func (m *Memory) Frames() []Frame {
	out := make([]Frame, len(m.frames))
	for i, f := range m.frames {
		out[i] = f
	}
	return out
}

// Attr returns a root attribute.
func (m *Memory) Attr(name string) (interface{}, bool) {
	v, ok := m.attrs[name]
	return v, ok
}

// Close marks the source closed. It is safe to call more than once.
func (m *Memory) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool { return m.closed }

// MemoryFrame is one frame of a Memory source.
type MemoryFrame struct {
	timestep int64
	attrs    map[string]interface{}
	datasets map[string]*memoryDataset
}

// Put stores an array under name with optional dataset attributes.
func (f *MemoryFrame) Put(name string, a *ndarray.Array, attrs map[string]interface{}) *MemoryFrame {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	f.datasets[name] = &memoryDataset{name: name, array: a.Clone(), attrs: attrs}
	return f
}

// Timestep returns the frame's timestep.
func (f *MemoryFrame) Timestep() int64 { return f.timestep }

// Names lists the datasets in lexical order.
func (f *MemoryFrame) Names() []string {
	names := make([]string, 0, len(f.datasets))
	for n := range f.datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dataset returns the dataset called name.
func (f *MemoryFrame) Dataset(name string) (Dataset, error) {
	d, ok := f.datasets[name]
	if !ok {
		return nil, fmt.Errorf("timestep %d: no dataset %q", f.timestep, name)
	}
	return d, nil
}

// Attr returns a frame attribute.
func (f *MemoryFrame) Attr(name string) (interface{}, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

type memoryDataset struct {
	name  string
	array *ndarray.Array
	attrs map[string]interface{}
}

func (d *memoryDataset) Name() string { return d.name }

func (d *memoryDataset) Shape() []int { return append([]int(nil), d.array.Shape...) }

func (d *memoryDataset) Attr(name string) (interface{}, bool) {
	v, ok := d.attrs[name]
	return v, ok
}

func (d *memoryDataset) Read(sel []axis.Range) (*ndarray.Array, error) {
	if sel == nil {
		return d.array.Clone(), nil
	}
	return ndarray.Select(d.array.Data, d.array.Shape, sel)
}
