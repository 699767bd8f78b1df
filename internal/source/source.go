// Package source abstracts the diagnostic files the engine reads: a source
// is a sequence of frames, one per recorded timestep, each holding named
// datasets and attributes.
package source

import (
	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/ndarray"
)

// Dataset is one stored array.
type Dataset interface {
	Name() string
	// Shape returns the stored extents, slowest dimension first.
	Shape() []int
	// Read returns the selected elements with shape axis.Shape(sel).
	// A nil selection reads everything.
	Read(sel []axis.Range) (*ndarray.Array, error)
	Attr(name string) (interface{}, bool)
}

// Frame is the content recorded at one timestep.
type Frame interface {
	Timestep() int64
	// Names lists the datasets of the frame in lexical order.
	Names() []string
	Dataset(name string) (Dataset, error)
	Attr(name string) (interface{}, bool)
}

// Source is one opened diagnostic file.
type Source interface {
	Path() string
	// Frames returns the frames ordered by timestep.
	Frames() []Frame
	Attr(name string) (interface{}, bool)
	Close() error
}

// Timesteps lists the timesteps of a source in frame order.
func Timesteps(s Source) []int64 {
	frames := s.Frames()
	out := make([]int64, len(frames))
	for i, f := range frames {
		out[i] = f.Timestep()
	}
	return out
}

// HistogramName is the dataset name under which a particle binning frame
// exposes its histogram.
const HistogramName = "histogram"
