package happi

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/metrics"
	"github.com/scigolib/happi/internal/ndarray"
	"github.com/scigolib/happi/internal/source"
)

// Array is a dense row-major float64 array.
type Array = ndarray.Array

// NewArray wraps data (not copied) with the given shape.
func NewArray(data []float64, shape ...int) (*Array, error) {
	return ndarray.FromSlice(data, shape...)
}

// Source is an opened diagnostic file: one frame per recorded timestep.
type Source = source.Source

// MemorySource is a Source holding arrays in memory.
type MemorySource = source.Memory

// NewMemorySource returns an empty in-memory source with root attributes.
func NewMemorySource(name string, attrs map[string]interface{}) *MemorySource {
	return source.NewMemory(name, attrs)
}

// HistogramName is the dataset name of a particle binning frame in a
// MemorySource.
const HistogramName = source.HistogramName

// Directive is a per-axis subset or average request.
type Directive = axis.Directive

// All designates a whole axis.
func All() Directive { return axis.All() }

// At designates the bin whose center is nearest to v.
func At(v float64) Directive { return axis.At(v) }

// Between designates every bin whose center lies in [lo, hi].
func Between(lo, hi float64) Directive { return axis.Between(lo, hi) }

// Metrics records query counts, latencies and reconstruction work.
type Metrics = metrics.Collector

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return metrics.New(reg)
}

// Axis describes one dimension of the arrays returned by a diagnostic.
type Axis struct {
	Label   string
	Centers []float64
	Units   string
	Log     bool
}
