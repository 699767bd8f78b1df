// Package cylindrical reconstructs Cartesian planes and volumes from fields
// stored as azimuthal Fourier modes in cylindrical geometry.
//
// Mode m of a field is stored in the dataset "<field>_mode_<m>" as a 2D (x, r)
// array whose r dimension interleaves the real part (even indices) and the
// imaginary part (odd indices). Mode 0 has no imaginary part.
package cylindrical

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/ndarray"
)

var modeName = regexp.MustCompile(`^(.+)_mode_(\d+)$`)

// ModeTable maps a field name to its number of stored modes.
type ModeTable map[string]int

// ModeName returns the dataset name holding mode m of field.
func ModeName(field string, m int) string {
	return field + "_mode_" + strconv.Itoa(m)
}

// ParseModeName splits a dataset name into its field and mode index.
func ParseModeName(name string) (field string, mode int, ok bool) {
	m := modeName.FindStringSubmatch(name)
	if m == nil {
		return "", 0, false
	}
	mode, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], mode, true
}

// NewModeTable builds the table from dataset names. The mode count of a
// field is the number of consecutive modes stored from mode 0.
func NewModeTable(names []string) ModeTable {
	stored := make(map[string]bool, len(names))
	fields := make(map[string]bool)
	for _, n := range names {
		stored[n] = true
		if f, _, ok := ParseModeName(n); ok {
			fields[f] = true
		}
	}
	table := make(ModeTable, len(fields))
	for f := range fields {
		n := 0
		for stored[ModeName(f, n)] {
			n++
		}
		table[f] = n
	}
	return table
}

// Fields returns the field names in lexical order.
func (t ModeTable) Fields() []string {
	out := make([]string, 0, len(t))
	for f := range t {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Modes returns the mode indices to synthesize for the given fields: the
// requested ones, or every mode up to the largest count among fields when
// none are requested. Indices a field does not store are skipped during
// synthesis.
func Modes(t ModeTable, fields []string, requested []int) []int {
	if len(requested) > 0 {
		return append([]int(nil), requested...)
	}
	max := 0
	for _, f := range fields {
		if t[f] > max {
			max = t[f]
		}
	}
	modes := make([]int, max)
	for i := range modes {
		modes[i] = i
	}
	return modes
}

// Reader reads the stored array of one mode of a field. A nil selection
// reads the whole dataset.
type Reader interface {
	ReadMode(field string, mode int, sel []axis.Range) (*ndarray.Array, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(field string, mode int, sel []axis.Range) (*ndarray.Array, error)

// ReadMode calls f.
func (f ReaderFunc) ReadMode(field string, mode int, sel []axis.Range) (*ndarray.Array, error) {
	return f(field, mode, sel)
}

// Synthesizer reconstructs one field from its modes.
type Synthesizer interface {
	Synthesize(r Reader, field string, nmodes int, modes []int) (*ndarray.Array, int, error)
	Shape() []int
}
