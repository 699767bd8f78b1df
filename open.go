package happi

import (
	"errors"
	"os"
	"sort"
	"strconv"

	"github.com/scigolib/happi/internal/source"
	"github.com/scigolib/happi/internal/utils"
)

// OpenFields opens Fields<number>.h5 in every results directory and builds
// the field diagnostic over them (see NewField). Directories are restarts
// of one simulation, oldest first. The diagnostic owns the files; call
// Close when done.
//
// Example:
//
//	d, err := happi.OpenFields([]string{"run1", "run2"}, 0, "Ex**2+Ey**2", happi.WithTimesteps(100, 500))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
func OpenFields(dirs []string, number int, operation string, opts ...Option) (*Diagnostic, error) {
	name := source.KindFields.Prefix + strconv.Itoa(number)
	if len(dirs) == 0 {
		return failed(source.LayoutFields, name, opts, utils.Errorf(utils.ErrConfiguration, "no results directory"))
	}

	sources := make([]Source, 0, len(dirs))
	for _, dir := range dirs {
		src, err := source.OpenHDF5(source.KindFields.FileName(dir, number), source.LayoutFields)
		if err != nil {
			closeAll(sources)
			return failed(source.LayoutFields, name, opts, err)
		}
		sources = append(sources, src)
	}

	d, err := NewField(number, sources, operation, opts...)
	if err != nil {
		closeAll(sources)
		return d, err
	}
	d.owned = true
	return d, nil
}

// OpenParticleBinning opens the particle binning files in dir referenced
// by operation and builds the diagnostic over them (see
// NewParticleBinning). Each #N is read from ParticleBinning<N>.h5, or from
// the older ParticleDiagnostic<N>.h5. The diagnostic owns the files; call
// Close when done.
//
// Parameters:
//   - dir: Results directory
//   - operation: Diagnostic number or "#N" expression
//   - opts: Construction options
//
// Returns:
//   - *Diagnostic: Never nil; invalid when a file is missing or construction failed
//   - error: ErrSourceOpen for unreadable files, otherwise the construction errors
func OpenParticleBinning(dir string, operation string, opts ...Option) (*Diagnostic, error) {
	op, err := particleOperation(operation)
	if err != nil {
		return failed(source.LayoutParticleBinning, particleName(op), opts, err)
	}

	sources := make(map[int]Source)
	for _, n := range referencedDiagnostics(op) {
		src, err := openBinning(dir, n)
		if err != nil {
			closeAll(values(sources))
			return failed(source.LayoutParticleBinning, particleName(op), opts, err)
		}
		sources[n] = src
	}

	d, err := NewParticleBinning(sources, op, opts...)
	if err != nil {
		closeAll(values(sources))
		return d, err
	}
	d.owned = true
	return d, nil
}

func openBinning(dir string, n int) (Source, error) {
	path := source.KindParticleBinning.FileName(dir, n)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if legacy := source.KindParticleDiagnostic.FileName(dir, n); fileExists(legacy) {
			path = legacy
		}
	}
	return source.OpenHDF5(path, source.LayoutParticleBinning)
}

// FieldDiagnostics lists the field diagnostic numbers present in every
// results directory.
func FieldDiagnostics(dirs ...string) ([]int, error) {
	return source.DiscoverCommon(dirs, source.KindFields)
}

// ParticleBinningDiagnostics lists the particle binning diagnostic numbers
// in dir, under either file name.
func ParticleBinningDiagnostics(dir string) ([]int, error) {
	current, err := source.Discover(dir, source.KindParticleBinning)
	if err != nil {
		return nil, err
	}
	legacy, err := source.Discover(dir, source.KindParticleDiagnostic)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(current))
	for _, n := range current {
		seen[n] = true
	}
	out := append([]int(nil), current...)
	for _, n := range legacy {
		if !seen[n] {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

// failed returns an invalid diagnostic for an error raised before
// construction could start.
func failed(layout source.Layout, name string, opts []Option, err error) (*Diagnostic, error) {
	d := newDiagnostic(layout.String(), name, newSettings(opts))
	return d.fail(err)
}

func closeAll(sources []Source) {
	for _, s := range sources {
		_ = s.Close()
	}
}

func values(m map[int]Source) []Source {
	out := make([]Source, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
