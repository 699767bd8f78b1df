package source

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// Kind names a family of diagnostic files.
type Kind struct {
	Prefix string
	Layout Layout
}

// Diagnostic file families. Older particle binning outputs use the
// ParticleDiagnostic prefix.
var (
	KindFields             = Kind{Prefix: "Fields", Layout: LayoutFields}
	KindParticleBinning    = Kind{Prefix: "ParticleBinning", Layout: LayoutParticleBinning}
	KindParticleDiagnostic = Kind{Prefix: "ParticleDiagnostic", Layout: LayoutParticleBinning}
)

// FileName returns the file holding diagnostic number n in dir.
func (k Kind) FileName(dir string, n int) string {
	return filepath.Join(dir, k.Prefix+strconv.Itoa(n)+".h5")
}

// Discover lists the diagnostic numbers of kind k present in dir.
func Discover(dir string, k Kind) ([]int, error) {
	files, err := filepath.Glob(filepath.Join(dir, k.Prefix+"*.h5"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(k.Prefix) + `([0-9]+)\.h5$`)
	var numbers []int
	for _, f := range files {
		m := pattern.FindStringSubmatch(filepath.Base(f))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// DiscoverCommon lists the diagnostic numbers of kind k present in every
// directory.
func DiscoverCommon(dirs []string, k Kind) ([]int, error) {
	var common []int
	for i, dir := range dirs {
		numbers, err := Discover(dir, k)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			common = numbers
			continue
		}
		present := make(map[int]bool, len(numbers))
		for _, n := range numbers {
			present[n] = true
		}
		kept := common[:0]
		for _, n := range common {
			if present[n] {
				kept = append(kept, n)
			}
		}
		common = kept
	}
	return common, nil
}
