package axis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/scigolib/happi/internal/utils"
)

// DirectiveKind tells how a directive designates bins of an axis.
type DirectiveKind int

const (
	// DirectiveAll designates the whole axis (the literal "all").
	DirectiveAll DirectiveKind = iota
	// DirectiveAt designates the bin whose center is nearest to a value.
	DirectiveAt
	// DirectiveBetween designates the bins whose centers lie in [Lo, Hi].
	DirectiveBetween
)

// Directive is a user request on one axis, used by both subset and average.
type Directive struct {
	Kind DirectiveKind
	Lo   float64
	Hi   float64
	Step float64 // Optional coordinate step of a Between subset; 0 means every bin.
}

// All designates the whole axis.
func All() Directive { return Directive{Kind: DirectiveAll} }

// At designates the bin nearest to v.
func At(v float64) Directive { return Directive{Kind: DirectiveAt, Lo: v, Hi: v} }

// Between designates the bins whose centers lie in [lo, hi].
func Between(lo, hi float64) Directive { return Directive{Kind: DirectiveBetween, Lo: lo, Hi: hi} }

// String renders the directive in the form accepted by ParseDirective.
func (d Directive) String() string {
	switch d.Kind {
	case DirectiveAll:
		return "all"
	case DirectiveAt:
		return strconv.FormatFloat(d.Lo, 'g', -1, 64)
	default:
		if d.Step > 0 {
			return fmt.Sprintf("[%g, %g, %g]", d.Lo, d.Hi, d.Step)
		}
		return fmt.Sprintf("[%g, %g]", d.Lo, d.Hi)
	}
}

// ParseDirective converts a loosely typed value (as decoded from YAML or
// passed by a caller) into a Directive. Accepted forms are the string "all",
// a number, or a list of one, two or three numbers.
func ParseDirective(v interface{}) (Directive, error) {
	switch val := v.(type) {
	case Directive:
		return val, nil
	case string:
		s := strings.TrimSpace(val)
		if strings.EqualFold(s, "all") {
			return All(), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Directive{}, utils.Errorf(utils.ErrConfiguration, "directive %q must be \"all\" or a number", val)
		}
		return At(f), nil
	case []float64:
		return directiveFromList(val)
	case []interface{}:
		list := make([]float64, len(val))
		for i, item := range val {
			f, ok := toFloat(item)
			if !ok {
				return Directive{}, utils.Errorf(utils.ErrConfiguration, "directive element %v is not a number", item)
			}
			list[i] = f
		}
		return directiveFromList(list)
	case [2]float64:
		return directiveFromList(val[:])
	}
	if f, ok := toFloat(v); ok {
		return At(f), nil
	}
	return Directive{}, utils.Errorf(utils.ErrConfiguration, "unsupported directive %v (%T)", v, v)
}

func directiveFromList(list []float64) (Directive, error) {
	for _, f := range list {
		if math.IsNaN(f) {
			return Directive{}, utils.Errorf(utils.ErrConfiguration, "directive contains NaN")
		}
	}
	switch len(list) {
	case 1:
		return At(list[0]), nil
	case 2:
		return Between(list[0], list[1]), nil
	case 3:
		if list[2] <= 0 {
			return Directive{}, utils.Errorf(utils.ErrConfiguration, "directive step must be positive (got %g)", list[2])
		}
		d := Between(list[0], list[1])
		d.Step = list[2]
		return d, nil
	default:
		return Directive{}, utils.Errorf(utils.ErrConfiguration, "directive should be one, two or three numbers (got %d)", len(list))
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
