package expr

import (
	"regexp"
	"strings"

	"github.com/scigolib/happi/internal/ndarray"
	"github.com/scigolib/happi/internal/utils"
)

var reference = regexp.MustCompile(`C\["(?:[^"\\]|\\.)*"\]`)

// Operation is a parsed user operation. It is immutable and may be evaluated
// any number of times.
type Operation struct {
	Raw         string   // Operation as written by the user.
	Names       []string // Referenced quantities, longest first.
	Substituted string   // Operation with every quantity replaced by C["name"].
	root        node
}

// Parse substitutes the available quantity names into op, parses the result
// and validates it by evaluating it once with every quantity set to 1.
// Division by zero during validation is not an error.
func Parse(op string, available []string) (*Operation, error) {
	if strings.TrimSpace(op) == "" {
		return nil, utils.Errorf(utils.ErrUnparsableOperation, "empty operation")
	}

	substituted, names := Substitute(op, available)
	root, unknown, err := parse(substituted)
	if len(unknown) > 0 {
		return nil, utils.Errorf(utils.ErrUnknownQuantity,
			"%q in operation %q is not one of %v", unknown[0], op, available)
	}
	if strings.Contains(reference.ReplaceAllString(substituted, ""), "#") {
		return nil, utils.Errorf(utils.ErrUnknownQuantity,
			"operation %q references a diagnostic number not in %v", op, available)
	}
	if err != nil {
		return nil, utils.Errorf(utils.ErrUnparsableOperation, "cannot parse operation %q: %v", op, err)
	}
	if len(names) == 0 {
		return nil, utils.Errorf(utils.ErrUnknownQuantity,
			"operation %q references none of %v", op, available)
	}

	o := &Operation{Raw: op, Names: names, Substituted: substituted, root: root}

	dummy := make(map[string]*ndarray.Array, len(names))
	for _, name := range names {
		dummy[name] = ndarray.Scalar(1)
	}
	if _, err := o.root.eval(dummy); err != nil {
		return nil, utils.Errorf(utils.ErrUnparsableOperation, "cannot evaluate operation %q: %v", op, err)
	}
	return o, nil
}

// Eval evaluates the operation over the given quantity arrays. Every
// referenced quantity must be present; arrays must share one shape.
func (o *Operation) Eval(values map[string]*ndarray.Array) (*ndarray.Array, error) {
	out, err := o.root.eval(values)
	if err != nil {
		return nil, utils.WrapError("operation "+o.Raw, err)
	}
	for _, in := range values {
		if in == out {
			return out.Clone(), nil
		}
	}
	return out, nil
}

// String returns the operation as written.
func (o *Operation) String() string {
	return o.Raw
}
