// Package expr parses and evaluates the user operations combining named
// quantities, e.g. "Ex**2+Ey**2" or "#0/#1".
package expr

import (
	"sort"
	"strconv"
	"strings"
)

// ByLengthDesc sorts names longest first, then lexically.
func ByLengthDesc(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Substitute replaces every whole-word occurrence of a name in op by the
// reference C["name"] and returns the rewritten operation together with the
// names it references, longest first.
func Substitute(op string, names []string) (string, []string) {
	return Replace(op, names, Reference)
}

// Replace rewrites every whole-word occurrence of a name in op with
// repl(name) and returns the result with the names found, longest first.
//
// The input is scanned once, trying longer names first at every position, so
// "Ex" never matches inside "Ex_sq" nor inside an already replaced name.
func Replace(op string, names []string, repl func(string) string) (string, []string) {
	ordered := ByLengthDesc(names)
	var b strings.Builder
	seen := make(map[string]bool)

	for i := 0; i < len(op); {
		matched := ""
		for _, name := range ordered {
			if name != "" && matchesAt(op, i, name) {
				matched = name
				break
			}
		}
		if matched == "" {
			b.WriteByte(op[i])
			i++
			continue
		}
		b.WriteString(repl(matched))
		seen[matched] = true
		i += len(matched)
	}

	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	return b.String(), ByLengthDesc(refs)
}

// Reference returns the substituted form of a quantity name.
func Reference(name string) string {
	return "C[" + strconv.Quote(name) + "]"
}

// matchesAt reports whether name occurs in op at position i, delimited by
// non-word characters wherever the name itself starts or ends with a word
// character.
func matchesAt(op string, i int, name string) bool {
	if !strings.HasPrefix(op[i:], name) {
		return false
	}
	if isWord(name[0]) && i > 0 && isWord(op[i-1]) {
		return false
	}
	end := i + len(name)
	if isWord(name[len(name)-1]) && end < len(op) && isWord(op[end]) {
		return false
	}
	return true
}

func isWord(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
