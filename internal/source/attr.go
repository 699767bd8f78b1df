package source

import "strings"

// Float converts a scalar attribute value to float64.
func Float(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	if f, ok := Floats(v); ok && len(f) == 1 {
		return f[0], true
	}
	return 0, false
}

// Floats converts a numeric attribute value (scalar or array) to []float64.
func Floats(v interface{}) ([]float64, bool) {
	switch x := v.(type) {
	case []float64:
		return append([]float64(nil), x...), true
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out, true
	case []int32:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true
	case []int64:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true
	case []int:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true
	case float64, float32, int32, int64, int, uint32, uint64:
		f, _ := Float(x)
		return []float64{f}, true
	}
	return nil, false
}

// String converts a string attribute value, trimming padding.
func String(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimRight(x, "\x00 "), true
	case []byte:
		return strings.TrimRight(string(x), "\x00 "), true
	case []string:
		if len(x) == 1 {
			return strings.TrimRight(x[0], "\x00 "), true
		}
	}
	return "", false
}
