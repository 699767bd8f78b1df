package utils

import (
	"fmt"
	"math"
)

// MaxSelectionElements limits how many elements one read or one
// reconstructed grid may hold.
const MaxSelectionElements = 1 << 31

// CheckMultiplyOverflow checks if multiplying two uint64 values would overflow.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil
	}
	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}
	return nil
}

// SafeMultiply multiplies two uint64 values, failing on overflow.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// ValidateHyperslabBounds checks that start + (count-1)*stride stays inside
// every dimension.
func ValidateHyperslabBounds(start, count, stride, dims []uint64) error {
	if len(start) != len(dims) || len(count) != len(dims) || len(stride) != len(dims) {
		return fmt.Errorf("hyperslab dimension mismatch: start=%d, count=%d, stride=%d, dims=%d",
			len(start), len(count), len(stride), len(dims))
	}

	for i := range start {
		if count[i] == 0 {
			return fmt.Errorf("hyperslab count must be > 0 at dimension %d", i)
		}
		maxIndex, err := SafeMultiply(count[i]-1, stride[i])
		if err != nil {
			return fmt.Errorf("hyperslab stride overflow at dimension %d: %w", i, err)
		}
		if start[i]+maxIndex >= dims[i] {
			return fmt.Errorf("hyperslab selection exceeds dataset bounds at dimension %d: start=%d, count=%d, stride=%d, dim_size=%d",
				i, start[i], count[i], stride[i], dims[i])
		}
	}
	return nil
}

// CountElements returns the product of counts, failing on overflow or when
// the total exceeds MaxSelectionElements.
func CountElements(count []uint64) (uint64, error) {
	total := uint64(1)
	for i, c := range count {
		if err := CheckMultiplyOverflow(total, c); err != nil {
			return 0, fmt.Errorf("element count overflow at dimension %d: %w", i, err)
		}
		total *= c
	}
	if total > MaxSelectionElements {
		return 0, fmt.Errorf("selection of %d elements exceeds maximum %d", total, uint64(MaxSelectionElements))
	}
	return total, nil
}
