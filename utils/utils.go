// Package utils implements various helper functions.
package utils

import (
	"golang.org/x/exp/constraints"
)

// Min returns the minimum of the input values.
func Min[V constraints.Ordered](a, b V) V {
	if a > b {
		return b
	}
	return a
}

// Max returns the maximum of the input values.
func Max[V constraints.Ordered](a, b V) V {
	if a > b {
		return a
	}
	return b
}

// IsPowerOfTwo returns true if x is a non-zero power of two.
func IsPowerOfTwo[V constraints.Integer](x V) bool {
	return x > 0 && x&(x-1) == 0
}

// BitReverseInPlaceSlice applies an in-place bit-reverse permutation on the first N elements of the input slice.
// N must be a power of two.
func BitReverseInPlaceSlice[V any](slice []V, N int) {
	var bit, j int
	for i := 1; i < N; i++ {
		bit = N >> 1
		for j >= bit {
			j -= bit
			bit >>= 1
		}
		j += bit
		if i < j {
			slice[i], slice[j] = slice[j], slice[i]
		}
	}
}
