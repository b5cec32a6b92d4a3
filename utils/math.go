// Package utils contains shared numeric helpers.
package utils

import (
	"math/rand"
)

// SampleRandomIntRange samples a random integer within a range given by [min, max]
// using the given rand.Rand.
func SampleRandomIntRange(min, max int, r *rand.Rand) int {
	return r.Intn(max-min+1) + min
}

// SampleDistinctInts samples k distinct integers in [0, n) using the given
// rand.Rand. It panics if k > n.
func SampleDistinctInts(n, k int, r *rand.Rand) []int {
	if k > n {
		panic("cannot sample more distinct integers than the range holds")
	}
	// rejection sampling; k is tiny compared to n in practice
	out := make([]int, 0, k)
	seen := make(map[int]bool, k)
	for len(out) < k {
		idx := r.Intn(n)
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}
