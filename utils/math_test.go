package utils

import (
	"math/rand"
	"testing"

	"go.viam.com/test"
)

func TestSampleRandomIntRange(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		v := SampleRandomIntRange(-5, 5, r)
		test.That(t, v, test.ShouldBeGreaterThanOrEqualTo, -5)
		test.That(t, v, test.ShouldBeLessThanOrEqualTo, 5)
	}
	test.That(t, SampleRandomIntRange(3, 3, r), test.ShouldEqual, 3)
}

func TestSampleDistinctInts(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for trial := 0; trial < 20; trial++ {
		out := SampleDistinctInts(10, 4, r)
		test.That(t, len(out), test.ShouldEqual, 4)
		seen := map[int]bool{}
		for _, v := range out {
			test.That(t, v, test.ShouldBeGreaterThanOrEqualTo, 0)
			test.That(t, v, test.ShouldBeLessThan, 10)
			test.That(t, seen[v], test.ShouldBeFalse)
			seen[v] = true
		}
	}

	// sampling the whole range yields a permutation
	out := SampleDistinctInts(5, 5, r)
	test.That(t, len(out), test.ShouldEqual, 5)

	test.That(t, func() { SampleDistinctInts(2, 3, r) }, test.ShouldPanic)
}
