package utils

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// SampleNIntegersNormal samples n integers from a normal distribution centered
// around (vMax+vMin) / 2 and clipped to [vMin, vMax].
func SampleNIntegersNormal(n int, vMin, vMax float64, seed uint64) []int {
	z := make([]int, n)
	dist := distuv.Normal{
		Mu:    (vMax + vMin) / 2,
		Sigma: (vMax - vMin) * 0.4472,
		Src:   rand.NewSource(seed),
	}
	for i := range z {
		val := math.Round(dist.Rand())
		for val < vMin || val > vMax {
			val = math.Round(dist.Rand())
		}
		z[i] = int(val)
	}
	return z
}

// SampleNIntegersUniform samples n integers uniformly in [vMin, vMax].
func SampleNIntegersUniform(n int, vMin, vMax float64, seed uint64) []int {
	z := make([]int, n)
	dist := distuv.Uniform{
		Min: vMin,
		Max: vMax,
		Src: rand.NewSource(seed),
	}
	for i := range z {
		val := math.Round(dist.Rand())
		for val < vMin || val > vMax {
			val = math.Round(dist.Rand())
		}
		z[i] = int(val)
	}
	return z
}
