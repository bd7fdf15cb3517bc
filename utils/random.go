package utils

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// RandomArray returns 'size' samples from U(-1/sqrt(v), 1/sqrt(v)) drawn from src.
func RandomArray(src rand.Source, size int, v float64) []float64 {
	bound := 1.0 / math.Sqrt(v+1e-12)
	dist := distuv.Uniform{Min: -bound, Max: bound, Src: src}
	out := make([]float64, size)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// NormalArray returns 'size' samples from N(0, sigma^2) drawn from src.
func NormalArray(src rand.Source, size int, sigma float64) []float64 {
	dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	out := make([]float64, size)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// NewRand returns a PCG-backed generator. The same seed gives the same stream.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
