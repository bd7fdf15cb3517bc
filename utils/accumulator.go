package utils

import "gonum.org/v1/gonum/floats"

// Accumulator sums n running quantities, e.g. total loss and token count.
type Accumulator struct {
	data []float64
}

func NewAccumulator(n int) *Accumulator {
	return &Accumulator{data: make([]float64, n)}
}

// Add adds vals position-wise. It panics if len(vals) differs from n.
func (a *Accumulator) Add(vals ...float64) {
	floats.Add(a.data, vals)
}

func (a *Accumulator) Reset() {
	for i := range a.data {
		a.data[i] = 0
	}
}

func (a *Accumulator) At(i int) float64 {
	return a.data[i]
}
