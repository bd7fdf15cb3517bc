package rnn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/L1ndenbaum/DeepLearning/utils"
)

// Layer is a recurrent unit over a whole window. Forward maps T inputs of
// shape (B x in) to T hidden outputs of shape (B x hiddens); Backward takes
// dL/dH_t for each step and accumulates the parameter grads.
type Layer interface {
	NumHiddens() int
	BeginState(batchSize int) State
	Forward(xs []*mat.Dense, state State) ([]*mat.Dense, State)
	Backward(dHs []*mat.Dense)
	Params() []*Param
}

// uniformInit draws from U(-1/sqrt(hiddens), 1/sqrt(hiddens)) for weights and biases.
func uniformInit(src rand.Source, hiddens int) initFn {
	return func(n int) []float64 { return utils.RandomArray(src, n, float64(hiddens)) }
}

// RNNLayer is a tanh recurrent layer.
type RNNLayer struct {
	numHiddens int
	h          gate

	xs, hs []*mat.Dense
}

func NewRNNLayer(inputSize, numHiddens int, src rand.Source) *RNNLayer {
	u := uniformInit(src, numHiddens)
	return &RNNLayer{
		numHiddens: numHiddens,
		h:          newGate("h", inputSize, numHiddens, u, u),
	}
}

func (l *RNNLayer) NumHiddens() int { return l.numHiddens }

func (l *RNNLayer) BeginState(batchSize int) State {
	return zeroState(1, batchSize, l.numHiddens)
}

func (l *RNNLayer) Params() []*Param { return l.h.params() }

func (l *RNNLayer) Forward(xs []*mat.Dense, state State) ([]*mat.Dense, State) {
	l.xs = xs
	l.hs = make([]*mat.Dense, len(xs)+1)
	l.hs[0] = state[0]
	for t, x := range xs {
		l.hs[t+1] = tanh(l.h.affine(x, l.hs[t]))
	}
	return l.hs[1:], State{l.hs[len(xs)]}
}

func (l *RNNLayer) Backward(dHs []*mat.Dense) {
	var dNext *mat.Dense
	for t := len(l.xs) - 1; t >= 0; t-- {
		dH := dHs[t]
		if dNext != nil {
			dH = add(dH, dNext)
		}
		dA := mul(dH, utils.TanhPrime(l.hs[t+1]))
		dNext = l.h.backward(l.xs[t], l.hs[t], dA)
	}
}
