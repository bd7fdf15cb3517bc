package rnn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/L1ndenbaum/DeepLearning/utils"
)

// RNNScratch is the hand-written single-layer tanh RNN:
//
//	H_t = tanh(X_t W_xh + H_{t-1} W_hh + b_h)
//	O_t = H_t W_hq + b_q
//
// with one-hot inputs and weights drawn from N(0, 0.01^2).
type RNNScratch struct {
	vocabSize, numHiddens int

	h   gate
	out linear

	// cache for backprop
	xs []*mat.Dense
	hs []*mat.Dense // hs[0] is the incoming state
}

func NewRNNScratch(vocabSize, numHiddens int, src rand.Source) *RNNScratch {
	normal := func(n int) []float64 { return utils.NormalArray(src, n, 0.01) }
	return &RNNScratch{
		vocabSize:  vocabSize,
		numHiddens: numHiddens,
		h:          newGate("h", vocabSize, numHiddens, normal, nil),
		out:        newLinear("W_hq", "b_q", numHiddens, vocabSize, normal, nil),
	}
}

func (r *RNNScratch) VocabSize() int { return r.vocabSize }

func (r *RNNScratch) BeginState(batchSize int) State {
	return zeroState(1, batchSize, r.numHiddens)
}

func (r *RNNScratch) Params() []*Param {
	return append(r.h.params(), r.out.w, r.out.b)
}

func (r *RNNScratch) Forward(X [][]int, state State) (*mat.Dense, State) {
	checkState(state, 1, len(X))
	r.xs = OneHot(X, r.vocabSize)
	r.hs = make([]*mat.Dense, len(r.xs)+1)
	r.hs[0] = state[0]
	outs := make([]*mat.Dense, len(r.xs))
	for t, x := range r.xs {
		r.hs[t+1] = tanh(r.h.affine(x, r.hs[t]))
		outs[t] = r.out.forward(r.hs[t+1])
	}
	return stackRows(outs), State{r.hs[len(r.hs)-1]}
}

func (r *RNNScratch) Backward(dLogits *mat.Dense) {
	B := r.hs[0].RawMatrix().Rows
	var dNext *mat.Dense
	for t := len(r.xs) - 1; t >= 0; t-- {
		dH := r.out.backward(r.hs[t+1], stepRows(dLogits, t, B))
		if dNext != nil {
			dH = add(dH, dNext)
		}
		dA := mul(dH, utils.TanhPrime(r.hs[t+1]))
		dNext = r.h.backward(r.xs[t], r.hs[t], dA)
	}
}
