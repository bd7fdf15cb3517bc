package rnn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// RNNModel wraps a recurrent Layer with a linear projection to the vocabulary.
type RNNModel struct {
	layer     Layer
	vocabSize int
	out       linear

	stateSize int
	hs        []*mat.Dense
}

func NewRNNModel(layer Layer, vocabSize int, src rand.Source) *RNNModel {
	u := uniformInit(src, layer.NumHiddens())
	return &RNNModel{
		layer:     layer,
		vocabSize: vocabSize,
		out:       newLinear("W_out", "b_out", layer.NumHiddens(), vocabSize, u, u),
		stateSize: len(layer.BeginState(1)),
	}
}

func (m *RNNModel) VocabSize() int { return m.vocabSize }

func (m *RNNModel) Layer() Layer { return m.layer }

func (m *RNNModel) BeginState(batchSize int) State {
	return m.layer.BeginState(batchSize)
}

func (m *RNNModel) Params() []*Param {
	return append(m.layer.Params(), m.out.w, m.out.b)
}

func (m *RNNModel) Forward(X [][]int, state State) (*mat.Dense, State) {
	checkState(state, m.stateSize, len(X))
	hs, next := m.layer.Forward(OneHot(X, m.vocabSize), state)
	m.hs = hs
	outs := make([]*mat.Dense, len(hs))
	for t, h := range hs {
		outs[t] = m.out.forward(h)
	}
	return stackRows(outs), next
}

func (m *RNNModel) Backward(dLogits *mat.Dense) {
	B, _ := m.hs[0].Dims()
	dHs := make([]*mat.Dense, len(m.hs))
	for t, h := range m.hs {
		dHs[t] = m.out.backward(h, stepRows(dLogits, t, B))
	}
	m.layer.Backward(dHs)
}
