package rnn

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Net is a character-level language model driven one window at a time.
//
// Forward takes a [batch][steps] id matrix and the carried state and returns
// logits of shape (steps*batch x vocab), time-major: row t*batch+b holds the
// prediction after input X[b][t]. Backward consumes the loss gradient w.r.t.
// those logits and accumulates into the Param grads of the last Forward.
type Net interface {
	BeginState(batchSize int) State
	Forward(X [][]int, state State) (*mat.Dense, State)
	Backward(dLogits *mat.Dense)
	Params() []*Param
	VocabSize() int
}

// NewNet builds the model named by kind: scratch, rnn, gru or lstm.
func NewNet(kind string, vocabSize, numHiddens int, src rand.Source) (Net, error) {
	if vocabSize <= 0 || numHiddens <= 0 {
		return nil, errors.Errorf("vocab size %d and hiddens %d must be positive", vocabSize, numHiddens)
	}
	switch kind {
	case "scratch":
		return NewRNNScratch(vocabSize, numHiddens, src), nil
	case "rnn":
		return NewRNNModel(NewRNNLayer(vocabSize, numHiddens, src), vocabSize, src), nil
	case "gru":
		return NewRNNModel(NewGRULayer(vocabSize, numHiddens, src), vocabSize, src), nil
	case "lstm":
		return NewRNNModel(NewLSTMLayer(vocabSize, numHiddens, src), vocabSize, src), nil
	}
	return nil, errors.Errorf("unknown model %q", kind)
}

func checkState(state State, n, batchSize int) {
	if len(state) != n {
		panic("rnn: state has wrong number of tensors")
	}
	if state.BatchSize() != batchSize {
		panic("rnn: state batch size does not match input")
	}
}
