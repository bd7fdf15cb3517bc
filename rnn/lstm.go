package rnn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/L1ndenbaum/DeepLearning/utils"
)

// LSTMLayer is a long short-term memory layer with state [H, C]:
//
//	I, F, O = sigmoid(X W_x* + H W_h* + b_*)
//	~C = tanh(X W_xc + H W_hc + b_c)
//	C' = F*C + I*~C
//	H' = O*tanh(C')
type LSTMLayer struct {
	numHiddens int
	i, f, o, c gate

	steps []lstmStep
}

type lstmStep struct {
	x, hPrev, cPrev *mat.Dense
	i, f, o, cTilde *mat.Dense
	tanhC           *mat.Dense
}

func NewLSTMLayer(inputSize, numHiddens int, src rand.Source) *LSTMLayer {
	u := uniformInit(src, numHiddens)
	return &LSTMLayer{
		numHiddens: numHiddens,
		i:          newGate("i", inputSize, numHiddens, u, u),
		f:          newGate("f", inputSize, numHiddens, u, u),
		o:          newGate("o", inputSize, numHiddens, u, u),
		c:          newGate("c", inputSize, numHiddens, u, u),
	}
}

func (l *LSTMLayer) NumHiddens() int { return l.numHiddens }

func (l *LSTMLayer) BeginState(batchSize int) State {
	return zeroState(2, batchSize, l.numHiddens)
}

func (l *LSTMLayer) Params() []*Param {
	var ps []*Param
	for _, g := range []gate{l.i, l.f, l.o, l.c} {
		ps = append(ps, g.params()...)
	}
	return ps
}

func (l *LSTMLayer) Forward(xs []*mat.Dense, state State) ([]*mat.Dense, State) {
	H, C := state[0], state[1]
	l.steps = make([]lstmStep, len(xs))
	outs := make([]*mat.Dense, len(xs))
	for t, x := range xs {
		s := lstmStep{x: x, hPrev: H, cPrev: C}
		s.i = sigmoid(l.i.affine(x, H))
		s.f = sigmoid(l.f.affine(x, H))
		s.o = sigmoid(l.o.affine(x, H))
		s.cTilde = tanh(l.c.affine(x, H))
		C = add(mul(s.f, C), mul(s.i, s.cTilde))
		s.tanhC = tanh(C)
		H = mul(s.o, s.tanhC)
		l.steps[t] = s
		outs[t] = H
	}
	return outs, State{H, C}
}

func (l *LSTMLayer) Backward(dHs []*mat.Dense) {
	var dHNext, dCNext *mat.Dense
	for t := len(l.steps) - 1; t >= 0; t-- {
		s := l.steps[t]
		dH := dHs[t]
		if dHNext != nil {
			dH = add(dH, dHNext)
		}
		dO := mul(dH, s.tanhC)
		dC := mul(mul(dH, s.o), utils.TanhPrime(s.tanhC))
		if dCNext != nil {
			dC = add(dC, dCNext)
		}
		dF := mul(dC, s.cPrev)
		dI := mul(dC, s.cTilde)
		dCTilde := mul(dC, s.i)
		dCNext = mul(dC, s.f)

		dPrev := l.o.backward(s.x, s.hPrev, mul(dO, utils.SigmoidPrime(s.o)))
		dPrev = add(dPrev, l.f.backward(s.x, s.hPrev, mul(dF, utils.SigmoidPrime(s.f))))
		dPrev = add(dPrev, l.i.backward(s.x, s.hPrev, mul(dI, utils.SigmoidPrime(s.i))))
		dPrev = add(dPrev, l.c.backward(s.x, s.hPrev, mul(dCTilde, utils.TanhPrime(s.cTilde))))
		dHNext = dPrev
	}
}
