package rnn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/L1ndenbaum/DeepLearning/utils"
)

// GRULayer is a gated recurrent unit:
//
//	Z = sigmoid(X W_xz + H W_hz + b_z)
//	R = sigmoid(X W_xr + H W_hr + b_r)
//	~H = tanh(X W_xh + (R*H) W_hh + b_h)
//	H' = Z*H + (1-Z)*~H
type GRULayer struct {
	numHiddens int
	z, r, h    gate

	steps []gruStep
}

type gruStep struct {
	x, hPrev, z, r, rh, hTilde *mat.Dense
}

func NewGRULayer(inputSize, numHiddens int, src rand.Source) *GRULayer {
	u := uniformInit(src, numHiddens)
	return &GRULayer{
		numHiddens: numHiddens,
		z:          newGate("z", inputSize, numHiddens, u, u),
		r:          newGate("r", inputSize, numHiddens, u, u),
		h:          newGate("h", inputSize, numHiddens, u, u),
	}
}

func (l *GRULayer) NumHiddens() int { return l.numHiddens }

func (l *GRULayer) BeginState(batchSize int) State {
	return zeroState(1, batchSize, l.numHiddens)
}

func (l *GRULayer) Params() []*Param {
	ps := l.z.params()
	ps = append(ps, l.r.params()...)
	return append(ps, l.h.params()...)
}

func (l *GRULayer) Forward(xs []*mat.Dense, state State) ([]*mat.Dense, State) {
	H := state[0]
	l.steps = make([]gruStep, len(xs))
	outs := make([]*mat.Dense, len(xs))
	for t, x := range xs {
		z := sigmoid(l.z.affine(x, H))
		r := sigmoid(l.r.affine(x, H))
		rh := mul(r, H)
		hTilde := tanh(l.h.affine(x, rh))
		next := add(mul(z, H), mul(oneMinus(z), hTilde))
		l.steps[t] = gruStep{x: x, hPrev: H, z: z, r: r, rh: rh, hTilde: hTilde}
		outs[t] = next
		H = next
	}
	return outs, State{H}
}

func (l *GRULayer) Backward(dHs []*mat.Dense) {
	var dNext *mat.Dense
	for t := len(l.steps) - 1; t >= 0; t-- {
		s := l.steps[t]
		dH := dHs[t]
		if dNext != nil {
			dH = add(dH, dNext)
		}
		dZ := mul(dH, sub(s.hPrev, s.hTilde))
		dHTilde := mul(dH, oneMinus(s.z))
		dPrev := mul(dH, s.z)

		dAh := mul(dHTilde, utils.TanhPrime(s.hTilde))
		dRH := l.h.backward(s.x, s.rh, dAh)
		dR := mul(dRH, s.hPrev)
		dPrev = add(dPrev, mul(dRH, s.r))

		dAr := mul(dR, utils.SigmoidPrime(s.r))
		dAz := mul(dZ, utils.SigmoidPrime(s.z))
		dPrev = add(dPrev, l.r.backward(s.x, s.hPrev, dAr))
		dPrev = add(dPrev, l.z.backward(s.x, s.hPrev, dAz))
		dNext = dPrev
	}
}
