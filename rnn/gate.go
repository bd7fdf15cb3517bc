package rnn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/L1ndenbaum/DeepLearning/utils"
)

// gate holds the affine map X*W_x + H*W_h + b shared by every recurrent unit.
type gate struct {
	wx, wh, b *Param
}

type initFn func(n int) []float64

func newGate(suffix string, in, hiddens int, initW, initB initFn) gate {
	var bias []float64
	if initB != nil {
		bias = initB(hiddens)
	}
	return gate{
		wx: newParam("W_x"+suffix, in, hiddens, initW(in*hiddens)),
		wh: newParam("W_h"+suffix, hiddens, hiddens, initW(hiddens*hiddens)),
		b:  newParam("b_"+suffix, 1, hiddens, bias),
	}
}

func (g gate) params() []*Param {
	return []*Param{g.wx, g.wh, g.b}
}

func (g gate) affine(X, H mat.Matrix) *mat.Dense {
	a := utils.ToDense(utils.Add(utils.Dot(X, g.wx.W), utils.Dot(H, g.wh.W)))
	return utils.AddRowBias(a, g.b.W)
}

// backward accumulates the grads for pre-activation gradient dA and returns
// the part of dL/dH flowing through W_h.
func (g gate) backward(X, H, dA *mat.Dense) *mat.Dense {
	g.wx.accumulate(utils.Dot(X.T(), dA))
	g.wh.accumulate(utils.Dot(H.T(), dA))
	g.b.accumulate(utils.ColSum(dA))
	return utils.ToDense(utils.Dot(dA, g.wh.W.T()))
}

// linear is the hidden-to-vocab projection O = H*W + b.
type linear struct {
	w, b *Param
}

func newLinear(wName, bName string, in, out int, initW, initB initFn) linear {
	var bias []float64
	if initB != nil {
		bias = initB(out)
	}
	return linear{
		w: newParam(wName, in, out, initW(in*out)),
		b: newParam(bName, 1, out, bias),
	}
}

func (l linear) forward(H mat.Matrix) *mat.Dense {
	return utils.AddRowBias(utils.ToDense(utils.Dot(H, l.w.W)), l.b.W)
}

func (l linear) backward(H, dO *mat.Dense) *mat.Dense {
	l.w.accumulate(utils.Dot(H.T(), dO))
	l.b.accumulate(utils.ColSum(dO))
	return utils.ToDense(utils.Dot(dO, l.w.W.T()))
}

func sigmoid(m mat.Matrix) *mat.Dense {
	return utils.ToDense(utils.Apply(utils.Sigmoid, m))
}

func tanh(m mat.Matrix) *mat.Dense {
	return utils.ToDense(utils.Apply(utils.Tanh, m))
}

func mul(a, b mat.Matrix) *mat.Dense {
	return utils.ToDense(utils.Multiply(a, b))
}

func add(a, b mat.Matrix) *mat.Dense {
	return utils.ToDense(utils.Add(a, b))
}

func sub(a, b mat.Matrix) *mat.Dense {
	return utils.ToDense(utils.Subtract(a, b))
}

// oneMinus returns 1 - m elementwise.
func oneMinus(m mat.Matrix) *mat.Dense {
	return utils.ToDense(utils.Apply(func(_, _ int, v float64) float64 { return 1 - v }, m))
}
