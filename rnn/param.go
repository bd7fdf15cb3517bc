package rnn

import "gonum.org/v1/gonum/mat"

// Param is one named weight matrix together with its accumulated gradient.
type Param struct {
	Name string
	W    *mat.Dense
	Grad *mat.Dense
}

func newParam(name string, r, c int, data []float64) *Param {
	return &Param{
		Name: name,
		W:    mat.NewDense(r, c, data),
		Grad: mat.NewDense(r, c, nil),
	}
}

func (p *Param) ZeroGrad() {
	p.Grad.Zero()
}

// accumulate adds g into the gradient.
func (p *Param) accumulate(g mat.Matrix) {
	p.Grad.Add(p.Grad, g)
}

// ZeroGrads clears every gradient in ps.
func ZeroGrads(ps []*Param) {
	for _, p := range ps {
		p.ZeroGrad()
	}
}

// Grads lists the gradient matrices of ps in the same order.
func Grads(ps []*Param) []*mat.Dense {
	out := make([]*mat.Dense, len(ps))
	for i, p := range ps {
		out[i] = p.Grad
	}
	return out
}

// State is the recurrent state carried between windows: [H] for RNN and GRU,
// [H, C] for LSTM. Each entry is (batch x hiddens).
type State []*mat.Dense

// Detach returns a copy of the state. The copy is treated as a constant input
// by the next window, so gradients stop at the window boundary.
func (s State) Detach() State {
	out := make(State, len(s))
	for i, m := range s {
		out[i] = mat.DenseCopyOf(m)
	}
	return out
}

// BatchSize is the number of rows in the state, or 0 when empty.
func (s State) BatchSize() int {
	if len(s) == 0 {
		return 0
	}
	r, _ := s[0].Dims()
	return r
}

func zeroState(n, batchSize, hiddens int) State {
	s := make(State, n)
	for i := range s {
		s[i] = mat.NewDense(batchSize, hiddens, nil)
	}
	return s
}
