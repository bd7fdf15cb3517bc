package rnn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// OneHot turns a [batch][steps] id matrix into one (batch x vocabSize)
// one-hot matrix per time step.
func OneHot(X [][]int, vocabSize int) []*mat.Dense {
	B := len(X)
	if B == 0 {
		return nil
	}
	T := len(X[0])
	out := make([]*mat.Dense, T)
	for t := 0; t < T; t++ {
		out[t] = mat.NewDense(B, vocabSize, nil)
	}
	for b, row := range X {
		if len(row) != T {
			panic(fmt.Sprintf("OneHot: row %d has %d steps, want %d", b, len(row), T))
		}
		for t, id := range row {
			if id < 0 || id >= vocabSize {
				panic(fmt.Sprintf("OneHot: id %d out of range [0,%d)", id, vocabSize))
			}
			out[t].Set(b, id, 1)
		}
	}
	return out
}

// stackRows writes each (B x c) block into rows [t*B, (t+1)*B) of one matrix.
func stackRows(blocks []*mat.Dense) *mat.Dense {
	B, c := blocks[0].Dims()
	out := mat.NewDense(len(blocks)*B, c, nil)
	for t, m := range blocks {
		out.Slice(t*B, (t+1)*B, 0, c).(*mat.Dense).Copy(m)
	}
	return out
}

// stepRows is the view of rows belonging to time step t.
func stepRows(m *mat.Dense, t, B int) *mat.Dense {
	_, c := m.Dims()
	return m.Slice(t*B, (t+1)*B, 0, c).(*mat.Dense)
}
