package optimizations

import "gonum.org/v1/gonum/mat"

// SGDUpdateInPlace applies p -= lr * g / batchSize.
//
// The loss is already a mean over the batch, so callers that want the plain
// step pass batchSize = 1.
func SGDUpdateInPlace(p, g *mat.Dense, lr float64, batchSize int) {
	pr, pc := p.Dims()
	if gr, gc := g.Dims(); gr != pr || gc != pc {
		panic("SGDUpdateInPlace: grad shape mismatch")
	}
	if batchSize <= 0 {
		panic("SGDUpdateInPlace: batchSize must be positive")
	}
	p.Add(p, scaled(-lr/float64(batchSize), g))
}

func scaled(s float64, g *mat.Dense) *mat.Dense {
	r, c := g.Dims()
	o := mat.NewDense(r, c, nil)
	o.Scale(s, g)
	return o
}
