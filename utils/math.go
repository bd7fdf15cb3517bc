package utils

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix helpers used by the recurrent cells and the training loop.

// r = rows of matrix
// c = columns of matrix
// o = output
// m, n = matrix inputs

func Dot(m, n mat.Matrix) mat.Matrix {
	r, _ := m.Dims()
	_, c := n.Dims()
	o := mat.NewDense(r, c, nil)
	o.Product(m, n)
	return o
}

func Apply(fn func(i, j int, v float64) float64, m mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Apply(fn, m)
	return o
}

func Scale(s float64, m mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Scale(s, m)
	return o
}

func Multiply(m, n mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.MulElem(m, n)
	return o
}

func Add(m, n mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Add(m, n)
	return o
}

func Subtract(m, n mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Sub(m, n)
	return o
}

func ToDense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

func ZerosLike(a mat.Matrix) *mat.Dense {
	r, c := a.Dims()
	return mat.NewDense(r, c, nil)
}

// AddRowBias adds a (1 x c) bias to every row of m.
func AddRowBias(m, bias *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	rb, cb := bias.Dims()
	if rb != 1 || cb != c {
		panic("AddRowBias: bias must be (1 x c)")
	}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(i, j)+bias.At(0, j))
		}
	}
	return out
}

// ColSum sums over rows, giving a (1 x c) row vector. Used for bias grads.
func ColSum(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(1, c, nil)
	for j := 0; j < c; j++ {
		s := 0.0
		for i := 0; i < r; i++ {
			s += m.At(i, j)
		}
		out.Set(0, j, s)
	}
	return out
}

func Sigmoid(_, _ int, v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

func Tanh(_, _ int, v float64) float64 {
	return math.Tanh(v)
}

// TanhPrime takes the activation output y = tanh(x) and returns 1 - y^2.
func TanhPrime(y mat.Matrix) *mat.Dense {
	return ToDense(Apply(func(_, _ int, v float64) float64 { return 1 - v*v }, y))
}

// SigmoidPrime takes the activation output s = sigmoid(x) and returns s(1-s).
func SigmoidPrime(s mat.Matrix) *mat.Dense {
	return ToDense(Apply(func(_, _ int, v float64) float64 { return v * (1 - v) }, s))
}

// ---------- Softmax ----------

// RowSoftmax applies softmax independently to each row across columns.
func RowSoftmax(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mx := m.At(i, 0)
		for j := 1; j < c; j++ {
			if v := m.At(i, j); v > mx {
				mx = v
			}
		}
		sum := 0.0
		for j := 0; j < c; j++ {
			row[j] = math.Exp(m.At(i, j) - mx)
			sum += row[j]
		}
		for j := 0; j < c; j++ {
			out.Set(i, j, row[j]/sum)
		}
	}
	return out
}

// ---------- Loss ----------

// CrossEntropyWithIndex is the mean cross entropy of row-wise logits against
// gold class ids, one per row. The returned gradient is w.r.t. the logits and
// already includes the 1/N of the mean.
func CrossEntropyWithIndex(logits *mat.Dense, gold []int) (float64, *mat.Dense) {
	r, c := logits.Dims()
	if len(gold) != r {
		panic("CrossEntropyWithIndex: one gold id per row required")
	}
	prob := RowSoftmax(logits)
	n := float64(r)
	loss := 0.0
	for i, g := range gold {
		if g < 0 || g >= c {
			panic("CrossEntropyWithIndex: gold id out of range")
		}
		loss -= math.Log(prob.At(i, g) + 1e-12)
		prob.Set(i, g, prob.At(i, g)-1.0)
	}
	prob.Scale(1/n, prob)
	return loss / n, prob
}

// ArgmaxRow returns the column index of the largest value in row i.
func ArgmaxRow(m mat.Matrix, i int) int {
	_, c := m.Dims()
	bestJ := 0
	best := m.At(i, 0)
	for j := 1; j < c; j++ {
		if v := m.At(i, j); v > best {
			best = v
			bestJ = j
		}
	}
	return bestJ
}

func MatrixNorm(m mat.Matrix) float64 {
	return mat.Norm(m, 2)
}
