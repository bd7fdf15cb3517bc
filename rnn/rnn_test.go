package rnn

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/L1ndenbaum/DeepLearning/utils"
)

func finiteDiffCheck(t *testing.T, name string, param *mat.Dense, grad *mat.Dense,
	forward func() float64, i, j int) {

	eps := 1e-5
	w0 := param.At(i, j)

	// Perturb +eps
	param.Set(i, j, w0+eps)
	lp := forward()

	// Perturb -eps
	param.Set(i, j, w0-eps)
	lm := forward()

	// Restore
	param.Set(i, j, w0)

	numGrad := (lp - lm) / (2.0 * eps)
	anaGrad := grad.At(i, j)

	if math.Abs(numGrad-anaGrad) > 1e-6+1e-4*math.Abs(numGrad) {
		t.Fatalf("%s[%d,%d] grad mismatch: num=%.6g ana=%.6g",
			name, i, j, numGrad, anaGrad)
	}
}

// timeMajor flattens a [batch][steps] label matrix to row order t*batch+b.
func timeMajor(Y [][]int) []int {
	B, T := len(Y), len(Y[0])
	out := make([]int, 0, B*T)
	for t := 0; t < T; t++ {
		for b := 0; b < B; b++ {
			out = append(out, Y[b][t])
		}
	}
	return out
}

// randomState fills a fresh state with small values so that the carried
// state takes part in every check.
func randomState(net Net, batchSize int, seed uint64) State {
	src := utils.NewRand(seed)
	s := net.BeginState(batchSize)
	for _, m := range s {
		r, c := m.Dims()
		m.Copy(mat.NewDense(r, c, utils.RandomArray(src, r*c, 4)))
	}
	return s
}

func gradCheckNet(t *testing.T, net Net) {
	t.Helper()
	X := [][]int{{0, 1, 2, 3}, {4, 1, 0, 2}}
	Y := [][]int{{1, 2, 3, 4}, {1, 0, 2, 3}}
	gold := timeMajor(Y)
	state := randomState(net, len(X), 7)

	forward := func() float64 {
		logits, _ := net.Forward(X, state)
		loss, _ := utils.CrossEntropyWithIndex(logits, gold)
		return loss
	}

	ZeroGrads(net.Params())
	logits, _ := net.Forward(X, state)
	_, dLogits := utils.CrossEntropyWithIndex(logits, gold)
	net.Backward(dLogits)

	for _, p := range net.Params() {
		r, c := p.W.Dims()
		grad := mat.DenseCopyOf(p.Grad)
		finiteDiffCheck(t, p.Name, p.W, grad, forward, 0, 0)
		finiteDiffCheck(t, p.Name, p.W, grad, forward, r-1, c-1)
		finiteDiffCheck(t, p.Name, p.W, grad, forward, r/2, c/2)
	}
}

func TestScratchGradCheck(t *testing.T) {
	gradCheckNet(t, NewRNNScratch(5, 4, utils.NewRand(1)))
}

func TestRNNLayerGradCheck(t *testing.T) {
	gradCheckNet(t, NewRNNModel(NewRNNLayer(5, 4, utils.NewRand(2)), 5, utils.NewRand(3)))
}

func TestGRUGradCheck(t *testing.T) {
	gradCheckNet(t, NewRNNModel(NewGRULayer(5, 4, utils.NewRand(4)), 5, utils.NewRand(5)))
}

func TestLSTMGradCheck(t *testing.T) {
	gradCheckNet(t, NewRNNModel(NewLSTMLayer(5, 4, utils.NewRand(6)), 5, utils.NewRand(7)))
}

func TestCarriedStateMatchesOneWindow(t *testing.T) {
	for _, kind := range []string{"scratch", "rnn", "gru", "lstm"} {
		net, err := NewNet(kind, 6, 3, utils.NewRand(11))
		if err != nil {
			t.Fatal(err)
		}
		full, _ := net.Forward([][]int{{0, 1, 2, 3}, {5, 4, 3, 2}}, net.BeginState(2))

		first, state := net.Forward([][]int{{0, 1}, {5, 4}}, net.BeginState(2))
		second, _ := net.Forward([][]int{{2, 3}, {3, 2}}, state.Detach())

		// rows are time-major, so the two halves stack in order
		var split mat.Dense
		split.Stack(first, second)
		if !mat.EqualApprox(full, &split, 1e-12) {
			t.Fatalf("%s: split windows disagree with one window", kind)
		}
	}
}

func TestForwardShapes(t *testing.T) {
	net, _ := NewNet("lstm", 7, 3, utils.NewRand(1))
	logits, state := net.Forward([][]int{{1, 2, 3}, {4, 5, 6}}, net.BeginState(2))
	if r, c := logits.Dims(); r != 6 || c != 7 {
		t.Fatalf("logits %dx%d, want 6x7", r, c)
	}
	if len(state) != 2 || state.BatchSize() != 2 {
		t.Fatalf("state len=%d batch=%d", len(state), state.BatchSize())
	}
}

func TestOneHot(t *testing.T) {
	xs := OneHot([][]int{{0, 2}, {1, 1}}, 3)
	if len(xs) != 2 {
		t.Fatalf("steps = %d", len(xs))
	}
	want0 := mat.NewDense(2, 3, []float64{1, 0, 0, 0, 1, 0})
	want1 := mat.NewDense(2, 3, []float64{0, 0, 1, 0, 1, 0})
	if !mat.Equal(xs[0], want0) || !mat.Equal(xs[1], want1) {
		t.Fatalf("got %v / %v", mat.Formatted(xs[0]), mat.Formatted(xs[1]))
	}
}

func TestDetachCopies(t *testing.T) {
	s := State{mat.NewDense(1, 2, []float64{1, 2})}
	d := s.Detach()
	d[0].Set(0, 0, 9)
	if s[0].At(0, 0) != 1 {
		t.Fatal("Detach shares storage with its source")
	}
}

func TestNewNetUnknown(t *testing.T) {
	if _, err := NewNet("transformer", 4, 4, utils.NewRand(1)); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "gru.gob")
	src, _ := NewNet("gru", 5, 3, utils.NewRand(1))
	meta := Meta{RunID: "abc", Model: "gru", VocabSize: 5, NumHiddens: 3, Epoch: 2, Perplexity: 1.5}
	if err := Save(path, src, meta); err != nil {
		t.Fatal(err)
	}

	dst, _ := NewNet("gru", 5, 3, utils.NewRand(99))
	got, err := Load(path, dst)
	if err != nil {
		t.Fatal(err)
	}
	if got != meta {
		t.Fatalf("meta = %+v", got)
	}
	for i, p := range dst.Params() {
		if !mat.Equal(p.W, src.Params()[i].W) {
			t.Fatalf("%s differs after load", p.Name)
		}
	}

	wrong, _ := NewNet("gru", 5, 4, utils.NewRand(1))
	if _, err := Load(path, wrong); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}
