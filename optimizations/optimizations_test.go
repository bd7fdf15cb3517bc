package optimizations

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSGDUpdateInPlace(t *testing.T) {
	p := mat.NewDense(1, 3, []float64{1, 2, 3})
	g := mat.NewDense(1, 3, []float64{2, -4, 0})
	SGDUpdateInPlace(p, g, 0.5, 2)
	want := []float64{0.5, 3, 3}
	for j, w := range want {
		if math.Abs(p.At(0, j)-w) > 1e-12 {
			t.Fatalf("p[%d] = %v, want %v", j, p.At(0, j), w)
		}
	}
}

func TestSGDShapeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	SGDUpdateInPlace(mat.NewDense(1, 2, nil), mat.NewDense(2, 1, nil), 1, 1)
}

func TestAdamFirstStepMovesByLR(t *testing.T) {
	// With bias correction the first step is lr * sign(g) (eps aside).
	p := mat.NewDense(1, 2, []float64{0, 0})
	g := mat.NewDense(1, 2, []float64{3, -0.01})
	s := NewAdamStateLike(p)
	s.Step(p, g, 0.1, 0.9, 0.999, 1e-12, 0)
	if s.T != 1 {
		t.Fatalf("T = %d", s.T)
	}
	if math.Abs(p.At(0, 0)+0.1) > 1e-6 || math.Abs(p.At(0, 1)-0.1) > 1e-6 {
		t.Fatalf("p = %v", mat.Formatted(p))
	}
}

func TestAdamWeightDecayShrinks(t *testing.T) {
	p := mat.NewDense(1, 1, []float64{1})
	g := mat.NewDense(1, 1, []float64{0})
	s := NewAdamStateLike(p)
	s.Step(p, g, 0.1, 0.9, 0.999, 1e-8, 0.5)
	if math.Abs(p.At(0, 0)-0.95) > 1e-9 {
		t.Fatalf("p = %v, want 0.95", p.At(0, 0))
	}
}
