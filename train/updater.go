package train

import (
	"github.com/pkg/errors"

	"github.com/L1ndenbaum/DeepLearning/optimizations"
	"github.com/L1ndenbaum/DeepLearning/params"
	"github.com/L1ndenbaum/DeepLearning/rnn"
)

// Updater applies one optimization step to every parameter and clears the grads.
type Updater interface {
	Step(ps []*rnn.Param, batchSize int)
}

// SGD is plain minibatch gradient descent.
type SGD struct {
	LR float64
}

func (s *SGD) Step(ps []*rnn.Param, batchSize int) {
	for _, p := range ps {
		optimizations.SGDUpdateInPlace(p.W, p.Grad, s.LR, batchSize)
	}
	rnn.ZeroGrads(ps)
}

// Adam keeps one moment pair per parameter, created on first use.
type Adam struct {
	LR, Beta1, Beta2, Eps, WeightDecay float64

	states map[*rnn.Param]*optimizations.AdamState
}

func (a *Adam) Step(ps []*rnn.Param, batchSize int) {
	if a.states == nil {
		a.states = make(map[*rnn.Param]*optimizations.AdamState, len(ps))
	}
	for _, p := range ps {
		st, ok := a.states[p]
		if !ok {
			st = optimizations.NewAdamStateLike(p.W)
			a.states[p] = st
		}
		if batchSize > 1 {
			p.Grad.Scale(1/float64(batchSize), p.Grad)
		}
		st.Step(p.W, p.Grad, a.LR, a.Beta1, a.Beta2, a.Eps, a.WeightDecay)
	}
	rnn.ZeroGrads(ps)
}

// NewUpdater picks the optimizer named in cfg.
func NewUpdater(cfg params.TrainingConfig) (Updater, error) {
	switch cfg.Optimizer {
	case "sgd":
		return &SGD{LR: cfg.LR}, nil
	case "adam":
		return &Adam{
			LR:          cfg.LR,
			Beta1:       cfg.AdamBeta1,
			Beta2:       cfg.AdamBeta2,
			Eps:         cfg.AdamEps,
			WeightDecay: cfg.WeightDecay,
		}, nil
	}
	return nil, errors.Errorf("unknown optimizer %q", cfg.Optimizer)
}
