package train

import (
	"encoding/csv"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/L1ndenbaum/DeepLearning/IO"
	"github.com/L1ndenbaum/DeepLearning/params"
	"github.com/L1ndenbaum/DeepLearning/rnn"
	"github.com/L1ndenbaum/DeepLearning/utils"
)

// ErrNoBatches is returned when the corpus is too short to fill one window.
var ErrNoBatches = errors.New("epoch produced no batches")

type EpochStats struct {
	Epoch        int
	Perplexity   float64
	TokensPerSec float64
	GradNorm     float64 // mean pre-clip global norm
	Duration     time.Duration
}

type Result struct {
	RunID        string
	History      []EpochStats
	Perplexity   float64
	TokensPerSec float64
}

// TimeMajor flattens a [batch][steps] label matrix into the row order of
// the logits: index t*batch+b holds Y[b][t].
func TimeMajor(Y [][]int) []int {
	if len(Y) == 0 {
		return nil
	}
	B, T := len(Y), len(Y[0])
	out := make([]int, 0, B*T)
	for t := 0; t < T; t++ {
		for b := 0; b < B; b++ {
			out = append(out, Y[b][t])
		}
	}
	return out
}

// TrainEpoch runs one pass over loader.
//
// In sequential mode the state is created on the first batch and then carried,
// detached, into each following batch. In random mode every batch starts
// from a fresh state.
func TrainEpoch(net rnn.Net, loader *IO.SeqDataLoader, updater Updater, rng *rand.Rand, cfg params.TrainingConfig) (EpochStats, error) {
	var (
		state   rnn.State
		timer   utils.Timer
		metric  = utils.NewAccumulator(3) // loss sum, tokens, grad norm sum
		batches int
	)
	ps := net.Params()
	rnn.ZeroGrads(ps)
	fresh := loader.Mode() == IO.Random

	timer.Start()
	for batch := range loader.Batches(rng) {
		if state == nil || fresh {
			state = net.BeginState(len(batch.X))
		} else {
			state = state.Detach()
		}
		logits, next := net.Forward(batch.X, state)
		gold := TimeMajor(batch.Y)
		loss, dLogits := utils.CrossEntropyWithIndex(logits, gold)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return EpochStats{}, errors.Errorf("loss diverged at batch %d", batches)
		}
		net.Backward(dLogits)

		grads := rnn.Grads(ps)
		norm := utils.GlobalNorm(grads...)
		utils.ClipGrads(cfg.GradClip, grads...)
		// loss is already a mean, so the step is not divided again
		updater.Step(ps, 1)

		state = next
		n := float64(len(gold))
		metric.Add(loss*n, n, norm)
		batches++
		utils.Debugf("batch %d loss=%.4f grad_norm=%.4g", batches, loss, norm)
	}
	if err := timer.Stop(); err != nil {
		return EpochStats{}, err
	}
	if batches == 0 {
		return EpochStats{}, ErrNoBatches
	}
	elapsed, _ := timer.Elapsed()
	stats := EpochStats{
		Perplexity: math.Exp(metric.At(0) / metric.At(1)),
		GradNorm:   metric.At(2) / float64(batches),
		Duration:   elapsed,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		stats.TokensPerSec = metric.At(1) / secs
	}
	return stats, nil
}

// Train runs cfg.NumEpochs epochs, logging sample predictions every
// cfg.PredictEvery epochs and once more at the end.
func Train(net rnn.Net, loader *IO.SeqDataLoader, vocab *IO.Vocabulary, cfg params.TrainingConfig) (Result, error) {
	res := Result{RunID: uuid.New().String()}
	log := utils.Log.WithFields(logrus.Fields{"run": res.RunID, "model": cfg.Model})

	updater, err := NewUpdater(cfg)
	if err != nil {
		return res, err
	}
	predictor, err := NewPredictor(net, vocab, cfg)
	if err != nil {
		return res, err
	}
	predict := func() {
		for _, prefix := range cfg.Prefixes {
			out, err := predictor.Complete(prefix)
			if err != nil {
				log.WithError(err).Warn("predict")
				continue
			}
			log.WithField("prefix", prefix).Info(out)
		}
	}

	csvLog, err := newEpochLog(cfg.LogFile)
	if err != nil {
		return res, err
	}
	defer csvLog.Close()

	rng := utils.NewRand(cfg.Seed)
	var total time.Duration
	var tokens float64
	for e := 0; e < cfg.NumEpochs; e++ {
		stats, err := TrainEpoch(net, loader, updater, rng, cfg)
		if err != nil {
			return res, errors.Wrapf(err, "epoch %d", e+1)
		}
		stats.Epoch = e + 1
		res.History = append(res.History, stats)
		total += stats.Duration
		tokens += stats.TokensPerSec * stats.Duration.Seconds()

		if err := csvLog.Write(res.RunID, stats); err != nil {
			return res, err
		}
		entry := log.WithFields(logrus.Fields{
			"epoch":      stats.Epoch,
			"perplexity": stats.Perplexity,
			"tok_per_s":  stats.TokensPerSec,
			"grad_norm":  stats.GradNorm,
		})
		if cfg.PredictEvery > 0 && stats.Epoch%cfg.PredictEvery == 0 {
			entry.Info("epoch done")
			predict()
		} else {
			entry.Debug("epoch done")
		}
	}

	if n := len(res.History); n > 0 {
		res.Perplexity = res.History[n-1].Perplexity
	}
	if total > 0 {
		res.TokensPerSec = tokens / total.Seconds()
	}
	log.Infof("perplexity %.1f, %.1f tokens/sec", res.Perplexity, res.TokensPerSec)
	predict()

	if cfg.CheckpointPath != "" {
		meta := rnn.Meta{
			RunID:      res.RunID,
			Model:      cfg.Model,
			VocabSize:  vocab.Len(),
			NumHiddens: cfg.NumHiddens,
			Epoch:      len(res.History),
			Perplexity: res.Perplexity,
		}
		if err := rnn.Save(cfg.CheckpointPath, net, meta); err != nil {
			return res, err
		}
		log.WithField("path", cfg.CheckpointPath).Info("saved checkpoint")
	}
	return res, nil
}

// epochLog appends one CSV row per epoch. A nil log writes nothing.
type epochLog struct {
	f *os.File
	w *csv.Writer
}

func newEpochLog(path string) (*epochLog, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	l := &epochLog{f: f, w: csv.NewWriter(f)}
	if err := l.w.Write([]string{"run_id", "epoch", "perplexity", "tokens_per_sec", "grad_norm", "duration_ms"}); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "write log header")
	}
	return l, nil
}

func (l *epochLog) Write(runID string, s EpochStats) error {
	if l == nil {
		return nil
	}
	err := l.w.Write([]string{
		runID,
		strconv.Itoa(s.Epoch),
		strconv.FormatFloat(s.Perplexity, 'f', 4, 64),
		strconv.FormatFloat(s.TokensPerSec, 'f', 1, 64),
		strconv.FormatFloat(s.GradNorm, 'g', 6, 64),
		strconv.FormatInt(s.Duration.Milliseconds(), 10),
	})
	l.w.Flush()
	if err == nil {
		err = l.w.Error()
	}
	return errors.Wrap(err, "write epoch log")
}

func (l *epochLog) Close() error {
	if l == nil {
		return nil
	}
	l.w.Flush()
	return l.f.Close()
}
