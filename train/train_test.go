package train

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/L1ndenbaum/DeepLearning/IO"
	"github.com/L1ndenbaum/DeepLearning/params"
	"github.com/L1ndenbaum/DeepLearning/rnn"
	"github.com/L1ndenbaum/DeepLearning/utils"
)

// periodicData is "abcd" repeated, which a tiny model learns quickly.
func periodicData(t *testing.T, repeats, batchSize, numSteps int, mode IO.SamplingMode) (*IO.SeqDataLoader, *IO.Vocabulary) {
	t.Helper()
	toks := strings.Split(strings.Repeat("abcd", repeats), "")
	vocab := IO.NewVocabularyFromTokens(toks, 0, nil)
	loader, err := IO.NewSeqDataLoader(vocab.LookupMany(toks), batchSize, numSteps, mode)
	if err != nil {
		t.Fatal(err)
	}
	return loader, vocab
}

func testConfig(t *testing.T) params.TrainingConfig {
	cfg := params.Config
	cfg.Model = "rnn"
	cfg.NumHiddens = 16
	cfg.Optimizer = "adam"
	cfg.LR = 0.05
	cfg.NumEpochs = 30
	cfg.GradClip = 1
	cfg.PredictEvery = 0
	cfg.NumPreds = 4
	cfg.Prefixes = []string{"ab"}
	cfg.LogFile = filepath.Join(t.TempDir(), "log.csv")
	cfg.CheckpointPath = ""
	return cfg
}

func TestTimeMajor(t *testing.T) {
	got := TimeMajor([][]int{{1, 2, 3}, {4, 5, 6}})
	if want := []int{1, 4, 2, 5, 3, 6}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTrainLearnsPeriodicCorpus(t *testing.T) {
	loader, vocab := periodicData(t, 50, 4, 5, IO.Sequential)
	cfg := testConfig(t)
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "rnn.gob")

	net, err := rnn.NewNet(cfg.Model, vocab.Len(), cfg.NumHiddens, utils.NewRand(cfg.Seed))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Train(net, loader, vocab, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.RunID == "" || len(res.History) != cfg.NumEpochs {
		t.Fatalf("run=%q epochs=%d", res.RunID, len(res.History))
	}
	first := res.History[0].Perplexity
	if res.Perplexity >= first || res.Perplexity > 2 {
		t.Fatalf("perplexity %.3f -> %.3f", first, res.Perplexity)
	}

	out, err := PredictText("ab", 6, net, vocab)
	if err != nil {
		t.Fatal(err)
	}
	if out != "abcdabcd" {
		t.Errorf("prediction = %q", out)
	}

	// header plus one row per epoch
	f, err := os.Open(cfg.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != cfg.NumEpochs+1 || rows[1][0] != res.RunID {
		t.Fatalf("log has %d rows", len(rows))
	}

	restored, _ := rnn.NewNet(cfg.Model, vocab.Len(), cfg.NumHiddens, utils.NewRand(1))
	meta, err := rnn.Load(cfg.CheckpointPath, restored)
	if err != nil {
		t.Fatal(err)
	}
	if meta.RunID != res.RunID || meta.Epoch != cfg.NumEpochs {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestTrainEpochRandomMode(t *testing.T) {
	loader, vocab := periodicData(t, 50, 3, 4, IO.Random)
	cfg := testConfig(t)
	net, _ := rnn.NewNet("gru", vocab.Len(), 8, utils.NewRand(3))
	up, _ := NewUpdater(cfg)
	stats, err := TrainEpoch(net, loader, up, utils.NewRand(4), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Perplexity <= 1 || stats.GradNorm <= 0 {
		t.Fatalf("stats = %+v", stats)
	}
	for _, p := range net.Params() {
		if mat.Norm(p.Grad, 2) != 0 {
			t.Fatalf("%s grad not cleared after step", p.Name)
		}
	}
}

func TestTrainEpochNoBatches(t *testing.T) {
	loader, vocab := periodicData(t, 1, 2, 8, IO.Sequential)
	cfg := testConfig(t)
	net, _ := rnn.NewNet("scratch", vocab.Len(), 4, utils.NewRand(1))
	up, _ := NewUpdater(cfg)
	_, err := TrainEpoch(net, loader, up, utils.NewRand(1), cfg)
	if !errors.Is(err, ErrNoBatches) {
		t.Fatalf("err = %v, want ErrNoBatches", err)
	}
}

func TestPredictKeepsPrefix(t *testing.T) {
	_, vocab := periodicData(t, 2, 1, 1, IO.Sequential)
	net, _ := rnn.NewNet("lstm", vocab.Len(), 4, utils.NewRand(9))
	out, err := Predict([]string{"c", "a", "z"}, 5, net, vocab)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 8 {
		t.Fatalf("len = %d, want 8", len(out))
	}
	// unknown prefix tokens come back as <unk>
	if !reflect.DeepEqual(out[:3], []string{"c", "a", IO.UnkToken}) {
		t.Fatalf("prefix = %v", out[:3])
	}
	again, _ := Predict([]string{"c", "a", "z"}, 5, net, vocab)
	if !reflect.DeepEqual(out, again) {
		t.Fatal("greedy prediction is not deterministic")
	}
	if _, err := Predict(nil, 3, net, vocab); err == nil {
		t.Fatal("expected error for empty prefix")
	}
}

func TestSGDStepClearsGrads(t *testing.T) {
	p := &rnn.Param{
		Name: "w",
		W:    mat.NewDense(1, 2, []float64{1, 1}),
		Grad: mat.NewDense(1, 2, []float64{1, -1}),
	}
	(&SGD{LR: 0.5}).Step([]*rnn.Param{p}, 1)
	if p.W.At(0, 0) != 0.5 || p.W.At(0, 1) != 1.5 {
		t.Fatalf("W = %v", mat.Formatted(p.W))
	}
	if p.Grad.At(0, 0) != 0 || p.Grad.At(0, 1) != 0 {
		t.Fatal("grad not cleared")
	}
}

func TestNewUpdaterUnknown(t *testing.T) {
	cfg := params.Config
	cfg.Optimizer = "rmsprop"
	if _, err := NewUpdater(cfg); err == nil {
		t.Fatal("expected error")
	}
}

func TestPredictorWordTokens(t *testing.T) {
	toks := strings.Fields(strings.Repeat("the time machine ", 5))
	vocab := IO.NewVocabularyFromTokens(toks, 0, nil)
	net, _ := rnn.NewNet("gru", vocab.Len(), 4, utils.NewRand(2))
	cfg := params.Config
	cfg.TokenType = "word"
	cfg.NumPreds = 2
	p, err := NewPredictor(net, vocab, cfg)
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Complete("the  time")
	if err != nil {
		t.Fatal(err)
	}
	words := strings.Split(out, " ")
	if len(words) != 4 || words[0] != "the" || words[1] != "time" {
		t.Fatalf("Complete = %q", out)
	}
}
