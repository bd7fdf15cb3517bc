package IO

import (
	"iter"
	"math/rand/v2"

	"github.com/pkg/errors"
)

// SamplingMode selects how windows are cut from the corpus.
type SamplingMode int

const (
	// Sequential keeps row r of batch k+1 as the continuation of row r of batch k,
	// so the hidden state can be carried across batches.
	Sequential SamplingMode = iota
	// Random shuffles window start offsets; adjacent batches share no continuity.
	Random
)

func (m SamplingMode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// ErrInvalidLoader is returned for non-positive batch sizes or window lengths.
var ErrInvalidLoader = errors.New("invalid sequence loader")

// Batch holds features and next-token labels, both [batchSize][numSteps].
// Y[r][t] is the corpus token right after X[r][t].
type Batch struct {
	X, Y [][]int
}

// SeqDataLoader cuts a flat id corpus into mini-batches of fixed-length windows.
// It keeps no cursor: every call to Batches is an independent pass.
type SeqDataLoader struct {
	corpus    []int
	batchSize int
	numSteps  int
	mode      SamplingMode
}

// NewSeqDataLoader does not check the corpus length; a corpus shorter than
// one window simply produces no batches.
func NewSeqDataLoader(corpus []int, batchSize, numSteps int, mode SamplingMode) (*SeqDataLoader, error) {
	if batchSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidLoader, "batch size %d", batchSize)
	}
	if numSteps <= 0 {
		return nil, errors.Wrapf(ErrInvalidLoader, "num steps %d", numSteps)
	}
	if mode != Sequential && mode != Random {
		return nil, errors.Wrapf(ErrInvalidLoader, "sampling mode %d", int(mode))
	}
	return &SeqDataLoader{corpus: corpus, batchSize: batchSize, numSteps: numSteps, mode: mode}, nil
}

func (l *SeqDataLoader) BatchSize() int     { return l.batchSize }
func (l *SeqDataLoader) NumSteps() int      { return l.numSteps }
func (l *SeqDataLoader) Mode() SamplingMode { return l.mode }
func (l *SeqDataLoader) Len() int           { return len(l.corpus) }

// NumBatches is the batch count of a pass whose random offset is 0. A pass
// with a larger offset can yield fewer batches, never more.
func (l *SeqDataLoader) NumBatches() int {
	switch l.mode {
	case Random:
		return numSubseqs(len(l.corpus), l.numSteps) / l.batchSize
	default:
		width := sequentialTokens(len(l.corpus), 0, l.batchSize) / l.batchSize
		return width / l.numSteps
	}
}

// Batches returns a lazy, single-pass sequence of batches. The random offset
// (and, in Random mode, the window order) is drawn from rng each time the
// sequence is ranged over.
func (l *SeqDataLoader) Batches(rng *rand.Rand) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		offset := rng.IntN(l.numSteps)
		switch l.mode {
		case Random:
			if offset >= len(l.corpus) {
				return
			}
			corpus := l.corpus[offset:]
			starts := windowStarts(len(corpus), l.numSteps)
			rng.Shuffle(len(starts), func(i, j int) { starts[i], starts[j] = starts[j], starts[i] })
			randomBatches(corpus, l.batchSize, l.numSteps, starts, yield)
		case Sequential:
			sequentialBatches(l.corpus, l.batchSize, l.numSteps, offset, yield)
		}
	}
}

// numSubseqs leaves room for the one-ahead label of the last window.
func numSubseqs(n, numSteps int) int {
	if n < 1 {
		return 0
	}
	return (n - 1) / numSteps
}

func windowStarts(n, numSteps int) []int {
	starts := make([]int, numSubseqs(n, numSteps))
	for i := range starts {
		starts[i] = i * numSteps
	}
	return starts
}

// randomBatches yields len(starts)/batchSize batches, taking starts in order.
// Windows that cannot fill a whole batch are dropped.
func randomBatches(corpus []int, batchSize, numSteps int, starts []int, yield func(Batch) bool) {
	numBatches := len(starts) / batchSize
	for i := 0; i < numBatches*batchSize; i += batchSize {
		b := Batch{X: make([][]int, batchSize), Y: make([][]int, batchSize)}
		for k, s := range starts[i : i+batchSize] {
			b.X[k] = window(corpus, s, numSteps)
			b.Y[k] = window(corpus, s+1, numSteps)
		}
		if !yield(b) {
			return
		}
	}
}

// sequentialTokens is the largest multiple of batchSize that fits after offset
// while leaving one label token.
func sequentialTokens(n, offset, batchSize int) int {
	avail := n - offset - 1
	if avail <= 0 {
		return 0
	}
	return (avail / batchSize) * batchSize
}

// sequentialBatches reshapes corpus[offset:offset+numTokens] into batchSize
// rows and yields consecutive numSteps-wide column slices.
func sequentialBatches(corpus []int, batchSize, numSteps, offset int, yield func(Batch) bool) {
	numTokens := sequentialTokens(len(corpus), offset, batchSize)
	if numTokens == 0 {
		return
	}
	xs := corpus[offset : offset+numTokens]
	ys := corpus[offset+1 : offset+1+numTokens]
	width := numTokens / batchSize
	numBatches := width / numSteps
	for i := 0; i < numBatches*numSteps; i += numSteps {
		b := Batch{X: make([][]int, batchSize), Y: make([][]int, batchSize)}
		for r := 0; r < batchSize; r++ {
			b.X[r] = window(xs, r*width+i, numSteps)
			b.Y[r] = window(ys, r*width+i, numSteps)
		}
		if !yield(b) {
			return
		}
	}
}

func window(s []int, start, n int) []int {
	return append([]int(nil), s[start:start+n]...)
}
