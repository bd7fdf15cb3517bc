package train

import (
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/L1ndenbaum/DeepLearning/IO"
	"github.com/L1ndenbaum/DeepLearning/params"
	"github.com/L1ndenbaum/DeepLearning/rnn"
	"github.com/L1ndenbaum/DeepLearning/utils"
)

// Predict warms the state up on prefix and then appends numPreds greedy
// (argmax) tokens. The result starts with the prefix itself.
func Predict(prefix []string, numPreds int, net rnn.Net, vocab *IO.Vocabulary) ([]string, error) {
	if len(prefix) == 0 {
		return nil, errors.New("predict: empty prefix")
	}
	if net.VocabSize() != vocab.Len() {
		return nil, errors.Errorf("predict: model has %d classes, vocabulary %d", net.VocabSize(), vocab.Len())
	}
	state := net.BeginState(1)
	outputs := []int{vocab.Lookup(prefix[0])}
	step := func() *mat.Dense {
		logits, next := net.Forward([][]int{{outputs[len(outputs)-1]}}, state)
		state = next
		return logits
	}
	// warm-up: the state absorbs the prefix, outputs are ignored
	for _, tok := range prefix[1:] {
		step()
		outputs = append(outputs, vocab.Lookup(tok))
	}
	for i := 0; i < numPreds; i++ {
		outputs = append(outputs, utils.ArgmaxRow(step(), 0))
	}
	return vocab.ToTokens(outputs)
}

// PredictText is Predict for character vocabularies.
func PredictText(prefix string, numPreds int, net rnn.Net, vocab *IO.Vocabulary) (string, error) {
	toks, err := Predict(strings.Split(prefix, ""), numPreds, net, vocab)
	if err != nil {
		return "", err
	}
	return strings.Join(toks, ""), nil
}

// prefixSplitter returns how prefixes are cut into tokens for the corpus
// token type, and the separator used to join predicted tokens back.
func prefixSplitter(cfg params.TrainingConfig) (func(string) ([]string, error), string, error) {
	switch cfg.TokenType {
	case "word":
		return func(s string) ([]string, error) { return strings.Fields(s), nil }, " ", nil
	case "bpe":
		bpe, err := IO.LoadBPETokenizer(cfg.TokenizerPath)
		if err != nil {
			return nil, "", err
		}
		return func(s string) ([]string, error) { return bpe.Tokenize(IO.CleanLine(s)) }, "", nil
	}
	return func(s string) ([]string, error) { return strings.Split(s, ""), nil }, "", nil
}

// Predictor completes raw text prompts with the tokenization of the corpus.
type Predictor struct {
	net      rnn.Net
	vocab    *IO.Vocabulary
	split    func(string) ([]string, error)
	sep      string
	numPreds int
}

func NewPredictor(net rnn.Net, vocab *IO.Vocabulary, cfg params.TrainingConfig) (*Predictor, error) {
	split, sep, err := prefixSplitter(cfg)
	if err != nil {
		return nil, err
	}
	return &Predictor{net: net, vocab: vocab, split: split, sep: sep, numPreds: cfg.NumPreds}, nil
}

// Complete returns the prompt followed by the predicted continuation.
func (p *Predictor) Complete(prompt string) (string, error) {
	toks, err := p.split(prompt)
	if err != nil {
		return "", err
	}
	out, err := Predict(toks, p.numPreds, p.net, p.vocab)
	if err != nil {
		return "", err
	}
	return strings.Join(out, p.sep), nil
}
