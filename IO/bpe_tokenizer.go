package IO

import (
	"github.com/pkg/errors"
	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// BPETokenizer splits text into sub-word pieces with a pretrained tokenizer.json.
// Its pieces are only used as token strings; ids come from our Vocabulary.
type BPETokenizer struct {
	t *tk.Tokenizer
}

func LoadBPETokenizer(path string) (*BPETokenizer, error) {
	if !fileExists(path) {
		return nil, errors.Errorf("tokenizer file %s not found", path)
	}
	t, err := pretrained.FromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load tokenizer %s", path)
	}
	return &BPETokenizer{t: t}, nil
}

// Tokenize returns the sub-word pieces of one line, without special tokens.
func (b *BPETokenizer) Tokenize(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	enc, err := b.t.EncodeSingle(text, false)
	if err != nil {
		return nil, errors.Wrap(err, "bpe encode")
	}
	return append([]string(nil), enc.Tokens...), nil
}

func (b *BPETokenizer) TokenizeLines(lines []string) ([][]string, error) {
	out := make([][]string, len(lines))
	for i, line := range lines {
		toks, err := b.Tokenize(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}
		out[i] = toks
	}
	return out, nil
}
