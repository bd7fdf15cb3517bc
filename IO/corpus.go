package IO

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/L1ndenbaum/DeepLearning/params"
	"github.com/L1ndenbaum/DeepLearning/utils"
)

// ReadLines reads up to 'limit' lines (0 = no limit) without trailing newlines.
func ReadLines(p string, limit int) ([]string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "open corpus %s", p)
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 1<<20) // 1MB
	out := make([]string, 0, 4096)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			out = append(out, strings.TrimRight(line, "\r\n"))
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, errors.Wrapf(err, "read corpus %s", p)
		}
	}
}

// CleanLine lowercases ASCII letters and turns every run of other bytes into one space.
func CleanLine(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inGap := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 32
		}
		if c >= 'a' && c <= 'z' {
			sb.WriteByte(c)
			inGap = false
			continue
		}
		if !inGap {
			sb.WriteByte(' ')
			inGap = true
		}
	}
	return strings.TrimSpace(sb.String())
}

// Tokenize splits each line into characters ("char") or whitespace words ("word").
func Tokenize(lines []string, tokenType string) ([][]string, error) {
	out := make([][]string, len(lines))
	for i, line := range lines {
		switch tokenType {
		case "char":
			toks := make([]string, 0, len(line))
			for _, r := range line {
				toks = append(toks, string(r))
			}
			out[i] = toks
		case "word":
			out[i] = strings.Fields(line)
		default:
			return nil, errors.Errorf("unknown token type %q", tokenType)
		}
	}
	return out, nil
}

// LoadCorpus reads a text file into a flat id sequence and the vocabulary
// built over it. maxTokens > 0 truncates the id sequence.
func LoadCorpus(cfg params.TrainingConfig) ([]int, *Vocabulary, error) {
	lines, err := ReadLines(cfg.CorpusPath, 0)
	if err != nil {
		return nil, nil, err
	}
	for i := range lines {
		lines[i] = CleanLine(lines[i])
	}

	var toks [][]string
	if cfg.TokenType == "bpe" {
		bpe, err := LoadBPETokenizer(cfg.TokenizerPath)
		if err != nil {
			return nil, nil, err
		}
		toks, err = bpe.TokenizeLines(lines)
		if err != nil {
			return nil, nil, err
		}
	} else {
		toks, err = Tokenize(lines, cfg.TokenType)
		if err != nil {
			return nil, nil, err
		}
	}

	vocab := NewVocabulary(toks, cfg.MinFreq, nil)
	corpus := make([]int, 0, len(lines)*8)
	for _, line := range toks {
		corpus = append(corpus, vocab.LookupMany(line)...)
	}
	if cfg.MaxTokens > 0 && len(corpus) > cfg.MaxTokens {
		corpus = corpus[:cfg.MaxTokens]
	}
	utils.Log.WithFields(logrus.Fields{
		"path":   cfg.CorpusPath,
		"lines":  len(lines),
		"tokens": len(corpus),
		"vocab":  vocab.Len(),
	}).Info("loaded corpus")
	return corpus, vocab, nil
}

// LoadTimeMachineData returns a batcher over the configured corpus and its vocabulary.
func LoadTimeMachineData(cfg params.TrainingConfig) (*SeqDataLoader, *Vocabulary, error) {
	corpus, vocab, err := LoadCorpus(cfg)
	if err != nil {
		return nil, nil, err
	}
	mode := Sequential
	if cfg.UseRandomIter {
		mode = Random
	}
	loader, err := NewSeqDataLoader(corpus, cfg.BatchSize, cfg.NumSteps, mode)
	if err != nil {
		return nil, nil, err
	}
	return loader, vocab, nil
}
