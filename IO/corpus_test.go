package IO

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/L1ndenbaum/DeepLearning/params"
)

func TestCleanLine(t *testing.T) {
	cases := map[string]string{
		"The Time Machine, by H. G. Wells [1898]": "the time machine by h g wells",
		"  --  ":   "",
		"I.":       "i",
		"Travel-ler": "travel ler",
	}
	for in, want := range cases {
		if got := CleanLine(in); got != want {
			t.Errorf("CleanLine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokenize(t *testing.T) {
	chars, err := Tokenize([]string{"ab c"}, "char")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(chars, [][]string{{"a", "b", " ", "c"}}) {
		t.Errorf("char tokens = %v", chars)
	}
	words, _ := Tokenize([]string{"the time  machine"}, "word")
	if !reflect.DeepEqual(words, [][]string{{"the", "time", "machine"}}) {
		t.Errorf("word tokens = %v", words)
	}
	if _, err := Tokenize([]string{"x"}, "byte"); err == nil {
		t.Error("expected error for unknown token type")
	}
}

func writeCorpus(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadCorpusTruncatesAndIndexes(t *testing.T) {
	cfg := params.Config
	cfg.CorpusPath = writeCorpus(t, "The Time\n\nMachine!\n")
	cfg.TokenType = "char"
	cfg.MaxTokens = 0

	corpus, vocab, err := LoadCorpus(cfg)
	if err != nil {
		t.Fatal(err)
	}
	// "the time" + "machine", lines joined without separators
	toks, err := vocab.ToTokens(corpus)
	if err != nil {
		t.Fatal(err)
	}
	if got := join(toks); got != "the timemachine" {
		t.Fatalf("decoded corpus = %q", got)
	}

	cfg.MaxTokens = 4
	corpus, _, err = LoadCorpus(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(corpus) != 4 {
		t.Fatalf("len = %d, want 4", len(corpus))
	}
}

func TestLoadTimeMachineDataMode(t *testing.T) {
	cfg := params.Config
	cfg.CorpusPath = writeCorpus(t, "abcdefghij abcdefghij abcdefghij\n")
	cfg.BatchSize, cfg.NumSteps, cfg.MaxTokens = 2, 3, 0
	cfg.UseRandomIter = true
	loader, vocab, err := LoadTimeMachineData(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if loader.Mode() != Random || loader.Len() != 32 || vocab.Len() != 12 {
		t.Fatalf("mode=%s len=%d vocab=%d", loader.Mode(), loader.Len(), vocab.Len())
	}
}

func TestLoadCorpusMissingFile(t *testing.T) {
	cfg := params.Config
	cfg.CorpusPath = filepath.Join(t.TempDir(), "nope.txt")
	if _, _, err := LoadCorpus(cfg); err == nil {
		t.Fatal("expected error for missing corpus")
	}
}

func join(toks []string) string {
	s := ""
	for _, t := range toks {
		s += t
	}
	return s
}

func TestLoadBPETokenizerMissingFile(t *testing.T) {
	if _, err := LoadBPETokenizer(filepath.Join(t.TempDir(), "tokenizer.json")); err == nil {
		t.Fatal("expected error for missing tokenizer.json")
	}
	cfg := params.Config
	cfg.CorpusPath = writeCorpus(t, "abc\n")
	cfg.TokenType = "bpe"
	cfg.TokenizerPath = filepath.Join(t.TempDir(), "missing.json")
	if _, _, err := LoadCorpus(cfg); err == nil {
		t.Fatal("expected LoadCorpus to fail without a tokenizer")
	}
}
