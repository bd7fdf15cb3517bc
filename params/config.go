package params

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type TrainingConfig struct {
	// Corpus and vocabulary
	CorpusPath    string `yaml:"corpus_path"`
	TokenType     string `yaml:"token_type"`     // char | word | bpe
	TokenizerPath string `yaml:"tokenizer_path"` // tokenizer.json, bpe only
	MaxTokens     int    `yaml:"max_tokens"`     // <=0 keeps the whole corpus
	MinFreq       int    `yaml:"min_freq"`

	// Sampling
	BatchSize     int  `yaml:"batch_size"`
	NumSteps      int  `yaml:"num_steps"` // window length
	UseRandomIter bool `yaml:"use_random_iter"`

	// Model
	Model      string `yaml:"model"` // scratch | rnn | gru | lstm
	NumHiddens int    `yaml:"num_hiddens"`

	// Optimization
	LR          float64 `yaml:"lr"`
	NumEpochs   int     `yaml:"num_epochs"`
	GradClip    float64 `yaml:"grad_clip"` // <=0 disables
	Optimizer   string  `yaml:"optimizer"` // sgd | adam
	AdamBeta1   float64 `yaml:"adam_beta1"`
	AdamBeta2   float64 `yaml:"adam_beta2"`
	AdamEps     float64 `yaml:"adam_eps"`
	WeightDecay float64 `yaml:"weight_decay"` // adam only

	// Reporting
	PredictEvery   int      `yaml:"predict_every"` // epochs between sample predictions
	NumPreds       int      `yaml:"num_preds"`
	Prefixes       []string `yaml:"prefixes"`
	Seed           uint64   `yaml:"seed"`
	LogFile        string   `yaml:"log_file"` // CSV epoch log, "" disables
	CheckpointPath string   `yaml:"checkpoint_path"`
	Debug          bool     `yaml:"debug"`
}

// Config holds the defaults used by the CLI.
var Config = TrainingConfig{
	CorpusPath: "../data/timemachine.txt",
	TokenType:  "char",
	MaxTokens:  10000,
	MinFreq:    0,

	BatchSize:     32,
	NumSteps:      35,
	UseRandomIter: false,

	Model:      "scratch",
	NumHiddens: 512,

	LR:          1,
	NumEpochs:   500,
	GradClip:    1.0,
	Optimizer:   "sgd",
	AdamBeta1:   0.9,
	AdamBeta2:   0.999,
	AdamEps:     1e-8,
	WeightDecay: 0,

	PredictEvery: 100,
	NumPreds:     50,
	Prefixes:     []string{"time traveller", "traveller"},
	Seed:         42,
	LogFile:      "training_log.csv",
}

// LoadConfig reads a YAML file on top of a copy of the defaults.
// Keys missing from the file keep their default value.
func LoadConfig(path string) (TrainingConfig, error) {
	cfg := Config
	cfg.Prefixes = append([]string(nil), Config.Prefixes...)
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "decode config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c TrainingConfig) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return errors.Errorf("batch_size must be positive, got %d", c.BatchSize)
	case c.NumSteps <= 0:
		return errors.Errorf("num_steps must be positive, got %d", c.NumSteps)
	case c.NumHiddens <= 0:
		return errors.Errorf("num_hiddens must be positive, got %d", c.NumHiddens)
	case c.NumEpochs < 0:
		return errors.Errorf("num_epochs must not be negative, got %d", c.NumEpochs)
	case c.LR <= 0:
		return errors.Errorf("lr must be positive, got %g", c.LR)
	case c.GradClip < 0:
		return errors.Errorf("grad_clip must not be negative, got %g", c.GradClip)
	}
	switch c.TokenType {
	case "char", "word":
	case "bpe":
		if c.TokenizerPath == "" {
			return errors.New("token_type bpe needs tokenizer_path")
		}
	default:
		return errors.Errorf("unknown token_type %q", c.TokenType)
	}
	switch c.Model {
	case "scratch", "rnn", "gru", "lstm":
	default:
		return errors.Errorf("unknown model %q", c.Model)
	}
	switch c.Optimizer {
	case "sgd", "adam":
	default:
		return errors.Errorf("unknown optimizer %q", c.Optimizer)
	}
	return nil
}
