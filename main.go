package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/L1ndenbaum/DeepLearning/IO"
	"github.com/L1ndenbaum/DeepLearning/device"
	"github.com/L1ndenbaum/DeepLearning/params"
	"github.com/L1ndenbaum/DeepLearning/rnn"
	"github.com/L1ndenbaum/DeepLearning/train"
	"github.com/L1ndenbaum/DeepLearning/utils"
)

var (
	configFlag string
	corpusFlag string
	modelFlag  string
	randomFlag bool
	epochsFlag int
	exportFlag string
	cliFlag    bool
	loadFlag   string
	seedFlag   uint64
)

func init() {
	flag.StringVar(&configFlag, "config", "", "YAML file overriding the default training config")
	flag.StringVar(&corpusFlag, "corpus", "", "Corpus text file")
	flag.StringVar(&modelFlag, "model", "", "Model: scratch | rnn | gru | lstm")
	flag.BoolVar(&randomFlag, "random", false, "Use random sampling instead of sequential partitioning")
	flag.IntVar(&epochsFlag, "epochs", 0, "Number of epochs")
	flag.StringVar(&exportFlag, "export", "", "Export vocab.json and token id shards to this directory and exit")
	flag.BoolVar(&cliFlag, "cli", false, "Interactive prediction after training or loading")
	flag.StringVar(&loadFlag, "load", "", "Load a checkpoint instead of training")
	flag.Uint64Var(&seedFlag, "seed", 0, "Random seed")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		utils.Log.WithError(err).Fatal("run failed")
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	utils.SetDebug(cfg.Debug)
	utils.Log.WithFields(logrus.Fields{
		"device": device.Try(0).String(),
		"host":   device.Describe(),
	}).Info("starting")

	if exportFlag != "" {
		return export(cfg, exportFlag)
	}

	loader, vocab, err := IO.LoadTimeMachineData(cfg)
	if err != nil {
		return err
	}
	net, err := rnn.NewNet(cfg.Model, vocab.Len(), cfg.NumHiddens, utils.NewRand(cfg.Seed))
	if err != nil {
		return err
	}

	if loadFlag != "" {
		meta, err := rnn.Load(loadFlag, net)
		if err != nil {
			return err
		}
		utils.Log.WithFields(logrus.Fields{
			"run":        meta.RunID,
			"epoch":      meta.Epoch,
			"perplexity": meta.Perplexity,
		}).Info("loaded checkpoint")
	} else {
		res, err := train.Train(net, loader, vocab, cfg)
		if err != nil {
			return err
		}
		plotPerplexity(os.Stdout, res.History, 80)
	}

	if cliFlag {
		return ChatCLI(os.Stdin, os.Stdout, net, vocab, cfg)
	}
	return nil
}

// loadConfig applies the YAML file first and explicitly set flags on top.
func loadConfig() (params.TrainingConfig, error) {
	cfg := params.Config
	if configFlag != "" {
		var err error
		if cfg, err = params.LoadConfig(configFlag); err != nil {
			return cfg, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "corpus":
			cfg.CorpusPath = corpusFlag
		case "model":
			cfg.Model = modelFlag
		case "random":
			cfg.UseRandomIter = randomFlag
		case "epochs":
			cfg.NumEpochs = epochsFlag
		case "seed":
			cfg.Seed = seedFlag
		}
	})
	return cfg, cfg.Validate()
}

// export writes the vocabulary and the id corpus so other tools can reuse them.
func export(cfg params.TrainingConfig, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	corpus, vocab, err := IO.LoadCorpus(cfg)
	if err != nil {
		return err
	}
	vocabPath := filepath.Join(dir, "vocab.json")
	if err := IO.ExportVocabJSON(vocabPath, vocab); err != nil {
		return err
	}
	maxShardSize := int64(64 * 1024 * 1024) // 64MB per shard
	shards, err := IO.ExportTokenIDsBinary(corpus, filepath.Join(dir, "ids"), maxShardSize)
	if err != nil {
		return err
	}
	utils.Log.WithFields(logrus.Fields{
		"vocab":  vocabPath,
		"tokens": len(corpus),
		"shards": shards,
	}).Info("exported")
	return nil
}
