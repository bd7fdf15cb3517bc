package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/L1ndenbaum/DeepLearning/IO"
	"github.com/L1ndenbaum/DeepLearning/params"
	"github.com/L1ndenbaum/DeepLearning/rnn"
	"github.com/L1ndenbaum/DeepLearning/train"
)

// ChatCLI reads prompts line by line and prints the greedy continuation.
// An empty line or "exit" quits.
func ChatCLI(in io.Reader, out io.Writer, net rnn.Net, vocab *IO.Vocabulary, cfg params.TrainingConfig) error {
	predictor, err := train.NewPredictor(net, vocab, cfg)
	if err != nil {
		return err
	}
	sc := bufio.NewScanner(in)
	fmt.Fprintln(out, "Type a prefix, 'exit' to quit.")
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		input := strings.TrimSpace(sc.Text())
		if input == "" || input == "exit" {
			return nil
		}
		if cfg.TokenType != "word" {
			input = strings.ToLower(input)
		}
		text, err := predictor.Complete(input)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}
		fmt.Fprintln(out, text)
	}
}
