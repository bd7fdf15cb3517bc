package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/L1ndenbaum/DeepLearning/train"
)

// asciiPlot draws a crude vertical bar chart of values scaled to their max.
func asciiPlot(w io.Writer, values []float64) {
	const height = 10 // number of text rows
	n := len(values)
	if n == 0 {
		fmt.Fprintln(w, "no data to plot")
		return
	}
	top := values[0]
	for _, v := range values {
		top = max(top, v)
	}
	if top <= 0 {
		top = 1
	}
	for row := height; row >= 1; row-- {
		threshold := top * float64(row) / float64(height)
		var sb strings.Builder
		for _, v := range values {
			if v >= threshold {
				sb.WriteString("█")
			} else {
				sb.WriteString(" ")
			}
		}
		fmt.Fprintln(w, sb.String())
	}
	// x-axis, a tick every 5 points
	fmt.Fprintln(w, strings.Repeat("─", n))
	var sb strings.Builder
	for i := range values {
		if i%5 == 0 {
			sb.WriteString(strconv.Itoa(i % 10))
		} else {
			sb.WriteString(" ")
		}
	}
	fmt.Fprintln(w, sb.String())
}

// plotPerplexity plots at most width epochs, sampling evenly when there are more.
func plotPerplexity(w io.Writer, history []train.EpochStats, width int) {
	step := 1
	if width > 0 && len(history) > width {
		step = (len(history) + width - 1) / width
	}
	var vals []float64
	for i := 0; i < len(history); i += step {
		vals = append(vals, history[i].Perplexity)
	}
	fmt.Fprintf(w, "perplexity, %d epochs (1 column = %d epochs)\n", len(history), step)
	asciiPlot(w, vals)
}
