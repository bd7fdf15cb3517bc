package rnn

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Meta describes the run a checkpoint came from.
type Meta struct {
	RunID      string
	Model      string
	VocabSize  int
	NumHiddens int
	Epoch      int
	Perplexity float64
}

type paramData struct {
	Name string
	R, C int
	Data []float64
}

type modelData struct {
	Meta   Meta
	Params []paramData
}

// Save writes every parameter of net to path as gob.
func Save(path string, net Net, meta Meta) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	data := modelData{Meta: meta}
	for _, p := range net.Params() {
		r, c := p.W.Dims()
		raw := mat.DenseCopyOf(p.W).RawMatrix()
		data.Params = append(data.Params, paramData{
			Name: p.Name,
			R:    r,
			C:    c,
			Data: append([]float64(nil), raw.Data...),
		})
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(data); err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	return nil
}

// Load reads a checkpoint written by Save into net. Every parameter of net
// must be present with the same shape.
func Load(path string, net Net) (Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return Meta{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	var data modelData
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return Meta{}, errors.Wrapf(err, "decode %s", path)
	}
	byName := make(map[string]paramData, len(data.Params))
	for _, pd := range data.Params {
		byName[pd.Name] = pd
	}
	for _, p := range net.Params() {
		pd, ok := byName[p.Name]
		if !ok {
			return Meta{}, errors.Errorf("%s: missing parameter %s", path, p.Name)
		}
		r, c := p.W.Dims()
		if pd.R != r || pd.C != c || len(pd.Data) != r*c {
			return Meta{}, errors.Errorf("%s: %s is %dx%d, model wants %dx%d", path, p.Name, pd.R, pd.C, r, c)
		}
		p.W.Copy(mat.NewDense(r, c, pd.Data))
	}
	return data.Meta, nil
}
