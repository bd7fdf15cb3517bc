package IO

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

type vocabJSON struct {
	TokenToID  map[string]int `json:"TokenToID"`
	IDToToken  []string       `json:"IDToToken"`
	TokenFreqs []TokenFreq    `json:"TokenFreqs"`
}

// ExportVocabJSON writes the vocabulary with both directions of the mapping.
func ExportVocabJSON(path string, v *Vocabulary) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	data := vocabJSON{
		TokenToID:  v.tokenToID,
		IDToToken:  v.idToToken,
		TokenFreqs: v.tokenFreqs,
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(data), "encode vocab")
}

// ImportVocabJSON reads a file written by ExportVocabJSON. IDToToken is
// authoritative; TokenToID is rebuilt from it and checked against the file.
func ImportVocabJSON(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	var data vocabJSON
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if len(data.IDToToken) == 0 || data.IDToToken[0] != UnkToken {
		return nil, errors.Errorf("%s: id 0 must be %s", path, UnkToken)
	}
	v := &Vocabulary{
		tokenToID:  make(map[string]int, len(data.IDToToken)),
		idToToken:  make([]string, 0, len(data.IDToToken)),
		tokenFreqs: data.TokenFreqs,
	}
	for _, tok := range data.IDToToken {
		if _, dup := v.tokenToID[tok]; dup {
			return nil, errors.Errorf("%s: duplicate token %q", path, tok)
		}
		v.add(tok)
	}
	for tok, id := range data.TokenToID {
		if got, ok := v.tokenToID[tok]; !ok || got != id {
			return nil, errors.Errorf("%s: TokenToID[%q]=%d disagrees with IDToToken", path, tok, id)
		}
	}
	return v, nil
}

// ExportTokenIDsBinary writes ids as little-endian int32 to <prefix>-000.bin,
// <prefix>-001.bin, ..., starting a new shard once one reaches maxShardBytes.
// It returns the number of shards written.
func ExportTokenIDsBinary(ids []int, outPrefix string, maxShardBytes int64) (int, error) {
	if maxShardBytes < 4 {
		return 0, errors.Errorf("shard size %d too small", maxShardBytes)
	}
	shard := 0
	var (
		f   *os.File
		w   *bufio.Writer
		cur int64
	)
	closeShard := func() error {
		if f == nil {
			return nil
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return errors.Wrap(err, "flush shard")
		}
		return errors.Wrap(f.Close(), "close shard")
	}
	openShard := func() error {
		if err := closeShard(); err != nil {
			return err
		}
		var err error
		f, err = os.Create(shardPath(outPrefix, shard))
		if err != nil {
			return errors.Wrap(err, "create shard")
		}
		w = bufio.NewWriter(f)
		cur = 0
		shard++
		return nil
	}

	if err := openShard(); err != nil {
		return 0, err
	}
	buf4 := make([]byte, 4)
	for _, id := range ids {
		if cur+4 > maxShardBytes {
			if err := openShard(); err != nil {
				return shard, err
			}
		}
		binary.LittleEndian.PutUint32(buf4, uint32(int32(id)))
		if _, err := w.Write(buf4); err != nil {
			f.Close()
			return shard, errors.Wrap(err, "write ids")
		}
		cur += 4
	}
	return shard, closeShard()
}

// ImportTokenIDsBinary reads every consecutive shard of prefix back into one slice.
func ImportTokenIDsBinary(prefix string) ([]int, error) {
	var out []int
	buf4 := make([]byte, 4)
	for shard := 0; ; shard++ {
		p := shardPath(prefix, shard)
		if !fileExists(p) {
			if shard == 0 {
				return nil, errors.Errorf("no shards for %s", prefix)
			}
			return out, nil
		}
		f, err := os.Open(p)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", p)
		}
		r := bufio.NewReader(f)
		for {
			_, err := io.ReadFull(r, buf4)
			if err == io.EOF {
				break
			}
			if err != nil {
				f.Close()
				return nil, errors.Wrapf(err, "read %s", p)
			}
			out = append(out, int(int32(binary.LittleEndian.Uint32(buf4))))
		}
		f.Close()
	}
}

func shardPath(prefix string, shard int) string {
	return fmt.Sprintf("%s-%03d.bin", prefix, shard)
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
