package IO

import (
	"sort"

	"github.com/pkg/errors"
)

// UnkToken is stored at id 0 of every vocabulary.
const UnkToken = "<unk>"

// ErrIDOutOfRange is returned when an id has no token.
var ErrIDOutOfRange = errors.New("token id out of range")

type TokenFreq struct {
	Token string
	Count int
}

// Vocabulary maps tokens to dense ids and back. It is read-only once built.
type Vocabulary struct {
	tokenToID  map[string]int
	idToToken  []string
	tokenFreqs []TokenFreq
}

// NewVocabularyFromTokens builds a vocabulary over a flat token list.
func NewVocabularyFromTokens(tokens []string, minFreq int, reserved []string) *Vocabulary {
	return NewVocabulary([][]string{tokens}, minFreq, reserved)
}

// NewVocabulary builds a vocabulary over tokenized lines.
//
// Ids are assigned <unk> first, then the reserved tokens, then every token
// with count >= minFreq by descending count. Equal counts keep first-seen order.
func NewVocabulary(lines [][]string, minFreq int, reserved []string) *Vocabulary {
	freqs := countTokens(lines)
	sort.SliceStable(freqs, func(i, j int) bool { return freqs[i].Count > freqs[j].Count })

	v := &Vocabulary{
		tokenToID:  make(map[string]int, len(freqs)+len(reserved)+1),
		idToToken:  make([]string, 0, len(freqs)+len(reserved)+1),
		tokenFreqs: freqs,
	}
	v.add(UnkToken)
	for _, tok := range reserved {
		v.add(tok)
	}
	for _, f := range freqs {
		// sorted, so everything after the first miss is below minFreq too
		if f.Count < minFreq {
			break
		}
		v.add(f.Token)
	}
	return v
}

func (v *Vocabulary) add(tok string) {
	if _, ok := v.tokenToID[tok]; ok {
		return
	}
	v.tokenToID[tok] = len(v.idToToken)
	v.idToToken = append(v.idToToken, tok)
}

// countTokens returns per-token counts in first-seen order.
func countTokens(lines [][]string) []TokenFreq {
	index := make(map[string]int)
	var out []TokenFreq
	for _, line := range lines {
		for _, tok := range line {
			if i, ok := index[tok]; ok {
				out[i].Count++
				continue
			}
			index[tok] = len(out)
			out = append(out, TokenFreq{Token: tok, Count: 1})
		}
	}
	return out
}

func (v *Vocabulary) Len() int {
	return len(v.idToToken)
}

// Unk is the id unknown tokens map to.
func (v *Vocabulary) Unk() int {
	return 0
}

// Lookup returns the id of tok, or Unk() if tok was never stored.
func (v *Vocabulary) Lookup(tok string) int {
	if id, ok := v.tokenToID[tok]; ok {
		return id
	}
	return v.Unk()
}

func (v *Vocabulary) LookupMany(toks []string) []int {
	ids := make([]int, len(toks))
	for i, t := range toks {
		ids[i] = v.Lookup(t)
	}
	return ids
}

func (v *Vocabulary) ToToken(id int) (string, error) {
	if id < 0 || id >= len(v.idToToken) {
		return "", errors.Wrapf(ErrIDOutOfRange, "id %d, vocabulary size %d", id, len(v.idToToken))
	}
	return v.idToToken[id], nil
}

func (v *Vocabulary) ToTokens(ids []int) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		tok, err := v.ToToken(id)
		if err != nil {
			return nil, err
		}
		out[i] = tok
	}
	return out, nil
}

// Tokens returns a copy of the id-ordered token list.
func (v *Vocabulary) Tokens() []string {
	return append([]string(nil), v.idToToken...)
}

// TokenFreqs returns a copy of the (token, count) table, most frequent first.
func (v *Vocabulary) TokenFreqs() []TokenFreq {
	return append([]TokenFreq(nil), v.tokenFreqs...)
}
