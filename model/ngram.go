package model

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed corpus_default.txt
var defaultCorpus string

// smoothing is the add-k mass given to every vocabulary entry so no token
// ever has exactly zero probability and every vector sums to 1.
const smoothing = 0.1

// DefaultOrder is the context window (in characters) of the bundled model.
const DefaultOrder = 3

// NGram is a character-level n-gram language model. The vocabulary is the
// set of distinct runes in the training corpus plus one end-of-sequence
// token at the highest id. Each corpus line is treated as one sequence
// terminated by EOS. Prediction backs off from the longest seen context
// suffix down to the unconditional character distribution.
//
// The model is immutable after training, so it is safe for concurrent use.
type NGram struct {
	order  int
	vocab  []rune
	index  map[rune]int
	counts map[string][]float64
	totals map[string]float64
	eosID  int
}

// Train builds an NGram of the given order from corpus text. The corpus
// must contain at least one non-empty line.
func Train(corpus string, order int) (*NGram, error) {
	if order < 1 {
		return nil, fmt.Errorf("ngram: order must be >= 1, got %d", order)
	}

	seen := make(map[rune]struct{})
	var lines [][]rune
	for _, line := range strings.Split(corpus, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		runes := []rune(line)
		lines = append(lines, runes)
		for _, r := range runes {
			seen[r] = struct{}{}
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("ngram: corpus has no usable lines")
	}

	var vocab []rune
	for r := range seen {
		vocab = append(vocab, r)
	}
	sort.Slice(vocab, func(i, j int) bool { return vocab[i] < vocab[j] })

	m := &NGram{
		order:  order,
		vocab:  vocab,
		index:  make(map[rune]int, len(vocab)),
		counts: make(map[string][]float64),
		totals: make(map[string]float64),
		eosID:  len(vocab),
	}
	for i, r := range vocab {
		m.index[r] = i
	}

	for _, runes := range lines {
		for pos := 0; pos <= len(runes); pos++ {
			target := m.eosID
			if pos < len(runes) {
				target = m.index[runes[pos]]
			}
			// Record the transition under every context suffix length up to
			// the order, which gives the backoff chain its counts.
			for k := 0; k <= order; k++ {
				if k > pos {
					break
				}
				state := string(runes[pos-k : pos])
				m.observe(state, target)
			}
		}
	}
	return m, nil
}

// Default returns a model trained on the embedded corpus.
func Default() (*NGram, error) {
	return Train(defaultCorpus, DefaultOrder)
}

func (m *NGram) observe(state string, target int) {
	row := m.counts[state]
	if row == nil {
		row = make([]float64, m.VocabSize())
		m.counts[state] = row
	}
	row[target]++
	m.totals[state]++
}

// Probabilities returns the smoothed next-token distribution conditioned on
// the longest suffix of context that was seen during training. The empty
// suffix is always seen, so the call cannot fail on unfamiliar text.
func (m *NGram) Probabilities(context string) ([]float64, error) {
	runes := []rune(context)
	for k := m.order; k >= 0; k-- {
		if k > len(runes) {
			continue
		}
		state := string(runes[len(runes)-k:])
		row, ok := m.counts[state]
		if !ok {
			continue
		}

		v := m.VocabSize()
		total := m.totals[state] + smoothing*float64(v)
		probs := make([]float64, v)
		for id := 0; id < v; id++ {
			probs[id] = (row[id] + smoothing) / total
		}
		return probs, nil
	}
	return nil, fmt.Errorf("ngram: no state for context %q", context)
}

// Decode returns the string form of a token id. EOS decodes to the empty
// string so appending it to a context is harmless.
func (m *NGram) Decode(tokenID int) string {
	if tokenID == m.eosID {
		return ""
	}
	if tokenID < 0 || tokenID >= len(m.vocab) {
		return ""
	}
	return string(m.vocab[tokenID])
}

// TokenizeLength returns the length of context in model tokens (runes).
func (m *NGram) TokenizeLength(context string) int {
	return len([]rune(context))
}

// EOSTokenID returns the end-of-sequence token id.
func (m *NGram) EOSTokenID() int { return m.eosID }

// IsSpecial reports whether tokenID is the EOS marker.
func (m *NGram) IsSpecial(tokenID int) bool { return tokenID == m.eosID }

// VocabSize returns the vocabulary size including the EOS token.
func (m *NGram) VocabSize() int { return len(m.vocab) + 1 }
