// Package model defines the vocabulary model contract the wheel core
// depends on, and ships a small character n-gram reference implementation so
// the service runs without an external inference backend.
package model

// Model is the capability contract for a vocabulary model: given a text
// context it produces a probability vector over a fixed vocabulary, and it
// can decode token ids, measure tokenized length, and identify its
// end-of-sequence marker. Inference has no shared mutable state and is safe
// for concurrent calls.
type Model interface {
	// Probabilities returns the next-token probability vector for context,
	// indexed by token id. The vector has VocabSize entries and sums to 1.
	Probabilities(context string) ([]float64, error)

	// Decode returns the string form of a token id.
	Decode(tokenID int) string

	// TokenizeLength returns the number of tokens context occupies.
	TokenizeLength(context string) int

	// EOSTokenID returns the id of the end-of-sequence token.
	EOSTokenID() int

	// IsSpecial reports whether a token id is a special marker.
	IsSpecial(tokenID int) bool

	// VocabSize returns the fixed vocabulary size.
	VocabSize() int
}
