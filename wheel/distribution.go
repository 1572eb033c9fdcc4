// Package wheel turns a next-token probability vector into a short-list of
// candidate tokens, maps the list onto a 0-360 degree wheel, and samples a
// token from it either probabilistically, by landing angle, or by id.
package wheel

import (
	"fmt"
	"sort"
)

// OtherTokenID is the placeholder id for the aggregate "other" bucket. It is
// only ever a request-side sentinel; results always carry a concrete token id.
const OtherTokenID = -1

// OtherToken is the display string for the aggregate "other" bucket.
const OtherToken = "<OTHER>"

// massTolerance is the permitted drift when checking that candidate
// probabilities plus the remaining mass account for the whole vector.
const massTolerance = 1e-5

// secondaryPassTrigger is the remaining-mass level above which the builder
// runs a second selection pass at the secondary threshold.
const secondaryPassTrigger = 0.2

// TokenCandidate is one token explicitly surfaced in a Distribution.
type TokenCandidate struct {
	Token       string  `json:"token"`
	TokenID     int     `json:"token_id"`
	Probability float64 `json:"probability"`
	IsSpecial   bool    `json:"is_special"`
}

// Distribution is the dual-threshold selection over one probability vector:
// an explicit candidate short-list plus the aggregate mass of everything
// else. Candidates are sorted by probability descending; ties keep ascending
// token-id order. A Distribution is replaced, never mutated, after each
// accepted token.
type Distribution struct {
	Context              string           `json:"context"`
	Candidates           []TokenCandidate `json:"candidates"`
	RemainingProbability float64          `json:"remaining_probability"`
}

// Decoder resolves token ids to their string form and special-token status.
// The model package's Model satisfies it.
type Decoder interface {
	Decode(tokenID int) string
	IsSpecial(tokenID int) bool
}

// Builder applies dual-threshold selection to probability vectors.
type Builder struct {
	dec Decoder
}

// NewBuilder creates a Builder that decodes candidate tokens through dec.
func NewBuilder(dec Decoder) *Builder {
	return &Builder{dec: dec}
}

// ValidateThresholds checks a threshold pair: both must lie in [0, 1] and the
// primary must not be below the secondary. A primary below the secondary
// would let the second pass select strictly more tokens than the first in an
// unintended way, so it is rejected outright instead of given a meaning.
func ValidateThresholds(primary, secondary float64) error {
	if primary < 0 || primary > 1 {
		return fmt.Errorf("%w: primary threshold %v outside [0, 1]", ErrInvalidConfiguration, primary)
	}
	if secondary < 0 || secondary > 1 {
		return fmt.Errorf("%w: secondary threshold %v outside [0, 1]", ErrInvalidConfiguration, secondary)
	}
	if primary < secondary {
		return fmt.Errorf("%w: primary threshold %v below secondary %v", ErrInvalidConfiguration, primary, secondary)
	}
	return nil
}

// Build selects candidates from probs using the dual-threshold rule:
// every entry with probability >= primary is selected; if more than 20% of
// the mass is still unaccounted for, a second pass adds every entry with
// probability >= secondary. The remaining mass is whatever the final
// candidate set does not cover. An empty candidate set with remaining ~1.0
// is a valid result for a flat vector.
func (b *Builder) Build(context string, probs []float64, primary, secondary float64) (*Distribution, error) {
	if err := ValidateThresholds(primary, secondary); err != nil {
		return nil, err
	}
	if len(probs) == 0 {
		return nil, fmt.Errorf("%w: empty probability vector", ErrInvalidState)
	}

	selected := make([]bool, len(probs))
	var candidates []TokenCandidate
	sum := 0.0
	for id, p := range probs {
		if p >= primary {
			candidates = append(candidates, b.candidate(id, p))
			selected[id] = true
			sum += p
		}
	}

	remaining := 1.0 - sum
	if remaining > secondaryPassTrigger {
		for id, p := range probs {
			if selected[id] || p < secondary {
				continue
			}
			candidates = append(candidates, b.candidate(id, p))
			sum += p
		}
		remaining = 1.0 - sum
	}

	if remaining < -massTolerance {
		return nil, fmt.Errorf("%w: candidate mass %v exceeds 1.0", ErrInvalidState, sum)
	}
	// Residue inside the tolerance band is float noise, not real mass;
	// collapsing it avoids a degenerate sliver of an "other" wedge.
	if remaining < massTolerance {
		remaining = 0
	}

	// Candidates were appended in ascending id order, so a stable sort gives
	// the documented tie-break: probability descending, ties by vocab order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Probability > candidates[j].Probability
	})

	return &Distribution{
		Context:              context,
		Candidates:           candidates,
		RemainingProbability: remaining,
	}, nil
}

func (b *Builder) candidate(id int, p float64) TokenCandidate {
	return TokenCandidate{
		Token:       b.dec.Decode(id),
		TokenID:     id,
		Probability: p,
		IsSpecial:   b.dec.IsSpecial(id),
	}
}

// CandidateIDs returns the set of token ids surfaced as candidates.
func (d *Distribution) CandidateIDs() map[int]struct{} {
	ids := make(map[int]struct{}, len(d.Candidates))
	for _, c := range d.Candidates {
		ids[c.TokenID] = struct{}{}
	}
	return ids
}

// Candidate looks up a candidate by token id.
func (d *Distribution) Candidate(tokenID int) (TokenCandidate, bool) {
	for _, c := range d.Candidates {
		if c.TokenID == tokenID {
			return c, true
		}
	}
	return TokenCandidate{}, false
}
