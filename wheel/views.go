package wheel

import (
	"fmt"
	"sort"
)

// OtherPreview is one concrete token surfaced from the remaining bucket for
// display purposes only; it is never selectable directly.
type OtherPreview struct {
	Token       string  `json:"token"`
	TokenID     int     `json:"token_id"`
	Probability float64 `json:"probability"`
}

// TokenView is one row of the display listing of a Distribution. The
// trailing "other" row, present when any mass remains, carries a top-N
// preview of the excluded tokens and the count of excluded tokens with
// non-zero probability.
type TokenView struct {
	Token          string         `json:"token"`
	TokenID        int            `json:"token_id"`
	Probability    float64        `json:"probability"`
	IsSpecial      bool           `json:"is_special"`
	IsOther        bool           `json:"is_other"`
	OtherTopTokens []OtherPreview `json:"other_top_tokens,omitempty"`
	RemainingCount int            `json:"remaining_count,omitempty"`
}

// TokenViews flattens d into its display listing. topOtherCount bounds the
// preview drawn from the remaining bucket; the preview is ordered by
// probability descending with ties broken by ascending token id, the same
// tie-break the builder uses. Building the preview re-derives the full
// vector through src once.
func TokenViews(src Source, d *Distribution, topOtherCount int) ([]TokenView, error) {
	views := make([]TokenView, 0, len(d.Candidates)+1)
	for _, c := range d.Candidates {
		views = append(views, TokenView{
			Token:       c.Token,
			TokenID:     c.TokenID,
			Probability: c.Probability,
			IsSpecial:   c.IsSpecial,
		})
	}
	if d.RemainingProbability <= 0 {
		return views, nil
	}

	probs, err := src.Probabilities(d.Context)
	if err != nil {
		return nil, fmt.Errorf("other preview: %w", err)
	}

	included := d.CandidateIDs()
	var excluded []OtherPreview
	for id, p := range probs {
		if _, ok := included[id]; ok {
			continue
		}
		if p <= 0 {
			continue
		}
		excluded = append(excluded, OtherPreview{
			Token:       src.Decode(id),
			TokenID:     id,
			Probability: p,
		})
	}
	sort.SliceStable(excluded, func(i, j int) bool {
		return excluded[i].Probability > excluded[j].Probability
	})

	top := excluded
	if topOtherCount >= 0 && len(top) > topOtherCount {
		top = top[:topOtherCount]
	}

	views = append(views, TokenView{
		Token:          OtherToken,
		TokenID:        OtherTokenID,
		Probability:    d.RemainingProbability,
		IsOther:        true,
		OtherTopTokens: top,
		RemainingCount: len(excluded),
	})
	return views, nil
}
